package parse

import (
	"io"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"

	"busmap.dev/busmap/model"
	"busmap.dev/busmap/storage"
)

type StopTimeCSV struct {
	TripID        string `csv:"trip_id"`
	StopID        string `csv:"stop_id"`
	StopSequence  string `csv:"stop_sequence"`
	ArrivalTime   string `csv:"arrival_time"`
	DepartureTime string `csv:"departure_time"`
}

// Parses stop_times.txt with a streaming callback, since the file
// dwarfs the rest of the feed. Rows with no trip or stop reference,
// or an unparseable sequence number, are dropped. Clock times are
// stored raw; the travel-time estimator substitutes its fallback for
// anything it can't parse.
func ParseStopTimes(writer storage.FeedWriter, data io.Reader) (int, error) {
	count := 0

	i := -1
	err := gocsv.UnmarshalToCallbackWithError(data, func(st *StopTimeCSV) error {
		i += 1
		if st.TripID == "" || st.StopID == "" {
			return nil
		}

		seq, err := strconv.ParseUint(strings.TrimSpace(st.StopSequence), 10, 32)
		if err != nil {
			return nil
		}

		err = writer.WriteStopTime(&model.StopTime{
			TripID:       st.TripID,
			StopID:       st.StopID,
			StopSequence: uint32(seq),
			Arrival:      st.ArrivalTime,
			Departure:    st.DepartureTime,
		})
		if err != nil {
			return errors.Wrapf(err, "writing stop_time (row %d)", i+1)
		}
		count++

		return nil
	})
	if err != nil {
		return 0, errors.Wrap(err, "unmarshaling stop_times csv")
	}

	return count, nil
}
