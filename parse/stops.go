package parse

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"

	"busmap.dev/busmap/model"
	"busmap.dev/busmap/storage"
)

type StopCSV struct {
	ID   string `csv:"stop_id"`
	Code string `csv:"stop_code"`
	Name string `csv:"stop_name"`

	// Coordinates are read as strings: plenty of feeds carry
	// blank or garbage values, and those stops must survive the
	// load (unlocated) rather than kill it.
	Lat string `csv:"stop_lat"`
	Lon string `csv:"stop_lon"`
}

func ParseStops(writer storage.FeedWriter, data io.Reader) (map[string]bool, int, error) {
	stopCsv := []*StopCSV{}
	if err := gocsv.Unmarshal(data, &stopCsv); err != nil {
		return nil, 0, fmt.Errorf("unmarshaling stops csv: %w", err)
	}

	stopIDs := map[string]bool{}
	count := 0
	for _, st := range stopCsv {
		if st.ID == "" {
			// No identifier, nothing can reference it.
			continue
		}
		if stopIDs[st.ID] {
			// Keep the first occurrence.
			continue
		}
		stopIDs[st.ID] = true

		lat, errLat := strconv.ParseFloat(strings.TrimSpace(st.Lat), 64)
		lon, errLon := strconv.ParseFloat(strings.TrimSpace(st.Lon), 64)
		located := errLat == nil && errLon == nil
		if !located {
			lat, lon = 0, 0
		}

		err := writer.WriteStop(&model.Stop{
			ID:      st.ID,
			Code:    st.Code,
			Name:    st.Name,
			Lat:     lat,
			Lon:     lon,
			Located: located,
		})
		if err != nil {
			return nil, 0, fmt.Errorf("writing stop '%s': %w", st.ID, err)
		}
		count++
	}

	return stopIDs, count, nil
}
