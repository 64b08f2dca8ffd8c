package parse

import (
	"fmt"
	"io"

	"github.com/gocarina/gocsv"

	"busmap.dev/busmap/model"
	"busmap.dev/busmap/storage"
)

type TripCSV struct {
	ID      string `csv:"trip_id"`
	RouteID string `csv:"route_id"`

	// Read as string: the column may be missing entirely, and
	// blank or non-binary values default to direction 0.
	DirectionID string `csv:"direction_id"`
}

func ParseTrips(writer storage.FeedWriter, data io.Reader) (map[string]bool, int, error) {
	tripCsv := []*TripCSV{}
	if err := gocsv.Unmarshal(data, &tripCsv); err != nil {
		return nil, 0, fmt.Errorf("unmarshaling trips csv: %w", err)
	}

	tripIDs := map[string]bool{}
	count := 0
	for _, t := range tripCsv {
		if t.ID == "" {
			continue
		}
		if tripIDs[t.ID] {
			continue
		}
		tripIDs[t.ID] = true

		var direction int8
		if t.DirectionID == "1" {
			direction = 1
		}

		err := writer.WriteTrip(&model.Trip{
			ID:          t.ID,
			RouteID:     t.RouteID,
			DirectionID: direction,
		})
		if err != nil {
			return nil, 0, fmt.Errorf("writing trip '%s': %w", t.ID, err)
		}
		count++
	}

	return tripIDs, count, nil
}
