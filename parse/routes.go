package parse

import (
	"fmt"
	"io"

	"github.com/gocarina/gocsv"

	"busmap.dev/busmap/model"
	"busmap.dev/busmap/storage"
)

type RouteCSV struct {
	ID        string `csv:"route_id"`
	ShortName string `csv:"route_short_name"`
	LongName  string `csv:"route_long_name"`
}

func ParseRoutes(writer storage.FeedWriter, data io.Reader) (map[string]bool, int, error) {
	routeCsv := []*RouteCSV{}
	if err := gocsv.Unmarshal(data, &routeCsv); err != nil {
		return nil, 0, fmt.Errorf("unmarshaling routes csv: %w", err)
	}

	routeIDs := map[string]bool{}
	count := 0
	for _, r := range routeCsv {
		if r.ID == "" {
			continue
		}
		if routeIDs[r.ID] {
			continue
		}
		routeIDs[r.ID] = true

		err := writer.WriteRoute(&model.Route{
			ID:        r.ID,
			ShortName: r.ShortName,
			LongName:  r.LongName,
		})
		if err != nil {
			return nil, 0, fmt.Errorf("writing route '%s': %w", r.ID, err)
		}
		count++
	}

	return routeIDs, count, nil
}
