package parse

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/spkg/bom"

	"busmap.dev/busmap/storage"
)

// The files we load from a static feed. All four are required; an
// absent file is the one hard failure class the loader has. Empty
// tables are fine and yield zero derived entities downstream.
var feedFiles = []string{
	"stops.txt",
	"routes.txt",
	"trips.txt",
	"stop_times.txt",
}

// ParseStatic loads a zipped static feed into the writer.
func ParseStatic(writer storage.FeedWriter, buf []byte) (*storage.FeedMetadata, error) {
	r, err := zip.NewReader(bytes.NewReader(buf), int64(len(buf)))
	if err != nil {
		return nil, fmt.Errorf("unzipping: %w", err)
	}

	file := map[string]io.ReadCloser{}
	defer func() {
		for _, rc := range file {
			if rc != nil {
				rc.Close()
			}
		}
	}()

	for _, f := range r.File {
		// There should not be any subdirectories. But, some
		// agencies don't care.
		if f.FileInfo().IsDir() {
			continue
		}
		path := strings.Split(f.Name, "/")
		fName := path[len(path)-1]

		for _, want := range feedFiles {
			if fName == want {
				rc, err := f.Open()
				if err != nil {
					return nil, fmt.Errorf("opening %s: %w", f.Name, err)
				}
				file[fName] = rc
				break
			}
		}
	}

	for _, required := range feedFiles {
		if file[required] == nil {
			return nil, fmt.Errorf("missing %s", required)
		}
	}

	return parseFiles(writer, file)
}

// Shared by the zip and directory loaders.
func parseFiles(writer storage.FeedWriter, file map[string]io.ReadCloser) (*storage.FeedMetadata, error) {
	// LazyCSVReader required (at least) to survive sloppy use of
	// quotes. The BOM reader strips unicode BOMs if present.
	gocsv.SetCSVReader(func(in io.Reader) gocsv.CSVReader {
		return gocsv.LazyCSVReader(bom.NewReader(in))
	})

	_, routeCount, err := ParseRoutes(writer, file["routes.txt"])
	if err != nil {
		return nil, fmt.Errorf("parsing routes.txt: %w", err)
	}

	_, tripCount, err := ParseTrips(writer, file["trips.txt"])
	if err != nil {
		return nil, fmt.Errorf("parsing trips.txt: %w", err)
	}

	_, stopCount, err := ParseStops(writer, file["stops.txt"])
	if err != nil {
		return nil, fmt.Errorf("parsing stops.txt: %w", err)
	}

	err = writer.BeginStopTimes()
	if err != nil {
		return nil, fmt.Errorf("beginning stop_times: %w", err)
	}
	stopTimeCount, err := ParseStopTimes(writer, file["stop_times.txt"])
	if err != nil {
		return nil, fmt.Errorf("parsing stop_times.txt: %w", err)
	}
	err = writer.EndStopTimes()
	if err != nil {
		return nil, fmt.Errorf("ending stop_times: %w", err)
	}

	err = writer.Close()
	if err != nil {
		return nil, fmt.Errorf("closing feed writer: %w", err)
	}

	return &storage.FeedMetadata{
		Stops:     stopCount,
		Routes:    routeCount,
		Trips:     tripCount,
		StopTimes: stopTimeCount,
	}, nil
}
