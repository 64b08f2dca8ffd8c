package parse

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"busmap.dev/busmap/model"
	"busmap.dev/busmap/storage"
)

func buildZip(t *testing.T, files map[string][]string) []byte {
	buf := &bytes.Buffer{}
	w := zip.NewWriter(buf)
	for filename, content := range files {
		f, err := w.Create(filename)
		require.NoError(t, err)
		_, err = f.Write([]byte(strings.Join(content, "\n")))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func testFeed(t *testing.T) (storage.FeedWriter, storage.FeedReader) {
	s := storage.NewMemoryStorage()
	writer, err := s.GetWriter("test")
	require.NoError(t, err)
	reader, err := s.GetReader("test")
	require.NoError(t, err)
	return writer, reader
}

func TestParseStopsLeniency(t *testing.T) {
	writer, reader := testFeed(t)

	content := `stop_id,stop_name,stop_lat,stop_lon
s1,First,1.1,2.2
s2,No coordinate,,
s3,Garbage coordinate,abc,2.2
,Nameless,-1.0,1.0
s1,Duplicate,9.9,9.9`

	ids, count, err := ParseStops(writer, bytes.NewBufferString(content))
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.Equal(t, map[string]bool{"s1": true, "s2": true, "s3": true}, ids)

	stops, err := reader.Stops()
	require.NoError(t, err)
	require.Len(t, stops, 3)

	assert.Equal(t, &model.Stop{ID: "s1", Name: "First", Lat: 1.1, Lon: 2.2, Located: true}, stops[0])
	assert.False(t, stops[1].Located)
	assert.False(t, stops[2].Located)
	assert.Zero(t, stops[2].Lat)
}

func TestParseTripsDirectionDefaults(t *testing.T) {
	writer, reader := testFeed(t)

	content := `trip_id,route_id,direction_id
t1,r,0
t2,r,1
t3,r,
t4,r,2`

	_, count, err := ParseTrips(writer, bytes.NewBufferString(content))
	require.NoError(t, err)
	assert.Equal(t, 4, count)

	trips, err := reader.Trips()
	require.NoError(t, err)
	require.Len(t, trips, 4)
	assert.Equal(t, int8(0), trips[0].DirectionID)
	assert.Equal(t, int8(1), trips[1].DirectionID)
	assert.Equal(t, int8(0), trips[2].DirectionID)
	assert.Equal(t, int8(0), trips[3].DirectionID)
}

func TestParseStopTimesDropsBadRows(t *testing.T) {
	writer, reader := testFeed(t)

	content := `trip_id,stop_id,stop_sequence,arrival_time,departure_time
t1,s1,1,08:00:00,08:01:00
,s2,2,08:05:00,08:06:00
t1,,3,08:10:00,08:11:00
t1,s4,x,08:15:00,08:16:00
t1,s5,5,garbage,`

	count, err := ParseStopTimes(writer, bytes.NewBufferString(content))
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	stopTimes, err := reader.StopTimes()
	require.NoError(t, err)
	require.Len(t, stopTimes, 2)

	assert.Equal(t, "s1", stopTimes[0].StopID)
	assert.Equal(t, uint32(1), stopTimes[0].StopSequence)

	// Malformed clock times survive the load; the travel-time
	// estimator substitutes its fallback later.
	assert.Equal(t, "s5", stopTimes[1].StopID)
	assert.Equal(t, "garbage", stopTimes[1].Arrival)
}

func TestParseStatic(t *testing.T) {
	buf := buildZip(t, map[string][]string{
		"stops.txt": {
			"stop_id,stop_name,stop_lat,stop_lon",
			"s1,Alpha,1.0,2.0",
			"s2,Beta,1.5,2.5",
		},
		"routes.txt": {
			"route_id,route_short_name,route_long_name",
			"r1,10A,Airport Express",
		},
		"trips.txt": {
			"trip_id,route_id,direction_id",
			"t1,r1,0",
		},
		"stop_times.txt": {
			"trip_id,stop_id,stop_sequence,arrival_time,departure_time",
			"t1,s1,1,08:00:00,08:01:00",
			"t1,s2,2,08:07:00,08:08:00",
		},
	})

	s := storage.NewMemoryStorage()
	writer, err := s.GetWriter("test")
	require.NoError(t, err)

	metadata, err := ParseStatic(writer, buf)
	require.NoError(t, err)
	assert.Equal(t, 2, metadata.Stops)
	assert.Equal(t, 1, metadata.Routes)
	assert.Equal(t, 1, metadata.Trips)
	assert.Equal(t, 2, metadata.StopTimes)

	reader, err := s.GetReader("test")
	require.NoError(t, err)
	stops, err := reader.Stops()
	require.NoError(t, err)
	require.Len(t, stops, 2)
	assert.Equal(t, "Alpha", stops[0].Name)
}

func TestParseStaticStripsBOM(t *testing.T) {
	buf := buildZip(t, map[string][]string{
		"stops.txt": {
			"\ufeffstop_id,stop_name,stop_lat,stop_lon",
			"s1,Alpha,1.0,2.0",
		},
		"routes.txt":     {"route_id", "r1"},
		"trips.txt":      {"trip_id,route_id", "t1,r1"},
		"stop_times.txt": {"trip_id,stop_id,stop_sequence", "t1,s1,1"},
	})

	s := storage.NewMemoryStorage()
	writer, err := s.GetWriter("test")
	require.NoError(t, err)

	metadata, err := ParseStatic(writer, buf)
	require.NoError(t, err)
	assert.Equal(t, 1, metadata.Stops)
}

func TestParseStaticMissingFile(t *testing.T) {
	buf := buildZip(t, map[string][]string{
		"stops.txt":  {"stop_id", "s1"},
		"routes.txt": {"route_id", "r1"},
		"trips.txt":  {"trip_id,route_id", "t1,r1"},
	})

	s := storage.NewMemoryStorage()
	writer, err := s.GetWriter("test")
	require.NoError(t, err)

	_, err = ParseStatic(writer, buf)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing stop_times.txt")
}

func TestParseDir(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"stops.txt":      "stop_id,stop_name,stop_lat,stop_lon\ns1,Alpha,1.0,2.0",
		"routes.txt":     "route_id\nr1",
		"trips.txt":      "trip_id,route_id\nt1,r1",
		"stop_times.txt": "trip_id,stop_id,stop_sequence\nt1,s1,1",
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}

	s := storage.NewMemoryStorage()
	writer, err := s.GetWriter("test")
	require.NoError(t, err)

	metadata, err := ParseDir(writer, dir)
	require.NoError(t, err)
	assert.Equal(t, 1, metadata.Stops)
	assert.Equal(t, 1, metadata.StopTimes)

	_, err = ParseDir(writer, t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing")
}
