package busmap_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"busmap.dev/busmap"
	"busmap.dev/busmap/testutil"
)

// Feed to features to itinerary, through the zip parser and a real
// storage backend.
func TestEndToEnd(t *testing.T) {
	for _, backend := range []string{"memory", "sqlite"} {
		t.Run(backend, func(t *testing.T) {
			snap := testutil.BuildSnapshot(t, backend, map[string][]string{
				"stops.txt": {
					"stop_id,stop_name,stop_lat,stop_lon",
					"s1,Harbour Twd Hilltop,40.700,-74.100",
					"s2,Market Twd Hilltop,40.705,-74.095",
					"s3,Hilltop Twd Harbour,40.710,-74.090",
					"s4,Hilltop Twd Market,40.7101,-74.0901",
					"s5,Market Twd Harbour,40.7051,-74.0951",
					"s6,Harbour Twd Market,40.7001,-74.1001",
				},
				"routes.txt": {
					"route_id,route_short_name,route_long_name",
					"r1,42,Harbour Hilltop Line",
				},
				"trips.txt": {
					"trip_id,route_id,direction_id",
					"t_out,r1,0",
					"t_in,r1,1",
				},
				"stop_times.txt": {
					"trip_id,stop_id,stop_sequence,arrival_time,departure_time",
					"t_out,s1,1,08:00:00,08:01:00",
					"t_out,s2,2,08:06:00,08:07:00",
					"t_out,s3,3,08:12:00,08:13:00",
					"t_in,s4,1,09:00:00,09:01:00",
					"t_in,s5,2,09:06:00,09:07:00",
					"t_in,s6,3,09:12:00,09:13:00",
				},
			})

			opts := busmap.DefaultOptions()

			// The directions share no stop IDs: two one-way
			// features.
			features := busmap.NewNetwork(snap, opts).Features()
			require.Len(t, features, 2)
			assert.Equal(t, "42 (Inbound)", features[0].SearchLabel)
			assert.Equal(t, "42 (Outbound)", features[1].SearchLabel)
			assert.Equal(t, "Harbour Twd Hilltop → Hilltop Twd Harbour", features[1].Description)
			assert.Len(t, features[1].Geometry, 3)

			// The wire shape consumed by the map.
			buf, err := json.Marshal(busmap.FeatureCollection(features))
			require.NoError(t, err)
			assert.Contains(t, string(buf), `"type":"LineString"`)
			assert.Contains(t, string(buf), `"search_label":"42 (Outbound)"`)

			// Directional suffixes collapse the six stops into
			// three places, connected by route r1.
			planner, err := busmap.NewPlanner(snap, opts)
			require.NoError(t, err)

			places := planner.Places()
			require.Len(t, places, 3)
			assert.Equal(t, "Harbour", places[0].Name)
			assert.Equal(t, "Hilltop", places[1].Name)
			assert.Equal(t, "Market", places[2].Name)
			assert.Equal(t, 2, places[0].StopCount)

			itineraries := planner.FindItineraries("Harbour", "Hilltop")
			require.Len(t, itineraries, 1)
			assert.Equal(t, 0, itineraries[0].TransferCount)
			assert.Equal(t, []string{"r1"}, itineraries[0].RouteIDs)
			// Two five-minute hops on the outbound timetable.
			assert.Equal(t, 10, itineraries[0].DurationMinutes)
			assert.Equal(t, "s1", itineraries[0].OriginStopID)
			assert.Equal(t, "s3", itineraries[0].DestinationStopID)
		})
	}
}
