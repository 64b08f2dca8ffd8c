package busmap

import (
	"sort"

	"busmap.dev/busmap/storage"
)

type NearbyStop struct {
	StopID     string   `json:"stop_id"`
	Name       string   `json:"name"`
	Lat        float64  `json:"lat"`
	Lon        float64  `json:"lon"`
	DistanceKm float64  `json:"distance_km"`
	Routes     []string `json:"routes"`
}

// NearbyStops lists located stops ordered by distance from a
// coordinate, each with the display names of the routes serving it.
// A radius of 0 or less means unbounded; a limit of 0 or less means
// no cap.
func (p *Planner) NearbyStops(lat, lon, radiusKm float64, limit int) []NearbyStop {
	nearby := []NearbyStop{}

	for _, stop := range p.snap.Stops {
		if !stop.Located {
			continue
		}
		distance := storage.HaversineDistance(lat, lon, stop.Lat, stop.Lon)
		if radiusKm > 0 && distance > radiusKm {
			continue
		}

		routes := []string{}
		for routeID := range p.stopRoutes[stop.ID] {
			routes = append(routes, p.snap.RouteName(routeID))
		}
		sort.Strings(routes)

		nearby = append(nearby, NearbyStop{
			StopID:     stop.ID,
			Name:       stop.Name,
			Lat:        stop.Lat,
			Lon:        stop.Lon,
			DistanceKm: distance,
			Routes:     routes,
		})
	}

	sort.SliceStable(nearby, func(i, j int) bool {
		return nearby[i].DistanceKm < nearby[j].DistanceKm
	})

	if limit > 0 && len(nearby) > limit {
		nearby = nearby[:limit]
	}

	return nearby
}
