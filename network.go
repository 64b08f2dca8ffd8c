package busmap

import (
	"fmt"
	"sort"

	"busmap.dev/busmap/model"
)

// The consolidation engine. For every (route, direction) pair it
// selects one representative trip, builds its stop geometry, and
// decides whether a route's two directions should collapse into a
// single bidirectional feature or stay separate.

type DirectionKey struct {
	RouteID     string
	DirectionID int8
}

type StopDetail struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

const (
	FeatureBidirectional = "bidirectional"
	FeatureOneWay        = "one_way"
)

// A renderable path feature, either one merged bidirectional route or
// a single direction of one. Geometry is [lon, lat] pairs, GeoJSON
// order.
type Feature struct {
	ID          string       `json:"id"`
	RouteName   string       `json:"route_name"`
	SearchLabel string       `json:"search_label"`
	Description string       `json:"description"`
	StopCount   int          `json:"stop_count"`
	StopDetails []StopDetail `json:"stop_details"`
	Kind        string       `json:"kind"`
	Geometry    [][2]float64 `json:"geometry"`
}

type Network struct {
	snap *Snapshot
	opts Options
}

func NewNetwork(snap *Snapshot, opts Options) *Network {
	return &Network{snap: snap, opts: opts}
}

// RepresentativeTrips maps every (route, direction) pair to the trip
// with the most stop visits. Ties go to whichever trip a stable sort
// by visit count places first, i.e. feed order among equals. That
// tie-break is insertion-order-dependent and almost certainly
// unintentional upstream, but it's preserved verbatim so repeated
// runs pick identical trips.
func (n *Network) RepresentativeTrips() map[DirectionKey]string {
	return representativeTrips(n.snap)
}

func representativeTrips(s *Snapshot) map[DirectionKey]string {
	order := make([]*model.Trip, len(s.Trips))
	copy(order, s.Trips)
	sort.SliceStable(order, func(i, j int) bool {
		return len(s.visitsByTrip[order[i].ID]) > len(s.visitsByTrip[order[j].ID])
	})

	reps := map[DirectionKey]string{}
	for _, trip := range order {
		key := DirectionKey{trip.RouteID, trip.DirectionID}
		if _, found := reps[key]; !found {
			reps[key] = trip.ID
		}
	}

	return reps
}

// The geometry derived from one representative trip: coordinates and
// marker details for the located visits, plus the full visited
// stop-id set for overlap comparison.
type routeGeometry struct {
	coords  [][2]float64
	stopIDs map[string]bool
	details []StopDetail
	start   string
	end     string
}

func (n *Network) buildGeometry(tripID string) *routeGeometry {
	g := &routeGeometry{stopIDs: map[string]bool{}}

	for _, visit := range n.snap.Visits(tripID) {
		g.stopIDs[visit.StopID] = true

		stop := n.snap.Stop(visit.StopID)
		if stop == nil || !stop.Located {
			// No coordinate, no marker. Never interpolated.
			continue
		}

		if len(g.coords) == 0 {
			g.start = stop.Name
		}
		g.end = stop.Name
		g.coords = append(g.coords, [2]float64{stop.Lon, stop.Lat})
		g.details = append(g.details, StopDetail{Name: stop.Name, Lat: stop.Lat, Lon: stop.Lon})
	}

	return g
}

// Jaccard similarity of two stop-id sets: |A∩B| / |A∪B|, 0.0 when
// either set is empty. The single metric behind the merge decision.
func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}

	intersection := 0
	for id := range a {
		if b[id] {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection

	return float64(intersection) / float64(union)
}

// Features derives the consolidated route network: per route either
// one merged bidirectional feature or up to two directional ones,
// sorted by search label.
func (n *Network) Features() []Feature {
	reps := representativeTrips(n.snap)

	byRoute := map[string]map[int8]*routeGeometry{}
	for key, tripID := range reps {
		g := n.buildGeometry(tripID)
		if len(g.coords) == 0 {
			// Every visit lacked a coordinate; nothing to
			// render.
			continue
		}
		if byRoute[key.RouteID] == nil {
			byRoute[key.RouteID] = map[int8]*routeGeometry{}
		}
		byRoute[key.RouteID][key.DirectionID] = g
	}

	routeIDs := make([]string, 0, len(byRoute))
	for routeID := range byRoute {
		routeIDs = append(routeIDs, routeID)
	}
	sort.Strings(routeIDs)

	features := []Feature{}
	for _, routeID := range routeIDs {
		directions := byRoute[routeID]
		name := n.snap.RouteName(routeID)

		outbound, hasOutbound := directions[0]
		inbound, hasInbound := directions[1]

		if hasOutbound && hasInbound &&
			jaccard(outbound.stopIDs, inbound.stopIDs) > n.opts.MergeThreshold {
			// Same corridor both ways: keep the longer
			// direction, discard the other entirely.
			g := outbound
			if len(inbound.coords) > len(outbound.coords) {
				g = inbound
			}
			features = append(features, Feature{
				ID:          routeID + "_bidir",
				RouteName:   name,
				SearchLabel: name + " (Bidirectional)",
				Description: g.start + " ↔ " + g.end,
				StopCount:   len(g.coords),
				StopDetails: g.details,
				Kind:        FeatureBidirectional,
				Geometry:    g.coords,
			})
			continue
		}

		for _, direction := range []int8{0, 1} {
			g, ok := directions[direction]
			if !ok {
				continue
			}
			suffix := "(Outbound)"
			if direction == 1 {
				suffix = "(Inbound)"
			}
			features = append(features, Feature{
				ID:          fmt.Sprintf("%s_%d", routeID, direction),
				RouteName:   name,
				SearchLabel: name + " " + suffix,
				Description: g.start + " → " + g.end,
				StopCount:   len(g.coords),
				StopDetails: g.details,
				Kind:        FeatureOneWay,
				Geometry:    g.coords,
			})
		}
	}

	sort.Slice(features, func(i, j int) bool {
		return features[i].SearchLabel < features[j].SearchLabel
	})

	return features
}
