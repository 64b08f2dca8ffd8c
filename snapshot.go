package busmap

import (
	"fmt"
	"sort"

	"busmap.dev/busmap/model"
	"busmap.dev/busmap/storage"
)

// Snapshot is an immutable copy of a feed's tables, indexed for the
// derived computations. It is built once from a FeedReader and then
// only read; both the consolidation engine and the journey planner
// take one by reference, and neither mutates it.
type Snapshot struct {
	Stops  []*model.Stop
	Routes []*model.Route
	Trips  []*model.Trip

	stopByID     map[string]*model.Stop
	routeByID    map[string]*model.Route
	visitsByTrip map[string][]*model.StopTime
}

func NewSnapshot(reader storage.FeedReader) (*Snapshot, error) {
	stops, err := reader.Stops()
	if err != nil {
		return nil, fmt.Errorf("reading stops: %w", err)
	}
	routes, err := reader.Routes()
	if err != nil {
		return nil, fmt.Errorf("reading routes: %w", err)
	}
	trips, err := reader.Trips()
	if err != nil {
		return nil, fmt.Errorf("reading trips: %w", err)
	}
	stopTimes, err := reader.StopTimes()
	if err != nil {
		return nil, fmt.Errorf("reading stop_times: %w", err)
	}

	s := &Snapshot{
		Stops:        stops,
		Routes:       routes,
		Trips:        trips,
		stopByID:     make(map[string]*model.Stop, len(stops)),
		routeByID:    make(map[string]*model.Route, len(routes)),
		visitsByTrip: map[string][]*model.StopTime{},
	}

	for _, stop := range stops {
		s.stopByID[stop.ID] = stop
	}
	for _, route := range routes {
		s.routeByID[route.ID] = route
	}
	for _, st := range stopTimes {
		s.visitsByTrip[st.TripID] = append(s.visitsByTrip[st.TripID], st)
	}

	// Sequence numbers are integers even when the feed stores
	// them as text; the parser has already forced them numeric,
	// so this sort can't accidentally go lexical.
	for _, visits := range s.visitsByTrip {
		sort.SliceStable(visits, func(i, j int) bool {
			return visits[i].StopSequence < visits[j].StopSequence
		})
	}

	return s, nil
}

// Visits returns a trip's stop visits ordered by sequence number.
func (s *Snapshot) Visits(tripID string) []*model.StopTime {
	return s.visitsByTrip[tripID]
}

// Stop returns the stop record for an ID, or nil if the feed never
// declared it.
func (s *Snapshot) Stop(stopID string) *model.Stop {
	return s.stopByID[stopID]
}

// RouteName returns a route's display name, falling back to the ID
// for routes the feed never declared.
func (s *Snapshot) RouteName(routeID string) string {
	if route, ok := s.routeByID[routeID]; ok {
		return route.DisplayName()
	}
	return routeID
}
