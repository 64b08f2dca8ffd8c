package busmap

import (
	"regexp"
	"sort"
	"strings"

	"busmap.dev/busmap/model"
)

// The journey planner. Construction builds place- and route-level
// indices from the snapshot; after that every query is a pure,
// stateless lookup.

// Place groups stops that share a base name once the directional
// qualifier is stripped. Its coordinate is the mean of the located
// members.
type Place struct {
	Name      string  `json:"name"`
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
	StopCount int     `json:"stop_count"`
}

type Segment struct {
	RouteID    string `json:"route_id"`
	StartIndex int    `json:"start_index"`
	EndIndex   int    `json:"end_index"`
}

type Itinerary struct {
	DurationMinutes   int       `json:"duration_minutes"`
	TransferCount     int       `json:"transfer_count"`
	RouteIDs          []string  `json:"route_ids"`
	Segments          []Segment `json:"segments"`
	TransferPlace     string    `json:"transfer_place,omitempty"`
	OriginStopID      string    `json:"origin_stop_id"`
	DestinationStopID string    `json:"destination_stop_id"`
	StopCount         int       `json:"stop_count"`
}

type Planner struct {
	snap *Snapshot
	opts Options

	stopPlace   map[string]string
	placeStops  map[string][]string
	placeCoord  map[string][2]float64
	routeStops  map[string][]string
	stopRoutes  map[string]map[string]bool
	placeRoutes map[string]map[string]bool

	// Estimated minutes per consecutive stop pair, one entry fewer
	// than the route's stop sequence.
	travelTimes map[string][]int
}

func NewPlanner(snap *Snapshot, opts Options) (*Planner, error) {
	suffix, err := regexp.Compile(opts.DirectionalSuffixPattern)
	if err != nil {
		return nil, err
	}

	p := &Planner{
		snap:        snap,
		opts:        opts,
		stopPlace:   map[string]string{},
		placeStops:  map[string][]string{},
		placeCoord:  map[string][2]float64{},
		routeStops:  map[string][]string{},
		stopRoutes:  map[string]map[string]bool{},
		placeRoutes: map[string]map[string]bool{},
		travelTimes: map[string][]int{},
	}

	p.indexPlaces(suffix)
	p.indexRoutes()

	return p, nil
}

func (p *Planner) indexPlaces(suffix *regexp.Regexp) {
	for _, stop := range p.snap.Stops {
		place := strings.TrimSpace(stop.Name)
		if m := suffix.FindStringSubmatch(stop.Name); m != nil {
			place = strings.TrimSpace(m[1])
		}
		p.stopPlace[stop.ID] = place
		p.placeStops[place] = append(p.placeStops[place], stop.ID)
	}

	for place, stopIDs := range p.placeStops {
		var latSum, lonSum float64
		located := 0
		for _, stopID := range stopIDs {
			stop := p.snap.Stop(stopID)
			if !stop.Located {
				continue
			}
			latSum += stop.Lat
			lonSum += stop.Lon
			located++
		}
		if located > 0 {
			p.placeCoord[place] = [2]float64{latSum / float64(located), lonSum / float64(located)}
		}
	}
}

// indexRoutes derives one ordered stop sequence per route from its
// representative trips. When both directions exist the one with more
// visits stands for the route, ties favoring direction 0.
func (p *Planner) indexRoutes() {
	reps := representativeTrips(p.snap)

	tripForRoute := map[string]string{}
	for _, direction := range []int8{0, 1} {
		for rep, tripID := range reps {
			if rep.DirectionID != direction {
				continue
			}
			current, found := tripForRoute[rep.RouteID]
			if !found {
				tripForRoute[rep.RouteID] = tripID
				continue
			}
			if len(p.snap.Visits(tripID)) > len(p.snap.Visits(current)) {
				tripForRoute[rep.RouteID] = tripID
			}
		}
	}

	for routeID, tripID := range tripForRoute {
		visits := p.snap.Visits(tripID)
		if len(visits) == 0 {
			continue
		}

		sequence := make([]string, len(visits))
		for i, visit := range visits {
			sequence[i] = visit.StopID
			if p.stopRoutes[visit.StopID] == nil {
				p.stopRoutes[visit.StopID] = map[string]bool{}
			}
			p.stopRoutes[visit.StopID][routeID] = true
		}
		p.routeStops[routeID] = sequence

		times := make([]int, len(visits)-1)
		for i := range times {
			times[i] = p.segmentMinutes(visits[i], visits[i+1])
		}
		p.travelTimes[routeID] = times
	}

	for place, stopIDs := range p.placeStops {
		routes := map[string]bool{}
		for _, stopID := range stopIDs {
			for routeID := range p.stopRoutes[stopID] {
				routes[routeID] = true
			}
		}
		p.placeRoutes[place] = routes
	}
}

// segmentMinutes estimates the ride between two consecutive visits
// from their clock times. A missing, unparseable, or backwards gap
// gets the fixed fallback; parseable gaps are clamped so overnight
// and error timestamps can't produce nonsense durations.
func (p *Planner) segmentMinutes(from, to *model.StopTime) int {
	dep, okDep := from.DepartureMinutes()
	arr, okArr := to.ArrivalMinutes()
	if !okDep || !okArr {
		return p.opts.FallbackSegmentMinutes
	}

	gap := arr - dep
	if gap < 0 {
		return p.opts.FallbackSegmentMinutes
	}
	if gap < p.opts.MinSegmentMinutes {
		return p.opts.MinSegmentMinutes
	}
	if gap > p.opts.MaxSegmentMinutes {
		return p.opts.MaxSegmentMinutes
	}
	return gap
}

// HasPlace reports whether the feed yielded a place with this name.
func (p *Planner) HasPlace(name string) bool {
	_, found := p.placeStops[name]
	return found
}

// Places lists every place sorted by name, with its mean coordinate
// and member stop count. This is the planner's autocomplete data.
func (p *Planner) Places() []Place {
	places := make([]Place, 0, len(p.placeStops))
	for name, stopIDs := range p.placeStops {
		coord := p.placeCoord[name]
		places = append(places, Place{
			Name:      name,
			Lat:       coord[0],
			Lon:       coord[1],
			StopCount: len(stopIDs),
		})
	}
	sort.Slice(places, func(i, j int) bool {
		return places[i].Name < places[j].Name
	})
	return places
}

// legMinutes sums the per-segment estimates over [from, to) on a
// route's sequence.
func (p *Planner) legMinutes(routeID string, from, to int) int {
	total := 0
	for _, minutes := range p.travelTimes[routeID][from:to] {
		total += minutes
	}
	return total
}

func sortedRouteIDs(set map[string]bool) []string {
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// FindItineraries enumerates direct and one-transfer journeys from
// one place to another, ranked by estimated duration. An unknown
// place yields an empty result; no route found is a normal outcome,
// not an error. Identical origin and destination is a caller-side
// mistake this core does not define behavior for.
func (p *Planner) FindItineraries(origin, destination string) []Itinerary {
	originRoutes, originKnown := p.placeRoutes[origin]
	destRoutes, destKnown := p.placeRoutes[destination]
	if !originKnown || !destKnown {
		return []Itinerary{}
	}

	var found []Itinerary

	// Direct: one route serving both places, destination reached
	// after boarding.
	direct := 0
	for _, routeID := range sortedRouteIDs(originRoutes) {
		if !destRoutes[routeID] {
			continue
		}
		sequence := p.routeStops[routeID]

		originIdx := -1
		for i, stopID := range sequence {
			place := p.stopPlace[stopID]
			if originIdx < 0 {
				if place == origin {
					originIdx = i
				}
				continue
			}
			if place == destination {
				found = append(found, Itinerary{
					DurationMinutes:   p.legMinutes(routeID, originIdx, i),
					TransferCount:     0,
					RouteIDs:          []string{routeID},
					Segments:          []Segment{{RouteID: routeID, StartIndex: originIdx, EndIndex: i}},
					OriginStopID:      sequence[originIdx],
					DestinationStopID: stopID,
					StopCount:         i - originIdx + 1,
				})
				direct++
				break
			}
		}
	}

	// One-transfer, only while direct results are scarce. Bounded
	// by the lookahead so dense networks don't blow up.
	if direct < p.opts.MaxDirectBeforeTransfer {
		found = append(found, p.transferItineraries(origin, destination, originRoutes, destRoutes)...)
	}

	sort.SliceStable(found, func(i, j int) bool {
		if found[i].DurationMinutes != found[j].DurationMinutes {
			return found[i].DurationMinutes < found[j].DurationMinutes
		}
		return found[i].TransferCount < found[j].TransferCount
	})

	// Dedupe by the unordered set of routes used, keeping the
	// best-ranked instance per combination.
	seen := map[string]bool{}
	deduped := []Itinerary{}
	for _, itinerary := range found {
		key := routeSetKey(itinerary.RouteIDs)
		if seen[key] {
			continue
		}
		seen[key] = true
		deduped = append(deduped, itinerary)
		if len(deduped) == p.opts.MaxItineraries {
			break
		}
	}

	return deduped
}

func routeSetKey(routeIDs []string) string {
	ids := make([]string, len(routeIDs))
	copy(ids, routeIDs)
	sort.Strings(ids)
	return strings.Join(ids, "|")
}

func (p *Planner) transferItineraries(origin, destination string, originRoutes, destRoutes map[string]bool) []Itinerary {
	var found []Itinerary

	for _, firstRoute := range sortedRouteIDs(originRoutes) {
		firstSeq := p.routeStops[firstRoute]

		originIdx := -1
		for i, stopID := range firstSeq {
			if p.stopPlace[stopID] == origin {
				originIdx = i
				break
			}
		}
		if originIdx < 0 {
			continue
		}

		limit := originIdx + p.opts.TransferLookahead
		if limit > len(firstSeq)-1 {
			limit = len(firstSeq) - 1
		}

		for i := originIdx + 1; i <= limit; i++ {
			transferPlace := p.stopPlace[firstSeq[i]]

			for _, secondRoute := range sortedRouteIDs(destRoutes) {
				if secondRoute == firstRoute {
					continue
				}
				secondSeq := p.routeStops[secondRoute]

				transferIdx := -1
				for j, stopID := range secondSeq {
					place := p.stopPlace[stopID]
					if transferIdx < 0 {
						if place == transferPlace {
							transferIdx = j
						}
						continue
					}
					if place == destination {
						// Board the second route at
						// the transfer place, ride to
						// the first destination stop
						// after it.
						found = append(found, Itinerary{
							DurationMinutes: p.legMinutes(firstRoute, originIdx, i) +
								p.opts.TransferPenaltyMinutes +
								p.legMinutes(secondRoute, transferIdx, j),
							TransferCount: 1,
							RouteIDs:      []string{firstRoute, secondRoute},
							Segments: []Segment{
								{RouteID: firstRoute, StartIndex: originIdx, EndIndex: i},
								{RouteID: secondRoute, StartIndex: transferIdx, EndIndex: j},
							},
							TransferPlace:     transferPlace,
							OriginStopID:      firstSeq[originIdx],
							DestinationStopID: stopID,
							StopCount:         (i - originIdx) + (j - transferIdx) + 1,
						})
						break
					}
				}
			}
		}
	}

	return found
}
