package model

import (
	"strconv"
	"strings"
)

// Plain records for the four feed tables. All numeric fields are
// parsed once at the load boundary; clock times stay as "HH:MM:SS"
// strings since hours may exceed 23 for post-midnight service.

type Stop struct {
	ID   string
	Code string
	Name string
	Lat  float64
	Lon  float64

	// Located is false when the feed carried no parseable
	// coordinate for this stop. Unlocated stops are excluded from
	// geometries, never interpolated.
	Located bool
}

type Route struct {
	ID        string
	ShortName string
	LongName  string
}

// DisplayName returns the route's human name with explicit fallback
// precedence: short name, then long name, then the route ID itself.
func (r *Route) DisplayName() string {
	if r.ShortName != "" {
		return r.ShortName
	}
	if r.LongName != "" {
		return r.LongName
	}
	return r.ID
}

type Trip struct {
	ID          string
	RouteID     string
	DirectionID int8
}

// A single stop visit within a trip.
type StopTime struct {
	TripID       string
	StopID       string
	StopSequence uint32
	Arrival      string
	Departure    string
}

// ArrivalMinutes parses the arrival clock time into minutes since
// midnight. Seconds are ignored. Returns false for malformed times.
func (st *StopTime) ArrivalMinutes() (int, bool) {
	return clockMinutes(st.Arrival)
}

// DepartureMinutes is ArrivalMinutes for the departure clock time.
func (st *StopTime) DepartureMinutes() (int, bool) {
	return clockMinutes(st.Departure)
}

func clockMinutes(s string) (int, bool) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 {
		return 0, false
	}
	h, errH := strconv.Atoi(parts[0])
	m, errM := strconv.Atoi(parts[1])
	if errH != nil || errM != nil {
		return 0, false
	}
	return h*60 + m, true
}
