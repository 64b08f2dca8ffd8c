package busmap

// Tunables for the consolidation engine and the journey planner. The
// defaults are the values the derived network has been running with;
// none of them is calibrated from data.
type Options struct {
	// Jaccard overlap above which a route's two directions are
	// collapsed into one bidirectional feature. Outbound and
	// return stops on the same corridor usually carry distinct
	// IDs (opposite roadside), so requiring full identity would
	// almost never merge anything.
	MergeThreshold float64

	// How many stops past the boarding point to consider as
	// transfer candidates, bounding the one-transfer search.
	TransferLookahead int

	// Flat minutes added for changing vehicles.
	TransferPenaltyMinutes int

	// Direct itineraries found before the one-transfer search is
	// skipped entirely.
	MaxDirectBeforeTransfer int

	// Itineraries returned per query.
	MaxItineraries int

	// Substitute for segments whose clock times are missing,
	// unparseable or run backwards.
	FallbackSegmentMinutes int

	// Clamp bounds for estimated per-segment minutes. Overnight
	// and error timestamps would otherwise produce nonsense
	// durations.
	MinSegmentMinutes int
	MaxSegmentMinutes int

	// Pattern stripping the directional qualifier off a stop name
	// to get its place name. Must capture the base name in group
	// 1. Stop names that don't match are their own place.
	DirectionalSuffixPattern string
}

func DefaultOptions() Options {
	return Options{
		MergeThreshold:           0.3,
		TransferLookahead:        20,
		TransferPenaltyMinutes:   5,
		MaxDirectBeforeTransfer:  3,
		MaxItineraries:           5,
		FallbackSegmentMinutes:   3,
		MinSegmentMinutes:        1,
		MaxSegmentMinutes:        30,
		DirectionalSuffixPattern: `(?i)^(.+?)\s+Twd\s+.+$`,
	}
}
