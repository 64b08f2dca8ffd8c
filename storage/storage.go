package storage

import (
	"time"

	"busmap.dev/busmap/model"
)

// Storage hands out per-feed writers and readers, keyed by an opaque
// feed identifier (typically the hash of the feed archive).
type Storage interface {
	// Retrieves metadata for all stored feeds, most recently
	// retrieved first.
	ListFeeds() ([]*FeedMetadata, error)

	// Writes a FeedMetadata record. If a record with the same
	// hash exists, it is updated.
	WriteFeedMetadata(metadata *FeedMetadata) error

	// Gets a reader for the feed with the given ID.
	GetReader(feed string) (FeedReader, error)

	// Gets a writer for the feed with the given ID.
	GetWriter(feed string) (FeedWriter, error)
}

// Metadata for a stored feed. The parsed tables are accessed via
// FeedReader.
type FeedMetadata struct {
	Hash        string
	URL         string
	RetrievedAt time.Time
	Stops       int
	Routes      int
	Trips       int
	StopTimes   int
}

// Writes feed records for a single feed.
//
// Feed order matters: readers must hand records back in the order
// they were written, since the representative-trip tie-break depends
// on it. As stop_times.txt tends to be very large, BeginStopTimes()
// and EndStopTimes() bracket all WriteStopTime() calls, allowing
// transactions/batching.
type FeedWriter interface {
	WriteStop(stop *model.Stop) error
	WriteRoute(route *model.Route) error
	WriteTrip(trip *model.Trip) error
	BeginStopTimes() error
	WriteStopTime(stopTime *model.StopTime) error
	EndStopTimes() error
	Close() error
}

// Reads back the tables of a single feed, in feed order.
type FeedReader interface {
	Stops() ([]*model.Stop, error)
	Routes() ([]*model.Route, error)
	Trips() ([]*model.Trip, error)
	StopTimes() ([]*model.StopTime, error)
}
