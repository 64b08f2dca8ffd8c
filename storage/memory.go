package storage

import (
	"fmt"
	"sort"

	"busmap.dev/busmap/model"
)

// In-memory implementation of Storage. Tables are kept as slices so
// feed order survives the round trip.

type MemoryStorage struct {
	Feeds    map[string]*MemoryFeed
	Metadata map[string]*FeedMetadata
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		Feeds:    map[string]*MemoryFeed{},
		Metadata: map[string]*FeedMetadata{},
	}
}

func (s *MemoryStorage) ListFeeds() ([]*FeedMetadata, error) {
	feeds := []*FeedMetadata{}
	for _, metadata := range s.Metadata {
		feeds = append(feeds, metadata)
	}
	sort.Slice(feeds, func(i, j int) bool {
		return feeds[i].RetrievedAt.After(feeds[j].RetrievedAt)
	})
	return feeds, nil
}

func (s *MemoryStorage) WriteFeedMetadata(metadata *FeedMetadata) error {
	s.Metadata[metadata.Hash] = metadata
	return nil
}

func (s *MemoryStorage) GetReader(feedID string) (FeedReader, error) {
	f, ok := s.Feeds[feedID]
	if !ok {
		return nil, fmt.Errorf("feed %s does not exist", feedID)
	}
	return f, nil
}

func (s *MemoryStorage) GetWriter(feedID string) (FeedWriter, error) {
	f := &MemoryFeed{}
	s.Feeds[feedID] = f
	return f, nil
}

type MemoryFeed struct {
	stops     []*model.Stop
	routes    []*model.Route
	trips     []*model.Trip
	stopTimes []*model.StopTime
}

func (f *MemoryFeed) WriteStop(stop *model.Stop) error {
	f.stops = append(f.stops, stop)
	return nil
}

func (f *MemoryFeed) WriteRoute(route *model.Route) error {
	f.routes = append(f.routes, route)
	return nil
}

func (f *MemoryFeed) WriteTrip(trip *model.Trip) error {
	f.trips = append(f.trips, trip)
	return nil
}

func (f *MemoryFeed) BeginStopTimes() error {
	return nil
}

func (f *MemoryFeed) WriteStopTime(stopTime *model.StopTime) error {
	f.stopTimes = append(f.stopTimes, stopTime)
	return nil
}

func (f *MemoryFeed) EndStopTimes() error {
	return nil
}

func (f *MemoryFeed) Close() error {
	return nil
}

func (f *MemoryFeed) Stops() ([]*model.Stop, error) {
	return f.stops, nil
}

func (f *MemoryFeed) Routes() ([]*model.Route, error) {
	return f.routes, nil
}

func (f *MemoryFeed) Trips() ([]*model.Trip, error) {
	return f.trips, nil
}

func (f *MemoryFeed) StopTimes() ([]*model.StopTime, error) {
	return f.stopTimes, nil
}
