package storage

import (
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"busmap.dev/busmap/model"
)

const PSQLStopTimeBatchSize = 5000

// Postgres implementation of Storage. All feeds share one database;
// every table carries a feed column, and a serial position column
// preserves feed order.
type PSQLStorage struct {
	db *sql.DB
}

type PSQLFeedWriter struct {
	id          string
	db          *sql.DB
	stopTimeBuf []*model.StopTime
}

type PSQLFeedReader struct {
	id string
	db *sql.DB
}

// Creates a new Postgres Storage using the provided connection
// string. If clearDB is true, all busmap tables are dropped on
// startup. You probably only want that for testing.
func NewPSQLStorage(connStr string, clearDB bool) (*PSQLStorage, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("opening db: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("pinging db: %w", err)
	}

	if clearDB {
		_, err = db.Exec(`
DROP TABLE IF EXISTS feed;
DROP TABLE IF EXISTS stops;
DROP TABLE IF EXISTS routes;
DROP TABLE IF EXISTS trips;
DROP TABLE IF EXISTS stop_times;
`)
		if err != nil {
			return nil, fmt.Errorf("clearing db: %w", err)
		}
	}

	_, err = db.Exec(`
CREATE TABLE IF NOT EXISTS feed (
    hash TEXT,
    url TEXT NOT NULL,
    retrieved_at TIMESTAMPTZ NOT NULL,
    stops INTEGER NOT NULL,
    routes INTEGER NOT NULL,
    trips INTEGER NOT NULL,
    stop_times INTEGER NOT NULL,
    PRIMARY KEY (hash)
);

CREATE TABLE IF NOT EXISTS stops (
    feed TEXT NOT NULL,
    pos SERIAL,
    id TEXT NOT NULL,
    code TEXT,
    name TEXT,
    lat DOUBLE PRECISION NOT NULL,
    lon DOUBLE PRECISION NOT NULL,
    located BOOLEAN NOT NULL
);
CREATE INDEX IF NOT EXISTS stops_feed ON stops (feed);

CREATE TABLE IF NOT EXISTS routes (
    feed TEXT NOT NULL,
    pos SERIAL,
    id TEXT NOT NULL,
    short_name TEXT,
    long_name TEXT
);
CREATE INDEX IF NOT EXISTS routes_feed ON routes (feed);

CREATE TABLE IF NOT EXISTS trips (
    feed TEXT NOT NULL,
    pos SERIAL,
    id TEXT NOT NULL,
    route_id TEXT NOT NULL,
    direction_id SMALLINT NOT NULL
);
CREATE INDEX IF NOT EXISTS trips_feed ON trips (feed);

CREATE TABLE IF NOT EXISTS stop_times (
    feed TEXT NOT NULL,
    pos SERIAL,
    trip_id TEXT NOT NULL,
    stop_id TEXT NOT NULL,
    stop_sequence BIGINT NOT NULL,
    arrival_time TEXT,
    departure_time TEXT
);
CREATE INDEX IF NOT EXISTS stop_times_feed ON stop_times (feed);
CREATE INDEX IF NOT EXISTS stop_times_feed_trip ON stop_times (feed, trip_id);
`)
	if err != nil {
		return nil, fmt.Errorf("creating tables: %w", err)
	}

	return &PSQLStorage{db: db}, nil
}

func (s *PSQLStorage) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("closing db: %w", err)
	}
	return nil
}

func (s *PSQLStorage) ListFeeds() ([]*FeedMetadata, error) {
	rows, err := s.db.Query(`
SELECT hash, url, retrieved_at, stops, routes, trips, stop_times
FROM feed
ORDER BY retrieved_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing feeds: %w", err)
	}
	defer rows.Close()

	var feeds []*FeedMetadata
	for rows.Next() {
		var feed FeedMetadata
		err := rows.Scan(
			&feed.Hash,
			&feed.URL,
			&feed.RetrievedAt,
			&feed.Stops,
			&feed.Routes,
			&feed.Trips,
			&feed.StopTimes,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning feed: %w", err)
		}
		feeds = append(feeds, &feed)
	}

	return feeds, nil
}

func (s *PSQLStorage) WriteFeedMetadata(feed *FeedMetadata) error {
	_, err := s.db.Exec(`
INSERT INTO feed (hash, url, retrieved_at, stops, routes, trips, stop_times)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (hash) DO UPDATE SET
    url = excluded.url,
    retrieved_at = excluded.retrieved_at,
    stops = excluded.stops,
    routes = excluded.routes,
    trips = excluded.trips,
    stop_times = excluded.stop_times
`,
		feed.Hash,
		feed.URL,
		feed.RetrievedAt,
		feed.Stops,
		feed.Routes,
		feed.Trips,
		feed.StopTimes,
	)
	if err != nil {
		return fmt.Errorf("writing feed metadata: %w", err)
	}
	return nil
}

func (s *PSQLStorage) GetReader(feedID string) (FeedReader, error) {
	return &PSQLFeedReader{id: feedID, db: s.db}, nil
}

func (s *PSQLStorage) GetWriter(feedID string) (FeedWriter, error) {
	// Clear out any previous data for this feed.
	for _, table := range []string{"stops", "routes", "trips", "stop_times"} {
		_, err := s.db.Exec(fmt.Sprintf(`DELETE FROM %s WHERE feed = $1`, table), feedID)
		if err != nil {
			return nil, fmt.Errorf("clearing %s: %w", table, err)
		}
	}

	return &PSQLFeedWriter{id: feedID, db: s.db}, nil
}

func (w *PSQLFeedWriter) WriteStop(stop *model.Stop) error {
	_, err := w.db.Exec(`
INSERT INTO stops (feed, id, code, name, lat, lon, located)
VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		w.id,
		stop.ID,
		stop.Code,
		stop.Name,
		stop.Lat,
		stop.Lon,
		stop.Located,
	)
	if err != nil {
		return fmt.Errorf("inserting stop: %w", err)
	}
	return nil
}

func (w *PSQLFeedWriter) WriteRoute(route *model.Route) error {
	_, err := w.db.Exec(`
INSERT INTO routes (feed, id, short_name, long_name)
VALUES ($1, $2, $3, $4)`,
		w.id,
		route.ID,
		route.ShortName,
		route.LongName,
	)
	if err != nil {
		return fmt.Errorf("inserting route: %w", err)
	}
	return nil
}

func (w *PSQLFeedWriter) WriteTrip(trip *model.Trip) error {
	_, err := w.db.Exec(`
INSERT INTO trips (feed, id, route_id, direction_id)
VALUES ($1, $2, $3, $4)`,
		w.id,
		trip.ID,
		trip.RouteID,
		trip.DirectionID,
	)
	if err != nil {
		return fmt.Errorf("inserting trip: %w", err)
	}
	return nil
}

func (w *PSQLFeedWriter) BeginStopTimes() error {
	w.stopTimeBuf = nil
	return nil
}

func (w *PSQLFeedWriter) WriteStopTime(stopTime *model.StopTime) error {
	w.stopTimeBuf = append(w.stopTimeBuf, stopTime)
	if len(w.stopTimeBuf) >= PSQLStopTimeBatchSize {
		return w.flushStopTimes()
	}
	return nil
}

func (w *PSQLFeedWriter) EndStopTimes() error {
	return w.flushStopTimes()
}

// COPY the buffered stop_times into the database in one round trip.
func (w *PSQLFeedWriter) flushStopTimes() error {
	if len(w.stopTimeBuf) == 0 {
		return nil
	}

	tx, err := w.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning stop_time transaction: %w", err)
	}

	stmt, err := tx.Prepare(pq.CopyIn(
		"stop_times",
		"feed", "trip_id", "stop_id", "stop_sequence", "arrival_time", "departure_time",
	))
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("preparing stop_time copy: %w", err)
	}

	for _, st := range w.stopTimeBuf {
		_, err = stmt.Exec(w.id, st.TripID, st.StopID, st.StopSequence, st.Arrival, st.Departure)
		if err != nil {
			stmt.Close()
			tx.Rollback()
			return fmt.Errorf("copying stop_time: %w", err)
		}
	}

	if _, err := stmt.Exec(); err != nil {
		stmt.Close()
		tx.Rollback()
		return fmt.Errorf("flushing stop_time copy: %w", err)
	}
	if err := stmt.Close(); err != nil {
		tx.Rollback()
		return fmt.Errorf("closing stop_time copy: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing stop_times: %w", err)
	}

	w.stopTimeBuf = nil
	return nil
}

func (w *PSQLFeedWriter) Close() error {
	return w.flushStopTimes()
}

func (r *PSQLFeedReader) Stops() ([]*model.Stop, error) {
	rows, err := r.db.Query(`
SELECT id, code, name, lat, lon, located
FROM stops
WHERE feed = $1
ORDER BY pos`, r.id)
	if err != nil {
		return nil, fmt.Errorf("querying stops: %w", err)
	}
	defer rows.Close()

	stops := []*model.Stop{}
	for rows.Next() {
		var stop model.Stop
		err := rows.Scan(&stop.ID, &stop.Code, &stop.Name, &stop.Lat, &stop.Lon, &stop.Located)
		if err != nil {
			return nil, fmt.Errorf("scanning stop: %w", err)
		}
		stops = append(stops, &stop)
	}

	return stops, nil
}

func (r *PSQLFeedReader) Routes() ([]*model.Route, error) {
	rows, err := r.db.Query(`
SELECT id, short_name, long_name
FROM routes
WHERE feed = $1
ORDER BY pos`, r.id)
	if err != nil {
		return nil, fmt.Errorf("querying routes: %w", err)
	}
	defer rows.Close()

	routes := []*model.Route{}
	for rows.Next() {
		var route model.Route
		err := rows.Scan(&route.ID, &route.ShortName, &route.LongName)
		if err != nil {
			return nil, fmt.Errorf("scanning route: %w", err)
		}
		routes = append(routes, &route)
	}

	return routes, nil
}

func (r *PSQLFeedReader) Trips() ([]*model.Trip, error) {
	rows, err := r.db.Query(`
SELECT id, route_id, direction_id
FROM trips
WHERE feed = $1
ORDER BY pos`, r.id)
	if err != nil {
		return nil, fmt.Errorf("querying trips: %w", err)
	}
	defer rows.Close()

	trips := []*model.Trip{}
	for rows.Next() {
		var trip model.Trip
		err := rows.Scan(&trip.ID, &trip.RouteID, &trip.DirectionID)
		if err != nil {
			return nil, fmt.Errorf("scanning trip: %w", err)
		}
		trips = append(trips, &trip)
	}

	return trips, nil
}

func (r *PSQLFeedReader) StopTimes() ([]*model.StopTime, error) {
	rows, err := r.db.Query(`
SELECT trip_id, stop_id, stop_sequence, arrival_time, departure_time
FROM stop_times
WHERE feed = $1
ORDER BY pos`, r.id)
	if err != nil {
		return nil, fmt.Errorf("querying stop_times: %w", err)
	}
	defer rows.Close()

	stopTimes := []*model.StopTime{}
	for rows.Next() {
		var st model.StopTime
		err := rows.Scan(&st.TripID, &st.StopID, &st.StopSequence, &st.Arrival, &st.Departure)
		if err != nil {
			return nil, fmt.Errorf("scanning stop_time: %w", err)
		}
		stopTimes = append(stopTimes, &st)
	}

	return stopTimes, nil
}
