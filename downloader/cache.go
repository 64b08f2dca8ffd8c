package downloader

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// Cached wraps another Downloader with an in-memory TTL cache.
type Cached struct {
	Inner Downloader
	TTL   time.Duration

	// Overridable for tests.
	TimeNow func() time.Time

	mutex   sync.Mutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	body        []byte
	retrievedAt time.Time
}

func NewCached(inner Downloader, ttl time.Duration) *Cached {
	return &Cached{
		Inner:   inner,
		TTL:     ttl,
		TimeNow: time.Now,
		entries: map[string]cacheEntry{},
	}
}

func (c *Cached) Fetch(ctx context.Context, url string) ([]byte, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if entry, found := c.entries[url]; found {
		if entry.retrievedAt.Add(c.TTL).After(c.TimeNow()) {
			return entry.body, nil
		}
	}

	body, err := c.Inner.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	c.entries[url] = cacheEntry{body: body, retrievedAt: c.TimeNow()}
	return body, nil
}

// FileCache wraps another Downloader with a cache persisted as a
// single JSON file, so the cache survives across CLI invocations.
type FileCache struct {
	Inner Downloader
	Path  string
	TTL   time.Duration

	mutex   sync.Mutex
	records map[string]fileRecord
}

type fileRecord struct {
	Body        string `json:"body"`
	RetrievedAt string `json:"retrieved_at"`
}

func NewFileCache(inner Downloader, path string, ttl time.Duration) (*FileCache, error) {
	f := &FileCache{
		Inner:   inner,
		Path:    path,
		TTL:     ttl,
		records: map[string]fileRecord{},
	}

	buf, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return f, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading cache: %w", err)
	}
	if err := json.Unmarshal(buf, &f.records); err != nil {
		return nil, fmt.Errorf("unmarshalling cache: %w", err)
	}

	return f, nil
}

func (f *FileCache) Fetch(ctx context.Context, url string) ([]byte, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	if record, found := f.records[url]; found {
		retrievedAt, err := time.Parse(time.RFC3339, record.RetrievedAt)
		if err == nil && retrievedAt.Add(f.TTL).After(time.Now()) {
			body, err := base64.StdEncoding.DecodeString(record.Body)
			if err != nil {
				return nil, fmt.Errorf("decoding cached body: %w", err)
			}
			return body, nil
		}
	}

	body, err := f.Inner.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	f.records[url] = fileRecord{
		Body:        base64.StdEncoding.EncodeToString(body),
		RetrievedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if err := f.save(); err != nil {
		return nil, err
	}

	return body, nil
}

func (f *FileCache) save() error {
	buf, err := json.Marshal(f.records)
	if err != nil {
		return fmt.Errorf("marshalling cache: %w", err)
	}
	if err := os.WriteFile(f.Path, buf, 0644); err != nil {
		return fmt.Errorf("writing cache: %w", err)
	}
	return nil
}
