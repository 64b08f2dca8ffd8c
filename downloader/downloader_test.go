package downloader

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPFetch(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		assert.Equal(t, "secret", r.Header.Get("X-Api-Key"))
		w.Write([]byte("feed data"))
	}))
	defer server.Close()

	dl := &HTTP{
		Timeout: time.Second,
		Headers: map[string]string{"X-Api-Key": "secret"},
	}

	body, err := dl.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, []byte("feed data"), body)
	assert.Equal(t, 1, requests)
}

func TestHTTPFetchNon200(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	dl := &HTTP{Timeout: time.Second}
	_, err := dl.Fetch(context.Background(), server.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}

func TestHTTPFetchMaxSize(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(make([]byte, 1000))
	}))
	defer server.Close()

	dl := &HTTP{Timeout: time.Second, MaxSize: 100}
	body, err := dl.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Len(t, body, 100)
}

func TestCachedFetch(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Write([]byte("feed data"))
	}))
	defer server.Close()

	now := time.Now()
	dl := NewCached(&HTTP{Timeout: time.Second}, time.Hour)
	dl.TimeNow = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		body, err := dl.Fetch(context.Background(), server.URL)
		require.NoError(t, err)
		assert.Equal(t, []byte("feed data"), body)
	}
	assert.Equal(t, 1, requests)

	// Past the TTL the entry is refetched.
	now = now.Add(2 * time.Hour)
	_, err := dl.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, 2, requests)
}

func TestFileCacheSurvivesReload(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Write([]byte("feed data"))
	}))
	defer server.Close()

	path := filepath.Join(t.TempDir(), "downloads.json")

	dl, err := NewFileCache(&HTTP{Timeout: time.Second}, path, time.Hour)
	require.NoError(t, err)
	body, err := dl.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, []byte("feed data"), body)
	assert.Equal(t, 1, requests)

	// A fresh instance reads the persisted cache and skips the
	// request entirely.
	dl, err = NewFileCache(&HTTP{Timeout: time.Second}, path, time.Hour)
	require.NoError(t, err)
	body, err = dl.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, []byte("feed data"), body)
	assert.Equal(t, 1, requests)
}
