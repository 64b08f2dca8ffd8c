// Package downloader fetches static feed archives over HTTP, with
// optional caching so repeated CLI runs against the same URL don't
// hammer the agency's server.
package downloader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// A thing capable of fetching a feed archive by URL.
type Downloader interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// HTTP fetches without caching.
type HTTP struct {
	// Cap on the response body. Zero means unlimited, which is a
	// bad idea for untrusted URLs.
	MaxSize int

	Timeout time.Duration

	// Extra request headers, e.g. API keys some agencies require.
	Headers map[string]string
}

func (h *HTTP) Fetch(ctx context.Context, url string) ([]byte, error) {
	client := &http.Client{
		Timeout: h.Timeout,
	}

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	for k, v := range h.Headers {
		req.Header.Add(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("making request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	var reader io.Reader = resp.Body
	if h.MaxSize > 0 {
		reader = io.LimitReader(resp.Body, int64(h.MaxSize))
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("reading body: %w", err)
	}

	return body, nil
}
