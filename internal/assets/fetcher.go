package assets

import (
	"fmt"
	"io"
	"net/http"
	"time"
)

// Fetcher retrieves a remote media file. The importer only ever calls
// it in commit mode, and only when the derived local path is missing.
type Fetcher interface {
	Fetch(url string) (io.ReadCloser, error)
}

// HTTPFetcher fetches media files over HTTP.
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
}

// NewHTTPFetcher creates an HTTPFetcher with the given request timeout.
func NewHTTPFetcher(timeout time.Duration, userAgent string) *HTTPFetcher {
	return &HTTPFetcher{
		client: &http.Client{
			Timeout: timeout,
		},
		userAgent: userAgent,
	}
}

// Fetch downloads the file at url. The caller must close the returned
// body.
func (f *HTTPFetcher) Fetch(url string) (io.ReadCloser, error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("failed to fetch %s: status %d", url, resp.StatusCode)
	}

	return resp.Body, nil
}
