package datasource

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"instancecat/internal/domain"
)

// StatusError reports a non-success HTTP response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// URLSource downloads the pricing list with an HTTP GET.
type URLSource struct {
	url    string
	client *http.Client
}

var _ domain.DataSource = (*URLSource)(nil)

// NewURLSource creates a source for url. A nil client gets a dedicated one
// with the given timeout; a non-positive timeout uses the default.
func NewURLSource(url string, client *http.Client, timeout time.Duration) *URLSource {
	if timeout <= 0 {
		timeout = time.Duration(domain.DefaultSourceTimeoutSeconds) * time.Second
	}
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	return &URLSource{url: url, client: client}
}

func (s *URLSource) Name() string {
	return domain.SourceKindURL
}

func (s *URLSource) Open(ctx context.Context) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", s.url, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		_ = resp.Body.Close()
		return nil, &StatusError{URL: s.url, StatusCode: resp.StatusCode}
	}
	return resp.Body, nil
}
