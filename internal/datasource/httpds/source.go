package httpds

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// StatusError is returned by Source.Open for a non-2xx final response.
type StatusError struct {
	URL    string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("httpds: GET %s: %d %s", e.URL, e.Status, http.StatusText(e.Status))
}

// Source is a datasource backed by a URL.
type Source struct {
	client *Client
	url    string
}

// NewSource returns a Source fetching url through client. A nil client gets
// the defaults.
func NewSource(client *Client, url string) *Source {
	if client == nil {
		client = NewClient(Config{})
	}
	return &Source{client: client, url: url}
}

// Open fetches the URL and returns the response body.
func (s *Source) Open(ctx context.Context) (io.ReadCloser, error) {
	resp, err := s.client.Get(ctx, s.url)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_ = resp.Body.Close()
		return nil, &StatusError{URL: s.url, Status: resp.StatusCode}
	}
	return resp.Body, nil
}
