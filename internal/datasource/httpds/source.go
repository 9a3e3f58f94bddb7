package httpds

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// StatusError reports a final non-2xx response.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("httpds: GET %s: %d %s", e.URL, e.Code, http.StatusText(e.Code))
}

// IsURL reports whether location names an http or https resource.
func IsURL(location string) bool {
	l := strings.ToLower(location)
	return strings.HasPrefix(l, "http://") || strings.HasPrefix(l, "https://")
}

// Source streams the body of a remote file.
type Source struct {
	client *Client
	url    string
}

// NewSource binds url to c. A nil c uses NewClient(Config{}).
func NewSource(c *Client, url string) *Source {
	if c == nil {
		c = NewClient(Config{})
	}
	return &Source{client: c, url: url}
}

// Open issues the request and returns the response body.
func (s *Source) Open(ctx context.Context) (io.ReadCloser, error) {
	resp, err := s.client.Get(ctx, s.url)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_ = resp.Body.Close()
		return nil, &StatusError{URL: s.url, Code: resp.StatusCode}
	}
	return resp.Body, nil
}
