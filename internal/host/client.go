// Package host fetches JSON documents from version sources over HTTPS.
package host

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultTimeout = 30 * time.Second

	maxBodyBytes  = 4 << 20
	maxErrorBytes = 512
)

// FetchError reports a failed GET: transport error, non-2xx status, or a body
// that is not the expected JSON.
type FetchError struct {
	URL        string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: HTTP %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// RequestOption mutates an outgoing request, e.g. to add credentials.
type RequestOption func(*http.Request)

// Client issues GETs with a fixed User-Agent.
type Client struct {
	HTTP      *http.Client
	UserAgent string
}

func New(userAgent string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		HTTP:      &http.Client{Timeout: timeout},
		UserAgent: userAgent,
	}
}

func UserAgent(version string) string {
	return fmt.Sprintf("featurebump/%s", version)
}

// GetJSON fetches url and decodes the body into v. All failures are returned
// as *FetchError.
func (c *Client) GetJSON(ctx context.Context, url string, v any, opts ...RequestOption) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &FetchError{URL: url, Err: err}
	}
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept", "application/json")
	for _, opt := range opts {
		opt(req)
	}

	// #nosec G107 -- url built from configured registry bases
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return &FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return &FetchError{URL: url, StatusCode: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &FetchError{URL: url, StatusCode: resp.StatusCode, Err: fmt.Errorf("%s", trimBody(body))}
	}

	if err := json.Unmarshal(body, v); err != nil {
		return &FetchError{URL: url, StatusCode: resp.StatusCode, Err: fmt.Errorf("parse JSON: %w", err)}
	}
	return nil
}

func trimBody(body []byte) string {
	clean := strings.TrimSpace(string(body))
	if clean == "" {
		return "empty response"
	}
	if len(clean) > maxErrorBytes {
		return clean[:maxErrorBytes] + "..."
	}
	return clean
}
