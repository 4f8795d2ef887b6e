// Package httpclient holds the HTTP plumbing shared by the SSO, RPC and calendar adapters.
package httpclient

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	apperrors "github.com/campus-tools/adeplanning/internal/errors"
)

const (
	defaultTimeout = 30 * time.Second
	// maxBodyBytes caps how much of a response body is read into memory.
	maxBodyBytes = 16 << 20
)

// Config describes the outbound HTTP client.
type Config struct {
	Timeout   time.Duration
	UserAgent string
	// Transport overrides the round tripper (tests); defaults to http.DefaultTransport.
	Transport http.RoundTripper
}

// New builds an *http.Client without a cookie jar. Cookies are attached explicitly by callers.
func New(cfg Config) *http.Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	base := cfg.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	var rt http.RoundTripper = base
	if cfg.UserAgent != "" {
		rt = &userAgentTransport{base: base, userAgent: cfg.UserAgent}
	}
	return &http.Client{Timeout: timeout, Transport: rt}
}

// WithJar returns a shallow copy of client that uses jar.
func WithJar(client *http.Client, jar http.CookieJar) *http.Client {
	if client == nil {
		client = New(Config{})
	}
	cp := *client
	cp.Jar = jar
	return &cp
}

type userAgentTransport struct {
	base      http.RoundTripper
	userAgent string
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") != "" {
		return t.base.RoundTrip(req)
	}
	r := req.Clone(req.Context())
	r.Header.Set("User-Agent", t.userAgent)
	return t.base.RoundTrip(r)
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Status     string
	Header     http.Header
	// URL is the final request URL after redirects.
	URL  *url.URL
	Body []byte
}

// Do sends req and reads the whole body. Network failures and non-2xx statuses are returned
// as transport errors for stage; on a bad status the read Response is returned alongside.
func Do(client *http.Client, req *http.Request, stage apperrors.Stage) (*Response, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, apperrors.Transport(stage, err)
	}

	body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	closeErr := resp.Body.Close()
	if readErr != nil {
		if closeErr != nil {
			readErr = errors.Join(readErr, fmt.Errorf("close response body: %w", closeErr))
		}
		return nil, apperrors.Transport(stage, fmt.Errorf("read response body: %w", readErr))
	}

	out := &Response{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Header:     resp.Header,
		URL:        resp.Request.URL,
		Body:       body,
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return out, apperrors.Transport(stage, &apperrors.StatusError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			URL:        redact(resp.Request.URL),
		})
	}
	return out, nil
}

// redact drops the query string, which may carry tickets or credentials.
func redact(u *url.URL) string {
	if u == nil {
		return ""
	}
	cp := *u
	cp.RawQuery = ""
	cp.User = nil
	return cp.String()
}
