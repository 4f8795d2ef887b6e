package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultWebhookTimeout bounds a single delivery attempt when no client is supplied.
	DefaultWebhookTimeout = 5 * time.Second
	defaultBackoff        = 200 * time.Millisecond
	maxErrorBody          = 1 << 10
)

// StatusError is a non-2xx answer from a webhook endpoint.
type StatusError struct {
	Name   string
	Code   int
	Status string
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Name, e.Status, e.Body)
}

// Temporary reports whether the endpoint asked to be retried (429 or 5xx).
func (e *StatusError) Temporary() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= http.StatusInternalServerError
}

// Webhook posts JSON documents to one endpoint. Transport errors and temporary
// statuses are retried up to RetryLimit times; attempt n waits n*Backoff first.
type Webhook struct {
	// Name prefixes error messages ("slack webhook", "pagerduty api").
	Name       string
	URL        string
	Client     *http.Client
	RetryLimit int
	Backoff    time.Duration
}

// NewWebhook returns a Webhook with a client bounded by timeout when hc is nil.
func NewWebhook(name, url string, hc *http.Client, timeout time.Duration, retries int) Webhook {
	if hc == nil {
		if timeout <= 0 {
			timeout = DefaultWebhookTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}
	return Webhook{
		Name:       name,
		URL:        url,
		Client:     hc,
		RetryLimit: max(retries, 0),
		Backoff:    defaultBackoff,
	}
}

// PostJSON encodes v and delivers it.
func (w Webhook) PostJSON(ctx context.Context, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", w.Name, err)
	}

	for attempt := 0; ; attempt++ {
		err = w.post(ctx, body)
		if err == nil {
			return nil
		}
		var se *StatusError
		if errors.As(err, &se) && !se.Temporary() {
			return err
		}
		if attempt >= w.RetryLimit {
			return err
		}
		if werr := sleep(ctx, time.Duration(attempt+1)*w.Backoff); werr != nil {
			return werr
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (w Webhook) post(ctx context.Context, body []byte) (err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create %s request: %w", w.Name, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.Client.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", w.Name, err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("close %s response: %w", w.Name, cerr))
		}
	}()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if _, derr := io.Copy(io.Discard, resp.Body); derr != nil {
			return fmt.Errorf("drain %s response: %w", w.Name, derr)
		}
		return nil
	}

	snippet, rerr := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if rerr != nil {
		return fmt.Errorf("read %s error response: %w", w.Name, rerr)
	}
	return &StatusError{
		Name:   w.Name,
		Code:   resp.StatusCode,
		Status: resp.Status,
		Body:   strings.TrimSpace(string(snippet)),
	}
}
