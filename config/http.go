package config

import (
	"strings"
	"time"
)

const (
	minHTTPTimeout = time.Second
	maxHTTPTimeout = 5 * time.Minute
)

// HTTPConfig contains outbound HTTP client configuration shared by the SSO, RPC and feed calls.
type HTTPConfig struct {
	// Timeout bounds each request; expiry surfaces as a transport error.
	Timeout time.Duration `env:"HTTP_TIMEOUT" envDefault:"30s"`

	// UserAgent is sent on every request.
	UserAgent string `env:"HTTP_USER_AGENT" envDefault:"adeplanning/1.0"`
}

// Sanitize applies guardrails to HTTP configuration values.
func (h *HTTPConfig) Sanitize() {
	// Clamp timeout to a usable range
	if h.Timeout < minHTTPTimeout {
		h.Timeout = minHTTPTimeout
	}
	if h.Timeout > maxHTTPTimeout {
		h.Timeout = maxHTTPTimeout
	}
	h.UserAgent = strings.TrimSpace(h.UserAgent)
}
