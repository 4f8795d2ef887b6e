// Package pagerduty triggers PagerDuty incidents for planning client failures.
package pagerduty

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/campus-tools/adeplanning/internal/observability/notify"
)

// APIEndpoint is the PagerDuty Events API v2 ingest URL.
const APIEndpoint = "https://events.pagerduty.com/v2/enqueue"

const (
	defaultSource    = "adeplanning"
	defaultComponent = "planning-client"
)

// Config captures runtime configuration for the PagerDuty sink.
type Config struct {
	// Endpoint overrides APIEndpoint.
	Endpoint   string
	RoutingKey string
	Source     string
	Component  string
	Timeout    time.Duration
	RetryLimit int
	Client     *http.Client
}

// Client publishes trigger events via PagerDuty's Events API v2.
type Client struct {
	hook       notify.Webhook
	routingKey string
	source     string
	component  string
}

type event struct {
	RoutingKey  string       `json:"routing_key"`
	EventAction string       `json:"event_action"`
	DedupKey    string       `json:"dedup_key,omitempty"`
	Payload     eventPayload `json:"payload"`
}

type eventPayload struct {
	Summary       string            `json:"summary"`
	Severity      string            `json:"severity"`
	Source        string            `json:"source"`
	Component     string            `json:"component"`
	Class         string            `json:"class,omitempty"`
	Timestamp     string            `json:"timestamp"`
	CustomDetails map[string]string `json:"custom_details"`
}

// NewClient constructs a PagerDuty events client. A routing key is required.
func NewClient(cfg Config) (*Client, error) {
	key := strings.TrimSpace(cfg.RoutingKey)
	if key == "" {
		return nil, errors.New("pagerduty routing key is required")
	}

	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		endpoint = APIEndpoint
	}

	return &Client{
		hook:       notify.NewWebhook("pagerduty api", endpoint, cfg.Client, cfg.Timeout, cfg.RetryLimit),
		routingKey: key,
		source:     orDefault(cfg.Source, defaultSource),
		component:  orDefault(cfg.Component, defaultComponent),
	}, nil
}

// SendFailure submits a trigger event.
func (c *Client) SendFailure(ctx context.Context, payload notify.FailurePayload) error {
	return c.hook.PostJSON(ctx, c.buildEvent(payload))
}

func (c *Client) buildEvent(payload notify.FailurePayload) event {
	at := payload.OccurredAt
	if at.IsZero() {
		at = time.Now()
	}

	details := make(map[string]string, len(payload.Metadata)+6)
	for k, v := range payload.Metadata {
		details[k] = v
	}
	// Payload fields win over metadata keys of the same name.
	for k, v := range map[string]string{
		"operation":   payload.Operation,
		"client_id":   payload.ClientID,
		"stage":       payload.Stage,
		"error_code":  payload.ErrorCode,
		"error":       payload.Error,
		"error_class": payload.ErrorClass,
	} {
		details[k] = v
	}

	return event{
		RoutingKey:  c.routingKey,
		EventAction: "trigger",
		DedupKey:    dedupKey(payload),
		Payload: eventPayload{
			Summary:       "Planning " + orDefault(payload.Operation, "operation") + " failed at " + orDefault(payload.Stage, "unknown stage"),
			Severity:      severity(payload.Severity),
			Source:        c.source,
			Component:     c.component,
			Class:         payload.ErrorCode,
			Timestamp:     at.UTC().Format(time.RFC3339),
			CustomDetails: details,
		},
	}
}

// dedupKey groups repeats of one operation failing at one stage into a single incident.
func dedupKey(payload notify.FailurePayload) string {
	parts := make([]string, 0, 2)
	for _, p := range []string{payload.Operation, payload.Stage} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ":")
}

// severity maps to the values the Events API accepts; anything else is critical.
func severity(s string) string {
	switch v := strings.ToLower(strings.TrimSpace(s)); v {
	case "critical", "error", "warning", "info":
		return v
	default:
		return notify.SeverityCritical
	}
}

func orDefault(value, fallback string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return fallback
}
