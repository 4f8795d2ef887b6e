// Package slack posts planning client failures to a Slack incoming webhook.
package slack

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/campus-tools/adeplanning/internal/observability/notify"
)

const defaultUsername = "adeplanning"

// Config captures the subset of Slack webhook behaviour we need.
type Config struct {
	WebhookURL string
	Channel    string
	Username   string
	Timeout    time.Duration
	RetryLimit int
	Client     *http.Client
	// FeedURLPrefix, when set, links the failing resource's calendar feed.
	FeedURLPrefix string
}

// Client delivers operation failure notifications to a Slack webhook.
type Client struct {
	hook       notify.Webhook
	channel    string
	username   string
	feedPrefix *url.URL
}

type message struct {
	Text     string `json:"text"`
	Username string `json:"username"`
	Channel  string `json:"channel,omitempty"`
}

// NewClient builds a Slack webhook client.
func NewClient(cfg Config) (*Client, error) {
	webhookURL := strings.TrimSpace(cfg.WebhookURL)
	if webhookURL == "" {
		return nil, errors.New("slack webhook url is required")
	}

	c := &Client{
		hook:       notify.NewWebhook("slack webhook", webhookURL, cfg.Client, cfg.Timeout, cfg.RetryLimit),
		channel:    strings.TrimSpace(cfg.Channel),
		username:   strings.TrimSpace(cfg.Username),
		feedPrefix: parseFeedPrefix(cfg.FeedURLPrefix),
	}
	if c.username == "" {
		c.username = defaultUsername
	}
	return c, nil
}

func parseFeedPrefix(raw string) *url.URL {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil
	}
	return u
}

// SendFailure posts a formatted message.
func (c *Client) SendFailure(ctx context.Context, payload notify.FailurePayload) error {
	return c.hook.PostJSON(ctx, c.formatMessage(payload))
}

func (c *Client) formatMessage(payload notify.FailurePayload) message {
	at := payload.OccurredAt
	if at.IsZero() {
		at = time.Now()
	}

	lines := []string{header(payload)}
	lines = appendField(lines, "Severity", payload.Severity, notify.SeverityCritical)
	lines = appendField(lines, "Resource", c.formatResourceValue(payload.Metadata["resource_id"]), "")
	lines = appendField(lines, "Client", payload.ClientID, "")
	lines = appendField(lines, "Error code", payload.ErrorCode, "")
	lines = appendField(lines, "Error class", payload.ErrorClass, "")
	lines = appendField(lines, "Error", escape(payload.Error), "")
	lines = append(lines, metadataLines(payload.Metadata)...)
	lines = append(lines, "• Timestamp: "+at.UTC().Format(time.RFC3339))

	return message{
		Text:     strings.Join(lines, "\n"),
		Username: c.username,
		Channel:  c.channel,
	}
}

func header(payload notify.FailurePayload) string {
	h := "*Planning client failure*"
	if payload.Operation != "" {
		h += " `" + payload.Operation + "`"
	}
	if payload.Stage != "" {
		h += " (" + payload.Stage + ")"
	}
	return h
}

func appendField(lines []string, label, value, fallback string) []string {
	if strings.TrimSpace(value) == "" {
		value = fallback
	}
	if value == "" {
		return lines
	}
	return append(lines, "• "+label+": "+value)
}

// metadataLines lists metadata in key order. resource_id has its own field.
func metadataLines(metadata map[string]string) []string {
	keys := make([]string, 0, len(metadata))
	for k := range metadata {
		if k != "resource_id" {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return nil
	}
	sort.Strings(keys)

	out := make([]string, 0, len(keys)+1)
	out = append(out, "• Metadata:")
	for _, k := range keys {
		out = append(out, "    • "+k+": "+escape(metadata[k]))
	}
	return out
}

func (c *Client) formatResourceValue(resourceID string) string {
	raw := strings.TrimSpace(resourceID)
	if raw == "" {
		return ""
	}
	if c.feedPrefix == nil {
		return escape(raw)
	}
	u := *c.feedPrefix
	q := u.Query()
	q.Set("resources", raw)
	u.RawQuery = q.Encode()
	return fmt.Sprintf("<%s|%s>", u.String(), escape(raw))
}

var slackEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

func escape(value string) string {
	return slackEscaper.Replace(value)
}
