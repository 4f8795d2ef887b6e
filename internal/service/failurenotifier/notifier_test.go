package failurenotifier

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	apperrors "github.com/campus-tools/adeplanning/internal/errors"
	"github.com/campus-tools/adeplanning/internal/observability/notify"
)

var fixedNow = time.Date(2024, 3, 11, 7, 0, 0, 0, time.UTC)

type capture struct {
	mu       sync.Mutex
	payloads []notify.FailurePayload
}

func (c *capture) SendFailure(_ context.Context, payload notify.FailurePayload) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.payloads = append(c.payloads, payload)
	return nil
}

func newCaptureService(c *capture) *Service {
	return NewService(Options{
		Sinks: []SinkRegistration{{Name: "capture", Sink: c}},
		Now:   func() time.Time { return fixedNow },
	})
}

func TestServiceNotify(t *testing.T) {
	ctx := context.Background()

	var received []notify.FailurePayload
	svc := NewService(Options{
		Sinks: []SinkRegistration{
			{
				Name: "capture",
				Sink: notify.SinkFunc(func(ctx context.Context, payload notify.FailurePayload) error {
					received = append(received, payload)
					return nil
				}),
			},
		},
	})

	svc.Notify(ctx, notify.FailurePayload{
		Operation: "rooms",
	})

	if len(received) != 1 {
		t.Fatalf("expected 1 payload, got %d", len(received))
	}
	if received[0].Severity != notify.SeverityCritical {
		t.Fatalf("expected severity to default to critical, got %s", received[0].Severity)
	}
}

func TestServiceDisabled(t *testing.T) {
	svc := NewService(Options{})
	if svc.Enabled() {
		t.Fatal("expected Enabled() to be false when no sinks registered")
	}
	// Must not panic without sinks.
	svc.NotifyFailure(context.Background(), Failure{Operation: "rooms", Err: errors.New("boom")})
}

func TestServiceLogsErrors(t *testing.T) {
	// Ensure we don't panic when sink returns an error.
	svc := NewService(Options{
		Sinks: []SinkRegistration{
			{
				Name: "fail",
				Sink: notify.SinkFunc(func(ctx context.Context, payload notify.FailurePayload) error {
					return errors.New("boom")
				}),
			},
			{Name: "nil"},
		},
	})

	if !svc.Enabled() {
		t.Fatal("expected failing sink to stay registered")
	}
	svc.Notify(context.Background(), notify.FailurePayload{Operation: "planning"})
}

func TestServiceNotifyFailurePayload(t *testing.T) {
	c := &capture{}
	svc := newCaptureService(c)

	err := fmt.Errorf("crawl level 1 folder 10: %w",
		apperrors.ProtocolParse(apperrors.StageRPCListChildren, "missing //OK marker"))
	svc.NotifyFailure(context.Background(), Failure{
		Operation: "rooms",
		ClientID:  "client-1",
		Err:       err,
		Metadata:  map[string]string{"resource_id": "10"},
	})

	if len(c.payloads) != 1 {
		t.Fatalf("expected 1 payload, got %d", len(c.payloads))
	}
	got := c.payloads[0]
	if got.Operation != "rooms" || got.ClientID != "client-1" {
		t.Fatalf("unexpected identity fields: %+v", got)
	}
	if got.Stage != string(apperrors.StageRPCListChildren) {
		t.Fatalf("expected stage %q, got %q", apperrors.StageRPCListChildren, got.Stage)
	}
	if got.ErrorCode != string(apperrors.ErrCodeProtocolParse) {
		t.Fatalf("expected protocol parse code, got %q", got.ErrorCode)
	}
	if got.Severity != notify.SeverityError {
		t.Fatalf("expected error severity, got %q", got.Severity)
	}
	if got.Error != err.Error() {
		t.Fatalf("unexpected error text %q", got.Error)
	}
	if !got.OccurredAt.Equal(fixedNow) {
		t.Fatalf("unexpected timestamp %v", got.OccurredAt)
	}
	if got.Metadata["resource_id"] != "10" {
		t.Fatalf("expected metadata to be forwarded, got %v", got.Metadata)
	}
}

func TestServiceAuthenticationIsCritical(t *testing.T) {
	c := &capture{}
	svc := newCaptureService(c)

	svc.NotifyFailure(context.Background(), Failure{
		Operation: "rooms",
		Err:       apperrors.Authentication(apperrors.StageSSOSubmit, "credentials rejected"),
	})

	if len(c.payloads) != 1 {
		t.Fatalf("expected 1 payload, got %d", len(c.payloads))
	}
	if c.payloads[0].Severity != notify.SeverityCritical {
		t.Fatalf("expected critical severity, got %q", c.payloads[0].Severity)
	}
}

func TestServiceSkipsCanceled(t *testing.T) {
	c := &capture{}
	svc := newCaptureService(c)

	svc.NotifyFailure(context.Background(), Failure{Operation: "rooms", Err: context.Canceled})
	svc.NotifyFailure(context.Background(), Failure{
		Operation: "rooms",
		Err:       fmt.Errorf("crawl: %w", context.Canceled),
	})
	svc.NotifyFailure(context.Background(), Failure{Operation: "rooms"})

	if len(c.payloads) != 0 {
		t.Fatalf("expected canceled and nil errors to be skipped, got %d payloads", len(c.payloads))
	}
}
