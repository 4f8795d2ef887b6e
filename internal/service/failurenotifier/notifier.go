package failurenotifier

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	apperrors "github.com/campus-tools/adeplanning/internal/errors"
	obserrors "github.com/campus-tools/adeplanning/internal/observability/errors"
	"github.com/campus-tools/adeplanning/internal/observability/notify"
)

// SinkRegistration pairs a sink implementation with a human-readable name for logging.
type SinkRegistration struct {
	Name string
	Sink notify.Sink
}

// Options configures the failure notifier service.
type Options struct {
	Logger *slog.Logger
	Sinks  []SinkRegistration
	// Now is overridable for tests.
	Now func() time.Time
}

// Service dispatches failure events to all registered sinks.
type Service struct {
	logger *slog.Logger
	sinks  []SinkRegistration
	now    func() time.Time
}

// NewService constructs a failure notifier.
func NewService(opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default().With("component", "failure_notifier")
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	var sinks []SinkRegistration
	for _, entry := range opts.Sinks {
		if entry.Sink == nil {
			continue
		}
		name := entry.Name
		if name == "" {
			name = "sink"
		}
		sinks = append(sinks, SinkRegistration{
			Name: name,
			Sink: entry.Sink,
		})
	}

	return &Service{
		logger: logger,
		sinks:  sinks,
		now:    now,
	}
}

// Failure describes a failed client operation.
type Failure struct {
	Operation string
	ClientID  string
	Err       error
	Metadata  map[string]string
}

// PayloadFor derives the notification payload from a failure's error chain.
// Authentication failures are critical: every later run fails the same way until
// credentials are fixed.
func (s *Service) PayloadFor(f Failure) notify.FailurePayload {
	payload := notify.FailurePayload{
		Operation:  f.Operation,
		ClientID:   f.ClientID,
		Stage:      string(apperrors.GetStage(f.Err)),
		ErrorCode:  string(apperrors.GetCode(f.Err)),
		ErrorClass: obserrors.Classify(f.Err),
		Severity:   notify.SeverityError,
		OccurredAt: s.now().UTC(),
		Metadata:   f.Metadata,
	}
	if f.Err != nil {
		payload.Error = f.Err.Error()
	}
	if apperrors.IsAuthentication(f.Err) {
		payload.Severity = notify.SeverityCritical
	}
	return payload
}

// NotifyFailure fan-outs the failure to all sinks. Canceled operations are not reported.
func (s *Service) NotifyFailure(ctx context.Context, f Failure) {
	if len(s.sinks) == 0 || f.Err == nil {
		return
	}
	if errors.Is(f.Err, context.Canceled) || apperrors.IsCanceled(f.Err) {
		s.logger.DebugContext(ctx, "skipping notification for canceled operation",
			"operation", f.Operation,
		)
		return
	}
	s.Notify(ctx, s.PayloadFor(f))
}

// Notify delivers a prepared payload to every sink concurrently.
func (s *Service) Notify(ctx context.Context, payload notify.FailurePayload) {
	if len(s.sinks) == 0 {
		return
	}

	if payload.Severity == "" {
		payload.Severity = notify.SeverityCritical
	}

	var wg sync.WaitGroup
	for _, entry := range s.sinks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := entry.Sink.SendFailure(ctx, payload); err != nil {
				s.logger.ErrorContext(ctx, "failure notifier delivery error",
					"sink", entry.Name,
					"operation", payload.Operation,
					"stage", payload.Stage,
					"error", err,
				)
			}
		}()
	}
	wg.Wait()
}

// Enabled reports whether the notifier has any active sinks.
func (s *Service) Enabled() bool {
	return len(s.sinks) > 0
}
