package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{
			name: "error without cause",
			err: &AppError{
				Code:    ErrCodeValidation,
				Message: "invalid range",
			},
			want: "invalid range",
		},
		{
			name: "error with stage",
			err: &AppError{
				Code:    ErrCodeProtocolParse,
				Stage:   StageRPCLookupID,
				Message: "id not found",
			},
			want: "rpc.lookup_id: id not found",
		},
		{
			name: "error with stage and cause",
			err: &AppError{
				Code:    ErrCodeTransport,
				Stage:   StageSSOEntry,
				Message: "transport failure",
				Cause:   errors.New("connection refused"),
			},
			want: "sso.entry: transport failure: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("AppError.Error() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTransportPreservesCause(t *testing.T) {
	err := Transport(StageCalendarFetch, fmt.Errorf("get feed: %w", context.DeadlineExceeded))

	if !IsTransport(err) {
		t.Fatalf("IsTransport() = false for %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("errors.Is(err, DeadlineExceeded) = false, want true")
	}
	if GetStage(err) != StageCalendarFetch {
		t.Errorf("GetStage() = %q, want %q", GetStage(err), StageCalendarFetch)
	}
	if Transport(StageCalendarFetch, nil) != nil {
		t.Error("Transport(nil) should return nil")
	}
}

func TestTransportStatusError(t *testing.T) {
	err := Transport(StageRPCLogin, &StatusError{StatusCode: 502, Status: "502 Bad Gateway", URL: "https://ade/x"})

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("errors.As(*StatusError) = false for %v", err)
	}
	if statusErr.StatusCode != 502 {
		t.Errorf("StatusCode = %d, want 502", statusErr.StatusCode)
	}
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
		code  ErrorCode
		stage Stage
	}{
		{"authentication", Authentication(StageSSOForm, "missing lt"), IsAuthentication, ErrCodeAuthentication, StageSSOForm},
		{"protocol parse", ProtocolParse(StageRPCListChildren, "bad body"), IsProtocolParse, ErrCodeProtocolParse, StageRPCListChildren},
		{"protocol parsef", ProtocolParsef(StageEventParse, "event %d", 3), IsProtocolParse, ErrCodeProtocolParse, StageEventParse},
		{"validation", Validation("bad"), IsValidation, ErrCodeValidation, ""},
		{"validationf", Validationf("bad %s", "x"), IsValidation, ErrCodeValidation, ""},
		{"internal", Internal("boom"), IsInternal, ErrCodeInternal, ""},
		{"wrap canceled", Wrap(context.Canceled, ErrCodeCanceled, "crawl canceled"), IsCanceled, ErrCodeCanceled, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !tt.check(tt.err) {
				t.Errorf("predicate false for %v", tt.err)
			}
			if got := GetCode(tt.err); got != tt.code {
				t.Errorf("GetCode() = %v, want %v", got, tt.code)
			}
			if got := GetStage(tt.err); got != tt.stage {
				t.Errorf("GetStage() = %v, want %v", got, tt.stage)
			}
		})
	}
}

func TestWrapNil(t *testing.T) {
	if Wrap(nil, ErrCodeInternal, "x") != nil {
		t.Error("Wrap(nil) should return nil")
	}
	if Wrapf(nil, ErrCodeInternal, "x %d", 1) != nil {
		t.Error("Wrapf(nil) should return nil")
	}
}

func TestWithStage(t *testing.T) {
	t.Run("fills empty stage", func(t *testing.T) {
		err := WithStage(Validation("bad"), StageCrawl)
		if GetStage(err) != StageCrawl {
			t.Errorf("GetStage() = %q, want %q", GetStage(err), StageCrawl)
		}
		if !IsValidation(err) {
			t.Error("code should be preserved")
		}
	})

	t.Run("keeps existing stage", func(t *testing.T) {
		err := WithStage(ProtocolParse(StageRPCListChildren, "bad"), StageCrawl)
		if GetStage(err) != StageRPCListChildren {
			t.Errorf("GetStage() = %q, want %q", GetStage(err), StageRPCListChildren)
		}
	})

	t.Run("wraps foreign errors", func(t *testing.T) {
		cause := errors.New("boom")
		err := WithStage(cause, StageCrawl)
		if !IsInternal(err) || !errors.Is(err, cause) {
			t.Errorf("unexpected wrap result %v", err)
		}
	})

	t.Run("nil", func(t *testing.T) {
		if WithStage(nil, StageCrawl) != nil {
			t.Error("WithStage(nil) should return nil")
		}
	})
}

func TestGetCodeNonAppError(t *testing.T) {
	if got := GetCode(errors.New("plain")); got != "" {
		t.Errorf("GetCode() = %q, want empty", got)
	}
	if got := GetStage(errors.New("plain")); got != "" {
		t.Errorf("GetStage() = %q, want empty", got)
	}
}
