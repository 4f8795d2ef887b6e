package ports

// Package ports defines interfaces (hexagonal ports) for auth-related behavior.
// Implementations live in internal/adapters; orchestration in internal/service.

import (
	"context"

	domainauth "github.com/campus-tools/adeplanning/internal/domain/auth"
)

// Authenticator runs the SSO exchange against the portal protecting the scheduling backend.
type Authenticator interface {
	// Authenticate performs the full login exchange and returns a sealed session.
	// It is called once per client lifetime; there is no refresh.
	Authenticate(ctx context.Context) (*domainauth.Session, error)
}

// AuthenticatorFunc adapts a function to the Authenticator interface (useful for tests).
type AuthenticatorFunc func(ctx context.Context) (*domainauth.Session, error)

// Authenticate implements Authenticator.
func (f AuthenticatorFunc) Authenticate(ctx context.Context) (*domainauth.Session, error) {
	return f(ctx)
}
