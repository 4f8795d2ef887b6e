package auth

// Package auth contains simple hand-written test doubles for auth ports.
// These are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"net/http"
	"sync/atomic"

	domainauth "github.com/campus-tools/adeplanning/internal/domain/auth"
	"github.com/campus-tools/adeplanning/internal/ports"
)

// Ensure compile-time conformance to ports.
var _ ports.Authenticator = (*StaticAuthenticator)(nil)

// StaticAuthenticator returns an authenticated session carrying a fixed cookie set
// without talking to any SSO portal.
type StaticAuthenticator struct {
	// Cookies sealed into every returned session. Defaults to JSESSIONID=mock-session.
	Cookies []*http.Cookie
	// Host becomes the CookieHost of returned sessions. Defaults to sso.invalid.
	Host string
	// Err, when set, is returned instead of a session.
	Err error

	calls atomic.Int32
}

// NewStaticAuthenticator creates a StaticAuthenticator with the default cookie.
func NewStaticAuthenticator() *StaticAuthenticator {
	return &StaticAuthenticator{}
}

// Authenticate implements ports.Authenticator.
func (s *StaticAuthenticator) Authenticate(ctx context.Context) (*domainauth.Session, error) {
	s.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.Err != nil {
		return nil, s.Err
	}

	cookies := s.Cookies
	if len(cookies) == 0 {
		cookies = []*http.Cookie{{Name: "JSESSIONID", Value: "mock-session"}}
	}

	sess := domainauth.NewSession()
	sess.LoginURL = "https://sso.invalid/login"
	sess.CookieHost = s.Host
	if sess.CookieHost == "" {
		sess.CookieHost = "sso.invalid"
	}
	for _, st := range []domainauth.State{domainauth.StateCookieAcquired, domainauth.StateCredentialsSubmitted} {
		if err := sess.Advance(st); err != nil {
			return nil, err
		}
	}
	if err := sess.Seal(cookies); err != nil {
		return nil, err
	}
	return sess, nil
}

// Calls reports how many times Authenticate was invoked.
func (s *StaticAuthenticator) Calls() int {
	return int(s.calls.Load())
}
