package auth

// Package auth contains domain-level types for the SSO session.
// It is pure and free of transport concerns beyond the cookie value type.

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// State is a step of the SSO login exchange.
type State int

const (
	StateUnstarted State = iota
	StateCookieAcquired
	StateCredentialsSubmitted
	StateAuthenticated
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUnstarted:
		return "unstarted"
	case StateCookieAcquired:
		return "cookie_acquired"
	case StateCredentialsSubmitted:
		return "credentials_submitted"
	case StateAuthenticated:
		return "authenticated"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ErrSessionSealed is returned when a transition is attempted on an authenticated session.
var ErrSessionSealed = errors.New("session already authenticated")

// Session records the progress of the SSO exchange and, once authenticated,
// the cookie set every RPC call must carry. The cookie set is frozen by Seal.
type Session struct {
	state   State
	cookies []*http.Cookie
	// LoginURL is the SSO login page the entry URL redirected to.
	LoginURL string
	// CookieHost is the host (with port) the cookie set was issued for.
	CookieHost string
}

// NewSession returns a session in StateUnstarted.
func NewSession() *Session {
	return &Session{state: StateUnstarted}
}

// State returns the current step.
func (s *Session) State() State { return s.state }

// Authenticated reports whether the exchange completed.
func (s *Session) Authenticated() bool { return s.state == StateAuthenticated }

// Advance moves the session one step forward. Steps cannot be skipped or replayed.
func (s *Session) Advance(next State) error {
	if s.state == StateAuthenticated {
		return ErrSessionSealed
	}
	if s.state == StateFailed || next != s.state+1 || next >= StateAuthenticated {
		return fmt.Errorf("invalid session transition %s -> %s", s.state, next)
	}
	s.state = next
	return nil
}

// Seal stores the authenticated cookie set and moves to StateAuthenticated.
func (s *Session) Seal(cookies []*http.Cookie) error {
	if s.state == StateAuthenticated {
		return ErrSessionSealed
	}
	if s.state != StateCredentialsSubmitted {
		return fmt.Errorf("invalid session transition %s -> %s", s.state, StateAuthenticated)
	}
	if len(cookies) == 0 {
		return errors.New("no authenticated cookie")
	}
	s.cookies = cloneCookies(cookies)
	s.state = StateAuthenticated
	return nil
}

// Fail marks the exchange as failed unless it already completed.
func (s *Session) Fail() {
	if s.state != StateAuthenticated {
		s.state = StateFailed
	}
}

// Cookies returns a copy of the authenticated cookie set.
func (s *Session) Cookies() []*http.Cookie {
	return cloneCookies(s.cookies)
}

// CookieHeader renders the cookie set as a Cookie request header value.
func (s *Session) CookieHeader() string {
	parts := make([]string, 0, len(s.cookies))
	for _, c := range s.cookies {
		parts = append(parts, c.Name+"="+c.Value)
	}
	return strings.Join(parts, "; ")
}

// CookieHeaderFor renders the cookie set for a request to u. Only CookieHost receives it.
func (s *Session) CookieHeaderFor(u *url.URL) (string, error) {
	if u == nil {
		return "", errors.New("no request url")
	}
	if s.CookieHost == "" || !strings.EqualFold(u.Host, s.CookieHost) {
		return "", fmt.Errorf("session cookies are scoped to %q, not %q", s.CookieHost, u.Host)
	}
	return s.CookieHeader(), nil
}

func cloneCookies(in []*http.Cookie) []*http.Cookie {
	out := make([]*http.Cookie, 0, len(in))
	for _, c := range in {
		if c == nil {
			continue
		}
		cp := *c
		out = append(out, &cp)
	}
	return out
}
