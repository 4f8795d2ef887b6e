package auth

import (
	"context"
	"errors"
	"net/http"
	"testing"

	domainauth "github.com/campus-tools/adeplanning/internal/domain/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticAuthenticator_Defaults(t *testing.T) {
	a := NewStaticAuthenticator()

	sess, err := a.Authenticate(context.Background())
	require.NoError(t, err)
	assert.True(t, sess.Authenticated())
	assert.Equal(t, domainauth.StateAuthenticated, sess.State())
	assert.Equal(t, "JSESSIONID=mock-session", sess.CookieHeader())
	assert.Equal(t, "sso.invalid", sess.CookieHost)
	assert.Equal(t, 1, a.Calls())
}

func TestStaticAuthenticator_CustomCookies(t *testing.T) {
	a := &StaticAuthenticator{Cookies: []*http.Cookie{
		{Name: "JSESSIONID", Value: "abc"},
		{Name: "route", Value: "r1"},
	}}

	sess, err := a.Authenticate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "JSESSIONID=abc; route=r1", sess.CookieHeader())
}

func TestStaticAuthenticator_Error(t *testing.T) {
	boom := errors.New("boom")
	a := &StaticAuthenticator{Err: boom}

	sess, err := a.Authenticate(context.Background())
	require.ErrorIs(t, err, boom)
	assert.Nil(t, sess)
	assert.Equal(t, 1, a.Calls())
}

func TestStaticAuthenticator_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewStaticAuthenticator().Authenticate(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
