package cas

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	domainauth "github.com/campus-tools/adeplanning/internal/domain/auth"
	apperrors "github.com/campus-tools/adeplanning/internal/errors"
	"github.com/campus-tools/adeplanning/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAuthenticator(t *testing.T, f *testutil.FakeADE, password string) *Authenticator {
	t.Helper()
	a, err := NewAuthenticator(Config{
		EntryURL: f.EntryURL(),
		Username: f.Username,
		Password: password,
	})
	require.NoError(t, err)
	return a
}

func TestConfig_Validate(t *testing.T) {
	err := Config{}.Validate()
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	assert.Contains(t, err.Error(), "EntryURL, Username, Password")

	assert.NoError(t, Config{EntryURL: "https://ade.example/direct", Username: "u", Password: "p"}.Validate())
}

func TestNewAuthenticator_InvalidURL(t *testing.T) {
	_, err := NewAuthenticator(Config{EntryURL: "not a url", Username: "u", Password: "p"})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestAuthenticate_Success(t *testing.T) {
	f := testutil.NewFakeADE(t)
	a := newTestAuthenticator(t, f, f.Password)

	sess, err := a.Authenticate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domainauth.StateAuthenticated, sess.State())
	assert.Contains(t, sess.LoginURL, testutil.FakeLoginPath)
	assert.Equal(t, f.Host(), sess.CookieHost)

	cookies := sess.Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "JSESSIONID", cookies[0].Name)
	assert.True(t, strings.HasPrefix(cookies[0].Value, "auth-"), "cookie %q should be the authenticated one", cookies[0].Value)
}

func TestAuthenticate_FreshJarPerLogin(t *testing.T) {
	f := testutil.NewFakeADE(t)
	a := newTestAuthenticator(t, f, f.Password)

	first, err := a.Authenticate(context.Background())
	require.NoError(t, err)
	second, err := a.Authenticate(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, first.CookieHeader(), second.CookieHeader())
}

func TestAuthenticate_WrongPassword(t *testing.T) {
	f := testutil.NewFakeADE(t)
	a := newTestAuthenticator(t, f, "wrong")

	sess, err := a.Authenticate(context.Background())
	require.Error(t, err)
	assert.Nil(t, sess)
	assert.True(t, apperrors.IsAuthentication(err))
	assert.Equal(t, apperrors.StageSSOSubmit, apperrors.GetStage(err))
	assert.Contains(t, err.Error(), "credentials rejected")
}

func TestAuthenticate_RejectStatus(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			f := testutil.NewFakeADE(t)
			f.RejectStatus = status
			a := newTestAuthenticator(t, f, f.Password)

			_, err := a.Authenticate(context.Background())
			require.Error(t, err)
			assert.True(t, apperrors.IsAuthentication(err))
			assert.Equal(t, apperrors.StageSSOSubmit, apperrors.GetStage(err))
		})
	}
}

func TestAuthenticate_ServerErrorOnSubmit(t *testing.T) {
	f := testutil.NewFakeADE(t)
	f.RejectStatus = http.StatusInternalServerError
	a := newTestAuthenticator(t, f, f.Password)

	_, err := a.Authenticate(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsTransport(err))
	assert.Equal(t, apperrors.StageSSOSubmit, apperrors.GetStage(err))
}

func TestAuthenticate_MissingFormField(t *testing.T) {
	for _, field := range []string{"lt", "execution", "submit"} {
		t.Run(field, func(t *testing.T) {
			f := testutil.NewFakeADE(t)
			f.OmitFormField = field
			a := newTestAuthenticator(t, f, f.Password)

			_, err := a.Authenticate(context.Background())
			require.Error(t, err)
			assert.True(t, apperrors.IsAuthentication(err))
			assert.Equal(t, apperrors.StageSSOForm, apperrors.GetStage(err))
			assert.Contains(t, err.Error(), field)
		})
	}
}

func TestAuthenticate_NoEntryCookie(t *testing.T) {
	f := testutil.NewFakeADE(t)
	f.SkipEntryCookie = true
	a := newTestAuthenticator(t, f, f.Password)

	_, err := a.Authenticate(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsAuthentication(err))
	assert.Equal(t, apperrors.StageSSOEntry, apperrors.GetStage(err))
}

func TestAuthenticate_Unreachable(t *testing.T) {
	a, err := NewAuthenticator(Config{
		EntryURL: "http://127.0.0.1:1/direct/myplanning.jsp",
		Username: "u",
		Password: "p",
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err = a.Authenticate(ctx)
	require.Error(t, err)
	assert.True(t, apperrors.IsTransport(err))
	assert.Equal(t, apperrors.StageSSOEntry, apperrors.GetStage(err))
}

func TestParseLoginForm(t *testing.T) {
	page := `<form id="fm1" class="fm-v clearfix" action="/cas/login?service=x&amp;locale=fr" method="post">
<input type="hidden" name="lt" value="LT-9" />
<input type="hidden" name="execution" value="e2s1" />
<input class="btn" name="submit" value="LOGIN" type="submit" />`
	pageURL, err := url.Parse("https://cas.example/cas/login?service=x")
	require.NoError(t, err)

	form, err := parseLoginForm([]byte(page), pageURL)
	require.NoError(t, err)
	assert.Equal(t, "LT-9", form.lt)
	assert.Equal(t, "e2s1", form.execution)
	assert.Equal(t, "LOGIN", form.submit)
	assert.Equal(t, "https://cas.example/cas/login?service=x&locale=fr", form.action.String())
}

func TestParseLoginForm_NoActionPostsBack(t *testing.T) {
	page := `<input type="hidden" name="lt" value="LT-9" />
<input type="hidden" name="execution" value="e2s1" />
<input name="submit" value="LOGIN" />`
	pageURL, err := url.Parse("https://cas.example/cas/login")
	require.NoError(t, err)

	form, err := parseLoginForm([]byte(page), pageURL)
	require.NoError(t, err)
	assert.Equal(t, pageURL, form.action)
}
