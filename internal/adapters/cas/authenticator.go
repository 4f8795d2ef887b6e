// Package cas drives the form login of a CAS single-sign-on portal and returns
// the session cookie set issued by the protected service.
package cas

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"regexp"
	"strings"

	"github.com/campus-tools/adeplanning/internal/adapters/httpclient"
	domainauth "github.com/campus-tools/adeplanning/internal/domain/auth"
	apperrors "github.com/campus-tools/adeplanning/internal/errors"
	"github.com/campus-tools/adeplanning/internal/ports"
	"golang.org/x/net/publicsuffix"
)

var _ ports.Authenticator = (*Authenticator)(nil)

// Login page contract. The portal markup is treated as a fixed external format.
var (
	formActionRe = regexp.MustCompile(`<form id="fm1"[^>]*\saction="([^"]+)"`)
	ltRe         = regexp.MustCompile(`<input type="hidden" name="lt" value="([^"]*)"`)
	executionRe  = regexp.MustCompile(`<input type="hidden" name="execution" value="([^"]*)"`)
	submitRe     = regexp.MustCompile(`<input [^>]*name="submit"[^>]*value="([^"]*)"`)
)

// Config holds configuration for the CAS authenticator.
type Config struct {
	// EntryURL is the protected service URL; requesting it redirects to the SSO login page.
	EntryURL string
	Username string
	Password string
	// HTTPClient is used as a template; each login gets a copy with its own cookie jar.
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Validate checks that required configuration fields are set.
func (c Config) Validate() error {
	var missing []string
	if strings.TrimSpace(c.EntryURL) == "" {
		missing = append(missing, "EntryURL")
	}
	if c.Username == "" {
		missing = append(missing, "Username")
	}
	if c.Password == "" {
		missing = append(missing, "Password")
	}
	if len(missing) > 0 {
		return apperrors.Validationf("cas config missing: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Authenticator implements ports.Authenticator against a CAS portal.
type Authenticator struct {
	entry    *url.URL
	username string
	password string
	client   *http.Client
	logger   *slog.Logger
}

// NewAuthenticator validates cfg and builds an Authenticator.
func NewAuthenticator(cfg Config) (*Authenticator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	entry, err := url.Parse(cfg.EntryURL)
	if err != nil || entry.Scheme == "" || entry.Host == "" {
		return nil, apperrors.Validationf("invalid cas entry url %q", cfg.EntryURL)
	}
	client := cfg.HTTPClient
	if client == nil {
		client = httpclient.New(httpclient.Config{})
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Authenticator{
		entry:    entry,
		username: cfg.Username,
		password: cfg.Password,
		client:   client,
		logger:   logger.With("component", "cas"),
	}, nil
}

// loginForm holds the hidden fields harvested from the login page.
type loginForm struct {
	action    *url.URL
	lt        string
	execution string
	submit    string
}

// Authenticate runs entry request, form scrape and credential submission in order.
// On failure the returned session is nil and the error names the failing stage.
func (a *Authenticator) Authenticate(ctx context.Context) (*domainauth.Session, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "create cookie jar")
	}
	client := httpclient.WithJar(a.client, jar)
	sess := domainauth.NewSession()

	page, err := a.fetchLoginPage(ctx, client, jar, sess)
	if err != nil {
		sess.Fail()
		return nil, err
	}

	form, err := parseLoginForm(page.Body, page.URL)
	if err != nil {
		sess.Fail()
		return nil, err
	}

	if err := a.submitCredentials(ctx, client, form, sess); err != nil {
		sess.Fail()
		return nil, err
	}

	sess.CookieHost = a.entry.Host
	if err := sess.Seal(jar.Cookies(a.entry)); err != nil {
		sess.Fail()
		return nil, apperrors.Authentication(apperrors.StageSSOSubmit, "no authenticated cookie for entry url")
	}

	a.logger.InfoContext(ctx, "sso login complete",
		"stage", apperrors.StageSSOSubmit,
		"cookies", len(sess.Cookies()),
	)
	return sess, nil
}

func (a *Authenticator) fetchLoginPage(
	ctx context.Context,
	client *http.Client,
	jar http.CookieJar,
	sess *domainauth.Session,
) (*httpclient.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.entry.String(), nil)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "build entry request")
	}
	resp, err := httpclient.Do(client, req, apperrors.StageSSOEntry)
	if err != nil {
		return nil, err
	}

	if len(jar.Cookies(a.entry)) == 0 {
		return nil, apperrors.Authentication(apperrors.StageSSOEntry, "entry url did not set a session cookie")
	}
	sess.LoginURL = resp.URL.String()
	if err := sess.Advance(domainauth.StateCookieAcquired); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "advance session")
	}

	a.logger.DebugContext(ctx, "sso login page fetched",
		"stage", apperrors.StageSSOEntry,
		"login_host", resp.URL.Host,
	)
	return resp, nil
}

func parseLoginForm(body []byte, pageURL *url.URL) (*loginForm, error) {
	page := string(body)
	lt, okLt := firstGroup(ltRe, page)
	execution, okExec := firstGroup(executionRe, page)
	submit, okSubmit := firstGroup(submitRe, page)

	var missing []string
	if !okLt {
		missing = append(missing, "lt")
	}
	if !okExec {
		missing = append(missing, "execution")
	}
	if !okSubmit {
		missing = append(missing, "submit")
	}
	if len(missing) > 0 {
		return nil, apperrors.Authentication(apperrors.StageSSOForm,
			"login form is missing "+strings.Join(missing, ", "))
	}

	action := pageURL
	if raw, ok := firstGroup(formActionRe, page); ok {
		ref, err := url.Parse(raw)
		if err != nil {
			return nil, apperrors.Authentication(apperrors.StageSSOForm, fmt.Sprintf("invalid form action %q", raw))
		}
		action = pageURL.ResolveReference(ref)
	}

	return &loginForm{action: action, lt: lt, execution: execution, submit: submit}, nil
}

func (a *Authenticator) submitCredentials(
	ctx context.Context,
	client *http.Client,
	form *loginForm,
	sess *domainauth.Session,
) error {
	values := url.Values{
		"username":  {a.username},
		"password":  {a.password},
		"lt":        {form.lt},
		"execution": {form.execution},
		"_eventId":  {"submit"},
		"submit":    {form.submit},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, form.action.String(), strings.NewReader(values.Encode()))
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "build credentials request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := httpclient.Do(client, req, apperrors.StageSSOSubmit)
	if resp != nil && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
		return apperrors.Authentication(apperrors.StageSSOSubmit, "credentials rejected")
	}
	if err != nil {
		return err
	}
	if err := sess.Advance(domainauth.StateCredentialsSubmitted); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "advance session")
	}

	// A re-served login form means the portal refused the credentials.
	if ltRe.Match(resp.Body) {
		return apperrors.Authentication(apperrors.StageSSOSubmit, "credentials rejected")
	}
	return nil
}

func firstGroup(re *regexp.Regexp, s string) (string, bool) {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	return html.UnescapeString(m[1]), true
}

