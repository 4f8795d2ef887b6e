// Package gwt speaks the subset of the scheduling backend's GWT-RPC protocol needed to
// open a session, resolve user ids and list the resource tree.
package gwt

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/campus-tools/adeplanning/internal/adapters/httpclient"
	"github.com/campus-tools/adeplanning/internal/core"
	domainauth "github.com/campus-tools/adeplanning/internal/domain/auth"
	"github.com/campus-tools/adeplanning/internal/domain/model"
	apperrors "github.com/campus-tools/adeplanning/internal/errors"
	"github.com/campus-tools/adeplanning/internal/observability/metrics"
	"github.com/campus-tools/adeplanning/internal/observability/statsd"
	"github.com/campus-tools/adeplanning/internal/ports"
	"github.com/campus-tools/adeplanning/internal/sessionkey"
)

const (
	contentType = "text/x-gwt-rpc; charset=utf-8"

	// DefaultTreeLabel is the label field echoed in tree-listing requests.
	DefaultTreeLabel = "ENSEIRB-MATMECA"
)

var (
	_ core.ChildLister   = (*Gateway)(nil)
	_ core.IDLookup      = (*Gateway)(nil)
	_ core.RemoteSession = (*Gateway)(nil)
)

// Config holds configuration for the gateway.
type Config struct {
	// ModuleBase is the GWT module base URL; service endpoints are resolved against it.
	// It must be on the host the SSO session cookies were issued for.
	ModuleBase string
	// Permutation is the GWT permutation strong name assigned by the backend.
	Permutation string
	// SessionSeed is encoded into the session key carried by every call.
	SessionSeed uint64
	// TreeLabel is echoed in tree-listing requests. Defaults to DefaultTreeLabel.
	TreeLabel string

	Authenticator ports.Authenticator
	// HTTPClient must not carry a cookie jar; the authenticated cookies are sent explicitly.
	HTTPClient *http.Client
	Logger     *slog.Logger
	Metrics    statsd.Sink
}

// Validate checks that required configuration fields are set.
func (c Config) Validate() error {
	var missing []string
	if strings.TrimSpace(c.ModuleBase) == "" {
		missing = append(missing, "ModuleBase")
	}
	if strings.TrimSpace(c.Permutation) == "" {
		missing = append(missing, "Permutation")
	}
	if c.Authenticator == nil {
		missing = append(missing, "Authenticator")
	}
	if len(missing) > 0 {
		return apperrors.Validationf("gwt config missing: %s", strings.Join(missing, ", "))
	}
	if u, err := url.Parse(strings.TrimSpace(c.ModuleBase)); err != nil || u.Scheme == "" || u.Host == "" {
		return apperrors.Validationf("invalid gwt module base %q", c.ModuleBase)
	}
	if strings.ContainsAny(c.TreeLabel, `"|\`) {
		return apperrors.Validationf("gwt tree label %q contains reserved characters", c.TreeLabel)
	}
	return nil
}

// Gateway issues GWT-RPC calls over the authenticated session it owns.
// ListChildren and LookupID are safe for concurrent use once Connect has returned.
type Gateway struct {
	moduleBase  string
	permutation string
	key         string
	treeLabel   string

	authn   ports.Authenticator
	client  *http.Client
	logger  *slog.Logger
	metrics statsd.Sink

	connectMu sync.Mutex
	session   atomic.Pointer[domainauth.Session]
}

// NewGateway validates cfg and builds a Gateway.
func NewGateway(cfg Config) (*Gateway, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	base := strings.TrimSpace(cfg.ModuleBase)
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	label := cfg.TreeLabel
	if label == "" {
		label = DefaultTreeLabel
	}
	client := cfg.HTTPClient
	if client == nil {
		client = httpclient.New(httpclient.Config{})
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{
		moduleBase:  base,
		permutation: strings.TrimSpace(cfg.Permutation),
		key:         sessionkey.Encode(cfg.SessionSeed),
		treeLabel:   label,
		authn:       cfg.Authenticator,
		client:      client,
		logger:      logger.With("component", "gwt"),
		metrics:     cfg.Metrics,
	}, nil
}

// Key returns the session key carried by every call.
func (g *Gateway) Key() string { return g.key }

// Connected reports whether the handshake completed.
func (g *Gateway) Connected() bool { return g.session.Load() != nil }

// Connect authenticates and runs the login and initProject calls, strictly in that order.
// A completed handshake is never redone; after a failure Connect may be called again.
func (g *Gateway) Connect(ctx context.Context) error {
	g.connectMu.Lock()
	defer g.connectMu.Unlock()

	if g.session.Load() != nil {
		return nil
	}

	sess, err := g.authn.Authenticate(ctx)
	if err != nil {
		return err
	}
	if !sess.Authenticated() {
		return apperrors.Authentication(apperrors.StageSSOSubmit, "authenticator returned an unauthenticated session")
	}
	if _, err := g.cookieHeader(sess, g.moduleBase, apperrors.StageRPCLogin); err != nil {
		return err
	}

	if _, err := g.call(ctx, sess, CallLogin, envelopeArgs{}, apperrors.StageRPCLogin); err != nil {
		return err
	}
	if _, err := g.call(ctx, sess, CallInitProject, envelopeArgs{}, apperrors.StageRPCInitProject); err != nil {
		return err
	}

	g.session.Store(sess)
	g.logger.InfoContext(ctx, "gwt session established", "key", g.key)
	return nil
}

// LookupID resolves a CAS user id to its resource id.
func (g *Gateway) LookupID(ctx context.Context, casUID string) (int, error) {
	sess, err := g.connected()
	if err != nil {
		return 0, err
	}
	casUID = strings.TrimSpace(casUID)
	if casUID == "" {
		return 0, apperrors.Validation("cas uid is required")
	}

	body, err := g.call(ctx, sess, CallLookupID, envelopeArgs{CasUID: casUID}, apperrors.StageRPCLookupID)
	if err != nil {
		return 0, err
	}
	return ParseLookupID(body)
}

// ListChildren lists the direct children of folderID. depth is forwarded to the backend.
func (g *Gateway) ListChildren(ctx context.Context, folderID, depth int) ([]model.ChildEntry, error) {
	sess, err := g.connected()
	if err != nil {
		return nil, err
	}

	args := envelopeArgs{FolderID: folderID, Depth: depth, TreeLabel: g.treeLabel}
	body, err := g.call(ctx, sess, CallListChildren, args, apperrors.StageRPCListChildren)
	if err != nil {
		return nil, err
	}
	children, err := ParseChildren(body, folderID)
	if err != nil {
		return nil, err
	}
	g.logger.DebugContext(ctx, "listed children",
		"stage", apperrors.StageRPCListChildren,
		"folder_id", folderID,
		"depth", depth,
		"children", len(children),
	)
	return children, nil
}

func (g *Gateway) connected() (*domainauth.Session, error) {
	sess := g.session.Load()
	if sess == nil {
		return nil, apperrors.Validation("not connected")
	}
	return sess, nil
}

// cookieHeader releases the session cookies only to the host they were issued for.
func (g *Gateway) cookieHeader(sess *domainauth.Session, target string, stage apperrors.Stage) (string, error) {
	u, err := url.Parse(target)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrCodeInternal, "parse rpc url")
	}
	header, err := sess.CookieHeaderFor(u)
	if err != nil {
		return "", apperrors.WithStage(
			apperrors.Wrap(err, apperrors.ErrCodeValidation, "gwt module base is not on the sso cookie host"),
			stage,
		)
	}
	return header, nil
}

func (g *Gateway) call(
	ctx context.Context,
	sess *domainauth.Session,
	call Call,
	args envelopeArgs,
	stage apperrors.Stage,
) (string, error) {
	args.ModuleBase = g.moduleBase
	args.Key = g.key
	env, payload, err := render(call, args)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrCodeInternal, "render envelope")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.moduleBase+env.service, strings.NewReader(payload))
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrCodeInternal, "build rpc request")
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-GWT-Module-Base", g.moduleBase)
	req.Header.Set("X-GWT-Permutation", g.permutation)
	cookie, err := g.cookieHeader(sess, req.URL.String(), stage)
	if err != nil {
		return "", err
	}
	req.Header.Set("Cookie", cookie)

	start := time.Now()
	body, err := g.do(req, stage)
	metrics.EmitRPCCall(g.metrics, metrics.RPCMetric{
		Method:   env.method,
		Duration: time.Since(start),
		Err:      err,
	})
	if err != nil {
		g.logger.WarnContext(ctx, "rpc call failed", "stage", stage, "method", env.method, "error", err)
		return "", err
	}
	return body, nil
}

func (g *Gateway) do(req *http.Request, stage apperrors.Stage) (string, error) {
	resp, err := httpclient.Do(g.client, req, stage)
	if err != nil {
		return "", err
	}
	body := string(resp.Body)
	if err := checkResponse(body, stage); err != nil {
		return "", err
	}
	return body, nil
}
