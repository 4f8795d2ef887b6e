package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/campus-tools/adeplanning/config"
	"github.com/campus-tools/adeplanning/internal/adapters/calendar"
	"github.com/campus-tools/adeplanning/internal/adapters/cas"
	"github.com/campus-tools/adeplanning/internal/adapters/gwt"
	"github.com/campus-tools/adeplanning/internal/adapters/httpclient"
	"github.com/campus-tools/adeplanning/internal/core"
	"github.com/campus-tools/adeplanning/internal/data"
	domainauth "github.com/campus-tools/adeplanning/internal/domain/auth"
	apperrors "github.com/campus-tools/adeplanning/internal/errors"
	"github.com/campus-tools/adeplanning/internal/observability/statsd"
	"github.com/campus-tools/adeplanning/internal/ports"
	"github.com/campus-tools/adeplanning/internal/service"
	"github.com/campus-tools/adeplanning/internal/service/failurenotifier"
)

// ClientDeps groups dependencies for client initialization.
type ClientDeps struct {
	Config *config.AppConfig
	Logger *slog.Logger
	// Redis overrides the cache connection built from Config.Cache.
	Redis redis.UniversalClient
	// Metrics receives a copy of every metric in addition to StatsD.
	Metrics statsd.Sink
	// Transport overrides the outbound round tripper.
	Transport http.RoundTripper
	// Now overrides the clock used to resolve default date ranges.
	Now func() time.Time
}

// ClientContainer holds a wired planning client and what it owns.
type ClientContainer struct {
	Planning      *service.PlanningService
	Observability ObservabilityContainer

	redis     redis.UniversalClient
	ownsRedis bool
}

// NewClient wires the SSO authenticator, RPC gateway, calendar fetcher and optional
// feed cache behind a PlanningService. No network call is made unless the feed cache
// is enabled, in which case Redis is pinged; an unreachable cache is logged and skipped.
func NewClient(ctx context.Context, deps ClientDeps) (*ClientContainer, error) {
	if deps.Config == nil {
		return nil, errors.New("config is required")
	}
	cfg := deps.Config
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	obs := buildObservability(logger, cfg.Observability, deps.Metrics)
	container := &ClientContainer{Observability: obs}

	httpClient := httpclient.New(httpclient.Config{
		Timeout:   cfg.HTTP.Timeout,
		UserAgent: cfg.HTTP.UserAgent,
		Transport: deps.Transport,
	})

	authn, err := newAuthenticator(cfg.SSO, httpClient, logger)
	if err != nil {
		return nil, errors.Join(err, container.Close())
	}

	gateway, err := gwt.NewGateway(gwt.Config{
		ModuleBase:    cfg.GWT.ModuleBase,
		Permutation:   cfg.GWT.Permutation,
		SessionSeed:   cfg.GWT.SessionSeed,
		TreeLabel:     cfg.GWT.TreeLabel,
		Authenticator: authn,
		HTTPClient:    httpClient,
		Logger:        logger,
		Metrics:       obs.Metrics,
	})
	if err != nil {
		return nil, errors.Join(fmt.Errorf("create gwt gateway: %w", err), container.Close())
	}

	feedCache := container.feedCache(ctx, cfg.Cache, deps.Redis, logger)

	fetcher, err := calendar.NewFetcher(calendar.Config{
		FeedURL:         cfg.Calendar.FeedURL,
		ProjectID:       cfg.Calendar.ProjectID,
		DisplayConfigID: cfg.Calendar.DisplayConfigID,
		HTTPClient:      httpClient,
		Cache:           feedCache,
		Logger:          logger,
		Metrics:         obs.Metrics,
	})
	if err != nil {
		return nil, errors.Join(fmt.Errorf("create calendar fetcher: %w", err), container.Close())
	}

	rootID := cfg.GWT.RootFolderID
	container.Planning = service.NewPlanningService(service.PlanningServiceOptions{
		Backends: service.PlanningBackends{Session: gateway, Feeds: fetcher},
		Config: service.PlanningConfig{
			RootFolderID: &rootID,
			Location:     cfg.Calendar.Location(),
			Crawl:        service.CrawlerConfig{Concurrency: cfg.Crawl.Concurrency},
			Now:          deps.Now,
		},
		Logger:  logger,
		Metrics: obs.Metrics,
	})

	return container, nil
}

// NotifyFailure reports a failed operation to the configured sinks.
func (c *ClientContainer) NotifyFailure(ctx context.Context, operation string, err error, metadata map[string]string) {
	if c == nil || c.Observability.FailureNotifier == nil {
		return
	}
	f := failurenotifier.Failure{Operation: operation, Err: err, Metadata: metadata}
	if c.Planning != nil {
		f.ClientID = c.Planning.ClientID()
	}
	c.Observability.FailureNotifier.NotifyFailure(ctx, f)
}

// Close flushes metrics and releases the Redis connection if this container opened it.
func (c *ClientContainer) Close() error {
	if c == nil {
		return nil
	}
	var errs []error
	if err := c.Observability.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close statsd client: %w", err))
	}
	if c.ownsRedis && c.redis != nil {
		if err := c.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis client: %w", err))
		}
		c.redis = nil
	}
	return errors.Join(errs...)
}

func (c *ClientContainer) feedCache(
	ctx context.Context,
	cfg config.CacheConfig,
	override redis.UniversalClient,
	logger *slog.Logger,
) *core.FeedCacheService {
	client := override
	if client == nil {
		if !cfg.Enabled {
			return nil
		}
		rc, err := ConnectRedis(ctx, cfg, logger)
		if err != nil {
			logger.WarnContext(ctx, "feed cache unavailable, continuing without cache", "error", err)
			return nil
		}
		client = rc
		c.ownsRedis = true
	}
	c.redis = client

	return core.NewFeedCacheService(core.FeedCacheServiceOptions{
		Cache:  data.NewRedisCacheRepo(client, cfg.KeyPrefix),
		Config: core.FeedCacheConfig{TTL: cfg.FeedTTL},
	})
}

// newAuthenticator builds the CAS authenticator. Without credentials the client can still
// fetch calendar feeds; connecting fails with a validation error naming what is missing.
//
//nolint:ireturn // the fallback authenticator is not a *cas.Authenticator.
func newAuthenticator(cfg config.SSOConfig, client *http.Client, logger *slog.Logger) (ports.Authenticator, error) {
	if credErr := cfg.RequireCredentials(); credErr != nil {
		return ports.AuthenticatorFunc(func(context.Context) (*domainauth.Session, error) {
			return nil, apperrors.WithStage(
				apperrors.Wrap(credErr, apperrors.ErrCodeValidation, "sso credentials missing"),
				apperrors.StageSSOEntry,
			)
		}), nil
	}

	authn, err := cas.NewAuthenticator(cas.Config{
		EntryURL:   cfg.EntryURL,
		Username:   cfg.Username,
		Password:   cfg.Password,
		HTTPClient: client,
		Logger:     logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create cas authenticator: %w", err)
	}
	return authn, nil
}
