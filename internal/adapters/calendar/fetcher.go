// Package calendar retrieves a resource's iCal feed and decodes it into raw components.
package calendar

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/campus-tools/adeplanning/internal/adapters/httpclient"
	"github.com/campus-tools/adeplanning/internal/core"
	"github.com/campus-tools/adeplanning/internal/domain/model"
	apperrors "github.com/campus-tools/adeplanning/internal/errors"
	"github.com/campus-tools/adeplanning/internal/observability/metrics"
	"github.com/campus-tools/adeplanning/internal/observability/statsd"
	"github.com/emersion/go-ical"
)

const (
	DefaultFeedURL         = "https://adeapp.bordeaux-inp.fr/jsp/custom/modules/plannings/anonymous_cal.jsp"
	DefaultProjectID       = 1
	DefaultDisplayConfigID = 71
)

var _ core.FeedSource = (*Fetcher)(nil)

// Config holds configuration for the feed fetcher.
type Config struct {
	FeedURL         string
	ProjectID       int
	DisplayConfigID int

	HTTPClient *http.Client
	// Cache is optional; nil disables feed caching.
	Cache   *core.FeedCacheService
	Logger  *slog.Logger
	Metrics statsd.Sink
}

// Fetcher implements core.FeedSource over the anonymous calendar export endpoint.
// Feeds need no session, so fetches may run concurrently with each other and with crawls.
type Fetcher struct {
	feedURL         *url.URL
	projectID       int
	displayConfigID int

	client  *http.Client
	cache   *core.FeedCacheService
	logger  *slog.Logger
	metrics statsd.Sink
}

// NewFetcher builds a Fetcher, applying defaults for unset fields.
func NewFetcher(cfg Config) (*Fetcher, error) {
	raw := strings.TrimSpace(cfg.FeedURL)
	if raw == "" {
		raw = DefaultFeedURL
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, apperrors.Validationf("invalid calendar feed url %q", raw)
	}
	projectID := cfg.ProjectID
	if projectID <= 0 {
		projectID = DefaultProjectID
	}
	displayID := cfg.DisplayConfigID
	if displayID <= 0 {
		displayID = DefaultDisplayConfigID
	}
	client := cfg.HTTPClient
	if client == nil {
		client = httpclient.New(httpclient.Config{})
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{
		feedURL:         u,
		projectID:       projectID,
		displayConfigID: displayID,
		client:          client,
		cache:           cfg.Cache,
		logger:          logger.With("component", "calendar"),
		metrics:         cfg.Metrics,
	}, nil
}

// URL returns the feed URL for a resource and date range.
func (f *Fetcher) URL(resourceID int, dates model.DateRange) string {
	u := *f.feedURL
	q := u.Query()
	q.Set("resources", strconv.Itoa(resourceID))
	q.Set("projectId", strconv.Itoa(f.projectID))
	q.Set("calType", "ical")
	q.Set("firstDate", dates.FirstDate())
	q.Set("lastDate", dates.LastDate())
	q.Set("displayConfigId", strconv.Itoa(f.displayConfigID))
	u.RawQuery = q.Encode()
	return u.String()
}

// Fetch retrieves and decodes the feed. dates must already be resolved.
func (f *Fetcher) Fetch(ctx context.Context, resourceID int, dates model.DateRange) ([]*ical.Component, error) {
	if err := dates.Validate(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeValidation, "invalid date range")
	}

	start := time.Now()
	components, hit, err := f.fetch(ctx, resourceID, dates)
	metrics.EmitFeedFetch(f.metrics, metrics.FeedMetric{
		CacheHit:   hit,
		Components: len(components),
		Duration:   time.Since(start),
		Err:        err,
	})
	if err != nil {
		return nil, err
	}
	f.logger.DebugContext(ctx, "calendar feed fetched",
		"stage", apperrors.StageCalendarFetch,
		"resource_id", resourceID,
		"first_date", dates.FirstDate(),
		"last_date", dates.LastDate(),
		"components", len(components),
		"cache_hit", hit,
	)
	return components, nil
}

func (f *Fetcher) fetch(ctx context.Context, resourceID int, dates model.DateRange) ([]*ical.Component, bool, error) {
	if body := f.cached(ctx, resourceID, dates); body != nil {
		components, err := Decode(body)
		if err == nil {
			return components, true, nil
		}
		f.logger.WarnContext(ctx, "discarding undecodable cached feed", "resource_id", resourceID, "error", err)
	}

	body, err := f.download(ctx, resourceID, dates)
	if err != nil {
		return nil, false, err
	}
	components, err := Decode(body)
	if err != nil {
		return nil, false, err
	}
	f.store(ctx, resourceID, dates, body)
	return components, false, nil
}

func (f *Fetcher) download(ctx context.Context, resourceID int, dates model.DateRange) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL(resourceID, dates), nil)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "build feed request")
	}
	req.Header.Set("Accept", "text/calendar")
	resp, err := httpclient.Do(f.client, req, apperrors.StageCalendarFetch)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

func (f *Fetcher) cached(ctx context.Context, resourceID int, dates model.DateRange) []byte {
	if f.cache == nil {
		return nil
	}
	body, err := f.cache.Get(ctx, resourceID, dates)
	if err != nil {
		f.logger.WarnContext(ctx, "feed cache read failed", "resource_id", resourceID, "error", err)
		return nil
	}
	return body
}

func (f *Fetcher) store(ctx context.Context, resourceID int, dates model.DateRange, body []byte) {
	if f.cache == nil {
		return
	}
	if err := f.cache.Put(ctx, resourceID, dates, body); err != nil {
		f.logger.WarnContext(ctx, "feed cache write failed", "resource_id", resourceID, "error", err)
	}
}

// Decode parses an iCal body and returns the calendar's child components in feed order.
func Decode(body []byte) ([]*ical.Component, error) {
	cal, err := ical.NewDecoder(bytes.NewReader(body)).Decode()
	if errors.Is(err, io.EOF) {
		return nil, apperrors.ProtocolParse(apperrors.StageCalendarDecode, "empty calendar feed")
	}
	if err != nil {
		return nil, &apperrors.AppError{
			Code:    apperrors.ErrCodeProtocolParse,
			Stage:   apperrors.StageCalendarDecode,
			Message: "invalid calendar feed",
			Cause:   err,
		}
	}
	return cal.Children, nil
}
