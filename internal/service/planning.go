// Package service orchestrates the remote planning client: session handshake, resource
// catalog crawling and calendar retrieval.
package service

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/google/uuid"

	"github.com/campus-tools/adeplanning/config"
	"github.com/campus-tools/adeplanning/internal/core"
	"github.com/campus-tools/adeplanning/internal/domain/model"
	"github.com/campus-tools/adeplanning/internal/domain/planning"
	apperrors "github.com/campus-tools/adeplanning/internal/errors"
	"github.com/campus-tools/adeplanning/internal/observability/statsd"
)

// PlanningConfig tunes a PlanningService.
type PlanningConfig struct {
	// RootFolderID is where Rooms starts crawling. Defaults to config.DefaultRootFolderID.
	RootFolderID *int
	// Location resolves default date ranges and floating event times. Defaults to UTC.
	Location *time.Location
	Crawl    CrawlerConfig
	// Now is overridable for tests.
	Now func() time.Time
}

// PlanningBackends groups the remote collaborators of a PlanningService.
type PlanningBackends struct {
	Session core.RemoteSession // Required
	Feeds   core.FeedSource    // Required
}

// PlanningServiceOptions groups dependencies for PlanningService.
type PlanningServiceOptions struct {
	Backends PlanningBackends
	Config   PlanningConfig
	Logger   *slog.Logger // Optional
	Metrics  statsd.Sink  // Optional
}

// PlanningService is the client facade: it connects the RPC session, crawls the resource
// catalog and returns normalized plannings.
type PlanningService struct {
	session    core.RemoteSession
	feeds      core.FeedSource
	crawler    *ResourceTreeCrawler
	normalizer *planning.Normalizer
	rootID     int
	loc        *time.Location
	now        func() time.Time
	clientID   string
	logger     *slog.Logger
}

// NewPlanningService constructs a PlanningService. Each instance gets its own client id,
// carried on every log line it emits.
func NewPlanningService(opts PlanningServiceOptions) *PlanningService {
	if opts.Backends.Session == nil {
		panic("RemoteSession is required")
	}
	if opts.Backends.Feeds == nil {
		panic("FeedSource is required")
	}

	cfg := opts.Config
	rootID := config.DefaultRootFolderID
	if cfg.RootFolderID != nil {
		rootID = *cfg.RootFolderID
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	clientID := uuid.NewString()
	logger = logger.With("client_id", clientID)

	return &PlanningService{
		session: opts.Backends.Session,
		feeds:   opts.Backends.Feeds,
		crawler: NewResourceTreeCrawler(ResourceTreeCrawlerOptions{
			Lister:  opts.Backends.Session,
			Config:  cfg.Crawl,
			Logger:  logger,
			Metrics: opts.Metrics,
		}),
		normalizer: planning.NewNormalizer(loc),
		rootID:     rootID,
		loc:        loc,
		now:        now,
		clientID:   clientID,
		logger:     logger.With("component", "planning"),
	}
}

// ClientID returns the correlation id of this client instance.
func (s *PlanningService) ClientID() string { return s.clientID }

// Connect authenticates and runs the RPC handshake. It is a no-op once connected.
func (s *PlanningService) Connect(ctx context.Context) error {
	if s.session.Connected() {
		return nil
	}
	start := time.Now()
	if err := s.session.Connect(ctx); err != nil {
		s.logger.ErrorContext(ctx, "connect failed",
			"stage", apperrors.GetStage(err),
			"error", err,
		)
		return err
	}
	s.logger.InfoContext(ctx, "connected", "duration", time.Since(start))
	return nil
}

// Rooms returns the whole resource catalog below the tree root.
func (s *PlanningService) Rooms(ctx context.Context) ([]model.Resource, error) {
	return s.RoomsFromFolder(ctx, s.rootID, 1)
}

// RoomsFromFolder returns the catalog below folderID; depth is echoed to the backend.
func (s *PlanningService) RoomsFromFolder(ctx context.Context, folderID, depth int) ([]model.Resource, error) {
	if err := s.requireConnected(); err != nil {
		return nil, err
	}
	return s.crawler.Crawl(ctx, folderID, depth)
}

// LookupID resolves a CAS user id to the resource id of that user's planning.
func (s *PlanningService) LookupID(ctx context.Context, casUID string) (int, error) {
	if err := s.requireConnected(); err != nil {
		return 0, err
	}
	casUID = strings.TrimSpace(casUID)
	if casUID == "" {
		return 0, apperrors.Validation("cas uid is required")
	}
	id, err := s.session.LookupID(ctx, casUID)
	if err != nil {
		return 0, err
	}
	s.logger.DebugContext(ctx, "resolved cas uid", "stage", apperrors.StageRPCLookupID, "resource_id", id)
	return id, nil
}

// ResourcePlanning returns the raw calendar components of a resource. A zero range means today.
func (s *PlanningService) ResourcePlanning(
	ctx context.Context,
	resourceID int,
	dates model.DateRange,
) ([]*ical.Component, error) {
	resolved, err := s.resolve(dates)
	if err != nil {
		return nil, err
	}
	return s.feeds.Fetch(ctx, resourceID, resolved)
}

// RoomPlanning returns the normalized events of a resource sorted by start time.
func (s *PlanningService) RoomPlanning(ctx context.Context, resourceID int, dates model.DateRange) ([]model.Event, error) {
	components, err := s.ResourcePlanning(ctx, resourceID, dates)
	if err != nil {
		return nil, err
	}
	events, err := s.normalizer.Normalize(components)
	if err != nil {
		s.logger.WarnContext(ctx, "event normalization failed",
			"stage", apperrors.StageEventParse,
			"resource_id", resourceID,
			"error", err,
		)
		return nil, err
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Start.Before(events[j].Start)
	})
	return events, nil
}

// StudentPlanning looks up casUID's resource id then returns its planning.
func (s *PlanningService) StudentPlanning(ctx context.Context, casUID string, dates model.DateRange) ([]model.Event, error) {
	id, err := s.LookupID(ctx, casUID)
	if err != nil {
		return nil, err
	}
	return s.RoomPlanning(ctx, id, dates)
}

func (s *PlanningService) requireConnected() error {
	if !s.session.Connected() {
		return apperrors.Validation("not connected")
	}
	return nil
}

func (s *PlanningService) resolve(dates model.DateRange) (model.DateRange, error) {
	resolved := dates.Resolve(s.now(), s.loc)
	if err := resolved.Validate(); err != nil {
		return model.DateRange{}, apperrors.Validationf("invalid date range: %v", err)
	}
	return resolved, nil
}
