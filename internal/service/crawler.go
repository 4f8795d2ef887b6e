package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/campus-tools/adeplanning/internal/core"
	"github.com/campus-tools/adeplanning/internal/domain/model"
	apperrors "github.com/campus-tools/adeplanning/internal/errors"
	"github.com/campus-tools/adeplanning/internal/observability/metrics"
	"github.com/campus-tools/adeplanning/internal/observability/statsd"
)

const (
	// DefaultCrawlConcurrency bounds the number of in-flight tree listings.
	DefaultCrawlConcurrency = 4
	maxCrawlConcurrency     = 32
)

// CrawlerConfig tunes a ResourceTreeCrawler.
type CrawlerConfig struct {
	Concurrency int
}

// ResourceTreeCrawlerOptions groups dependencies for ResourceTreeCrawler.
type ResourceTreeCrawlerOptions struct {
	Lister  core.ChildLister // Required
	Config  CrawlerConfig
	Logger  *slog.Logger // Optional
	Metrics statsd.Sink  // Optional
}

// ResourceTreeCrawler walks the remote resource hierarchy and flattens it into a catalog.
//
// Folders are expanded level by level; listings within a level run concurrently up to
// Config.Concurrency. Each listing writes only its own slot, and the catalog is assembled
// after the walk so the output order never depends on scheduling.
type ResourceTreeCrawler struct {
	lister      core.ChildLister
	concurrency int
	logger      *slog.Logger
	metrics     statsd.Sink
}

// NewResourceTreeCrawler constructs a ResourceTreeCrawler.
func NewResourceTreeCrawler(opts ResourceTreeCrawlerOptions) *ResourceTreeCrawler {
	if opts.Lister == nil {
		panic("ChildLister is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &ResourceTreeCrawler{
		lister:      opts.Lister,
		concurrency: clampConcurrency(opts.Config.Concurrency),
		logger:      logger.With("component", "crawler"),
		metrics:     opts.Metrics,
	}
}

func clampConcurrency(n int) int {
	switch {
	case n <= 0:
		return DefaultCrawlConcurrency
	case n > maxCrawlConcurrency:
		return maxCrawlConcurrency
	default:
		return n
	}
}

// folderTask is one pending listing on the worklist.
type folderTask struct {
	id     int
	depth  int
	parent *int
}

// crawlState holds what the walk learned; only the walking goroutine mutates it.
type crawlState struct {
	children map[int][]model.Resource
	// owner records which parent a folder was expanded under, so a folder reached twice
	// is listed once and flattened once.
	owner map[int]int
}

// Crawl lists the tree below folderID. depth is echoed to the backend for the first level
// and incremented per level; it does not bound the walk. Entries directly under folderID
// carry a nil ParentID.
func (c *ResourceTreeCrawler) Crawl(ctx context.Context, folderID, depth int) ([]model.Resource, error) {
	start := time.Now()
	catalog, err := c.crawl(ctx, folderID, depth)

	stats := model.StatsOf(catalog)
	metrics.EmitCrawl(c.metrics, metrics.CrawlMetric{
		Resources: stats.Resources,
		Folders:   stats.Folders,
		Duration:  time.Since(start),
		Err:       err,
	})
	if err != nil {
		c.logger.WarnContext(ctx, "resource crawl failed",
			"stage", apperrors.GetStage(err),
			"folder_id", folderID,
			"error", err,
		)
		return nil, err
	}
	c.logger.InfoContext(ctx, "resource crawl finished",
		"folder_id", folderID,
		"resources", stats.Resources,
		"folders", stats.Folders,
		"max_depth", stats.MaxDepth,
		"duration", time.Since(start),
	)
	return catalog, nil
}

func (c *ResourceTreeCrawler) crawl(ctx context.Context, rootID, depth int) ([]model.Resource, error) {
	state := &crawlState{
		children: make(map[int][]model.Resource),
		owner:    map[int]int{rootID: rootID},
	}

	level := []folderTask{{id: rootID, depth: depth}}
	for n := 0; len(level) > 0; n++ {
		results, err := c.listLevel(ctx, n, level)
		if err != nil {
			return nil, err
		}

		var next []folderTask
		for i, task := range level {
			state.children[task.id] = results[i]
			for _, r := range results[i] {
				if !r.IsFolder {
					continue
				}
				if prev, seen := state.owner[r.ID]; seen {
					c.logger.WarnContext(ctx, "folder already expanded, skipping",
						"stage", apperrors.StageCrawl,
						"folder_id", r.ID,
						"parent_id", task.id,
						"first_parent_id", prev,
					)
					continue
				}
				state.owner[r.ID] = task.id
				parent := r.ID
				next = append(next, folderTask{id: r.ID, depth: task.depth + 1, parent: &parent})
			}
		}
		level = next
	}

	return state.flatten(rootID), nil
}

// listLevel runs one listing per task with bounded fan-out. results[i] belongs to level[i].
func (c *ResourceTreeCrawler) listLevel(ctx context.Context, n int, level []folderTask) ([][]model.Resource, error) {
	results := make([][]model.Resource, len(level))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i, task := range level {
		g.Go(func() error {
			entries, err := c.lister.ListChildren(gctx, task.id, task.depth)
			if err != nil {
				return fmt.Errorf("crawl level %d folder %d: %w", n, task.id, apperrors.WithStage(err, apperrors.StageCrawl))
			}
			results[i] = c.attach(gctx, task, entries)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// attach drops self-references and links entries to the task's parent.
func (c *ResourceTreeCrawler) attach(ctx context.Context, task folderTask, entries []model.ChildEntry) []model.Resource {
	out := make([]model.Resource, 0, len(entries))
	for _, e := range entries {
		if e.ID == task.id {
			c.logger.DebugContext(ctx, "dropping self-referencing entry",
				"stage", apperrors.StageCrawl,
				"folder_id", task.id,
			)
			continue
		}
		out = append(out, e.WithParent(task.parent))
	}
	return out
}

// flatten emits a folder's direct children followed by each child folder's subtree.
// An explicit stack keeps deep hierarchies off the goroutine stack.
func (s *crawlState) flatten(rootID int) []model.Resource {
	type frame struct {
		items []model.Resource
		next  int
	}

	var out []model.Resource
	expanded := make(map[int]bool)
	stack := []*frame{{items: s.children[rootID]}}
	out = append(out, s.children[rootID]...)

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		if top.next >= len(top.items) {
			stack = stack[:len(stack)-1]
			continue
		}
		r := top.items[top.next]
		top.next++
		if !r.IsFolder || expanded[r.ID] || !s.ownedBy(r, rootID) {
			continue
		}
		expanded[r.ID] = true
		kids := s.children[r.ID]
		if len(kids) == 0 {
			continue
		}
		out = append(out, kids...)
		stack = append(stack, &frame{items: kids})
	}
	return out
}

// ownedBy reports whether r is the occurrence its folder was expanded under.
func (s *crawlState) ownedBy(r model.Resource, rootID int) bool {
	parent := rootID
	if r.ParentID != nil {
		parent = *r.ParentID
	}
	owner, ok := s.owner[r.ID]
	return ok && owner == parent
}
