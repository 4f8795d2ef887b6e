package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/campus-tools/adeplanning/internal/bootstrap"
	"github.com/campus-tools/adeplanning/internal/domain/model"
	"github.com/campus-tools/adeplanning/internal/sessionkey"
)

type clientRun func(ctx context.Context, client *bootstrap.ClientContainer) error

// withClient builds a client, connects it when asked, runs fn and reports a failure to
// the configured notification sinks before returning it.
func (c *commandContext) withClient(
	operation string,
	metadata map[string]string,
	fn clientRun,
	connect bool,
) error {
	if connect {
		if err := c.Config.SSO.RequireCredentials(); err != nil {
			return err
		}
	}

	deps := c.Deps
	deps.Config = &c.Config
	if deps.Logger == nil {
		deps.Logger = c.Logger
	}

	client, err := bootstrap.NewClient(c.Ctx, deps)
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}
	defer func() {
		if cerr := client.Close(); cerr != nil {
			c.Logger.Warn("close client failed", "error", cerr)
		}
	}()

	runErr := func() error {
		if connect {
			if err := client.Planning.Connect(c.Ctx); err != nil {
				return err
			}
		}
		return fn(c.Ctx, client)
	}()
	if runErr != nil {
		client.NotifyFailure(context.WithoutCancel(c.Ctx), operation, runErr, metadata)
	}
	return runErr
}

func runRooms(cmdCtx *commandContext, args []string) error {
	opts, err := parseRoomsFlags(args, cmdCtx.Config.GWT.RootFolderID, cmdCtx.Stderr)
	if err != nil {
		return err
	}

	metadata := map[string]string{"folder_id": strconv.Itoa(opts.Folder)}
	return cmdCtx.timed(opts.Timeout, func() error {
		return cmdCtx.withClient("rooms", metadata, func(ctx context.Context, client *bootstrap.ClientContainer) error {
			catalog, err := client.Planning.RoomsFromFolder(ctx, opts.Folder, opts.Depth)
			if err != nil {
				return err
			}
			if opts.Stats {
				return writeJSON(cmdCtx.Stdout, model.StatsOf(catalog))
			}
			out, err := applyQuery(opts.Query, catalog)
			if err != nil {
				return err
			}
			return writeJSON(cmdCtx.Stdout, out)
		}, true)
	})
}

func runLookupID(cmdCtx *commandContext, args []string) error {
	opts, err := parseLookupFlags(args, cmdCtx.Stderr)
	if err != nil {
		return err
	}

	return cmdCtx.timed(opts.Timeout, func() error {
		return cmdCtx.withClient("lookup-id", nil, func(ctx context.Context, client *bootstrap.ClientContainer) error {
			id, err := client.Planning.LookupID(ctx, opts.UID)
			if err != nil {
				return err
			}
			return writeJSON(cmdCtx.Stdout, map[string]any{"uid": opts.UID, "resourceId": id})
		}, true)
	})
}

func runPlanning(cmdCtx *commandContext, args []string) error {
	opts, err := parsePlanningFlags("planning", args, false, cmdCtx.Stderr)
	if err != nil {
		return err
	}
	dates, err := opts.dateRange(cmdCtx.Config.Calendar.Location())
	if err != nil {
		return cmdCtx.usage(err)
	}

	metadata := map[string]string{"resource_id": strconv.Itoa(opts.Resource)}
	return cmdCtx.timed(opts.Timeout, func() error {
		return cmdCtx.withClient("planning", metadata, func(ctx context.Context, client *bootstrap.ClientContainer) error {
			if opts.Raw {
				components, err := client.Planning.ResourcePlanning(ctx, opts.Resource, dates)
				if err != nil {
					return err
				}
				return writeCalendar(cmdCtx.Stdout, components)
			}
			events, err := client.Planning.RoomPlanning(ctx, opts.Resource, dates)
			if err != nil {
				return err
			}
			return writeJSON(cmdCtx.Stdout, events)
		}, false)
	})
}

func runStudentPlanning(cmdCtx *commandContext, args []string) error {
	opts, err := parsePlanningFlags("student-planning", args, true, cmdCtx.Stderr)
	if err != nil {
		return err
	}
	dates, err := opts.dateRange(cmdCtx.Config.Calendar.Location())
	if err != nil {
		return cmdCtx.usage(err)
	}

	return cmdCtx.timed(opts.Timeout, func() error {
		return cmdCtx.withClient("student-planning", nil, func(ctx context.Context, client *bootstrap.ClientContainer) error {
			events, err := client.Planning.StudentPlanning(ctx, opts.UID, dates)
			if err != nil {
				return err
			}
			return writeJSON(cmdCtx.Stdout, events)
		}, true)
	})
}

func runSessionKey(cmdCtx *commandContext, args []string) error {
	opts, err := parseSessionKeyFlags(args, cmdCtx.Config.GWT.SessionSeed, cmdCtx.Stderr)
	if err != nil {
		return err
	}
	return writeJSON(cmdCtx.Stdout, map[string]any{
		"seed": opts.Seed,
		"key":  sessionkey.Encode(opts.Seed),
	})
}

// usage reports an invalid invocation detected after flag parsing.
func (c *commandContext) usage(err error) error {
	_ = writef(c.Stderr, "%s\n", err)
	return &usageError{err: err}
}

// timed runs fn with the command context bounded by timeout.
func (c *commandContext) timed(timeout time.Duration, fn func() error) error {
	parent := c.Ctx
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	c.Ctx = ctx
	defer func() { c.Ctx = parent }()

	err := fn()
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() != nil {
		return fmt.Errorf("timed out after %s: %w", timeout, err)
	}
	return err
}
