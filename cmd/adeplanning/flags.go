package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/campus-tools/adeplanning/internal/domain/model"
)

const (
	defaultCommandTimeout = 2 * time.Minute
	noResource            = -1 << 31
)

type roomsOptions struct {
	Folder  int
	Depth   int
	Query   string
	Stats   bool
	Timeout time.Duration
}

type lookupOptions struct {
	UID     string
	Timeout time.Duration
}

type planningOptions struct {
	Resource int
	UID      string
	From     string
	To       string
	Raw      bool
	Timeout  time.Duration
}

type sessionKeyOptions struct {
	Seed uint64
}

func newFlagSet(name string, out io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(out)
	return fs
}

// usageError marks an invalid invocation. It has already been reported on stderr.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

// parseArgs wraps fs.Parse failures, which the flag package reports itself.
func parseArgs(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return &usageError{err: err}
	}
	return nil
}

// invalidUsage reports a flag validation failure the way the flag package reports parse errors.
func invalidUsage(fs *flag.FlagSet, msg string) error {
	err := errors.New(msg)
	_ = writef(fs.Output(), "%s\n", err)
	fs.Usage()
	return &usageError{err: err}
}

func parseRoomsFlags(args []string, rootID int, out io.Writer) (roomsOptions, error) {
	fs := newFlagSet("rooms", out)

	opts := roomsOptions{}
	fs.IntVar(&opts.Folder, "folder", rootID, "Folder id to crawl from")
	fs.IntVar(&opts.Depth, "depth", 1, "Depth echoed for the starting folder")
	fs.StringVar(&opts.Query, "query", "", "JMESPath expression applied to the catalog before printing")
	fs.BoolVar(&opts.Stats, "stats", false, "Print catalog statistics instead of the catalog")
	fs.DurationVar(&opts.Timeout, "timeout", defaultCommandTimeout, "Maximum duration of the command")

	if err := parseArgs(fs, args); err != nil {
		return roomsOptions{}, err
	}

	opts.Query = strings.TrimSpace(opts.Query)
	if opts.Depth < 1 {
		return roomsOptions{}, invalidUsage(fs, "--depth must be at least 1")
	}
	if opts.Stats && opts.Query != "" {
		return roomsOptions{}, invalidUsage(fs, "--stats and --query are mutually exclusive")
	}
	if opts.Timeout <= 0 {
		return roomsOptions{}, invalidUsage(fs, "--timeout must be greater than zero")
	}

	return opts, nil
}

func parseLookupFlags(args []string, out io.Writer) (lookupOptions, error) {
	fs := newFlagSet("lookup-id", out)

	var opts lookupOptions
	fs.StringVar(&opts.UID, "uid", "", "CAS user id (required)")
	fs.DurationVar(&opts.Timeout, "timeout", defaultCommandTimeout, "Maximum duration of the command")

	if err := parseArgs(fs, args); err != nil {
		return lookupOptions{}, err
	}

	opts.UID = strings.TrimSpace(opts.UID)
	if opts.UID == "" && fs.NArg() == 1 {
		opts.UID = strings.TrimSpace(fs.Arg(0))
	}
	if opts.UID == "" {
		return lookupOptions{}, invalidUsage(fs, "--uid is required")
	}
	if opts.Timeout <= 0 {
		return lookupOptions{}, invalidUsage(fs, "--timeout must be greater than zero")
	}

	return opts, nil
}

// parsePlanningFlags parses flags for planning (byUID false) and student-planning (byUID true).
func parsePlanningFlags(name string, args []string, byUID bool, out io.Writer) (planningOptions, error) {
	fs := newFlagSet(name, out)

	opts := planningOptions{Resource: noResource}
	if byUID {
		fs.StringVar(&opts.UID, "uid", "", "CAS user id (required)")
	} else {
		fs.IntVar(&opts.Resource, "resource", noResource, "Resource id (required)")
		fs.BoolVar(&opts.Raw, "raw", false, "Print the raw iCal feed instead of normalized events")
	}
	fs.StringVar(&opts.From, "from", "", "First date, YYYY-MM-DD (default today)")
	fs.StringVar(&opts.To, "to", "", "Last date, YYYY-MM-DD (default --from)")
	fs.DurationVar(&opts.Timeout, "timeout", defaultCommandTimeout, "Maximum duration of the command")

	if err := parseArgs(fs, args); err != nil {
		return planningOptions{}, err
	}

	opts.UID = strings.TrimSpace(opts.UID)
	if byUID && opts.UID == "" {
		return planningOptions{}, invalidUsage(fs, "--uid is required")
	}
	if !byUID && opts.Resource == noResource {
		return planningOptions{}, invalidUsage(fs, "--resource is required")
	}
	if opts.Timeout <= 0 {
		return planningOptions{}, invalidUsage(fs, "--timeout must be greater than zero")
	}

	return opts, nil
}

// dateRange parses --from/--to in loc. Unset bounds are left zero for the service to resolve.
func (o planningOptions) dateRange(loc *time.Location) (model.DateRange, error) {
	var (
		r   model.DateRange
		err error
	)
	if from := strings.TrimSpace(o.From); from != "" {
		if r.First, err = model.ParseDate(from, loc); err != nil {
			return model.DateRange{}, fmt.Errorf("--from: %w", err)
		}
	}
	if to := strings.TrimSpace(o.To); to != "" {
		if r.Last, err = model.ParseDate(to, loc); err != nil {
			return model.DateRange{}, fmt.Errorf("--to: %w", err)
		}
		if r.First.IsZero() {
			return model.DateRange{}, errors.New("--to requires --from")
		}
	}
	return r, nil
}

func parseSessionKeyFlags(args []string, defaultSeed uint64, out io.Writer) (sessionKeyOptions, error) {
	fs := newFlagSet("session-key", out)

	opts := sessionKeyOptions{}
	fs.Uint64Var(&opts.Seed, "seed", defaultSeed, "Seed to encode")

	if err := parseArgs(fs, args); err != nil {
		return sessionKeyOptions{}, err
	}
	return opts, nil
}
