package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/campus-tools/adeplanning/config"
	"github.com/campus-tools/adeplanning/internal/bootstrap"
)

type commandFn func(ctx *commandContext, args []string) error

type command struct {
	name        string
	description string
	run         commandFn
}

type commandContext struct {
	Ctx    context.Context
	Logger *slog.Logger
	Config config.AppConfig
	Stdout io.Writer
	Stderr io.Writer
	// Deps is the template used to build clients; Config is filled in per command.
	Deps bootstrap.ClientDeps
}

func main() {
	logger := bootstrap.InitLogger(config.LogLevelInfo)

	if len(os.Args) < 2 {
		if err := printUsage(os.Stderr); err != nil {
			logger.Error("print usage failed", "error", err)
		}
		os.Exit(exitUsage) //nolint:forbidigo // CLI must exit with failure status when no command is provided
	}

	cmdName := os.Args[1]
	cmd, ok := commands()[cmdName]
	if !ok {
		if err := writef(os.Stderr, "unknown command %q\n\n", cmdName); err != nil {
			logger.Error("print unknown command message failed", "error", err)
		}
		if err := printUsage(os.Stderr); err != nil {
			logger.Error("print usage failed", "error", err)
		}
		os.Exit(exitUsage) //nolint:forbidigo // CLI must exit with failure status when command is unknown
	}

	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		logger.ErrorContext(context.Background(), "load config", "error", err)
		os.Exit(exitFailure) //nolint:forbidigo // CLI must signal configuration load failure to shell scripts
	}
	logger = bootstrap.InitLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmdCtx := &commandContext{
		Ctx:    ctx,
		Logger: logger,
		Config: cfg,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Deps:   bootstrap.ClientDeps{Logger: logger},
	}
	runErr := cmd.run(cmdCtx, os.Args[2:])
	code := exitCode(runErr)
	if code == exitFailure {
		logger.ErrorContext(ctx, "command failed", "command", cmdName, "error", runErr)
	}
	if code != exitOK {
		stop()
		os.Exit(code) //nolint:forbidigo // CLI must propagate command failure status to callers
	}
}

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

// exitCode maps a command error to the process status. -h exits cleanly.
func exitCode(err error) int {
	var ue *usageError
	switch {
	case err == nil, errors.Is(err, flag.ErrHelp):
		return exitOK
	case errors.As(err, &ue):
		return exitUsage
	default:
		return exitFailure
	}
}

func commands() map[string]command {
	return map[string]command{
		"rooms": {
			name:        "rooms",
			description: "Crawl the resource tree and print the room catalog as JSON",
			run:         runRooms,
		},
		"lookup-id": {
			name:        "lookup-id",
			description: "Resolve a CAS user id to its planning resource id",
			run:         runLookupID,
		},
		"planning": {
			name:        "planning",
			description: "Print the normalized planning of a resource",
			run:         runPlanning,
		},
		"student-planning": {
			name:        "student-planning",
			description: "Print the normalized planning of a CAS user",
			run:         runStudentPlanning,
		},
		"session-key": {
			name:        "session-key",
			description: "Print the session key derived from a seed",
			run:         runSessionKey,
		},
	}
}

func printUsage(w io.Writer) error {
	if err := writef(w, "Usage: adeplanning <command> [flags]\n\n"); err != nil {
		return err
	}
	if err := writef(w, "Available commands:\n"); err != nil {
		return err
	}
	cmds := commands()
	names := make([]string, 0, len(cmds))
	for name := range cmds {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		c := cmds[name]
		if err := writef(w, "  %-18s %s\n", c.name, c.description); err != nil {
			return err
		}
	}
	return nil
}

func writef(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format, args...)
	return err
}
