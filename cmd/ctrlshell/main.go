// Package main is the entry point for ctrlshell.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/dshills/ctrlshell/internal/app"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

type cliOptions struct {
	app         app.Options
	exec        []string
	showVersion bool
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	if opts.showVersion {
		fmt.Fprintf(stdout, "ctrlshell %s\n", version)
		fmt.Fprintf(stdout, "Commit: %s\n", commit)
		fmt.Fprintf(stdout, "Built: %s\n", date)
		return 0
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, opts.app)
	if err != nil {
		fmt.Fprintf(stderr, "Error: failed to initialize: %v\n", err)
		return 1
	}
	// Ensure cleanup on all exit paths
	defer func() {
		if err := application.Shutdown(); err != nil {
			fmt.Fprintf(stderr, "Error: shutdown: %v\n", err)
		}
	}()

	if len(opts.exec) > 0 {
		return execLines(ctx, application, opts.exec, stdout, stderr)
	}

	if err := application.Run(ctx); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// execLines runs each line without a terminal and prints the resulting
// view. It stops at the first failing line.
func execLines(ctx context.Context, application *app.Application, lines []string, stdout, stderr io.Writer) int {
	session := application.Session()
	for _, line := range lines {
		before := session.ActiveView()
		result := application.Exec(ctx, line)
		if result.IsError() {
			fmt.Fprint(stderr, application.ActiveText())
			return 1
		}
		if !result.View.IsZero() || session.ActiveView() != before {
			fmt.Fprint(stdout, application.ActiveText())
		}
		if result.Message != "" {
			fmt.Fprintln(stderr, result.Message)
		}
	}
	return 0
}

func parseFlags(args []string, stderr io.Writer) (cliOptions, error) {
	var opts cliOptions

	fs := pflag.NewFlagSet("ctrlshell", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVarP(&opts.app.ConfigPath, "config", "c", "", "Path to configuration file")
	fs.StringVarP(&opts.app.ProjectFile, "project", "p", "", "Project file listing the project folders")
	fs.StringVarP(&opts.app.Dir, "dir", "C", "", "Starting working directory")
	fs.StringVar(&opts.app.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.StringVar(&opts.app.LogFile, "log-file", "", "Write logs to this file")
	fs.StringArrayVarP(&opts.exec, "exec", "e", nil, "Run a command line and print the result (repeatable)")
	fs.BoolVarP(&opts.showVersion, "version", "v", false, "Show version information")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "ctrlshell - jump to files, folders, shell and more from one prompt\n\n")
		fmt.Fprintf(stderr, "Usage: ctrlshell [options]\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(stderr, "\nExamples:\n")
		fmt.Fprintf(stderr, "  ctrlshell                       Start the interactive prompt\n")
		fmt.Fprintf(stderr, "  ctrlshell -p ~/work/proj.json   Start with a project\n")
		fmt.Fprintf(stderr, "  ctrlshell -e '!git status'      Run one command and exit\n")
	}

	if err := fs.Parse(args); err != nil {
		return opts, err
	}

	// Validate log level
	switch opts.app.LogLevel {
	case "", "debug", "info", "warn", "error":
		// Valid
	default:
		return opts, fmt.Errorf("invalid log level %q (must be debug, info, warn, or error)", opts.app.LogLevel)
	}

	if fs.NArg() > 0 {
		return opts, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	return opts, nil
}
