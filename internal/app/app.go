// Package app wires configuration, backends and output surfaces into the
// fibiter command.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/agbru/fibiter/internal/cli"
	"github.com/agbru/fibiter/internal/config"
	apperrors "github.com/agbru/fibiter/internal/errors"
	"github.com/agbru/fibiter/internal/fibonacci"
	"github.com/agbru/fibiter/internal/logging"
	"github.com/agbru/fibiter/internal/server"
	"github.com/agbru/fibiter/internal/tui"
	"github.com/agbru/fibiter/internal/ui"
)

// Application represents the fibiter application instance.
type Application struct {
	Config    config.AppConfig
	Factory   *fibonacci.Factory
	ErrWriter io.Writer
}

// AppOption configures an Application during construction.
type AppOption func(*Application)

// WithFactory sets a custom backend factory for the application.
func WithFactory(f *fibonacci.Factory) AppOption {
	return func(a *Application) { a.Factory = f }
}

// New creates a new Application instance by parsing command-line arguments.
// args[0] is the program name.
func New(args []string, errWriter io.Writer, opts ...AppOption) (*Application, error) {
	app := &Application{ErrWriter: errWriter}
	for _, opt := range opts {
		opt(app)
	}
	if app.Factory == nil {
		app.Factory = fibonacci.NewDefaultFactory()
	}

	programName := "fibiter"
	var cmdArgs []string
	if len(args) > 0 {
		programName = args[0]
		cmdArgs = args[1:]
	}

	cfg, err := config.ParseConfig(programName, cmdArgs, errWriter, app.Factory.List())
	if err != nil {
		return nil, err
	}
	app.Config = cfg
	return app, nil
}

// Run executes the application based on the configured mode.
func (a *Application) Run(ctx context.Context, out io.Writer) int {
	if a.Config.Completion != "" {
		return a.runCompletion(out)
	}

	zerolog.SetGlobalLevel(logging.ParseLevel(a.Config.LogLevel))
	ui.InitTheme(a.Config.NoColor)

	switch {
	case a.Config.Serve != "":
		return a.runServer(ctx)
	case a.Config.TUI:
		return a.runTUI(ctx)
	default:
		return a.runGenerate(ctx, out)
	}
}

// runCompletion generates shell completion scripts.
func (a *Application) runCompletion(out io.Writer) int {
	if err := cli.GenerateCompletion(out, a.Config.Completion, a.Factory.List()); err != nil {
		fmt.Fprintf(a.ErrWriter, "Error generating completion: %v\n", err)
		return apperrors.ExitErrorConfig
	}
	return apperrors.ExitSuccess
}

// runServer serves the HTTP API until a signal arrives. --timeout does not
// apply to the listener, only to individual requests.
func (a *Application) runServer(ctx context.Context) int {
	ctx, stopSignals := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()

	cfg := server.DefaultConfig(a.Config.Serve)
	cfg.RequestTimeout = a.Config.Timeout
	srv := server.NewServer(a.Factory, cfg, server.WithLogger(logging.NewLogger(a.ErrWriter, "server")))
	if err := srv.Start(ctx); err != nil {
		fmt.Fprintf(a.ErrWriter, "Server error: %v\n", err)
		return apperrors.ExitErrorGeneric
	}
	return apperrors.ExitSuccess
}

// runTUI launches the interactive dashboard. Every restart builds a fresh
// source from the factory. --timeout bounds each run, not the session.
func (a *Application) runTUI(ctx context.Context) int {
	ctx, stopSignals := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()

	cfg := a.Config
	newSource := func() (fibonacci.Source, error) {
		if cfg.LastDigits > 0 {
			return fibonacci.NewModSource(cfg.Start, fibonacci.PowerOfTen(cfg.LastDigits))
		}
		numeric := cfg.Numeric
		if numeric == config.NumericAll {
			numeric = "big"
		}
		return a.Factory.New(numeric, fibonacci.SourceOptions{Start: cfg.Start, Overflow: cfg.OverflowPolicy()})
	}
	return tui.Run(ctx, newSource, cfg, Version)
}

// IsHelpError checks if the error is a help flag error (--help was used).
func IsHelpError(err error) bool {
	return errors.Is(err, pflag.ErrHelp)
}

// isTerminal reports whether w is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && ui.IsTerminal(f.Fd())
}
