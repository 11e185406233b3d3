// Package commands implements the pagepipe command line.
package commands

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/pagepipe/internal/config"
	"git.home.luguber.info/inful/pagepipe/internal/engine"
	"git.home.luguber.info/inful/pagepipe/internal/metrics"
	"git.home.luguber.info/inful/pagepipe/internal/processors"
)

// LogLevelEnv overrides the log level chosen by --verbose.
const LogLevelEnv = "PAGEPIPE_LOG_LEVEL"

// Global is passed to every command's Run method.
type Global struct {
	Logger *slog.Logger
	Out    io.Writer
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"${config_path}" type:"path"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Run        RunCmd        `cmd:"" help:"Run a configured pipe"`
	Pipes      PipesCmd      `cmd:"" help:"List configured pipes"`
	Processors ProcessorsCmd `cmd:"" help:"List available processors"`
	Init       InitCmd       `cmd:"" help:"Write a starter configuration file"`
}

// Vars returns the interpolation variables the CLI struct expects.
func Vars(ver string) kong.Vars {
	return kong.Vars{"version": ver, "config_path": config.DefaultPath}
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLogLevel(c.Verbose)}))
	slog.SetDefault(logger)
	return nil
}

// parseLogLevel picks Debug for verbose runs and lets LogLevelEnv override.
func parseLogLevel(verbose bool) slog.Level {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	switch strings.ToLower(strings.TrimSpace(os.Getenv(LogLevelEnv))) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	return level
}

func (g *Global) logger() *slog.Logger {
	if g == nil || g.Logger == nil {
		return slog.Default()
	}
	return g.Logger
}

func (g *Global) out() io.Writer {
	if g == nil || g.Out == nil {
		return os.Stdout
	}
	return g.Out
}

// newApplication builds an application with the default processors and the
// pipes of cfg.
func newApplication(cfg *config.Config, logger *slog.Logger, recorder metrics.Recorder) (*engine.Application, error) {
	app := engine.New(cfg.Metadata, engine.WithLogger(logger), engine.WithRecorder(recorder))
	if err := processors.RegisterDefaults(app); err != nil {
		return nil, err
	}
	cfg.Configure(app)
	return app, nil
}
