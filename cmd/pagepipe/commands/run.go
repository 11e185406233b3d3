package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/pagepipe/internal/config"
	"git.home.luguber.info/inful/pagepipe/internal/logfields"
	"git.home.luguber.info/inful/pagepipe/internal/metrics"
	"git.home.luguber.info/inful/pagepipe/internal/watch"
)

// RunCmd implements the 'run' command.
type RunCmd struct {
	Pipe        string   `arg:"" help:"Name of the pipe to run"`
	Watch       bool     `short:"w" help:"Run again whenever watched files change"`
	WatchPaths  []string `name:"watch-path" help:"Directories to watch (default: the configuration directory)"`
	Ignore      []string `help:"Paths excluded from watching" default:"_site"`
	MetricsFile string   `name:"metrics-file" help:"Write Prometheus metrics to this file after each run" type:"path"`
}

func (r *RunCmd) Run(g *Global, root *CLI) error {
	logger := g.logger()
	reg := prometheus.NewRegistry()
	var recorder metrics.Recorder = metrics.NoopRecorder{}
	if r.MetricsFile != "" {
		recorder = metrics.NewPrometheusRecorder(reg)
	}

	build := func(context.Context) error {
		err := RunPipe(root.Config, r.Pipe, logger, recorder, g.out())
		if r.MetricsFile != "" {
			if werr := metrics.WriteTextfile(r.MetricsFile, reg); werr != nil {
				logger.Warn("Failed to write metrics", logfields.Path(r.MetricsFile), logfields.Error(werr))
			}
		}
		return err
	}

	if err := build(context.Background()); err != nil && !r.Watch {
		return err
	} else if err != nil {
		logger.Warn("Run failed; watching for changes", logfields.Error(err))
	}
	if !r.Watch {
		return nil
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	paths := r.WatchPaths
	if len(paths) == 0 {
		paths = []string{filepath.Dir(root.Config)}
	}
	return watch.Run(ctx, paths, build, watch.WithLogger(logger), watch.WithIgnored(r.Ignore...))
}

// RunPipe loads the configuration, runs pipe to completion and reports the
// number of items that came out of it. The configuration is read on every
// call so edits are picked up in watch mode.
func RunPipe(configPath, pipe string, logger *slog.Logger, recorder metrics.Recorder, out io.Writer) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	app, err := newApplication(cfg, logger, recorder)
	if err != nil {
		return err
	}

	start := time.Now()
	logger.Info("Running pipe", logfields.Pipe(pipe))
	count := 0
	for _, err := range app.Invoke(pipe, nil) {
		if err != nil {
			return err
		}
		count++
	}
	_, _ = fmt.Fprintf(out, "%s: %d items in %s\n", pipe, count, time.Since(start).Round(time.Millisecond))
	return nil
}
