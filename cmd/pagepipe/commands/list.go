package commands

import (
	"fmt"
	"strings"

	"git.home.luguber.info/inful/pagepipe/internal/config"
	"git.home.luguber.info/inful/pagepipe/internal/metrics"
)

// PipesCmd implements the 'pipes' command.
type PipesCmd struct{}

func (p *PipesCmd) Run(g *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}
	app, err := newApplication(cfg, g.logger(), metrics.NoopRecorder{})
	if err != nil {
		return err
	}
	for _, name := range app.Pipes() {
		pipe, _ := app.Pipe(name)
		_, _ = fmt.Fprintf(g.out(), "%s: %s\n", name, strings.Join(pipe.Names(app.IsWrapper), " | "))
	}
	return nil
}

// ProcessorsCmd implements the 'processors' command.
type ProcessorsCmd struct{}

func (p *ProcessorsCmd) Run(g *Global) error {
	app, err := newApplication(&config.Config{}, g.logger(), metrics.NoopRecorder{})
	if err != nil {
		return err
	}
	for _, name := range app.Processors() {
		if app.IsWrapper(name) {
			_, _ = fmt.Fprintf(g.out(), "%s (wrapper)\n", name)
			continue
		}
		_, _ = fmt.Fprintln(g.out(), name)
	}
	return nil
}
