package main

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/pagepipe/cmd/pagepipe/commands"
	ferrors "git.home.luguber.info/inful/pagepipe/internal/foundation/errors"
	"git.home.luguber.info/inful/pagepipe/internal/version"
)

func main() {
	cli := &commands.CLI{}
	parser := kong.Parse(cli,
		kong.Name("pagepipe"),
		kong.Description("Run content pipelines defined in a YAML configuration."),
		kong.UsageOnError(),
		commands.Vars(version.String()),
	)
	err := parser.Run(&commands.Global{Logger: slog.Default(), Out: os.Stdout}, cli)
	ferrors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
}
