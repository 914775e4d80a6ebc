package main

import (
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/catalogbuilder/cmd/catalogbuilder/commands"
	"git.home.luguber.info/inful/catalogbuilder/internal/engine"
	ferrors "git.home.luguber.info/inful/catalogbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/catalogbuilder/internal/version"
)

func main() {
	cli := &commands.CLI{}
	global := commands.NewGlobal()

	parser := kong.Must(cli,
		kong.Name("catalogbuilder"),
		kong.Description("Generate Backstage catalog files from Maven, NPM and backstage.<kind>.yaml descriptors"),
		kong.UsageOnError(),
		kong.Vars{
			"version":   version.String(),
			"filetypes": strings.Join(engine.DefaultRegistry().Names(), ","),
		},
		kong.Bind(global),
	)

	kctx, err := parser.Parse(os.Args[1:])
	if err == nil {
		err = kctx.Run(global, cli)
	}
	if err != nil {
		ferrors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
	}
}
