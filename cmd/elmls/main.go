package main

import (
	"github.com/alecthomas/kong"
)

type cli struct {
	Serve serveCmd `cmd:"" help:"Start the language server on stdio."`
}

func main() {
	c := cli{}

	ctx := kong.Parse(&c,
		kong.Name("elmls"),
		kong.Description("A language server for Elm projects."),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}))

	ctx.FatalIfErrorf(ctx.Run())
}
