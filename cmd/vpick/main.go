package main

import (
	"github.com/alecthomas/kong"

	"github.com/xymaxim/vpick/internal/commands"
)

func main() {
	var cli commands.CLI
	ctx := kong.Parse(
		&cli,
		kong.Name("vpick"),
		kong.Description("Lists and downloads muxed MP4 renditions of online videos"),
		kong.UsageOnError(),
	)
	ctx.FatalIfErrorf(ctx.Run())
}
