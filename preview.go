package main

import (
	"context"
	"errors"
	"path/filepath"

	lib "github.com/awused/multi-monitor-wallpaper/lib"
	"github.com/urfave/cli/v2"
)

const noQuote = "no-quote"

func previewCommand() *cli.Command {
	cmd := &cli.Command{}
	cmd.Name = "preview"
	cmd.Usage = "Combine two specific images and set them as the wallpaper"
	cmd.ArgsUsage = "LEFT RIGHT"
	cmd.Flags = []cli.Flag{
		&cli.BoolFlag{
			Name:    noQuote,
			Aliases: []string{"n"},
			Usage:   "Don't draw a quote",
		},
	}

	cmd.Action = previewAction

	return cmd
}

func previewAction(c *cli.Context) error {
	if c.NArg() != 2 {
		checkErr(errors.New("Expected exactly two input files"))
	}

	left, err := filepath.Abs(c.Args().Get(0))
	checkErr(err)
	right, err := filepath.Abs(c.Args().Get(1))
	checkErr(err)

	conf, logger := setup(c)
	defer logger.Sync()

	if c.Bool(noQuote) {
		off := false
		conf.Quotes = &off
	}
	// An explicit request shouldn't be dropped because the screen is locked
	conf.SetSkipWhenLocked(false)

	return withCycler(c, conf, logger, func(ctx context.Context, cycler *lib.Cycler) error {
		return cycler.Preview(ctx, left, right)
	})
}
