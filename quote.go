package main

import (
	"fmt"

	lib "github.com/awused/multi-monitor-wallpaper/lib"
	"github.com/urfave/cli/v2"
	"go.uber.org/fx"
)

const offline = "offline"

func quoteCommand() *cli.Command {
	cmd := &cli.Command{}
	cmd.Name = "quote"
	cmd.Usage = "Print the quote that would be drawn on the next wallpaper"
	cmd.Flags = []cli.Flag{
		&cli.BoolFlag{
			Name:  offline,
			Usage: "Only use the local quotes",
		},
	}
	cmd.Action = quoteAction
	return cmd
}

func quoteAction(c *cli.Context) error {
	conf, logger := setup(c)
	defer logger.Sync()

	var quotes *lib.QuoteSource
	app := newApp(c, conf, logger, fx.Populate(&quotes))
	if err := app.Err(); err != nil {
		return err
	}

	q := quotes.Fallback()
	if !c.Bool(offline) {
		q = quotes.Get(c.Context)
	}
	fmt.Println(lib.FormatQuote(q))
	return nil
}
