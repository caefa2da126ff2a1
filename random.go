package main

import (
	"context"

	lib "github.com/awused/multi-monitor-wallpaper/lib"
	"github.com/urfave/cli/v2"
	"go.uber.org/fx"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const unlocked = "unlocked"

func randomCommand() *cli.Command {
	cmd := &cli.Command{}
	cmd.Name = "random"
	cmd.Usage = "Randomly select a wallpaper for each monitor, once"
	cmd.Flags = []cli.Flag{
		&cli.BoolFlag{
			Name:    unlocked,
			Aliases: []string{"u"},
			Usage:   "Do nothing while the screen is locked, overrides SkipWhenLocked",
		},
	}

	cmd.Action = randomAction

	return cmd
}

func randomAction(c *cli.Context) error {
	conf, logger := setup(c)
	defer logger.Sync()

	if c.IsSet(unlocked) {
		conf.SetSkipWhenLocked(c.Bool(unlocked))
	}

	return withCycler(c, conf, logger, func(ctx context.Context, cycler *lib.Cycler) error {
		return cycler.Cycle(ctx)
	})
}

// Starts the app for the lifetime of f so lifecycle hooks run
func withCycler(
	c *cli.Context,
	conf *lib.Config,
	logger *zap.Logger,
	f func(context.Context, *lib.Cycler) error) error {
	var cycler *lib.Cycler
	app := newApp(c, conf, logger, fx.Populate(&cycler))

	ctx := c.Context
	if err := app.Start(ctx); err != nil {
		return err
	}

	err := f(ctx, cycler)
	return multierr.Append(err, app.Stop(context.Background()))
}
