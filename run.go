package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	lib "github.com/awused/multi-monitor-wallpaper/lib"
	"github.com/urfave/cli/v2"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const interval = "interval"

func runCommand() *cli.Command {
	cmd := &cli.Command{}
	cmd.Name = "run"
	cmd.Usage = "Change the wallpaper every interval until interrupted"
	cmd.Flags = []cli.Flag{
		&cli.DurationFlag{
			Name:    interval,
			Aliases: []string{"i"},
			Usage:   "Time between wallpapers, overrides Interval from the config",
		},
	}

	cmd.Action = runAction

	return cmd
}

func runAction(c *cli.Context) error {
	conf, logger := setup(c)
	defer logger.Sync()

	every := conf.IntervalDuration()
	if c.IsSet(interval) {
		every = c.Duration(interval)
	}
	if every <= 0 {
		checkErr(cli.Exit("interval must be greater than 0", 1))
	}

	app := newApp(c, conf, logger, fx.Invoke(
		func(lc fx.Lifecycle, cycler *lib.Cycler) {
			registerLoop(lc, cycler, logger, every)
		}))

	ctx, cancel := signal.NotifyContext(
		context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := app.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer stopCancel()
	return app.Stop(stopCtx)
}

func registerLoop(
	lc fx.Lifecycle, cycler *lib.Cycler, logger *zap.Logger, every time.Duration) {
	loopCtx, stop := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			logger.Info("Starting multi-monitor wallpaper cycler",
				zap.Duration("interval", every))
			go func() {
				defer close(done)
				cycler.Run(loopCtx, every)
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("Shutting down wallpaper cycler")
			stop()
			select {
			case <-done:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	})
}
