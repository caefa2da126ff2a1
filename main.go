package main

import (
	"log"
	"os"

	lib "github.com/awused/multi-monitor-wallpaper/lib"
	"github.com/urfave/cli/v2"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

const (
	configFlag = "config"
	debugFlag  = "debug"
)

func main() {
	app := cli.NewApp()
	app.Name = "multi-monitor-wallpaper"
	app.Usage = "Cycle wallpapers spanned across two monitors"
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    configFlag,
			Aliases: []string{"c"},
			Usage:   "TOML config file, instead of searching the usual locations",
		},
		&cli.BoolFlag{
			Name:  debugFlag,
			Usage: "Verbose logging",
		},
	}
	app.Commands = []*cli.Command{
		runCommand(),
		randomCommand(),
		previewCommand(),
		monitorsCommand(),
		quoteCommand(),
		syncCommand(),
		interactiveCommand(),
	}
	app.Action = runAction

	err := app.Run(os.Args)
	checkErr(err)
}

// Only init when necessary
func setup(c *cli.Context) (*lib.Config, *zap.Logger) {
	conf, err := lib.Init(c.String(configFlag))
	checkErr(err)

	logger, err := lib.NewLogger(conf, c.Bool(debugFlag))
	checkErr(err)

	if conf.LoadErr != nil {
		logger.Info("No config file loaded, using defaults", zap.Error(conf.LoadErr))
	}
	return conf, logger
}

func newApp(c *cli.Context, conf *lib.Config, logger *zap.Logger, opts ...fx.Option) *fx.App {
	fxLogger := fx.NopLogger
	if c.Bool(debugFlag) {
		fxLogger = fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.Named("fx")}
		})
	}

	return fx.New(append([]fx.Option{
		fxLogger,
		fx.Supply(conf, logger),
		lib.Module,
	}, opts...)...)
}

func checkErr(err error) {
	if err != nil {
		log.Println(err)
		os.Exit(1)
	}
}
