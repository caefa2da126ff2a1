package main

import (
	"fmt"

	lib "github.com/awused/multi-monitor-wallpaper/lib"
	"github.com/urfave/cli/v2"
	"go.uber.org/fx"
)

func monitorsCommand() *cli.Command {
	cmd := &cli.Command{}
	cmd.Name = "monitors"
	cmd.Usage = "Print the detected monitors and the size of the combined wallpaper"
	cmd.Action = monitorsAction
	return cmd
}

func monitorsAction(c *cli.Context) error {
	conf, logger := setup(c)
	defer logger.Sync()

	var layout *lib.Layout
	app := newApp(c, conf, logger, fx.Populate(&layout))
	if err := app.Err(); err != nil {
		return err
	}

	fmt.Printf("Found %d monitors:\n", len(layout.Monitors))
	for _, m := range layout.Monitors {
		fmt.Printf("  %s\n", m)
	}

	left, right, err := layout.Pair()
	if err != nil {
		return err
	}
	t := lib.ComputeTargets(left, right)
	fmt.Printf("Combined wallpaper: %dx%d (%s %dx%d + %s %dx%d)\n",
		t.Width(), t.Height,
		left.Name, t.LeftWidth, t.Height,
		right.Name, t.RightWidth, t.Height)
	return nil
}
