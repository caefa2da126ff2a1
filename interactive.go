package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	lib "github.com/awused/multi-monitor-wallpaper/lib"
	prompt "github.com/c-bata/go-prompt"
	"github.com/urfave/cli/v2"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func interactiveCommand() *cli.Command {
	cmd := &cli.Command{}
	cmd.Name = "interactive"
	cmd.Usage = "Change wallpapers on demand from a prompt"

	cmd.Action = interactiveAction

	return cmd
}

type session struct {
	logger *zap.Logger
	cycler *lib.Cycler
	layout *lib.Layout
	quotes *lib.QuoteSource
}

func interactiveAction(c *cli.Context) error {
	conf, logger := setup(c)
	defer logger.Sync()

	s := &session{logger: logger}
	app := newApp(c, conf, logger, fx.Populate(&s.cycler, &s.layout, &s.quotes))
	if err := app.Start(c.Context); err != nil {
		return err
	}
	defer app.Stop(context.Background())

	// Large buffered channel so it doesn't block signals if it's busy
	sigs := make(chan os.Signal, 100)
	promptChan := make(chan struct{}, 1)
	inputChan := make(chan string)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGHUP)
	defer signal.Stop(sigs)

	go func() {
		s.promptUntilDone(c.Context, inputChan)
		promptChan <- struct{}{}
	}()

	for {
		select {
		case <-promptChan:
			return nil
		case <-sigs:
			// We need to make sure we clean up, so consume sigint
			inputChan <- "exit"
		}
	}
}

func completer(d prompt.Document) []prompt.Suggest {
	s := []prompt.Suggest{
		{Text: "next", Description: "Change to a new pair of random wallpapers"},
		{Text: "preview", Description: "Show two specific files: preview LEFT RIGHT"},
		{Text: "quote", Description: "Print a quote"},
		{Text: "monitors", Description: "Print the detected monitors"},
		{Text: "exit", Description: "Exit the program"},
	}
	return prompt.FilterHasPrefix(s, d.TextBeforeCursor(), true)
}

func (s *session) promptUntilDone(ctx context.Context, inputChan chan string) {
	exit := prompt.OptionAddKeyBind(prompt.KeyBind{
		Key: prompt.ControlC,
		Fn: func(b *prompt.Buffer) {
			inputChan <- "exit"
		},
	})

	for {
		go func() {
			// prompt.Input is blocking, synchronous, and provides no way to abort it
			inputChan <- strings.TrimSpace(prompt.Input("> ", completer, exit))
		}()
		in := <-inputChan

		fields := strings.Fields(in)
		if len(fields) == 0 {
			continue
		}

		switch strings.ToLower(fields[0]) {
		case "exit", "quit":
			return
		case "next", "n":
			s.report(s.cycler.Cycle(ctx))
		case "preview", "p":
			if len(fields) != 3 {
				fmt.Println("Usage: preview LEFT RIGHT")
				continue
			}
			s.report(s.cycler.Preview(ctx, fields[1], fields[2]))
		case "quote", "q":
			fmt.Println(lib.FormatQuote(s.quotes.Get(ctx)))
		case "monitors", "m":
			for _, m := range s.layout.Monitors {
				fmt.Println(m)
			}
		default:
			fmt.Println("Unknown command")
		}
	}
}

func (s *session) report(err error) {
	if err != nil {
		fmt.Println("Error:", err)
	}
}
