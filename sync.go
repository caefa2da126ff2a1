package main

import (
	"errors"
	"fmt"
	"path/filepath"

	lib "github.com/awused/multi-monitor-wallpaper/lib"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

func syncCommand() *cli.Command {
	cmd := &cli.Command{}
	cmd.Name = "sync"
	cmd.Usage = "Remove stale files from the cache"
	cmd.Description = "Deletes cached crops of wallpapers that no longer exist, " +
		"old combined wallpapers and, with PersistentHistory, forgotten " +
		"history entries"

	cmd.Action = syncAction

	return cmd
}

func syncAction(c *cli.Context) error {
	conf, logger := setup(c)
	defer logger.Sync()

	originals, err := lib.ListOriginals(conf.WallpaperDirectory, conf.ImageFileExtensions)
	if err != nil {
		return skipPrune(logger, err)
	}

	// Never delete what GNOME is currently showing
	runner := lib.NewRunner(logger)
	current, err := lib.NewGnomeSetter(runner, conf.CacheDirectory, logger).Current(c.Context)
	if err != nil {
		logger.Debug("Could not read current wallpaper", zap.Error(err))
	}

	removed, err := lib.PruneCache(conf.CacheDirectory, originals, current, logger)
	if err != nil {
		return skipPrune(logger, err)
	}
	fmt.Printf("Removed %d stale files from %s\n", removed, conf.CacheDirectory)

	if conf.PersistentHistory {
		ps, err := lib.NewPersistentSelector(
			filepath.Join(conf.CacheDirectory, "history"), logger)
		if err != nil {
			return err
		}
		defer ps.Close()

		if err = ps.Clean(originals); err != nil {
			return err
		}
	}

	return nil
}

// An empty or missing wallpaper directory is likely an unmounted drive.
// Pruning then would empty the cache.
func skipPrune(logger *zap.Logger, err error) error {
	if errors.Is(err, lib.ErrNoWallpapers) {
		logger.Warn("Not pruning the cache", zap.Error(err))
		return nil
	}
	return err
}
