package wallpaperlib

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

var monitorCacheDirRE = regexp.MustCompile(`^[0-9]+x[0-9]+$`)

// PruneCache deletes cached crops whose original is gone and combined
// wallpapers other than keep. The selection history is left alone.
func PruneCache(
	cacheDir string, originals []string, keep string, log *zap.Logger) (int, error) {
	// An empty listing would mark every cached resize as stale
	if len(originals) == 0 {
		return 0, fmt.Errorf("%w: refusing to prune [%s]", ErrNoWallpapers, cacheDir)
	}

	valid := make(map[string]struct{}, len(originals))
	for _, o := range originals {
		valid[hashPath(o)+".png"] = struct{}{}
	}

	removed := 0
	var errs error

	remove := func(path string) {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			errs = multierr.Append(errs, err)
			return
		}
		log.Debug("Removed stale cache file", zap.String("path", path))
		removed++
	}

	entries, err := os.ReadDir(cacheDir)
	if err != nil {
		return 0, err
	}

	for _, e := range entries {
		path := filepath.Join(cacheDir, e.Name())

		if e.Type().IsRegular() {
			if (isOutputFile(path) && path != keep) ||
				strings.HasPrefix(e.Name(), "temp-"+outputPrefix) {
				remove(path)
			}
			continue
		}

		if !e.IsDir() || !monitorCacheDirRE.MatchString(e.Name()) {
			continue
		}

		err := filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.Type().IsRegular() || filepath.Ext(p) != ".png" {
				return nil
			}
			if _, ok := valid[d.Name()]; !ok {
				remove(p)
			}
			return nil
		})
		errs = multierr.Append(errs, err)
	}

	return removed, errs
}
