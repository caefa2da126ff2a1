package wallpaperlib

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var ErrNoWallpapers = errors.New("no wallpapers found")

// ListOriginals walks dir recursively and returns every regular file with
// one of the given extensions. A missing dir yields ErrNoWallpapers.
func ListOriginals(dir string, extensions []string) ([]string, error) {
	originals := []string{}

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir && errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("%w: [%s] does not exist", ErrNoWallpapers, dir)
			}
			return err
		}

		if !d.Type().IsRegular() {
			return nil
		}

		if hasExtension(path, extensions) {
			originals = append(originals, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(originals)
	return originals, nil
}

func hasExtension(path string, extensions []string) bool {
	lower := strings.ToLower(path)
	for _, ext := range extensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// Returns true if outFile doesn't exist or if inFile was modified more recently
func ShouldProcessImage(inFile, outFile string) (bool, error) {
	ofi, err := os.Stat(outFile)
	if err != nil {
		if os.IsNotExist(err) {
			return true, nil
		}
		return false, err
	}

	ifi, err := os.Stat(inFile)
	if err != nil {
		return false, err
	}

	return ofi.ModTime().Before(ifi.ModTime()), nil
}

func getMonitorCacheDirectory(cache string, width, height int) string {
	return filepath.Join(cache, fmt.Sprintf("%dx%d", width, height))
}

// GetCacheImagePath is where the crop of original for a width x height
// target is kept
func GetCacheImagePath(cache, original string, width, height int) string {
	return filepath.Join(
		getMonitorCacheDirectory(cache, width, height), hashPath(original)+".png")
}

// Used to avoid collisions when flattening paths into one cache directory
func hashPath(path string) string {
	h := sha256.Sum256([]byte(filepath.ToSlash(path)))
	return hex.EncodeToString(h[:])
}
