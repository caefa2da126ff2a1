package wallpaperlib

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
	"go.uber.org/zap"
)

var ErrInvalidImage = errors.New("image rejected")

type Thresholds struct {
	MinWidth  int
	MinHeight int
	// Bounds on width/height, both inclusive
	MinAspect float64
	MaxAspect float64
}

func DefaultThresholds() Thresholds {
	return Thresholds{MinWidth: 800, MinHeight: 600, MinAspect: 0.7, MaxAspect: 3.0}
}

// Check returns an error wrapping ErrInvalidImage when a width x height
// image is too small or too oddly shaped to be a wallpaper.
func (t Thresholds) Check(width, height int) error {
	if width < t.MinWidth || height < t.MinHeight {
		return fmt.Errorf("%w: %dx%d is smaller than %dx%d",
			ErrInvalidImage, width, height, t.MinWidth, t.MinHeight)
	}

	aspect := float64(width) / float64(height)
	if aspect < t.MinAspect || aspect > t.MaxAspect {
		return fmt.Errorf("%w: aspect ratio %.2f is outside [%g, %g]",
			ErrInvalidImage, aspect, t.MinAspect, t.MaxAspect)
	}
	return nil
}

type Candidate struct {
	Path   string
	Width  int
	Height int
	Valid  bool
}

type cachedCandidate struct {
	modTime time.Time
	size    int64
	Candidate
}

// Validator measures candidate images and remembers the verdict until the
// file changes.
type Validator struct {
	log        *zap.Logger
	runner     Runner
	identify   string
	thresholds Thresholds
	// The native compositor rotates JPEGs by their EXIF orientation
	autoOrient bool
	cache      map[string]cachedCandidate
}

func NewValidator(c *Config, r Runner, log *zap.Logger) *Validator {
	return &Validator{
		log:        log,
		runner:     r,
		identify:   c.Identify,
		thresholds: c.Thresholds(),
		autoOrient: c.Compositor == CompositorNative,
		cache:      make(map[string]cachedCandidate),
	}
}

func (v *Validator) Inspect(ctx context.Context, path string) (Candidate, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return Candidate{Path: path}, err
	}
	if !fi.Mode().IsRegular() {
		return Candidate{Path: path},
			fmt.Errorf("input image [%s] is not a regular file", path)
	}

	if cached, ok := v.cache[path]; ok &&
		cached.modTime.Equal(fi.ModTime()) && cached.size == fi.Size() {
		return cached.Candidate, nil
	}

	w, h, format, err := imageSize(ctx, v.runner, v.identify, path)
	if err != nil {
		return Candidate{Path: path}, err
	}
	if v.autoOrient && format == "jpeg" {
		w, h, err = orientedSize(path)
		if err != nil {
			return Candidate{Path: path}, err
		}
	}

	cand := Candidate{Path: path, Width: w, Height: h}
	cand.Valid = v.thresholds.Check(w, h) == nil

	v.cache[path] = cachedCandidate{modTime: fi.ModTime(), size: fi.Size(), Candidate: cand}
	return cand, nil
}

// Accept adapts Inspect for a Picker
func (v *Validator) Accept(ctx context.Context) func(string) bool {
	return func(path string) bool {
		cand, err := v.Inspect(ctx, path)
		if err != nil {
			v.log.Warn("Skipping unreadable wallpaper",
				zap.String("path", path), zap.Error(err))
			return false
		}
		if !cand.Valid {
			v.log.Debug("Skipping wallpaper",
				zap.String("path", path),
				zap.Error(v.thresholds.Check(cand.Width, cand.Height)))
		}
		return cand.Valid
	}
}

// ImageSize returns the dimensions of the image at path. Formats Go can't
// decode are handed to ImageMagick's identify.
func ImageSize(
	ctx context.Context, r Runner, identify, path string) (int, int, error) {
	w, h, _, err := imageSize(ctx, r, identify, path)
	return w, h, err
}

// The format is empty when identify had to be used
func imageSize(
	ctx context.Context, r Runner, identify, path string) (int, int, string, error) {
	in, err := os.Open(path)
	if err != nil {
		return 0, 0, "", err
	}
	defer in.Close()

	// DecodeConfig should be more efficient than imagemagick's identify
	img, format, err := image.DecodeConfig(in)
	if err == nil {
		return img.Width, img.Height, format, nil
	}

	out, idErr := r.Run(ctx, identify, "-format", `%wx%h\n`, path+"[0]")
	if idErr != nil {
		return 0, 0, "", fmt.Errorf(
			"error reading dimensions of [%s]: %v, %w", path, err, idErr)
	}

	w, h, err := parseIdentify(string(out))
	return w, h, "", err
}

// Dimensions after applying EXIF orientation, which DecodeConfig ignores.
// This decodes the whole image.
func orientedSize(path string) (int, int, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return 0, 0, fmt.Errorf("error opening [%s]: %w", path, err)
	}
	b := img.Bounds()
	return b.Dx(), b.Dy(), nil
}

func parseIdentify(out string) (int, int, error) {
	line := strings.TrimSpace(strings.SplitN(strings.TrimSpace(out), "\n", 2)[0])

	parts := strings.Split(line, "x")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("unexpected identify output %q", out)
	}

	w, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("unexpected identify output %q: %w", out, err)
	}
	h, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("unexpected identify output %q: %w", out, err)
	}
	if w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("unexpected identify output %q", out)
	}

	return w, h, nil
}
