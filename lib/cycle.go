package wallpaperlib

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

type QuoteGetter interface {
	Get(ctx context.Context) Quote
}

type CyclerParams struct {
	fx.In

	Log       *zap.Logger
	Config    *Config
	Layout    *Layout
	Picker    Picker
	Validator *Validator
	Quotes    *QuoteSource
	Composer  Composer
	Setters   *Setters
	Locked    LockChecker
}

// Cycler changes the wallpaper, once per Cycle
type Cycler struct {
	log       *zap.Logger
	conf      *Config
	layout    *Layout
	picker    Picker
	validator *Validator
	quotes    QuoteGetter
	composer  Composer
	setters   *Setters
	locked    LockChecker
}

func NewCycler(p CyclerParams) *Cycler {
	c := &Cycler{
		log:       p.Log,
		conf:      p.Config,
		layout:    p.Layout,
		picker:    p.Picker,
		validator: p.Validator,
		composer:  p.Composer,
		setters:   p.Setters,
		locked:    p.Locked,
	}
	// Avoid a typed nil in the interface
	if p.Quotes != nil {
		c.quotes = p.Quotes
	}
	return c
}

// Run cycles immediately and then once every interval until ctx is done.
// Failed cycles are logged and leave the current wallpaper in place.
func (c *Cycler) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := c.Cycle(ctx); err != nil && ctx.Err() == nil {
			c.log.Error("Failed to change wallpaper", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (c *Cycler) Cycle(ctx context.Context) error {
	if c.conf.SkipLocked() && c.locked != nil {
		locked, err := c.locked.Locked(ctx)
		if err != nil {
			c.log.Debug("Could not check screen lock", zap.Error(err))
		} else if locked {
			c.log.Info("Screen is locked, skipping")
			return nil
		}
	}

	left, right, err := c.layout.Pair()
	if err != nil {
		return err
	}

	originals, err := ListOriginals(c.conf.WallpaperDirectory, c.conf.ImageFileExtensions)
	if err != nil {
		return err
	}
	if len(originals) == 0 {
		return fmt.Errorf("%w in [%s]", ErrNoWallpapers, c.conf.WallpaperDirectory)
	}

	paths, err := c.picker.Pick(originals, 2, c.validator.Accept(ctx))
	if err != nil {
		return err
	}
	if len(paths) < 2 {
		return fmt.Errorf("%w: only %d usable out of %d",
			ErrNoWallpapers, len(paths), len(originals))
	}

	return c.apply(ctx, left, right, paths[0], paths[1])
}

// Preview shows two specific images, bypassing selection
func (c *Cycler) Preview(ctx context.Context, leftImage, rightImage string) error {
	left, right, err := c.layout.Pair()
	if err != nil {
		return err
	}

	for _, p := range []string{leftImage, rightImage} {
		cand, err := c.validator.Inspect(ctx, p)
		if err != nil {
			return err
		}
		if err = c.conf.Thresholds().Check(cand.Width, cand.Height); err != nil {
			c.log.Warn("Previewing an image that would not be picked",
				zap.String("path", p), zap.Error(err))
		}
	}

	return c.apply(ctx, left, right, leftImage, rightImage)
}

func (c *Cycler) apply(
	ctx context.Context, left, right Monitor, leftImage, rightImage string) error {
	if c.setters.Display != nil {
		left.Wallpaper, right.Wallpaper = leftImage, rightImage

		err := c.setters.Display.SetPerDisplay(ctx, []Monitor{left, right})
		if err == nil {
			c.logApplied(left, right)
			return nil
		}
		c.log.Warn("Per-display wallpaper failed, trying GNOME method", zap.Error(err))
	}

	out, err := NextOutputFile(c.conf.CacheDirectory)
	if err != nil {
		return err
	}

	req := ComposeRequest{
		Left:    leftImage,
		Right:   rightImage,
		Targets: ComputeTargets(left, right),
		Output:  out,
	}
	if c.conf.QuotesEnabled() && c.quotes != nil {
		q := c.quotes.Get(ctx)
		req.Quote = &q
	}

	res, err := c.composer.Compose(ctx, req)
	if err != nil {
		_ = os.Remove(out)
		return fmt.Errorf("error creating combined wallpaper: %w", err)
	}

	if err = c.setters.Spanned.SetSpanned(ctx, res.Path); err != nil {
		_ = os.Remove(out)
		return fmt.Errorf("error setting combined wallpaper: %w", err)
	}

	left.Wallpaper, right.Wallpaper = leftImage, rightImage
	c.log.Info("Set combined wallpaper",
		zap.String("path", res.Path),
		zap.Stringer("quote", res.Tier))
	c.logApplied(left, right)
	return nil
}

func (c *Cycler) logApplied(monitors ...Monitor) {
	for _, m := range monitors {
		c.log.Info("Wallpaper",
			zap.String("monitor", m.Name),
			zap.String("file", filepath.Base(m.Wallpaper)))
	}
}
