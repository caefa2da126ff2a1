package wallpaperlib

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/awused/awconf"
)

const configName = "multi-monitor-wallpaper"

const (
	SourceXrandr = "xrandr"
	SourceRandr  = "randr"

	CompositorImageMagick = "imagemagick"
	CompositorNative      = "native"

	SetterAuto       = "auto"
	SetterGnome      = "gnome"
	SetterXwallpaper = "xwallpaper"
	SetterFeh        = "feh"
)

var defaultQuoteURLs = []string{
	"https://api.quotable.io/random",
	"https://zenquotes.io/api/random",
}

type Config struct {
	WallpaperDirectory  string
	CacheDirectory      string
	LogFile             string
	ImageFileExtensions []string
	Interval            string
	MonitorSource       string
	Display             string
	Compositor          string
	ImageMagick7        bool
	ImageMagick         string
	Identify            string
	Setter              string
	Quotes              *bool
	QuoteURLs           []string
	QuoteTimeout        string
	QuotesFile          string
	Font                string
	PointSize           int
	QuoteMaxWidth       int
	QuotePadding        int
	QuoteMargin         int
	MinWidth            int
	MinHeight           int
	MinAspect           float64
	MaxAspect           float64
	PersistentHistory   bool
	SkipWhenLocked      *bool

	// Set when no config file could be loaded and only defaults apply
	LoadErr error `toml:"-"`

	interval     time.Duration
	quoteTimeout time.Duration
}

// Init loads the config from path, or through awconf when path is empty.
// A missing config file is not an error, the defaults are enough to run.
func Init(path string) (*Config, error) {
	c := &Config{}

	if path != "" {
		if _, err := toml.DecodeFile(path, c); err != nil {
			return nil, fmt.Errorf("error decoding config [%s]: %w", path, err)
		}
	} else if err := awconf.LoadConfig(configName, c); err != nil {
		c = &Config{LoadErr: err}
	}

	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) IntervalDuration() time.Duration {
	return c.interval
}

func (c *Config) QuoteTimeoutDuration() time.Duration {
	return c.quoteTimeout
}

func (c *Config) QuotesEnabled() bool {
	return c.Quotes == nil || *c.Quotes
}

func (c *Config) SkipLocked() bool {
	return c.SkipWhenLocked == nil || *c.SkipWhenLocked
}

func (c *Config) SetSkipWhenLocked(skip bool) {
	c.SkipWhenLocked = &skip
}

func (c *Config) Thresholds() Thresholds {
	return Thresholds{
		MinWidth:  c.MinWidth,
		MinHeight: c.MinHeight,
		MinAspect: c.MinAspect,
		MaxAspect: c.MaxAspect,
	}
}

func (c *Config) OverlayStyle() OverlayStyle {
	return OverlayStyle{
		Padding:  c.QuotePadding,
		Margin:   c.QuoteMargin,
		MaxWidth: c.QuoteMaxWidth,
	}
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return os.ExpandEnv(p)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}

func (c *Config) validate() error {
	if c.WallpaperDirectory == "" {
		c.WallpaperDirectory = "~/.config/variety/Downloaded"
	}
	c.WallpaperDirectory = expandHome(c.WallpaperDirectory)

	// A missing WallpaperDirectory only means there is nothing to cycle yet
	fi, err := os.Stat(c.WallpaperDirectory)
	if err == nil && !fi.IsDir() {
		return fmt.Errorf(
			"WallpaperDirectory [%s] is not a directory", c.WallpaperDirectory)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf(
			"error calling os.Stat on WallpaperDirectory [%s]: %w",
			c.WallpaperDirectory, err)
	}

	if c.CacheDirectory == "" {
		c.CacheDirectory = "~/.cache/multi-monitor-wallpaper"
	}
	c.CacheDirectory = expandHome(c.CacheDirectory)

	if err := os.MkdirAll(c.CacheDirectory, 0755); err != nil {
		return fmt.Errorf(
			"error creating CacheDirectory [%s]: %w", c.CacheDirectory, err)
	}

	if c.LogFile != "" {
		c.LogFile = expandHome(c.LogFile)
	}

	if len(c.ImageFileExtensions) == 0 {
		c.ImageFileExtensions = []string{".jpg", ".jpeg", ".png", ".bmp"}
	}
	for i, ext := range c.ImageFileExtensions {
		ext = strings.ToLower(ext)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		c.ImageFileExtensions[i] = ext
	}

	if c.Interval == "" {
		c.Interval = "60s"
	}
	c.interval, err = time.ParseDuration(c.Interval)
	if err != nil {
		return fmt.Errorf("invalid Interval [%s]: %w", c.Interval, err)
	}
	if c.interval <= 0 {
		return fmt.Errorf("Interval must be greater than 0")
	}

	switch c.MonitorSource {
	case "":
		c.MonitorSource = SourceXrandr
	case SourceXrandr, SourceRandr:
	default:
		return fmt.Errorf("unknown MonitorSource [%s]", c.MonitorSource)
	}

	switch c.Compositor {
	case "":
		c.Compositor = CompositorImageMagick
	case CompositorImageMagick, CompositorNative:
	default:
		return fmt.Errorf("unknown Compositor [%s]", c.Compositor)
	}

	if c.ImageMagick == "" {
		if c.ImageMagick7 {
			c.ImageMagick = "magick"
		} else {
			c.ImageMagick = "convert"
		}
	}

	if c.Identify == "" {
		c.Identify = "identify"
	}

	switch c.Setter {
	case "":
		c.Setter = SetterAuto
	case SetterAuto, SetterGnome, SetterXwallpaper, SetterFeh:
	default:
		return fmt.Errorf("unknown Setter [%s]", c.Setter)
	}

	if c.QuoteURLs == nil {
		c.QuoteURLs = append([]string(nil), defaultQuoteURLs...)
	}

	if c.QuoteTimeout == "" {
		c.QuoteTimeout = "2s"
	}
	c.quoteTimeout, err = time.ParseDuration(c.QuoteTimeout)
	if err != nil {
		return fmt.Errorf("invalid QuoteTimeout [%s]: %w", c.QuoteTimeout, err)
	}

	if c.QuotesFile != "" {
		c.QuotesFile = expandHome(c.QuotesFile)
	}

	if c.Font == "" {
		c.Font = "Ubuntu-Bold"
	}
	if c.PointSize == 0 {
		c.PointSize = 30
	}
	if c.QuoteMaxWidth == 0 {
		c.QuoteMaxWidth = 690
	}
	if c.QuotePadding == 0 {
		c.QuotePadding = 30
	}
	if c.QuoteMargin == 0 {
		c.QuoteMargin = 30
	}
	if c.PointSize < 0 || c.QuoteMaxWidth < 0 || c.QuotePadding < 0 || c.QuoteMargin < 0 {
		return fmt.Errorf("quote layout settings must not be negative")
	}

	d := DefaultThresholds()
	if c.MinWidth == 0 {
		c.MinWidth = d.MinWidth
	}
	if c.MinHeight == 0 {
		c.MinHeight = d.MinHeight
	}
	if c.MinAspect == 0 {
		c.MinAspect = d.MinAspect
	}
	if c.MaxAspect == 0 {
		c.MaxAspect = d.MaxAspect
	}
	if c.MinAspect > c.MaxAspect {
		return fmt.Errorf(
			"MinAspect [%g] is greater than MaxAspect [%g]", c.MinAspect, c.MaxAspect)
	}

	return nil
}
