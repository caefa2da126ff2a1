package wallpaperlib

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Tier records how much of the quote overlay made it onto the wallpaper
type Tier int

const (
	// Quote text on a translucent background
	TierBoxed Tier = iota
	// Quote text alone
	TierPlain
	// No quote
	TierNone
)

func (t Tier) String() string {
	switch t {
	case TierBoxed:
		return "boxed"
	case TierPlain:
		return "plain"
	}
	return "none"
}

type ComposeRequest struct {
	Left    string
	Right   string
	Targets Targets
	// nil skips the overlay
	Quote   *Quote
	Output  string
}

type ComposeResult struct {
	Path string
	Tier Tier
}

// Composer builds the combined wallpaper
type Composer interface {
	Compose(ctx context.Context, req ComposeRequest) (ComposeResult, error)
}

func NewComposer(c *Config, r Runner, log *zap.Logger) (Composer, error) {
	metrics, err := NewFontMetrics(float64(c.PointSize))
	if err != nil {
		return nil, err
	}

	if c.Compositor == CompositorNative {
		return &nativeComposer{
			log:     log,
			cache:   c.CacheDirectory,
			metrics: metrics,
			style:   c.OverlayStyle(),
		}, nil
	}

	return &imageMagickComposer{
		log:       log,
		runner:    r,
		command:   c.ImageMagick,
		magick7:   c.ImageMagick7,
		font:      c.Font,
		pointSize: c.PointSize,
		metrics:   metrics,
		style:     c.OverlayStyle(),
	}, nil
}

type imageMagickComposer struct {
	log       *zap.Logger
	runner    Runner
	command   string
	magick7   bool
	font      string
	pointSize int
	metrics   TextMetrics
	style     OverlayStyle
}

func (c *imageMagickComposer) baseArgs() []string {
	if c.magick7 {
		return []string{"convert"}
	}
	return []string{}
}

// Both images are resized to exactly fit their monitor, ignoring their
// aspect ratios
func (c *imageMagickComposer) combineArgs(req ComposeRequest, out string) []string {
	t := req.Targets
	return append(c.baseArgs(),
		"(", req.Left, "-resize", fmt.Sprintf("%dx%d!", t.LeftWidth, t.Height), ")",
		"(", req.Right, "-resize", fmt.Sprintf("%dx%d!", t.RightWidth, t.Height), ")",
		"+append",
		out)
}

func (c *imageMagickComposer) boxedArgs(in, out string, box OverlayBox) []string {
	return append(c.baseArgs(),
		in,
		"-gravity", "NorthWest",
		"-fill", "rgba(0,0,0,0.4)",
		"-draw", fmt.Sprintf("roundrectangle %d,%d %d,%d 10,10",
			box.X0, box.Y0, box.X1, box.Y1),
		"-fill", "white",
		"-font", c.font,
		"-pointsize", fmt.Sprint(c.pointSize),
		"-annotate", fmt.Sprintf("%+d%+d", box.TextX, box.TextY),
		escapeAnnotation(box.Text()),
		out)
}

func (c *imageMagickComposer) plainArgs(in, out string, q Quote) []string {
	return append(c.baseArgs(),
		in,
		"-gravity", "SouthEast",
		"-fill", "white",
		"-font", c.font,
		"-pointsize", fmt.Sprint(c.pointSize),
		"-annotate", "+50+50",
		escapeAnnotation(FormatQuote(q)),
		out)
}

// ImageMagick expands percent escapes in annotations and reads the text
// from a file when it starts with @
func escapeAnnotation(s string) string {
	s = strings.ReplaceAll(s, "%", "%%")
	if strings.HasPrefix(s, "@") {
		s = `\` + s
	}
	return s
}

func (c *imageMagickComposer) Compose(
	ctx context.Context, req ComposeRequest) (res ComposeResult, err error) {
	temp := filepath.Join(
		filepath.Dir(req.Output), "temp-"+filepath.Base(req.Output))

	defer func() {
		rmErr := os.Remove(temp)
		if rmErr != nil && !os.IsNotExist(rmErr) {
			err = multierr.Append(err, rmErr)
		}
	}()

	_, err = c.runner.Run(ctx, c.command, c.combineArgs(req, temp)...)
	if err != nil {
		return ComposeResult{}, fmt.Errorf("error combining images: %w", err)
	}

	res = ComposeResult{Path: req.Output, Tier: TierNone}

	if req.Quote != nil {
		lines := QuoteLines(*req.Quote, WrapWidth(req.Targets, c.style), c.metrics)
		box := LayoutOverlay(req.Targets, lines, c.metrics, c.style)

		if len(box.Lines) == 0 {
			err = fmt.Errorf("quote does not fit on a %dx%d canvas",
				req.Targets.Width(), req.Targets.Height)
		} else {
			_, err = c.runner.Run(ctx, c.command, c.boxedArgs(temp, req.Output, box)...)
			if err == nil {
				res.Tier = TierBoxed
				return res, nil
			}
		}
		c.log.Warn("Failed to draw quote with background, trying plain text",
			zap.Error(err))

		_, err = c.runner.Run(ctx, c.command, c.plainArgs(temp, req.Output, *req.Quote)...)
		if err == nil {
			res.Tier = TierPlain
			return res, nil
		}
		c.log.Warn("Failed to draw quote, using wallpaper without it",
			zap.Error(err))
	}

	if err = os.Rename(temp, req.Output); err != nil {
		return ComposeResult{}, err
	}
	return res, nil
}
