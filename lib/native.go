package wallpaperlib

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// Composes in process, for machines without ImageMagick
type nativeComposer struct {
	log     *zap.Logger
	cache   string
	metrics *FontMetrics
	style   OverlayStyle
}

var quoteBackground = color.NRGBA{R: 0, G: 0, B: 0, A: 102}

const cornerRadius = 10

func (c *nativeComposer) Compose(
	ctx context.Context, req ComposeRequest) (ComposeResult, error) {
	t := req.Targets

	left, err := c.fit(req.Left, t.LeftWidth, t.Height)
	if err != nil {
		return ComposeResult{}, err
	}
	if err = ctx.Err(); err != nil {
		return ComposeResult{}, err
	}
	right, err := c.fit(req.Right, t.RightWidth, t.Height)
	if err != nil {
		return ComposeResult{}, err
	}

	canvas := imaging.New(t.Width(), t.Height, color.Black)
	canvas = imaging.Paste(canvas, left, image.Pt(0, 0))
	canvas = imaging.Paste(canvas, right, image.Pt(t.LeftWidth, 0))

	res := ComposeResult{Path: req.Output, Tier: TierNone}

	if req.Quote != nil {
		res.Tier, canvas = c.overlay(canvas, t, *req.Quote)
	}

	if err = imaging.Save(canvas, req.Output, imaging.JPEGQuality(95)); err != nil {
		return ComposeResult{}, fmt.Errorf("error saving combined wallpaper: %w", err)
	}
	return res, nil
}

// Forced resize of original to width x height, kept in the cache until the
// original changes
func (c *nativeComposer) fit(original string, width, height int) (image.Image, error) {
	cached := GetCacheImagePath(c.cache, original, width, height)

	doScale, err := ShouldProcessImage(original, cached)
	if err != nil {
		return nil, err
	}

	if !doScale {
		img, err := imaging.Open(cached)
		if err == nil {
			return img, nil
		}
		c.log.Warn("Discarding unreadable cached image",
			zap.String("path", cached), zap.Error(err))
	}

	img, err := imaging.Open(original, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("error opening [%s]: %w", original, err)
	}
	resized := imaging.Resize(img, width, height, imaging.Lanczos)

	if err = os.MkdirAll(filepath.Dir(cached), 0755); err != nil {
		return nil, err
	}
	// The cache is an optimization, failing to write it is not fatal
	if err = imaging.Save(resized, cached); err != nil {
		c.log.Warn("Failed to cache resized image",
			zap.String("path", cached), zap.Error(err))
	}

	return resized, nil
}

// Each tier draws onto its own copy so a failure leaves nothing behind
func (c *nativeComposer) overlay(
	canvas *image.NRGBA, t Targets, q Quote) (Tier, *image.NRGBA) {
	tiers := []struct {
		tier Tier
		draw func(*image.NRGBA) error
	}{
		{TierBoxed, func(dst *image.NRGBA) error { return c.drawBoxed(dst, t, q) }},
		{TierPlain, func(dst *image.NRGBA) error { return c.drawPlain(dst, t, q) }},
	}

	for _, tr := range tiers {
		dst := imaging.Clone(canvas)
		err := tr.draw(dst)
		if err == nil {
			return tr.tier, dst
		}
		c.log.Warn("Failed to draw quote",
			zap.Stringer("tier", tr.tier), zap.Error(err))
	}
	return TierNone, canvas
}

func (c *nativeComposer) drawBoxed(dst *image.NRGBA, t Targets, q Quote) error {
	if c.metrics == nil {
		return errors.New("no font available")
	}

	lines := QuoteLines(q, WrapWidth(t, c.style), c.metrics)
	box := LayoutOverlay(t, lines, c.metrics, c.style)

	r := image.Rect(box.X0, box.Y0, box.X1, box.Y1)
	if r.Empty() || len(box.Lines) == 0 {
		return fmt.Errorf("quote does not fit on a %dx%d canvas", t.Width(), t.Height)
	}
	draw.DrawMask(dst, r, image.NewUniform(quoteBackground), image.Point{},
		&roundedMask{r: r, radius: cornerRadius}, r.Min, draw.Over)

	c.drawLines(dst, box.TextX, box.TextY, box.Lines)
	return nil
}

// Bottom right corner of the canvas, 50 pixels in from both edges
func (c *nativeComposer) drawPlain(dst *image.NRGBA, t Targets, q Quote) error {
	if c.metrics == nil {
		return errors.New("no font available")
	}

	lines := QuoteLines(q, WrapWidth(t, c.style), c.metrics)
	width := 0
	for _, l := range lines {
		if w := c.metrics.Measure(l); w > width {
			width = w
		}
	}

	x := t.Width() - 50 - width
	y := t.Height - 50 - len(lines)*c.metrics.LineHeight()
	if x < 0 || y < 0 {
		return fmt.Errorf("quote does not fit on a %dx%d canvas", t.Width(), t.Height)
	}

	c.drawLines(dst, x, y, lines)
	return nil
}

func (c *nativeComposer) drawLines(dst draw.Image, x, y int, lines []string) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.White,
		Face: c.metrics.Face(),
	}

	lh := c.metrics.LineHeight()
	for i, l := range lines {
		d.Dot = fixed.P(x, y+c.metrics.Ascent()+i*lh)
		d.DrawString(l)
	}
}

type roundedMask struct {
	r      image.Rectangle
	radius int
}

func (m *roundedMask) ColorModel() color.Model {
	return color.AlphaModel
}

func (m *roundedMask) Bounds() image.Rectangle {
	return m.r
}

func (m *roundedMask) At(x, y int) color.Color {
	if !(image.Point{X: x, Y: y}.In(m.r)) {
		return color.Transparent
	}

	cx, cy := x, y
	if x < m.r.Min.X+m.radius {
		cx = m.r.Min.X + m.radius
	} else if x >= m.r.Max.X-m.radius {
		cx = m.r.Max.X - m.radius - 1
	}
	if y < m.r.Min.Y+m.radius {
		cy = m.r.Min.Y + m.radius
	} else if y >= m.r.Max.Y-m.radius {
		cy = m.r.Max.Y - m.radius - 1
	}

	dx, dy := x-cx, y-cy
	if dx*dx+dy*dy > m.radius*m.radius {
		return color.Transparent
	}
	return color.Opaque
}
