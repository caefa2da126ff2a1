package wallpaperlib

import (
	"fmt"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/opentype"
)

// TextMetrics measures rendered text in pixels
type TextMetrics interface {
	Measure(s string) int
	LineHeight() int
}

// FontMetrics measures with the bundled Go Bold face. The ImageMagick font
// differs slightly, which the padding absorbs.
type FontMetrics struct {
	face font.Face
}

func NewFontMetrics(pointSize float64) (*FontMetrics, error) {
	f, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("error parsing bundled font: %w", err)
	}

	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    pointSize,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating font face: %w", err)
	}

	return &FontMetrics{face: face}, nil
}

func (m *FontMetrics) Face() font.Face {
	return m.face
}

func (m *FontMetrics) Measure(s string) int {
	return font.MeasureString(m.face, s).Ceil()
}

func (m *FontMetrics) LineHeight() int {
	return m.face.Metrics().Height.Ceil()
}

func (m *FontMetrics) Ascent() int {
	return m.face.Metrics().Ascent.Ceil()
}

// FormatQuote renders q the way it appears on the wallpaper
func FormatQuote(q Quote) string {
	return fmt.Sprintf("\"%s\"\n\n— %s", q.Text, q.Author)
}

// QuoteLines wraps the quote text to maxWidth and keeps the attribution on
// its own line after a blank one.
func QuoteLines(q Quote, maxWidth int, m TextMetrics) []string {
	lines := Wrap("\""+q.Text+"\"", maxWidth, m)
	return append(lines, "", "— "+q.Author)
}

// Wrap greedily breaks text into lines no wider than maxWidth. Words wider
// than maxWidth get a line of their own.
func Wrap(text string, maxWidth int, m TextMetrics) []string {
	lines := []string{}

	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}

		line := words[0]
		for _, w := range words[1:] {
			candidate := line + " " + w
			if m.Measure(candidate) <= maxWidth {
				line = candidate
				continue
			}
			lines = append(lines, line)
			line = w
		}
		lines = append(lines, line)
	}

	return lines
}

type OverlayStyle struct {
	Padding  int
	Margin   int
	MaxWidth int
}

// OverlayBox is the quote background in canvas coordinates, together with
// the top left corner of the text.
type OverlayBox struct {
	X0, Y0 int
	X1, Y1 int
	TextX  int
	TextY  int
	Lines  []string
}

func (b OverlayBox) Text() string {
	return strings.Join(b.Lines, "\n")
}

// WrapWidth is the widest a line may be so the box still fits on the right
// monitor.
func WrapWidth(t Targets, st OverlayStyle) int {
	w := t.RightWidth - 2*st.Margin - 2*st.Padding
	if st.MaxWidth > 0 && st.MaxWidth < w {
		w = st.MaxWidth
	}
	if w < 1 {
		w = 1
	}
	return w
}

// LayoutOverlay sizes a box around lines and anchors it to the bottom right
// of the canvas. The box never leaves the right monitor and lines that don't
// fit vertically are dropped from the end, possibly leaving none.
func LayoutOverlay(
	t Targets, lines []string, m TextMetrics, st OverlayStyle) OverlayBox {
	if lh := m.LineHeight(); lh > 0 {
		fit := (t.Height - 2*st.Margin - 2*st.Padding) / lh
		if fit < 0 {
			fit = 0
		}
		if len(lines) > fit {
			lines = lines[:fit]
		}
	}

	textW := 0
	for _, l := range lines {
		if w := m.Measure(l); w > textW {
			textW = w
		}
	}
	textH := len(lines) * m.LineHeight()

	box := OverlayBox{Lines: lines}

	box.X1 = t.Width() - st.Margin
	box.X0 = box.X1 - textW - 2*st.Padding
	if minX := t.LeftWidth + st.Margin; box.X0 < minX {
		box.X0 = minX
	}
	if box.X1 < box.X0 {
		box.X1 = box.X0
	}

	box.Y1 = t.Height - st.Margin
	box.Y0 = box.Y1 - textH - 2*st.Padding
	if box.Y0 < st.Margin {
		box.Y0 = st.Margin
	}
	if box.Y1 < box.Y0 {
		box.Y1 = box.Y0
	}

	box.TextX = box.X0 + st.Padding
	box.TextY = box.Y0 + st.Padding
	return box
}
