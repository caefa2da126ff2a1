package wallpaperlib

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"
)

var ErrNotEnoughMonitors = errors.New("fewer than two monitors connected")

type Monitor struct {
	Name   string
	Width  int
	Height int
	X      int
	Y      int
	// Only set when handing per-monitor images to a DisplaySetter
	Wallpaper string
}

func (m Monitor) Resolution() string {
	return fmt.Sprintf("%dx%d", m.Width, m.Height)
}

func (m Monitor) String() string {
	return fmt.Sprintf("%s: %s at x=%d", m.Name, m.Resolution(), m.X)
}

// SortMonitors orders monitors left to right
func SortMonitors(monitors []Monitor) {
	sort.SliceStable(monitors, func(i, j int) bool {
		a, b := monitors[i], monitors[j]
		if a.X != b.X {
			return a.X < b.X
		}
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.Name < b.Name
	})
}

// LayoutPair returns the two leftmost monitors, any others are ignored.
// monitors must already be sorted.
func LayoutPair(monitors []Monitor) (Monitor, Monitor, error) {
	if len(monitors) < 2 {
		return Monitor{}, Monitor{}, fmt.Errorf(
			"%w: found %d", ErrNotEnoughMonitors, len(monitors))
	}
	return monitors[0], monitors[1], nil
}

// Targets are the exact sizes each half of the combined wallpaper is forced
// to. Both halves share the left monitor's height.
type Targets struct {
	LeftWidth  int
	RightWidth int
	Height     int
}

func ComputeTargets(left, right Monitor) Targets {
	return Targets{
		LeftWidth:  left.Width,
		RightWidth: right.Width,
		Height:     left.Height,
	}
}

// Width of the combined canvas
func (t Targets) Width() int {
	return t.LeftWidth + t.RightWidth
}

type MonitorDetector interface {
	Monitors(ctx context.Context) ([]Monitor, error)
}

func NewMonitorDetector(c *Config, r Runner, log *zap.Logger) MonitorDetector {
	if c.MonitorSource == SourceRandr {
		return &randrDetector{display: c.Display, log: log}
	}
	return &xrandrDetector{runner: r}
}

// Layout is the monitor arrangement detected once at startup
type Layout struct {
	Monitors []Monitor
}

func (l *Layout) Pair() (Monitor, Monitor, error) {
	return LayoutPair(l.Monitors)
}

// DetectLayout never fails, cycles are skipped while there are too few
// monitors.
func DetectLayout(d MonitorDetector, log *zap.Logger) *Layout {
	ctx, cancel := context.WithTimeout(context.Background(), toolTimeout)
	defer cancel()

	monitors, err := d.Monitors(ctx)
	if err != nil {
		log.Error("Failed to detect monitors", zap.Error(err))
		return &Layout{}
	}
	SortMonitors(monitors)

	log.Info("Detected monitors", zap.Int("count", len(monitors)))
	for _, m := range monitors {
		log.Info("Monitor",
			zap.String("name", m.Name),
			zap.String("resolution", m.Resolution()),
			zap.Int("x", m.X))
	}
	if len(monitors) > 2 {
		log.Warn("Only the two leftmost monitors are used",
			zap.Int("ignored", len(monitors)-2))
	}

	return &Layout{Monitors: monitors}
}
