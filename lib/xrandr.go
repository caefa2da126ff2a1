package wallpaperlib

import (
	"context"
	"regexp"
	"strconv"
	"strings"
)

// Geometry as printed by xrandr, e.g. 1920x1080+1920+0
var geometryRE = regexp.MustCompile(`^(\d+)x(\d+)\+(-?\d+)\+(-?\d+)$`)

type xrandrDetector struct {
	runner Runner
}

func (d *xrandrDetector) Monitors(ctx context.Context) ([]Monitor, error) {
	out, err := d.runner.Run(ctx, "xrandr", "--query")
	if err != nil {
		return nil, err
	}
	return ParseXrandr(string(out)), nil
}

// ParseXrandr extracts every connected and active output from the output of
// `xrandr --query`, sorted left to right.
func ParseXrandr(output string) []Monitor {
	monitors := []Monitor{}

	for _, line := range strings.Split(output, "\n") {
		if !strings.Contains(line, " connected") ||
			strings.Contains(line, "disconnected") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}

		// Connected but disabled outputs have no geometry and are skipped
		for _, f := range fields[1:] {
			m, ok := parseGeometry(f)
			if !ok {
				continue
			}
			m.Name = fields[0]
			monitors = append(monitors, m)
			break
		}
	}

	SortMonitors(monitors)
	return monitors
}

func parseGeometry(s string) (Monitor, bool) {
	match := geometryRE.FindStringSubmatch(s)
	if match == nil {
		return Monitor{}, false
	}

	// The regex guarantees these are integers; only overflow can fail
	w, err1 := strconv.Atoi(match[1])
	h, err2 := strconv.Atoi(match[2])
	x, err3 := strconv.Atoi(match[3])
	y, err4 := strconv.Atoi(match[4])
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil || w == 0 || h == 0 {
		return Monitor{}, false
	}

	return Monitor{Width: w, Height: h, X: x, Y: y}, true
}
