package wallpaperlib

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/ewmh"
	"go.uber.org/zap"
)

type environment int

const (
	unknown environment = iota
	gnome
	other
)

func (e environment) String() string {
	switch e {
	case gnome:
		return "gnome"
	case other:
		return "other"
	}
	return "unknown"
}

func quietX() {
	// Stop polluting stdout
	xgb.Logger.SetOutput(io.Discard)
	xgbutil.Logger.SetOutput(io.Discard)
}

// Queries RandR directly instead of parsing xrandr
type randrDetector struct {
	// Empty means $DISPLAY
	display string
	log     *zap.Logger
}

func (d *randrDetector) Monitors(ctx context.Context) ([]Monitor, error) {
	quietX()

	X, err := xgbutil.NewConnDisplay(d.display)
	if err != nil {
		return nil, fmt.Errorf("error connecting to X display: %w", err)
	}
	conn := X.Conn()
	defer conn.Close()

	if err = randr.Init(conn); err != nil {
		return nil, fmt.Errorf("randr init failed: %w", err)
	}

	root := xproto.Setup(conn).DefaultScreen(conn).Root

	resources, err := randr.GetScreenResources(conn, root).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get screen resources: %w", err)
	}

	monitors := []Monitor{}
	for _, output := range resources.Outputs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		info, err := randr.GetOutputInfo(
			conn, output, resources.ConfigTimestamp).Reply()
		if err != nil {
			return nil, err
		}

		if info.Connection != randr.ConnectionConnected || info.Crtc == 0 {
			continue
		}

		crtc, err := randr.GetCrtcInfo(
			conn, info.Crtc, resources.ConfigTimestamp).Reply()
		if err != nil {
			return nil, err
		}

		if crtc.Width == 0 || crtc.Height == 0 {
			continue
		}

		monitors = append(monitors, Monitor{
			Name:   string(info.Name),
			X:      int(crtc.X),
			Y:      int(crtc.Y),
			Width:  int(crtc.Width),
			Height: int(crtc.Height),
		})
	}

	return monitors, nil
}

func windowManagerName(display string) (string, error) {
	quietX()

	X, err := xgbutil.NewConnDisplay(display)
	if err != nil {
		return "", err
	}
	defer X.Conn().Close()

	return ewmh.GetEwmhWM(X)
}

// Prefers the session's own description and only asks the window manager
// when that is missing.
func detectEnvironment(display string, log *zap.Logger) environment {
	desktop := strings.ToLower(
		os.Getenv("XDG_CURRENT_DESKTOP") + ":" + os.Getenv("DESKTOP_SESSION"))
	if strings.Contains(desktop, "gnome") || strings.Contains(desktop, "ubuntu") {
		return gnome
	}
	if desktop != ":" {
		return other
	}

	wm, err := windowManagerName(display)
	if err != nil {
		log.Debug("Could not read window manager name", zap.Error(err))
		return unknown
	}

	wm = strings.ToLower(wm)
	// Mutter identifies itself as "GNOME Shell"
	if strings.Contains(wm, "gnome") || strings.Contains(wm, "mutter") {
		return gnome
	}

	log.Info("Encountered non-GNOME WM/DE", zap.String("wm", wm))
	return other
}
