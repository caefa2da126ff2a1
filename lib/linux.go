package wallpaperlib

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"syscall"

	"go.uber.org/zap"
)

var sysProcAttr = &syscall.SysProcAttr{}

const dbusAddress = "DBUS_SESSION_BUS_ADDRESS"

// gsettings needs the session bus, which isn't in the environment when run
// from cron or a systemd timer
func setDBUSAddress() error {
	if os.Getenv(dbusAddress) != "" {
		return nil
	}

	// For now just assume we're dealing with per-user dbus sessions
	u, err := user.Current()
	if err != nil {
		return nil
	}
	if u.Uid == "" {
		return errors.New("No $UID set")
	}
	return os.Setenv(dbusAddress, "unix:path=/run/user/"+u.Uid+"/bus")
}

const outputPrefix = "multi-monitor-wallpaper-"

// NextOutputFile reserves a fresh file for the combined wallpaper. GNOME
// ignores a picture-uri that didn't change, so the name changes every cycle.
func NextOutputFile(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("error creating output directory [%s]: %w", dir, err)
	}

	f, err := os.CreateTemp(dir, outputPrefix+"*.jpg")
	if err != nil {
		return "", err
	}
	if err = f.Close(); err != nil {
		return "", err
	}
	return f.Name(), nil
}

func isOutputFile(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, outputPrefix) && strings.HasSuffix(base, ".jpg")
}

// SpannedSetter shows one image stretched across every monitor
type SpannedSetter interface {
	SetSpanned(ctx context.Context, path string) error
}

// DisplaySetter gives each monitor its own image, taken from
// Monitor.Wallpaper
type DisplaySetter interface {
	SetPerDisplay(ctx context.Context, monitors []Monitor) error
}

type Setters struct {
	Spanned SpannedSetter
	// nil when the desktop is driven through Spanned alone
	Display DisplaySetter
}

func NewSetters(c *Config, r Runner, log *zap.Logger) *Setters {
	g := NewGnomeSetter(r, c.CacheDirectory, log)
	s := &Setters{Spanned: g}

	switch c.Setter {
	case SetterGnome:
	case SetterXwallpaper:
		s.Display = &XwallpaperSetter{runner: r}
	case SetterFeh:
		s.Display = &FehSetter{runner: r}
	case SetterAuto:
		env := detectEnvironment(c.Display, log)
		log.Debug("Detected desktop environment", zap.Stringer("env", env))
		if env == gnome {
			break
		}
		if r.LookPath("xwallpaper") {
			s.Display = &XwallpaperSetter{runner: r}
		} else if r.LookPath("feh") {
			s.Display = &FehSetter{runner: r}
		}
	}

	return s
}

type GnomeSetter struct {
	log    *zap.Logger
	runner Runner
	// Previous wallpapers are only removed from here
	outputDir string
}

func NewGnomeSetter(r Runner, outputDir string, log *zap.Logger) *GnomeSetter {
	return &GnomeSetter{log: log, runner: r, outputDir: outputDir}
}

const gnomeBackground = "org.gnome.desktop.background"

// Current returns the path of the wallpaper GNOME is showing
func (g *GnomeSetter) Current(ctx context.Context) (string, error) {
	if err := setDBUSAddress(); err != nil {
		return "", err
	}

	out, err := g.runner.Run(ctx, "gsettings", "get", gnomeBackground, "picture-uri")
	if err != nil {
		return "", err
	}
	return strings.TrimPrefix(strings.Trim(string(out), "'\n "), "file://"), nil
}

func (g *GnomeSetter) SetSpanned(ctx context.Context, path string) error {
	if err := setDBUSAddress(); err != nil {
		return err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	uri := "file://" + abs

	oldWall, err := g.Current(ctx)
	if err != nil {
		g.log.Debug("Could not read current wallpaper", zap.Error(err))
		oldWall = ""
	}

	settings := [][]string{
		{"picture-options", "spanned"},
		{"picture-uri", uri},
		{"picture-uri-dark", uri},
	}
	for _, kv := range settings {
		_, err := g.runner.Run(ctx, "gsettings", "set", gnomeBackground, kv[0], kv[1])
		// Older GNOME releases have no dark variant
		if err != nil && kv[0] != "picture-uri-dark" {
			return err
		}
	}

	// Only remove files we own
	if oldWall != "" && oldWall != abs &&
		filepath.Dir(oldWall) == filepath.Clean(g.outputDir) &&
		isOutputFile(oldWall) {
		// This could have already been removed, bury any errors
		_ = os.Remove(oldWall)
	}

	return nil
}

// XwallpaperSetter zooms each image to fill its output
type XwallpaperSetter struct {
	runner Runner
}

func (x *XwallpaperSetter) SetPerDisplay(ctx context.Context, monitors []Monitor) error {
	args := []string{}
	for _, m := range monitors {
		args = append(args, "--output", m.Name, "--zoom", m.Wallpaper)
	}

	_, err := x.runner.Run(ctx, "xwallpaper", args...)
	return err
}

// FehSetter relies on feh assigning images to monitors in Xinerama order
type FehSetter struct {
	runner Runner
}

func (f *FehSetter) SetPerDisplay(ctx context.Context, monitors []Monitor) error {
	args := []string{"--bg-fill"}
	for _, m := range monitors {
		args = append(args, m.Wallpaper)
	}

	_, err := f.runner.Run(ctx, "feh", args...)
	return err
}
