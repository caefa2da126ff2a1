package wallpaperlib

import (
	"context"

	"github.com/godbus/dbus/v5"
)

// LockChecker reports whether the screen is locked, where changing the
// wallpaper is wasted work
type LockChecker interface {
	Locked(ctx context.Context) (bool, error)
}

type screenSaverChecker struct{}

func NewLockChecker() LockChecker {
	return screenSaverChecker{}
}

func (screenSaverChecker) Locked(ctx context.Context) (bool, error) {
	if err := setDBUSAddress(); err != nil {
		return false, err
	}

	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return false, err
	}
	defer conn.Close()

	var active bool
	err = conn.Object("org.gnome.ScreenSaver", "/org/gnome/ScreenSaver").
		CallWithContext(ctx, "org.gnome.ScreenSaver.GetActive", 0).
		Store(&active)
	if err != nil {
		return false, err
	}
	return active, nil
}
