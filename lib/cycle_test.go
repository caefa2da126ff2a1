package wallpaperlib

import (
	"context"
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"
)

type fakeComposer struct {
	requests []ComposeRequest
	err      error
}

func (f *fakeComposer) Compose(ctx context.Context, req ComposeRequest) (ComposeResult, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return ComposeResult{}, f.err
	}
	if err := os.WriteFile(req.Output, []byte("combined"), 0644); err != nil {
		return ComposeResult{}, err
	}
	return ComposeResult{Path: req.Output, Tier: TierBoxed}, nil
}

type fakeSpanned struct {
	paths []string
	err   error
	onSet func()
}

func (f *fakeSpanned) SetSpanned(ctx context.Context, path string) error {
	f.paths = append(f.paths, path)
	if f.onSet != nil {
		f.onSet()
	}
	return f.err
}

type fakeDisplay struct {
	calls [][]Monitor
	err   error
}

func (f *fakeDisplay) SetPerDisplay(ctx context.Context, monitors []Monitor) error {
	f.calls = append(f.calls, monitors)
	return f.err
}

type fakeQuotes struct{}

func (fakeQuotes) Get(ctx context.Context) Quote {
	return Quote{Text: "Test quote.", Author: "Tester"}
}

type fakeLock struct {
	locked bool
	err    error
}

func (f fakeLock) Locked(ctx context.Context) (bool, error) {
	return f.locked, f.err
}

var testMonitors = []Monitor{
	{Name: "HDMI-1", Width: 1920, Height: 1080},
	{Name: "DP-1", Width: 2560, Height: 1440, X: 1920},
}

type cyclerFixture struct {
	cycler   *Cycler
	conf     *Config
	composer *fakeComposer
	spanned  *fakeSpanned
	valid    map[string]bool
}

// Three usable wallpapers and one that is too small
func newCyclerFixture(t *testing.T) *cyclerFixture {
	t.Helper()

	walls := t.TempDir()
	f := &cyclerFixture{
		composer: &fakeComposer{},
		spanned:  &fakeSpanned{},
		valid:    map[string]bool{},
	}
	for _, name := range []string{"a.png", "b.png", "c.png"} {
		f.valid[writePNG(t, walls, name, 800, 600, color.Gray{Y: 128})] = true
	}
	writePNG(t, walls, "tiny.png", 64, 64, color.Black)

	f.conf = &Config{WallpaperDirectory: walls, CacheDirectory: t.TempDir()}
	if err := f.conf.validate(); err != nil {
		t.Fatalf("invalid config: %v", err)
	}

	log := zap.NewNop()
	f.cycler = &Cycler{
		log:       log,
		conf:      f.conf,
		layout:    &Layout{Monitors: testMonitors},
		picker:    NewSelector(log, 1),
		validator: NewValidator(f.conf, nil, log),
		quotes:    fakeQuotes{},
		composer:  f.composer,
		setters:   &Setters{Spanned: f.spanned},
		locked:    fakeLock{},
	}
	return f
}

func TestCycleComposesAndSetsSpanned(t *testing.T) {
	f := newCyclerFixture(t)

	for i := 0; i < 5; i++ {
		if err := f.cycler.Cycle(context.Background()); err != nil {
			t.Fatalf("cycle %d: unexpected error: %v", i, err)
		}
	}

	if len(f.composer.requests) != 5 || len(f.spanned.paths) != 5 {
		t.Fatalf("expected 5 compositions, got %d and %d set",
			len(f.composer.requests), len(f.spanned.paths))
	}

	for i, req := range f.composer.requests {
		if req.Left == req.Right {
			t.Errorf("cycle %d used %s on both monitors", i, req.Left)
		}
		if !f.valid[req.Left] || !f.valid[req.Right] {
			t.Errorf("cycle %d used an invalid wallpaper: %s, %s", i, req.Left, req.Right)
		}
		if req.Targets != (Targets{LeftWidth: 1920, RightWidth: 2560, Height: 1080}) {
			t.Errorf("unexpected targets %+v", req.Targets)
		}
		if req.Quote == nil || req.Quote.Author != "Tester" {
			t.Errorf("expected the quote to be passed along, got %+v", req.Quote)
		}
		if filepath.Dir(req.Output) != f.conf.CacheDirectory || !isOutputFile(req.Output) {
			t.Errorf("unexpected output %s", req.Output)
		}
		if f.spanned.paths[i] != req.Output {
			t.Errorf("set %s, expected %s", f.spanned.paths[i], req.Output)
		}
	}
}

func TestCycleSkipsWhenLocked(t *testing.T) {
	f := newCyclerFixture(t)
	f.cycler.locked = fakeLock{locked: true}

	if err := f.cycler.Cycle(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.composer.requests) != 0 {
		t.Error("nothing should be composed while locked")
	}

	f.conf.SetSkipWhenLocked(false)
	if err := f.cycler.Cycle(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.composer.requests) != 1 {
		t.Error("the lock check should be skippable")
	}
}

func TestCycleProceedsWhenLockCheckFails(t *testing.T) {
	f := newCyclerFixture(t)
	f.cycler.locked = fakeLock{err: errors.New("no session bus")}

	if err := f.cycler.Cycle(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.spanned.paths) != 1 {
		t.Error("expected the wallpaper to change")
	}
}

func TestCycleWithoutQuotes(t *testing.T) {
	f := newCyclerFixture(t)
	off := false
	f.conf.Quotes = &off

	if err := f.cycler.Cycle(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.composer.requests[0].Quote != nil {
		t.Error("expected no quote")
	}
}

func TestCycleNeedsTwoMonitors(t *testing.T) {
	f := newCyclerFixture(t)
	f.cycler.layout = &Layout{Monitors: testMonitors[:1]}

	if err := f.cycler.Cycle(context.Background()); !errors.Is(err, ErrNotEnoughMonitors) {
		t.Errorf("expected ErrNotEnoughMonitors, got %v", err)
	}
	if len(f.composer.requests) != 0 {
		t.Error("nothing should be composed")
	}
}

func TestCycleNeedsTwoValidWallpapers(t *testing.T) {
	f := newCyclerFixture(t)
	for p := range f.valid {
		if filepath.Base(p) != "a.png" {
			if err := os.Remove(p); err != nil {
				t.Fatal(err)
			}
		}
	}

	err := f.cycler.Cycle(context.Background())
	if !errors.Is(err, ErrNoWallpapers) {
		t.Errorf("expected ErrNoWallpapers, got %v", err)
	}
	if len(f.composer.requests) != 0 {
		t.Error("nothing should be composed")
	}
}

func TestCycleEmptyDirectory(t *testing.T) {
	f := newCyclerFixture(t)
	f.conf.WallpaperDirectory = t.TempDir()

	if err := f.cycler.Cycle(context.Background()); !errors.Is(err, ErrNoWallpapers) {
		t.Errorf("expected ErrNoWallpapers, got %v", err)
	}
}

func TestCycleCleansUpFailedCompositions(t *testing.T) {
	f := newCyclerFixture(t)
	f.composer.err = errors.New("convert: no space left on device")

	if err := f.cycler.Cycle(context.Background()); err == nil {
		t.Fatal("expected an error")
	}
	if len(f.spanned.paths) != 0 {
		t.Error("nothing should be set")
	}
	if out := f.composer.requests[0].Output; exists(out) {
		t.Errorf("%s was left behind", out)
	}
}

func TestCycleCleansUpWhenSettingFails(t *testing.T) {
	f := newCyclerFixture(t)
	f.spanned.err = errors.New("gsettings: not found")

	if err := f.cycler.Cycle(context.Background()); err == nil {
		t.Fatal("expected an error")
	}
	if out := f.composer.requests[0].Output; exists(out) {
		t.Errorf("%s was left behind", out)
	}
}

func TestCyclePerDisplay(t *testing.T) {
	t.Run("Used when it works", func(t *testing.T) {
		f := newCyclerFixture(t)
		d := &fakeDisplay{}
		f.cycler.setters.Display = d

		if err := f.cycler.Cycle(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(d.calls) != 1 || len(f.composer.requests) != 0 {
			t.Fatalf("expected only the per-display setter, got %d and %d",
				len(d.calls), len(f.composer.requests))
		}

		ms := d.calls[0]
		if len(ms) != 2 || ms[0].Name != "HDMI-1" || ms[1].Name != "DP-1" {
			t.Fatalf("unexpected monitors %+v", ms)
		}
		if ms[0].Wallpaper == ms[1].Wallpaper || !f.valid[ms[0].Wallpaper] || !f.valid[ms[1].Wallpaper] {
			t.Errorf("unexpected wallpapers %s, %s", ms[0].Wallpaper, ms[1].Wallpaper)
		}
	})

	t.Run("Falls back to spanning", func(t *testing.T) {
		f := newCyclerFixture(t)
		d := &fakeDisplay{err: errors.New("xwallpaper: can't open display")}
		f.cycler.setters.Display = d

		if err := f.cycler.Cycle(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(d.calls) != 1 || len(f.spanned.paths) != 1 {
			t.Errorf("expected a failed per-display attempt then a spanned wallpaper")
		}
		if d.calls[0][0].Wallpaper != f.composer.requests[0].Left ||
			d.calls[0][1].Wallpaper != f.composer.requests[0].Right {
			t.Error("the fallback should use the same wallpapers")
		}
	})
}

func TestPreview(t *testing.T) {
	f := newCyclerFixture(t)
	dir := t.TempDir()
	left := writePNG(t, dir, "left.png", 900, 700, color.White)
	// Previews warn about, but still use, images that would not be picked
	right := writePNG(t, dir, "right.png", 100, 100, color.White)

	if err := f.cycler.Preview(context.Background(), left, right); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	req := f.composer.requests[0]
	if req.Left != left || req.Right != right {
		t.Errorf("expected %s and %s, got %s and %s", left, right, req.Left, req.Right)
	}

	if err := f.cycler.Preview(context.Background(), left, filepath.Join(dir, "missing.png")); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestRunStopsWithContext(t *testing.T) {
	f := newCyclerFixture(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.spanned.onSet = func() {
		if len(f.spanned.paths) == 2 {
			cancel()
		}
	}

	done := make(chan struct{})
	go func() {
		f.cycler.Run(ctx, 10*time.Millisecond)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after the context was cancelled")
	}
	if len(f.spanned.paths) != 2 {
		t.Errorf("expected 2 cycles, got %d", len(f.spanned.paths))
	}
}

func TestNewCyclerWithoutQuotes(t *testing.T) {
	c := NewCycler(CyclerParams{Log: zap.NewNop(), Quotes: nil})
	if c.quotes != nil {
		t.Error("a nil QuoteSource should leave quotes unset")
	}
}
