package wallpaperlib

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"

	"go.uber.org/zap"
)

func paths(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("/walls/%02d.jpg", i)
	}
	return out
}

func TestSelectorNeverRepeatsWithinAPick(t *testing.T) {
	s := NewSelector(zap.NewNop(), 1)
	all := paths(7)

	for i := 0; i < 50; i++ {
		picked, err := s.Pick(all, 2, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(picked) != 2 {
			t.Fatalf("expected 2 wallpapers, got %v", picked)
		}
		if picked[0] == picked[1] {
			t.Fatalf("picked the same wallpaper twice: %v", picked)
		}
	}
}

func TestSelectorShowsEverythingBeforeReset(t *testing.T) {
	s := NewSelector(zap.NewNop(), 42)
	all := paths(10)

	seen := map[string]int{}
	for i := 0; i < 5; i++ {
		picked, err := s.Pick(all, 2, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, p := range picked {
			seen[p]++
		}
	}

	if len(seen) != 10 {
		t.Errorf("expected all 10 wallpapers after 5 picks, saw %d", len(seen))
	}
	for p, n := range seen {
		if n != 1 {
			t.Errorf("%s was picked %d times", p, n)
		}
	}

	// Everything is used, which is more than 80%
	if _, err := s.Pick(all, 2, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Used() != 2 {
		t.Errorf("expected the used set to reset, it holds %d", s.Used())
	}
}

func TestSelectorResetsWhenPoolTooSmall(t *testing.T) {
	s := NewSelector(zap.NewNop(), 3)
	all := paths(5)

	for i := 0; i < 2; i++ {
		if _, err := s.Pick(all, 2, nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if s.Used() != 4 {
		t.Fatalf("expected 4 used, got %d", s.Used())
	}

	// 4 of 5 is exactly 80%, only one unused wallpaper remains
	picked, err := s.Pick(all, 2, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(picked) != 2 {
		t.Errorf("expected 2 wallpapers, got %v", picked)
	}
	if s.Used() != 2 {
		t.Errorf("expected a reset, used holds %d", s.Used())
	}
}

func TestSelectorRetriesOverUsedWallpapers(t *testing.T) {
	s := NewSelector(zap.NewNop(), 7)
	all := paths(10)
	good := map[string]bool{all[3]: true, all[8]: true}
	accept := func(p string) bool { return good[p] }

	for i := 0; i < 3; i++ {
		picked, err := s.Pick(all, 2, accept)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		sort.Strings(picked)
		if len(picked) != 2 || picked[0] != all[3] || picked[1] != all[8] {
			t.Errorf("pick %d: expected the two acceptable wallpapers, got %v", i, picked)
		}
	}
}

func TestSelectorForgetsRemovedWallpapers(t *testing.T) {
	s := NewSelector(zap.NewNop(), 9)
	all := paths(10)

	picked, err := s.Pick(all, 2, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	remaining := []string{}
	for _, p := range all {
		if p != picked[0] {
			remaining = append(remaining, p)
		}
	}
	if _, err = s.Pick(remaining, 2, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := s.used[picked[0]]; ok {
		t.Errorf("removed wallpaper %s is still marked used", picked[0])
	}
}

func TestSelectorEdgeCases(t *testing.T) {
	tests := []struct {
		name        string
		all         []string
		accept      func(string) bool
		expectedLen int
		expectedErr error
	}{
		{name: "Empty collection", all: nil, expectedErr: ErrNoWallpapers},
		{name: "Single wallpaper", all: []string{"/a.jpg"}, expectedLen: 1},
		{name: "Duplicates collapse", all: []string{"/a.jpg", "/a.jpg"}, expectedLen: 1},
		{
			name:        "Nothing acceptable",
			all:         paths(4),
			accept:      func(string) bool { return false },
			expectedLen: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSelector(zap.NewNop(), 1)
			picked, err := s.Pick(tt.all, 2, tt.accept)
			if tt.expectedErr != nil {
				if !errors.Is(err, tt.expectedErr) {
					t.Errorf("expected %v, got %v", tt.expectedErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(picked) != tt.expectedLen {
				t.Errorf("expected %d wallpapers, got %v", tt.expectedLen, picked)
			}
		})
	}
}

// Serves batches in order when set, otherwise the first n live values
type fakeHistory struct {
	values   []string
	removed  map[string]bool
	batches  [][]string
	cleaned  bool
	closeErr error
}

func (f *fakeHistory) AddAll(p []string) error {
	if f.removed == nil {
		f.removed = map[string]bool{}
	}
	known := map[string]bool{}
	for _, v := range f.values {
		known[v] = true
	}
	for _, v := range p {
		delete(f.removed, v)
		if !known[v] {
			f.values = append(f.values, v)
			known[v] = true
		}
	}
	return nil
}

func (f *fakeHistory) live() []string {
	out := []string{}
	for _, v := range f.values {
		if !f.removed[v] {
			out = append(out, v)
		}
	}
	return out
}

func (f *fakeHistory) Values() ([]string, error) {
	return f.live(), nil
}

func (f *fakeHistory) SoftRemoveAll(p []string) error {
	for _, v := range p {
		f.removed[v] = true
	}
	return nil
}

func (f *fakeHistory) Size() (int, error) {
	return len(f.live()), nil
}

func (f *fakeHistory) TryUniqueN(n int) ([]string, error) {
	if f.batches == nil {
		live := f.live()
		if len(live) > n {
			live = live[:n]
		}
		return live, nil
	}

	if len(f.batches) == 0 {
		return nil, nil
	}
	b := f.batches[0]
	f.batches = f.batches[1:]
	if len(b) > n {
		b = b[:n]
	}
	return b, nil
}

func (f *fakeHistory) CleanDB() error {
	f.cleaned = true
	return nil
}

func newTestPersistent(db *fakeHistory) *PersistentSelector {
	return &PersistentSelector{
		log:   zap.NewNop(),
		db:    db,
		close: func() error { return db.closeErr },
	}
}

func TestPersistentSelectorPick(t *testing.T) {
	db := &fakeHistory{batches: [][]string{
		{"/bad.jpg", "/a.jpg"},
		{"/a.jpg"},
		{"/b.jpg"},
	}}
	ps := newTestPersistent(db)

	picked, err := ps.Pick([]string{"/a.jpg", "/b.jpg", "/bad.jpg"}, 2,
		func(p string) bool { return p != "/bad.jpg" })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(picked) != 2 || picked[0] != "/a.jpg" || picked[1] != "/b.jpg" {
		t.Errorf("expected [/a.jpg /b.jpg], got %v", picked)
	}
}

func TestPersistentSelectorEmpty(t *testing.T) {
	ps := newTestPersistent(&fakeHistory{})
	if _, err := ps.Pick(nil, 2, nil); !errors.Is(err, ErrNoWallpapers) {
		t.Errorf("expected ErrNoWallpapers, got %v", err)
	}
}

func TestPersistentSelectorClean(t *testing.T) {
	db := &fakeHistory{}
	ps := newTestPersistent(db)

	if err := ps.Clean([]string{"/a.jpg", "/a.jpg"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !db.cleaned {
		t.Error("expected CleanDB to be called")
	}
	if len(db.values) != 1 {
		t.Errorf("expected duplicates to be dropped, added %v", db.values)
	}
}

func TestPersistentSelectorForgetsRemovedWallpapers(t *testing.T) {
	db := &fakeHistory{}
	ps := newTestPersistent(db)

	picked, err := ps.Pick([]string{"/c.jpg", "/a.jpg", "/b.jpg"}, 2, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(picked) != 2 || picked[0] != "/c.jpg" {
		t.Fatalf("expected /c.jpg to be offered first, got %v", picked)
	}

	// /c.jpg was deleted between cycles
	for i := 0; i < 3; i++ {
		picked, err = ps.Pick([]string{"/a.jpg", "/b.jpg"}, 2, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(picked) != 2 {
			t.Errorf("expected both remaining wallpapers, got %v", picked)
		}
		for _, p := range picked {
			if p == "/c.jpg" {
				t.Errorf("deleted wallpaper was picked: %v", picked)
			}
		}
	}

	if !db.removed["/c.jpg"] {
		t.Error("expected /c.jpg to be removed from the history")
	}
}

func TestPersistentSelectorCloseError(t *testing.T) {
	db := &fakeHistory{closeErr: errors.New("leveldb: closed")}
	if err := newTestPersistent(db).stop(context.Background()); err == nil {
		t.Error("expected the close error to be returned")
	}
	if err := newTestPersistent(&fakeHistory{}).stop(context.Background()); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
