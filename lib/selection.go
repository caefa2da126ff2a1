package wallpaperlib

import (
	"context"
	"fmt"
	"math/rand"
	"path/filepath"
	"time"

	"github.com/awused/go-strpick/persistent"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Once more than this fraction of the collection has been shown, everything
// becomes eligible again
const resetFraction = 0.8

// Picker chooses up to n distinct wallpapers from all, skipping any that
// accept rejects.
type Picker interface {
	Pick(all []string, n int, accept func(string) bool) ([]string, error)
}

func NewPicker(c *Config, lc fx.Lifecycle, log *zap.Logger) (Picker, error) {
	if !c.PersistentHistory {
		return NewSelector(log, time.Now().UnixNano()), nil
	}

	ps, err := NewPersistentSelector(filepath.Join(c.CacheDirectory, "history"), log)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{OnStop: ps.stop})
	return ps, nil
}

// Selector keeps the set of recently used wallpapers in memory
type Selector struct {
	log  *zap.Logger
	rng  *rand.Rand
	used map[string]struct{}
}

func NewSelector(log *zap.Logger, seed int64) *Selector {
	return &Selector{
		log:  log,
		rng:  rand.New(rand.NewSource(seed)),
		used: make(map[string]struct{}),
	}
}

// Used is the number of wallpapers that won't be picked again until a reset
func (s *Selector) Used() int {
	return len(s.used)
}

func (s *Selector) reset(reason string) {
	s.log.Debug("Resetting used wallpapers",
		zap.String("reason", reason), zap.Int("used", len(s.used)))
	s.used = make(map[string]struct{})
}

func (s *Selector) Pick(
	all []string, n int, accept func(string) bool) ([]string, error) {
	all = dedupe(all)
	if len(all) == 0 {
		return nil, ErrNoWallpapers
	}

	// Forget files that disappeared so they don't count towards the reset
	present := make(map[string]struct{}, len(all))
	for _, p := range all {
		present[p] = struct{}{}
	}
	for p := range s.used {
		if _, ok := present[p]; !ok {
			delete(s.used, p)
		}
	}

	if float64(len(s.used)) > resetFraction*float64(len(all)) {
		s.reset("collection mostly used")
	}

	pool := make([]string, 0, len(all))
	for _, p := range all {
		if _, ok := s.used[p]; !ok {
			pool = append(pool, p)
		}
	}
	if len(pool) < n {
		s.reset("not enough unused wallpapers")
		pool = all
	}

	picked := s.walk(pool, n, accept, nil)
	if len(picked) < n && len(pool) < len(all) {
		// Retry once over everything, previously used wallpapers included
		picked = s.walk(all, n, accept, picked)
	}

	for _, p := range picked {
		s.used[p] = struct{}{}
	}
	return picked, nil
}

func (s *Selector) walk(
	pool []string, n int, accept func(string) bool, picked []string) []string {
	seen := make(map[string]struct{}, len(picked))
	for _, p := range picked {
		seen[p] = struct{}{}
	}

	shuffled := append([]string(nil), pool...)
	s.rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	for _, p := range shuffled {
		if len(picked) >= n {
			break
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}

		if accept != nil && !accept(p) {
			continue
		}
		picked = append(picked, p)
	}
	return picked
}

func dedupe(paths []string) []string {
	seen := make(map[string]struct{}, len(paths))
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

// The parts of persistent.Picker that are used here
type historyDB interface {
	AddAll([]string) error
	Values() ([]string, error)
	SoftRemoveAll([]string) error
	Size() (int, error)
	TryUniqueN(int) ([]string, error)
	CleanDB() error
}

// PersistentSelector remembers which wallpapers were shown across restarts.
// The database lives in the cache directory.
type PersistentSelector struct {
	log   *zap.Logger
	db    historyDB
	close func() error
}

// Each attempt can surface wallpapers that fail validation
const maxPersistentAttempts = 10

func NewPersistentSelector(dir string, log *zap.Logger) (*PersistentSelector, error) {
	picker, err := persistent.NewPicker(dir)
	if err != nil {
		return nil, fmt.Errorf("error opening selection history [%s]: %w", dir, err)
	}

	return &PersistentSelector{
		log:   log,
		db:    picker,
		close: picker.Close,
	}, nil
}

func (p *PersistentSelector) Pick(
	all []string, n int, accept func(string) bool) ([]string, error) {
	all = dedupe(all)
	if err := p.db.AddAll(all); err != nil {
		return nil, err
	}
	if err := p.forgetMissing(all); err != nil {
		return nil, err
	}

	sz, err := p.db.Size()
	if err != nil {
		return nil, err
	}
	if sz == 0 {
		return nil, ErrNoWallpapers
	}

	picked := []string{}
	seen := map[string]struct{}{}

	for i := 0; i < maxPersistentAttempts && len(picked) < n; i++ {
		batch, err := p.db.TryUniqueN(n - len(picked))
		if err != nil {
			return nil, err
		}
		if len(batch) == 0 {
			break
		}

		for _, path := range batch {
			if _, dup := seen[path]; dup {
				continue
			}
			seen[path] = struct{}{}

			if accept == nil || accept(path) {
				picked = append(picked, path)
			}
		}
	}

	if len(picked) < n {
		p.log.Debug("Ran out of usable wallpapers in history",
			zap.Int("wanted", n), zap.Int("picked", len(picked)))
	}
	return picked, nil
}

// Wallpapers deleted since startup would otherwise keep being offered
func (p *PersistentSelector) forgetMissing(all []string) error {
	values, err := p.db.Values()
	if err != nil {
		return err
	}

	present := make(map[string]struct{}, len(all))
	for _, v := range all {
		present[v] = struct{}{}
	}

	missing := []string{}
	for _, v := range values {
		if _, ok := present[v]; !ok {
			missing = append(missing, v)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	p.log.Debug("Forgetting removed wallpapers", zap.Int("count", len(missing)))
	return p.db.SoftRemoveAll(missing)
}

// Clean drops history entries for wallpapers that no longer exist
func (p *PersistentSelector) Clean(all []string) error {
	all = dedupe(all)
	if err := p.db.AddAll(all); err != nil {
		return err
	}
	if err := p.forgetMissing(all); err != nil {
		return err
	}
	return p.db.CleanDB()
}

func (p *PersistentSelector) Close() error {
	return p.close()
}

func (p *PersistentSelector) stop(ctx context.Context) error {
	return p.Close()
}
