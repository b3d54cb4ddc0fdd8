// Package stats mirrors the server-derived statistics of the current user and
// refreshes them when other components signal a change.
package stats

import (
	"context"
	"fmt"
	"sync"

	"github.com/vidalevel/habits/internal/events"
	"github.com/vidalevel/habits/internal/logger"
	"github.com/vidalevel/habits/internal/notify"
	"github.com/vidalevel/habits/pkg/habit"
)

type API interface {
	GetMyStats(ctx context.Context) (*habit.Stats, error)
}

type Session interface {
	IsAuthenticated() bool
}

// View is a catalog achievement annotated for the current stats. Unlocked
// reflects the server's list; Eligible is the local predicate.
type View struct {
	habit.Achievement
	Unlocked bool
	Eligible bool
}

type Aggregator struct {
	api     API
	session Session
	bus     *events.Bus
	notify  notify.Notifier

	mu      sync.RWMutex
	stats   *habit.Stats
	loading bool
	err     error
	gen     uint64
	// announced holds achievement ids already reported as newly unlocked.
	announced map[string]bool
	// refreshed counts completed refreshes; changed is closed and replaced
	// after each one.
	refreshed uint64
	changed   chan struct{}
}

func New(api API, session Session, bus *events.Bus, n notify.Notifier) *Aggregator {
	if n == nil {
		n = notify.Discard
	}
	return &Aggregator{
		api:       api,
		session:   session,
		bus:       bus,
		notify:    n,
		announced: map[string]bool{},
		changed:   make(chan struct{}),
	}
}

// Close detaches the aggregator; responses still in flight are discarded.
func (a *Aggregator) Close() {
	a.mu.Lock()
	a.gen++
	a.mu.Unlock()
}

// Refresh fetches the stats. Without a session the stats are cleared and no
// request is made. On failure the previous value is kept.
func (a *Aggregator) Refresh(ctx context.Context) error {
	a.mu.Lock()
	gen := a.gen
	if !a.session.IsAuthenticated() {
		a.stats = nil
		a.err = nil
		a.announced = map[string]bool{}
		a.markRefreshed()
		a.mu.Unlock()
		return nil
	}
	a.loading = true
	a.err = nil
	a.mu.Unlock()

	s, err := a.api.GetMyStats(ctx)

	a.mu.Lock()
	if a.gen != gen {
		a.mu.Unlock()
		logger.DebugContext(ctx, "Dropping stats response after close")
		return nil
	}
	a.loading = false
	if err != nil {
		a.err = err
		a.markRefreshed()
		a.mu.Unlock()
		logger.WarnContext(ctx, "Failed to load stats", "error", err)
		a.notify.Error("Failed to load statistics: " + err.Error())
		return err
	}
	a.stats = s
	fresh := a.newlyEligible()
	a.markRefreshed()
	a.mu.Unlock()

	logger.DebugContext(ctx, "Stats refreshed", "level", s.Level, "points", s.TotalPoints)
	for _, ach := range fresh {
		a.notify.Success(fmt.Sprintf("%s Achievement unlocked: %s!", ach.Icon, ach.Name))
	}
	return nil
}

// markRefreshed wakes WaitRefresh callers. Caller holds a.mu.
func (a *Aggregator) markRefreshed() {
	a.refreshed++
	close(a.changed)
	a.changed = make(chan struct{})
}

// Refreshes returns how many refreshes have completed, successful or not.
// Responses dropped after Close are not counted.
func (a *Aggregator) Refreshes() uint64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.refreshed
}

// WaitRefresh blocks until more than n refreshes have completed or ctx is
// done.
func (a *Aggregator) WaitRefresh(ctx context.Context, n uint64) error {
	for {
		a.mu.RLock()
		done, ch := a.refreshed > n, a.changed
		a.mu.RUnlock()
		if done {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ch:
		}
	}
}

// newlyEligible returns achievements whose predicate holds but which the
// server has not listed yet, each reported once. Caller holds a.mu.
func (a *Aggregator) newlyEligible() []habit.Achievement {
	var out []habit.Achievement
	for _, ach := range habit.Achievements {
		if a.stats.HasAchievement(ach.ID) {
			a.announced[ach.ID] = true
			continue
		}
		if ach.Condition(*a.stats) && !a.announced[ach.ID] {
			a.announced[ach.ID] = true
			out = append(out, ach)
		}
	}
	return out
}

// Run refreshes once and then on every stats.changed or session.changed
// event until ctx is done.
func (a *Aggregator) Run(ctx context.Context) {
	statsCh, cancelStats := a.bus.Subscribe(events.StatsChanged)
	defer cancelStats()
	sessCh, cancelSess := a.bus.Subscribe(events.SessionChanged)
	defer cancelSess()

	_ = a.Refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-statsCh:
		case <-sessCh:
		}
		_ = a.Refresh(ctx)
	}
}

// Stats returns a copy of the last good stats, or nil.
func (a *Aggregator) Stats() *habit.Stats {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.stats == nil {
		return nil
	}
	s := *a.stats
	s.Achievements = append([]string(nil), a.stats.Achievements...)
	return &s
}

func (a *Aggregator) Err() error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.err
}

func (a *Aggregator) Loading() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.loading
}

// Achievements maps the catalog against the current stats. It is empty until
// stats have loaded.
func (a *Aggregator) Achievements() []View {
	s := a.Stats()
	if s == nil {
		return []View{}
	}
	out := make([]View, 0, len(habit.Achievements))
	for _, ach := range habit.Achievements {
		out = append(out, View{
			Achievement: ach,
			Unlocked:    s.HasAchievement(ach.ID),
			Eligible:    ach.Condition(*s),
		})
	}
	return out
}

// ExpProgress is the percentage of experience earned towards the next level.
func (a *Aggregator) ExpProgress() float64 {
	s := a.Stats()
	if s == nil {
		return 0
	}
	total := s.CurrentExp + s.ExpToNextLevel
	if total <= 0 {
		return 0
	}
	return float64(s.CurrentExp) / float64(total) * 100
}

func LevelName(level int) string {
	switch {
	case level >= 50:
		return "Legend"
	case level >= 40:
		return "Master"
	case level >= 30:
		return "Expert"
	case level >= 20:
		return "Advanced"
	case level >= 10:
		return "Intermediate"
	case level >= 5:
		return "Beginner"
	default:
		return "Novice"
	}
}
