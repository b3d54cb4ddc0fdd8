// Package habits keeps an in-memory mirror of the current user's habits in
// sync with the backend.
package habits

import (
	"context"
	"errors"
	"maps"
	"strings"
	"sync"
	"time"

	"github.com/vidalevel/habits/internal/events"
	"github.com/vidalevel/habits/internal/logger"
	"github.com/vidalevel/habits/internal/notify"
	"github.com/vidalevel/habits/pkg/habit"
)

var (
	// ErrAuthRequired is returned by every mutating call made without a
	// session. No request is sent.
	ErrAuthRequired = errors.New("you must be logged in")
	ErrInvalidHabit = errors.New("invalid habit")
	ErrClosed       = errors.New("repository closed")
)

type API interface {
	ListHabits(ctx context.Context) ([]habit.Habit, error)
	CreateHabit(ctx context.Context, h habit.Habit) (*habit.Habit, error)
	UpdateHabit(ctx context.Context, id int64, fields map[string]any) (*habit.Habit, error)
	DeleteHabit(ctx context.Context, id int64) error
	CompleteHabit(ctx context.Context, c habit.Completion) error
}

// Session reports whether a usable session exists.
type Session interface {
	IsAuthenticated() bool
}

type Repository struct {
	api     API
	session Session
	bus     *events.Bus
	notify  notify.Notifier

	mu      sync.RWMutex
	habits  []habit.Habit
	loading bool
	err     error
	// gen is bumped by Close; responses to requests issued under an older
	// generation are dropped.
	gen uint64
}

func New(api API, session Session, bus *events.Bus, n notify.Notifier) *Repository {
	if n == nil {
		n = notify.Discard
	}
	return &Repository{api: api, session: session, bus: bus, notify: n}
}

// Close detaches the repository; in-flight responses are discarded.
func (r *Repository) Close() {
	r.mu.Lock()
	r.gen++
	r.mu.Unlock()
}

func (r *Repository) generation() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.gen
}

// apply runs fn under the write lock if gen is still current.
func (r *Repository) apply(gen uint64, fn func()) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.gen != gen {
		return false
	}
	fn()
	return true
}

// List refreshes the mirror from the backend. Without a session it returns
// an empty list and sends nothing. On failure the previous mirror is kept
// and the error is also available from Err.
func (r *Repository) List(ctx context.Context) ([]habit.Habit, error) {
	return r.list(ctx, r.generation())
}

func (r *Repository) list(ctx context.Context, gen uint64) ([]habit.Habit, error) {
	if !r.session.IsAuthenticated() {
		r.apply(gen, func() { r.habits = nil; r.err = nil })
		return []habit.Habit{}, nil
	}

	r.apply(gen, func() { r.loading = true; r.err = nil })

	list, err := r.api.ListHabits(ctx)
	if err != nil {
		logger.WarnContext(ctx, "Failed to list habits", "error", err)
		r.apply(gen, func() { r.loading = false; r.err = err })
		return r.Habits(), err
	}
	if list == nil {
		list = []habit.Habit{}
	}
	if !r.apply(gen, func() { r.loading = false; r.habits = list }) {
		return nil, ErrClosed
	}
	logger.DebugContext(ctx, "Listed habits", "count", len(list))
	return r.Habits(), nil
}

// Create sets points from the difficulty tier and prepends the server's
// record to the mirror.
func (r *Repository) Create(ctx context.Context, h habit.Habit) (*habit.Habit, error) {
	if !r.session.IsAuthenticated() {
		return nil, r.fail(ErrAuthRequired)
	}
	h.Name = strings.TrimSpace(h.Name)
	if h.Name == "" {
		return nil, r.fail(&invalidError{msg: "habit name is required"})
	}
	d, err := habit.ParseDifficulty(string(h.Difficulty))
	if err != nil {
		return nil, r.fail(&invalidError{msg: err.Error()})
	}
	h.Difficulty = d
	h.Points, _ = d.Points()
	h.ID = 0
	h.Streak, h.BestStreak, h.TotalCompletions = 0, 0, 0
	h.IsActive = true
	if h.Category == "" {
		h.Category = habit.CategoryOther
	}

	gen := r.generation()
	created, err := r.api.CreateHabit(ctx, h)
	if err != nil {
		logger.WarnContext(ctx, "Failed to create habit", "name", h.Name, "error", err)
		return nil, r.fail(err)
	}
	if !r.apply(gen, func() {
		r.habits = append([]habit.Habit{*created}, r.habits...)
	}) {
		return nil, ErrClosed
	}
	logger.InfoContext(ctx, "Habit created", "habit_id", created.ID, "name", created.Name)
	r.notify.Success("Habit created")
	return created, nil
}

// Update sends a partial update and then reloads the whole list so derived
// fields come from the server.
func (r *Repository) Update(ctx context.Context, id int64, fields map[string]any) error {
	if !r.session.IsAuthenticated() {
		return r.fail(ErrAuthRequired)
	}
	if id <= 0 {
		return r.fail(&invalidError{msg: "habit id is required"})
	}
	fields = maps.Clone(fields)
	if d, ok := fields["difficulty"]; ok {
		nd, err := habit.ParseDifficulty(toString(d))
		if err != nil {
			return r.fail(&invalidError{msg: err.Error()})
		}
		fields["difficulty"] = nd
		fields["points"], _ = nd.Points()
	}

	gen := r.generation()
	if _, err := r.api.UpdateHabit(ctx, id, fields); err != nil {
		logger.WarnContext(ctx, "Failed to update habit", "habit_id", id, "error", err)
		return r.fail(err)
	}
	logger.InfoContext(ctx, "Habit updated", "habit_id", id)
	r.notify.Success("Habit updated")
	if _, err := r.list(ctx, gen); err != nil {
		logger.WarnContext(ctx, "Refresh after update failed", "habit_id", id, "error", err)
	}
	return nil
}

// ToggleActive pauses or resumes a habit.
func (r *Repository) ToggleActive(ctx context.Context, id int64) error {
	h, ok := r.Get(id)
	if !ok {
		if !r.session.IsAuthenticated() {
			return r.fail(ErrAuthRequired)
		}
		return r.fail(&invalidError{msg: "habit not found"})
	}
	return r.Update(ctx, id, map[string]any{"is_active": !h.IsActive})
}

// Delete drops the habit from the mirror before the request completes. If the
// backend then fails, the list is reloaded to reconcile.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	if !r.session.IsAuthenticated() {
		return r.fail(ErrAuthRequired)
	}
	if id <= 0 {
		return r.fail(&invalidError{msg: "habit id is required"})
	}

	gen := r.generation()
	r.apply(gen, func() {
		out := r.habits[:0:0]
		for _, h := range r.habits {
			if h.ID != id {
				out = append(out, h)
			}
		}
		r.habits = out
	})

	if err := r.api.DeleteHabit(ctx, id); err != nil {
		logger.WarnContext(ctx, "Failed to delete habit, reconciling", "habit_id", id, "error", err)
		if _, lerr := r.list(ctx, gen); lerr != nil {
			logger.WarnContext(ctx, "Reconcile after failed delete failed", "habit_id", id, "error", lerr)
		}
		return r.fail(err)
	}
	logger.InfoContext(ctx, "Habit deleted", "habit_id", id)
	r.notify.Success("Habit removed")
	return nil
}

// Complete records a completion, reloads the list and publishes exactly one
// StatsChanged event. Stats are never touched here.
func (r *Repository) Complete(ctx context.Context, id int64, notes string) error {
	if !r.session.IsAuthenticated() {
		return r.fail(ErrAuthRequired)
	}
	if id <= 0 {
		return r.fail(&invalidError{msg: "habit id is required"})
	}

	gen := r.generation()
	c := habit.Completion{HabitID: id, Notes: strings.TrimSpace(notes), Timestamp: time.Now()}
	if err := r.api.CompleteHabit(ctx, c); err != nil {
		logger.WarnContext(ctx, "Failed to complete habit", "habit_id", id, "error", err)
		return r.fail(err)
	}
	logger.InfoContext(ctx, "Habit completed", "habit_id", id)

	if _, err := r.list(ctx, gen); err != nil {
		logger.WarnContext(ctx, "Refresh after completion failed", "habit_id", id, "error", err)
	}
	if r.bus != nil {
		r.bus.Publish(events.StatsChanged)
	}
	r.notify.Success("Habit completed")
	return nil
}

// Habits returns a copy of the mirror.
func (r *Repository) Habits() []habit.Habit {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]habit.Habit, len(r.habits))
	copy(out, r.habits)
	return out
}

func (r *Repository) Get(id int64) (habit.Habit, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, h := range r.habits {
		if h.ID == id {
			return h, true
		}
	}
	return habit.Habit{}, false
}

// Err returns the error from the last failed List, if any.
func (r *Repository) Err() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.err
}

func (r *Repository) Loading() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loading
}

// ByCategory returns every habit when c is empty.
func (r *Repository) ByCategory(c habit.Category) []habit.Habit {
	if c == "" {
		return r.Habits()
	}
	return r.filter(func(h habit.Habit) bool { return h.Category == c })
}

func (r *Repository) Active() []habit.Habit {
	return r.filter(func(h habit.Habit) bool { return h.IsActive })
}

// CompletedToday uses the local calendar day.
func (r *Repository) CompletedToday() []habit.Habit {
	y, m, d := time.Now().Date()
	return r.filter(func(h habit.Habit) bool {
		if h.LastCompletedAt == nil {
			return false
		}
		hy, hm, hd := h.LastCompletedAt.Local().Date()
		return hy == y && hm == m && hd == d
	})
}

func (r *Repository) filter(keep func(habit.Habit) bool) []habit.Habit {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []habit.Habit{}
	for _, h := range r.habits {
		if keep(h) {
			out = append(out, h)
		}
	}
	return out
}

func (r *Repository) fail(err error) error {
	r.notify.Error(err.Error())
	return err
}

type invalidError struct {
	msg string
}

func (e *invalidError) Error() string { return e.msg }

func (e *invalidError) Is(target error) bool { return target == ErrInvalidHabit }

func toString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case habit.Difficulty:
		return string(t)
	default:
		return ""
	}
}
