package habits

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/vidalevel/habits/internal/events"
	"github.com/vidalevel/habits/pkg/habit"
)

type mockSession struct {
	authed bool
}

func (s *mockSession) IsAuthenticated() bool { return s.authed }

// mockAPI is a tiny in-memory backend. deleteGate, when set, blocks
// DeleteHabit until it is closed.
type mockAPI struct {
	mu         sync.Mutex
	habits     []habit.Habit
	nextID     int64
	calls      int
	deleteGate chan struct{}
	deleteErr  error
	listErr    error
	completed  []habit.Completion
	updates    map[int64]map[string]any
}

func (f *mockAPI) ListHabits(ctx context.Context) ([]habit.Habit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]habit.Habit(nil), f.habits...), nil
}

func (f *mockAPI) CreateHabit(ctx context.Context, h habit.Habit) (*habit.Habit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.nextID++
	h.ID = f.nextID
	f.habits = append([]habit.Habit{h}, f.habits...)
	return &h, nil
}

func (f *mockAPI) UpdateHabit(ctx context.Context, id int64, fields map[string]any) (*habit.Habit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.updates == nil {
		f.updates = map[int64]map[string]any{}
	}
	f.updates[id] = fields
	for i := range f.habits {
		if f.habits[i].ID == id {
			if v, ok := fields["is_active"].(bool); ok {
				f.habits[i].IsActive = v
			}
			if v, ok := fields["name"].(string); ok {
				f.habits[i].Name = v
			}
			h := f.habits[i]
			return &h, nil
		}
	}
	return nil, errors.New("not found")
}

func (f *mockAPI) DeleteHabit(ctx context.Context, id int64) error {
	f.mu.Lock()
	f.calls++
	gate := f.deleteGate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	out := f.habits[:0]
	for _, h := range f.habits {
		if h.ID != id {
			out = append(out, h)
		}
	}
	f.habits = out
	return nil
}

func (f *mockAPI) CompleteHabit(ctx context.Context, c habit.Completion) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.completed = append(f.completed, c)
	for i := range f.habits {
		if f.habits[i].ID == c.HabitID {
			f.habits[i].Streak++
			f.habits[i].TotalCompletions++
		}
	}
	return nil
}

func (f *mockAPI) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newRepo(authed bool) (*Repository, *mockAPI, *events.Bus) {
	api := &mockAPI{}
	bus := events.New()
	return New(api, &mockSession{authed: authed}, bus, nil), api, bus
}

func TestNoSession_ShortCircuits(t *testing.T) {
	r, api, bus := newRepo(false)
	ch, cancel := bus.Subscribe(events.StatsChanged)
	defer cancel()
	ctx := context.Background()

	list, err := r.List(ctx)
	if err != nil || len(list) != 0 {
		t.Fatalf("List() = %v, %v", list, err)
	}
	if _, err := r.Create(ctx, habit.Habit{Name: "read", Difficulty: "easy"}); !errors.Is(err, ErrAuthRequired) {
		t.Fatalf("Create: %v", err)
	}
	if err := r.Update(ctx, 1, map[string]any{"name": "x"}); !errors.Is(err, ErrAuthRequired) {
		t.Fatalf("Update: %v", err)
	}
	if err := r.Delete(ctx, 1); !errors.Is(err, ErrAuthRequired) {
		t.Fatalf("Delete: %v", err)
	}
	if err := r.Complete(ctx, 1, ""); !errors.Is(err, ErrAuthRequired) {
		t.Fatalf("Complete: %v", err)
	}
	if err := r.ToggleActive(ctx, 1); !errors.Is(err, ErrAuthRequired) {
		t.Fatalf("ToggleActive: %v", err)
	}
	if n := api.callCount(); n != 0 {
		t.Fatalf("expected no backend calls, got %d", n)
	}
	select {
	case <-ch:
		t.Fatal("no stats signal expected")
	default:
	}
}

func TestCreate_SetsPointsAndPrepends(t *testing.T) {
	r, api, _ := newRepo(true)
	ctx := context.Background()
	api.habits = []habit.Habit{{ID: 100, Name: "old", IsActive: true}}
	api.nextID = 100
	if _, err := r.List(ctx); err != nil {
		t.Fatal(err)
	}

	tests := map[habit.Difficulty]int{"easy": 10, "medium": 15, "hard": 20}
	for d, want := range tests {
		created, err := r.Create(ctx, habit.Habit{Name: "h-" + string(d), Difficulty: d, Points: 999})
		if err != nil {
			t.Fatalf("Create(%s): %v", d, err)
		}
		if created.Points != want {
			t.Fatalf("Create(%s) points = %d want %d", d, created.Points, want)
		}
		if got := r.Habits()[0]; got.ID != created.ID {
			t.Fatalf("created habit not first: %+v", r.Habits())
		}
	}

	list, err := r.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if list[len(list)-1].ID != 100 {
		t.Fatalf("expected oldest habit last, got %+v", list)
	}
}

func TestCreate_ThenListShowsCreatedFirst(t *testing.T) {
	r, _, _ := newRepo(true)
	ctx := context.Background()

	created, err := r.Create(ctx, habit.Habit{Name: "read", Difficulty: "medium"})
	if err != nil {
		t.Fatal(err)
	}
	list, err := r.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) == 0 || list[0].ID != created.ID {
		t.Fatalf("got %+v", list)
	}
}

func TestCreate_Validation(t *testing.T) {
	r, api, _ := newRepo(true)
	ctx := context.Background()

	if _, err := r.Create(ctx, habit.Habit{Name: "read", Difficulty: "epic"}); !errors.Is(err, ErrInvalidHabit) {
		t.Fatalf("got %v", err)
	}
	if _, err := r.Create(ctx, habit.Habit{Name: "  ", Difficulty: "easy"}); !errors.Is(err, ErrInvalidHabit) {
		t.Fatalf("got %v", err)
	}
	if api.callCount() != 0 {
		t.Fatal("validation failures must not reach the backend")
	}
}

func TestUpdate_RefreshesList(t *testing.T) {
	r, api, _ := newRepo(true)
	ctx := context.Background()
	api.habits = []habit.Habit{{ID: 1, Name: "read", IsActive: true}}

	if err := r.Update(ctx, 1, map[string]any{"name": "read more"}); err != nil {
		t.Fatal(err)
	}
	h, ok := r.Get(1)
	if !ok || h.Name != "read more" {
		t.Fatalf("mirror not refreshed: %+v", r.Habits())
	}
}

func TestUpdate_DifficultyRecomputesPoints(t *testing.T) {
	r, api, _ := newRepo(true)
	api.habits = []habit.Habit{{ID: 1, Name: "read"}}
	fields := map[string]any{"difficulty": "dificil"}

	if err := r.Update(context.Background(), 1, fields); err != nil {
		t.Fatal(err)
	}
	sent := api.updates[1]
	if sent["difficulty"] != habit.DifficultyHard || sent["points"] != 20 {
		t.Fatalf("sent %v", sent)
	}
	if _, ok := fields["points"]; ok {
		t.Fatal("caller's map must not be modified")
	}
}

func TestDelete_OptimisticBeforeResponse(t *testing.T) {
	r, api, _ := newRepo(true)
	ctx := context.Background()
	api.habits = []habit.Habit{{ID: 1, Name: "a"}, {ID: 2, Name: "b"}}
	if _, err := r.List(ctx); err != nil {
		t.Fatal(err)
	}

	gate := make(chan struct{})
	api.mu.Lock()
	api.deleteGate = gate
	api.mu.Unlock()

	done := make(chan error, 1)
	go func() { done <- r.Delete(ctx, 1) }()

	deadline := time.After(2 * time.Second)
	for {
		if _, ok := r.Get(1); !ok {
			break
		}
		select {
		case <-deadline:
			t.Fatal("habit still in mirror while delete is in flight")
		case <-time.After(5 * time.Millisecond):
		}
	}

	close(gate)
	if err := <-done; err != nil {
		t.Fatal(err)
	}
	if got := r.Habits(); len(got) != 1 || got[0].ID != 2 {
		t.Fatalf("got %+v", got)
	}
}

func TestDelete_FailureReconciles(t *testing.T) {
	r, api, _ := newRepo(true)
	ctx := context.Background()
	api.habits = []habit.Habit{{ID: 1, Name: "a"}}
	if _, err := r.List(ctx); err != nil {
		t.Fatal(err)
	}
	api.deleteErr = errors.New("boom")

	if err := r.Delete(ctx, 1); err == nil {
		t.Fatal("expected error")
	}
	if _, ok := r.Get(1); !ok {
		t.Fatal("expected habit restored by reconcile")
	}
}

func TestComplete_PublishesOnce(t *testing.T) {
	r, api, bus := newRepo(true)
	ctx := context.Background()
	api.habits = []habit.Habit{{ID: 1, Name: "a"}}
	ch, cancel := bus.Subscribe(events.StatsChanged)
	defer cancel()

	if err := r.Complete(ctx, 1, "  nice  "); err != nil {
		t.Fatal(err)
	}

	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("no stats signal")
	}
	select {
	case <-ch:
		t.Fatal("expected exactly one stats signal")
	default:
	}

	if len(api.completed) != 1 || api.completed[0].Notes != "nice" {
		t.Fatalf("got completions %+v", api.completed)
	}
	if h, _ := r.Get(1); h.Streak != 1 {
		t.Fatalf("mirror not refreshed after completion: %+v", h)
	}
}

func TestComplete_RequiresID(t *testing.T) {
	r, api, _ := newRepo(true)
	if err := r.Complete(context.Background(), 0, ""); !errors.Is(err, ErrInvalidHabit) {
		t.Fatalf("got %v", err)
	}
	if api.callCount() != 0 {
		t.Fatal("no request expected")
	}
}

func TestList_FailureKeepsMirror(t *testing.T) {
	r, api, _ := newRepo(true)
	ctx := context.Background()
	api.habits = []habit.Habit{{ID: 1, Name: "a"}}
	if _, err := r.List(ctx); err != nil {
		t.Fatal(err)
	}

	api.listErr = errors.New("offline")
	list, err := r.List(ctx)
	if err == nil {
		t.Fatal("expected error")
	}
	if len(list) != 1 || r.Err() == nil {
		t.Fatalf("got list %+v err %v", list, r.Err())
	}
}

func TestClose_DiscardsLateResponses(t *testing.T) {
	r, api, _ := newRepo(true)
	api.habits = []habit.Habit{{ID: 1, Name: "a"}}
	r.Close()

	if _, err := r.List(context.Background()); err != nil {
		t.Fatal(err)
	}

	// a repository closed mid-flight drops the response
	r2, api2, _ := newRepo(true)
	api2.habits = []habit.Habit{{ID: 1, Name: "a"}}
	gate := make(chan struct{})
	api2.deleteGate = gate
	go func() {
		time.Sleep(10 * time.Millisecond)
		r2.Close()
		close(gate)
	}()
	api2.deleteErr = errors.New("late failure")
	_ = r2.Delete(context.Background(), 1)
	if n := len(r2.Habits()); n != 0 {
		t.Fatalf("closed repository applied a late refresh: %d habits", n)
	}
}

func TestToggleActive(t *testing.T) {
	r, api, _ := newRepo(true)
	ctx := context.Background()
	api.habits = []habit.Habit{{ID: 1, Name: "a", IsActive: true}}
	if _, err := r.List(ctx); err != nil {
		t.Fatal(err)
	}

	if err := r.ToggleActive(ctx, 1); err != nil {
		t.Fatal(err)
	}
	if h, _ := r.Get(1); h.IsActive {
		t.Fatal("expected habit paused")
	}
	if got := r.Active(); len(got) != 0 {
		t.Fatalf("got active %+v", got)
	}
}

func TestViews(t *testing.T) {
	r, api, _ := newRepo(true)
	now := time.Now()
	yesterday := now.Add(-48 * time.Hour)
	api.habits = []habit.Habit{
		{ID: 1, Category: habit.CategoryHealth, IsActive: true, LastCompletedAt: &now},
		{ID: 2, Category: habit.CategoryStudy, IsActive: false, LastCompletedAt: &yesterday},
		{ID: 3, Category: habit.CategoryHealth, IsActive: true},
	}
	if _, err := r.List(context.Background()); err != nil {
		t.Fatal(err)
	}

	if got := r.ByCategory(habit.CategoryHealth); len(got) != 2 {
		t.Fatalf("ByCategory = %+v", got)
	}
	if got := r.ByCategory(""); len(got) != 3 {
		t.Fatalf("ByCategory(\"\") = %+v", got)
	}
	if got := r.Active(); len(got) != 2 {
		t.Fatalf("Active = %+v", got)
	}
	if got := r.CompletedToday(); len(got) != 1 || got[0].ID != 1 {
		t.Fatalf("CompletedToday = %+v", got)
	}
}
