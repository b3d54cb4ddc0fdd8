package nudge

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vidalevel/habits/pkg/habit"
)

func ago(now time.Time, d time.Duration) *time.Time {
	t := now.Add(-d)
	return &t
}

func TestHabitsExpiringIn(t *testing.T) {
	now := time.Now()
	q := &mockQuerier{habits: []habit.Habit{
		{ID: 1, Name: "guitar", Streak: 3, IsActive: true, LastCompletedAt: ago(now, 23*time.Hour)},
		{ID: 2, Name: "coding", Streak: 0, IsActive: true, LastCompletedAt: ago(now, 23*time.Hour)},
		{ID: 3, Name: "reading", Streak: 5, IsActive: true, LastCompletedAt: ago(now, 2*time.Hour)},
		{ID: 4, Name: "running", Streak: 5, IsActive: false, LastCompletedAt: ago(now, 23*time.Hour)},
		{ID: 5, Name: "lapsed", Streak: 5, IsActive: true, LastCompletedAt: ago(now, 25*time.Hour)},
		{ID: 6, Name: "never", Streak: 1, IsActive: true},
	}}

	got, err := habitsExpiringAt(context.Background(), q, 2*time.Hour, now)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0] != "guitar" {
		t.Fatalf("got %v, want [guitar]", got)
	}
}

func TestNudge_SendsExpiring(t *testing.T) {
	now := time.Now()
	q := &mockQuerier{habits: []habit.Habit{
		{ID: 1, Name: "guitar", Streak: 3, IsActive: true, LastCompletedAt: ago(now, 22*time.Hour)},
	}}
	n := &mockNotifier{}

	if err := Nudge(context.Background(), q, n, 4*time.Hour); err != nil {
		t.Fatal(err)
	}
	if !n.called || len(n.habits) != 1 || n.window != 4*time.Hour {
		t.Fatalf("got %+v", n)
	}
}

func TestNudge_NothingToSend(t *testing.T) {
	n := &mockNotifier{}
	if err := Nudge(context.Background(), &mockQuerier{}, n, time.Hour); err != nil {
		t.Fatal(err)
	}
	if n.called {
		t.Fatal("notifier should not be called")
	}
}

func TestNudge_Errors(t *testing.T) {
	boom := errors.New("boom")
	if err := Nudge(context.Background(), &mockQuerier{err: boom}, &mockNotifier{}, time.Hour); !errors.Is(err, boom) {
		t.Fatalf("got %v", err)
	}

	now := time.Now()
	q := &mockQuerier{habits: []habit.Habit{
		{Name: "guitar", Streak: 3, IsActive: true, LastCompletedAt: ago(now, 23*time.Hour)},
	}}
	if err := Nudge(context.Background(), q, &mockNotifier{err: boom}, 2*time.Hour); !errors.Is(err, boom) {
		t.Fatalf("got %v", err)
	}
}
