package nudge

import (
	"context"

	"github.com/vidalevel/habits/pkg/habit"
)

type mockQuerier struct {
	habits []habit.Habit
	err    error
}

func (f *mockQuerier) List(ctx context.Context) ([]habit.Habit, error) {
	return f.habits, f.err
}
