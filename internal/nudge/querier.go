package nudge

import (
	"context"

	"github.com/vidalevel/habits/pkg/habit"
)

type Querier interface {
	List(ctx context.Context) ([]habit.Habit, error)
}
