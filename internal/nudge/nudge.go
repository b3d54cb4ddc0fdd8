// Package nudge reminds the user about habit streaks that are about to
// expire.
package nudge

import (
	"context"
	"fmt"
	"time"

	"github.com/vidalevel/habits/internal/logger"
)

// StreakTTL is how long a streak survives after its last completion.
const StreakTTL = 24 * time.Hour

type Notifier interface {
	SendNudge(habits []string, window time.Duration) error
}

// HabitsExpiringIn returns the names of active habits with a running streak
// that will lapse within window from now.
func HabitsExpiringIn(ctx context.Context, q Querier, window time.Duration) ([]string, error) {
	return habitsExpiringAt(ctx, q, window, time.Now())
}

func habitsExpiringAt(ctx context.Context, q Querier, window time.Duration, now time.Time) ([]string, error) {
	list, err := q.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list habits: %w", err)
	}

	var out []string
	for _, h := range list {
		if !h.IsActive || h.Streak <= 0 || h.LastCompletedAt == nil {
			continue
		}
		left := h.LastCompletedAt.Add(StreakTTL).Sub(now)
		if left > 0 && left <= window {
			logger.DebugContext(ctx, "Streak expiring", "habit_id", h.ID, "name", h.Name, "left", left)
			out = append(out, h.Name)
		}
	}
	return out, nil
}

// Nudge sends a single reminder listing every expiring habit. Nothing is sent
// when no streak is at risk.
func Nudge(ctx context.Context, q Querier, n Notifier, window time.Duration) error {
	names, err := HabitsExpiringIn(ctx, q, window)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		logger.InfoContext(ctx, "No streaks expiring", "window", window)
		return nil
	}
	if err := n.SendNudge(names, window); err != nil {
		return fmt.Errorf("send nudge: %w", err)
	}
	logger.InfoContext(ctx, "Nudge sent", "habits", len(names), "window", window)
	return nil
}
