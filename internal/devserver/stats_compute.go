package devserver

import (
	"slices"
	"time"

	"github.com/vidalevel/habits/pkg/habit"
)

const pointsPerLevel = 100

// computeStreaks works on UTC calendar days. A streak is still current when
// its last day is today or yesterday.
func computeStreaks(completions []time.Time, now time.Time) (current, longest int) {
	const daySec int64 = 24 * 60 * 60

	uniq := make(map[int64]struct{}, len(completions))
	for _, c := range completions {
		uniq[c.UTC().Unix()/daySec] = struct{}{}
	}
	if len(uniq) == 0 {
		return 0, 0
	}

	days := make([]int64, 0, len(uniq))
	for d := range uniq {
		days = append(days, d)
	}
	slices.Sort(days)
	slices.Reverse(days)

	today := now.UTC().Unix() / daySec
	streakOngoing := days[0] == today || days[0] == today-1
	longest = 1
	run := 1
	if streakOngoing {
		current = 1
	}

	for i := 0; i < len(days)-1; i++ {
		if days[i]-days[i+1] == 1 {
			run++
			longest = max(longest, run)
			if streakOngoing {
				current++
			}
		} else {
			run = 1
			streakOngoing = false
		}
	}
	return current, longest
}

// view fills the derived fields of a stored habit.
func view(r habitRecord, now time.Time) habit.Habit {
	h := r.Habit
	h.Streak, h.BestStreak = computeStreaks(r.completions, now)
	h.TotalCompletions = len(r.completions)
	h.LastCompletedAt = nil
	if len(r.completions) > 0 {
		last := slices.MaxFunc(r.completions, func(a, b time.Time) int { return a.Compare(b) })
		h.LastCompletedAt = &last
	}
	return h
}

// computeStats derives a user's totals. Every completion earns the habit's
// points; a level spans pointsPerLevel points.
func computeStats(records []habitRecord, now time.Time) habit.Stats {
	var s habit.Stats
	for _, r := range records {
		_, longest := computeStreaks(r.completions, now)
		s.LongestStreak = max(s.LongestStreak, longest)
		s.TotalHabitsCompleted += len(r.completions)
		s.TotalPoints += len(r.completions) * r.Points
	}
	s.Level = s.TotalPoints/pointsPerLevel + 1
	s.CurrentExp = s.TotalPoints % pointsPerLevel
	s.ExpToNextLevel = pointsPerLevel - s.CurrentExp
	s.Achievements = []string{}
	for _, a := range habit.Achievements {
		if a.Condition(s) {
			s.Achievements = append(s.Achievements, a.ID)
		}
	}
	return s
}
