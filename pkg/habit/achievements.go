package habit

type Achievement struct {
	ID          string
	Icon        string
	Name        string
	Description string
	Condition   func(Stats) bool
}

// Achievements is the static catalog shared by the client and the
// development backend.
var Achievements = []Achievement{
	{
		ID:          "first_habit",
		Icon:        "🎯",
		Name:        "First Step",
		Description: "Complete your first habit",
		Condition:   func(s Stats) bool { return s.TotalHabitsCompleted >= 1 },
	},
	{
		ID:          "streak_7",
		Icon:        "🔥",
		Name:        "Strong Week",
		Description: "Keep a 7 day streak",
		Condition:   func(s Stats) bool { return s.LongestStreak >= 7 },
	},
	{
		ID:          "level_5",
		Icon:        "⭐",
		Name:        "Evolving",
		Description: "Reach level 5",
		Condition:   func(s Stats) bool { return s.Level >= 5 },
	},
	{
		ID:          "points_1000",
		Icon:        "💎",
		Name:        "Millionaire",
		Description: "Collect 1000 points",
		Condition:   func(s Stats) bool { return s.TotalPoints >= 1000 },
	},
	{
		ID:          "habits_50",
		Icon:        "🏆",
		Name:        "Persistent",
		Description: "Complete 50 habits",
		Condition:   func(s Stats) bool { return s.TotalHabitsCompleted >= 50 },
	},
	{
		ID:          "streak_30",
		Icon:        "👑",
		Name:        "Dedicated",
		Description: "Keep a 30 day streak",
		Condition:   func(s Stats) bool { return s.LongestStreak >= 30 },
	},
}
