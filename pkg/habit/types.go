package habit

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

type User struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Avatar string `json:"avatar,omitempty"`
}

type Habit struct {
	ID               int64      `json:"id,omitempty"`
	Name             string     `json:"name"`
	Description      string     `json:"description"`
	Category         Category   `json:"category"`
	Difficulty       Difficulty `json:"difficulty"`
	Points           int        `json:"points"`
	Icon             string     `json:"icon,omitempty"`
	Color            string     `json:"color,omitempty"`
	Streak           int        `json:"streak"`
	BestStreak       int        `json:"best_streak"`
	TotalCompletions int        `json:"total_completions"`
	IsActive         bool       `json:"is_active"`
	LastCompletedAt  *time.Time `json:"last_completed_at,omitempty"`
}

// wireHabit accepts every field spelling the backend has been seen to emit.
type wireHabit struct {
	ID               int64      `json:"id"`
	Name             string     `json:"name"`
	Description      string     `json:"description"`
	Category         Category   `json:"category"`
	Difficulty       Difficulty `json:"difficulty"`
	Points           int        `json:"points"`
	Icon             string     `json:"icon"`
	Color            string     `json:"color"`
	Streak           *int       `json:"streak"`
	CurrentStreak    *int       `json:"currentStreak"`
	CurrentStreakS   *int       `json:"current_streak"`
	BestStreak       *int       `json:"bestStreak"`
	BestStreakS      *int       `json:"best_streak"`
	TotalCompletions *int       `json:"totalCompletions"`
	TotalCompletionS *int       `json:"total_completions"`
	IsActive         *bool      `json:"isActive"`
	IsActiveS        *bool      `json:"is_active"`
	LastCompletedAt  *time.Time `json:"lastCompletedAt"`
	LastCompletedAtS *time.Time `json:"last_completed_at"`
}

func (h *Habit) UnmarshalJSON(data []byte) error {
	var w wireHabit
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*h = Habit{
		ID:               w.ID,
		Name:             w.Name,
		Description:      w.Description,
		Category:         w.Category,
		Difficulty:       w.Difficulty,
		Points:           w.Points,
		Icon:             w.Icon,
		Color:            w.Color,
		Streak:           firstInt(w.Streak, w.CurrentStreak, w.CurrentStreakS),
		BestStreak:       firstInt(w.BestStreak, w.BestStreakS),
		TotalCompletions: firstInt(w.TotalCompletions, w.TotalCompletionS),
		IsActive:         true,
		LastCompletedAt:  w.LastCompletedAt,
	}
	if w.IsActive != nil {
		h.IsActive = *w.IsActive
	} else if w.IsActiveS != nil {
		h.IsActive = *w.IsActiveS
	}
	if h.LastCompletedAt == nil {
		h.LastCompletedAt = w.LastCompletedAtS
	}
	return nil
}

// Completion is the transient event posted when a habit is done.
type Completion struct {
	HabitID   int64     `json:"habit_id"`
	Notes     string    `json:"notes,omitempty"`
	Timestamp time.Time `json:"-"`
}

type Stats struct {
	Level                int      `json:"level"`
	TotalPoints          int      `json:"total_points"`
	LongestStreak        int      `json:"longest_streak"`
	TotalHabitsCompleted int      `json:"total_habits_completed"`
	Achievements         []string `json:"achievements"`
	CurrentExp           int      `json:"current_exp"`
	ExpToNextLevel       int      `json:"exp_to_next_level"`
}

type wireStats struct {
	Level                 int      `json:"level"`
	TotalPoints           *int     `json:"totalPoints"`
	TotalPointsS          *int     `json:"total_points"`
	LongestStreak         *int     `json:"longestStreak"`
	LongestStreakS        *int     `json:"longest_streak"`
	TotalHabitsCompleted  *int     `json:"totalHabitsCompleted"`
	TotalHabitsCompletedS *int     `json:"total_habits_completed"`
	Achievements          []string `json:"achievements"`
	CurrentExp            *int     `json:"currentExp"`
	CurrentExpS           *int     `json:"current_exp"`
	ExpToNextLevel        *int     `json:"expToNextLevel"`
	ExpToNextLevelS       *int     `json:"exp_to_next_level"`
}

func (s *Stats) UnmarshalJSON(data []byte) error {
	var w wireStats
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*s = Stats{
		Level:                w.Level,
		TotalPoints:          firstInt(w.TotalPoints, w.TotalPointsS),
		LongestStreak:        firstInt(w.LongestStreak, w.LongestStreakS),
		TotalHabitsCompleted: firstInt(w.TotalHabitsCompleted, w.TotalHabitsCompletedS),
		Achievements:         w.Achievements,
		CurrentExp:           firstInt(w.CurrentExp, w.CurrentExpS),
		ExpToNextLevel:       firstInt(w.ExpToNextLevel, w.ExpToNextLevelS),
	}
	return nil
}

// HasAchievement reports whether the server lists id as unlocked.
func (s *Stats) HasAchievement(id string) bool {
	for _, a := range s.Achievements {
		if a == id {
			return true
		}
	}
	return false
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	User        *User  `json:"user"`
}

type RegisterRequest struct {
	Name     string  `json:"name"`
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Avatar   *string `json:"avatar"`
}

type FriendRequest struct {
	ID         int64  `json:"id"`
	SenderID   int64  `json:"sender_id"`
	SenderName string `json:"sender_name,omitempty"`
	ReceiverID int64  `json:"receiver_id"`
	Status     string `json:"status"`
}

type RankingEntry struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Points int    `json:"points"`
}

type Category string

const (
	CategoryHealth       Category = "health"
	CategoryProductivity Category = "productivity"
	CategoryExercise     Category = "exercise"
	CategoryStudy        Category = "study"
	CategorySocial       Category = "social"
	CategoryOther        Category = "other"
)

var Categories = []Category{
	CategoryHealth, CategoryProductivity, CategoryExercise,
	CategoryStudy, CategorySocial, CategoryOther,
}

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

var difficultyPoints = map[Difficulty]int{
	DifficultyEasy:   10,
	DifficultyMedium: 15,
	DifficultyHard:   20,
}

var difficultyAliases = map[string]Difficulty{
	"facil":   DifficultyEasy,
	"medio":   DifficultyMedium,
	"dificil": DifficultyHard,
}

// ParseDifficulty normalises a difficulty tier, accepting the legacy
// Portuguese keys.
func ParseDifficulty(s string) (Difficulty, error) {
	k := strings.ToLower(strings.TrimSpace(s))
	if d, ok := difficultyAliases[k]; ok {
		return d, nil
	}
	d := Difficulty(k)
	if _, ok := difficultyPoints[d]; !ok {
		return "", fmt.Errorf("unknown difficulty %q: must be easy, medium or hard", s)
	}
	return d, nil
}

// Points returns the points awarded per completion for d.
func (d Difficulty) Points() (int, error) {
	nd, err := ParseDifficulty(string(d))
	if err != nil {
		return 0, err
	}
	return difficultyPoints[nd], nil
}

func firstInt(vals ...*int) int {
	for _, v := range vals {
		if v != nil {
			return *v
		}
	}
	return 0
}
