package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/vidalevel/habits/internal/stats"
)

const progressWidth = 20

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show level, points and streak statistics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		if err := requireSession(a); err != nil {
			return err
		}
		if err := a.watchStats(cmd.Context()); err != nil {
			return err
		}
		if err := a.Stats.Err(); err != nil {
			return err
		}
		s := a.Stats.Stats()
		if s == nil {
			cmd.Println("No statistics available")
			return nil
		}

		pct := a.Stats.ExpProgress()
		cmd.Printf("Level %d (%s)\n", s.Level, stats.LevelName(s.Level))
		cmd.Printf("  [%s] %.0f%%, %d exp to next level\n", progressBar(pct), pct, s.ExpToNextLevel)
		cmd.Printf("Total points:       %d\n", s.TotalPoints)
		cmd.Printf("Longest streak:     %d days\n", s.LongestStreak)
		cmd.Printf("Habits completed:   %d\n", s.TotalHabitsCompleted)
		cmd.Printf("Achievements:       %d\n", len(s.Achievements))
		return nil
	},
}

var achievementsCmd = &cobra.Command{
	Use:   "achievements",
	Short: "List achievements and which ones are unlocked",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		if err := requireSession(a); err != nil {
			return err
		}
		if err := a.watchStats(cmd.Context()); err != nil {
			return err
		}
		if err := a.Stats.Err(); err != nil {
			return err
		}
		for _, v := range a.Stats.Achievements() {
			mark := "  "
			switch {
			case v.Unlocked:
				mark = "✓ "
			case v.Eligible:
				mark = "… "
			}
			cmd.Printf("%s%s %-14s %s\n", mark, v.Icon, v.Name, v.Description)
		}
		return nil
	},
}

func progressBar(pct float64) string {
	filled := int(pct / 100 * progressWidth)
	filled = min(max(filled, 0), progressWidth)
	return strings.Repeat("#", filled) + strings.Repeat("-", progressWidth-filled)
}

func init() {
	rootCmd.AddCommand(statsCmd, achievementsCmd)
}
