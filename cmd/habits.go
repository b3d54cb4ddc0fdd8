package cmd

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/vidalevel/habits/internal/logger"
	"github.com/vidalevel/habits/pkg/habit"
)

// statsWait bounds how long "done" waits for the stats to catch up.
const statsWait = 5 * time.Second

// Flag variables are per command so each keeps its own default.
var (
	listCategory string
	listActive   bool
	listToday    bool

	addDifficulty  string
	addCategory    string
	addDescription string
	addIcon        string
	addColor       string

	editName        string
	editDescription string
	editCategory    string
	editDifficulty  string
	editIcon        string
	editColor       string

	doneNotes string
)

var habitsCmd = &cobra.Command{
	Use:     "habits",
	Aliases: []string{"h"},
	Short:   "Manage your habits",
}

var habitsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List habits",
	Long:  `The "list" command shows your habits with their current and best streaks.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		if err := requireSession(a); err != nil {
			return err
		}
		if _, err := a.Habits.List(cmd.Context()); err != nil {
			return err
		}

		list := a.Habits.ByCategory(habit.Category(listCategory))
		if listActive {
			list = keep(list, a.Habits.Active())
		}
		if listToday {
			list = keep(list, a.Habits.CompletedToday())
		}
		if len(list) == 0 {
			cmd.Println("No habits yet. Add one with: habits habits add <name>")
			return nil
		}
		printHabits(cmd.OutOrStdout(), list)
		return nil
	},
}

var habitsAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Create a habit",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		created, err := a.Habits.Create(cmd.Context(), habit.Habit{
			Name:        args[0],
			Description: addDescription,
			Category:    habit.Category(addCategory),
			Difficulty:  habit.Difficulty(addDifficulty),
			Icon:        addIcon,
			Color:       addColor,
		})
		if err != nil {
			return err
		}
		cmd.Printf("%d\t%s (%s, %d points)\n", created.ID, created.Name, created.Difficulty, created.Points)
		return nil
	},
}

var habitsEditCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Change fields of a habit",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		fields := map[string]any{}
		flags := cmd.Flags()
		set := func(flag, field, value string) {
			if flags.Changed(flag) {
				fields[field] = value
			}
		}
		set("name", "name", editName)
		set("description", "description", editDescription)
		set("category", "category", editCategory)
		set("difficulty", "difficulty", editDifficulty)
		set("icon", "icon", editIcon)
		set("color", "color", editColor)
		if len(fields) == 0 {
			return fmt.Errorf("nothing to change, pass at least one flag")
		}

		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		return a.Habits.Update(cmd.Context(), id, fields)
	},
}

var habitsRmCmd = &cobra.Command{
	Use:     "rm <id>",
	Aliases: []string{"delete"},
	Short:   "Delete a habit",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		return a.Habits.Delete(cmd.Context(), id)
	},
}

var habitsDoneCmd = &cobra.Command{
	Use:   "done <id>",
	Short: "Mark a habit as completed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		if err := a.watchStats(cmd.Context()); err != nil {
			return err
		}
		before := a.Stats.Refreshes()
		if err := a.Habits.Complete(cmd.Context(), id, doneNotes); err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), statsWait)
		defer cancel()
		if err := a.Stats.WaitRefresh(ctx, before); err != nil {
			logger.Warn("Stats did not refresh after completion", "habit_id", id, "error", err)
		} else if s := a.Stats.Stats(); s != nil && a.Stats.Err() == nil {
			cmd.Printf("Level %d, %d points\n", s.Level, s.TotalPoints)
		}
		if h, ok := a.Habits.Get(id); ok {
			cmd.Printf("%s streak: %d\n", h.Name, h.Streak)
		}
		return nil
	},
}

var habitsToggleCmd = &cobra.Command{
	Use:   "toggle <id>",
	Short: "Pause or resume a habit",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		if _, err := a.Habits.List(cmd.Context()); err != nil {
			return err
		}
		return a.Habits.ToggleActive(cmd.Context(), id)
	},
}

func printHabits(out io.Writer, list []habit.Habit) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tDIFFICULTY\tPOINTS\tSTREAK\tBEST\tDONE\tACTIVE")
	for _, h := range list {
		fmt.Fprintf(tw, "%d\t%s %s\t%s\t%s\t%d\t%d\t%d\t%d\t%t\n",
			h.ID, h.Icon, h.Name, h.Category, h.Difficulty, h.Points,
			h.Streak, h.BestStreak, h.TotalCompletions, h.IsActive)
	}
	_ = tw.Flush()
}

// keep returns the habits of list that also appear in subset, preserving
// list's order.
func keep(list, subset []habit.Habit) []habit.Habit {
	ids := make(map[int64]bool, len(subset))
	for _, h := range subset {
		ids[h.ID] = true
	}
	out := []habit.Habit{}
	for _, h := range list {
		if ids[h.ID] {
			out = append(out, h)
		}
	}
	return out
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func init() {
	habitsListCmd.Flags().StringVarP(&listCategory, "category", "c", "", "only show this category")
	habitsListCmd.Flags().BoolVar(&listActive, "active", false, "only show active habits")
	habitsListCmd.Flags().BoolVar(&listToday, "today", false, "only show habits completed today")

	habitsAddCmd.Flags().StringVarP(&addDifficulty, "difficulty", "d", string(habit.DifficultyEasy), "easy, medium or hard")
	habitsAddCmd.Flags().StringVarP(&addCategory, "category", "c", string(habit.CategoryOther), "health, productivity, exercise, study, social or other")
	habitsAddCmd.Flags().StringVar(&addDescription, "description", "", "what the habit is about")
	habitsAddCmd.Flags().StringVar(&addIcon, "icon", "", "emoji shown next to the name")
	habitsAddCmd.Flags().StringVar(&addColor, "color", "", "display color")

	habitsEditCmd.Flags().StringVar(&editName, "name", "", "new name")
	habitsEditCmd.Flags().StringVar(&editDescription, "description", "", "new description")
	habitsEditCmd.Flags().StringVarP(&editCategory, "category", "c", "", "new category")
	habitsEditCmd.Flags().StringVarP(&editDifficulty, "difficulty", "d", "", "new difficulty")
	habitsEditCmd.Flags().StringVar(&editIcon, "icon", "", "new icon")
	habitsEditCmd.Flags().StringVar(&editColor, "color", "", "new color")

	habitsDoneCmd.Flags().StringVarP(&doneNotes, "notes", "m", "", "optional note for this completion")

	habitsCmd.AddCommand(habitsListCmd, habitsAddCmd, habitsEditCmd, habitsRmCmd, habitsDoneCmd, habitsToggleCmd)
	rootCmd.AddCommand(habitsCmd)
}
