package cmd

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/vidalevel/habits/internal/habits"
	"github.com/vidalevel/habits/internal/nudge"
	"github.com/vidalevel/habits/internal/nudge/resend"
)

var (
	nudgeWindow time.Duration
	nudgeDryRun bool
)

var nudgeCmd = &cobra.Command{
	Use:   "nudge",
	Short: "Send a reminder for habit streaks expiring within a certain window",
	Long: `The "nudge" command emails a reminder through Resend listing every active habit
whose streak lapses within the window. Set nudge.resend_api_key and nudge.email in
config.yaml, or HABITS_RESEND_API_KEY and HABITS_NOTIFY_EMAIL.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		if err := requireSession(a); err != nil {
			return err
		}
		window := cfg.Nudge.Window
		if cmd.Flags().Changed("window") {
			window = nudgeWindow
		}

		var n nudge.Notifier = &resend.ResendNotifier{
			ApiKey: cfg.Nudge.ResendAPIKey,
			Email:  cfg.Nudge.Email,
			From:   cfg.Nudge.From,
		}
		if nudgeDryRun {
			n = printNotifier{cmd}
		}
		return nudge.Nudge(cmd.Context(), a.Habits, n, window)
	},
}

var _ nudge.Querier = (*habits.Repository)(nil)

// printNotifier writes the reminder to stdout instead of sending it.
type printNotifier struct {
	cmd *cobra.Command
}

func (p printNotifier) SendNudge(habits []string, window time.Duration) error {
	p.cmd.Printf("Streaks expiring within %s:\n", window)
	for _, h := range habits {
		p.cmd.Printf("  - %s\n", h)
	}
	return nil
}

func init() {
	nudgeCmd.Flags().DurationVarP(&nudgeWindow, "window", "w", 4*time.Hour, "how far ahead to look for expiring streaks")
	nudgeCmd.Flags().BoolVar(&nudgeDryRun, "dry-run", false, "print the reminder instead of emailing it")
	rootCmd.AddCommand(nudgeCmd)
}
