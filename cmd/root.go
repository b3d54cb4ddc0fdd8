package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/vidalevel/habits/internal/config"
	"github.com/vidalevel/habits/internal/logger"
)

var (
	cfg      *config.Config
	profile  string
	apiBase  string
	logLevel string

	stdin io.Reader = os.Stdin
)

var rootCmd = &cobra.Command{
	Use:   "habits",
	Short: "Track habits, streaks and achievements",
	Long: `
	Habits is a CLI client for a habit tracking backend. Create habits, mark them done,
	watch your streaks grow, level up and compare points with friends.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup()
	},
}

func setup() error {
	c, err := config.Load()
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}
	if apiBase != "" {
		c.APIBaseURL = apiBase
	}
	if logLevel != "" {
		c.Log.Level = logLevel
	}
	cfg = c
	initLogging(c.Log)
	logger.Debug("Config loaded", "api", c.APIBaseURL, "storage", c.Storage.Backend, "profile", profile)
	return nil
}

func initLogging(lc config.LogConfig) {
	var w io.Writer = os.Stderr
	if lc.File != "" {
		w = logger.RotatingFile(lc.File)
	}
	logger.InitWriter(w, logger.ParseLevel(lc.Level), lc.Format == "json")
}

func Execute() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		os.Exit(1)
	}
}

// run executes one CLI invocation. Errors not already shown to the user by a
// component are printed to errOut.
func run(ctx context.Context, args []string, out, errOut io.Writer) error {
	defer closeApp()
	resetFlags(rootCmd)
	rootCmd.SetArgs(args)
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)
	rootCmd.SetIn(stdin)

	err := rootCmd.ExecuteContext(ctx)
	if err != nil && (app == nil || !app.Notify.shown(err.Error())) {
		fmt.Fprintln(errOut, "Error:", err)
	}
	return err
}

// resetFlags restores defaults so repeated in-process runs do not inherit
// flag values.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&profile, "profile", "default", "storage profile holding the session")
	rootCmd.PersistentFlags().StringVar(&apiBase, "api", "", "backend base URL, overrides api_base_url")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn or error")
}
