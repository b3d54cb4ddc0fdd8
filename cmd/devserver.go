package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/vidalevel/habits/internal/devserver"
)

var devserverAddr string

var devserverCmd = &cobra.Command{
	Use:   "devserver",
	Short: "Run an in-memory habits backend for local development",
	Long: `The "devserver" command serves the full backend API from memory. Data is lost on
exit. Point the client at it with --api http://127.0.0.1:5000.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr := cfg.DevServer.Addr
		if cmd.Flags().Changed("addr") {
			addr = devserverAddr
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		srv := devserver.New(devserver.Config{
			Addr:       addr,
			JWTSecret:  cfg.DevServer.JWTSecret,
			RequestLog: true,
		})
		return srv.ListenAndServe(ctx)
	},
}

func init() {
	devserverCmd.Flags().StringVar(&devserverAddr, "addr", ":5000", "listen address")
	rootCmd.AddCommand(devserverCmd)
}
