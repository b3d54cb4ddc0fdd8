package cmd

import (
	"github.com/spf13/cobra"
	"github.com/vidalevel/habits/internal/apiclient"
	"github.com/vidalevel/habits/pkg/versioninfo"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long: `The "version" command displays the current version info for both client
and server if available.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		version(cmd)
	},
}

func version(cmd *cobra.Command) {
	cmd.Printf("Client Version: %s (built %s)\n", versioninfo.Version, versioninfo.BuildDate)

	api := apiclient.New(cfg.APIBaseURL, nil)
	info, err := api.Version(cmd.Context())
	if err != nil {
		cmd.Println("Error fetching server version:", err)
		return
	}
	cmd.Printf("Server Version: %s\n", info.Version)
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
