package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var friendsCmd = &cobra.Command{
	Use:   "friends",
	Short: "Find friends and answer friend requests",
}

var friendsSearchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search users by name",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		if err := requireSession(a); err != nil {
			return err
		}
		query := ""
		if len(args) == 1 {
			query = args[0]
		}
		users, err := a.Friends.Search(cmd.Context(), query)
		if err != nil {
			return err
		}
		if len(users) == 0 {
			cmd.Println("No users found")
			return nil
		}
		for _, u := range users {
			cmd.Printf("%d\t%s\n", u.ID, u.Name)
		}
		return nil
	},
}

var friendsAddCmd = &cobra.Command{
	Use:   "add <user-id>",
	Short: "Send a friend request",
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
		_, err = a.Friends.SendRequest(cmd.Context(), id)
		return err
	},
}

var friendsPendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "List friend requests waiting for your answer",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		if err := requireSession(a); err != nil {
			return err
		}
		reqs, err := a.Friends.Pending(cmd.Context())
		if err != nil {
			return err
		}
		if len(reqs) == 0 {
			cmd.Println("No pending requests")
			return nil
		}
		for _, r := range reqs {
			from := r.SenderName
			if from == "" {
				from = fmt.Sprintf("user %d", r.SenderID)
			}
			cmd.Printf("%d\tfrom %s\n", r.ID, from)
		}
		return nil
	},
}

func respondCmd(use, short string, accept bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <request-id>",
		Short: short,
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
			return a.Friends.Respond(cmd.Context(), id, accept)
		},
	}
}

var rankingCmd = &cobra.Command{
	Use:   "ranking",
	Short: "Show points ranking among you and your friends",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		if err := requireSession(a); err != nil {
			return err
		}
		entries, err := a.Friends.Ranking(cmd.Context())
		if err != nil {
			return err
		}
		var self int64
		if u := a.Session.User(); u != nil {
			self = u.ID
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "#\tNAME\tPOINTS")
		for i, e := range entries {
			name := e.Name
			if e.ID == self {
				name += " (you)"
			}
			fmt.Fprintf(tw, "%d\t%s\t%d\n", i+1, name, e.Points)
		}
		return tw.Flush()
	},
}

func init() {
	friendsCmd.AddCommand(
		friendsSearchCmd,
		friendsAddCmd,
		friendsPendingCmd,
		respondCmd("accept", "Accept a friend request", true),
		respondCmd("reject", "Reject a friend request", false),
	)
	rootCmd.AddCommand(friendsCmd, rankingCmd)
}
