package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/vidalevel/habits/internal/session"
	"github.com/vidalevel/habits/internal/tokenstore"
)

var (
	authName     string
	authEmail    string
	authPassword string
	authConfirm  string
	authAvatar   string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and keep the session for later commands",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		in := bufio.NewReader(cmd.InOrStdin())
		if authEmail == "" {
			authEmail = prompt(cmd, in, "Email: ")
		}
		if authPassword == "" {
			authPassword = prompt(cmd, in, "Password: ")
		}
		return a.Session.Login(cmd.Context(), authEmail, authPassword)
	},
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account and log in",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		in := bufio.NewReader(cmd.InOrStdin())
		if authName == "" {
			authName = prompt(cmd, in, "Name: ")
		}
		if authEmail == "" {
			authEmail = prompt(cmd, in, "Email: ")
		}
		if authPassword == "" {
			authPassword = prompt(cmd, in, "Password: ")
		}
		if authConfirm == "" {
			authConfirm = prompt(cmd, in, "Confirm password: ")
		}
		return a.Session.Register(cmd.Context(), session.Registration{
			Name:            authName,
			Email:           authEmail,
			Password:        authPassword,
			ConfirmPassword: authConfirm,
			Avatar:          authAvatar,
		})
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		return a.Session.Logout()
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged in user",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		u := a.Session.User()
		if u == nil || !a.Session.IsAuthenticated() {
			cmd.Println("Not logged in")
			return nil
		}
		cmd.Printf("%s <%s> (id %d)\n", u.Name, u.Email, u.ID)

		tok, _ := a.Tokens.Read()
		info, err := tokenstore.Inspect(tok)
		if err != nil {
			cmd.Println("Token: opaque")
			return nil
		}
		if !info.ExpiresAt.IsZero() {
			cmd.Printf("Token expires: %s (in %s)\n",
				info.ExpiresAt.Local().Format(time.RFC1123),
				time.Until(info.ExpiresAt).Round(time.Minute))
		}
		return nil
	},
}

// prompt reads one line from in; it returns "" at EOF.
func prompt(cmd *cobra.Command, in *bufio.Reader, label string) string {
	fmt.Fprint(cmd.OutOrStdout(), label)
	line, err := in.ReadString('\n')
	if err != nil && err != io.EOF {
		return ""
	}
	return strings.TrimRight(line, "\r\n")
}

func init() {
	loginCmd.Flags().StringVarP(&authEmail, "email", "e", "", "account email")
	loginCmd.Flags().StringVarP(&authPassword, "password", "p", "", "account password, prompted when omitted")

	registerCmd.Flags().StringVarP(&authName, "name", "n", "", "display name")
	registerCmd.Flags().StringVarP(&authEmail, "email", "e", "", "account email")
	registerCmd.Flags().StringVarP(&authPassword, "password", "p", "", "password, prompted when omitted")
	registerCmd.Flags().StringVar(&authConfirm, "confirm", "", "password confirmation, prompted when omitted")
	registerCmd.Flags().StringVar(&authAvatar, "avatar", "", "avatar URL")

	rootCmd.AddCommand(loginCmd, registerCmd, logoutCmd, whoamiCmd)
}
