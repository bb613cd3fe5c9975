package command

import (
	"fmt"

	"github.com/spf13/cobra"
)

// auth.go handles authentication commands: login, logout and whoami.

// authCmd represents the auth command for authentication related subcommands
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authentication commands",
	Long:  `Authenticate with the online library. Supports login, logout and showing the current user.`,
}

// loginCmd represents the login command
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Login to your library account",
	RunE: func(cmd *cobra.Command, args []string) error {
		username, _ := cmd.Flags().GetString("username")
		password, _ := cmd.Flags().GetString("password")

		if err := app.Login(cmd.Context(), username, password); err != nil {
			return err
		}

		fmt.Printf("✓ Logged in as %s\n", username)
		fmt.Printf("  %d favorites, %d books on your reading lists\n",
			len(app.Caches().FavoriteIDs()), len(app.Caches().Statuses()))
		return nil
	},
}

// logoutCmd represents the logout command
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Logout from your library account",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := app.Logout(); err != nil {
			return err
		}
		fmt.Println("✓ Successfully logged out.")
		return nil
	},
}

// whoamiCmd shows the stored session
var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged in user",
	RunE: func(cmd *cobra.Command, args []string) error {
		restore(cmd.Context())

		sess := app.Session()
		if !sess.Authenticated() {
			fmt.Println("Not logged in. Run 'onlibry auth login'.")
			return nil
		}
		fmt.Printf("Logged in as %s\n", sess.Username)
		if !sess.ExpiresAt.IsZero() {
			fmt.Printf("Session expires at %s\n", sess.ExpiresAt.Local().Format("2006-01-02 15:04:05"))
		}
		return nil
	},
}

func init() {
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(whoamiCmd)

	loginCmd.Flags().StringP("username", "u", "", "Username for the account")
	loginCmd.Flags().StringP("password", "p", "", "Password for the account")
	loginCmd.MarkFlagRequired("username")
	loginCmd.MarkFlagRequired("password")
}
