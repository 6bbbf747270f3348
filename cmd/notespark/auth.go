package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	email    string
	password string
)

var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Create an account and sign in",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer s.close()
		return s.shell.Session().SignUp(cmd.Context(), email, passwordValue())
	},
}

var signinCmd = &cobra.Command{
	Use:   "signin",
	Short: "Sign in with email and password",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer s.close()
		return s.shell.Session().SignIn(cmd.Context(), email, passwordValue())
	},
}

var signoutCmd = &cobra.Command{
	Use:   "signout",
	Short: "Forget the stored session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer s.close()
		return s.shell.Session().SignOut(cmd.Context())
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer s.close()

		user, err := s.requireUser()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Welcome, %s\n", user.Email)
		return nil
	},
}

// passwordValue falls back to NOTESPARK_PASSWORD so it stays out of shell history.
func passwordValue() string {
	if password != "" {
		return password
	}
	return os.Getenv("NOTESPARK_PASSWORD")
}

func init() {
	for _, c := range []*cobra.Command{signupCmd, signinCmd} {
		c.Flags().StringVar(&email, "email", "", "Account email")
		c.Flags().StringVar(&password, "password", "", "Account password (or NOTESPARK_PASSWORD)")
		c.MarkFlagRequired("email")
		rootCmd.AddCommand(c)
	}
	rootCmd.AddCommand(signoutCmd, whoamiCmd)
}
