package main

import (
	"fmt"

	"scoutly/internal/models"

	"github.com/spf13/cobra"
)

func newSignUpCmd(appRef func() *app) *cobra.Command {
	var email, password, fullName string

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create a scout account and sign in",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appRef()
			sess, err := a.identity.SignUp(cmd.Context(), email, password, fullName)
			if err != nil {
				return a.fail("signup", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Welcome, %s\n", displayName(sess.User))
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Password (at least 6 characters)")
	cmd.Flags().StringVar(&fullName, "name", "", "Full name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newSignInCmd(appRef func() *app) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "signin",
		Short: "Sign in with email and password",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appRef()
			sess, err := a.identity.SignIn(cmd.Context(), email, password)
			if err != nil {
				return a.fail("signin", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", sess.User.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newSignOutCmd(appRef func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "signout",
		Short: "Sign out and forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appRef()
			if err := a.identity.SignOut(cmd.Context()); err != nil {
				return a.fail("signout", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		},
	}
}

func newWhoAmICmd(appRef func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in scout",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appRef()
			user, err := currentUser(cmd, a)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), user)
		},
	}
}

// currentUser restores the session every scout-scoped command runs under.
func currentUser(cmd *cobra.Command, a *app) (models.User, error) {
	sess, err := a.identity.Current(cmd.Context())
	if err != nil {
		return models.User{}, a.fail("restore session", err)
	}
	return sess.User, nil
}

func displayName(u models.User) string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Email
}
