package main

import (
	"github.com/spf13/cobra"
)

func newHomeCmd(appRef func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "home",
		Short: "Show submission and earning totals",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appRef()
			user, err := currentUser(cmd, a)
			if err != nil {
				return err
			}
			stats, err := a.dashboard.Home(cmd.Context(), user)
			if err != nil {
				return a.fail("load home", err)
			}
			return printJSON(cmd.OutOrStdout(), stats)
		},
	}
}

func newActivityCmd(appRef func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "activity",
		Short: "List submissions, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appRef()
			user, err := currentUser(cmd, a)
			if err != nil {
				return err
			}
			items, err := a.dashboard.Activity(cmd.Context(), user)
			if err != nil {
				return a.fail("load activity", err)
			}
			return printJSON(cmd.OutOrStdout(), items)
		},
	}
}

func newEarningsCmd(appRef func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "earnings",
		Short: "Show payout totals and recent earnings",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appRef()
			user, err := currentUser(cmd, a)
			if err != nil {
				return err
			}
			summary, err := a.dashboard.Earnings(cmd.Context(), user)
			if err != nil {
				return a.fail("load earnings", err)
			}
			return printJSON(cmd.OutOrStdout(), summary)
		},
	}
}

func newProfileCmd(appRef func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "profile",
		Short: "Show tier and success rate",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appRef()
			user, err := currentUser(cmd, a)
			if err != nil {
				return err
			}
			view, err := a.dashboard.Profile(cmd.Context(), user)
			if err != nil {
				return a.fail("load profile", err)
			}
			return printJSON(cmd.OutOrStdout(), view)
		},
	}
}
