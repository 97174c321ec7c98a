package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// appBuilder wires the dependencies of one invocation.
type appBuilder func(ctx context.Context, configPath string) (*app, error)

// newRootCmd returns the command tree and a release func. The release func
// must run after Execute whatever it returned; cobra skips post-run hooks
// when a command fails.
func newRootCmd(build appBuilder) (*cobra.Command, func()) {
	var (
		configPath string
		a          *app
	)

	cmd := &cobra.Command{
		Use:   "scoutly",
		Short: "Photograph, geotag and submit distressed properties",
		Long: `Scoutly lets scouts submit property observations and follow their
submissions, earnings and profile.`,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			a, err = build(cmd.Context(), configPath)
			return err
		},
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a config file (default: ./configs/config.yaml)")

	appRef := func() *app { return a }
	cmd.AddCommand(
		newSignUpCmd(appRef),
		newSignInCmd(appRef),
		newSignOutCmd(appRef),
		newWhoAmICmd(appRef),
		newSubmitCmd(appRef),
		newHomeCmd(appRef),
		newActivityCmd(appRef),
		newEarningsCmd(appRef),
		newProfileCmd(appRef),
	)

	release := func() {
		if a != nil {
			a.close()
			a = nil
		}
	}
	return cmd, release
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
