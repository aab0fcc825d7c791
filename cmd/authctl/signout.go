package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newSignOutCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "signout",
		Short: "Forget the signed-in user, keys and auth params",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(ctx context.Context, cmd *cobra.Command, a *app) error {
			if a.manager.Offline() {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "not signed in")
				return err
			}
			if err := a.manager.SignOut(ctx); err != nil {
				return err
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "signed out")
			return err
		}),
	}
}
