package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

const (
	modePersistent = "persistent"
	modeEphemeral  = "ephemeral"
)

func newModeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mode [persistent]",
		Short: "Show the session mode, or make the session persistent",
		Long: "Without arguments, prints the session mode and the storage modes in use. " +
			"With \"persistent\", switches the session to durable storage and records the mode for the next start.",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{modePersistent},
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(ctx context.Context, cmd *cobra.Command, a *app) error {
				if len(args) == 1 {
					if err := a.manager.SetEphemeral(ctx, false); err != nil {
						return err
					}
				}
				ephemeral, err := a.manager.IsEphemeralSession(ctx)
				if err != nil {
					return err
				}
				mode := modePersistent
				if ephemeral {
					mode = modeEphemeral
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "session: %s\nitems: %s\nrecords: %s\n",
					mode, a.store.ItemsMode(), a.store.RecordsMode())
				return err
			})(cmd, args)
		},
	}
}
