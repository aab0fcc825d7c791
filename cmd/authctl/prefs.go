package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/offlineauth/svc/auth"
)

func newPrefsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Read or change the signed-in user's preferences",
	}

	get := &cobra.Command{
		Use:   "get [key]",
		Short: "Print all preferences, or the value of one key",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(_ context.Context, cmd *cobra.Command, a *app) error {
				prefs := a.manager.UserPreferences()
				if prefs == nil {
					return auth.ErrPreferencesNotLoaded
				}
				if len(args) == 0 {
					return printJSON(cmd.OutOrStdout(), prefs.AppData())
				}
				v, ok := prefs.AppDataValue(args[0])
				if !ok {
					return fmt.Errorf("preference %q is not set", args[0])
				}
				return printJSON(cmd.OutOrStdout(), v)
			})(cmd, args)
		},
	}

	set := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a preference; JSON values are decoded, anything else is stored as a string",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(ctx context.Context, cmd *cobra.Command, a *app) error {
				if err := a.manager.SetPreferenceValue(ctx, args[0], parseValue(args[1]), true); err != nil {
					return err
				}
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s updated\n", args[0])
				return err
			})(cmd, args)
		},
	}

	cmd.AddCommand(get, set)
	return cmd
}

func parseValue(raw string) any {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err == nil {
		return v
	}
	return raw
}
