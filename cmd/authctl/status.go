package main

import (
	"context"

	"github.com/spf13/cobra"
)

type statusReport struct {
	User                    any    `json:"user"`
	Offline                 bool   `json:"offline"`
	Ephemeral               bool   `json:"ephemeral"`
	ItemsMode               string `json:"items_mode"`
	RecordsMode             string `json:"records_mode"`
	BackendReachable        bool   `json:"backend_reachable"`
	Passcode                bool   `json:"passcode"`
	Locked                  bool   `json:"locked"`
	ProtocolVersion         string `json:"protocol_version,omitempty"`
	SecurityUpdateAvailable bool   `json:"security_update_available"`
	PreferencesID           string `json:"preferences_id,omitempty"`
}

func newStatusCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the restored session",
		Args:  cobra.NoArgs,
		RunE:  withApp(opts, runStatus),
	}
}

func runStatus(ctx context.Context, cmd *cobra.Command, a *app) error {
	m := a.manager
	ephemeral, err := m.IsEphemeralSession(ctx)
	if err != nil {
		return err
	}

	report := statusReport{
		Offline:                 m.Offline(),
		Ephemeral:               ephemeral,
		ItemsMode:               a.store.ItemsMode().String(),
		RecordsMode:             a.store.RecordsMode().String(),
		BackendReachable:        a.durable.Ping(ctx) == nil,
		Passcode:                a.store.HasLocalUnlockSecret(),
		Locked:                  a.store.Locked(),
		SecurityUpdateAvailable: m.SecurityUpdateAvailable(),
	}
	if u := m.User(); u != nil {
		report.User = u
		version, err := m.ProtocolVersion(ctx).AwaitContext(ctx)
		if err != nil {
			return err
		}
		report.ProtocolVersion = version
	}
	if prefs := m.UserPreferences(); prefs != nil {
		report.PreferencesID = prefs.ID.String()
	}
	return printJSON(cmd.OutOrStdout(), report)
}
