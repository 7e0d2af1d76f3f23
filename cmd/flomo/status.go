package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func NewStatusCmd(svc serviceFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show sync state",
		Long:  `Show how many memos have been synced, when the last sync ran, and the output settings.`,
		Args:  cobra.NoArgs,
		RunE:  makeStatusRunner(svc),
	}

	return cmd
}

func makeStatusRunner(svc serviceFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")

		s, err := svc(cmd)
		if err != nil {
			return err
		}

		out, err := s.Status()
		if err != nil {
			return fmt.Errorf("get status: %w", err)
		}

		if asJSON {
			data := map[string]any{
				"vault":        s.Root(),
				"syncedCount":  out.SyncedCount,
				"archivePath":  out.ArchivePath,
				"lastSyncTime": nil,
			}
			if !out.LastSyncTime.IsZero() {
				data["lastSyncTime"] = out.LastSyncTime
			}
			return outputJSON(cmd, data)
		}

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "Vault:        %s\n", s.Root())
		fmt.Fprintf(w, "Synced memos: %d\n", out.SyncedCount)
		if out.LastSyncTime.IsZero() {
			fmt.Fprintln(w, "Last sync:    never")
		} else {
			fmt.Fprintf(w, "Last sync:    %s\n", out.LastSyncTime.Format(time.RFC3339))
		}
		if out.ArchivePath != "" {
			fmt.Fprintf(w, "Archive:      %s\n", out.ArchivePath)
		}
		fmt.Fprintf(w, "Target:       %s/%s (merge by date: %t)\n",
			out.Config.FlomoTarget, out.Config.MemoTarget, out.Config.MergeByDate)
		return nil
	}
}

func NewResetCmd(svc serviceFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Forget every synced memo id",
		Long:  `Clear the synced memo id set so the next import writes every memo again.`,
		Args:  cobra.NoArgs,
		RunE:  makeResetRunner(svc),
	}

	return cmd
}

func makeResetRunner(svc serviceFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		s, err := svc(cmd)
		if err != nil {
			return err
		}

		n, err := s.Reset()
		if err != nil {
			return fmt.Errorf("reset: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Forgot %d synced memo ids\n", n)
		return nil
	}
}
