package main

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

func NewRootCmd(version string, a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "flomo",
		Short:         "Import flomo exports into a markdown vault",
		Long:          `Import flomo HTML exports into a markdown vault, writing only memos that were not synced before.`,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		Run: func(cmd *cobra.Command, _ []string) {
			_ = cmd.Help()
		},
	}

	addPersistentFlags(rootCmd)

	if a != nil {
		addSubcommands(rootCmd, a.service)
	}

	return rootCmd
}

func addPersistentFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().String("vault", "", "Vault directory (default: nearest directory containing .flomo)")
	cmd.PersistentFlags().Bool("verbose", false, "Verbose logging")
	cmd.PersistentFlags().Bool("json", false, "Output in JSON format")
}

func addSubcommands(root *cobra.Command, svc serviceFunc) {
	root.AddCommand(
		NewInitCmd(svc),
		NewImportCmd(svc),
		NewAdhocCmd(svc),
		NewSyncCmd(svc),
		NewWatchCmd(svc),
		NewStatusCmd(svc),
		NewResetCmd(svc),
		NewLogCmd(svc),
		NewConfigCmd(svc),
	)
}

func outputJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
