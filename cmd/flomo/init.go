package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewInitCmd(svc serviceFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a vault for flomo imports",
		Long:  `Create .flomo/config.yaml with default settings, optionally with a git history of imports.`,
		RunE:  makeInitRunner(svc),
	}

	cmd.Flags().Bool("history", false, "Record every import as a git commit")
	return cmd
}

func makeInitRunner(svc serviceFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		history, _ := cmd.Flags().GetBool("history")

		s, err := svc(cmd)
		if err != nil {
			return err
		}

		if err := s.Initialize(history); err != nil {
			return fmt.Errorf("init vault: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Initialized flomo vault at %s\n", s.Root())
		return nil
	}
}
