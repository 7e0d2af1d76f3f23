package main

import (
	"fmt"
	"strings"

	"github.com/4thel00z/flomo-importer/internal"
	"github.com/spf13/cobra"
)

func NewConfigCmd(svc serviceFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Read or change vault settings",
		Long:  "Read or change settings in .flomo/config.yaml.\n\nKeys: " + strings.Join(internal.Keys(), ", "),
	}

	cmd.AddCommand(newConfigGetCmd(svc), newConfigSetCmd(svc))
	return cmd
}

func newConfigGetCmd(svc serviceFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Print a setting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := svc(cmd)
			if err != nil {
				return err
			}

			value, err := s.ConfigValue(args[0])
			if err != nil {
				return fmt.Errorf("get config: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), value)
			return nil
		},
	}
}

func newConfigSetCmd(svc serviceFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change a setting",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := svc(cmd)
			if err != nil {
				return err
			}

			if err := s.SetConfigValue(args[0], args[1]); err != nil {
				return fmt.Errorf("set config: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Set %s\n", args[0])
			return nil
		},
	}
}
