package main

import (
	"fmt"

	"github.com/4thel00z/flomo-importer/internal"
	"github.com/spf13/cobra"
)

func NewImportCmd(svc serviceFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <archive.zip>",
		Short: "Import a flomo export archive",
		Long:  `Import a flomo zip export into the vault. Memos synced by earlier runs are skipped.`,
		Args:  cobra.ExactArgs(1),
		RunE:  makeImportRunner(svc),
	}

	cmd.Flags().Bool("dry-run", false, "Show planned files and diffs without writing")
	return cmd
}

func makeImportRunner(svc serviceFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		data, err := internal.ReadInput(args[0])
		if err != nil {
			return err
		}

		s, err := svc(cmd)
		if err != nil {
			return err
		}

		out, err := s.ImportArchive(cmd.Context(), data, dryRun)
		if err != nil {
			return fmt.Errorf("import archive: %w", err)
		}

		return reportImport(cmd, out, dryRun)
	}
}

func NewAdhocCmd(svc serviceFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "adhoc <page.html>",
		Short: "Import an extracted flomo export page",
		Long:  `Import a single flomo HTML page into the flomo folder, one file per memo or per day.`,
		Args:  cobra.ExactArgs(1),
		RunE:  makeAdhocRunner(svc),
	}

	cmd.Flags().Bool("dry-run", false, "Show planned files and diffs without writing")
	return cmd
}

func makeAdhocRunner(svc serviceFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		data, err := internal.ReadInput(args[0])
		if err != nil {
			return err
		}

		s, err := svc(cmd)
		if err != nil {
			return err
		}

		out, err := s.ImportPage(cmd.Context(), string(data), dryRun)
		if err != nil {
			return fmt.Errorf("import page: %w", err)
		}

		return reportImport(cmd, out, dryRun)
	}
}

func NewSyncCmd(svc serviceFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Import the configured archive once",
		Long:  `Import the archive at archivePath once. Suitable for cron or other schedulers.`,
		Args:  cobra.NoArgs,
		RunE:  makeSyncRunner(svc),
	}

	return cmd
}

func makeSyncRunner(svc serviceFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		s, err := svc(cmd)
		if err != nil {
			return err
		}

		out, err := s.Sync(cmd.Context())
		if err != nil {
			return fmt.Errorf("sync: %w", err)
		}

		return reportImport(cmd, out, false)
	}
}

// reportImport prints the run summary and returns the joined write failures.
func reportImport(cmd *cobra.Command, out *internal.ImportOutput, dryRun bool) error {
	asJSON, _ := cmd.Flags().GetBool("json")
	res := out.Result

	if asJSON {
		paths := make([]string, 0, len(out.Planned))
		for _, pf := range out.Planned {
			paths = append(paths, pf.Path)
		}
		failures := make([]map[string]string, 0, len(res.Failures))
		for _, f := range res.Failures {
			failures = append(failures, map[string]string{"path": f.Path, "error": f.Err.Error()})
		}
		if err := outputJSON(cmd, map[string]any{
			"count":       res.TotalMemoCount,
			"newCount":    res.NewMemoCount,
			"dryRun":      dryRun,
			"planned":     paths,
			"written":     res.Written,
			"attachments": res.AttachmentsCopied,
			"failures":    failures,
		}); err != nil {
			return err
		}
		return res.Err()
	}

	w := cmd.OutOrStdout()
	if dryRun {
		for i, pf := range out.Planned {
			fmt.Fprintf(w, "would write %s\n", pf.Path)
			if i < len(out.Diffs) && out.Diffs[i] != "" {
				fmt.Fprint(w, out.Diffs[i])
			}
		}
	} else {
		for _, p := range res.Written {
			fmt.Fprintf(w, "wrote %s\n", p)
		}
		for _, f := range res.Failures {
			fmt.Fprintf(cmd.ErrOrStderr(), "failed %s: %v\n", f.Path, f.Err)
		}
	}

	fmt.Fprintln(w, res.Summary())
	return res.Err()
}
