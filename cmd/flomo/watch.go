package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/4thel00z/flomo-importer/internal"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

func NewWatchCmd(svc serviceFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-import the archive whenever it changes",
		Long:  `Watch archivePath for changes and run a sync after each batch of events, and optionally on a fixed interval.`,
		Args:  cobra.NoArgs,
		RunE:  makeWatchRunner(svc),
	}

	cmd.Flags().Duration("debounce", 2*time.Second, "Debounce window for batching changes")
	cmd.Flags().Duration("interval", 0, "Also sync on this interval (0 disables)")
	return cmd
}

func makeWatchRunner(svc serviceFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		debounce, _ := cmd.Flags().GetDuration("debounce")
		interval, _ := cmd.Flags().GetDuration("interval")

		s, err := svc(cmd)
		if err != nil {
			return err
		}

		status, err := s.Status()
		if err != nil {
			return err
		}
		if status.ArchivePath == "" {
			return internal.ErrNoArchivePath
		}
		archive := status.ArchivePath
		if !filepath.IsAbs(archive) {
			archive = filepath.Join(s.Root(), archive)
		}

		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return fmt.Errorf("create watcher: %w", err)
		}
		defer watcher.Close()

		// Exporters replace the archive, so watch its directory.
		if err := watcher.Add(filepath.Dir(archive)); err != nil {
			return fmt.Errorf("watch %s: %w", filepath.Dir(archive), err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Watching %s for changes...\n", archive)

		timer := time.NewTimer(0)
		if !timer.Stop() {
			<-timer.C
		}
		pending := false

		var tick <-chan time.Time
		if interval > 0 {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			tick = ticker.C
		}

		for {
			select {
			case <-cmd.Context().Done():
				return nil
			case event, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				if !isArchiveEvent(event, archive) {
					continue
				}
				if !pending {
					timer.Reset(debounce)
					pending = true
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "watch error: %v\n", err)
			case <-timer.C:
				pending = false
				runWatchSync(cmd, s)
			case <-tick:
				runWatchSync(cmd, s)
			}
		}
	}
}

func runWatchSync(cmd *cobra.Command, s *internal.SyncService) {
	out, err := s.Sync(cmd.Context())
	switch {
	case errors.Is(err, internal.ErrSyncInProgress):
		fmt.Fprintln(cmd.ErrOrStderr(), "sync skipped: previous run still in progress")
		return
	case err != nil:
		fmt.Fprintf(cmd.ErrOrStderr(), "sync: %v\n", err)
		return
	}

	stamp := time.Now().Format("15:04:05")
	fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s\n", stamp, out.Result.Summary())
	if err := out.Result.Err(); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "sync: %v\n", err)
	}
}

func isArchiveEvent(event fsnotify.Event, archive string) bool {
	if filepath.Clean(event.Name) != filepath.Clean(archive) {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0
}
