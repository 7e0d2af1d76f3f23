package internal

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-git/go-billy/v5"
	"go.uber.org/zap"
)

// SyncService runs imports against one vault. It owns the persisted
// SyncState: config is read once before a run and written once after it.
// At most one run per vault is active at a time, across processes; a
// concurrent caller gets ErrSyncInProgress instead of waiting.
type SyncService struct {
	fs     billy.Filesystem
	logger *zap.Logger
	now    func() time.Time

	archiveUC *ImportArchiveUseCase
	pageUC    *ImportPageUseCase
}

func NewSyncService(fs billy.Filesystem, logger *zap.Logger, now func() time.Time) (*SyncService, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if now == nil {
		now = time.Now
	}

	ignore, err := NewIgnoreMatcher(fs)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", IgnoreFilename, err)
	}
	sink := NewFSSink(fs, ignore)

	return &SyncService{
		fs:        fs,
		logger:    logger,
		now:       now,
		archiveUC: NewImportArchiveUseCase(sink, logger, now),
		pageUC:    NewImportPageUseCase(sink, logger, now),
	}, nil
}

// Initialize writes the default config and, when history is set, creates the
// vault git repository.
func (s *SyncService) Initialize(history bool) error {
	if _, err := s.fs.Stat(ConfigFile); err == nil {
		return fmt.Errorf("%w: %s", ErrAlreadyInitialized, ConfigFile)
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat config: %w", err)
	}

	cfg := DefaultConfig()
	cfg.History = history
	if err := SaveConfig(s.fs, cfg); err != nil {
		return err
	}

	if history {
		if err := InitHistory(s.fs, s.now()); err != nil {
			return err
		}
	}

	s.logger.Info("vault initialized", zap.Bool("history", history))
	return nil
}

// ImportArchive runs a bulk import of archive bytes.
func (s *SyncService) ImportArchive(ctx context.Context, archive []byte, dryRun bool) (*ImportOutput, error) {
	return s.guarded(ctx, dryRun, func(cfg *Config) (*ImportOutput, error) {
		return s.archiveUC.Execute(ctx, ImportArchiveInput{Archive: archive, Config: cfg, DryRun: dryRun})
	})
}

// ImportPage runs an adhoc import of a single export page.
func (s *SyncService) ImportPage(ctx context.Context, page string, dryRun bool) (*ImportOutput, error) {
	return s.guarded(ctx, dryRun, func(cfg *Config) (*ImportOutput, error) {
		return s.pageUC.Execute(ctx, ImportPageInput{Page: page, Config: cfg, DryRun: dryRun})
	})
}

// Sync imports the configured archivePath once.
func (s *SyncService) Sync(ctx context.Context) (*ImportOutput, error) {
	cfg, err := LoadConfig(s.fs, s.logger)
	if err != nil {
		return nil, err
	}
	if cfg.ArchivePath == "" {
		return nil, ErrNoArchivePath
	}

	archivePath := cfg.ArchivePath
	if !filepath.IsAbs(archivePath) {
		archivePath = filepath.Join(s.fs.Root(), archivePath)
	}

	data, err := ReadInput(archivePath)
	if err != nil {
		return nil, err
	}
	return s.ImportArchive(ctx, data, false)
}

func (s *SyncService) guarded(ctx context.Context, dryRun bool, run func(*Config) (*ImportOutput, error)) (*ImportOutput, error) {
	if !dryRun {
		release, err := acquireLock(s.fs)
		if err != nil {
			return nil, err
		}
		defer release()
	}

	cfg, err := LoadConfig(s.fs, s.logger)
	if err != nil {
		return nil, err
	}

	out, err := run(cfg)
	if err != nil {
		return nil, err
	}
	if dryRun {
		return out, nil
	}

	cfg.ApplySync(out.Result.UpdatedSyncedIDs, out.Result.LastSyncTime)
	if err := SaveConfig(s.fs, cfg); err != nil {
		return nil, err
	}

	if cfg.History {
		s.commitHistory(out.Result)
	}

	s.logger.Info("import finished",
		zap.Int("total", out.Result.TotalMemoCount),
		zap.Int("new", out.Result.NewMemoCount),
		zap.Int("failures", len(out.Result.Failures)),
	)
	return out, nil
}

func (s *SyncService) commitHistory(result *ImportResult) {
	history, err := OpenHistory(s.fs)
	if err != nil {
		s.logger.Warn("vault history unavailable", zap.Error(err))
		return
	}

	paths := append([]string{ConfigFile}, result.Written...)
	msg := fmt.Sprintf("flomo: import %d memos", result.NewMemoCount)
	commit, err := history.Commit(paths, msg, s.now())
	if err != nil {
		s.logger.Warn("commit import", zap.Error(err))
		return
	}
	if commit != nil {
		s.logger.Debug("committed import", zap.String("hash", commit.Hash))
	}
}

// Root is the vault directory.
func (s *SyncService) Root() string {
	return s.fs.Root()
}

// Running reports whether a run holds the vault lock.
func (s *SyncService) Running() bool {
	return lockHeld(s.fs)
}

type StatusOutput struct {
	SyncedCount  int
	LastSyncTime time.Time
	ArchivePath  string
	Config       *Config
}

func (s *SyncService) Status() (*StatusOutput, error) {
	cfg, err := LoadConfig(s.fs, s.logger)
	if err != nil {
		return nil, err
	}

	out := &StatusOutput{
		SyncedCount: len(cfg.SyncedMemoIDs),
		ArchivePath: cfg.ArchivePath,
		Config:      cfg,
	}
	if cfg.LastSyncTime > 0 {
		out.LastSyncTime = time.UnixMilli(cfg.LastSyncTime)
	}
	return out, nil
}

// Reset clears the synced id set, the only operation that shrinks it.
func (s *SyncService) Reset() (int, error) {
	release, err := acquireLock(s.fs)
	if err != nil {
		return 0, err
	}
	defer release()

	cfg, err := LoadConfig(s.fs, s.logger)
	if err != nil {
		return 0, err
	}

	n := len(cfg.SyncedMemoIDs)
	cfg.ResetSync()
	if err := SaveConfig(s.fs, cfg); err != nil {
		return 0, err
	}
	return n, nil
}

func (s *SyncService) Log(limit int) ([]*Commit, error) {
	history, err := OpenHistory(s.fs)
	if err != nil {
		return nil, err
	}
	return history.Log(limit)
}

// ConfigValue returns one config key.
func (s *SyncService) ConfigValue(key string) (string, error) {
	cfg, err := LoadConfig(s.fs, s.logger)
	if err != nil {
		return "", err
	}
	return cfg.Get(key)
}

// SetConfigValue updates one config key and persists it.
func (s *SyncService) SetConfigValue(key, value string) error {
	release, err := acquireLock(s.fs)
	if err != nil {
		return err
	}
	defer release()

	cfg, err := LoadConfig(s.fs, s.logger)
	if err != nil {
		return err
	}
	if err := cfg.Set(key, value); err != nil {
		return err
	}
	return SaveConfig(s.fs, cfg)
}
