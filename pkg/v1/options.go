package v1

import (
	"time"

	"github.com/go-git/go-billy/v5"
	"go.uber.org/zap"
)

// Option configures a Client.
type Option func(*clientConfig)

type clientConfig struct {
	vault  string
	fs     billy.Filesystem
	logger *zap.Logger
	now    func() time.Time
}

// WithVault sets the vault directory. Defaults to the working directory.
func WithVault(dir string) Option {
	return func(c *clientConfig) {
		c.vault = dir
	}
}

// WithFilesystem writes into fs instead of a directory on disk.
func WithFilesystem(fs billy.Filesystem) Option {
	return func(c *clientConfig) {
		c.fs = fs
	}
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *clientConfig) {
		c.logger = logger
	}
}

// WithClock sets the time source used to stamp syncs.
func WithClock(now func() time.Time) Option {
	return func(c *clientConfig) {
		c.now = now
	}
}
