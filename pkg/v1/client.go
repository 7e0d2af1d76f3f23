package v1

import (
	"context"
	"fmt"
	"os"

	"github.com/4thel00z/flomo-importer/internal"
	"github.com/go-git/go-billy/v5/osfs"
	"go.uber.org/zap"
)

// Client imports flomo exports into a vault.
type Client struct {
	svc *internal.SyncService
}

// New creates a new Client with the given options.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}

	fs := cfg.fs
	if fs == nil {
		dir := cfg.vault
		if dir == "" {
			wd, err := os.Getwd()
			if err != nil {
				return nil, fmt.Errorf("get working directory: %w", err)
			}
			dir = wd
		}
		fs = osfs.New(dir)
	}

	svc, err := internal.NewSyncService(fs, cfg.logger, cfg.now)
	if err != nil {
		return nil, err
	}

	return &Client{svc: svc}, nil
}

// Init writes the default vault config, optionally with import history.
func (c *Client) Init(history bool) error {
	return c.svc.Initialize(history)
}

// Import runs a bulk import of a zip export.
func (c *Client) Import(ctx context.Context, archive []byte) (*Result, error) {
	out, err := c.svc.ImportArchive(ctx, archive, false)
	if err != nil {
		return nil, fmt.Errorf("import: %w", err)
	}
	return toResult(out.Result), out.Result.Err()
}

// ImportPage runs an adhoc import of one export page.
func (c *Client) ImportPage(ctx context.Context, page string) (*Result, error) {
	out, err := c.svc.ImportPage(ctx, page, false)
	if err != nil {
		return nil, fmt.Errorf("import page: %w", err)
	}
	return toResult(out.Result), out.Result.Err()
}

// Status returns the persisted sync state.
func (c *Client) Status() (*Status, error) {
	out, err := c.svc.Status()
	if err != nil {
		return nil, err
	}
	return &Status{SyncedCount: out.SyncedCount, LastSyncTime: out.LastSyncTime}, nil
}

// Reset forgets every synced memo id.
func (c *Client) Reset() error {
	_, err := c.svc.Reset()
	return err
}

// Close releases any resources held by the client.
func (c *Client) Close() error {
	return nil
}

func toResult(r *internal.ImportResult) *Result {
	res := &Result{
		Count:    r.TotalMemoCount,
		NewCount: r.NewMemoCount,
		Written:  r.Written,
		Summary:  r.Summary(),
	}
	for _, f := range r.Failures {
		res.Failures = append(res.Failures, Failure{Path: f.Path, Error: f.Err.Error()})
	}
	return res
}
