package internal

import (
	"errors"
	"fmt"
)

var (
	ErrInputMissing       = errors.New("input missing")
	ErrExportPageMissing  = errors.New("export page missing from archive")
	ErrSyncInProgress     = errors.New("sync already in progress")
	ErrNoArchivePath      = errors.New("no archive path configured")
	ErrNoHistory          = errors.New("vault history not initialized")
	ErrAlreadyInitialized = errors.New("vault already initialized")
)

// AttachmentKind distinguishes embedded images from plain file links.
type AttachmentKind string

const (
	AttachmentImage AttachmentKind = "image"
	AttachmentFile  AttachmentKind = "file"
)

// AttachmentRef points at a binary bundled in the export, relative to the
// export page (for example "file/2024-01-01/abc.png").
type AttachmentRef struct {
	Kind AttachmentKind
	Src  string
	Name string
}

// Memo is one timestamped note extracted from an export page.
// An empty ID means the export carried no identity for it.
type Memo struct {
	ID          string
	Date        string
	Time        string
	Title       string
	Content     string
	Tags        []string
	Attachments []AttachmentRef
}

func (m Memo) HasID() bool {
	return m.ID != ""
}

// SyncState is the incremental-sync bookkeeping persisted by the caller.
type SyncState struct {
	SyncedMemoIDs []string
	LastSyncTime  int64
}

// DayGroup holds the new memos sharing one calendar date, in extraction order.
// Seq[i] is the position of Memos[i] in the sequence the group was built from.
type DayGroup struct {
	Date  string
	Memos []Memo
	Seq   []int
}

// WriteFailure records one output file that could not be persisted.
type WriteFailure struct {
	Path string
	Err  error
}

func (f WriteFailure) Error() string {
	return fmt.Sprintf("write %s: %v", f.Path, f.Err)
}

func (f WriteFailure) Unwrap() error {
	return f.Err
}

// ImportResult summarises one import run.
type ImportResult struct {
	TotalMemoCount    int
	NewMemoCount      int
	UpdatedSyncedIDs  []string
	LastSyncTime      int64
	Written           []string
	Failures          []WriteFailure
	AttachmentsCopied int
}

// Err joins every write failure of the run, or returns nil.
func (r *ImportResult) Err() error {
	if r == nil || len(r.Failures) == 0 {
		return nil
	}
	errs := make([]error, len(r.Failures))
	for i, f := range r.Failures {
		errs[i] = f
	}
	return errors.Join(errs...)
}

// Summary is the single human readable line reported after a run.
func (r *ImportResult) Summary() string {
	switch {
	case r.NewMemoCount > 0:
		return fmt.Sprintf("found %d memos, %d new", r.TotalMemoCount, r.NewMemoCount)
	case r.TotalMemoCount > 0:
		return fmt.Sprintf("all %d memos up to date", r.TotalMemoCount)
	default:
		return "no memos found"
	}
}
