package internal

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-git/go-billy/v5"
)

// LockFile marks a run in progress for every process sharing the vault.
const LockFile = StateDirName + "/sync.lock"

// staleLockAge is how old a lock may get before a new run takes it over.
// A process killed mid-run leaves its lock behind.
const staleLockAge = 30 * time.Minute

// acquireLock creates LockFile exclusively. It returns ErrSyncInProgress
// while another run holds a fresh lock. The returned release removes it.
func acquireLock(fs billy.Filesystem) (release func(), err error) {
	for attempt := 0; attempt < 2; attempt++ {
		f, err := fs.OpenFile(LockFile, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if err == nil {
			_, werr := fmt.Fprintf(f, "%d %s\n", os.Getpid(), time.Now().UTC().Format(time.RFC3339))
			cerr := f.Close()
			if werr != nil || cerr != nil {
				_ = fs.Remove(LockFile)
				return nil, fmt.Errorf("write lock: %w", errors.Join(werr, cerr))
			}
			return func() { _ = fs.Remove(LockFile) }, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create lock: %w", err)
		}

		info, err := fs.Stat(LockFile)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil || time.Since(info.ModTime()) < staleLockAge {
			return nil, ErrSyncInProgress
		}
		if err := fs.Remove(LockFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("remove stale lock: %w", err)
		}
	}
	return nil, ErrSyncInProgress
}

// lockHeld reports whether LockFile exists.
func lockHeld(fs billy.Filesystem) bool {
	_, err := fs.Stat(LockFile)
	return err == nil
}
