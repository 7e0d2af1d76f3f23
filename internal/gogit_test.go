package internal

import (
	"errors"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
)

var epoch = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func setupHistory(t *testing.T) (billy.Filesystem, *VaultHistory) {
	t.Helper()
	fs := memfs.New()

	if err := SaveConfig(fs, DefaultConfig()); err != nil {
		t.Fatalf("save config: %v", err)
	}
	if err := InitHistory(fs, epoch); err != nil {
		t.Fatalf("init history: %v", err)
	}

	h, err := OpenHistory(fs)
	if err != nil {
		t.Fatalf("open history: %v", err)
	}
	return fs, h
}

func TestInitHistory(t *testing.T) {
	_, h := setupHistory(t)

	commits, err := h.Log(0)
	if err != nil {
		t.Fatalf("log: %v", err)
	}
	if len(commits) != 1 {
		t.Fatalf("commits = %d, want 1", len(commits))
	}

	c := commits[0]
	if c.Message != "flomo: initialize vault history" {
		t.Errorf("message = %q", c.Message)
	}
	if c.Author != DefaultAuthor {
		t.Errorf("author = %q, want %q", c.Author, DefaultAuthor)
	}
	if !c.Timestamp.Equal(epoch) {
		t.Errorf("timestamp = %v, want %v", c.Timestamp, epoch)
	}
	if len(c.Parents) != 0 {
		t.Errorf("parents = %v, want none", c.Parents)
	}
}

func TestOpenHistoryMissing(t *testing.T) {
	if _, err := OpenHistory(memfs.New()); !errors.Is(err, ErrNoHistory) {
		t.Fatalf("err = %v, want ErrNoHistory", err)
	}
}

func TestVaultHistoryCommit(t *testing.T) {
	fs, h := setupHistory(t)

	if err := util.WriteFile(fs, "flomo/memos/2024-01-01/memo@x_1.md", []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	c, err := h.Commit([]string{"flomo/memos/2024-01-01/memo@x_1.md"}, "flomo: import 1 memos", epoch.Add(time.Hour))
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if c == nil {
		t.Fatal("expected a commit")
	}
	if len(c.Parents) != 1 {
		t.Errorf("parents = %d, want 1", len(c.Parents))
	}

	again, err := h.Commit([]string{"flomo/memos/2024-01-01/memo@x_1.md"}, "flomo: import 0 memos", epoch.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("second commit: %v", err)
	}
	if again != nil {
		t.Errorf("unchanged tree committed as %s", again.Hash)
	}

	commits, err := h.Log(0)
	if err != nil {
		t.Fatalf("log: %v", err)
	}
	if len(commits) != 2 {
		t.Fatalf("commits = %d, want 2", len(commits))
	}
	if commits[0].Message != "flomo: import 1 memos" {
		t.Errorf("newest message = %q", commits[0].Message)
	}

	limited, err := h.Log(1)
	if err != nil {
		t.Fatalf("log: %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("limited log = %d, want 1", len(limited))
	}
}
