package internal

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/cache"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/filesystem"
)

const (
	DefaultBranch = "main"
	DefaultAuthor = "flomo-importer"
	DefaultEmail  = "flomo@local"

	historyDir = StateDirName + "/git"
)

type Commit struct {
	Hash      string
	Message   string
	Author    string
	Timestamp time.Time
	Parents   []string
}

// VaultHistory records import runs as commits in a git repository whose
// object store lives under .flomo/git and whose worktree is the vault.
type VaultHistory struct {
	repo     *git.Repository
	worktree *git.Worktree
}

func InitHistory(vault billy.Filesystem, when time.Time) error {
	store, err := vault.Chroot(historyDir)
	if err != nil {
		return fmt.Errorf("open history directory: %w", err)
	}
	storage := filesystem.NewStorage(store, cache.NewObjectLRUDefault())

	repo, err := git.InitWithOptions(storage, vault, git.InitOptions{
		DefaultBranch: plumbing.NewBranchReferenceName(DefaultBranch),
	})
	if err != nil {
		return fmt.Errorf("init repository: %w", err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("get worktree: %w", err)
	}

	if _, err := vault.Stat(ConfigFile); err == nil {
		if _, err := worktree.Add(ConfigFile); err != nil {
			return fmt.Errorf("stage config: %w", err)
		}
	}

	_, err = worktree.Commit("flomo: initialize vault history", &git.CommitOptions{
		Author:            signature(when),
		AllowEmptyCommits: true,
	})
	if err != nil {
		return fmt.Errorf("initial commit: %w", err)
	}

	return nil
}

func OpenHistory(vault billy.Filesystem) (*VaultHistory, error) {
	if _, err := vault.Stat(historyDir); err != nil {
		return nil, ErrNoHistory
	}

	store, err := vault.Chroot(historyDir)
	if err != nil {
		return nil, fmt.Errorf("open history directory: %w", err)
	}
	storage := filesystem.NewStorage(store, cache.NewObjectLRUDefault())

	repo, err := git.Open(storage, vault)
	if errors.Is(err, git.ErrRepositoryNotExists) {
		return nil, ErrNoHistory
	}
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("get worktree: %w", err)
	}

	return &VaultHistory{repo: repo, worktree: worktree}, nil
}

// Commit stages paths and commits them. It returns nil when none of the
// paths changed since the last commit.
func (h *VaultHistory) Commit(paths []string, message string, when time.Time) (*Commit, error) {
	for _, p := range paths {
		if _, err := h.worktree.Add(p); err != nil {
			return nil, fmt.Errorf("stage %s: %w", p, err)
		}
	}

	hash, err := h.worktree.Commit(message, &git.CommitOptions{Author: signature(when)})
	if errors.Is(err, git.ErrEmptyCommit) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	commit, err := h.repo.CommitObject(hash)
	if err != nil {
		return nil, fmt.Errorf("get commit: %w", err)
	}

	return toCommit(commit), nil
}

func (h *VaultHistory) Log(limit int) ([]*Commit, error) {
	iter, err := h.repo.Log(&git.LogOptions{})
	if err != nil {
		return nil, fmt.Errorf("get log: %w", err)
	}
	defer iter.Close()

	var commits []*Commit
	err = iter.ForEach(func(c *object.Commit) error {
		if limit > 0 && len(commits) >= limit {
			return io.EOF
		}
		commits = append(commits, toCommit(c))
		return nil
	})
	if err != nil && err != io.EOF {
		return nil, err
	}

	return commits, nil
}

func signature(when time.Time) *object.Signature {
	return &object.Signature{Name: DefaultAuthor, Email: DefaultEmail, When: when}
}

func toCommit(c *object.Commit) *Commit {
	var parents []string
	for _, p := range c.ParentHashes {
		parents = append(parents, p.String())
	}

	return &Commit{
		Hash:      c.Hash.String(),
		Message:   strings.TrimSpace(c.Message),
		Author:    c.Author.Name,
		Timestamp: c.Author.When,
		Parents:   parents,
	}
}
