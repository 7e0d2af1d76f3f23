package internal

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
)

// Sink is where an import run persists its output.
type Sink interface {
	EnsureDir(dir string) error
	// WriteText overwrites name; a reader never observes a partial file.
	// The parent directory must already exist, see EnsureDir.
	WriteText(name, content string) error
	ReadText(name string) (string, error)
	ListFiles(dir string) ([]string, error)
	ListDirs(dir string) ([]string, error)
	// CopyTree copies every regular file below srcDir on src to dstDir and
	// returns the number of files copied. A missing srcDir copies nothing.
	CopyTree(src billy.Filesystem, srcDir, dstDir string) (int, error)
}

// FSSink is a Sink over a billy filesystem rooted at the vault.
type FSSink struct {
	fs     billy.Filesystem
	ignore *IgnoreMatcher
}

func NewFSSink(fs billy.Filesystem, ignore *IgnoreMatcher) *FSSink {
	return &FSSink{fs: fs, ignore: ignore}
}

func (s *FSSink) Filesystem() billy.Filesystem {
	return s.fs
}

func (s *FSSink) EnsureDir(dir string) error {
	if dir == "" || dir == "." {
		return nil
	}
	if err := s.fs.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}
	return nil
}

func (s *FSSink) WriteText(name, content string) error {
	tmp, err := util.TempFile(s.fs, path.Dir(name), "."+path.Base(name)+".tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := io.WriteString(tmp, content); err != nil {
		_ = tmp.Close()
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := s.fs.Rename(tmpName, name); err != nil {
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

func (s *FSSink) ReadText(name string) (string, error) {
	data, err := util.ReadFile(s.fs, name)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", name, err)
	}
	return string(data), nil
}

func (s *FSSink) ListFiles(dir string) ([]string, error) {
	return s.list(dir, false)
}

func (s *FSSink) ListDirs(dir string) ([]string, error) {
	return s.list(dir, true)
}

func (s *FSSink) list(dir string, dirs bool) ([]string, error) {
	infos, err := s.fs.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}

	var names []string
	for _, info := range infos {
		if info.IsDir() == dirs {
			names = append(names, info.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func (s *FSSink) CopyTree(src billy.Filesystem, srcDir, dstDir string) (int, error) {
	if _, err := src.Stat(srcDir); errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}

	copied := 0
	err := util.Walk(src, srcDir, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(srcDir, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if rel == "." {
			return nil
		}

		if s.ignore.Match(rel, info.IsDir()) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if info.IsDir() {
			return nil
		}

		if err := s.copyFile(src, p, path.Join(dstDir, rel)); err != nil {
			return err
		}
		copied++
		return nil
	})
	if err != nil {
		return copied, fmt.Errorf("copy %s: %w", srcDir, err)
	}

	return copied, nil
}

func (s *FSSink) copyFile(src billy.Filesystem, from, to string) error {
	in, err := src.Open(from)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := s.EnsureDir(path.Dir(to)); err != nil {
		return err
	}

	out, err := s.fs.Create(to)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
