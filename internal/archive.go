package internal

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
)

// attachmentMarker is the export folder holding memo attachments.
const attachmentMarker = "file"

// Archive is a decompressed export held in memory.
type Archive struct {
	fs   billy.Filesystem
	root string
}

// OpenArchive decompresses a zip export. The export root is the top-level
// directory of the first entry.
func OpenArchive(data []byte) (*Archive, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	a := &Archive{fs: memfs.New()}
	first := true

	for _, f := range zr.File {
		name, ok := entryName(f.Name)
		if !ok {
			continue
		}
		if first {
			a.root = topDir(name, f.FileInfo().IsDir())
			first = false
		}

		if f.FileInfo().IsDir() {
			if err := a.fs.MkdirAll(name, 0755); err != nil {
				return nil, fmt.Errorf("extract %s: %w", name, err)
			}
			continue
		}
		if err := extractEntry(a.fs, f, name); err != nil {
			return nil, fmt.Errorf("extract %s: %w", name, err)
		}
	}

	return a, nil
}

// Filesystem exposes the decompressed tree.
func (a *Archive) Filesystem() billy.Filesystem {
	return a.fs
}

// ExportPage returns the first *.html file of the export root.
func (a *Archive) ExportPage() (string, error) {
	infos, err := a.fs.ReadDir(rootOrDot(a.root))
	if err != nil {
		return "", fmt.Errorf("list export root: %w", err)
	}

	var pages []string
	for _, info := range infos {
		if !info.IsDir() && strings.HasSuffix(strings.ToLower(info.Name()), ".html") {
			pages = append(pages, info.Name())
		}
	}
	if len(pages) == 0 {
		return "", ErrExportPageMissing
	}
	sort.Strings(pages)

	data, err := util.ReadFile(a.fs, path.Join(a.root, pages[0]))
	if err != nil {
		return "", fmt.Errorf("read export page: %w", err)
	}
	return string(data), nil
}

// AttachmentDir returns the first directory named "file" in the archive, in
// lexical walk order. ok is false when the export has no attachments.
func (a *Archive) AttachmentDir() (dir string, ok bool) {
	candidate := path.Join(a.root, attachmentMarker)
	if info, err := a.fs.Stat(candidate); err == nil && info.IsDir() {
		return candidate, true
	}

	_ = util.Walk(a.fs, rootOrDot(a.root), func(p string, info os.FileInfo, err error) error {
		if err != nil || !info.IsDir() {
			return nil
		}
		if info.Name() == attachmentMarker {
			dir, ok = filepath.ToSlash(p), true
			return errFound
		}
		return nil
	})
	return dir, ok
}

var errFound = errors.New("found")

func extractEntry(fs billy.Filesystem, f *zip.File, name string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	if err := fs.MkdirAll(path.Dir(name), 0755); err != nil {
		return err
	}

	out, err := fs.Create(name)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

// entryName cleans a zip entry name and rejects entries escaping the root.
func entryName(raw string) (string, bool) {
	name := path.Clean("/" + strings.ReplaceAll(raw, "\\", "/"))
	name = strings.TrimPrefix(name, "/")
	if name == "" || name == "." {
		return "", false
	}
	return name, true
}

func topDir(name string, isDir bool) string {
	if i := strings.Index(name, "/"); i >= 0 {
		return name[:i]
	}
	if isDir {
		return name
	}
	return ""
}

func rootOrDot(root string) string {
	if root == "" {
		return "."
	}
	return root
}
