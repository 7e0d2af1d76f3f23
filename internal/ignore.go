package internal

import (
	"errors"
	"os"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

// IgnoreFilename lists attachment paths, relative to the export's "file/"
// folder, that are never copied into the vault.
const IgnoreFilename = ".flomoignore"

type IgnoreMatcher struct {
	patterns []gitignore.Pattern
}

// NewIgnoreMatcher reads IgnoreFilename from the root of fs. A missing file
// yields a matcher that matches nothing.
func NewIgnoreMatcher(fs billy.Filesystem) (*IgnoreMatcher, error) {
	data, err := util.ReadFile(fs, IgnoreFilename)
	if errors.Is(err, os.ErrNotExist) {
		return &IgnoreMatcher{}, nil
	}
	if err != nil {
		return nil, err
	}
	return ParseIgnore(string(data)), nil
}

// ParseIgnore builds a matcher from gitignore-style lines.
func ParseIgnore(text string) *IgnoreMatcher {
	m := &IgnoreMatcher{}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		m.patterns = append(m.patterns, gitignore.ParsePattern(line, nil))
	}
	return m
}

// Match reports whether the slash separated rel path is excluded.
func (m *IgnoreMatcher) Match(rel string, isDir bool) bool {
	if m == nil || len(m.patterns) == 0 {
		return false
	}

	parts := strings.Split(strings.Trim(rel, "/"), "/")
	return gitignore.NewMatcher(m.patterns).Match(parts, isDir)
}
