package internal

import (
	"fmt"
	"path"
	"strings"
)

// MemoSeparator joins memo contents merged into one file.
const MemoSeparator = "\n\n---\n\n"

type LayoutMode string

const (
	// LayoutBulk writes <base>/<date>/memo@<...>.md, used for archive imports.
	LayoutBulk LayoutMode = "bulk"
	// LayoutAdhoc writes <base>/<title>[_n].md, used for single page imports.
	LayoutAdhoc LayoutMode = "adhoc"
)

// Layout is the naming policy for one run.
type Layout struct {
	Mode        LayoutMode
	Base        string
	MergeByDate bool
	Content     ContentOptions
}

// PlannedFile is one output file of a run and the memos it carries.
// MemoCount includes memos without an id.
type PlannedFile struct {
	Path      string
	Date      string
	Content   string
	MemoIDs   []string
	MemoCount int
	// Sections holds the per memo contents of a merged day file.
	Sections []string
}

// Group buckets memos by exact date string. Groups are ordered by first
// appearance and keep extraction order inside.
func Group(kept []Memo) []DayGroup {
	index := make(map[string]int)
	var groups []DayGroup

	for seq, m := range kept {
		i, ok := index[m.Date]
		if !ok {
			i = len(groups)
			index[m.Date] = i
			groups = append(groups, DayGroup{Date: m.Date})
		}
		groups[i].Memos = append(groups[i].Memos, m)
		groups[i].Seq = append(groups[i].Seq, seq)
	}

	return groups
}

// AssignPaths turns day groups into output files. The returned paths are
// unique: the naming rules already disambiguate, and any remaining clash
// gets the next free numeric suffix in plan order.
func AssignPaths(groups []DayGroup, layout Layout) []PlannedFile {
	total := 0
	for _, g := range groups {
		total += len(g.Memos)
	}

	used := make(map[string]bool)
	var files []PlannedFile

	for _, g := range groups {
		for _, pf := range planGroup(g, layout, total) {
			pf.Path = uniquePath(pf.Path, used)
			files = append(files, pf)
		}
	}

	return files
}

func planGroup(g DayGroup, layout Layout, total int) []PlannedFile {
	date := SanitizeFilename(g.Date)

	switch layout.Mode {
	case LayoutBulk:
		dir := path.Join(layout.Base, date)
		if layout.MergeByDate {
			return []PlannedFile{merged(g, path.Join(dir, "memo@"+date+".md"), layout.Content)}
		}
		files := make([]PlannedFile, len(g.Memos))
		for i, m := range g.Memos {
			name := fmt.Sprintf("memo@%s_%d.md", m.Title, total-g.Seq[i])
			files[i] = single(g.Date, m, path.Join(dir, name), layout.Content)
		}
		return files

	default:
		if layout.MergeByDate && len(g.Memos) > 1 {
			return []PlannedFile{merged(g, path.Join(layout.Base, date+".md"), layout.Content)}
		}
		files := make([]PlannedFile, len(g.Memos))
		for i, m := range g.Memos {
			name := m.Title
			if len(g.Memos) > 1 {
				name = fmt.Sprintf("%s_%d", name, i+1)
			}
			files[i] = single(g.Date, m, path.Join(layout.Base, name+".md"), layout.Content)
		}
		return files
	}
}

func merged(g DayGroup, p string, opts ContentOptions) PlannedFile {
	parts := make([]string, len(g.Memos))
	var ids []string
	for i, m := range g.Memos {
		parts[i] = AssembleContent(m, opts)
		if m.HasID() {
			ids = append(ids, m.ID)
		}
	}
	return PlannedFile{
		Path:      p,
		Date:      g.Date,
		Content:   strings.Join(parts, MemoSeparator),
		MemoIDs:   ids,
		MemoCount: len(g.Memos),
		Sections:  parts,
	}
}

func single(date string, m Memo, p string, opts ContentOptions) PlannedFile {
	pf := PlannedFile{Path: p, Date: date, Content: AssembleContent(m, opts), MemoCount: 1}
	if m.HasID() {
		pf.MemoIDs = []string{m.ID}
	}
	return pf
}

// MergeInto returns existing with every section it does not already hold
// appended. A day file written by an earlier run keeps its memos.
func (pf PlannedFile) MergeInto(existing string) string {
	if pf.Sections == nil || strings.TrimSpace(existing) == "" {
		return pf.Content
	}

	have := make(map[string]bool)
	for _, section := range strings.Split(existing, MemoSeparator) {
		have[strings.TrimSpace(section)] = true
	}

	parts := []string{strings.TrimRight(existing, "\n")}
	for _, section := range pf.Sections {
		key := strings.TrimSpace(section)
		if have[key] {
			continue
		}
		have[key] = true
		parts = append(parts, section)
	}
	if len(parts) == 1 {
		return existing
	}
	return strings.Join(parts, MemoSeparator)
}

func uniquePath(p string, used map[string]bool) string {
	if !used[p] {
		used[p] = true
		return p
	}

	ext := path.Ext(p)
	stem := strings.TrimSuffix(p, ext)
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s_%d%s", stem, n, ext)
		if !used[candidate] {
			used[candidate] = true
			return candidate
		}
	}
}

// SanitizeFilename replaces characters that are unsafe in file names.
func SanitizeFilename(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r < 0x20, strings.ContainsRune(`/\:*?"<>|`, r):
			b.WriteRune('_')
		default:
			b.WriteRune(r)
		}
	}
	out := strings.Trim(b.String(), " .")
	if out == "" {
		return UntitledMemo
	}
	return out
}
