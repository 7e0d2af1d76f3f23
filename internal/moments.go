package internal

import (
	"fmt"
	"path"
	"regexp"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const MomentsFile = "Flomo Moments.md"

// MemoFile is one memo document already present in the vault.
type MemoFile struct {
	Path string
	Date string
}

var datePrefix = regexp.MustCompile(`^(\d{4})[-_](\d{2})[-_](\d{2})`)

// ListMemoFiles returns every memo document under the layout base, newest
// date first and by name inside a date.
func ListMemoFiles(sink Sink, layout Layout) ([]MemoFile, error) {
	var files []MemoFile

	if layout.Mode == LayoutBulk {
		dates, err := sink.ListDirs(layout.Base)
		if err != nil {
			return nil, err
		}
		for _, date := range dates {
			names, err := sink.ListFiles(path.Join(layout.Base, date))
			if err != nil {
				return nil, err
			}
			for _, name := range names {
				if isMemoDocument(name) {
					files = append(files, MemoFile{Path: path.Join(layout.Base, date, name), Date: date})
				}
			}
		}
	} else {
		names, err := sink.ListFiles(layout.Base)
		if err != nil {
			return nil, err
		}
		for _, name := range names {
			if isMemoDocument(name) {
				files = append(files, MemoFile{Path: path.Join(layout.Base, name), Date: dateOfName(name)})
			}
		}
	}

	sort.SliceStable(files, func(i, j int) bool {
		if files[i].Date != files[j].Date {
			return files[i].Date > files[j].Date
		}
		return files[i].Path < files[j].Path
	})
	return files, nil
}

func isMemoDocument(name string) bool {
	return strings.HasSuffix(name, ".md") && !strings.HasPrefix(name, ".") && name != MomentsFile
}

func dateOfName(name string) string {
	m := datePrefix.FindStringSubmatch(name)
	if m == nil {
		return UndatedMemo
	}
	return m[1] + "-" + m[2] + "-" + m[3]
}

type momentsFrontMatter struct {
	CreatedDate string   `yaml:"createdDate"`
	MemoCount   int      `yaml:"memoCount"`
	Tags        []string `yaml:"tags"`
}

// BuildMoments renders the moments document for files. With
// OptionCopyWithLink each memo is embedded, otherwise its text is inlined.
func BuildMoments(sink Sink, files []MemoFile, option ArtifactOption, now time.Time) (string, error) {
	fm, err := yaml.Marshal(momentsFrontMatter{
		CreatedDate: now.Format("2006-01-02"),
		MemoCount:   len(files),
		Tags:        []string{"flomo", "moments"},
	})
	if err != nil {
		return "", fmt.Errorf("marshal front matter: %w", err)
	}

	var b strings.Builder
	b.WriteString("---\n")
	b.Write(fm)
	b.WriteString("---\n")
	b.WriteString("#flomo #moments\n")

	entries := make([]string, 0, len(files))
	for _, f := range files {
		if option == OptionCopyWithContent {
			text, err := sink.ReadText(f.Path)
			if err != nil {
				return "", err
			}
			entries = append(entries, strings.TrimSpace(text))
			continue
		}
		entries = append(entries, "![["+strings.TrimSuffix(f.Path, ".md")+"]]")
	}

	if len(entries) > 0 {
		b.WriteString("\n")
		b.WriteString(strings.Join(entries, MemoSeparator))
		b.WriteString("\n")
	}

	return b.String(), nil
}
