package internal

import (
	"fmt"
	"path"
	"strings"
)

// ContentOptions controls the final content-assembly stage.
type ContentOptions struct {
	AllowBilink bool
	// AttachmentDir is the vault folder the export's "file/" tree is copied to.
	// Empty leaves attachment links as they appear in the export.
	AttachmentDir string
}

var bilinkReplacer = strings.NewReplacer(`\[\[`, "[[", `\]\]`, "]]")

// AssembleContent renders the final markdown for one memo: body, attachment
// links, expanded highlight placeholders and, when allowed, live bilinks.
func AssembleContent(m Memo, opts ContentOptions) string {
	var b strings.Builder
	b.WriteString(m.Content)

	for _, ref := range m.Attachments {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		target := resolveAttachment(ref.Src, opts.AttachmentDir)
		if ref.Kind == AttachmentImage {
			fmt.Fprintf(&b, "![](<%s>)", target)
		} else {
			fmt.Fprintf(&b, "[%s](<%s>)", ref.Name, target)
		}
	}

	res := Unmask(b.String())
	if opts.AllowBilink {
		res = UnescapeBilinks(res)
	}
	return res
}

// UnescapeBilinks turns escaped wiki links back into live [[...]] syntax.
func UnescapeBilinks(s string) string {
	return bilinkReplacer.Replace(s)
}

func resolveAttachment(src, dir string) string {
	if dir == "" || strings.Contains(src, "://") {
		return src
	}
	rel := strings.TrimPrefix(src, "./")
	if !strings.HasPrefix(rel, attachmentMarker+"/") {
		return src
	}
	return path.Join(dir, strings.TrimPrefix(rel, attachmentMarker+"/"))
}
