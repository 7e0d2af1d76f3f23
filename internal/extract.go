package internal

import (
	"fmt"
	"path"
	"regexp"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/PuerkitoBio/goquery"
)

const (
	UntitledMemo = "untitled"
	UndatedMemo  = "undated"
)

// Export is everything pulled out of one export page.
type Export struct {
	Memos []Memo
	Tags  []string
}

// idAttrs are checked in order on the memo container.
var idAttrs = []string{"data-memo-id", "data-id", "id"}

var (
	tagPattern   = regexp.MustCompile(`(?:^|\s)#([^\s#]+)`)
	stampPattern = regexp.MustCompile(`[-:\s]+`)
)

// Extract parses a normalized export page into memos in document order.
// Memo blocks that lack an id or a timestamp are still returned; a page
// with no recognizable memo blocks yields an empty export.
func Extract(normalized string) (*Export, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(normalized))
	if err != nil {
		return nil, fmt.Errorf("parse export: %w", err)
	}

	export := &Export{}
	doc.Find(".memo").Each(func(_ int, s *goquery.Selection) {
		export.Memos = append(export.Memos, extractMemo(s))
	})

	seen := make(map[string]bool)
	doc.Find("#tag option").Each(func(_ int, s *goquery.Selection) {
		tag := strings.TrimPrefix(strings.TrimSpace(s.Text()), "#")
		if tag == "" || seen[tag] {
			return
		}
		seen[tag] = true
		export.Tags = append(export.Tags, tag)
	})

	return export, nil
}

func extractMemo(s *goquery.Selection) Memo {
	stamp := strings.TrimSpace(s.Find(".time").First().Text())
	date, clock := splitStamp(stamp)

	body := s.Find(".content").First()

	return Memo{
		ID:          memoID(s),
		Date:        date,
		Time:        clock,
		Title:       titleFromStamp(stamp),
		Content:     bodyMarkdown(body),
		Tags:        bodyTags(body.Text()),
		Attachments: extractAttachments(s.Find(".files").First()),
	}
}

func memoID(s *goquery.Selection) string {
	for _, attr := range idAttrs {
		if v, ok := s.Attr(attr); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func splitStamp(stamp string) (date, clock string) {
	fields := strings.Fields(stamp)
	if len(fields) == 0 {
		return UndatedMemo, ""
	}
	if len(fields) > 1 {
		clock = fields[1]
	}
	return fields[0], clock
}

func titleFromStamp(stamp string) string {
	if stamp == "" {
		return UntitledMemo
	}
	return SanitizeFilename(stampPattern.ReplaceAllString(stamp, "_"))
}

func bodyMarkdown(body *goquery.Selection) string {
	inner, err := body.Html()
	if err != nil || strings.TrimSpace(inner) == "" {
		return strings.TrimSpace(body.Text())
	}

	md, err := htmltomarkdown.ConvertString(inner)
	if err != nil {
		return strings.TrimSpace(body.Text())
	}
	return strings.TrimSpace(md)
}

func bodyTags(text string) []string {
	text = strings.ReplaceAll(text, HighlightPlaceholder, " ")

	var tags []string
	seen := make(map[string]bool)
	for _, m := range tagPattern.FindAllStringSubmatch(text, -1) {
		if seen[m[1]] {
			continue
		}
		seen[m[1]] = true
		tags = append(tags, m[1])
	}
	return tags
}

func extractAttachments(files *goquery.Selection) []AttachmentRef {
	var refs []AttachmentRef
	seen := make(map[string]bool)

	files.Find("img[src], audio[src], video[src], a[href]").Each(func(_ int, s *goquery.Selection) {
		kind := AttachmentFile
		attr := "src"
		switch goquery.NodeName(s) {
		case "img":
			kind = AttachmentImage
		case "a":
			attr = "href"
		}

		src, _ := s.Attr(attr)
		src = strings.TrimSpace(src)
		if src == "" || seen[src] {
			return
		}
		seen[src] = true

		name := strings.TrimSpace(s.Text())
		if name == "" {
			name = path.Base(src)
		}
		refs = append(refs, AttachmentRef{Kind: kind, Src: src, Name: name})
	})

	return refs
}
