package internal

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// HighlightPlaceholder stands in for a <mark> delimiter while the memo body
// goes through HTML and markdown escaping. It is plain alphanumeric text so
// no escaping pass touches it.
const HighlightPlaceholder = "FLOMOHIGHLIGHTMARKPLACEHOLDER"

// HighlightDelimiter is the markdown syntax a placeholder expands to.
const HighlightDelimiter = "=="

// Normalize parses raw export HTML into a tree and serializes it back in
// canonical form. Malformed input produces a best-effort tree. Highlight
// elements are masked with HighlightPlaceholder on the way through.
func Normalize(raw string) (string, error) {
	doc, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	maskHighlights(doc, false)

	var buf bytes.Buffer
	if err := html.Render(&buf, doc); err != nil {
		return "", fmt.Errorf("render html: %w", err)
	}
	return buf.String(), nil
}

// Unmask expands every highlight placeholder into the markdown delimiter.
// Only the final content-assembly stage calls it.
func Unmask(s string) string {
	return strings.ReplaceAll(s, HighlightPlaceholder, HighlightDelimiter)
}

// maskHighlights frames every outermost <mark> with placeholders. Marks
// nested inside another mark are unwrapped without framing.
func maskHighlights(n *html.Node, inMark bool) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		isMark := c.Type == html.ElementNode && c.DataAtom == atom.Mark
		maskHighlights(c, inMark || isMark)
		if isMark {
			unwrapHighlight(n, c, !inMark)
		}
		c = next
	}
}

// unwrapHighlight replaces el (a child of parent) with its children, framed
// by two placeholder text nodes when frame is set. A mark directly after
// another one is separated by a space, otherwise the delimiters would run
// together as "==x====y==".
func unwrapHighlight(parent, el *html.Node, frame bool) {
	if frame {
		if prev := el.PrevSibling; prev != nil && prev.Type == html.TextNode &&
			strings.HasSuffix(prev.Data, HighlightPlaceholder) {
			parent.InsertBefore(&html.Node{Type: html.TextNode, Data: " "}, el)
		}
		parent.InsertBefore(&html.Node{Type: html.TextNode, Data: HighlightPlaceholder}, el)
	}
	for gc := el.FirstChild; gc != nil; {
		next := gc.NextSibling
		el.RemoveChild(gc)
		parent.InsertBefore(gc, el)
		gc = next
	}
	if frame {
		parent.InsertBefore(&html.Node{Type: html.TextNode, Data: HighlightPlaceholder}, el)
	}
	parent.RemoveChild(el)
}
