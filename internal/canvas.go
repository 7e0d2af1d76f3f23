package internal

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const CanvasFile = "Flomo Canvas.canvas"

const (
	canvasColumns = 8
	canvasGap     = 50
)

var canvasNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://flomoapp.com/canvas"))

// CanvasSizes maps canvasSize to node width and height.
var CanvasSizes = map[string][2]int{
	"S": {230, 280},
	"M": {400, 500},
	"L": {600, 750},
}

// Canvas is a JSON Canvas document.
type Canvas struct {
	Nodes []CanvasNode `json:"nodes"`
	Edges []CanvasEdge `json:"edges"`
}

type CanvasNode struct {
	ID     string `json:"id"`
	Type   string `json:"type"`
	File   string `json:"file,omitempty"`
	Text   string `json:"text,omitempty"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type CanvasEdge struct {
	ID       string `json:"id"`
	FromNode string `json:"fromNode"`
	FromSide string `json:"fromSide"`
	ToNode   string `json:"toNode"`
	ToSide   string `json:"toSide"`
}

// BuildCanvas lays memo files out on a grid. Every date starts a new row and
// wraps after canvasColumns nodes; memos of one date are chained by edges.
func BuildCanvas(sink Sink, files []MemoFile, option ArtifactOption, size string) (*Canvas, error) {
	dims, ok := CanvasSizes[size]
	if !ok {
		dims = CanvasSizes["M"]
	}
	w, h := dims[0], dims[1]

	c := &Canvas{Nodes: []CanvasNode{}, Edges: []CanvasEdge{}}
	row, col := 0, 0
	prevDate := ""
	prevID := ""

	for i, f := range files {
		if i > 0 && (f.Date != prevDate || col == canvasColumns) {
			row++
			col = 0
		}

		node := CanvasNode{
			ID:     canvasID(f.Path),
			X:      col * (w + canvasGap),
			Y:      row * (h + canvasGap),
			Width:  w,
			Height: h,
		}
		if option == OptionCopyWithContent {
			text, err := sink.ReadText(f.Path)
			if err != nil {
				return nil, err
			}
			node.Type = "text"
			node.Text = strings.TrimSpace(text)
		} else {
			node.Type = "file"
			node.File = f.Path
		}
		c.Nodes = append(c.Nodes, node)

		if prevID != "" && f.Date == prevDate {
			fromSide, toSide := "right", "left"
			if col == 0 {
				fromSide, toSide = "bottom", "top"
			}
			c.Edges = append(c.Edges, CanvasEdge{
				ID:       canvasID(prevID + "->" + node.ID),
				FromNode: prevID,
				FromSide: fromSide,
				ToNode:   node.ID,
				ToSide:   toSide,
			})
		}

		prevID = node.ID
		prevDate = f.Date
		col++
	}

	return c, nil
}

func (c *Canvas) Render() (string, error) {
	data, err := json.MarshalIndent(c, "", "\t")
	if err != nil {
		return "", fmt.Errorf("marshal canvas: %w", err)
	}
	return string(data), nil
}

func canvasID(key string) string {
	return strings.ReplaceAll(uuid.NewSHA1(canvasNamespace, []byte(key)).String(), "-", "")[:16]
}
