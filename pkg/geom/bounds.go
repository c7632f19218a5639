package geom

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/matzehuels/docmap/pkg/model"
)

// Text measurement constants shared by sizing and drawing.
const (
	CharWidthRatio = 0.6  // average glyph advance as a fraction of font size
	LineHeight     = 1.5  // line box height as a multiple of font size
	IconGap        = 8.0  // space between icon and label
	StatusSlot     = 16.0 // room reserved for the status dot
)

// SizeRule is one row of the per-type size table.
type SizeRule struct {
	Type            model.NodeType `json:"type"`
	MinWidth        float64        `json:"minWidth"`
	MaxWidth        float64        `json:"maxWidth"`
	Height          float64        `json:"height"`
	CollapsedHeight float64        `json:"collapsedHeight,omitempty"`
	FontSize        float64        `json:"fontSize"`
	PadX            float64        `json:"padX"`
	PadY            float64        `json:"padY"`
}

var sizeTable = map[model.NodeType]SizeRule{
	model.NodeProduct:   {Type: model.NodeProduct, MinWidth: 200, MaxWidth: 320, Height: 80, FontSize: 16, PadX: 24, PadY: 16},
	model.NodeFeature:   {Type: model.NodeFeature, MinWidth: 160, MaxWidth: 260, Height: 64, FontSize: 14, PadX: 20, PadY: 12},
	model.NodeComponent: {Type: model.NodeComponent, MinWidth: 120, MaxWidth: 200, Height: 48, FontSize: 12, PadX: 16, PadY: 10},
	model.NodeTextBlock: {Type: model.NodeTextBlock, MinWidth: 160, MaxWidth: 320, FontSize: 13, PadX: 16, PadY: 12},
	model.NodeGroup:     {Type: model.NodeGroup, MinWidth: 220, MaxWidth: 400, Height: 120, CollapsedHeight: 48, FontSize: 13, PadX: 16, PadY: 12},
}

// SizeFor returns the size rule for a node type. Unknown types use the
// component row.
func SizeFor(t model.NodeType) SizeRule {
	if r, ok := sizeTable[t]; ok {
		return r
	}
	r := sizeTable[model.NodeComponent]
	r.Type = t
	return r
}

// SizeRules returns every rule of the table in model.NodeTypes order.
func SizeRules() []SizeRule {
	rules := make([]SizeRule, 0, len(model.NodeTypes))
	for _, t := range model.NodeTypes {
		rules = append(rules, sizeTable[t])
	}
	return rules
}

// CharsPerLine is how many characters fit on one line inside width.
func (r SizeRule) CharsPerLine(width float64) int {
	inner := width - 2*r.PadX
	n := int(math.Floor(inner / (r.FontSize * CharWidthRatio)))
	if n < 1 {
		return 1
	}
	return n
}

// CSS renders the rule's typography and padding as a class for the browser
// node components. It carries no width or height: the box of every node is
// fixed by BoxCSS from NodeBounds, so the browser never sizes a node from
// its own glyph metrics.
func (r SizeRule) CSS() string {
	var b strings.Builder
	fmt.Fprintf(&b, ".docmap-node--%s{", r.Type)
	b.WriteString("box-sizing:border-box;overflow:hidden;")
	fmt.Fprintf(&b, "font-size:%spx;line-height:%s;", Num(r.FontSize), Num(LineHeight))
	fmt.Fprintf(&b, "padding:%spx %spx;}", Num(r.PadY), Num(r.PadX))
	return b.String()
}

// BoxCSS is the inline style that pins a node element to its bounds.
func BoxCSS(b Rect) string {
	return fmt.Sprintf("width:%spx;height:%spx;", Num(b.Width), Num(b.Height))
}

// StyleSheet concatenates the CSS of every known node type.
func StyleSheet() string {
	rules := SizeRules()
	sort.SliceStable(rules, func(i, j int) bool { return rules[i].Type < rules[j].Type })
	parts := make([]string, len(rules))
	for i, r := range rules {
		parts[i] = r.CSS()
	}
	return strings.Join(parts, "\n") + "\n"
}

// NodeBounds returns the bounding box of a node in canvas space. Stored
// width and height win when finite and positive; otherwise the size table
// estimates them from the node's text. Non-finite positions become 0.
func NodeBounds(n model.Node) Rect {
	x, y := n.Position.X, n.Position.Y
	if !IsFinite(x) {
		x = 0
	}
	if !IsFinite(y) {
		y = 0
	}
	w, h := NodeSize(n)
	return Rect{X: x, Y: y, Width: w, Height: h}
}

// NodeSize returns the width and height NodeBounds uses.
func NodeSize(n model.Node) (float64, float64) {
	r := SizeFor(n.Type)
	w := explicit(n.Width)
	if w == 0 {
		w = estimateWidth(n, r)
	}
	h := explicit(n.Height)
	if h == 0 {
		h = estimateHeight(n, r, w)
	}
	return w, h
}

func explicit(v *float64) float64 {
	if v == nil || !IsFinite(*v) || *v <= 0 {
		return 0
	}
	return *v
}

func estimateWidth(n model.Node, r SizeRule) float64 {
	if n.Type == model.NodeTextBlock {
		longest := 0
		for _, line := range strings.Split(PlainText(n.DisplayContent()), "\n") {
			longest = max(longest, runeCount(line))
		}
		return Clamp(float64(longest)*r.FontSize*CharWidthRatio+2*r.PadX, r.MinWidth, r.MaxWidth)
	}
	w := TextWidth(n.DisplayLabel(), r.FontSize) + 2*r.PadX
	if n.Data.Icon != "" {
		w += r.FontSize + IconGap
	}
	if n.Data.Status != "" {
		w += StatusSlot
	}
	return Clamp(w, r.MinWidth, r.MaxWidth)
}

func estimateHeight(n model.Node, r SizeRule, width float64) float64 {
	switch n.Type {
	case model.NodeTextBlock:
		lines := len(TextBlockLines(n, r, width))
		return 2*r.PadY + float64(max(lines, 1))*r.FontSize*LineHeight
	case model.NodeGroup:
		if n.Data.Collapsed {
			return r.CollapsedHeight
		}
	}
	return r.Height
}

// TextBlockLines wraps a text block's plain content to the given width.
func TextBlockLines(n model.Node, r SizeRule, width float64) []string {
	return WrapText(PlainText(n.DisplayContent()), r.CharsPerLine(width))
}
