package export

import (
	"bytes"
	"fmt"
	"math"

	"github.com/matzehuels/docmap/pkg/canvas"
	"github.com/matzehuels/docmap/pkg/geom"
	"github.com/matzehuels/docmap/pkg/model"
)

const (
	cardRadius   = 8.0
	statusRadius = 4.0
	statusInset  = 12.0
)

func writeNode(buf *bytes.Buffer, rn canvas.RenderableNode, n model.Node) {
	fmt.Fprintf(buf, `      <g id="node-%s" class="%s">`+"\n", escapeXML(rn.ID), rn.Class)
	switch {
	case !rn.Known:
		writeCard(buf, rn, n, false)
	case rn.Type == model.NodeTextBlock:
		writeTextBlock(buf, rn, n)
	case rn.Type == model.NodeGroup:
		writeGroup(buf, rn, n)
	default:
		writeCard(buf, rn, n, rn.Type != model.NodeComponent)
	}
	buf.WriteString("      </g>\n")
}

// writeCard draws a product, feature or component card: a rounded box with
// an optional icon, the label, an optional description and the status dot.
func writeCard(buf *bytes.Buffer, rn canvas.RenderableNode, n model.Node, withDescription bool) {
	num := geom.Num
	b, p := rn.Bounds, rn.Palette
	rule := geom.SizeFor(rn.Type)
	radius := cardRadius
	if rn.Type == model.NodeProduct {
		radius = 12
	}
	fmt.Fprintf(buf, `        <rect x="%s" y="%s" width="%s" height="%s" rx="%s" fill="%s" stroke="%s" stroke-width="1.5"/>`+"\n",
		num(b.X), num(b.Y), num(b.Width), num(b.Height), num(radius), escapeXML(p.Fill), escapeXML(p.Stroke))

	x := b.X + rule.PadX
	avail := b.Width - 2*rule.PadX
	if n.Data.Status != "" {
		avail -= geom.StatusSlot
	}
	if n.Data.Icon != "" {
		fmt.Fprintf(buf, `        <text x="%s" y="%s" font-size="%s" dominant-baseline="central">%s</text>`+"\n",
			num(x), num(b.Center().Y), num(rule.FontSize), escapeXML(geom.Truncate(n.Data.Icon, 2)))
		x += rule.FontSize + geom.IconGap
		avail -= rule.FontSize + geom.IconGap
	}

	desc := ""
	if withDescription {
		desc = geom.PlainText(n.Data.Description)
	}
	labelY := b.Center().Y
	if desc != "" {
		labelY = b.Y + b.Height/2 - rule.FontSize*0.45
	}
	weight := "600"
	if rn.Type == model.NodeProduct {
		weight = "700"
	}
	fmt.Fprintf(buf, `        <text x="%s" y="%s" font-size="%s" font-weight="%s" fill="%s" dominant-baseline="central">%s</text>`+"\n",
		num(x), num(labelY), num(rule.FontSize), weight, escapeXML(p.Text),
		escapeXML(geom.Truncate(rn.Label, fitChars(avail, rule.FontSize))))

	if desc != "" {
		size := rule.FontSize - 3
		fmt.Fprintf(buf, `        <text x="%s" y="%s" font-size="%s" fill="%s" dominant-baseline="central">%s</text>`+"\n",
			num(x), num(b.Y+b.Height/2+rule.FontSize*0.65), num(size), escapeXML(p.Muted),
			escapeXML(geom.Truncate(desc, fitChars(avail, size))))
	}
	writeStatus(buf, rn)
}

func writeStatus(buf *bytes.Buffer, rn canvas.RenderableNode) {
	if rn.StatusColor == "" {
		return
	}
	b := rn.Bounds
	fmt.Fprintf(buf, `        <circle cx="%s" cy="%s" r="%s" fill="%s"/>`+"\n",
		geom.Num(b.Right()-statusInset), geom.Num(b.Y+statusInset), geom.Num(statusRadius), escapeXML(rn.StatusColor))
}

// writeTextBlock draws the wrapped plain text of a text block, one <text>
// per line, with the same wrapping the bounds were estimated with.
func writeTextBlock(buf *bytes.Buffer, rn canvas.RenderableNode, n model.Node) {
	num := geom.Num
	b, p := rn.Bounds, rn.Palette
	rule := geom.SizeFor(model.NodeTextBlock)
	fmt.Fprintf(buf, `        <rect x="%s" y="%s" width="%s" height="%s" rx="6" fill="%s" stroke="%s" stroke-width="1"/>`+"\n",
		num(b.X), num(b.Y), num(b.Width), num(b.Height), escapeXML(p.Fill), escapeXML(p.Stroke))

	step := rule.FontSize * geom.LineHeight
	for i, line := range geom.TextBlockLines(n, rule, b.Width) {
		if line == "" {
			continue
		}
		y := b.Y + rule.PadY + step*float64(i) + step/2
		fmt.Fprintf(buf, `        <text x="%s" y="%s" font-size="%s" fill="%s" dominant-baseline="central">%s</text>`+"\n",
			num(b.X+rule.PadX), num(y), num(rule.FontSize), escapeXML(p.Text), escapeXML(line))
	}
}

// writeGroup draws a dashed container with its label in the top-left corner
// and, when collapsed, a badge with the number of hidden children.
func writeGroup(buf *bytes.Buffer, rn canvas.RenderableNode, n model.Node) {
	num := geom.Num
	b, p := rn.Bounds, rn.Palette
	rule := geom.SizeFor(model.NodeGroup)
	fmt.Fprintf(buf, `        <rect x="%s" y="%s" width="%s" height="%s" rx="%s" fill="%s" fill-opacity="0.6" stroke="%s" stroke-width="1.5" stroke-dasharray="6 4"/>`+"\n",
		num(b.X), num(b.Y), num(b.Width), num(b.Height), num(cardRadius), escapeXML(p.Fill), escapeXML(p.Stroke))

	avail := b.Width - 2*rule.PadX
	badge := ""
	if n.Data.Collapsed && n.Data.ChildCount > 0 {
		badge = fmt.Sprintf("%d", n.Data.ChildCount)
		avail -= geom.TextWidth(badge, rule.FontSize-2) + 16
	}
	fmt.Fprintf(buf, `        <text x="%s" y="%s" font-size="%s" font-weight="600" fill="%s" dominant-baseline="central">%s</text>`+"\n",
		num(b.X+rule.PadX), num(b.Y+rule.PadY+rule.FontSize/2), num(rule.FontSize), escapeXML(p.Text),
		escapeXML(geom.Truncate(rn.Label, fitChars(avail, rule.FontSize))))

	if badge != "" {
		size := rule.FontSize - 2
		w := geom.TextWidth(badge, size) + 12
		x := b.Right() - rule.PadX - w
		y := b.Y + rule.PadY
		fmt.Fprintf(buf, `        <rect x="%s" y="%s" width="%s" height="%s" rx="%s" fill="%s"/>`+"\n",
			num(x), num(y), num(w), num(rule.FontSize), num(rule.FontSize/2), escapeXML(p.Stroke))
		fmt.Fprintf(buf, `        <text x="%s" y="%s" font-size="%s" fill="#ffffff" text-anchor="middle" dominant-baseline="central">%s</text>`+"\n",
			num(x+w/2), num(y+rule.FontSize/2), num(size), badge)
	}
}

// fitChars is how many characters of the given font size fit in width.
func fitChars(width, fontSize float64) int {
	if width <= 0 || fontSize <= 0 {
		return 1
	}
	return max(1, int(math.Floor(width/(fontSize*geom.CharWidthRatio)+1e-6)))
}
