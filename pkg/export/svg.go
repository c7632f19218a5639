package export

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"slices"

	"github.com/matzehuels/docmap/pkg/canvas"
	"github.com/matzehuels/docmap/pkg/geom"
)

const fontFamily = "Inter, system-ui, -apple-system, Segoe UI, sans-serif"

const (
	labelFontSize = 11.0
	labelPadX     = 6.0
	labelHeight   = 18.0
)

func (d *document) write(buf *bytes.Buffer) {
	n := geom.Num
	fmt.Fprintf(buf, `<?xml version="1.0" encoding="UTF-8"?>`+"\n")
	fmt.Fprintf(buf, `<svg xmlns="http://www.w3.org/2000/svg" width="%s" height="%s" viewBox="0 0 %s %s" font-family="%s">`+"\n",
		n(d.width), n(d.height), n(d.width), n(d.height), fontFamily)
	if d.opts.Title != "" {
		fmt.Fprintf(buf, "  <title>%s</title>\n", escapeXML(d.opts.Title))
	}
	d.writeDefs(buf)
	if d.opts.Background != "none" {
		fmt.Fprintf(buf, `  <rect width="100%%" height="100%%" fill="%s"/>`+"\n", escapeXML(d.opts.Background))
	}

	tx, ty := d.opts.Padding-d.bbox.X, d.opts.Padding-d.bbox.Y
	fmt.Fprintf(buf, `  <g transform="translate(%s,%s)">`+"\n", n(tx), n(ty))

	buf.WriteString(`    <g class="docmap-edges">` + "\n")
	for _, e := range d.edges {
		writeEdge(buf, e)
	}
	buf.WriteString("    </g>\n")

	buf.WriteString(`    <g class="docmap-edge-labels">` + "\n")
	for _, e := range d.edges {
		if e.Label != "" {
			writeEdgeLabel(buf, e)
		}
	}
	buf.WriteString("    </g>\n")

	buf.WriteString(`    <g class="docmap-nodes">` + "\n")
	for i, rn := range d.nodes {
		writeNode(buf, rn, d.source[i])
	}
	buf.WriteString("    </g>\n")

	buf.WriteString("  </g>\n")
	buf.WriteString("</svg>\n")
}

// writeDefs emits one arrowhead marker per stroke colour in use, sorted by
// marker id.
func (d *document) writeDefs(buf *bytes.Buffer) {
	colors := map[string]string{}
	for _, e := range d.edges {
		if e.MarkerStart != "" {
			colors[e.MarkerStart] = e.Style.Stroke
		}
		if e.MarkerEnd != "" {
			colors[e.MarkerEnd] = e.Style.Stroke
		}
	}
	if len(colors) == 0 {
		return
	}
	ids := make([]string, 0, len(colors))
	for id := range colors {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	buf.WriteString("  <defs>\n")
	for _, id := range ids {
		fmt.Fprintf(buf, `    <marker id="%s" viewBox="0 0 10 10" refX="9" refY="5" markerWidth="8" markerHeight="8" markerUnits="userSpaceOnUse" orient="auto-start-reverse">`+"\n", id)
		fmt.Fprintf(buf, `      <path d="M0,0 L10,5 L0,10 z" fill="%s"/>`+"\n", escapeXML(colors[id]))
		buf.WriteString("    </marker>\n")
	}
	buf.WriteString("  </defs>\n")
}

func writeEdge(buf *bytes.Buffer, e canvas.RenderableEdge) {
	fmt.Fprintf(buf, `      <path id="edge-%s" class="docmap-edge docmap-edge--%s" d="%s" fill="none" stroke="%s" stroke-width="%s"`,
		escapeXML(e.ID), e.Kind, e.Path, escapeXML(e.Style.Stroke), geom.Num(e.Style.StrokeWidth))
	if e.Style.Dashed() {
		fmt.Fprintf(buf, ` stroke-dasharray="%s"`, e.Style.Dasharray())
	}
	if e.MarkerStart != "" {
		fmt.Fprintf(buf, ` marker-start="url(#%s)"`, e.MarkerStart)
	}
	if e.MarkerEnd != "" {
		fmt.Fprintf(buf, ` marker-end="url(#%s)"`, e.MarkerEnd)
	}
	buf.WriteString("/>\n")
}

// writeEdgeLabel draws the label on a pill centred on the path midpoint.
func writeEdgeLabel(buf *bytes.Buffer, e canvas.RenderableEdge) {
	n := geom.Num
	text := geom.Truncate(e.Label, 40)
	w := geom.TextWidth(text, labelFontSize) + 2*labelPadX
	x, y := e.LabelPoint.X-w/2, e.LabelPoint.Y-labelHeight/2
	fmt.Fprintf(buf, `      <rect x="%s" y="%s" width="%s" height="%s" rx="%s" fill="#ffffff" stroke="%s" stroke-width="1"/>`+"\n",
		n(x), n(y), n(w), n(labelHeight), n(labelHeight/2), escapeXML(e.Style.Stroke))
	fmt.Fprintf(buf, `      <text x="%s" y="%s" font-size="%s" fill="#334155" text-anchor="middle" dominant-baseline="central">%s</text>`+"\n",
		n(e.LabelPoint.X), n(e.LabelPoint.Y), n(labelFontSize), escapeXML(text))
}

// escapeXML escapes s for use in SVG text content and attribute values.
func escapeXML(s string) string {
	var b bytes.Buffer
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
