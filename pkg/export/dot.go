package export

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/docmap/pkg/canvas"
	"github.com/matzehuels/docmap/pkg/errors"
	"github.com/matzehuels/docmap/pkg/geom"
	"github.com/matzehuels/docmap/pkg/model"
	"github.com/matzehuels/docmap/pkg/style"
)

// pointsPerInch converts canvas pixels to Graphviz inches.
const pointsPerInch = 72.0

// DOTOptions configures Graphviz output.
type DOTOptions struct {
	// Registry supplies colours and dashes, style.Default() when nil.
	Registry *style.Registry
	// Pinned fixes every node at its canvas position and lays the graph out
	// with neato. When false Graphviz ranks the map top to bottom.
	Pinned bool
}

// ToDOT converts a snapshot to Graphviz DOT. Nodes and edges are emitted in
// input order; edges that the canvas would skip are left out.
func ToDOT(nodes []model.Node, edges []model.Edge, opts DOTOptions) string {
	reg := opts.Registry
	if reg == nil {
		reg = style.Default()
	}
	copts := []canvas.Option{canvas.WithRegistry(reg)}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	if !opts.Pinned {
		buf.WriteString("  rankdir=TB;\n")
		buf.WriteString("  ranksep=0.5;\n")
		buf.WriteString("  nodesep=0.3;\n")
	}
	fmt.Fprintf(&buf, "  bgcolor=%s;\n", dotQuote(reg.Background()))
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fontname=\"Helvetica\", margin=\"0.2,0.1\"];\n")
	buf.WriteString("  edge [fontname=\"Helvetica\", fontsize=10];\n")
	buf.WriteString("\n")

	for _, rn := range canvas.RenderableNodes(nodes, copts...) {
		fmt.Fprintf(&buf, "  %s [%s];\n", dotQuote(rn.ID), strings.Join(nodeAttrs(rn, opts.Pinned), ", "))
	}

	buf.WriteString("\n")
	for _, e := range canvas.StyledEdgesFor(nodes, edges, copts...) {
		fmt.Fprintf(&buf, "  %s -> %s [%s];\n", dotQuote(e.Source), dotQuote(e.Target), strings.Join(edgeAttrs(e), ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeAttrs(rn canvas.RenderableNode, pinned bool) []string {
	b := rn.Bounds
	attrs := []string{
		"label=" + dotQuote(rn.Label),
		"fillcolor=" + dotQuote(rn.Palette.Fill),
		"color=" + dotQuote(rn.Palette.Stroke),
		"fontcolor=" + dotQuote(rn.Palette.Text),
		fmt.Sprintf("width=%s", inches(b.Width)),
		fmt.Sprintf("height=%s", inches(b.Height)),
		fmt.Sprintf("fontsize=%s", geom.Num(geom.SizeFor(rn.Type).FontSize)),
	}
	switch rn.Type {
	case model.NodeGroup:
		attrs = append(attrs, `style="rounded,filled,dashed"`)
	case model.NodeTextBlock:
		attrs = append(attrs, "shape=note")
	}
	if pinned {
		// Graphviz y grows upwards.
		c := b.Center()
		attrs = append(attrs, fmt.Sprintf(`pos="%s,%s!"`, inches(c.X), inches(-c.Y)), "fixedsize=true")
	}
	return attrs
}

func edgeAttrs(e canvas.RenderableEdge) []string {
	attrs := []string{
		"color=" + dotQuote(e.Style.Stroke),
		fmt.Sprintf("penwidth=%s", geom.Num(e.Style.StrokeWidth)),
	}
	if e.Style.Dashed() {
		attrs = append(attrs, "style=dashed")
	}
	switch {
	case e.MarkerStart != "" && e.MarkerEnd != "":
		attrs = append(attrs, "dir=both")
	case e.MarkerStart != "":
		attrs = append(attrs, "dir=back")
	case e.MarkerEnd == "":
		attrs = append(attrs, "dir=none")
	}
	if e.Label != "" {
		attrs = append(attrs, "label="+dotQuote(e.Label))
	}
	return attrs
}

var dotEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\r\n", `\n`, "\n", `\n`, "\r", `\n`)

// dotQuote returns s as a DOT double-quoted string. Only backslashes and
// quotes are escaped, line breaks become Graphviz \n breaks, and other
// control characters are dropped.
func dotQuote(s string) string {
	s = strings.Map(func(r rune) rune {
		if r < 0x20 && r != '\n' && r != '\r' || r == 0x7f {
			return -1
		}
		return r
	}, s)
	return `"` + dotEscaper.Replace(s) + `"`
}

func inches(px float64) string {
	return strconv.FormatFloat(px/pointsPerInch, 'f', 3, 64)
}

// RenderDOTSVG renders a DOT graph to SVG using Graphviz. Pinned graphs
// from ToDOT must be rendered with pinned set so neato honours positions.
func RenderDOTSVG(ctx context.Context, dot string, pinned bool) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "graphviz could not be started")
	}
	defer gv.Close()
	if pinned {
		gv.SetLayout(graphviz.NEATO)
	}

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "graphviz could not parse the DOT graph")
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "graphviz rendering failed")
	}
	return normalizeViewBox(buf.Bytes()), nil
}

// ToGraphvizSVG lays a snapshot out with Graphviz and returns the SVG.
func ToGraphvizSVG(ctx context.Context, nodes []model.Node, edges []model.Edge, opts DOTOptions) ([]byte, error) {
	if len(nodes) == 0 {
		return nil, errors.New(errors.ErrCodeNothingToExport, "nothing to export: the map has no nodes")
	}
	return RenderDOTSVG(ctx, ToDOT(nodes, edges, opts), opts.Pinned)
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's pt-sized root element with a plain
// pixel one so the SVG scales like ExportDocument output.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}
	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}
	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(root))
}
