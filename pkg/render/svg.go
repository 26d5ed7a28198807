package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/flowgridhq/flowgrid/pkg/flow"
	"github.com/flowgridhq/flowgrid/pkg/geom"
)

// margin is the whitespace kept around the drawing, in diagram units.
const margin = 40.0

// palette maps node kinds to fill and stroke colors. Frames get a light wash
// so members drawn on top stay readable.
var palette = map[flow.Kind][2]string{
	flow.KindStart:    {"#d1fae5", "#059669"},
	flow.KindEnd:      {"#fee2e2", "#dc2626"},
	flow.KindDecision: {"#fef3c7", "#d97706"},
	flow.KindScreen:   {"#e0e7ff", "#4f46e5"},
	flow.KindProcess:  {"#f1f5f9", "#475569"},
	flow.KindFrame:    {"#f8fafc", "#94a3b8"},
	flow.KindNote:     {"#fefce8", "#ca8a04"},
}

// SVGOption configures SVG rendering.
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	edgeLabels bool
	grid       float64
}

// WithEdgeLabels draws edge labels at segment midpoints.
func WithEdgeLabels() SVGOption { return func(r *svgRenderer) { r.edgeLabels = true } }

// WithGrid draws a background dot grid with the given spacing.
func WithGrid(spacing float64) SVGOption { return func(r *svgRenderer) { r.grid = spacing } }

// RenderSVG renders a laid-out graph as SVG. Nodes are drawn at their
// computed positions with per-kind shapes; edges run between their assigned
// anchor points. Frames are drawn first so members stack on top.
func RenderSVG(g *flow.Graph, opts ...SVGOption) []byte {
	r := svgRenderer{}
	for _, opt := range opts {
		opt(&r)
	}

	vb := viewBox(g)

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="%.1f %.1f %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		vb.X, vb.Y, vb.W, vb.H, vb.W, vb.H)
	renderDefs(&buf)

	if r.grid > 0 {
		renderGrid(&buf, vb, r.grid)
	}

	for _, n := range g.Frames() {
		renderFrame(&buf, n)
	}
	for i := range g.Edges() {
		renderEdge(&buf, g, i, r.edgeLabels)
	}
	for _, n := range g.Nodes() {
		if n.IsFrame() {
			continue
		}
		renderNode(&buf, n)
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func viewBox(g *flow.Graph) geom.Rect {
	nodes := g.Nodes()
	if len(nodes) == 0 {
		return geom.Rect{X: -margin, Y: -margin, W: 2 * margin, H: 2 * margin}
	}
	bounds := nodes[0].Bounds()
	for _, n := range nodes[1:] {
		bounds = bounds.Union(n.Bounds())
	}
	return bounds.Inset(-margin)
}

func renderDefs(buf *bytes.Buffer) {
	buf.WriteString(`  <defs>
    <marker id="arrow" viewBox="0 0 10 10" refX="9" refY="5" markerWidth="7" markerHeight="7" orient="auto-start-reverse">
      <path d="M 0 0 L 10 5 L 0 10 z" fill="#64748b"/>
    </marker>
  </defs>
`)
}

func renderGrid(buf *bytes.Buffer, vb geom.Rect, spacing float64) {
	fmt.Fprintf(buf, `  <pattern id="grid" x="0" y="0" width="%.1f" height="%.1f" patternUnits="userSpaceOnUse">
    <circle cx="1" cy="1" r="1" fill="#e2e8f0"/>
  </pattern>
  <rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="url(#grid)"/>
`, spacing, spacing, vb.X, vb.Y, vb.W, vb.H)
}

func renderFrame(buf *bytes.Buffer, n *flow.Node) {
	b := n.Bounds()
	colors := palette[flow.KindFrame]
	fmt.Fprintf(buf, `  <rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" rx="8" fill="%s" stroke="%s" stroke-width="1.5" stroke-dasharray="6 4"/>`+"\n",
		b.X, b.Y, b.W, b.H, colors[0], colors[1])
	fmt.Fprintf(buf, `  <text x="%.1f" y="%.1f" font-family="sans-serif" font-size="13" fill="%s">%s</text>`+"\n",
		b.X+10, b.Y+18, colors[1], escape(n.DisplayLabel()))
}

func renderNode(buf *bytes.Buffer, n *flow.Node) {
	b := n.Bounds()
	colors := palette[n.Kind.Normalize()]
	c := b.Center()

	switch n.Kind {
	case flow.KindStart, flow.KindEnd:
		fmt.Fprintf(buf, `  <ellipse cx="%.1f" cy="%.1f" rx="%.1f" ry="%.1f" fill="%s" stroke="%s" stroke-width="2"/>`+"\n",
			c.X, c.Y, b.W/2, b.H/2, colors[0], colors[1])
	case flow.KindDecision:
		fmt.Fprintf(buf, `  <polygon points="%.1f,%.1f %.1f,%.1f %.1f,%.1f %.1f,%.1f" fill="%s" stroke="%s" stroke-width="2"/>`+"\n",
			c.X, b.Y, b.MaxX(), c.Y, c.X, b.MaxY(), b.X, c.Y, colors[0], colors[1])
	case flow.KindNote:
		fmt.Fprintf(buf, `  <rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="%s" stroke="%s" stroke-width="1.5" stroke-dasharray="3 3"/>`+"\n",
			b.X, b.Y, b.W, b.H, colors[0], colors[1])
	default:
		fmt.Fprintf(buf, `  <rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" rx="6" fill="%s" stroke="%s" stroke-width="2"/>`+"\n",
			b.X, b.Y, b.W, b.H, colors[0], colors[1])
	}

	fmt.Fprintf(buf, `  <text x="%.1f" y="%.1f" text-anchor="middle" dominant-baseline="central" font-family="sans-serif" font-size="13" fill="#1e293b">%s</text>`+"\n",
		c.X, c.Y, escape(n.DisplayLabel()))
}

func renderEdge(buf *bytes.Buffer, g *flow.Graph, i int, withLabel bool) {
	e := g.Edge(i)
	src, okS := g.Node(e.Source)
	dst, okD := g.Node(e.Target)
	if !okS || !okD {
		return
	}

	p1 := endpoint(src, e.SourceHandle)
	p2 := endpoint(dst, e.TargetHandle)

	fmt.Fprintf(buf, `  <line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="#64748b" stroke-width="1.5" marker-end="url(#arrow)"/>`+"\n",
		p1.X, p1.Y, p2.X, p2.Y)

	if withLabel && e.Label != "" {
		mid := p1.Add(p2).Scale(0.5)
		fmt.Fprintf(buf, `  <text x="%.1f" y="%.1f" text-anchor="middle" font-family="sans-serif" font-size="11" fill="#64748b">%s</text>`+"\n",
			mid.X, mid.Y-4, escape(e.Label))
	}
}

// endpoint resolves the edge attachment point. Unassigned handles fall back
// to the node center so un-laid-out graphs still render.
func endpoint(n *flow.Node, a geom.Anchor) geom.Point {
	if a.Valid() {
		return geom.AnchorPoint(n.Bounds(), a)
	}
	return n.Center()
}

var escaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")

func escape(s string) string { return escaper.Replace(s) }
