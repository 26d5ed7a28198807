package render

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/flowgridhq/flowgrid/pkg/flow"
)

// DOTOptions configures DOT export.
type DOTOptions struct {
	// Detailed includes the node kind and pinned state in labels.
	// When false, only the display label is shown.
	Detailed bool
}

// ToDOT converts a graph to Graphviz DOT format for structural preview.
// Placement is left to Graphviz; computed positions are ignored. Frames
// become DOT clusters so their members render grouped.
//
// The resulting DOT string can be rendered with [GraphvizSVG] or
// [GraphvizPNG].
func ToDOT(g *flow.Graph, opts DOTOptions) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.6;\n")
	buf.WriteString("  nodesep=0.4;\n")
	buf.WriteString("\n")

	inFrame := make(map[string]string)
	for _, f := range g.Frames() {
		for _, id := range f.Contents {
			inFrame[id] = f.ID
		}
	}

	for _, f := range g.Frames() {
		fmt.Fprintf(&buf, "  subgraph \"cluster_%s\" {\n", f.ID)
		fmt.Fprintf(&buf, "    label=%q;\n", f.DisplayLabel())
		buf.WriteString("    style=dashed;\n")
		for _, id := range f.Contents {
			if n, ok := g.Node(id); ok {
				fmt.Fprintf(&buf, "    %q [%s];\n", n.ID, strings.Join(dotAttrs(n, opts.Detailed), ", "))
			}
		}
		buf.WriteString("  }\n")
	}

	for _, n := range g.Nodes() {
		if n.IsFrame() {
			continue
		}
		if _, grouped := inFrame[n.ID]; grouped {
			continue
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(dotAttrs(n, opts.Detailed), ", "))
	}

	buf.WriteString("\n")
	for _, e := range g.Edges() {
		if e.Label != "" {
			fmt.Fprintf(&buf, "  %q -> %q [label=%q];\n", e.Source, e.Target, e.Label)
		} else {
			fmt.Fprintf(&buf, "  %q -> %q;\n", e.Source, e.Target)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func dotAttrs(n *flow.Node, detailed bool) []string {
	label := n.DisplayLabel()
	if detailed {
		parts := []string{string(n.Kind.Normalize())}
		if n.Pinned {
			parts = append(parts, "pinned")
		}
		label += "\n" + strings.Join(parts, ", ")
	}

	attrs := []string{fmt.Sprintf("label=%q", label)}
	switch n.Kind {
	case flow.KindStart, flow.KindEnd:
		attrs = append(attrs, "shape=circle")
	case flow.KindDecision:
		attrs = append(attrs, "shape=diamond")
	case flow.KindNote:
		attrs = append(attrs, "style=\"filled,dashed\"", "fillcolor=lightyellow")
	}
	return attrs
}

// GraphvizSVG renders a DOT graph to SVG using Graphviz.
// Returns the SVG bytes ready for display or further conversion with
// [ToPDF] or [ToPNG].
func GraphvizSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

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

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}

// GraphvizPNG renders a DOT graph as PNG via SVG conversion.
// This is a convenience wrapper around [GraphvizSVG] and [ToPNG].
//
// A scale of 2.0 produces a 2x resolution image suitable for high-DPI displays.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func GraphvizPNG(ctx context.Context, dot string, scale float64) ([]byte, error) {
	svg, err := GraphvizSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return ToPNG(svg, scale)
}
