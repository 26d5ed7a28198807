// Package render turns laid-out diagram graphs into visual outputs.
//
// # Overview
//
// This package contains the rendering sinks that transform a graph produced
// by the layout engine into artifacts:
//
//   - Native SVG rendering with per-kind shapes ([RenderSVG])
//   - Graphviz DOT export and structural preview ([ToDOT], [GraphvizSVG])
//   - Generic format conversion (SVG to PDF/PNG)
//
// # Native SVG
//
// [RenderSVG] draws the graph exactly as the layout engine placed it: every
// node at its computed position, every edge between its assigned anchor
// points. Frames are drawn behind their members, decisions as diamonds,
// terminals as circles.
//
//	svg := render.RenderSVG(g, render.WithEdgeLabels())
//
// # Graphviz Preview
//
// [ToDOT] exports the graph structure to DOT and delegates placement to
// Graphviz. This path ignores computed positions and is useful for a quick
// structural preview before or without running the layout engine.
//
//	dot := render.ToDOT(g, render.DOTOptions{})
//	svg, err := render.GraphvizSVG(ctx, dot)
//
// # Format Conversion
//
// The [ToPDF] and [ToPNG] functions convert any SVG to other formats using
// the external rsvg-convert tool (from librsvg).
//
//	pdf, err := render.ToPDF(svg)
//	png, err := render.ToPNG(svg, 2.0)  // 2x scale
package render
