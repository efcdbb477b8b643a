// Package nodelink renders laid-out family trees as node-link diagrams.
//
// # Overview
//
// Members become rounded boxes pinned at the coordinates computed by
// [layout.Compute]. Parent-child relationships are drawn as arrows and spouse
// relationships as dashed lines without arrowheads. Members in the direct
// lineage are filled; married-in and unattached members are outlined.
//
// # Usage
//
//	doc := graph.Export(g)
//	lay := graph.FromResult(res, g)
//	dot := nodelink.ToDOT(doc, lay, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// # DOT Format
//
// [ToDOT] sets inputscale=72 and writes every position as pos="x,y!", so
// Graphviz's neato engine keeps each node exactly where the layout put it.
// The layout's y axis points down; it is flipped for Graphviz.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering, with no external binaries required.
package nodelink
