package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/kintree/pkg/family"
	"github.com/matzehuels/kintree/pkg/graph"
)

// DefaultScale maps layout units to points.
const DefaultScale = 0.5

// Options configures node-link diagram rendering.
type Options struct {
	// Scale multiplies layout coordinates. Zero means DefaultScale.
	Scale float64

	// Detailed adds role, generation and story count to node labels.
	// When false, only the display name is shown.
	Detailed bool
}

// ToDOT converts a tree document and its layout to Graphviz DOT with every
// member pinned at its computed position. Members missing from lay are
// emitted without a position and left to neato.
func ToDOT(doc graph.Document, lay graph.LayoutDocument, opts Options) string {
	scale := opts.Scale
	if scale <= 0 {
		scale = DefaultScale
	}
	placed := make(map[string]graph.LayoutNode, len(lay.Nodes))
	for _, n := range lay.Nodes {
		placed[n.ID] = n
	}

	var buf bytes.Buffer
	buf.WriteString("graph G {\n")
	buf.WriteString("  inputscale=72;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  splines=true;\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("\n")

	for _, n := range doc.Nodes {
		p, ok := placed[n.ID]
		attrs := fmtAttrs(n, p, ok, opts.Detailed)
		if ok {
			attrs = append(attrs, fmt.Sprintf("pos=\"%s,%s!\"", fmtCoord(p.X*scale), fmtCoord(-p.Y*scale)))
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range doc.Edges {
		if e.Kind == family.KindSpouse {
			fmt.Fprintf(&buf, "  %q -- %q [style=dashed];\n", e.Source, e.Target)
			continue
		}
		fmt.Fprintf(&buf, "  %q -- %q [dir=forward];\n", e.Source, e.Target)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(n graph.Node, p graph.LayoutNode, placed, detailed bool) string {
	if !detailed {
		return n.DisplayName
	}
	parts := []string{n.DisplayName}
	if n.Role != "" {
		parts = append(parts, n.Role)
	}
	if placed {
		parts = append(parts, fmt.Sprintf("gen: %d", p.Generation))
	}
	if n.StoryCount > 0 {
		parts = append(parts, fmt.Sprintf("stories: %d", n.StoryCount))
	}
	return strings.Join(parts, "\n")
}

func fmtAttrs(n graph.Node, p graph.LayoutNode, placed, detailed bool) []string {
	attrs := []string{fmt.Sprintf("label=%q", fmtLabel(n, p, placed, detailed))}
	switch {
	case placed && p.IsInDirectLineage:
		attrs = append(attrs, "fillcolor=\"#e8f0fe\"")
	case placed && p.Grid:
		attrs = append(attrs, "style=\"rounded,dashed\"")
	}
	if n.HasNewStories {
		attrs = append(attrs, "penwidth=2")
	}
	return attrs
}

func fmtCoord(v float64) string {
	if v == 0 {
		return "0"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// RenderSVG renders DOT produced by [ToDOT] to SVG with the neato engine,
// which honors pinned positions.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
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
	if err := gv.SetLayout(graphviz.NEATO).Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's svg tag with one that scales cleanly
// when embedded.
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

	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}
