// Package pipeline runs the import -> layout -> render stages with caching.
//
// The CLI and the HTTP server both go through a [Runner], so cache keys,
// hooks, and logging are identical across entry points.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	g, res, err := runner.Import(ctx, payload)
//	lay, hit, err := runner.Layout(ctx, g, layout.Radial, layout.DefaultConfig())
//	svg, _, err := runner.Render(ctx, g, lay, pipeline.FormatSVG, nodelink.Options{})
//
// Layout results are cached under the graph fingerprint plus the layout
// options, and rendered output under a hash of the positioned document plus
// the render options. A cache hit is applied to the graph exactly like a
// fresh computation.
package pipeline

import (
	"fmt"

	"github.com/matzehuels/kintree/pkg/layout"
)

// DefaultKind is the layout kind used when none is requested.
const DefaultKind = layout.Vertical

// Render formats.
const (
	FormatJSON = "json" // layout document
	FormatDOT  = "dot"
	FormatSVG  = "svg"
)

// ValidFormats is the set of supported render formats.
var ValidFormats = map[string]bool{
	FormatJSON: true,
	FormatDOT:  true,
	FormatSVG:  true,
}

// ValidateFormat checks that a render format is supported.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return fmt.Errorf("invalid format: %q (must be one of: json, dot, svg)", format)
	}
	return nil
}

// ContentType returns the MIME type for a render format.
func ContentType(format string) string {
	switch format {
	case FormatSVG:
		return "image/svg+xml"
	case FormatDOT:
		return "text/vnd.graphviz"
	default:
		return "application/json"
	}
}
