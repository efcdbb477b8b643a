// Package pkg provides the core libraries for Kintree family tree layout.
//
// # Overview
//
// Kintree turns family data exported from spreadsheets and genealogy tools
// into a validated relationship graph and computes vertical, horizontal or
// radial tree layouts for it. The pkg directory is organized into three
// areas:
//
//  1. Domain logic: [family], [importer], [layout]
//  2. Serialization and rendering: [graph], [render/nodelink]
//  3. Infrastructure: [cache], [store], [pipeline], [observability]
//
// # Architecture
//
// The typical data flow through Kintree:
//
//	CSV / JSON / YAML / TOML export
//	         ↓
//	    [importer] package (detect shape, create members and relationships)
//	         ↓
//	    [family] package (validated graph store)
//	         ↓
//	    [layout] package (generations, lineage, positions)
//	         ↓
//	    graph.json / layout.json / SVG / DOT
//
// # Quick Start
//
//	payload, _ := importer.DecodeFile("family.csv")
//
//	g := family.New()
//	res, _ := importer.Import(g, payload)
//	for _, w := range res.Warnings {
//	    fmt.Println(w)
//	}
//
//	lay, _ := layout.Compute(g, layout.Radial)
//	lay.Apply(g)
//
// # Main Packages
//
// [family] - The graph store. Members and typed relationships (parent_child,
// spouse) with validation on every mutation and derived generation and
// lineage annotations.
//
// [importer] - Decodes tabular, nested and node/edge payloads into a graph.
// Bad rows become warnings instead of aborting the import.
//
// [layout] - Forest discovery and the three layout kinds. Members outside
// every tree are placed on a fallback grid.
//
// [graph] - JSON node-link documents for graphs and layouts.
//
// [render/nodelink] - Graphviz DOT and SVG previews of a laid-out graph.
//
// [pipeline] - Import, layout and render with caching, shared by the CLI and
// the HTTP server.
//
// [cache] - File, Redis and null caches plus key derivation.
//
// [store] - Named tree persistence in memory, on disk or in MongoDB.
//
// [observability] - Hooks for logging and metrics around pipeline stages.
//
// [errors] - Error codes, validation helpers and import warnings.
//
// # Testing
//
//	go test ./pkg/...           # All tests
//	go test ./pkg/layout/...    # Specific package
//	go test -run Example        # Examples only
//
// [family]: https://pkg.go.dev/github.com/matzehuels/kintree/pkg/family
// [importer]: https://pkg.go.dev/github.com/matzehuels/kintree/pkg/importer
// [layout]: https://pkg.go.dev/github.com/matzehuels/kintree/pkg/layout
// [graph]: https://pkg.go.dev/github.com/matzehuels/kintree/pkg/graph
// [render/nodelink]: https://pkg.go.dev/github.com/matzehuels/kintree/pkg/render/nodelink
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/kintree/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/kintree/pkg/cache
// [store]: https://pkg.go.dev/github.com/matzehuels/kintree/pkg/store
// [observability]: https://pkg.go.dev/github.com/matzehuels/kintree/pkg/observability
// [errors]: https://pkg.go.dev/github.com/matzehuels/kintree/pkg/errors
package pkg
