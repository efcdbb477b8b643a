// Package graph provides the canonical serialization formats for family
// graphs and their layouts.
//
// This package defines the wire format used for JSON files, API payloads,
// the document store and the layout cache.
//
// # Architecture
//
// The package sits at the serialization boundary:
//
//   - [Document], [LayoutDocument]: serialization types (this package)
//   - family.Graph: the in-memory store
//   - layout.Result: computed placements
//
// Use [Export]/[Import] and [FromResult]/[LayoutDocument.Result] to convert
// between them.
//
// # Graph Documents
//
// Graphs use a node/edge format in store insertion order:
//
//	{
//	  "version": 1,
//	  "nodes": [{"id": "john", "display_name": "John"}, {"id": "ann", "display_name": "Ann"}],
//	  "edges": [{"id": "parent_child:john:ann", "source": "john", "target": "ann", "kind": "parent_child"}]
//	}
//
// Nodes may also carry position, generation and is_in_direct_lineage. These
// are written by [Export] for convenience and ignored by [Import]; the layout
// engine recomputes them.
//
// Common operations:
//
//	g, _ := graph.ReadGraphFile("family.json")  // File → family.Graph
//	graph.WriteGraphFile(g, "output.json")      // family.Graph → File
//	data, _ := graph.Marshal(g)                 // family.Graph → []byte
//	doc, _ := graph.Unmarshal(data)             // []byte → Document
//
// # Fingerprints
//
// [Fingerprint] hashes the structural part of a graph (members, relationships
// and story counts, no derived annotations). Equal fingerprints imply equal
// layouts, which makes it the layout cache key.
package graph
