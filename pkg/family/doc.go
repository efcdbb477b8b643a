// Package family provides the in-memory graph of family members and their
// relationships.
//
// # Overview
//
// A [Graph] owns every [Member] and [Relationship]. All mutations are
// synchronous and atomic: they either succeed with the graph invariants intact
// or fail with a coded error from pkg/errors and leave the graph unchanged.
//
//	g := family.New()
//	john, _ := g.AddMember(family.Member{DisplayName: "John"})
//	mary, _ := g.AddMember(family.Member{DisplayName: "Mary"})
//	_, err := g.Connect(john, mary, family.KindParentChild)
//
// # Invariants
//
//   - Every relationship endpoint exists as a member.
//   - No two relationships share the same canonical (pair, kind). Parent-child
//     pairs are ordered, spouse pairs are stored with the smaller id first.
//   - A relationship never connects a member to itself.
//   - Removing a member removes every incident relationship.
//
// Parent-child cycles are accepted; the layout engine bounds its traversal.
//
// # Ordering
//
// Members and relationships keep insertion order. [Graph.Members] and
// [Graph.Relationships] return them in that order, which makes layouts and
// exports deterministic.
//
// # Derived Annotations
//
// Position, generation and direct-lineage flags are written by the layout
// engine through [Graph.Annotate]. [Graph.SetPosition] is the explicit caller
// override for a single position.
//
// # Concurrency
//
// Graph instances are not safe for concurrent use. Callers must keep a single
// writer per graph; [Graph.Batch] gives all-or-nothing semantics for a group
// of mutations.
package family
