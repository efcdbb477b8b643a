// Package layout computes deterministic positions for the members of a
// family graph.
//
// # Overview
//
// [Compute] reads members and relationships from any [Source] (normally a
// *family.Graph) and returns a [Result] holding one [Placement] per member.
// The input is never modified; [Result.Apply] writes the placements back
// through family.Graph.Annotate when the caller decides to.
//
//	res, err := layout.Compute(g, layout.Vertical)
//	if err != nil {
//	    return err
//	}
//	if err := res.Apply(g); err != nil {
//	    return err
//	}
//
// # Forest
//
// Roots are members without an incoming parent_child edge, in member
// insertion order. Children are visited in edge insertion order. Traversal
// keeps the set of ids on the active path and refuses to re-enter them, so
// parent_child cycles cannot loop forever. A member already reached is
// re-entered only through a strictly shorter path, which makes its
// generation the distance to the nearest root.
//
// Every member reached from a root lies on a simple parent chain and is in
// direct lineage. Members placed by a fallback are not.
//
// # Kinds
//
//   - [Vertical]: leaves take consecutive slots left to right, one empty slot
//     between trees, and each parent is centered over its children. Each
//     generation is one VerticalSpacing lower.
//   - [Horizontal]: the same slots with axes swapped.
//   - [Radial]: a single root sits at the centre and its children share the
//     full circle; several roots share the inner circle. Every child gets an
//     equal part of its parent's sector and the radius grows by RadialStep per
//     generation.
//
// # Fallbacks
//
// Members that married into the forest (no parent_child edge of their own,
// a spouse with one) are placed half a spacing from that spouse. A root
// whose children were all claimed by another root sits next to its spouse
// too. A member with several married-in spouses keeps one half slot per
// spouse free so the next sibling starts after them. Members left unplaced by
// parent_child cycles get grid slots on a row below the deepest generation,
// or evenly spaced slots on a ring outside the outermost member in radial
// layouts.
package layout
