package family

import "fmt"

// Kind is the type of a relationship.
type Kind string

const (
	// KindParentChild is directed: Source is the parent, Target the child.
	KindParentChild Kind = "parent_child"
	// KindSpouse is undirected and stored with the smaller id as Source.
	KindSpouse Kind = "spouse"
)

// Valid reports whether k is a known relationship kind.
func (k Kind) Valid() bool {
	return k == KindParentChild || k == KindSpouse
}

// Directed reports whether the kind distinguishes source from target.
func (k Kind) Directed() bool { return k == KindParentChild }

// Relationship is a typed edge between two members.
type Relationship struct {
	ID               string
	SourceID         string
	TargetID         string
	Kind             Kind
	SharedStoryCount int
}

// pairKey identifies a relationship independently of its id.
type pairKey struct {
	kind   Kind
	source string
	target string
}

// canonicalPair orders the endpoints the way the store keeps them.
func canonicalPair(source, target string, kind Kind) (string, string) {
	if !kind.Directed() && target < source {
		return target, source
	}
	return source, target
}

func keyOf(source, target string, kind Kind) pairKey {
	s, t := canonicalPair(source, target, kind)
	return pairKey{kind: kind, source: s, target: t}
}

// RelationshipID returns the conventional id for a relationship:
// "kind:source:target" with spouse endpoints in canonical order. Connecting
// the same pair twice (or A↔B and B↔A for spouses) yields the same id.
func RelationshipID(source, target string, kind Kind) string {
	s, t := canonicalPair(source, target, kind)
	return fmt.Sprintf("%s:%s:%s", kind, s, t)
}
