package graph

import (
	"fmt"

	"github.com/matzehuels/kintree/pkg/errors"
	"github.com/matzehuels/kintree/pkg/family"
)

// Version is the document format version written by Export.
const Version = 1

// =============================================================================
// Document - Canonical Graph Format
// =============================================================================

// Document is the canonical serialization format for family graphs.
//
// The format is designed for round-trip fidelity: Import(Export(g)) yields a
// graph with the same members and relationships as g.
type Document struct {
	Version int    `json:"version" bson:"version"`
	Nodes   []Node `json:"nodes" bson:"nodes"`
	Edges   []Edge `json:"edges" bson:"edges"`
}

// Node is a serialized member.
type Node struct {
	ID            string `json:"id" bson:"id"`
	DisplayName   string `json:"display_name" bson:"display_name"`
	Role          string `json:"role,omitempty" bson:"role,omitempty"`
	BirthDate     string `json:"birth_date,omitempty" bson:"birth_date,omitempty"`
	DeathDate     string `json:"death_date,omitempty" bson:"death_date,omitempty"`
	Bio           string `json:"bio,omitempty" bson:"bio,omitempty"`
	AvatarRef     string `json:"avatar_ref,omitempty" bson:"avatar_ref,omitempty"`
	StoryCount    int    `json:"story_count,omitempty" bson:"story_count,omitempty"`
	HasNewStories bool   `json:"has_new_stories,omitempty" bson:"has_new_stories,omitempty"`

	// Derived annotations, ignored by Import.
	Position          *family.Position `json:"position,omitempty" bson:"position,omitempty"`
	Generation        *int             `json:"generation,omitempty" bson:"generation,omitempty"`
	IsInDirectLineage *bool            `json:"is_in_direct_lineage,omitempty" bson:"is_in_direct_lineage,omitempty"`
}

// Edge is a serialized relationship.
type Edge struct {
	ID               string      `json:"id" bson:"id"`
	Source           string      `json:"source" bson:"source"`
	Target           string      `json:"target" bson:"target"`
	Kind             family.Kind `json:"kind" bson:"kind"`
	SharedStoryCount int         `json:"shared_story_count,omitempty" bson:"shared_story_count,omitempty"`
}

// Structure returns a copy of d without derived annotations.
func (d Document) Structure() Document {
	out := Document{
		Version: d.Version,
		Nodes:   make([]Node, len(d.Nodes)),
		Edges:   append([]Edge{}, d.Edges...),
	}
	for i, n := range d.Nodes {
		n.Position, n.Generation, n.IsInDirectLineage = nil, nil, nil
		out.Nodes[i] = n
	}
	return out
}

// =============================================================================
// family.Graph ↔ Document Conversion
// =============================================================================

// Export converts g to its serialization format. Nodes and edges keep the
// store's insertion order.
func Export(g *family.Graph) Document {
	members := g.Members()
	rels := g.Relationships()

	out := Document{
		Version: Version,
		Nodes:   make([]Node, len(members)),
		Edges:   make([]Edge, len(rels)),
	}
	for i, m := range members {
		out.Nodes[i] = nodeFromMember(m)
	}
	for i, r := range rels {
		out.Edges[i] = Edge{
			ID:               r.ID,
			Source:           r.SourceID,
			Target:           r.TargetID,
			Kind:             r.Kind,
			SharedStoryCount: r.SharedStoryCount,
		}
	}
	return out
}

// Import builds a new graph from doc. It fails on the first node or edge the
// store rejects; the error names the offending entry and keeps the store's
// error code.
func Import(doc Document, opts ...family.Option) (*family.Graph, error) {
	if doc.Version > Version {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "document version %d is newer than supported version %d", doc.Version, Version)
	}

	g := family.New(opts...)
	for _, n := range doc.Nodes {
		if n.ID == "" {
			return nil, errors.New(errors.ErrCodeInvalidMember, "node %q: missing id", n.DisplayName)
		}
		m := family.Member{
			ID:            n.ID,
			DisplayName:   n.DisplayName,
			Role:          n.Role,
			BirthDate:     n.BirthDate,
			DeathDate:     n.DeathDate,
			Bio:           n.Bio,
			AvatarRef:     n.AvatarRef,
			StoryCount:    n.StoryCount,
			HasNewStories: n.HasNewStories,
		}
		if _, err := g.AddMember(m); err != nil {
			return nil, fmt.Errorf("node %s: %w", n.ID, err)
		}
	}
	for _, e := range doc.Edges {
		r := family.Relationship{
			ID:               e.ID,
			SourceID:         e.Source,
			TargetID:         e.Target,
			Kind:             e.Kind,
			SharedStoryCount: e.SharedStoryCount,
		}
		if _, err := g.AddRelationship(r); err != nil {
			return nil, fmt.Errorf("edge %s->%s: %w", e.Source, e.Target, err)
		}
	}
	return g, nil
}

func nodeFromMember(m family.Member) Node {
	pos := m.Position
	gen := m.Generation
	lineage := m.IsInDirectLineage
	return Node{
		ID:                m.ID,
		DisplayName:       m.DisplayName,
		Role:              m.Role,
		BirthDate:         m.BirthDate,
		DeathDate:         m.DeathDate,
		Bio:               m.Bio,
		AvatarRef:         m.AvatarRef,
		StoryCount:        m.StoryCount,
		HasNewStories:     m.HasNewStories,
		Position:          &pos,
		Generation:        &gen,
		IsInDirectLineage: &lineage,
	}
}
