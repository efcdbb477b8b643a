package graph

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/matzehuels/kintree/pkg/errors"
	"github.com/matzehuels/kintree/pkg/family"
	"github.com/matzehuels/kintree/pkg/layout"
)

// =============================================================================
// LayoutDocument - Serialized Layout
// =============================================================================

// LayoutDocument is the serialization format for computed layouts.
// It is what the API returns, what the store keeps next to a tree, and what
// the layout cache holds.
type LayoutDocument struct {
	Kind   layout.Kind   `json:"kind" bson:"kind"`
	Width  float64       `json:"width" bson:"width"`
	Height float64       `json:"height" bson:"height"`
	Bounds layout.Bounds `json:"bounds" bson:"bounds"`
	Config layout.Config `json:"config" bson:"config"`
	Roots  []string      `json:"roots" bson:"roots"`
	Nodes  []LayoutNode  `json:"nodes" bson:"nodes"`
}

// LayoutNode is one positioned member.
type LayoutNode struct {
	ID                string  `json:"id" bson:"id"`
	Label             string  `json:"label,omitempty" bson:"label,omitempty"`
	X                 float64 `json:"x" bson:"x"`
	Y                 float64 `json:"y" bson:"y"`
	Generation        int     `json:"generation" bson:"generation"`
	IsInDirectLineage bool    `json:"is_in_direct_lineage" bson:"is_in_direct_lineage"`
	Anchor            string  `json:"anchor,omitempty" bson:"anchor,omitempty"`
	Grid              bool    `json:"grid,omitempty" bson:"grid,omitempty"`
}

// FromResult converts a layout result. Labels are taken from g when it is
// non-nil. Nodes follow the member order of the result.
func FromResult(res *layout.Result, g *family.Graph) LayoutDocument {
	doc := LayoutDocument{
		Kind:   res.Kind,
		Width:  res.Bounds.Width(),
		Height: res.Bounds.Height(),
		Bounds: res.Bounds,
		Config: res.Config,
		Roots:  append([]string{}, res.Roots...),
		Nodes:  make([]LayoutNode, 0, len(res.Order)),
	}
	for _, id := range res.Order {
		p := res.Nodes[id]
		n := LayoutNode{
			ID:                id,
			X:                 p.Position.X,
			Y:                 p.Position.Y,
			Generation:        p.Generation,
			IsInDirectLineage: p.IsInDirectLineage,
			Anchor:            p.Anchor,
			Grid:              p.Grid,
		}
		if g != nil {
			if m, ok := g.Member(id); ok {
				n.Label = m.DisplayName
			}
		}
		doc.Nodes = append(doc.Nodes, n)
	}
	return doc
}

// Result converts the document back into a layout result.
func (d LayoutDocument) Result() *layout.Result {
	res := &layout.Result{
		Kind:   d.Kind,
		Config: d.Config,
		Roots:  append([]string{}, d.Roots...),
		Nodes:  make(map[string]layout.Placement, len(d.Nodes)),
		Order:  make([]string, 0, len(d.Nodes)),
		Bounds: d.Bounds,
	}
	for _, n := range d.Nodes {
		res.Order = append(res.Order, n.ID)
		res.Nodes[n.ID] = layout.Placement{
			Position:          family.Position{X: n.X, Y: n.Y},
			Generation:        n.Generation,
			IsInDirectLineage: n.IsInDirectLineage,
			Anchor:            n.Anchor,
			Grid:              n.Grid,
		}
	}
	return res
}

// =============================================================================
// Layout Serialization API
// =============================================================================

// MarshalLayout serializes a LayoutDocument to pretty-printed JSON bytes.
func MarshalLayout(d LayoutDocument) ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}

// UnmarshalLayout deserializes JSON bytes into a LayoutDocument.
func UnmarshalLayout(data []byte) (LayoutDocument, error) {
	var d LayoutDocument
	if err := json.Unmarshal(data, &d); err != nil {
		return LayoutDocument{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "unmarshal layout")
	}
	if !d.Kind.Valid() {
		return LayoutDocument{}, errors.New(errors.ErrCodeInvalidLayout, "layout document has unknown kind %q", d.Kind)
	}
	return d, nil
}

// WriteLayoutFile writes a LayoutDocument to a JSON file.
func WriteLayoutFile(d LayoutDocument, path string) error {
	data, err := MarshalLayout(d)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ReadLayoutFile reads a LayoutDocument from a JSON file.
func ReadLayoutFile(path string) (LayoutDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return LayoutDocument{}, fmt.Errorf("read %s: %w", path, err)
	}
	return UnmarshalLayout(data)
}
