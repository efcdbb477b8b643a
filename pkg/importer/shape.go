package importer

import (
	"github.com/matzehuels/kintree/pkg/errors"
)

// Shape identifies how an import payload is organized.
type Shape string

const (
	ShapeGraph   Shape = "graph"
	ShapeTabular Shape = "tabular"
	ShapeNested  Shape = "nested"
)

// dataset is a classified payload ready for materialization.
type dataset struct {
	shape         Shape
	members       []any
	relationships []any
}

// Detect reports the shape of payload without touching any graph.
//
// It returns ErrCodeUnsupportedFormat for payloads that are neither a
// collection of records nor an object holding one, and ErrCodeEmptyDataset
// for an empty collection.
func Detect(payload any) (Shape, error) {
	ds, err := classify(payload)
	if err != nil {
		return "", err
	}
	return ds.shape, nil
}

func classify(payload any) (dataset, error) {
	if obj, ok := asRecord(payload); ok {
		if members, ok := lookupList(obj, memberKeys); ok {
			rels, _ := lookupList(obj, relationshipKeys)
			if len(members) == 0 {
				return dataset{}, errors.New(errors.ErrCodeEmptyDataset, "member collection is empty")
			}
			return dataset{shape: ShapeGraph, members: members, relationships: rels}, nil
		}
		rows, ok := lookupList(obj, rowKeys)
		if !ok {
			return dataset{}, errors.New(errors.ErrCodeUnsupportedFormat,
				"object has no member collection (members, nodes, people) or rows")
		}
		payload = rows
	}

	rows, ok := asList(payload)
	if !ok {
		if payload == nil {
			return dataset{}, errors.New(errors.ErrCodeUnsupportedFormat, "payload is empty")
		}
		return dataset{}, errors.New(errors.ErrCodeUnsupportedFormat,
			"payload must be an array of records or an object, got %T", payload)
	}
	if len(rows) == 0 {
		return dataset{}, errors.New(errors.ErrCodeEmptyDataset, "no records to import")
	}

	shape := ShapeTabular
	for _, row := range rows {
		if rec, ok := asRecord(row); ok && (rec.has(fieldChildren) || rec.has(fieldSpouse)) {
			shape = ShapeNested
			break
		}
	}
	return dataset{shape: shape, members: rows}, nil
}
