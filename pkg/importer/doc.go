// Package importer turns heterogeneous family data into members and
// relationships of a [family.Graph].
//
// # Overview
//
// External sources rarely agree on a format. Import accepts an already decoded
// payload (maps, slices and scalars, as produced by encoding/json, yaml.v3,
// BurntSushi/toml or [Decode]) and recognizes three shapes:
//
//   - Graph: an object with a member collection ("members", "nodes" or
//     "people") and an optional relationship collection ("relationships",
//     "edges" or "links").
//   - Tabular: an array of flat records referencing each other through
//     parentId, fatherId, motherId and spouseId columns.
//   - Nested: an array of records carrying "children" and "spouse" fields
//     that reference other records by id or display name.
//
// An object holding only "rows" or "records" is unwrapped to an array first,
// since TOML and YAML documents cannot have a top-level array.
//
// # Field Names
//
// Field names are resolved through one synonym table, so "full_name",
// "displayName" and "name" all populate the display name. Numbers used as
// ids become decimal strings, and numeric strings are accepted for counts.
//
// # Errors and Warnings
//
// Row-level problems never abort an import. They are returned as
// [errors.Warning] values in [Result.Warnings] and logged at warn level:
//
//	res, err := importer.Import(g, payload)
//	if err != nil {
//	    return err // UNSUPPORTED_FORMAT or EMPTY_DATASET, graph untouched
//	}
//	for _, w := range res.Warnings {
//	    fmt.Println(w)
//	}
//
// Top-level failures leave the graph exactly as it was.
//
// # Decoding
//
// [Decode] reads raw bytes in JSON, YAML, TOML or CSV form. CSV files use the
// header row as field names, producing a tabular payload.
package importer
