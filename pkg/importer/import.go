package importer

import (
	"github.com/charmbracelet/log"

	"github.com/matzehuels/kintree/pkg/errors"
	"github.com/matzehuels/kintree/pkg/family"
)

// Result describes what an import added to the graph.
type Result struct {
	Shape         Shape            `json:"shape"`
	ImportedIDs   []string         `json:"imported_ids"`
	Relationships []string         `json:"relationships"`
	Warnings      []errors.Warning `json:"warnings,omitempty"`
}

// Option configures Import.
type Option func(*options)

type options struct {
	logger *log.Logger
}

// WithLogger sets the logger warnings are written to. Defaults to log.Default().
func WithLogger(l *log.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// Import detects the shape of payload and adds its members and relationships
// to g.
//
// Row-level problems are collected as warnings. The call fails with
// ErrCodeUnsupportedFormat when the payload shape is not recognized and with
// ErrCodeEmptyDataset when no valid member can be created; in both cases g is
// not modified.
func Import(g *family.Graph, payload any, opts ...Option) (*Result, error) {
	o := options{logger: log.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	ds, err := classify(payload)
	if err != nil {
		return nil, err
	}

	res := &Result{Shape: ds.shape, ImportedIDs: []string{}, Relationships: []string{}}
	err = g.Batch(func(tx *family.Graph) error {
		b := &batch{
			g:      tx,
			res:    res,
			byID:   make(map[string]string),
			byName: make(map[string]string),
		}
		b.addMembers(ds.members)
		if len(res.ImportedIDs) == 0 {
			return errors.New(errors.ErrCodeEmptyDataset, "none of the %d records is a valid member", len(ds.members))
		}

		switch ds.shape {
		case ShapeGraph:
			b.linkGraph(ds.relationships)
		case ShapeNested:
			for _, row := range b.rows {
				b.linkNested(row)
				b.linkColumns(row)
			}
		default:
			for _, row := range b.rows {
				b.linkColumns(row)
			}
		}
		return nil
	})

	for _, w := range res.Warnings {
		o.logger.Warn("import: "+w.Message, "code", w.Code, "index", w.Index, "ref", w.Ref)
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

// createdRow links an input row to the member it produced.
type createdRow struct {
	index int
	rec   record
	id    string
}

// batch holds the per-import lookup tables. It only ever mutates g, which is
// the transaction clone handed out by Graph.Batch.
type batch struct {
	g      *family.Graph
	res    *Result
	rows   []createdRow
	byID   map[string]string // declared id -> member id
	byName map[string]string // display name -> first member id with that name
}

func (b *batch) warn(code errors.WarningCode, index int, ref, format string, args ...any) {
	b.res.Warnings = append(b.res.Warnings, errors.RowWarning(code, index, ref, format, args...))
}

func (b *batch) addMembers(items []any) {
	for i, item := range items {
		rec, ok := asRecord(item)
		if !ok {
			b.warn(errors.WarnInvalidRow, i, "", "row is not a record (%T)", item)
			continue
		}
		m, ok := b.memberFromRecord(i, rec)
		if !ok {
			continue
		}
		if m.ID != "" {
			if _, dup := b.byID[m.ID]; dup || b.g.HasMember(m.ID) {
				b.warn(errors.WarnDuplicateID, i, m.ID, "duplicate id %q, row skipped", m.ID)
				continue
			}
		}
		declared := m.ID
		id, err := b.g.AddMember(m)
		if err != nil {
			b.warn(errors.WarnInvalidRow, i, declared, "%s", errors.UserMessage(err))
			continue
		}

		if declared != "" {
			b.byID[declared] = id
		}
		if _, seen := b.byName[m.DisplayName]; !seen {
			b.byName[m.DisplayName] = id
		}
		b.rows = append(b.rows, createdRow{index: i, rec: rec, id: id})
		b.res.ImportedIDs = append(b.res.ImportedIDs, id)
	}
}

func (b *batch) memberFromRecord(index int, rec record) (family.Member, bool) {
	id := rec.text(fieldID)
	name := rec.text(fieldName)
	if name == "" {
		b.warn(errors.WarnMissingName, index, id, "record has no name, row skipped")
		return family.Member{}, false
	}

	m := family.Member{
		ID:          id,
		DisplayName: name,
		Role:        rec.text(fieldRole),
		BirthDate:   rec.text(fieldBirthDate),
		DeathDate:   rec.text(fieldDeathDate),
		Bio:         rec.text(fieldBio),
		AvatarRef:   rec.text(fieldAvatarRef),
	}
	if v, ok := rec.lookup(fieldStoryCount); ok {
		n, err := scalarCount(v)
		if err != nil {
			b.warn(errors.WarnInvalidRow, index, id, "storyCount: %v, using 0", err)
		}
		m.StoryCount = n
	}
	if v, ok := rec.lookup(fieldHasNewStories); ok {
		flag, err := scalarBool(v)
		if err != nil {
			b.warn(errors.WarnInvalidRow, index, id, "hasNewStories: %v, using false", err)
		}
		m.HasNewStories = flag
	}
	return m, true
}

// resolve finds a batch member by declared id, then by display name.
func (b *batch) resolve(ref string) (string, bool) {
	if ref == "" {
		return "", false
	}
	if id, ok := b.byID[ref]; ok {
		return id, true
	}
	id, ok := b.byName[ref]
	return id, ok
}

// connect adds an edge and records a warning when the store refuses it.
// An existing spouse edge is skipped silently since both partners usually
// reference each other.
func (b *batch) connect(index int, source, target string, kind family.Kind) {
	if kind == family.KindSpouse {
		if _, exists := b.g.Find(source, target, kind); exists {
			return
		}
	}
	id, err := b.g.Connect(source, target, kind)
	if err != nil {
		b.warn(errors.WarnSkippedRelationship, index, source, "%s", errors.UserMessage(err))
		return
	}
	b.res.Relationships = append(b.res.Relationships, id)
}

// linkColumns creates edges from the parentId, fatherId, motherId and
// spouseId columns. References resolve against declared ids of the batch only.
func (b *batch) linkColumns(row createdRow) {
	for _, field := range parentFields {
		ref := row.rec.text(field)
		if ref == "" {
			continue
		}
		parent, ok := b.byID[ref]
		if !ok {
			b.warn(errors.WarnUnresolvedReference, row.index, ref, "%s %q is not part of this import", field, ref)
			continue
		}
		b.connect(row.index, parent, row.id, family.KindParentChild)
	}

	if ref := row.rec.text(fieldSpouseID); ref != "" {
		spouse, ok := b.byID[ref]
		if !ok {
			b.warn(errors.WarnUnresolvedReference, row.index, ref, "%s %q is not part of this import", fieldSpouseID, ref)
			return
		}
		b.connect(row.index, row.id, spouse, family.KindSpouse)
	}
}

// linkNested creates edges from the "children" and "spouse" fields. Each
// entry is an id, a display name or an object carrying either.
func (b *batch) linkNested(row createdRow) {
	if v, ok := row.rec.lookup(fieldChildren); ok {
		for _, entry := range entries(v) {
			ref := reference(entry)
			child, ok := b.resolve(ref)
			if !ok {
				b.warn(errors.WarnUnresolvedReference, row.index, ref, "child %q not found", ref)
				continue
			}
			b.connect(row.index, row.id, child, family.KindParentChild)
		}
	}
	if v, ok := row.rec.lookup(fieldSpouse); ok {
		for _, entry := range entries(v) {
			ref := reference(entry)
			spouse, ok := b.resolve(ref)
			if !ok {
				b.warn(errors.WarnUnresolvedReference, row.index, ref, "spouse %q not found", ref)
				continue
			}
			b.connect(row.index, row.id, spouse, family.KindSpouse)
		}
	}
}

// linkGraph adds the explicit relationship entries of a graph-shaped payload.
func (b *batch) linkGraph(items []any) {
	for i, item := range items {
		rec, ok := asRecord(item)
		if !ok {
			b.warn(errors.WarnInvalidRow, i, "", "relationship is not a record (%T)", item)
			continue
		}

		raw := rec.text(fieldKind)
		kind, ok := ParseKind(raw)
		if !ok {
			b.warn(errors.WarnSkippedRelationship, i, raw, "unknown relationship kind %q", raw)
			continue
		}
		srcRef, tgtRef := rec.text(fieldSource), rec.text(fieldTarget)
		source, ok := b.resolve(srcRef)
		if !ok {
			b.warn(errors.WarnUnresolvedReference, i, srcRef, "relationship source %q not found", srcRef)
			continue
		}
		target, ok := b.resolve(tgtRef)
		if !ok {
			b.warn(errors.WarnUnresolvedReference, i, tgtRef, "relationship target %q not found", tgtRef)
			continue
		}

		r := family.Relationship{ID: rec.text(fieldID), SourceID: source, TargetID: target, Kind: kind}
		if v, ok := rec.lookup(fieldSharedStoryCount); ok {
			n, err := scalarCount(v)
			if err != nil {
				b.warn(errors.WarnInvalidRow, i, r.ID, "sharedStoryCount: %v, using 0", err)
			}
			r.SharedStoryCount = n
		}
		id, err := b.g.AddRelationship(r)
		if err != nil {
			b.warn(errors.WarnSkippedRelationship, i, r.ID, "%s", errors.UserMessage(err))
			continue
		}
		b.res.Relationships = append(b.res.Relationships, id)
	}
}

// entries accepts a single reference or a list of them.
func entries(v any) []any {
	if l, ok := asList(v); ok {
		return l
	}
	return []any{v}
}

// reference extracts the id or name a nested entry points at.
func reference(v any) string {
	if rec, ok := asRecord(v); ok {
		if id := rec.text(fieldID); id != "" {
			return id
		}
		return rec.text(fieldName)
	}
	return scalarString(v)
}
