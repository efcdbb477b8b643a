package family

import (
	"slices"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/kintree/pkg/errors"
)

// Graph is the in-memory store of members and relationships.
//
// The zero value is not usable - use New to create a valid Graph instance.
// Graph is not safe for concurrent use without external synchronization.
type Graph struct {
	members     map[string]*Member
	memberOrder []string
	rels        map[string]*Relationship
	relOrder    []string
	keys        map[pairKey]string  // canonical (pair, kind) -> relationship ID
	incident    map[string][]string // member ID -> incident relationship IDs
	logger      *log.Logger
}

// Option configures a Graph.
type Option func(*Graph)

// WithLogger sets the logger used for warning signals (no-op removals).
// Defaults to log.Default().
func WithLogger(l *log.Logger) Option {
	return func(g *Graph) {
		if l != nil {
			g.logger = l
		}
	}
}

// New creates an empty Graph.
func New(opts ...Option) *Graph {
	g := &Graph{
		members:  make(map[string]*Member),
		rels:     make(map[string]*Relationship),
		keys:     make(map[pairKey]string),
		incident: make(map[string][]string),
		logger:   log.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// =============================================================================
// Members
// =============================================================================

// AddMember validates m and inserts it with default annotation values.
//
// The display name is trimmed and must be non-empty (ErrCodeInvalidMember).
// When m.ID is empty a random UUID is assigned. An ID already present in the
// graph yields ErrCodeDuplicateMember. Position, generation and lineage are
// reset; story counters are kept but must not be negative.
func (g *Graph) AddMember(m Member) (string, error) {
	name, err := errors.ValidateDisplayName(m.DisplayName)
	if err != nil {
		return "", err
	}
	if err := errors.ValidateID(errors.ErrCodeInvalidMember, m.ID); err != nil {
		return "", err
	}
	if err := errors.ValidateCount(errors.ErrCodeInvalidMember, "storyCount", m.StoryCount); err != nil {
		return "", err
	}
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if _, exists := g.members[m.ID]; exists {
		return "", errors.New(errors.ErrCodeDuplicateMember, "member %q already exists", m.ID)
	}

	m.DisplayName = name
	m.Role = strings.TrimSpace(m.Role)
	m.Position = Position{}
	m.Generation = 0
	m.IsInDirectLineage = false

	g.members[m.ID] = &m
	g.memberOrder = append(g.memberOrder, m.ID)
	return m.ID, nil
}

// RemoveMember deletes the member and every relationship incident to it.
// If the member does not exist nothing changes and a warning is returned
// (and logged) instead of an error.
func (g *Graph) RemoveMember(id string) *errors.Warning {
	if _, ok := g.members[id]; !ok {
		w := errors.NewWarning(errors.WarnUnknownMember, id, "remove: member %q not found", id)
		g.logger.Warn("remove member: not found", "id", id)
		return w
	}
	for _, relID := range slices.Clone(g.incident[id]) {
		g.deleteRelationship(relID)
	}
	delete(g.incident, id)
	delete(g.members, id)
	g.memberOrder = slices.DeleteFunc(g.memberOrder, func(s string) bool { return s == id })
	return nil
}

// UpdateStoryCount sets the externally supplied story annotations of a member.
func (g *Graph) UpdateStoryCount(memberID string, count int, hasNew bool) error {
	m, ok := g.members[memberID]
	if !ok {
		return errors.New(errors.ErrCodeUnknownMember, "member %q not found", memberID)
	}
	if err := errors.ValidateCount(errors.ErrCodeInvalidMember, "storyCount", count); err != nil {
		return err
	}
	m.StoryCount = count
	m.HasNewStories = hasNew
	return nil
}

// SetPosition overrides the position of a single member.
// The next layout run overwrites it.
func (g *Graph) SetPosition(id string, p Position) error {
	m, ok := g.members[id]
	if !ok {
		return errors.New(errors.ErrCodeUnknownMember, "member %q not found", id)
	}
	m.Position = p
	return nil
}

// Annotate writes layout-derived values onto a member.
func (g *Graph) Annotate(id string, a Annotation) error {
	m, ok := g.members[id]
	if !ok {
		return errors.New(errors.ErrCodeUnknownMember, "member %q not found", id)
	}
	m.Position = a.Position
	m.Generation = a.Generation
	m.IsInDirectLineage = a.IsInDirectLineage
	return nil
}

// Member returns a copy of the member with the given ID.
func (g *Graph) Member(id string) (Member, bool) {
	m, ok := g.members[id]
	if !ok {
		return Member{}, false
	}
	return *m, true
}

// HasMember reports whether a member with the given ID exists.
func (g *Graph) HasMember(id string) bool {
	_, ok := g.members[id]
	return ok
}

// Members returns copies of all members in insertion order.
func (g *Graph) Members() []Member {
	out := make([]Member, len(g.memberOrder))
	for i, id := range g.memberOrder {
		out[i] = *g.members[id]
	}
	return out
}

// MemberCount returns the number of members in the graph.
func (g *Graph) MemberCount() int { return len(g.members) }

// =============================================================================
// Relationships
// =============================================================================

// Connect creates a relationship between two existing members and returns
// its conventional ID (see RelationshipID).
//
// Errors, in the order they are checked:
//   - ErrCodeInvalidRelationship: unknown kind
//   - ErrCodeSelfReference: source == target
//   - ErrCodeUnknownMember: either endpoint is missing
//   - ErrCodeDuplicateRelationship: the canonical (pair, kind) already exists
func (g *Graph) Connect(source, target string, kind Kind) (string, error) {
	return g.AddRelationship(Relationship{SourceID: source, TargetID: target, Kind: kind})
}

// AddRelationship inserts r with the same validation as Connect. A non-empty
// r.ID is kept (an ID already in use is ErrCodeDuplicateRelationship);
// otherwise the conventional ID is assigned. Spouse endpoints are stored in
// canonical order.
func (g *Graph) AddRelationship(r Relationship) (string, error) {
	if !r.Kind.Valid() {
		return "", errors.New(errors.ErrCodeInvalidRelationship, "unknown relationship kind %q", r.Kind)
	}
	if r.SourceID == r.TargetID {
		return "", errors.New(errors.ErrCodeSelfReference, "member %q cannot be related to itself", r.SourceID)
	}
	if _, ok := g.members[r.SourceID]; !ok {
		return "", errors.New(errors.ErrCodeUnknownMember, "source member %q not found", r.SourceID)
	}
	if _, ok := g.members[r.TargetID]; !ok {
		return "", errors.New(errors.ErrCodeUnknownMember, "target member %q not found", r.TargetID)
	}
	if err := errors.ValidateID(errors.ErrCodeInvalidRelationship, r.ID); err != nil {
		return "", err
	}
	if err := errors.ValidateCount(errors.ErrCodeInvalidRelationship, "sharedStoryCount", r.SharedStoryCount); err != nil {
		return "", err
	}

	key := keyOf(r.SourceID, r.TargetID, r.Kind)
	if existing, ok := g.keys[key]; ok {
		return "", errors.New(errors.ErrCodeDuplicateRelationship,
			"%s relationship between %q and %q already exists (%s)", r.Kind, r.SourceID, r.TargetID, existing)
	}
	if r.ID == "" {
		r.ID = RelationshipID(r.SourceID, r.TargetID, r.Kind)
	}
	if _, ok := g.rels[r.ID]; ok {
		return "", errors.New(errors.ErrCodeDuplicateRelationship, "relationship %q already exists", r.ID)
	}

	r.SourceID, r.TargetID = key.source, key.target
	g.rels[r.ID] = &r
	g.relOrder = append(g.relOrder, r.ID)
	g.keys[key] = r.ID
	g.incident[r.SourceID] = append(g.incident[r.SourceID], r.ID)
	g.incident[r.TargetID] = append(g.incident[r.TargetID], r.ID)
	return r.ID, nil
}

// Disconnect deletes a relationship. If it does not exist nothing changes and
// a warning is returned (and logged).
func (g *Graph) Disconnect(id string) *errors.Warning {
	if _, ok := g.rels[id]; !ok {
		w := errors.NewWarning(errors.WarnUnknownRelationship, id, "disconnect: relationship %q not found", id)
		g.logger.Warn("disconnect: relationship not found", "id", id)
		return w
	}
	g.deleteRelationship(id)
	return nil
}

// UpdateSharedStoryCount sets the externally supplied shared story count.
func (g *Graph) UpdateSharedStoryCount(relationshipID string, count int) error {
	r, ok := g.rels[relationshipID]
	if !ok {
		return errors.New(errors.ErrCodeUnknownRelationship, "relationship %q not found", relationshipID)
	}
	if err := errors.ValidateCount(errors.ErrCodeInvalidRelationship, "sharedStoryCount", count); err != nil {
		return err
	}
	r.SharedStoryCount = count
	return nil
}

// Relationship returns a copy of the relationship with the given ID.
func (g *Graph) Relationship(id string) (Relationship, bool) {
	r, ok := g.rels[id]
	if !ok {
		return Relationship{}, false
	}
	return *r, true
}

// Find returns the relationship of the given kind between two members, if any.
// For spouses the endpoint order does not matter.
func (g *Graph) Find(source, target string, kind Kind) (Relationship, bool) {
	id, ok := g.keys[keyOf(source, target, kind)]
	if !ok {
		return Relationship{}, false
	}
	return *g.rels[id], true
}

// Relationships returns copies of all relationships in insertion order.
func (g *Graph) Relationships() []Relationship {
	out := make([]Relationship, len(g.relOrder))
	for i, id := range g.relOrder {
		out[i] = *g.rels[id]
	}
	return out
}

// Incident returns copies of the relationships touching the member, in
// insertion order. Returns nil for unknown members.
func (g *Graph) Incident(memberID string) []Relationship {
	ids := g.incident[memberID]
	if len(ids) == 0 {
		return nil
	}
	out := make([]Relationship, len(ids))
	for i, id := range ids {
		out[i] = *g.rels[id]
	}
	return out
}

// RelationshipCount returns the number of relationships in the graph.
func (g *Graph) RelationshipCount() int { return len(g.rels) }

func (g *Graph) deleteRelationship(id string) {
	r := g.rels[id]
	delete(g.rels, id)
	delete(g.keys, keyOf(r.SourceID, r.TargetID, r.Kind))
	g.relOrder = slices.DeleteFunc(g.relOrder, func(s string) bool { return s == id })
	for _, end := range []string{r.SourceID, r.TargetID} {
		g.incident[end] = slices.DeleteFunc(g.incident[end], func(s string) bool { return s == id })
		if len(g.incident[end]) == 0 {
			delete(g.incident, end)
		}
	}
}

// =============================================================================
// Batches
// =============================================================================

// Clone returns a deep copy of the graph sharing only the logger.
func (g *Graph) Clone() *Graph {
	c := &Graph{
		members:     make(map[string]*Member, len(g.members)),
		memberOrder: slices.Clone(g.memberOrder),
		rels:        make(map[string]*Relationship, len(g.rels)),
		relOrder:    slices.Clone(g.relOrder),
		keys:        make(map[pairKey]string, len(g.keys)),
		incident:    make(map[string][]string, len(g.incident)),
		logger:      g.logger,
	}
	for id, m := range g.members {
		cp := *m
		c.members[id] = &cp
	}
	for id, r := range g.rels {
		cp := *r
		c.rels[id] = &cp
	}
	for k, v := range g.keys {
		c.keys[k] = v
	}
	for k, v := range g.incident {
		c.incident[k] = slices.Clone(v)
	}
	return c
}

// Batch runs fn against a copy of the graph and commits the copy only when
// fn returns nil. On error the graph is left exactly as it was.
func (g *Graph) Batch(fn func(tx *Graph) error) error {
	tx := g.Clone()
	if err := fn(tx); err != nil {
		return err
	}
	g.members = tx.members
	g.memberOrder = tx.memberOrder
	g.rels = tx.rels
	g.relOrder = tx.relOrder
	g.keys = tx.keys
	g.incident = tx.incident
	return nil
}
