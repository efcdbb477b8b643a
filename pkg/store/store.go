// Package store persists family trees for the HTTP server.
//
// A [Tree] is the canonical graph document plus any layouts computed for it,
// keyed by layout kind. Backends:
//   - [Memory]: in-process, for development and tests
//   - [FileStore]: one JSON file per tree
//   - mongo.Store: MongoDB collection, for multi-instance deployments
//
// Missing trees are reported with errors.ErrCodeNotFound.
package store

import (
	"context"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/kintree/pkg/errors"
	"github.com/matzehuels/kintree/pkg/graph"
)

// Tree is one stored family tree.
type Tree struct {
	ID        string                          `json:"id" bson:"_id"`
	Name      string                          `json:"name,omitempty" bson:"name,omitempty"`
	Document  graph.Document                  `json:"document" bson:"document"`
	Layouts   map[string]graph.LayoutDocument `json:"layouts,omitempty" bson:"layouts,omitempty"`
	CreatedAt time.Time                       `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time                       `json:"updated_at" bson:"updated_at"`
}

// Summary is the listing form of a Tree.
type Summary struct {
	ID          string    `json:"id" bson:"_id"`
	Name        string    `json:"name,omitempty" bson:"name,omitempty"`
	MemberCount int       `json:"member_count" bson:"member_count"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updated_at"`
}

// Summarize returns the listing form of t.
func (t *Tree) Summarize() Summary {
	return Summary{ID: t.ID, Name: t.Name, MemberCount: len(t.Document.Nodes), UpdatedAt: t.UpdatedAt}
}

// Store is the interface for tree storage backends.
// Implementations must be safe for concurrent use.
type Store interface {
	// Save inserts or replaces a tree. CreatedAt is preserved on replace
	// and UpdatedAt is set by the store.
	Save(ctx context.Context, t *Tree) error

	// Load returns the tree or an ErrCodeNotFound error.
	Load(ctx context.Context, id string) (*Tree, error)

	// SaveLayout stores doc under kind in the layouts of tree id, but only
	// while the tree's UpdatedAt still equals expect. It returns
	// ErrCodeNotFound when the tree is gone and ErrCodeConflict when it was
	// replaced. UpdatedAt is not changed.
	SaveLayout(ctx context.Context, id, kind string, doc graph.LayoutDocument, expect time.Time) error

	// Delete removes a tree. Deleting a missing tree is ErrCodeNotFound.
	Delete(ctx context.Context, id string) error

	// List returns summaries ordered by id.
	List(ctx context.Context) ([]Summary, error)

	// Close releases the backend.
	Close() error
}

var idPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,127}$`)

// ValidateID rejects tree ids that are not safe as file names or URL path
// segments.
func ValidateID(id string) error {
	if !idPattern.MatchString(id) {
		return errors.New(errors.ErrCodeInvalidInput, "invalid tree id %q", id)
	}
	return nil
}

// NewID returns a random tree id.
func NewID() string {
	return uuid.NewString()
}

func notFound(id string) error {
	return errors.New(errors.ErrCodeNotFound, "tree %q not found", id)
}

func conflict(id string) error {
	return errors.New(errors.ErrCodeConflict, "tree %q changed since it was loaded", id)
}

// setLayout applies a SaveLayout to a loaded tree.
func setLayout(t *Tree, kind string, doc graph.LayoutDocument, expect time.Time) error {
	if !t.UpdatedAt.Equal(expect) {
		return conflict(t.ID)
	}
	if t.Layouts == nil {
		t.Layouts = make(map[string]graph.LayoutDocument)
	}
	t.Layouts[kind] = doc
	return nil
}

// stamp sets the timestamps of t before a save.
func stamp(t *Tree, prev *Tree, now time.Time) {
	t.UpdatedAt = now
	switch {
	case prev != nil:
		t.CreatedAt = prev.CreatedAt
	case t.CreatedAt.IsZero():
		t.CreatedAt = now
	}
}
