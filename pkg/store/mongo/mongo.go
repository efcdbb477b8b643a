// Package mongo stores family trees in a MongoDB collection.
package mongo

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/matzehuels/kintree/pkg/errors"
	"github.com/matzehuels/kintree/pkg/graph"
	"github.com/matzehuels/kintree/pkg/store"
)

// Defaults for Config.
const (
	DefaultDatabase   = "kintree"
	DefaultCollection = "trees"
	connectTimeout    = 10 * time.Second
)

// Config configures the MongoDB connection.
type Config struct {
	URI        string `toml:"uri"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
}

// Store is a store.Store backed by one MongoDB collection. Trees are stored
// as documents keyed by _id.
type Store struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// New connects and pings the primary.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.URI == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "mongo: uri is required")
	}
	if cfg.Database == "" {
		cfg.Database = DefaultDatabase
	}
	if cfg.Collection == "" {
		cfg.Collection = DefaultCollection
	}

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return &Store{
		client: client,
		coll:   client.Database(cfg.Database).Collection(cfg.Collection),
	}, nil
}

func (s *Store) Save(ctx context.Context, t *store.Tree) error {
	if err := store.ValidateID(t.ID); err != nil {
		return err
	}
	now := time.Now().UTC().Truncate(time.Millisecond)
	t.UpdatedAt = now

	var prev struct {
		CreatedAt time.Time `bson:"created_at"`
	}
	err := s.coll.FindOne(ctx, bson.M{"_id": t.ID},
		options.FindOne().SetProjection(bson.M{"created_at": 1})).Decode(&prev)
	switch {
	case err == nil:
		t.CreatedAt = prev.CreatedAt
	case stderrors.Is(err, mongo.ErrNoDocuments):
		if t.CreatedAt.IsZero() {
			t.CreatedAt = now
		}
	default:
		return fmt.Errorf("mongo find %s: %w", t.ID, err)
	}

	_, err = s.coll.ReplaceOne(ctx, bson.M{"_id": t.ID}, t, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("mongo save %s: %w", t.ID, err)
	}
	return nil
}

func (s *Store) Load(ctx context.Context, id string) (*store.Tree, error) {
	var t store.Tree
	if err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&t); err != nil {
		return nil, loadError(id, err)
	}
	return &t, nil
}

// loadError maps a missing document, possibly wrapped by the driver, to
// NOT_FOUND.
func loadError(id string, err error) error {
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		return errors.New(errors.ErrCodeNotFound, "tree %q not found", id)
	}
	return fmt.Errorf("mongo load %s: %w", id, err)
}

// SaveLayout sets layouts.<kind> with a filter on updated_at, so a tree
// replaced or deleted since it was loaded is left alone.
func (s *Store) SaveLayout(ctx context.Context, id, kind string, doc graph.LayoutDocument, expect time.Time) error {
	res, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": id, "updated_at": expect},
		bson.M{"$set": bson.M{"layouts." + kind: doc}})
	if err != nil {
		return fmt.Errorf("mongo save layout %s: %w", id, err)
	}
	if res.MatchedCount > 0 {
		return nil
	}
	n, err := s.coll.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("mongo save layout %s: %w", id, err)
	}
	if n == 0 {
		return errors.New(errors.ErrCodeNotFound, "tree %q not found", id)
	}
	return errors.New(errors.ErrCodeConflict, "tree %q changed since it was loaded", id)
}

func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("mongo delete %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return errors.New(errors.ErrCodeNotFound, "tree %q not found", id)
	}
	return nil
}

// List projects only the fields a summary needs.
func (s *Store) List(ctx context.Context) ([]store.Summary, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetProjection(bson.M{"_id": 1, "name": 1, "updated_at": 1, "document.nodes.id": 1})
	cur, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo list: %w", err)
	}
	defer cur.Close(ctx)

	out := []store.Summary{}
	for cur.Next(ctx) {
		var t store.Tree
		if err := cur.Decode(&t); err != nil {
			return nil, fmt.Errorf("mongo decode: %w", err)
		}
		out = append(out, t.Summarize())
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("mongo list: %w", err)
	}
	return out, nil
}

func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}

var _ store.Store = (*Store)(nil)
