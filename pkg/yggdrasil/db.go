// Package yggdrasil provides the main API for embedded Yggdrasil usage.
//
// Yggdrasil is an in-memory, typed property-graph engine with an algebraic
// query language. This package wires the core components together behind one
// handle:
//
//   - Storage: the in-memory graph store with label, type, adjacency, and
//     property indices (pkg/graph)
//   - Query: the immutable query AST and its row-stream interpreter
//     (pkg/query)
//   - Schema: optional declarative validation of mutations (pkg/schema)
//   - Identity: opaque, time-ordered id generation (pkg/ident)
//
// Example Usage:
//
//	db, err := yggdrasil.Open(yggdrasil.DefaultConfig())
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer db.Close()
//
//	alice, _ := db.CreateNode("user", map[string]any{"name": "Alice"})
//	post, _ := db.CreateNode("post", map[string]any{"title": "Hello"})
//	db.Connect(alice.ID, post.ID, "authored", nil)
//
//	q := db.Query().Match("post").As("p").
//		Where(query.Eq("p", "title", "Hello")).
//		Select("p")
//	records, _ := db.Execute(context.Background(), q)
//
// Mutations validate against the configured schema (when one is set),
// generate ids through the configured generator, and stamp createdAt /
// updatedAt. The query path is read-only: executing queries never writes to
// the store.
package yggdrasil

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/text/language"

	"github.com/orneryd/yggdrasil/pkg/graph"
	"github.com/orneryd/yggdrasil/pkg/ident"
	"github.com/orneryd/yggdrasil/pkg/query"
	"github.com/orneryd/yggdrasil/pkg/schema"
)

// Config configures an embedded database handle.
type Config struct {
	// Schema validates mutations when non-nil. The query engine never
	// consults it.
	Schema *schema.Schema

	// IDs generates node and edge ids. Defaults to time-ordered UUIDv7.
	IDs ident.Generator

	// MaxRecursionDepth caps traversal walks. Zero means the engine default.
	MaxRecursionDepth int

	// CollationLocale is the BCP 47 tag for ORDER BY string collation.
	// Empty means the undetermined locale.
	CollationLocale string
}

// DefaultConfig returns a config with the engine defaults and no schema.
func DefaultConfig() Config {
	return Config{IDs: ident.Default}
}

// DB is an embedded Yggdrasil database: a store plus a query engine.
//
// The store serializes concurrent access internally; query execution itself
// is single-threaded and assumes the caller does not interleave mutations
// with a running query.
type DB struct {
	store  *graph.Store
	engine *query.Engine
	schema *schema.Schema
	ids    ident.Generator
}

// Open creates an embedded database from a config.
func Open(cfg Config) (*DB, error) {
	store := graph.NewStore()

	opts := []query.Option{}
	if cfg.MaxRecursionDepth > 0 {
		opts = append(opts, query.WithMaxRecursionDepth(cfg.MaxRecursionDepth))
	}
	if cfg.CollationLocale != "" {
		tag, err := language.Parse(cfg.CollationLocale)
		if err != nil {
			return nil, fmt.Errorf("collation locale %q: %w", cfg.CollationLocale, err)
		}
		opts = append(opts, query.WithCollation(tag))
	}

	ids := cfg.IDs
	if ids == nil {
		ids = ident.Default
	}

	return &DB{
		store:  store,
		engine: query.NewEngine(store, opts...),
		schema: cfg.Schema,
		ids:    ids,
	}, nil
}

// Store exposes the underlying graph store.
func (db *DB) Store() *graph.Store {
	return db.store
}

// Close releases the store. Subsequent operations fail.
func (db *DB) Close() error {
	return db.store.Close()
}

// CreateNode validates, stamps, and stores a new node, returning a copy.
// The id comes from the configured generator.
func (db *DB) CreateNode(label string, props map[string]any) (*graph.Node, error) {
	if db.schema != nil {
		if err := db.schema.ValidateNode(label, props); err != nil {
			return nil, err
		}
	}
	now := time.Now()
	node := &graph.Node{
		ID:         graph.NodeID(db.ids.NewID()),
		Label:      label,
		Properties: props,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := db.store.CreateNode(node); err != nil {
		return nil, err
	}
	return node, nil
}

// CreateNodeWithID is CreateNode with a caller-chosen id, for importers and
// fixtures.
func (db *DB) CreateNodeWithID(id, label string, props map[string]any) (*graph.Node, error) {
	if db.schema != nil {
		if err := db.schema.ValidateNode(label, props); err != nil {
			return nil, err
		}
	}
	now := time.Now()
	node := &graph.Node{
		ID:         graph.NodeID(id),
		Label:      label,
		Properties: props,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := db.store.CreateNode(node); err != nil {
		return nil, err
	}
	return node, nil
}

// GetNode retrieves a node by id.
func (db *DB) GetNode(id graph.NodeID) (*graph.Node, error) {
	return db.store.GetNode(id)
}

// UpdateNode merges a property patch into a node, validating the merged
// shape against the schema first.
func (db *DB) UpdateNode(id graph.NodeID, patch map[string]any) (*graph.Node, error) {
	if db.schema != nil {
		current, err := db.store.GetNode(id)
		if err != nil {
			return nil, err
		}
		merged := make(map[string]any, len(current.Properties)+len(patch))
		for k, v := range current.Properties {
			merged[k] = v
		}
		for k, v := range patch {
			merged[k] = v
		}
		if err := db.schema.ValidateNode(current.Label, merged); err != nil {
			return nil, err
		}
	}
	return db.store.UpdateNode(id, patch)
}

// DeleteNode removes a node and all its edges.
func (db *DB) DeleteNode(id graph.NodeID) error {
	return db.store.DeleteNode(id)
}

// Connect creates an edge between two existing nodes, validating endpoint
// labels and edge properties against the schema.
func (db *DB) Connect(from, to graph.NodeID, edgeType string, props map[string]any) (*graph.Edge, error) {
	if db.schema != nil {
		fromNode, err := db.store.GetNode(from)
		if err != nil {
			return nil, err
		}
		toNode, err := db.store.GetNode(to)
		if err != nil {
			return nil, err
		}
		if err := db.schema.ValidateEdge(edgeType, fromNode.Label, toNode.Label, props); err != nil {
			return nil, err
		}
	}
	edge := &graph.Edge{
		ID:         graph.EdgeID(db.ids.NewID()),
		Type:       edgeType,
		From:       from,
		To:         to,
		Properties: props,
		CreatedAt:  time.Now(),
	}
	if err := db.store.CreateEdge(edge); err != nil {
		return nil, err
	}
	return edge, nil
}

// Disconnect removes an edge by id.
func (db *DB) Disconnect(id graph.EdgeID) error {
	return db.store.DeleteEdge(id)
}

// Query starts a new query builder.
func (db *DB) Query() *query.Query {
	return query.NewQuery()
}

// Execute runs a query against the store.
func (db *DB) Execute(ctx context.Context, q *query.Query) ([]query.Record, error) {
	return db.engine.Execute(ctx, q)
}

// Count runs a query and returns its row count.
func (db *DB) Count(ctx context.Context, q *query.Query) (int, error) {
	return db.engine.Count(ctx, q)
}

// Exists runs a query and reports whether it produced any row.
func (db *DB) Exists(ctx context.Context, q *query.Query) (bool, error) {
	return db.engine.Exists(ctx, q)
}

// Single runs a query expected to produce exactly one record; zero or more
// than one fail with query.ErrCardinality.
func (db *DB) Single(ctx context.Context, q *query.Query) (query.Record, error) {
	return db.engine.Single(ctx, q)
}

// Begin starts a store transaction.
func (db *DB) Begin() error { return db.store.Begin() }

// Commit commits the active transaction.
func (db *DB) Commit() error { return db.store.Commit() }

// Rollback rolls the active transaction back.
func (db *DB) Rollback() error { return db.store.Rollback() }

// Export returns the passive form of the store.
func (db *DB) Export() *graph.ExportedGraph { return db.store.Export() }

// Import replaces the store contents with an exported graph.
func (db *DB) Import(exported *graph.ExportedGraph) error { return db.store.Import(exported) }

// Stats summarizes the store contents.
func (db *DB) Stats() graph.Stats { return db.store.Stats() }
