// Package query - the row-stream interpreter.
package query

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/orneryd/yggdrasil/pkg/graph"
)

// DefaultMaxRecursionDepth caps variable-length, hierarchy, and reachability
// walks. Hitting the cap truncates the walk silently; it never raises.
const DefaultMaxRecursionDepth = 100

// Record is one result record produced by a projection.
type Record map[string]any

// Engine interprets a Query against a graph store.
//
// Execution is single-threaded, synchronous, and deterministic: for a fixed
// store state and a fixed AST, two executions produce the same record
// sequence. Row enumeration order is driven by node insertion order per
// label and edge insertion order per adjacency bucket; callers relying on a
// specific order must use OrderBy.
//
// The engine performs no writes. It reads the store exclusively through its
// copying accessors, so result records can never mutate store state.
//
// Example:
//
//	engine := query.NewEngine(store)
//	q := query.NewQuery().Match("user").As("u").
//		Where(query.Eq("u", "verified", true))
//	records, err := engine.Execute(context.Background(), q)
type Engine struct {
	store    *graph.Store
	maxDepth int
	collator *collate.Collator
}

// Option configures an Engine.
type Option func(*Engine)

// WithMaxRecursionDepth overrides the recursion cap for variable-length,
// hierarchy, and reachability walks.
func WithMaxRecursionDepth(depth int) Option {
	return func(e *Engine) {
		if depth > 0 {
			e.maxDepth = depth
		}
	}
}

// WithCollation overrides the locale used for string ordering in OrderBy.
func WithCollation(tag language.Tag) Option {
	return func(e *Engine) {
		e.collator = collate.New(tag)
	}
}

// NewEngine creates an engine bound to a store.
func NewEngine(store *graph.Store, opts ...Option) *Engine {
	e := &Engine{
		store:    store,
		maxDepth: DefaultMaxRecursionDepth,
		collator: collate.New(language.Und),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// row is one execution context: alias-to-entity bindings plus computed
// scalars. A nil node pointer under a key is the null-sentinel binding an
// optional traversal leaves behind; projection checks for it explicitly.
type row struct {
	nodes    map[string]*graph.Node
	edges    map[string]*graph.Edge
	computed map[string]any
}

func newRow() *row {
	return &row{
		nodes:    map[string]*graph.Node{},
		edges:    map[string]*graph.Edge{},
		computed: map[string]any{},
	}
}

// clone returns a value copy of the row. Bound entities are shared (the
// engine never mutates them); the binding maps themselves are copied so
// mutating one row cannot affect another.
func (r *row) clone() *row {
	out := &row{
		nodes:    make(map[string]*graph.Node, len(r.nodes)),
		edges:    make(map[string]*graph.Edge, len(r.edges)),
		computed: make(map[string]any, len(r.computed)),
	}
	for k, v := range r.nodes {
		out.nodes[k] = v
	}
	for k, v := range r.edges {
		out.edges[k] = v
	}
	for k, v := range r.computed {
		out.computed[k] = v
	}
	return out
}

// node returns the bound, non-sentinel node for an internal alias.
func (r *row) node(alias string) (*graph.Node, bool) {
	node, ok := r.nodes[alias]
	if !ok || node == nil {
		return nil, false
	}
	return node, true
}

// Execute validates and interprets the query, returning the projected
// records.
//
// The context is consulted at step boundaries only; there are no suspension
// points inside a step.
func (e *Engine) Execute(ctx context.Context, q *Query) ([]Record, error) {
	if q == nil {
		return nil, errors.New("nil query")
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}

	rows, err := e.runSteps(ctx, q, q.steps, []*row{newRow()})
	if err != nil {
		return nil, err
	}
	return e.project(q, rows)
}

// Count executes a query and unwraps its count projection.
func (e *Engine) Count(ctx context.Context, q *Query) (int, error) {
	records, err := e.Execute(ctx, q.CountOnly())
	if err != nil {
		return 0, err
	}
	if len(records) != 1 {
		return 0, fmt.Errorf("count projection produced %d records", len(records))
	}
	count, _ := records[0]["count"].(int)
	return count, nil
}

// Exists executes a query and unwraps its exists projection.
func (e *Engine) Exists(ctx context.Context, q *Query) (bool, error) {
	records, err := e.Execute(ctx, q.ExistsOnly())
	if err != nil {
		return false, err
	}
	if len(records) != 1 {
		return false, fmt.Errorf("exists projection produced %d records", len(records))
	}
	exists, _ := records[0]["exists"].(bool)
	return exists, nil
}

// Single executes a query expected to produce exactly one record. Zero or
// more than one fail with ErrCardinality.
func (e *Engine) Single(ctx context.Context, q *Query) (Record, error) {
	records, err := e.Execute(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(records) != 1 {
		return nil, fmt.Errorf("got %d results: %w", len(records), ErrCardinality)
	}
	return records[0], nil
}

// runSteps transforms the row set through a step pipeline. An empty row set
// short-circuits the remaining steps. Fork branch execution re-enters here
// with the branch query's alias tables.
func (e *Engine) runSteps(ctx context.Context, q *Query, steps []Step, rows []*row) ([]*row, error) {
	for i, step := range steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if len(rows) == 0 {
			return rows, nil
		}
		var err error
		rows, err = e.applyStep(ctx, q, step, rows)
		if err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i, step.Kind, err)
		}
	}
	return rows, nil
}

// applyStep dispatches one step. Unknown kinds are rejected, never skipped.
func (e *Engine) applyStep(ctx context.Context, q *Query, step Step, rows []*row) ([]*row, error) {
	switch step.Kind {
	case StepMatch:
		return e.applyMatch(step, rows)
	case StepMatchByID:
		return e.applyMatchByID(step, rows)
	case StepTraversal:
		return e.applyTraversal(q, step, rows)
	case StepWhere:
		return e.applyWhere(q, step, rows)
	case StepHierarchy:
		return e.applyHierarchy(step, rows)
	case StepReachable:
		return e.applyReachable(step, rows)
	case StepOrderBy:
		return e.applyOrderBy(q, step, rows)
	case StepLimit:
		if step.Count < len(rows) {
			rows = rows[:step.Count]
		}
		return rows, nil
	case StepSkip:
		if step.Count >= len(rows) {
			return nil, nil
		}
		return rows[step.Count:], nil
	case StepDistinct:
		return applyDistinct(rows), nil
	case StepAggregate:
		return e.applyAggregate(q, step, rows)
	case StepAlias:
		// Metadata only; alias tables were updated at build time.
		return rows, nil
	case StepFork:
		return e.applyFork(ctx, step, rows)
	default:
		return nil, fmt.Errorf("%q: %w", step.Kind, ErrUnknownStep)
	}
}

// applyMatch binds every node with the step label to every input row.
func (e *Engine) applyMatch(step Step, rows []*row) ([]*row, error) {
	nodes, err := e.store.NodesByLabel(step.Label)
	if err != nil {
		return nil, err
	}
	out := make([]*row, 0, len(rows)*len(nodes))
	for _, r := range rows {
		for _, node := range nodes {
			next := r.clone()
			next.nodes[step.Alias] = node
			out = append(out, next)
		}
	}
	return out, nil
}

// applyMatchByID binds the identified node to every input row; a missing
// node empties the row set.
func (e *Engine) applyMatchByID(step Step, rows []*row) ([]*row, error) {
	node, err := e.store.GetNode(graph.NodeID(step.NodeID))
	if err != nil {
		if errors.Is(err, graph.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	out := make([]*row, 0, len(rows))
	for _, r := range rows {
		next := r.clone()
		next.nodes[step.Alias] = node
		out = append(out, next)
	}
	return out, nil
}
