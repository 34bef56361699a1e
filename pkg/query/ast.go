// Package query provides the algebraic query AST and its interpreter for
// Yggdrasil.
//
// A query is an immutable pipeline of steps over a graph store: label and id
// matching, directed and variable-length traversal, hierarchy operations
// (parent, children, ancestors, descendants, siblings, root),
// transitive-closure reachability, boolean/comparison filtering, ordering,
// pagination, grouped aggregation, distinct rows, and a fan-out "fork"
// operator that merges independent sub-traversals through a Cartesian
// product.
//
// Queries are built with a fluent, value-semantics builder: every builder
// method returns a new Query sharing nothing mutable with its input, so a
// prefix can be reused and extended in several directions safely.
//
// Example Usage:
//
//	// All posts authored by verified users, newest first
//	q := query.NewQuery().
//		Match("user").As("author").
//		Where(query.Eq("author", "verified", true)).
//		Out("authored", "post").As("post").
//		OrderBy(query.Desc("post", "createdAt")).
//		Limit(20).
//		Select("author", "post")
//
//	engine := query.NewEngine(store)
//	records, err := engine.Execute(ctx, q)
//
// The engine interprets the AST directly against the store through row-based
// multi-step semantics; see engine.go.
package query

// StepKind discriminates the Step variants. Unknown kinds are rejected with
// a typed error at interpretation time.
type StepKind string

// Step kinds.
const (
	StepMatch     StepKind = "match"
	StepMatchByID StepKind = "matchById"
	StepTraversal StepKind = "traversal"
	StepWhere     StepKind = "where"
	StepHierarchy StepKind = "hierarchy"
	StepReachable StepKind = "reachable"
	StepOrderBy   StepKind = "orderBy"
	StepLimit     StepKind = "limit"
	StepSkip      StepKind = "skip"
	StepDistinct  StepKind = "distinct"
	StepAggregate StepKind = "aggregate"
	StepAlias     StepKind = "alias"
	StepFork      StepKind = "fork"
)

// Direction orients a traversal relative to the bound source node.
type Direction string

// Traversal directions.
const (
	DirOut  Direction = "out"
	DirIn   Direction = "in"
	DirBoth Direction = "both"
)

// Uniqueness selects the revisit policy of variable-length and reachability
// walks: prune on previously visited nodes, previously walked edges, or not
// at all.
type Uniqueness string

// Uniqueness modes.
const (
	UniqueNodes Uniqueness = "nodes"
	UniqueEdges Uniqueness = "edges"
	UniqueNone  Uniqueness = "none"
)

// HierarchyOp names the hierarchy operations.
type HierarchyOp string

// Hierarchy operations.
const (
	HierarchyParent      HierarchyOp = "parent"
	HierarchyChildren    HierarchyOp = "children"
	HierarchyAncestors   HierarchyOp = "ancestors"
	HierarchyDescendants HierarchyOp = "descendants"
	HierarchySiblings    HierarchyOp = "siblings"
	HierarchyRoot        HierarchyOp = "root"
)

// TreeDirection declares which way the hierarchy edge points. TreeUp means
// the edge points child -> parent (e.g. a "hasParent" edge); TreeDown means
// parent -> child (e.g. a "contains" edge).
type TreeDirection string

// Tree directions.
const (
	TreeUp   TreeDirection = "up"
	TreeDown TreeDirection = "down"
)

// SortDirection orders an OrderBy field ascending or descending.
type SortDirection string

// Sort directions.
const (
	SortAsc  SortDirection = "ASC"
	SortDesc SortDirection = "DESC"
)

// DefaultDepthKey is the computed-row key depth is recorded under when a
// hierarchy or reachability step asks for depth and no explicit alias is
// configured.
const DefaultDepthKey = "_depth"

// VariableLength configures a variable-length traversal: emit targets whose
// hop distance from the source lies in [Min, Max]. Max 0 means unbounded
// (capped by the engine's recursion limit).
type VariableLength struct {
	Min        int        `json:"min"`
	Max        int        `json:"max,omitempty"`
	Uniqueness Uniqueness `json:"uniqueness,omitempty"`
}

// HierarchySpec configures a hierarchy step.
//
// MinDepth 0 is treated as 1; MaxDepth 0 means unbounded (capped by the
// engine's recursion limit). UntilKind, when set on ancestors/descendants,
// emits only nodes with that label and stops each path at its first emit.
type HierarchySpec struct {
	Op           HierarchyOp   `json:"op"`
	EdgeType     string        `json:"edgeType"`
	TreeDir      TreeDirection `json:"treeDirection"`
	From         string        `json:"from"`
	To           string        `json:"to"`
	MinDepth     int           `json:"minDepth,omitempty"`
	MaxDepth     int           `json:"maxDepth,omitempty"`
	IncludeSelf  bool          `json:"includeSelf,omitempty"`
	IncludeDepth bool          `json:"includeDepth,omitempty"`
	DepthAlias   string        `json:"depthAlias,omitempty"`
	UntilKind    string        `json:"untilKind,omitempty"`
}

// ReachableSpec configures a transitive-closure reachability step over a set
// of edge types.
type ReachableSpec struct {
	EdgeTypes    []string   `json:"edgeTypes"`
	Direction    Direction  `json:"direction"`
	From         string     `json:"from"`
	To           string     `json:"to"`
	MinDepth     int        `json:"minDepth,omitempty"`
	MaxDepth     int        `json:"maxDepth,omitempty"`
	Uniqueness   Uniqueness `json:"uniqueness,omitempty"`
	IncludeSelf  bool       `json:"includeSelf,omitempty"`
	IncludeDepth bool       `json:"includeDepth,omitempty"`
	DepthAlias   string     `json:"depthAlias,omitempty"`
}

// OrderField is one sort key of an OrderBy step. Target names a node alias
// (user or internal); an empty Target orders by a computed row value (e.g.
// an aggregation result alias) under Field.
type OrderField struct {
	Target    string        `json:"target,omitempty"`
	Field     string        `json:"field"`
	Direction SortDirection `json:"direction"`
}

// Asc builds an ascending OrderField.
func Asc(target, field string) OrderField {
	return OrderField{Target: target, Field: field, Direction: SortAsc}
}

// Desc builds a descending OrderField.
func Desc(target, field string) OrderField {
	return OrderField{Target: target, Field: field, Direction: SortDesc}
}

// AscComputed orders ascending by a computed row value, such as an
// aggregation result alias.
func AscComputed(field string) OrderField {
	return OrderField{Field: field, Direction: SortAsc}
}

// DescComputed orders descending by a computed row value.
func DescComputed(field string) OrderField {
	return OrderField{Field: field, Direction: SortDesc}
}

// AggregateFn names the aggregation functions.
type AggregateFn string

// Aggregation functions.
const (
	AggCount   AggregateFn = "count"
	AggSum     AggregateFn = "sum"
	AggAvg     AggregateFn = "avg"
	AggMin     AggregateFn = "min"
	AggMax     AggregateFn = "max"
	AggCollect AggregateFn = "collect"
)

// GroupField is one grouping key of an Aggregate step: the value of Field on
// the node bound at Alias, falling back to the node id when Field is absent.
type GroupField struct {
	Alias string `json:"alias"`
	Field string `json:"field"`
}

// Aggregation is one computed aggregation of an Aggregate step. Source and
// Field select the input values; As names the computed result in the output
// row.
type Aggregation struct {
	Fn       AggregateFn `json:"fn"`
	Distinct bool        `json:"distinct,omitempty"`
	Source   string      `json:"source,omitempty"`
	Field    string      `json:"field,omitempty"`
	As       string      `json:"as"`
}

// Step is one pipeline stage of a query. It is a tagged variant: Kind
// selects the populated field subset, and the interpreter dispatches
// exhaustively on it.
type Step struct {
	Kind StepKind `json:"kind"`

	// Match / MatchByID / Alias
	Label     string `json:"label,omitempty"`
	NodeID    string `json:"nodeId,omitempty"`
	Alias     string `json:"alias,omitempty"`
	UserAlias string `json:"userAlias,omitempty"`

	// Traversal
	From           string          `json:"from,omitempty"`
	To             string          `json:"to,omitempty"`
	EdgeAlias      string          `json:"edgeAlias,omitempty"`
	EdgeTypes      []string        `json:"edgeTypes,omitempty"`
	Direction      Direction       `json:"direction,omitempty"`
	ToLabels       []string        `json:"toLabels,omitempty"`
	Optional       bool            `json:"optional,omitempty"`
	EdgeConditions []Condition     `json:"edgeConditions,omitempty"`
	Var            *VariableLength `json:"varLength,omitempty"`

	// Where
	Conditions []Condition `json:"conditions,omitempty"`

	// Hierarchy / Reachable
	Hierarchy *HierarchySpec `json:"hierarchy,omitempty"`
	Reachable *ReachableSpec `json:"reachable,omitempty"`

	// OrderBy
	Order []OrderField `json:"orderBy,omitempty"`

	// Limit / Skip
	Count int `json:"count,omitempty"`

	// Aggregate
	GroupBy      []GroupField  `json:"groupBy,omitempty"`
	Aggregations []Aggregation `json:"aggregations,omitempty"`

	// Fork
	Branches []*Query `json:"branches,omitempty"`
}

// ProjectionKind selects how the final row set is turned into records.
type ProjectionKind string

// Projection kinds.
const (
	ProjectSingle     ProjectionKind = "single"
	ProjectCollection ProjectionKind = "collection"
	ProjectMultiNode  ProjectionKind = "multiNode"
	ProjectCount      ProjectionKind = "count"
	ProjectExists     ProjectionKind = "exists"
	ProjectAggregate  ProjectionKind = "aggregate"
)

// CollectSpec folds rows sharing the same primary-alias node into a list of
// projections of Source under the collect result alias.
type CollectSpec struct {
	Source   string `json:"source"`
	Distinct bool   `json:"distinct,omitempty"`
}

// Projection describes how the final row set becomes result records: which
// user aliases to project, optional per-alias field selectors, collect
// folding, and the count/exists/depth flags.
type Projection struct {
	Kind         ProjectionKind         `json:"kind"`
	NodeAliases  []string               `json:"nodeAliases,omitempty"`
	EdgeAliases  []string               `json:"edgeAliases,omitempty"`
	Fields       map[string][]string    `json:"fields,omitempty"`
	Collect      map[string]CollectSpec `json:"collect,omitempty"`
	CountOnly    bool                   `json:"countOnly,omitempty"`
	ExistsOnly   bool                   `json:"existsOnly,omitempty"`
	IncludeDepth bool                   `json:"includeDepth,omitempty"`
	DepthKey     string                 `json:"depthKey,omitempty"`
}

// Query is the immutable AST value: an ordered step pipeline, a projection
// descriptor, and the two alias namespaces with their monotonic counters.
//
// Node aliases are drawn as n0, n1, ...; edge aliases as e0, e1, ....
// A user alias attaches a human-meaningful name to the current node (or to
// the most recent captured edge) and is resolved back to its internal alias
// at projection time.
//
// Values are built by monotonic construction: every builder method clones
// the query, so holding onto an intermediate value is always safe.
type Query struct {
	steps      []Step
	projection Projection

	nodeAliases map[string]string // user alias -> internal alias
	nodeLabels  map[string]string // internal alias -> label ("" for by-id matches)
	edgeAliases map[string]string // user alias -> internal edge alias

	nodeCounter int
	edgeCounter int

	current     string // internal alias of the current node
	currentEdge string // internal alias of the most recent captured edge
	edgeCapture bool   // true when the previous step captured an edge
}

// NewQuery creates an empty query. The zero pipeline projects a collection
// of the current node once steps are added.
func NewQuery() *Query {
	return &Query{
		projection:  Projection{Kind: ProjectCollection},
		nodeAliases: map[string]string{},
		nodeLabels:  map[string]string{},
		edgeAliases: map[string]string{},
	}
}

// Steps returns a copy of the step pipeline.
func (q *Query) Steps() []Step {
	steps := make([]Step, len(q.steps))
	copy(steps, q.steps)
	return steps
}

// ProjectionSpec returns a copy of the projection descriptor.
func (q *Query) ProjectionSpec() Projection {
	return cloneProjection(q.projection)
}

// CurrentAlias returns the internal alias of the builder's current node.
func (q *Query) CurrentAlias() string {
	return q.current
}

// ResolveUserAlias returns the internal node alias registered for a user
// alias, and whether it exists.
func (q *Query) ResolveUserAlias(name string) (string, bool) {
	internal, ok := q.nodeAliases[name]
	return internal, ok
}

// ResolveEdgeUserAlias returns the internal edge alias registered for a user
// alias, and whether it exists.
func (q *Query) ResolveEdgeUserAlias(name string) (string, bool) {
	internal, ok := q.edgeAliases[name]
	return internal, ok
}

// clone returns a deep copy of the query value. Steps are copied by value;
// the nested slices inside a Step are never mutated after being appended, so
// the element copy is sufficient isolation for the builder.
func (q *Query) clone() *Query {
	out := &Query{
		steps:       make([]Step, len(q.steps)),
		projection:  cloneProjection(q.projection),
		nodeAliases: make(map[string]string, len(q.nodeAliases)),
		nodeLabels:  make(map[string]string, len(q.nodeLabels)),
		edgeAliases: make(map[string]string, len(q.edgeAliases)),
		nodeCounter: q.nodeCounter,
		edgeCounter: q.edgeCounter,
		current:     q.current,
		currentEdge: q.currentEdge,
		edgeCapture: q.edgeCapture,
	}
	copy(out.steps, q.steps)
	for k, v := range q.nodeAliases {
		out.nodeAliases[k] = v
	}
	for k, v := range q.nodeLabels {
		out.nodeLabels[k] = v
	}
	for k, v := range q.edgeAliases {
		out.edgeAliases[k] = v
	}
	return out
}

func cloneProjection(p Projection) Projection {
	out := p
	out.NodeAliases = append([]string(nil), p.NodeAliases...)
	out.EdgeAliases = append([]string(nil), p.EdgeAliases...)
	if p.Fields != nil {
		out.Fields = make(map[string][]string, len(p.Fields))
		for k, v := range p.Fields {
			out.Fields[k] = append([]string(nil), v...)
		}
	}
	if p.Collect != nil {
		out.Collect = make(map[string]CollectSpec, len(p.Collect))
		for k, v := range p.Collect {
			out.Collect[k] = v
		}
	}
	return out
}
