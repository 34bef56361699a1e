// Package query - the fluent AST builder.
//
// Every builder method is a pure function on the Query value: it clones the
// receiver, appends to the clone, and returns it. Node aliases are allocated
// from a monotonic counter as n0, n1, ...; edge aliases as e0, e1, ....
//
// Fork branches get their own counter ranges offset by a minimum stride from
// the parent counter so that aliases allocated inside different branches can
// never collide; the parent counter then advances past the highest branch
// counter. This is a hard invariant - collapsing it breaks collect()
// projections in user-visible ways.
package query

import "fmt"

// branchAliasStride is the minimum counter offset between the parent query
// and each fork branch, and between consecutive branches.
const branchAliasStride = 10

func nodeAliasName(n int) string { return fmt.Sprintf("n%d", n) }
func edgeAliasName(n int) string { return fmt.Sprintf("e%d", n) }

// nextNodeAlias allocates the next internal node alias on a cloned query.
func (q *Query) nextNodeAlias() string {
	alias := nodeAliasName(q.nodeCounter)
	q.nodeCounter++
	return alias
}

// nextEdgeAlias allocates the next internal edge alias on a cloned query.
func (q *Query) nextEdgeAlias() string {
	alias := edgeAliasName(q.edgeCounter)
	q.edgeCounter++
	return alias
}

// Match starts (or fans out) the pipeline at every node with the given
// label, binding each to a fresh alias that becomes the current node.
func (q *Query) Match(label string) *Query {
	out := q.clone()
	alias := out.nextNodeAlias()
	out.nodeLabels[alias] = label
	out.current = alias
	out.edgeCapture = false
	out.steps = append(out.steps, Step{Kind: StepMatch, Label: label, Alias: alias})
	return out
}

// MatchByID binds the node with the given id to a fresh alias that becomes
// the current node. If the node does not exist at execution time, the result
// is empty.
func (q *Query) MatchByID(id string) *Query {
	out := q.clone()
	alias := out.nextNodeAlias()
	out.nodeLabels[alias] = ""
	out.current = alias
	out.edgeCapture = false
	out.steps = append(out.steps, Step{Kind: StepMatchByID, NodeID: id, Alias: alias})
	return out
}

// As attaches a user alias to the current node - or, when the previous step
// captured an edge, to that edge. The alias can then be used as a condition
// target, an order target, and a projection key.
func (q *Query) As(name string) *Query {
	out := q.clone()
	if out.edgeCapture && out.currentEdge != "" {
		out.edgeAliases[name] = out.currentEdge
		out.edgeCapture = false // a subsequent As targets the node again
		out.steps = append(out.steps, Step{Kind: StepAlias, Alias: out.currentEdge, UserAlias: name})
		return out
	}
	out.nodeAliases[name] = out.current
	out.steps = append(out.steps, Step{Kind: StepAlias, Alias: out.current, UserAlias: name})
	return out
}

// TraversalSpec configures a Traverse step. EdgeTypes empty means any type;
// ToLabels empty means any label. CaptureEdge allocates an edge alias for
// the walked edge so it can be named with As and projected. Var switches the
// step to variable-length semantics.
type TraversalSpec struct {
	EdgeTypes      []string
	Direction      Direction
	ToLabels       []string
	Optional       bool
	CaptureEdge    bool
	EdgeConditions []Condition
	Var            *VariableLength
}

// Traverse walks edges from the current node per the spec, binding each
// reached node to a fresh alias that becomes the current node.
func (q *Query) Traverse(spec TraversalSpec) *Query {
	out := q.clone()
	from := out.current
	to := out.nextNodeAlias()
	out.nodeLabels[to] = ""

	step := Step{
		Kind:           StepTraversal,
		From:           from,
		To:             to,
		EdgeTypes:      append([]string(nil), spec.EdgeTypes...),
		Direction:      spec.Direction,
		ToLabels:       append([]string(nil), spec.ToLabels...),
		Optional:       spec.Optional,
		EdgeConditions: append([]Condition(nil), spec.EdgeConditions...),
	}
	if spec.Var != nil {
		v := *spec.Var
		step.Var = &v
	}
	if spec.CaptureEdge {
		step.EdgeAlias = out.nextEdgeAlias()
		out.currentEdge = step.EdgeAlias
		out.edgeCapture = true
	} else {
		out.edgeCapture = false
	}
	if step.Direction == "" {
		step.Direction = DirOut
	}
	out.current = to
	out.steps = append(out.steps, step)
	return out
}

// Out traverses outgoing edges of the given type, optionally restricted to
// target labels.
func (q *Query) Out(edgeType string, toLabels ...string) *Query {
	return q.Traverse(TraversalSpec{EdgeTypes: []string{edgeType}, Direction: DirOut, ToLabels: toLabels})
}

// In traverses incoming edges of the given type, optionally restricted to
// source labels.
func (q *Query) In(edgeType string, toLabels ...string) *Query {
	return q.Traverse(TraversalSpec{EdgeTypes: []string{edgeType}, Direction: DirIn, ToLabels: toLabels})
}

// Both traverses edges of the given type in either direction.
func (q *Query) Both(edgeType string, toLabels ...string) *Query {
	return q.Traverse(TraversalSpec{EdgeTypes: []string{edgeType}, Direction: DirBoth, ToLabels: toLabels})
}

// OutOptional is Out with OPTIONAL-match semantics: an input row with no
// matching edge survives with the target bound to null.
func (q *Query) OutOptional(edgeType string, toLabels ...string) *Query {
	return q.Traverse(TraversalSpec{EdgeTypes: []string{edgeType}, Direction: DirOut, ToLabels: toLabels, Optional: true})
}

// InOptional is In with OPTIONAL-match semantics.
func (q *Query) InOptional(edgeType string, toLabels ...string) *Query {
	return q.Traverse(TraversalSpec{EdgeTypes: []string{edgeType}, Direction: DirIn, ToLabels: toLabels, Optional: true})
}

// Where retains rows for which all given conditions hold.
func (q *Query) Where(conditions ...Condition) *Query {
	out := q.clone()
	out.steps = append(out.steps, Step{Kind: StepWhere, Conditions: conditions})
	return out
}

// HierarchyOpts carries the optional knobs of a hierarchy step. The zero
// value means: tree direction up, depth range [1, engine cap], no self, no
// depth recording.
type HierarchyOpts struct {
	TreeDir      TreeDirection
	MinDepth     int
	MaxDepth     int
	IncludeSelf  bool
	IncludeDepth bool
	DepthAlias   string
	UntilKind    string
}

// Hierarchy applies a hierarchy operation over a single edge type, binding
// each reached node to a fresh alias that becomes the current node.
func (q *Query) Hierarchy(op HierarchyOp, edgeType string, opts HierarchyOpts) *Query {
	out := q.clone()
	from := out.current
	to := out.nextNodeAlias()
	out.nodeLabels[to] = ""
	out.current = to
	out.edgeCapture = false

	spec := &HierarchySpec{
		Op:           op,
		EdgeType:     edgeType,
		TreeDir:      opts.TreeDir,
		From:         from,
		To:           to,
		MinDepth:     opts.MinDepth,
		MaxDepth:     opts.MaxDepth,
		IncludeSelf:  opts.IncludeSelf,
		IncludeDepth: opts.IncludeDepth,
		DepthAlias:   opts.DepthAlias,
		UntilKind:    opts.UntilKind,
	}
	if spec.TreeDir == "" {
		spec.TreeDir = TreeUp
	}
	out.steps = append(out.steps, Step{Kind: StepHierarchy, Hierarchy: spec})
	return out
}

// Parent binds the current node's parent (at most one).
func (q *Query) Parent(edgeType string, opts HierarchyOpts) *Query {
	return q.Hierarchy(HierarchyParent, edgeType, opts)
}

// Children binds every child of the current node.
func (q *Query) Children(edgeType string, opts HierarchyOpts) *Query {
	return q.Hierarchy(HierarchyChildren, edgeType, opts)
}

// Ancestors binds every ancestor of the current node within the depth range.
func (q *Query) Ancestors(edgeType string, opts HierarchyOpts) *Query {
	return q.Hierarchy(HierarchyAncestors, edgeType, opts)
}

// Descendants binds every descendant of the current node within the depth
// range.
func (q *Query) Descendants(edgeType string, opts HierarchyOpts) *Query {
	return q.Hierarchy(HierarchyDescendants, edgeType, opts)
}

// Siblings binds every other child of the current node's parent.
func (q *Query) Siblings(edgeType string, opts HierarchyOpts) *Query {
	return q.Hierarchy(HierarchySiblings, edgeType, opts)
}

// Root binds the top of the current node's parent chain.
func (q *Query) Root(edgeType string, opts HierarchyOpts) *Query {
	return q.Hierarchy(HierarchyRoot, edgeType, opts)
}

// ReachableVia binds every node transitively reachable from the current node
// over the spec's edge types, within the spec's depth range. The spec's From
// and To are filled in by the builder.
func (q *Query) ReachableVia(spec ReachableSpec) *Query {
	out := q.clone()
	from := out.current
	to := out.nextNodeAlias()
	out.nodeLabels[to] = ""
	out.current = to
	out.edgeCapture = false

	s := spec
	s.From = from
	s.To = to
	s.EdgeTypes = append([]string(nil), spec.EdgeTypes...)
	if s.Direction == "" {
		s.Direction = DirOut
	}
	if s.Uniqueness == "" {
		s.Uniqueness = UniqueNodes
	}
	out.steps = append(out.steps, Step{Kind: StepReachable, Reachable: &s})
	return out
}

// OrderBy sorts the row set stably by the given fields.
func (q *Query) OrderBy(fields ...OrderField) *Query {
	out := q.clone()
	out.steps = append(out.steps, Step{Kind: StepOrderBy, Order: fields})
	return out
}

// Limit keeps the first n rows.
func (q *Query) Limit(n int) *Query {
	out := q.clone()
	out.steps = append(out.steps, Step{Kind: StepLimit, Count: n})
	return out
}

// Skip drops the first n rows.
func (q *Query) Skip(n int) *Query {
	out := q.clone()
	out.steps = append(out.steps, Step{Kind: StepSkip, Count: n})
	return out
}

// Distinct deduplicates rows by the multiset of bound node ids.
func (q *Query) Distinct() *Query {
	out := q.clone()
	out.steps = append(out.steps, Step{Kind: StepDistinct})
	return out
}

// Aggregate reduces the row set to one row per group (or a single row when
// groupBy is empty), computing each aggregation into the row's computed
// values. The projection switches to aggregate mode.
//
// Example:
//
//	q.Match("post").As("p").
//		Aggregate(
//			[]query.GroupField{{Alias: "p", Field: "status"}},
//			query.Aggregation{Fn: query.AggCount, As: "c"},
//		)
func (q *Query) Aggregate(groupBy []GroupField, aggregations ...Aggregation) *Query {
	out := q.clone()
	out.steps = append(out.steps, Step{
		Kind:         StepAggregate,
		GroupBy:      append([]GroupField(nil), groupBy...),
		Aggregations: aggregations,
	})
	out.projection.Kind = ProjectAggregate
	return out
}

// Fork fans the pipeline out into independent branches rooted at the current
// node and merges the branch results through a Cartesian product, with
// OPTIONAL-match semantics per branch.
//
// Each build function receives a fresh branch query whose current node is
// the fork source and whose alias counters are offset from the parent's (and
// from every earlier branch's) by at least the branch stride, so aliases
// allocated in different branches never collide. After the fork the parent
// counters advance past every branch counter.
//
// Example:
//
//	q := query.NewQuery().MatchByID("m1").As("msg").
//		Fork(
//			func(b *query.Query) *query.Query { return b.In("replyTo").As("reply") },
//			func(b *query.Query) *query.Query { return b.Out("hasReaction").As("reaction") },
//		).
//		Select("msg", "reply", "reaction").
//		CollectAs("replies", "reply", true).
//		CollectAs("reactions", "reaction", true)
func (q *Query) Fork(build ...func(*Query) *Query) *Query {
	out := q.clone()
	source := out.current

	branches := make([]*Query, 0, len(build))
	nodeSeed := out.nodeCounter
	edgeSeed := out.edgeCounter
	maxNode := out.nodeCounter
	maxEdge := out.edgeCounter
	for i, fn := range build {
		branch := NewQuery()
		branch.nodeCounter = max(nodeSeed+(i+1)*branchAliasStride, maxNode)
		branch.edgeCounter = max(edgeSeed+(i+1)*branchAliasStride, maxEdge)
		branch.current = source
		branch.nodeLabels[source] = out.nodeLabels[source]
		// Carry over user aliases that point at the fork source so branch
		// conditions can keep referring to it by name.
		for user, internal := range out.nodeAliases {
			if internal == source {
				branch.nodeAliases[user] = internal
			}
		}
		branch = fn(branch)
		branches = append(branches, branch)
		if branch.nodeCounter > maxNode {
			maxNode = branch.nodeCounter
		}
		if branch.edgeCounter > maxEdge {
			maxEdge = branch.edgeCounter
		}
		// Branch user aliases become visible to the parent for projection.
		for user, internal := range branch.nodeAliases {
			if _, taken := out.nodeAliases[user]; !taken {
				out.nodeAliases[user] = internal
			}
		}
		for internal, label := range branch.nodeLabels {
			if _, known := out.nodeLabels[internal]; !known {
				out.nodeLabels[internal] = label
			}
		}
		for user, internal := range branch.edgeAliases {
			if _, taken := out.edgeAliases[user]; !taken {
				out.edgeAliases[user] = internal
			}
		}
	}

	out.nodeCounter = maxNode
	out.edgeCounter = maxEdge
	out.steps = append(out.steps, Step{Kind: StepFork, From: source, Branches: branches})
	return out
}

// Select projects the named user aliases per row (multi-node projection).
// Aliases naming captured edges project edge objects; unbound optional
// aliases project null.
func (q *Query) Select(aliases ...string) *Query {
	out := q.clone()
	out.projection.Kind = ProjectMultiNode
	for _, alias := range aliases {
		if _, isEdge := out.edgeAliases[alias]; isEdge {
			out.projection.EdgeAliases = append(out.projection.EdgeAliases, alias)
			continue
		}
		out.projection.NodeAliases = append(out.projection.NodeAliases, alias)
	}
	return out
}

// SelectFields restricts the projection of a user alias to the given fields.
func (q *Query) SelectFields(alias string, fields ...string) *Query {
	out := q.clone()
	if out.projection.Fields == nil {
		out.projection.Fields = map[string][]string{}
	}
	out.projection.Fields[alias] = fields
	return out
}

// CollectAs folds rows sharing the same primary-alias node into a list of
// source-alias projections under the given result alias, deduplicated by
// node id when distinct is set.
func (q *Query) CollectAs(resultAlias, sourceAlias string, distinct bool) *Query {
	out := q.clone()
	if out.projection.Collect == nil {
		out.projection.Collect = map[string]CollectSpec{}
	}
	out.projection.Collect[resultAlias] = CollectSpec{Source: sourceAlias, Distinct: distinct}
	return out
}

// Single switches to single projection: exactly one record is expected, and
// the Single execution helper fails with ErrCardinality otherwise.
func (q *Query) Single() *Query {
	out := q.clone()
	out.projection.Kind = ProjectSingle
	return out
}

// CountOnly switches the projection to a single {"count": n} record.
func (q *Query) CountOnly() *Query {
	out := q.clone()
	out.projection.Kind = ProjectCount
	out.projection.CountOnly = true
	return out
}

// ExistsOnly switches the projection to a single {"exists": bool} record.
func (q *Query) ExistsOnly() *Query {
	out := q.clone()
	out.projection.Kind = ProjectExists
	out.projection.ExistsOnly = true
	return out
}

// WithDepth attaches recorded traversal depth to projected records under the
// given key ("" means the default key).
func (q *Query) WithDepth(key string) *Query {
	out := q.clone()
	out.projection.IncludeDepth = true
	out.projection.DepthKey = key
	return out
}
