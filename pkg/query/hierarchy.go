// Package query - hierarchy step semantics.
//
// A hierarchy step is a specialized traversal over a single edge type with a
// declared tree direction: "up" means the edge points child -> parent (a
// "hasParent" edge), "down" means parent -> child (a "contains" edge). All
// six operations reduce to parent-hop and child-hop primitives over the
// store's adjacency.
package query

import "github.com/orneryd/yggdrasil/pkg/graph"

// parentHops returns the hops toward the parent side of the tree.
func (e *Engine) parentHops(nodeID graph.NodeID, spec *HierarchySpec) ([]hop, error) {
	if spec.TreeDir == TreeUp {
		return e.collectHops(nodeID, []string{spec.EdgeType}, DirOut)
	}
	return e.collectHops(nodeID, []string{spec.EdgeType}, DirIn)
}

// childHops returns the hops toward the child side of the tree.
func (e *Engine) childHops(nodeID graph.NodeID, spec *HierarchySpec) ([]hop, error) {
	if spec.TreeDir == TreeUp {
		return e.collectHops(nodeID, []string{spec.EdgeType}, DirIn)
	}
	return e.collectHops(nodeID, []string{spec.EdgeType}, DirOut)
}

// applyHierarchy dispatches one hierarchy operation per input row. Rows
// without the source binding are skipped.
func (e *Engine) applyHierarchy(step Step, rows []*row) ([]*row, error) {
	spec := step.Hierarchy
	var out []*row
	for _, r := range rows {
		source, ok := r.node(spec.From)
		if !ok {
			continue
		}

		var produced []*row
		var err error
		switch spec.Op {
		case HierarchyParent:
			produced, err = e.hierarchyParent(spec, r, source)
		case HierarchyChildren:
			produced, err = e.hierarchyChildren(spec, r, source)
		case HierarchyAncestors:
			produced, err = e.hierarchyWalk(spec, r, source, true)
		case HierarchyDescendants:
			produced, err = e.hierarchyWalk(spec, r, source, false)
		case HierarchySiblings:
			produced, err = e.hierarchySiblings(spec, r, source)
		case HierarchyRoot:
			produced, err = e.hierarchyRoot(spec, r, source)
		default:
			return nil, ErrUnknownStep
		}
		if err != nil {
			return nil, err
		}
		out = append(out, produced...)
	}
	return out, nil
}

// emitHierarchyRow binds a reached node, recording depth when requested.
func (spec *HierarchySpec) emitHierarchyRow(r *row, node *graph.Node, depth int) *row {
	next := r.clone()
	next.nodes[spec.To] = node
	if spec.IncludeDepth {
		key := spec.DepthAlias
		if key == "" {
			key = DefaultDepthKey
		}
		next.computed[key] = depth
	}
	return next
}

// hierarchyParent emits at most one row: the first parent edge's far node.
func (e *Engine) hierarchyParent(spec *HierarchySpec, r *row, source *graph.Node) ([]*row, error) {
	hops, err := e.parentHops(source.ID, spec)
	if err != nil {
		return nil, err
	}
	for _, h := range hops {
		parent, err := e.store.GetNode(h.target)
		if err != nil {
			continue
		}
		return []*row{spec.emitHierarchyRow(r, parent, 1)}, nil
	}
	return nil, nil
}

// hierarchyChildren emits one row per child.
func (e *Engine) hierarchyChildren(spec *HierarchySpec, r *row, source *graph.Node) ([]*row, error) {
	hops, err := e.childHops(source.ID, spec)
	if err != nil {
		return nil, err
	}
	var out []*row
	for _, h := range hops {
		child, err := e.store.GetNode(h.target)
		if err != nil {
			continue
		}
		out = append(out, spec.emitHierarchyRow(r, child, 1))
	}
	return out, nil
}

// hierarchyWalk implements ancestors (up=true) and descendants (up=false):
// repeated one-hop walks with a visited set of node ids, emitting each
// reached node whose depth is at least the minimum. When UntilKind is set,
// only nodes with that label are emitted and each path stops at its first
// emit.
func (e *Engine) hierarchyWalk(spec *HierarchySpec, r *row, source *graph.Node, up bool) ([]*row, error) {
	minDepth := spec.MinDepth
	if minDepth < 1 {
		minDepth = 1
	}
	maxDepth := spec.MaxDepth
	if maxDepth <= 0 || maxDepth > e.maxDepth {
		maxDepth = e.maxDepth
	}

	var out []*row
	if spec.IncludeSelf {
		out = append(out, spec.emitHierarchyRow(r, source, 0))
	}

	visited := map[graph.NodeID]struct{}{source.ID: {}}
	var walk func(from graph.NodeID, depth int) error
	walk = func(from graph.NodeID, depth int) error {
		if depth > maxDepth {
			return nil
		}
		var hops []hop
		var err error
		if up {
			hops, err = e.parentHops(from, spec)
		} else {
			hops, err = e.childHops(from, spec)
		}
		if err != nil {
			return err
		}
		for _, h := range hops {
			if _, seen := visited[h.target]; seen {
				continue
			}
			visited[h.target] = struct{}{}
			node, err := e.store.GetNode(h.target)
			if err != nil {
				continue
			}
			if spec.UntilKind != "" {
				if node.Label == spec.UntilKind && depth >= minDepth {
					out = append(out, spec.emitHierarchyRow(r, node, depth))
					continue // path stops at its first matching emit
				}
			} else if depth >= minDepth {
				out = append(out, spec.emitHierarchyRow(r, node, depth))
			}
			if err := walk(h.target, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(source.ID, 1); err != nil {
		return nil, err
	}
	return out, nil
}

// hierarchySiblings enumerates the parent's children, excluding the source.
// A node without a parent has no siblings.
func (e *Engine) hierarchySiblings(spec *HierarchySpec, r *row, source *graph.Node) ([]*row, error) {
	parentHops, err := e.parentHops(source.ID, spec)
	if err != nil {
		return nil, err
	}
	if len(parentHops) == 0 {
		return nil, nil
	}
	childHops, err := e.childHops(parentHops[0].target, spec)
	if err != nil {
		return nil, err
	}
	var out []*row
	for _, h := range childHops {
		if h.target == source.ID {
			continue
		}
		sibling, err := e.store.GetNode(h.target)
		if err != nil {
			continue
		}
		out = append(out, spec.emitHierarchyRow(r, sibling, 1))
	}
	return out, nil
}

// hierarchyRoot follows the parent chain until no parent edge remains or the
// depth bound is reached, emitting one row with the terminal node. A node
// without a parent is its own root at depth 0.
func (e *Engine) hierarchyRoot(spec *HierarchySpec, r *row, source *graph.Node) ([]*row, error) {
	maxDepth := spec.MaxDepth
	if maxDepth <= 0 || maxDepth > e.maxDepth {
		maxDepth = e.maxDepth
	}

	current := source
	depth := 0
	visited := map[graph.NodeID]struct{}{source.ID: {}}
	for depth < maxDepth {
		hops, err := e.parentHops(current.ID, spec)
		if err != nil {
			return nil, err
		}
		if len(hops) == 0 {
			break
		}
		target := hops[0].target
		if _, seen := visited[target]; seen {
			break // cycle guard
		}
		visited[target] = struct{}{}
		parent, err := e.store.GetNode(target)
		if err != nil {
			break
		}
		current = parent
		depth++
	}
	return []*row{spec.emitHierarchyRow(r, current, depth)}, nil
}
