// Package query - traversal step semantics.
package query

import "github.com/orneryd/yggdrasil/pkg/graph"

// hop pairs an edge with the node reached through it, relative to a source.
type hop struct {
	edge   *graph.Edge
	target graph.NodeID
}

// collectHops gathers the candidate hops from a node: outgoing and/or
// incoming edges per direction, unioned over the requested edge types (all
// types when none are given). Order follows adjacency insertion order,
// outgoing before incoming for "both".
func (e *Engine) collectHops(nodeID graph.NodeID, edgeTypes []string, direction Direction) ([]hop, error) {
	types := edgeTypes
	if len(types) == 0 {
		types = []string{""}
	}

	var hops []hop
	if direction == DirOut || direction == DirBoth {
		for _, edgeType := range types {
			edges, err := e.store.Outgoing(nodeID, edgeType)
			if err != nil {
				return nil, err
			}
			for _, edge := range edges {
				hops = append(hops, hop{edge: edge, target: edge.To})
			}
		}
	}
	if direction == DirIn || direction == DirBoth {
		for _, edgeType := range types {
			edges, err := e.store.Incoming(nodeID, edgeType)
			if err != nil {
				return nil, err
			}
			for _, edge := range edges {
				hops = append(hops, hop{edge: edge, target: edge.From})
			}
		}
	}
	return hops, nil
}

// applyTraversal implements the single- and variable-length traversal step.
//
// For each input row: resolve the source node (rows without it are skipped),
// collect candidate edges, filter them through the edge conditions, resolve
// and label-filter the targets, and emit one row per retained hop. An
// optional traversal that produced nothing for a row emits exactly one row
// with the target bound to the null sentinel.
func (e *Engine) applyTraversal(q *Query, step Step, rows []*row) ([]*row, error) {
	var out []*row
	for _, r := range rows {
		source, ok := r.node(step.From)
		if !ok {
			continue
		}

		var produced []*row
		var err error
		if step.Var != nil {
			produced, err = e.walkVariableLength(step, r, source)
		} else {
			produced, err = e.walkSingleHop(step, r, source)
		}
		if err != nil {
			return nil, err
		}

		if len(produced) == 0 && step.Optional {
			next := r.clone()
			next.nodes[step.To] = nil
			produced = []*row{next}
		}
		out = append(out, produced...)
	}
	return out, nil
}

// walkSingleHop emits one row per matching edge out of (or into) the source.
func (e *Engine) walkSingleHop(step Step, r *row, source *graph.Node) ([]*row, error) {
	hops, err := e.collectHops(source.ID, step.EdgeTypes, step.Direction)
	if err != nil {
		return nil, err
	}

	var out []*row
	for _, h := range hops {
		if !e.edgeMatches(step.EdgeConditions, h.edge) {
			continue
		}
		target, err := e.store.GetNode(h.target)
		if err != nil {
			continue
		}
		if len(step.ToLabels) > 0 && !containsString(step.ToLabels, target.Label) {
			continue
		}
		next := r.clone()
		next.nodes[step.To] = target
		if step.EdgeAlias != "" {
			next.edges[step.EdgeAlias] = h.edge
		}
		out = append(out, next)
	}
	return out, nil
}

// walkVariableLength emits one row per node whose hop distance from the
// source lies within the configured range. Depth starts at 1 after the first
// hop; the walk is depth-first in adjacency order, capped at the engine's
// recursion limit, and the uniqueness sets are never reset mid-walk.
func (e *Engine) walkVariableLength(step Step, r *row, source *graph.Node) ([]*row, error) {
	cfg := step.Var
	minDepth := cfg.Min
	if minDepth < 1 {
		minDepth = 1
	}
	maxDepth := cfg.Max
	if maxDepth <= 0 || maxDepth > e.maxDepth {
		maxDepth = e.maxDepth
	}

	visitedNodes := map[graph.NodeID]struct{}{}
	visitedEdges := map[graph.EdgeID]struct{}{}
	if cfg.Uniqueness == UniqueNodes {
		visitedNodes[source.ID] = struct{}{}
	}

	var out []*row
	var walk func(from graph.NodeID, depth int) error
	walk = func(from graph.NodeID, depth int) error {
		if depth > maxDepth {
			return nil
		}
		hops, err := e.collectHops(from, step.EdgeTypes, step.Direction)
		if err != nil {
			return err
		}
		for _, h := range hops {
			if !e.edgeMatches(step.EdgeConditions, h.edge) {
				continue
			}
			switch cfg.Uniqueness {
			case UniqueNodes:
				if _, seen := visitedNodes[h.target]; seen {
					continue
				}
				visitedNodes[h.target] = struct{}{}
			case UniqueEdges:
				if _, seen := visitedEdges[h.edge.ID]; seen {
					continue
				}
				visitedEdges[h.edge.ID] = struct{}{}
			}

			target, err := e.store.GetNode(h.target)
			if err != nil {
				continue
			}
			if depth >= minDepth {
				if len(step.ToLabels) == 0 || containsString(step.ToLabels, target.Label) {
					next := r.clone()
					next.nodes[step.To] = target
					if step.EdgeAlias != "" {
						next.edges[step.EdgeAlias] = h.edge
					}
					out = append(out, next)
				}
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

func containsString(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}
