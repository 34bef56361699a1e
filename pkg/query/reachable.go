// Package query - transitive-closure reachability.
package query

import "github.com/orneryd/yggdrasil/pkg/graph"

// applyReachable emits one row per node transitively reachable from the
// row's source over the spec's edge types, within the depth range. The walk
// follows the same depth-counter convention as variable-length traversal:
// depth 1 after the first hop, depth-first in adjacency order, capped at the
// engine's recursion limit. Uniqueness prunes on visited nodes or walked
// edges; IncludeSelf adds the source at depth 0.
func (e *Engine) applyReachable(step Step, rows []*row) ([]*row, error) {
	spec := step.Reachable
	minDepth := spec.MinDepth
	if minDepth < 1 {
		minDepth = 1
	}
	maxDepth := spec.MaxDepth
	if maxDepth <= 0 || maxDepth > e.maxDepth {
		maxDepth = e.maxDepth
	}
	depthKey := spec.DepthAlias
	if depthKey == "" {
		depthKey = DefaultDepthKey
	}

	var out []*row
	for _, r := range rows {
		source, ok := r.node(spec.From)
		if !ok {
			continue
		}

		emit := func(node *graph.Node, depth int) {
			next := r.clone()
			next.nodes[spec.To] = node
			if spec.IncludeDepth {
				next.computed[depthKey] = depth
			}
			out = append(out, next)
		}

		if spec.IncludeSelf {
			emit(source, 0)
		}

		visitedNodes := map[graph.NodeID]struct{}{}
		visitedEdges := map[graph.EdgeID]struct{}{}
		if spec.Uniqueness == UniqueNodes {
			visitedNodes[source.ID] = struct{}{}
		}

		var walk func(from graph.NodeID, depth int) error
		walk = func(from graph.NodeID, depth int) error {
			if depth > maxDepth {
				return nil
			}
			hops, err := e.collectHops(from, spec.EdgeTypes, spec.Direction)
			if err != nil {
				return err
			}
			for _, h := range hops {
				switch spec.Uniqueness {
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
				node, err := e.store.GetNode(h.target)
				if err != nil {
					continue
				}
				if depth >= minDepth {
					emit(node, depth)
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
	}
	return out, nil
}
