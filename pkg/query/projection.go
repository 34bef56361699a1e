// Package query - projection of the final row set into records.
package query

import (
	"fmt"

	"github.com/orneryd/yggdrasil/pkg/graph"
)

// project turns the final row set into result records per the query's
// projection descriptor.
func (e *Engine) project(q *Query, rows []*row) ([]Record, error) {
	p := q.projection
	switch p.Kind {
	case ProjectCount:
		return []Record{{"count": len(rows)}}, nil
	case ProjectExists:
		return []Record{{"exists": len(rows) > 0}}, nil
	case ProjectAggregate:
		out := make([]Record, 0, len(rows))
		for _, r := range rows {
			record := make(Record, len(r.computed))
			for key, value := range r.computed {
				record[key] = value
			}
			out = append(out, record)
		}
		return out, nil
	case ProjectMultiNode:
		return e.projectMultiNode(q, rows)
	case ProjectSingle, ProjectCollection:
		return e.projectCollection(q, rows)
	default:
		return nil, fmt.Errorf("projection %q: %w", p.Kind, ErrUnknownStep)
	}
}

// depthKey returns the record key depth attaches under.
func (p Projection) depthKey() string {
	if p.DepthKey != "" {
		return p.DepthKey
	}
	return DefaultDepthKey
}

// projectNode renders a node as {id} plus its properties, or only the
// requested fields when a selector is configured.
func projectNode(node *graph.Node, fields []string) map[string]any {
	if node == nil {
		return nil
	}
	if len(fields) > 0 {
		out := make(map[string]any, len(fields))
		for _, field := range fields {
			if field == "id" {
				out["id"] = string(node.ID)
				continue
			}
			if value, ok := node.Properties[field]; ok {
				out[field] = value
			}
		}
		return out
	}
	out := make(map[string]any, len(node.Properties)+1)
	out["id"] = string(node.ID)
	for key, value := range node.Properties {
		out[key] = value
	}
	return out
}

// projectEdge renders an edge as {id, type, fromId, toId} plus properties.
func projectEdge(edge *graph.Edge) map[string]any {
	if edge == nil {
		return nil
	}
	out := make(map[string]any, len(edge.Properties)+4)
	out["id"] = string(edge.ID)
	out["type"] = edge.Type
	out["fromId"] = string(edge.From)
	out["toId"] = string(edge.To)
	for key, value := range edge.Properties {
		out[key] = value
	}
	return out
}

// projectCollection emits {userAlias: nodeProjection} per row for the first
// projected node alias, or the query's current alias when none is declared.
// Recorded depth attaches inside the node projection.
func (e *Engine) projectCollection(q *Query, rows []*row) ([]Record, error) {
	p := q.projection

	key := ""
	internal := ""
	if len(p.NodeAliases) > 0 {
		key = p.NodeAliases[0]
		resolved, ok := q.nodeAliases[key]
		if !ok {
			return nil, fmt.Errorf("projection alias %q: %w", key, ErrAliasNotFound)
		}
		internal = resolved
	} else {
		internal = q.current
		key = internal
		for user, candidate := range q.nodeAliases {
			if candidate == internal {
				key = user
				break
			}
		}
	}

	out := make([]Record, 0, len(rows))
	for _, r := range rows {
		node := r.nodes[internal]
		projected := projectNode(node, p.Fields[key])
		if projected != nil && p.IncludeDepth {
			if depth, ok := r.computed[p.depthKey()]; ok {
				projected[p.depthKey()] = depth
			}
		}
		out = append(out, Record{key: projected})
	}
	return out, nil
}

// projectMultiNode emits one record per row keyed by the projected user
// aliases; unbound (optional) aliases project to null. When collect aliases
// are declared, rows sharing the same primary-alias node fold into one
// record whose collect keys hold lists.
func (e *Engine) projectMultiNode(q *Query, rows []*row) ([]Record, error) {
	p := q.projection
	if len(p.Collect) > 0 {
		return e.projectCollected(q, rows)
	}

	out := make([]Record, 0, len(rows))
	for _, r := range rows {
		record, err := e.projectRow(q, r)
		if err != nil {
			return nil, err
		}
		out = append(out, record)
	}
	return out, nil
}

// projectRow renders the non-collect aliases of one row.
func (e *Engine) projectRow(q *Query, r *row) (Record, error) {
	p := q.projection
	record := Record{}
	for _, alias := range p.NodeAliases {
		internal, ok := q.nodeAliases[alias]
		if !ok {
			return nil, fmt.Errorf("projection alias %q: %w", alias, ErrAliasNotFound)
		}
		record[alias] = projectNode(r.nodes[internal], p.Fields[alias])
	}
	for _, alias := range p.EdgeAliases {
		internal, ok := q.edgeAliases[alias]
		if !ok {
			return nil, fmt.Errorf("projection edge alias %q: %w", alias, ErrAliasNotFound)
		}
		record[alias] = projectEdge(r.edges[internal])
	}
	if p.IncludeDepth {
		if depth, ok := r.computed[p.depthKey()]; ok {
			record[p.depthKey()] = depth
		}
	}
	return record, nil
}

// projectCollected groups rows by the primary alias node id and folds each
// collect source into a list, deduplicated by node id when distinct.
func (e *Engine) projectCollected(q *Query, rows []*row) ([]Record, error) {
	p := q.projection
	if len(p.NodeAliases) == 0 {
		return nil, fmt.Errorf("collect projection requires a primary alias: %w", ErrAliasNotFound)
	}
	primaryUser := p.NodeAliases[0]
	primary, ok := q.nodeAliases[primaryUser]
	if !ok {
		return nil, fmt.Errorf("projection alias %q: %w", primaryUser, ErrAliasNotFound)
	}

	// Collect sources are folded, not projected per row.
	collectSources := map[string]struct{}{}
	for _, spec := range p.Collect {
		collectSources[spec.Source] = struct{}{}
	}

	type group struct {
		record Record
		seen   map[string]map[string]struct{} // result alias -> node ids
	}
	var order []string
	groups := map[string]*group{}

	for _, r := range rows {
		id := nodeID(r.nodes[primary])
		g, exists := groups[id]
		if !exists {
			record := Record{}
			for _, alias := range p.NodeAliases {
				if _, folded := collectSources[alias]; folded {
					continue
				}
				internal := q.nodeAliases[alias]
				record[alias] = projectNode(r.nodes[internal], p.Fields[alias])
			}
			for _, alias := range p.EdgeAliases {
				internal := q.edgeAliases[alias]
				record[alias] = projectEdge(r.edges[internal])
			}
			if p.IncludeDepth {
				if depth, ok := r.computed[p.depthKey()]; ok {
					record[p.depthKey()] = depth
				}
			}
			for result := range p.Collect {
				record[result] = []any{}
			}
			g = &group{record: record, seen: map[string]map[string]struct{}{}}
			groups[id] = g
			order = append(order, id)
		}

		for result, spec := range p.Collect {
			internal, ok := q.nodeAliases[spec.Source]
			if !ok {
				return nil, fmt.Errorf("collect %q source %q: %w", result, spec.Source, ErrAliasNotFound)
			}
			node := r.nodes[internal]
			if node == nil {
				continue
			}
			if spec.Distinct {
				if g.seen[result] == nil {
					g.seen[result] = map[string]struct{}{}
				}
				if _, dup := g.seen[result][string(node.ID)]; dup {
					continue
				}
				g.seen[result][string(node.ID)] = struct{}{}
			}
			list := g.record[result].([]any)
			g.record[result] = append(list, projectNode(node, p.Fields[spec.Source]))
		}
	}

	out := make([]Record, 0, len(order))
	for _, id := range order {
		out = append(out, groups[id].record)
	}
	return out, nil
}
