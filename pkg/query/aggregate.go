// Package query - grouped aggregation.
package query

import (
	"fmt"

	"github.com/orneryd/yggdrasil/pkg/graph"
)

// applyAggregate reduces the row set to one row per group. With an empty
// groupBy the whole set collapses into a single row carrying every
// aggregation. Otherwise rows group by the tuple of values at each
// (alias, field), falling back to the bound node's id when the field is
// absent; groups appear in first-seen order. Each output row copies its
// bindings from the group's first member and binds the group-key values and
// every computed aggregation into the row's computed map.
func (e *Engine) applyAggregate(q *Query, step Step, rows []*row) ([]*row, error) {
	groupAliases := make([]string, len(step.GroupBy))
	for i, group := range step.GroupBy {
		internal, err := q.resolveTarget(group.Alias)
		if err != nil {
			return nil, err
		}
		groupAliases[i] = internal
	}
	primary := q.primaryAlias()

	type group struct {
		key  string
		rows []*row
	}
	var groups []*group
	index := map[string]*group{}

	groupValue := func(r *row, internal string, field string) any {
		node, ok := r.node(internal)
		if !ok {
			return nil
		}
		if field != "" {
			if value, present := r.computedOrProperty(node, field); present {
				return value
			}
		}
		return string(node.ID)
	}

	if len(step.GroupBy) == 0 {
		groups = []*group{{key: "", rows: rows}}
	} else {
		for _, r := range rows {
			key := ""
			for i, gb := range step.GroupBy {
				key += groupKeyPart(groupValue(r, groupAliases[i], gb.Field))
			}
			g, ok := index[key]
			if !ok {
				g = &group{key: key}
				index[key] = g
				groups = append(groups, g)
			}
			g.rows = append(g.rows, r)
		}
	}

	out := make([]*row, 0, len(groups))
	for _, g := range groups {
		var result *row
		if len(g.rows) > 0 {
			result = g.rows[0].clone()
		} else {
			result = newRow()
		}
		for i, gb := range step.GroupBy {
			key := gb.Field
			if key == "" {
				key = gb.Alias
			}
			result.computed[key] = groupValue(g.rows[0], groupAliases[i], gb.Field)
		}
		for _, agg := range step.Aggregations {
			value, err := e.computeAggregation(q, agg, g.rows, primary)
			if err != nil {
				return nil, err
			}
			result.computed[agg.As] = value
		}
		out = append(out, result)
	}
	return out, nil
}

// computedOrProperty reads a field off the row's computed map first, then
// the node's properties.
func (r *row) computedOrProperty(node *graph.Node, field string) (any, bool) {
	if value, ok := r.computed[field]; ok {
		return value, true
	}
	value, ok := node.Properties[field]
	return value, ok
}

// groupKeyPart canonicalizes one group-key component.
func groupKeyPart(v any) string {
	return fmt.Sprintf("%v\x00", v)
}

// computeAggregation evaluates one aggregation over a group's rows.
func (e *Engine) computeAggregation(q *Query, agg Aggregation, rows []*row, primary string) (any, error) {
	source := primary
	if agg.Source != "" {
		internal, err := q.resolveTarget(agg.Source)
		if err != nil {
			return nil, err
		}
		source = internal
	}

	switch agg.Fn {
	case AggCount:
		if !agg.Distinct {
			return len(rows), nil
		}
		seen := map[string]struct{}{}
		for _, r := range rows {
			node, ok := r.node(source)
			if !ok {
				continue
			}
			if agg.Field != "" {
				if value, present := node.Properties[agg.Field]; present {
					seen[groupKeyPart(value)] = struct{}{}
				}
				continue
			}
			seen[string(node.ID)] = struct{}{}
		}
		return len(seen), nil

	case AggSum, AggAvg, AggMin, AggMax:
		var numbers []float64
		for _, r := range rows {
			node, ok := r.node(source)
			if !ok {
				continue
			}
			value, present := node.Properties[agg.Field]
			if !present {
				continue
			}
			if number, ok := toFloat64(value); ok {
				numbers = append(numbers, number)
			}
		}
		switch agg.Fn {
		case AggSum:
			sum := 0.0
			for _, n := range numbers {
				sum += n
			}
			return sum, nil
		case AggAvg:
			if len(numbers) == 0 {
				return nil, nil
			}
			sum := 0.0
			for _, n := range numbers {
				sum += n
			}
			return sum / float64(len(numbers)), nil
		case AggMin:
			if len(numbers) == 0 {
				return nil, nil
			}
			min := numbers[0]
			for _, n := range numbers[1:] {
				if n < min {
					min = n
				}
			}
			return min, nil
		default:
			if len(numbers) == 0 {
				return nil, nil
			}
			max := numbers[0]
			for _, n := range numbers[1:] {
				if n > max {
					max = n
				}
			}
			return max, nil
		}

	case AggCollect:
		var values []any
		seen := map[string]struct{}{}
		for _, r := range rows {
			node, ok := r.node(source)
			if !ok {
				continue
			}
			if agg.Field != "" {
				value, present := node.Properties[agg.Field]
				if !present {
					continue
				}
				if agg.Distinct {
					key := groupKeyPart(value)
					if _, dup := seen[key]; dup {
						continue
					}
					seen[key] = struct{}{}
				}
				values = append(values, value)
				continue
			}
			if agg.Distinct {
				if _, dup := seen[string(node.ID)]; dup {
					continue
				}
				seen[string(node.ID)] = struct{}{}
			}
			values = append(values, projectNode(node, nil))
		}
		return values, nil

	default:
		return nil, fmt.Errorf("aggregation %q: %w", agg.Fn, ErrUnknownStep)
	}
}

// primaryAlias is the first node alias the pipeline binds, used as the
// default aggregation source.
func (q *Query) primaryAlias() string {
	for _, step := range q.steps {
		if step.Kind == StepMatch || step.Kind == StepMatchByID {
			return step.Alias
		}
	}
	return q.current
}
