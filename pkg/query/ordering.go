// Package query - ordering and deduplication.
package query

import (
	"fmt"
	"sort"
	"time"

	"github.com/orneryd/yggdrasil/pkg/graph"
)

// applyOrderBy sorts the row set stably by the step's field list.
//
// Comparator rules: null/absent values sort before non-null; strings compare
// by locale-aware collation; numbers by value; timestamps chronologically;
// mixed-type pairs fall back to collated string forms. DESC inverts the
// comparator. Stability preserves the pre-existing relative order of rows
// that compare equal on every key.
//
// Keys with an empty Target read computed row values (aggregation result
// aliases, recorded depth); they are never resolved as node properties.
func (e *Engine) applyOrderBy(q *Query, step Step, rows []*row) ([]*row, error) {
	type resolvedField struct {
		internal string
		field    string
		desc     bool
		computed bool
	}
	fields := make([]resolvedField, 0, len(step.Order))
	for _, f := range step.Order {
		rf := resolvedField{field: f.Field, desc: f.Direction == SortDesc}
		if f.Target == "" {
			rf.computed = true
		} else {
			internal, err := q.resolveTarget(f.Target)
			if err != nil {
				return nil, err
			}
			rf.internal = internal
		}
		fields = append(fields, rf)
	}

	value := func(r *row, rf resolvedField) any {
		if rf.computed {
			return r.computed[rf.field]
		}
		node, ok := r.node(rf.internal)
		if !ok {
			// A computed value under the same key still orders rows the
			// aggregate step produced.
			if v, ok := r.computed[rf.field]; ok {
				return v
			}
			return nil
		}
		if rf.field == "id" {
			return string(node.ID)
		}
		return node.Properties[rf.field]
	}

	sort.SliceStable(rows, func(i, j int) bool {
		for _, rf := range fields {
			cmp := e.compareValues(value(rows[i], rf), value(rows[j], rf))
			if cmp == 0 {
				continue
			}
			if rf.desc {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})
	return rows, nil
}

// compareValues orders two property values: nulls first, then numerics,
// strings, booleans, and timestamps by their natural order, and mixed pairs
// by collated string form.
func (e *Engine) compareValues(a, b any) int {
	if a == nil && b == nil {
		return 0
	}
	if a == nil {
		return -1
	}
	if b == nil {
		return 1
	}
	if leftNum, ok := toFloat64(a); ok {
		if rightNum, ok := toFloat64(b); ok {
			switch {
			case leftNum < rightNum:
				return -1
			case leftNum > rightNum:
				return 1
			default:
				return 0
			}
		}
	}
	if leftStr, ok := a.(string); ok {
		if rightStr, ok := b.(string); ok {
			return e.collator.CompareString(leftStr, rightStr)
		}
	}
	if leftTime, ok := a.(time.Time); ok {
		if rightTime, ok := b.(time.Time); ok {
			switch {
			case leftTime.Before(rightTime):
				return -1
			case leftTime.After(rightTime):
				return 1
			default:
				return 0
			}
		}
	}
	if leftBool, ok := a.(bool); ok {
		if rightBool, ok := b.(bool); ok {
			switch {
			case leftBool == rightBool:
				return 0
			case !leftBool:
				return -1
			default:
				return 1
			}
		}
	}
	return e.collator.CompareString(fmt.Sprint(a), fmt.Sprint(b))
}

// applyDistinct deduplicates rows by the sorted concatenation of their bound
// node ids, keeping the first occurrence.
func applyDistinct(rows []*row) []*row {
	seen := map[string]struct{}{}
	out := make([]*row, 0, len(rows))
	for _, r := range rows {
		key := distinctKey(r)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, r)
	}
	return out
}

// distinctKey builds the dedup key: the sorted multiset of bound node ids.
// Null-sentinel bindings contribute nothing.
func distinctKey(r *row) string {
	ids := make([]string, 0, len(r.nodes))
	for _, node := range r.nodes {
		if node != nil {
			ids = append(ids, string(node.ID))
		}
	}
	sort.Strings(ids)
	key := ""
	for _, id := range ids {
		key += id + "\x00"
	}
	return key
}

// nodeID is a tiny helper for tests and projections.
func nodeID(node *graph.Node) string {
	if node == nil {
		return ""
	}
	return string(node.ID)
}
