// Package query - condition evaluation.
//
// Comparison semantics follow the operator table in conditions.go: strict
// equality on scalars, numeric-only ordering operators, string-only text
// operators. Absent row bindings make a condition false rather than raising;
// structurally unknown aliases were already rejected by validation.
package query

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/orneryd/yggdrasil/pkg/graph"
)

// applyWhere retains rows satisfying every top-level condition.
func (e *Engine) applyWhere(q *Query, step Step, rows []*row) ([]*row, error) {
	var out []*row
	for _, r := range rows {
		ok, err := e.evalConditions(q, step.Conditions, r)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, r)
		}
	}
	return out, nil
}

// evalConditions is the conjunction of a condition list.
func (e *Engine) evalConditions(q *Query, conditions []Condition, r *row) (bool, error) {
	for _, cond := range conditions {
		ok, err := e.evalCondition(q, cond, r)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// evalCondition dispatches one condition variant.
func (e *Engine) evalCondition(q *Query, cond Condition, r *row) (bool, error) {
	switch cond.Kind {
	case CondComparison:
		return e.evalComparison(q, cond, r)
	case CondAnd:
		return e.evalConditions(q, cond.Nested, r)
	case CondOr:
		for _, nested := range cond.Nested {
			ok, err := e.evalCondition(q, nested, r)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	case CondNot:
		// NOT is the negation of the conjunction of its children.
		ok, err := e.evalConditions(q, cond.Nested, r)
		if err != nil {
			return false, err
		}
		return !ok, nil
	case CondExists:
		return e.evalExists(q, cond, r)
	case CondConnected:
		return e.evalConnected(q, cond, r)
	default:
		return false, fmt.Errorf("%q: %w", cond.Kind, ErrUnknownCond)
	}
}

// evalComparison resolves the target node in the row (false when unbound)
// and applies the operator to its field value.
func (e *Engine) evalComparison(q *Query, cond Condition, r *row) (bool, error) {
	internal, err := q.resolveTarget(cond.Target)
	if err != nil {
		return false, err
	}
	node, ok := r.node(internal)
	if !ok {
		return false, nil
	}

	var value any
	var present bool
	if cond.Field == "id" {
		value, present = string(node.ID), true
	} else {
		value, present = node.Properties[cond.Field]
	}
	return evalOperator(cond.Op, value, present, cond.Value)
}

// edgeMatches is the conjunction of edge conditions against one candidate
// edge. Field "id" reads the edge id and "type" its type.
func (e *Engine) edgeMatches(conditions []Condition, edge *graph.Edge) bool {
	for _, cond := range conditions {
		var value any
		var present bool
		switch cond.Field {
		case "id":
			value, present = string(edge.ID), true
		case "type":
			value, present = edge.Type, true
		default:
			value, present = edge.Properties[cond.Field]
		}
		ok, err := evalOperator(cond.Op, value, present, cond.Value)
		if err != nil || !ok {
			return false
		}
	}
	return true
}

// evalOperator applies one comparison operator.
func evalOperator(op Operator, value any, present bool, expected any) (bool, error) {
	switch op {
	case OpEq:
		return present && equalValues(value, expected), nil
	case OpNeq:
		return present && !equalValues(value, expected), nil
	case OpGt, OpGte, OpLt, OpLte:
		left, leftOK := toFloat64(value)
		right, rightOK := toFloat64(expected)
		if !present || !leftOK || !rightOK {
			return false, nil
		}
		switch op {
		case OpGt:
			return left > right, nil
		case OpGte:
			return left >= right, nil
		case OpLt:
			return left < right, nil
		default:
			return left <= right, nil
		}
	case OpIn, OpNotIn:
		list, ok := toList(expected)
		if !ok || !present {
			return false, nil
		}
		member := false
		for _, candidate := range list {
			if equalValues(value, candidate) {
				member = true
				break
			}
		}
		if op == OpIn {
			return member, nil
		}
		return !member, nil
	case OpContains, OpStartsWith, OpEndsWith:
		text, textOK := value.(string)
		needle, needleOK := expected.(string)
		if !present || !textOK || !needleOK {
			return false, nil
		}
		switch op {
		case OpContains:
			return strings.Contains(text, needle), nil
		case OpStartsWith:
			return strings.HasPrefix(text, needle), nil
		default:
			return strings.HasSuffix(text, needle), nil
		}
	case OpIsNull:
		return !present || value == nil, nil
	case OpIsNotNull:
		return present && value != nil, nil
	default:
		return false, fmt.Errorf("operator %q: %w", op, ErrUnknownCond)
	}
}

// evalExists tests for at least one edge of the given type on the target in
// the given direction, flipped by Negated.
func (e *Engine) evalExists(q *Query, cond Condition, r *row) (bool, error) {
	internal, err := q.resolveTarget(cond.Target)
	if err != nil {
		return false, err
	}
	node, ok := r.node(internal)
	if !ok {
		return false, nil
	}

	found := false
	if cond.Direction == DirOut || cond.Direction == DirBoth || cond.Direction == "" {
		edges, err := e.store.Outgoing(node.ID, cond.EdgeType)
		if err != nil {
			return false, err
		}
		found = len(edges) > 0
	}
	if !found && (cond.Direction == DirIn || cond.Direction == DirBoth) {
		edges, err := e.store.Incoming(node.ID, cond.EdgeType)
		if err != nil {
			return false, err
		}
		found = len(edges) > 0
	}
	if cond.Negated {
		return !found, nil
	}
	return found, nil
}

// evalConnected tests for an edge of the given type between the target node
// and the specific peer.
func (e *Engine) evalConnected(q *Query, cond Condition, r *row) (bool, error) {
	internal, err := q.resolveTarget(cond.Target)
	if err != nil {
		return false, err
	}
	node, ok := r.node(internal)
	if !ok {
		return false, nil
	}

	peer := graph.NodeID(cond.NodeID)
	switch cond.Direction {
	case DirIn:
		return e.store.HasEdge(peer, node.ID, cond.EdgeType), nil
	case DirBoth:
		return e.store.HasEdge(node.ID, peer, cond.EdgeType) ||
			e.store.HasEdge(peer, node.ID, cond.EdgeType), nil
	default:
		return e.store.HasEdge(node.ID, peer, cond.EdgeType), nil
	}
}

// equalValues implements strict scalar equality with a uniform numeric
// model: integers and floats compare by value, so int64(5) equals 5.0.
// Lists compare elementwise.
func equalValues(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if leftNum, ok := toFloat64(a); ok {
		if rightNum, ok := toFloat64(b); ok {
			return leftNum == rightNum
		}
		return false
	}
	if leftTime, ok := a.(time.Time); ok {
		if rightTime, ok := b.(time.Time); ok {
			return leftTime.Equal(rightTime)
		}
		return false
	}
	if leftList, ok := toList(a); ok {
		rightList, ok := toList(b)
		if !ok || len(leftList) != len(rightList) {
			return false
		}
		for i := range leftList {
			if !equalValues(leftList[i], rightList[i]) {
				return false
			}
		}
		return true
	}
	return a == b
}

// toFloat64 widens any supported numeric type. Booleans, strings, and
// timestamps are not numerics.
func toFloat64(v any) (float64, bool) {
	switch value := v.(type) {
	case int:
		return float64(value), true
	case int8:
		return float64(value), true
	case int16:
		return float64(value), true
	case int32:
		return float64(value), true
	case int64:
		return float64(value), true
	case uint:
		return float64(value), true
	case uint8:
		return float64(value), true
	case uint16:
		return float64(value), true
	case uint32:
		return float64(value), true
	case uint64:
		return float64(value), true
	case float32:
		return float64(value), true
	case float64:
		return value, true
	default:
		return 0, false
	}
}

// toList normalizes any slice value to []any.
func toList(v any) ([]any, bool) {
	if list, ok := v.([]any); ok {
		return list, true
	}
	rv := reflect.ValueOf(v)
	if !rv.IsValid() || rv.Kind() != reflect.Slice {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}
