// Package query - condition variants and constructors.
//
// Conditions filter rows in Where steps and edges in traversal steps. Like
// steps, they are tagged variants with exhaustive dispatch at the
// interpreter; unknown kinds fail with a typed error.
package query

// ConditionKind discriminates the Condition variants.
type ConditionKind string

// Condition kinds.
const (
	CondComparison ConditionKind = "comparison"
	CondAnd        ConditionKind = "and"
	CondOr         ConditionKind = "or"
	CondNot        ConditionKind = "not"
	CondExists     ConditionKind = "exists"
	CondConnected  ConditionKind = "connected"
)

// Operator names the comparison operators.
//
// Semantics (evaluated against the resolved target's field value):
//
//	eq, neq                          strict equality on scalars
//	gt, gte, lt, lte                 numeric only; non-numeric pairs are false
//	in, notIn                        value must be a list; membership by equality
//	contains, startsWith, endsWith   strings only; false for non-strings
//	isNull, isNotNull                property absent or null (or the negation)
type Operator string

// Comparison operators.
const (
	OpEq         Operator = "eq"
	OpNeq        Operator = "neq"
	OpGt         Operator = "gt"
	OpGte        Operator = "gte"
	OpLt         Operator = "lt"
	OpLte        Operator = "lte"
	OpIn         Operator = "in"
	OpNotIn      Operator = "notIn"
	OpContains   Operator = "contains"
	OpStartsWith Operator = "startsWith"
	OpEndsWith   Operator = "endsWith"
	OpIsNull     Operator = "isNull"
	OpIsNotNull  Operator = "isNotNull"
)

// Condition is a tagged filter variant.
//
// Comparison conditions resolve Target to a bound node (an unbound target
// evaluates to false), read Field ("id" reads the node id), and apply Op
// against Value. A comparison with an empty Target is an edge condition and
// evaluates against the candidate edge of the enclosing traversal.
//
// Logical conditions nest: and/or combine Nested; not is defined as the
// negation of the conjunction of Nested.
//
// Exists conditions test for at least one edge of EdgeType on the target in
// Direction, flipped by Negated. Connected conditions test for such an edge
// between the target and the specific peer NodeID.
type Condition struct {
	Kind      ConditionKind `json:"kind"`
	Target    string        `json:"target,omitempty"`
	Field     string        `json:"field,omitempty"`
	Op        Operator      `json:"op,omitempty"`
	Value     any           `json:"value,omitempty"`
	Nested    []Condition   `json:"nested,omitempty"`
	EdgeType  string        `json:"edgeType,omitempty"`
	Direction Direction     `json:"direction,omitempty"`
	Negated   bool          `json:"negated,omitempty"`
	NodeID    string        `json:"nodeId,omitempty"`
}

// Compare builds a comparison condition with an explicit operator.
func Compare(target, field string, op Operator, value any) Condition {
	return Condition{Kind: CondComparison, Target: target, Field: field, Op: op, Value: value}
}

// Eq matches rows where the target's field equals value.
func Eq(target, field string, value any) Condition {
	return Compare(target, field, OpEq, value)
}

// Neq matches rows where the target's field does not equal value.
func Neq(target, field string, value any) Condition {
	return Compare(target, field, OpNeq, value)
}

// Gt matches rows where the target's numeric field is greater than value.
func Gt(target, field string, value any) Condition {
	return Compare(target, field, OpGt, value)
}

// Gte matches rows where the target's numeric field is at least value.
func Gte(target, field string, value any) Condition {
	return Compare(target, field, OpGte, value)
}

// Lt matches rows where the target's numeric field is less than value.
func Lt(target, field string, value any) Condition {
	return Compare(target, field, OpLt, value)
}

// Lte matches rows where the target's numeric field is at most value.
func Lte(target, field string, value any) Condition {
	return Compare(target, field, OpLte, value)
}

// In matches rows where the target's field is a member of the given list.
func In(target, field string, values []any) Condition {
	return Compare(target, field, OpIn, values)
}

// NotIn matches rows where the target's field is not a member of the list.
func NotIn(target, field string, values []any) Condition {
	return Compare(target, field, OpNotIn, values)
}

// Contains matches rows where the target's string field contains value.
func Contains(target, field string, value string) Condition {
	return Compare(target, field, OpContains, value)
}

// StartsWith matches rows where the target's string field starts with value.
func StartsWith(target, field string, value string) Condition {
	return Compare(target, field, OpStartsWith, value)
}

// EndsWith matches rows where the target's string field ends with value.
func EndsWith(target, field string, value string) Condition {
	return Compare(target, field, OpEndsWith, value)
}

// IsNull matches rows where the target's field is absent or null.
func IsNull(target, field string) Condition {
	return Compare(target, field, OpIsNull, nil)
}

// IsNotNull matches rows where the target's field is present and non-null.
func IsNotNull(target, field string) Condition {
	return Compare(target, field, OpIsNotNull, nil)
}

// And matches rows satisfying every nested condition.
func And(conditions ...Condition) Condition {
	return Condition{Kind: CondAnd, Nested: conditions}
}

// Or matches rows satisfying at least one nested condition.
func Or(conditions ...Condition) Condition {
	return Condition{Kind: CondOr, Nested: conditions}
}

// Not matches rows failing the conjunction of the nested conditions:
// Not(c1, c2) is !(c1 AND c2).
func Not(conditions ...Condition) Condition {
	return Condition{Kind: CondNot, Nested: conditions}
}

// HasEdgeOf matches rows whose target node has at least one edge of the
// given type in the given direction.
func HasEdgeOf(target, edgeType string, direction Direction) Condition {
	return Condition{Kind: CondExists, Target: target, EdgeType: edgeType, Direction: direction}
}

// HasNoEdgeOf is the negation of HasEdgeOf.
func HasNoEdgeOf(target, edgeType string, direction Direction) Condition {
	return Condition{Kind: CondExists, Target: target, EdgeType: edgeType, Direction: direction, Negated: true}
}

// ConnectedTo matches rows whose target node has an edge of the given type
// to (or from, per direction) the specific peer node.
func ConnectedTo(target, edgeType string, direction Direction, nodeID string) Condition {
	return Condition{Kind: CondConnected, Target: target, EdgeType: edgeType, Direction: direction, NodeID: nodeID}
}

// EdgeCond builds an edge condition for traversal filtering: it evaluates
// against each candidate edge rather than a bound node. Field "id" reads the
// edge id and "type" its type; any other field reads an edge property.
//
// Example:
//
//	q.Traverse(query.TraversalSpec{
//		EdgeTypes:      []string{"rated"},
//		Direction:      query.DirOut,
//		EdgeConditions: []query.Condition{query.EdgeCond("stars", query.OpGte, int64(4))},
//	})
func EdgeCond(field string, op Operator, value any) Condition {
	return Condition{Kind: CondComparison, Field: field, Op: op, Value: value}
}
