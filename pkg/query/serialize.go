// Package query - lossless JSON serialization of the AST.
//
// The passive form captures steps, projection, both alias tables, the alias
// counters, and the current-alias pointers, so a deserialized query executes
// identically to the original. Fork branches serialize recursively.
package query

import "encoding/json"

// serializedQuery is the passive representation of a Query.
type serializedQuery struct {
	Steps       []Step            `json:"steps"`
	Projection  Projection        `json:"projection"`
	NodeAliases map[string]string `json:"nodeAliases,omitempty"`
	NodeLabels  map[string]string `json:"nodeLabels,omitempty"`
	EdgeAliases map[string]string `json:"edgeAliases,omitempty"`
	NodeCounter int               `json:"nodeCounter"`
	EdgeCounter int               `json:"edgeCounter"`
	Current     string            `json:"current,omitempty"`
	CurrentEdge string            `json:"currentEdge,omitempty"`
	EdgeCapture bool              `json:"edgeCapture,omitempty"`
}

// MarshalJSON serializes the query to its passive form.
func (q *Query) MarshalJSON() ([]byte, error) {
	return json.Marshal(serializedQuery{
		Steps:       q.steps,
		Projection:  q.projection,
		NodeAliases: q.nodeAliases,
		NodeLabels:  q.nodeLabels,
		EdgeAliases: q.edgeAliases,
		NodeCounter: q.nodeCounter,
		EdgeCounter: q.edgeCounter,
		Current:     q.current,
		CurrentEdge: q.currentEdge,
		EdgeCapture: q.edgeCapture,
	})
}

// UnmarshalJSON reconstructs a query from its passive form.
//
// Note that property values round-trip through JSON's number model: integer
// values come back as float64. The engine's comparison and grouping
// semantics treat numerics uniformly, so execution is unaffected.
func (q *Query) UnmarshalJSON(data []byte) error {
	var passive serializedQuery
	if err := json.Unmarshal(data, &passive); err != nil {
		return err
	}
	q.steps = passive.Steps
	q.projection = passive.Projection
	q.nodeAliases = passive.NodeAliases
	q.nodeLabels = passive.NodeLabels
	q.edgeAliases = passive.EdgeAliases
	q.nodeCounter = passive.NodeCounter
	q.edgeCounter = passive.EdgeCounter
	q.current = passive.Current
	q.currentEdge = passive.CurrentEdge
	q.edgeCapture = passive.EdgeCapture
	if q.nodeAliases == nil {
		q.nodeAliases = map[string]string{}
	}
	if q.nodeLabels == nil {
		q.nodeLabels = map[string]string{}
	}
	if q.edgeAliases == nil {
		q.edgeAliases = map[string]string{}
	}
	return nil
}

// ToJSON serializes the query to its passive JSON form.
func (q *Query) ToJSON() ([]byte, error) {
	return json.Marshal(q)
}

// FromJSON reconstructs a query from its passive JSON form.
func FromJSON(data []byte) (*Query, error) {
	q := NewQuery()
	if err := json.Unmarshal(data, q); err != nil {
		return nil, err
	}
	return q, nil
}
