// Package graph - property index support.
//
// Property indices are optional secondary indices over a (label, property)
// pair. They map a property value to the set of node ids with that label and
// value, and are kept complete under every mutation. Lookups through
// FindByIndex transparently fall back to a full label scan when no index
// exists, so declaring an index is a pure optimization and never changes
// observable behavior.
package graph

import (
	"fmt"
	"time"
)

// indexKey identifies a declared property index.
type indexKey struct {
	Label    string
	Property string
}

// propertyIndex maps canonical value keys to node ids, in insertion order.
type propertyIndex struct {
	values map[string][]NodeID
}

func newPropertyIndex() *propertyIndex {
	return &propertyIndex{values: make(map[string][]NodeID)}
}

// valueKey canonicalizes a property value for index bucketing. Integers and
// floats share a representation so that int64(5) and float64(5) land in the
// same bucket, matching the engine's equality semantics.
func valueKey(v any) string {
	switch value := v.(type) {
	case nil:
		return "null"
	case int:
		return fmt.Sprintf("n:%g", float64(value))
	case int32:
		return fmt.Sprintf("n:%g", float64(value))
	case int64:
		return fmt.Sprintf("n:%g", float64(value))
	case float32:
		return fmt.Sprintf("n:%g", float64(value))
	case float64:
		return fmt.Sprintf("n:%g", value)
	case bool:
		return fmt.Sprintf("b:%t", value)
	case string:
		return "s:" + value
	case time.Time:
		return fmt.Sprintf("t:%d", value.UnixNano())
	default:
		return fmt.Sprintf("x:%v", value)
	}
}

// CreateIndex declares a property index over (label, property) and populates
// it from existing nodes. Creating an index that already exists is a no-op.
//
// Example:
//
//	store.CreateIndex("user", "email")
//	matches, _ := store.FindByIndex("user", "email", "alice@example.com")
func (s *Store) CreateIndex(label, property string) error {
	if label == "" || property == "" {
		return ErrInvalidData
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}
	key := indexKey{Label: label, Property: property}
	if _, exists := s.propIndexes[key]; exists {
		return nil
	}

	idx := newPropertyIndex()
	s.propIndexes[key] = idx
	for _, id := range s.nodeOrder {
		node := s.nodes[id]
		if node == nil || node.Label != label {
			continue
		}
		if value, ok := node.Properties[property]; ok {
			vk := valueKey(value)
			idx.values[vk] = append(idx.values[vk], id)
		}
	}
	return nil
}

// HasIndex reports whether a property index is declared for (label, property).
func (s *Store) HasIndex(label, property string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return false
	}
	_, exists := s.propIndexes[indexKey{Label: label, Property: property}]
	return exists
}

// FindByIndex returns nodes with the given label whose property equals the
// given value. Uses the declared index when one exists; otherwise falls back
// to a full label scan with identical results.
func (s *Store) FindByIndex(label, property string, value any) ([]*Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	if idx, exists := s.propIndexes[indexKey{Label: label, Property: property}]; exists {
		ids := idx.values[valueKey(value)]
		nodes := make([]*Node, 0, len(ids))
		for _, id := range ids {
			if node := s.nodes[id]; node != nil {
				nodes = append(nodes, CopyNode(node))
			}
		}
		return nodes, nil
	}

	// Fallback: full label scan, same observable behavior.
	target := valueKey(value)
	nodes := make([]*Node, 0)
	for _, id := range s.nodesByLabel[label] {
		node := s.nodes[id]
		if node == nil {
			continue
		}
		if stored, ok := node.Properties[property]; ok && valueKey(stored) == target {
			nodes = append(nodes, CopyNode(node))
		}
	}
	return nodes, nil
}

// indexNodeLocked adds a node to every declared index covering its label.
// Caller holds mu.
func (s *Store) indexNodeLocked(node *Node) {
	for key, idx := range s.propIndexes {
		if key.Label != node.Label {
			continue
		}
		if value, ok := node.Properties[key.Property]; ok {
			vk := valueKey(value)
			idx.values[vk] = append(idx.values[vk], node.ID)
		}
	}
}

// unindexNodeLocked removes a node from every declared index covering its
// label. Caller holds mu.
func (s *Store) unindexNodeLocked(node *Node) {
	for key, idx := range s.propIndexes {
		if key.Label != node.Label {
			continue
		}
		if value, ok := node.Properties[key.Property]; ok {
			vk := valueKey(value)
			idx.values[vk] = removeNodeID(idx.values[vk], node.ID)
			if len(idx.values[vk]) == 0 {
				delete(idx.values, vk)
			}
		}
	}
}

// rebuildIndexesLocked reconstructs label, edge-type, adjacency, and declared
// property indices from the base containers and order slices. Used after
// rollback; diffing snapshots is deliberately avoided. Caller holds mu.
func (s *Store) rebuildIndexesLocked(declared []indexKey) {
	s.nodesByLabel = make(map[string][]NodeID)
	s.outgoing = make(map[NodeID][]EdgeID)
	s.incoming = make(map[NodeID][]EdgeID)
	s.edgesByType = make(map[string][]EdgeID)

	for _, id := range s.nodeOrder {
		node := s.nodes[id]
		if node == nil {
			continue
		}
		s.nodesByLabel[node.Label] = append(s.nodesByLabel[node.Label], id)
	}
	for _, id := range s.edgeOrder {
		edge := s.edges[id]
		if edge == nil {
			continue
		}
		s.edgesByType[edge.Type] = append(s.edgesByType[edge.Type], id)
		s.outgoing[edge.From] = append(s.outgoing[edge.From], id)
		s.incoming[edge.To] = append(s.incoming[edge.To], id)
	}

	s.propIndexes = make(map[indexKey]*propertyIndex, len(declared))
	for _, key := range declared {
		idx := newPropertyIndex()
		s.propIndexes[key] = idx
		for _, id := range s.nodesByLabel[key.Label] {
			node := s.nodes[id]
			if node == nil {
				continue
			}
			if value, ok := node.Properties[key.Property]; ok {
				vk := valueKey(value)
				idx.values[vk] = append(idx.values[vk], id)
			}
		}
	}
}
