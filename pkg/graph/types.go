// Package graph provides the in-memory property-graph store for Yggdrasil.
//
// The store owns all nodes, edges, and derived indices, and is the single
// source of truth the query engine reads from. It follows the labeled
// property-graph model: nodes carry one label and a property map, edges are
// directed, typed connections between two existing nodes.
//
// Design Principles:
//   - Thread-safe implementation (RWMutex-guarded)
//   - Defensive copies: nothing returned from the store can mutate it
//   - Deterministic enumeration: label scans and adjacency lists preserve
//     insertion order
//   - Derived indices (label, edge type, adjacency, property) are kept
//     consistent with the base containers after every mutation
//
// Example Usage:
//
//	// Create a store
//	store := graph.NewStore()
//	defer store.Close()
//
//	// Create nodes
//	node := &graph.Node{
//		ID:    graph.NodeID("user-123"),
//		Label: "user",
//		Properties: map[string]any{
//			"name":  "Alice",
//			"email": "alice@example.com",
//		},
//		CreatedAt: time.Now(),
//	}
//	store.CreateNode(node)
//
//	// Create relationships
//	edge := &graph.Edge{
//		ID:        graph.EdgeID("follows-1"),
//		From:      graph.NodeID("user-123"),
//		To:        graph.NodeID("user-456"),
//		Type:      "follows",
//		CreatedAt: time.Now(),
//	}
//	store.CreateEdge(edge)
//
//	// Query
//	users, _ := store.NodesByLabel("user")
//	fmt.Printf("Found %d users\n", len(users))
package graph

import (
	"errors"
	"time"
)

// Common errors
var (
	ErrNotFound          = errors.New("not found")
	ErrDuplicateID       = errors.New("id already exists")
	ErrEndpointMissing   = errors.New("edge endpoint not found")
	ErrInvalidID         = errors.New("invalid id")
	ErrInvalidData       = errors.New("invalid data")
	ErrStoreClosed       = errors.New("store closed")
	ErrTransactionActive = errors.New("transaction already in progress")
	ErrNoTransaction     = errors.New("no active transaction")
)

// NodeID is a strongly-typed unique identifier for graph nodes.
//
// Using a custom type provides:
//   - Type safety (can't accidentally use EdgeID where NodeID is expected)
//   - Clear API semantics
//
// Example:
//
//	id := graph.NodeID("user-123")
//	node, err := store.GetNode(id)
type NodeID string

// EdgeID is a strongly-typed unique identifier for graph edges.
//
// Similar to NodeID, provides type safety and API clarity.
type EdgeID string

// Node represents a graph node (vertex) in the labeled property graph.
//
// Fields:
//   - ID: Unique identifier (immutable after creation)
//   - Label: Type tag such as "user" or "post" (immutable after creation)
//   - Properties: Key-value data. Values are one of: int64, float64, bool,
//     string, time.Time, nil, or a homogeneous []any of these.
//   - CreatedAt / UpdatedAt: Lifecycle timestamps maintained by the store
//
// Example:
//
//	node := &graph.Node{
//		ID:    graph.NodeID("user-alice"),
//		Label: "user",
//		Properties: map[string]any{
//			"name":     "Alice Johnson",
//			"age":      int64(30),
//			"verified": true,
//		},
//		CreatedAt: time.Now(),
//	}
//
// Thread Safety:
//
//	Node structs are NOT thread-safe. The store handles concurrency and
//	always hands out defensive copies.
type Node struct {
	ID         NodeID         `json:"id"`
	Label      string         `json:"label"`
	Properties map[string]any `json:"properties"`
	CreatedAt  time.Time      `json:"createdAt"`
	UpdatedAt  time.Time      `json:"updatedAt"`
}

// Edge represents a directed, typed relationship between two nodes.
//
// Fields:
//   - ID: Unique identifier (immutable)
//   - Type: Relationship type such as "authored" or "replyTo" (immutable)
//   - From / To: Endpoint node IDs (immutable; must exist at creation time)
//   - Properties: Same value domain as node properties
//   - CreatedAt: Creation timestamp
//
// The arrow matters: an edge from "alice" to "bob" is distinct from an edge
// from "bob" to "alice". An edge is removed automatically when either of its
// endpoints is deleted.
//
// Example:
//
//	edge := &graph.Edge{
//		ID:   graph.EdgeID("knows-1"),
//		From: graph.NodeID("alice"),
//		To:   graph.NodeID("bob"),
//		Type: "knows",
//		Properties: map[string]any{
//			"since": "2020-01-15",
//		},
//		CreatedAt: time.Now(),
//	}
type Edge struct {
	ID         EdgeID         `json:"id"`
	Type       string         `json:"type"`
	From       NodeID         `json:"fromId"`
	To         NodeID         `json:"toId"`
	Properties map[string]any `json:"properties"`
	CreatedAt  time.Time      `json:"createdAt"`
}

// Stats summarizes the current contents of a store.
type Stats struct {
	Nodes             int            `json:"nodes"`
	Edges             int            `json:"edges"`
	Labels            map[string]int `json:"labels"`
	EdgeTypes         map[string]int `json:"edgeTypes"`
	PropertyIndexes   int            `json:"propertyIndexes"`
	TransactionActive bool           `json:"transactionActive"`
}

// ExportedGraph is the passive, serializable form of a store.
//
// Round-trip invariant: Import(Export(S)) reproduces S in terms of nodes,
// edges, and adjacency (insertion order included).
type ExportedGraph struct {
	Nodes []*Node `json:"nodes"`
	Edges []*Edge `json:"edges"`
}

// copyProperties returns a value copy of a property map. Nested lists are
// copied one level deep, which covers the supported value domain.
func copyProperties(props map[string]any) map[string]any {
	if props == nil {
		return nil
	}
	copied := make(map[string]any, len(props))
	for k, v := range props {
		if list, ok := v.([]any); ok {
			nested := make([]any, len(list))
			copy(nested, list)
			copied[k] = nested
			continue
		}
		copied[k] = v
	}
	return copied
}

// CopyNode creates a deep copy of a node.
func CopyNode(n *Node) *Node {
	if n == nil {
		return nil
	}
	return &Node{
		ID:         n.ID,
		Label:      n.Label,
		Properties: copyProperties(n.Properties),
		CreatedAt:  n.CreatedAt,
		UpdatedAt:  n.UpdatedAt,
	}
}

// CopyEdge creates a deep copy of an edge.
func CopyEdge(e *Edge) *Edge {
	if e == nil {
		return nil
	}
	return &Edge{
		ID:         e.ID,
		Type:       e.Type,
		From:       e.From,
		To:         e.To,
		Properties: copyProperties(e.Properties),
		CreatedAt:  e.CreatedAt,
	}
}
