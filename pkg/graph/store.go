package graph

import (
	"fmt"
	"sync"
	"time"
)

// Store is a thread-safe in-memory graph store.
//
// Use Cases:
//   - Backing store for the Yggdrasil query engine
//   - Unit testing (no disk I/O, fast cleanup)
//   - Small-to-medium datasets that fit entirely in RAM
//
// Features:
//   - Thread-safe: All operations use RWMutex for concurrent access
//   - Indexed: Maintains label, edge-type, adjacency, and optional
//     (label, property) indices for fast lookups
//   - Deep copies: Returns copies to prevent external mutation
//   - Deterministic: Label scans and adjacency enumerate in insertion order
//   - Transactional: Single-level snapshot transactions (see transaction.go)
//
// Performance Characteristics:
//   - Node lookup by ID: O(1)
//   - Node lookup by label: O(k) where k = nodes with that label
//   - Outgoing/incoming edges: O(degree)
//   - Indexed property lookup: O(m) where m = matching nodes
//
// Example:
//
//	store := graph.NewStore()
//	defer store.Close()
//
//	store.CreateNode(&graph.Node{ID: "n1", Label: "person",
//		Properties: map[string]any{"name": "Alice"}})
//	store.CreateNode(&graph.Node{ID: "n2", Label: "person",
//		Properties: map[string]any{"name": "Bob"}})
//	store.CreateEdge(&graph.Edge{ID: "e1", From: "n1", To: "n2", Type: "knows"})
//
//	people, _ := store.NodesByLabel("person")
//	fmt.Printf("Found %d people\n", len(people))
type Store struct {
	mu    sync.RWMutex
	nodes map[NodeID]*Node
	edges map[EdgeID]*Edge

	// Insertion order, the source of truth for deterministic enumeration
	// and for index rebuilds after rollback.
	nodeOrder []NodeID
	edgeOrder []EdgeID

	// Derived indices. Slices preserve insertion order per bucket.
	nodesByLabel map[string][]NodeID
	edgesByType  map[string][]EdgeID
	outgoing     map[NodeID][]EdgeID
	incoming     map[NodeID][]EdgeID

	// Optional (label, property) indices, created via CreateIndex.
	propIndexes map[indexKey]*propertyIndex

	// Non-nil while a transaction is active.
	snapshot *snapshot

	closed bool
}

// NewStore creates a new in-memory store with empty indices.
//
// The store is ready for immediate concurrent use. All data lives in RAM
// and is lost when the process exits; persistence is out of scope.
func NewStore() *Store {
	return &Store{
		nodes:        make(map[NodeID]*Node),
		edges:        make(map[EdgeID]*Edge),
		nodesByLabel: make(map[string][]NodeID),
		edgesByType:  make(map[string][]EdgeID),
		outgoing:     make(map[NodeID][]EdgeID),
		incoming:     make(map[NodeID][]EdgeID),
		propIndexes:  make(map[indexKey]*propertyIndex),
	}
}

// CreateNode creates a new node in the store.
//
// The node is deep-copied to prevent external mutation after storage.
// The ID must be unique - duplicate IDs return ErrDuplicateID.
//
// Returns:
//   - nil on success
//   - ErrInvalidData if node is nil
//   - ErrInvalidID if ID is empty
//   - ErrInvalidData if the label is empty
//   - ErrDuplicateID if a node with this ID exists
//   - ErrStoreClosed if the store is closed
func (s *Store) CreateNode(node *Node) error {
	if node == nil {
		return ErrInvalidData
	}
	if node.ID == "" {
		return ErrInvalidID
	}
	if node.Label == "" {
		return fmt.Errorf("node %q: empty label: %w", node.ID, ErrInvalidData)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}
	if _, exists := s.nodes[node.ID]; exists {
		return fmt.Errorf("node %q: %w", node.ID, ErrDuplicateID)
	}

	s.createNodeLocked(node)
	return nil
}

// createNodeLocked inserts a node and updates all indices. Caller holds mu.
func (s *Store) createNodeLocked(node *Node) {
	stored := CopyNode(node)
	s.nodes[stored.ID] = stored
	s.nodeOrder = append(s.nodeOrder, stored.ID)
	s.nodesByLabel[stored.Label] = append(s.nodesByLabel[stored.Label], stored.ID)
	s.indexNodeLocked(stored)
}

// GetNode retrieves a node by its unique ID.
//
// Returns a deep copy of the node to prevent external mutation.
//
// Returns:
//   - Node copy on success
//   - ErrInvalidID if ID is empty
//   - ErrNotFound if the node doesn't exist
//   - ErrStoreClosed if the store is closed
func (s *Store) GetNode(id NodeID) (*Node, error) {
	if id == "" {
		return nil, ErrInvalidID
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}
	node, exists := s.nodes[id]
	if !exists {
		return nil, fmt.Errorf("node %q: %w", id, ErrNotFound)
	}
	return CopyNode(node), nil
}

// HasNode reports whether a node with the given ID exists.
func (s *Store) HasNode(id NodeID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return false
	}
	_, exists := s.nodes[id]
	return exists
}

// UpdateNode merges a property patch into an existing node.
//
// Keys present in the patch overwrite (or add) the corresponding property;
// a nil patch value stores an explicit null. ID and Label are immutable and
// cannot be changed through this path. UpdatedAt is bumped, and any
// (label, property) indices covering patched properties are re-indexed.
//
// Returns a copy of the updated node, or ErrNotFound.
func (s *Store) UpdateNode(id NodeID, patch map[string]any) (*Node, error) {
	if id == "" {
		return nil, ErrInvalidID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrStoreClosed
	}
	node, exists := s.nodes[id]
	if !exists {
		return nil, fmt.Errorf("node %q: %w", id, ErrNotFound)
	}

	s.unindexNodeLocked(node)
	if node.Properties == nil {
		node.Properties = make(map[string]any, len(patch))
	}
	for k, v := range patch {
		node.Properties[k] = v
	}
	node.UpdatedAt = time.Now()
	s.indexNodeLocked(node)

	return CopyNode(node), nil
}

// DeleteNode removes a node and, cascading, every edge where it is an
// endpoint. All indices are updated.
//
// Returns ErrNotFound if the node doesn't exist.
func (s *Store) DeleteNode(id NodeID) error {
	if id == "" {
		return ErrInvalidID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}
	if _, exists := s.nodes[id]; !exists {
		return fmt.Errorf("node %q: %w", id, ErrNotFound)
	}

	s.deleteNodeLocked(id)
	return nil
}

// deleteNodeLocked removes a node and its incident edges. Caller holds mu.
func (s *Store) deleteNodeLocked(id NodeID) {
	node := s.nodes[id]

	// Cascade: collect incident edge ids first, then delete each.
	incident := make([]EdgeID, 0, len(s.outgoing[id])+len(s.incoming[id]))
	incident = append(incident, s.outgoing[id]...)
	incident = append(incident, s.incoming[id]...)
	for _, edgeID := range incident {
		if _, exists := s.edges[edgeID]; exists {
			s.deleteEdgeLocked(edgeID)
		}
	}
	delete(s.outgoing, id)
	delete(s.incoming, id)

	s.unindexNodeLocked(node)
	s.nodesByLabel[node.Label] = removeNodeID(s.nodesByLabel[node.Label], id)
	if len(s.nodesByLabel[node.Label]) == 0 {
		delete(s.nodesByLabel, node.Label)
	}
	s.nodeOrder = removeNodeID(s.nodeOrder, id)
	delete(s.nodes, id)
}

// NodesByLabel returns all nodes with the given label, in insertion order.
//
// Returns deep copies of all matching nodes; an empty slice if none match.
func (s *Store) NodesByLabel(label string) ([]*Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}
	ids := s.nodesByLabel[label]
	nodes := make([]*Node, 0, len(ids))
	for _, id := range ids {
		if node := s.nodes[id]; node != nil {
			nodes = append(nodes, CopyNode(node))
		}
	}
	return nodes, nil
}

// AllNodes returns every node in insertion order.
func (s *Store) AllNodes() ([]*Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}
	nodes := make([]*Node, 0, len(s.nodeOrder))
	for _, id := range s.nodeOrder {
		if node := s.nodes[id]; node != nil {
			nodes = append(nodes, CopyNode(node))
		}
	}
	return nodes, nil
}

// CreateEdge creates a new edge between two existing nodes.
//
// Returns:
//   - nil on success
//   - ErrInvalidData / ErrInvalidID for malformed input
//   - ErrDuplicateID if an edge with this ID exists
//   - ErrEndpointMissing if either endpoint node does not exist
//   - ErrStoreClosed if the store is closed
func (s *Store) CreateEdge(edge *Edge) error {
	if edge == nil {
		return ErrInvalidData
	}
	if edge.ID == "" {
		return ErrInvalidID
	}
	if edge.Type == "" {
		return fmt.Errorf("edge %q: empty type: %w", edge.ID, ErrInvalidData)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}
	if _, exists := s.edges[edge.ID]; exists {
		return fmt.Errorf("edge %q: %w", edge.ID, ErrDuplicateID)
	}
	if _, exists := s.nodes[edge.From]; !exists {
		return fmt.Errorf("edge %q: from %q: %w", edge.ID, edge.From, ErrEndpointMissing)
	}
	if _, exists := s.nodes[edge.To]; !exists {
		return fmt.Errorf("edge %q: to %q: %w", edge.ID, edge.To, ErrEndpointMissing)
	}

	s.createEdgeLocked(edge)
	return nil
}

// createEdgeLocked inserts an edge and updates all indices. Caller holds mu.
func (s *Store) createEdgeLocked(edge *Edge) {
	stored := CopyEdge(edge)
	s.edges[stored.ID] = stored
	s.edgeOrder = append(s.edgeOrder, stored.ID)
	s.edgesByType[stored.Type] = append(s.edgesByType[stored.Type], stored.ID)
	s.outgoing[stored.From] = append(s.outgoing[stored.From], stored.ID)
	s.incoming[stored.To] = append(s.incoming[stored.To], stored.ID)
}

// GetEdge retrieves an edge by ID. Returns a deep copy.
func (s *Store) GetEdge(id EdgeID) (*Edge, error) {
	if id == "" {
		return nil, ErrInvalidID
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}
	edge, exists := s.edges[id]
	if !exists {
		return nil, fmt.Errorf("edge %q: %w", id, ErrNotFound)
	}
	return CopyEdge(edge), nil
}

// UpdateEdge merges a property patch into an existing edge.
//
// ID, Type, From, and To are immutable; only properties change.
func (s *Store) UpdateEdge(id EdgeID, patch map[string]any) (*Edge, error) {
	if id == "" {
		return nil, ErrInvalidID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrStoreClosed
	}
	edge, exists := s.edges[id]
	if !exists {
		return nil, fmt.Errorf("edge %q: %w", id, ErrNotFound)
	}
	if edge.Properties == nil {
		edge.Properties = make(map[string]any, len(patch))
	}
	for k, v := range patch {
		edge.Properties[k] = v
	}
	return CopyEdge(edge), nil
}

// DeleteEdge removes an edge. No cascade occurs on edge deletion.
func (s *Store) DeleteEdge(id EdgeID) error {
	if id == "" {
		return ErrInvalidID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}
	if _, exists := s.edges[id]; !exists {
		return fmt.Errorf("edge %q: %w", id, ErrNotFound)
	}

	s.deleteEdgeLocked(id)
	return nil
}

// deleteEdgeLocked removes an edge from all indices. Caller holds mu.
func (s *Store) deleteEdgeLocked(id EdgeID) {
	edge := s.edges[id]
	s.outgoing[edge.From] = removeEdgeID(s.outgoing[edge.From], id)
	s.incoming[edge.To] = removeEdgeID(s.incoming[edge.To], id)
	s.edgesByType[edge.Type] = removeEdgeID(s.edgesByType[edge.Type], id)
	if len(s.edgesByType[edge.Type]) == 0 {
		delete(s.edgesByType, edge.Type)
	}
	s.edgeOrder = removeEdgeID(s.edgeOrder, id)
	delete(s.edges, id)
}

// Outgoing returns all edges where the given node is the source, in
// insertion order, optionally filtered by edge type ("" matches all).
//
// Returns deep copies of all matching edges.
//
// Example:
//
//	// Everything Alice authored
//	edges, _ := store.Outgoing("user-alice", "authored")
//	for _, edge := range edges {
//		post, _ := store.GetNode(edge.To)
//		fmt.Printf("  - %s\n", post.Properties["title"])
//	}
func (s *Store) Outgoing(nodeID NodeID, edgeType string) ([]*Edge, error) {
	if nodeID == "" {
		return nil, ErrInvalidID
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}
	return s.collectEdgesLocked(s.outgoing[nodeID], edgeType), nil
}

// Incoming returns all edges where the given node is the target, in
// insertion order, optionally filtered by edge type ("" matches all).
func (s *Store) Incoming(nodeID NodeID, edgeType string) ([]*Edge, error) {
	if nodeID == "" {
		return nil, ErrInvalidID
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}
	return s.collectEdgesLocked(s.incoming[nodeID], edgeType), nil
}

// collectEdgesLocked copies edges out of an adjacency bucket. Caller holds mu.
func (s *Store) collectEdgesLocked(ids []EdgeID, edgeType string) []*Edge {
	edges := make([]*Edge, 0, len(ids))
	for _, id := range ids {
		edge := s.edges[id]
		if edge == nil {
			continue
		}
		if edgeType != "" && edge.Type != edgeType {
			continue
		}
		edges = append(edges, CopyEdge(edge))
	}
	return edges
}

// FindEdge returns the first edge from one node to another, optionally
// restricted by type ("" matches any type). Returns nil if none exists.
func (s *Store) FindEdge(from, to NodeID, edgeType string) *Edge {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil
	}
	for _, id := range s.outgoing[from] {
		edge := s.edges[id]
		if edge == nil || edge.To != to {
			continue
		}
		if edgeType == "" || edge.Type == edgeType {
			return CopyEdge(edge)
		}
	}
	return nil
}

// HasEdge reports whether an edge exists from one node to another,
// optionally restricted by type.
func (s *Store) HasEdge(from, to NodeID, edgeType string) bool {
	return s.FindEdge(from, to, edgeType) != nil
}

// EdgesByType returns all edges of the given type, in insertion order.
func (s *Store) EdgesByType(edgeType string) ([]*Edge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}
	ids := s.edgesByType[edgeType]
	edges := make([]*Edge, 0, len(ids))
	for _, id := range ids {
		if edge := s.edges[id]; edge != nil {
			edges = append(edges, CopyEdge(edge))
		}
	}
	return edges, nil
}

// AllEdges returns every edge in insertion order.
func (s *Store) AllEdges() ([]*Edge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}
	edges := make([]*Edge, 0, len(s.edgeOrder))
	for _, id := range s.edgeOrder {
		if edge := s.edges[id]; edge != nil {
			edges = append(edges, CopyEdge(edge))
		}
	}
	return edges, nil
}

// Clear removes all nodes, edges, and indices. Declared property indices
// are dropped as well. Fails with ErrTransactionActive mid-transaction.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}
	if s.snapshot != nil {
		return ErrTransactionActive
	}

	s.nodes = make(map[NodeID]*Node)
	s.edges = make(map[EdgeID]*Edge)
	s.nodeOrder = nil
	s.edgeOrder = nil
	s.nodesByLabel = make(map[string][]NodeID)
	s.edgesByType = make(map[string][]EdgeID)
	s.outgoing = make(map[NodeID][]EdgeID)
	s.incoming = make(map[NodeID][]EdgeID)
	s.propIndexes = make(map[indexKey]*propertyIndex)
	return nil
}

// Stats returns a summary of the store contents.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := Stats{
		Nodes:             len(s.nodes),
		Edges:             len(s.edges),
		Labels:            make(map[string]int, len(s.nodesByLabel)),
		EdgeTypes:         make(map[string]int, len(s.edgesByType)),
		PropertyIndexes:   len(s.propIndexes),
		TransactionActive: s.snapshot != nil,
	}
	for label, ids := range s.nodesByLabel {
		stats.Labels[label] = len(ids)
	}
	for edgeType, ids := range s.edgesByType {
		stats.EdgeTypes[edgeType] = len(ids)
	}
	return stats
}

// NodeCount returns the number of nodes.
func (s *Store) NodeCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.nodes)
}

// EdgeCount returns the number of edges.
func (s *Store) EdgeCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.edges)
}

// Close closes the store and releases all memory.
//
// After Close(), all subsequent operations return ErrStoreClosed.
// This method is idempotent.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	s.nodes = nil
	s.edges = nil
	s.nodeOrder = nil
	s.edgeOrder = nil
	s.nodesByLabel = nil
	s.edgesByType = nil
	s.outgoing = nil
	s.incoming = nil
	s.propIndexes = nil
	s.snapshot = nil
	return nil
}

// removeNodeID removes the first occurrence of id, preserving order.
func removeNodeID(ids []NodeID, id NodeID) []NodeID {
	for i, candidate := range ids {
		if candidate == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}

// removeEdgeID removes the first occurrence of id, preserving order.
func removeEdgeID(ids []EdgeID, id EdgeID) []EdgeID {
	for i, candidate := range ids {
		if candidate == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
