// Package graph - export and import of the passive graph form.
package graph

import "fmt"

// Export returns the passive, serializable form of the store: all nodes and
// edges in insertion order. The returned value shares nothing with the store.
//
// Example:
//
//	exported := store.Export()
//	data, _ := json.MarshalIndent(exported, "", "  ")
//	os.WriteFile("graph.json", data, 0644)
func (s *Store) Export() *ExportedGraph {
	s.mu.RLock()
	defer s.mu.RUnlock()

	exported := &ExportedGraph{
		Nodes: make([]*Node, 0, len(s.nodeOrder)),
		Edges: make([]*Edge, 0, len(s.edgeOrder)),
	}
	if s.closed {
		return exported
	}
	for _, id := range s.nodeOrder {
		if node := s.nodes[id]; node != nil {
			exported.Nodes = append(exported.Nodes, CopyNode(node))
		}
	}
	for _, id := range s.edgeOrder {
		if edge := s.edges[id]; edge != nil {
			exported.Edges = append(exported.Edges, CopyEdge(edge))
		}
	}
	return exported
}

// Import replaces the store contents with an exported graph. Nodes are
// inserted before edges, both in the order they appear, so that
// Import(Export(S)) reproduces S including enumeration order.
//
// All entries are validated before anything is inserted: either the whole
// import applies or none of it does. Fails mid-transaction.
func (s *Store) Import(exported *ExportedGraph) error {
	if exported == nil {
		return ErrInvalidData
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}
	if s.snapshot != nil {
		return ErrTransactionActive
	}

	// Validate first so the replace is all-or-nothing.
	seenNodes := make(map[NodeID]struct{}, len(exported.Nodes))
	for _, node := range exported.Nodes {
		if node == nil || node.ID == "" || node.Label == "" {
			return fmt.Errorf("import: node: %w", ErrInvalidData)
		}
		if _, dup := seenNodes[node.ID]; dup {
			return fmt.Errorf("import: node %q: %w", node.ID, ErrDuplicateID)
		}
		seenNodes[node.ID] = struct{}{}
	}
	seenEdges := make(map[EdgeID]struct{}, len(exported.Edges))
	for _, edge := range exported.Edges {
		if edge == nil || edge.ID == "" || edge.Type == "" {
			return fmt.Errorf("import: edge: %w", ErrInvalidData)
		}
		if _, dup := seenEdges[edge.ID]; dup {
			return fmt.Errorf("import: edge %q: %w", edge.ID, ErrDuplicateID)
		}
		seenEdges[edge.ID] = struct{}{}
		if _, ok := seenNodes[edge.From]; !ok {
			return fmt.Errorf("import: edge %q: from %q: %w", edge.ID, edge.From, ErrEndpointMissing)
		}
		if _, ok := seenNodes[edge.To]; !ok {
			return fmt.Errorf("import: edge %q: to %q: %w", edge.ID, edge.To, ErrEndpointMissing)
		}
	}

	s.nodes = make(map[NodeID]*Node, len(exported.Nodes))
	s.edges = make(map[EdgeID]*Edge, len(exported.Edges))
	s.nodeOrder = nil
	s.edgeOrder = nil
	s.nodesByLabel = make(map[string][]NodeID)
	s.edgesByType = make(map[string][]EdgeID)
	s.outgoing = make(map[NodeID][]EdgeID)
	s.incoming = make(map[NodeID][]EdgeID)
	s.propIndexes = make(map[indexKey]*propertyIndex)

	for _, node := range exported.Nodes {
		s.createNodeLocked(node)
	}
	for _, edge := range exported.Edges {
		s.createEdgeLocked(edge)
	}
	return nil
}
