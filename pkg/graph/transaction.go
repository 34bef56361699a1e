// Package graph - snapshot transaction support.
//
// Transactions are single-level and coarse-grained: Begin eagerly snapshots
// the base containers (nodes, edges, insertion order, declared index set),
// mutations then apply in place, and Rollback swaps the snapshot back in and
// rebuilds every derived index from scratch. Commit simply discards the
// snapshot. A second Begin before Commit/Rollback fails with
// ErrTransactionActive.
//
// # ELI12 (Explain Like I'm 12)
//
// Imagine you're rearranging furniture in your room:
//
//	Begin    = take a photo of the room first
//	...      = move furniture around however you like
//	Commit   = "I like it!" - throw the photo away
//	Rollback = "Nope" - put everything back exactly as in the photo
//
// Because the photo was taken up front, putting things back is simple and
// always lands on a consistent room.
package graph

// snapshot holds the pre-transaction state of the base containers.
// Derived indices are not snapshotted; they are rebuilt on rollback.
type snapshot struct {
	nodes     map[NodeID]*Node
	edges     map[EdgeID]*Edge
	nodeOrder []NodeID
	edgeOrder []EdgeID
	declared  []indexKey
}

// Begin starts a transaction by snapshotting the current store state.
//
// Returns ErrTransactionActive if a transaction is already in progress;
// transactions do not nest.
func (s *Store) Begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}
	if s.snapshot != nil {
		return ErrTransactionActive
	}

	snap := &snapshot{
		nodes:     make(map[NodeID]*Node, len(s.nodes)),
		edges:     make(map[EdgeID]*Edge, len(s.edges)),
		nodeOrder: make([]NodeID, len(s.nodeOrder)),
		edgeOrder: make([]EdgeID, len(s.edgeOrder)),
		declared:  make([]indexKey, 0, len(s.propIndexes)),
	}
	for id, node := range s.nodes {
		snap.nodes[id] = CopyNode(node)
	}
	for id, edge := range s.edges {
		snap.edges[id] = CopyEdge(edge)
	}
	copy(snap.nodeOrder, s.nodeOrder)
	copy(snap.edgeOrder, s.edgeOrder)
	for key := range s.propIndexes {
		snap.declared = append(snap.declared, key)
	}

	s.snapshot = snap
	return nil
}

// Commit ends the active transaction, keeping all mutations applied since
// Begin. Returns ErrNoTransaction if none is active.
func (s *Store) Commit() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}
	if s.snapshot == nil {
		return ErrNoTransaction
	}
	s.snapshot = nil
	return nil
}

// Rollback ends the active transaction and restores the store to its state
// at Begin. The base containers are replaced wholesale from the snapshot and
// every derived index (label, edge type, adjacency, declared property
// indices) is rebuilt from scratch.
//
// Returns ErrNoTransaction if none is active.
func (s *Store) Rollback() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}
	if s.snapshot == nil {
		return ErrNoTransaction
	}

	snap := s.snapshot
	s.nodes = snap.nodes
	s.edges = snap.edges
	s.nodeOrder = snap.nodeOrder
	s.edgeOrder = snap.edgeOrder
	s.rebuildIndexesLocked(snap.declared)
	s.snapshot = nil
	return nil
}

// InTransaction reports whether a transaction is currently active.
func (s *Store) InTransaction() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot != nil
}
