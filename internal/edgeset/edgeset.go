// Package edgeset provides a small ordered set of directed index edges.
//
// It is used for horizon extraction during polytope expansion and for edge
// deduplication while building hull topology. Iteration order is insertion
// order, so results built from a Set are deterministic.
package edgeset

// Edge is a directed edge between two vertex indices.
type Edge struct {
	A, B int
}

// Reversed returns the edge with its endpoints swapped.
func (e Edge) Reversed() Edge {
	return Edge{A: e.B, B: e.A}
}

// Undirected returns the edge with the smallest index first.
func (e Edge) Undirected() Edge {
	if e.B < e.A {
		return e.Reversed()
	}
	return e
}

// Set is an insertion-ordered set of edges.
type Set struct {
	edges []Edge
	index map[Edge]struct{}
}

// New returns an empty set with room for capacity edges.
func New(capacity int) *Set {
	return &Set{
		edges: make([]Edge, 0, capacity),
		index: make(map[Edge]struct{}, capacity),
	}
}

// Len returns the number of edges in the set.
func (s *Set) Len() int {
	return len(s.edges)
}

// Contains reports whether the directed edge is present.
func (s *Set) Contains(e Edge) bool {
	_, ok := s.index[e]
	return ok
}

// Add inserts e and reports whether it was not already present.
func (s *Set) Add(e Edge) bool {
	if s.Contains(e) {
		return false
	}
	s.index[e] = struct{}{}
	s.edges = append(s.edges, e)
	return true
}

// Remove deletes e and reports whether it was present.
func (s *Set) Remove(e Edge) bool {
	if !s.Contains(e) {
		return false
	}
	delete(s.index, e)
	for i, edge := range s.edges {
		if edge == e {
			s.edges = append(s.edges[:i], s.edges[i+1:]...)
			break
		}
	}
	return true
}

// Toggle adds e unless its reverse is already present, in which case both
// cancel out and the reverse is removed. Two faces sharing an edge with
// consistent winding traverse it in opposite directions, so after toggling
// every edge of a set of faces only their boundary remains.
func (s *Set) Toggle(e Edge) {
	if s.Remove(e.Reversed()) {
		return
	}
	s.Add(e)
}

// Edges returns the edges in insertion order. The slice is owned by the set
// and is only valid until the next mutation.
func (s *Set) Edges() []Edge {
	return s.edges
}

// Reset empties the set, keeping its storage.
func (s *Set) Reset() {
	s.edges = s.edges[:0]
	clear(s.index)
}
