package edgeset

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToggleCancelsReversedEdges(t *testing.T) {
	s := New(8)

	// Two triangles (0,1,2) and (2,1,3) sharing edge 1-2 with opposite winding.
	for _, e := range []Edge{{0, 1}, {1, 2}, {2, 0}, {2, 1}, {1, 3}, {3, 2}} {
		s.Toggle(e)
	}

	assert.Equal(t, []Edge{{0, 1}, {2, 0}, {1, 3}, {3, 2}}, s.Edges())
	assert.False(t, s.Contains(Edge{1, 2}))
	assert.False(t, s.Contains(Edge{2, 1}))
}

func TestToggleSameDirectionIsIdempotent(t *testing.T) {
	s := New(2)
	s.Toggle(Edge{4, 5})
	s.Toggle(Edge{4, 5})

	assert.Equal(t, 1, s.Len())
}

func TestAddRemove(t *testing.T) {
	s := New(0)

	assert.True(t, s.Add(Edge{1, 2}))
	assert.False(t, s.Add(Edge{1, 2}))
	assert.True(t, s.Add(Edge{2, 1}))
	assert.Equal(t, 2, s.Len())

	assert.True(t, s.Remove(Edge{1, 2}))
	assert.False(t, s.Remove(Edge{1, 2}))
	assert.Equal(t, []Edge{{2, 1}}, s.Edges())

	s.Reset()
	assert.Equal(t, 0, s.Len())
	assert.False(t, s.Contains(Edge{2, 1}))
}

func TestUndirected(t *testing.T) {
	assert.Equal(t, Edge{1, 7}, Edge{7, 1}.Undirected())
	assert.Equal(t, Edge{1, 7}, Edge{1, 7}.Undirected())
	assert.Equal(t, Edge{7, 1}, Edge{1, 7}.Reversed())
}
