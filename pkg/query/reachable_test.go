package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReachableTransitiveClosure(t *testing.T) {
	store := newTestStore(t)
	for _, id := range []string{"a", "b", "c", "d", "x"} {
		addNode(t, store, id, "svc", nil)
	}
	addEdge(t, store, "ab", "a", "b", "dependsOn", nil)
	addEdge(t, store, "bc", "b", "c", "dependsOn", nil)
	addEdge(t, store, "bd", "b", "d", "dependsOn", nil)
	addEdge(t, store, "xa", "x", "a", "dependsOn", nil)

	records := execute(t, store, NewQuery().
		MatchByID("a").As("root").
		ReachableVia(ReachableSpec{EdgeTypes: []string{"dependsOn"}, Direction: DirOut}).As("dep").
		Select("dep"))

	assert.Equal(t, []string{"b", "c", "d"}, targetIDs(t, records, "dep"))
}

func TestReachableDepthWindowAndDepthRecording(t *testing.T) {
	store := newTestStore(t)
	for _, id := range []string{"a", "b", "c", "d"} {
		addNode(t, store, id, "svc", nil)
	}
	addEdge(t, store, "ab", "a", "b", "dependsOn", nil)
	addEdge(t, store, "bc", "b", "c", "dependsOn", nil)
	addEdge(t, store, "cd", "c", "d", "dependsOn", nil)

	records := execute(t, store, NewQuery().
		MatchByID("a").As("root").
		ReachableVia(ReachableSpec{
			EdgeTypes:    []string{"dependsOn"},
			Direction:    DirOut,
			MinDepth:     2,
			MaxDepth:     3,
			IncludeDepth: true,
		}).As("dep").
		Select("dep").WithDepth(""))

	require.Len(t, records, 2)
	assert.Equal(t, "c", records[0]["dep"].(map[string]any)["id"])
	assert.Equal(t, 2, records[0]["_depth"])
	assert.Equal(t, "d", records[1]["dep"].(map[string]any)["id"])
	assert.Equal(t, 3, records[1]["_depth"])
}

func TestReachableIncludeSelf(t *testing.T) {
	store := newTestStore(t)
	addNode(t, store, "a", "svc", nil)
	addNode(t, store, "b", "svc", nil)
	addEdge(t, store, "ab", "a", "b", "dependsOn", nil)

	records := execute(t, store, NewQuery().
		MatchByID("a").As("root").
		ReachableVia(ReachableSpec{
			EdgeTypes:   []string{"dependsOn"},
			Direction:   DirOut,
			IncludeSelf: true,
		}).As("dep").
		Select("dep"))

	assert.Equal(t, []string{"a", "b"}, targetIDs(t, records, "dep"))
}

func TestReachableIncomingDirection(t *testing.T) {
	store := newTestStore(t)
	for _, id := range []string{"a", "b", "c"} {
		addNode(t, store, id, "svc", nil)
	}
	addEdge(t, store, "ba", "b", "a", "dependsOn", nil)
	addEdge(t, store, "cb", "c", "b", "dependsOn", nil)

	// Everything that transitively depends on a.
	records := execute(t, store, NewQuery().
		MatchByID("a").As("root").
		ReachableVia(ReachableSpec{EdgeTypes: []string{"dependsOn"}, Direction: DirIn}).As("dependent").
		Select("dependent"))

	assert.Equal(t, []string{"b", "c"}, targetIDs(t, records, "dependent"))
}

func TestReachableNodeUniquenessOnDiamond(t *testing.T) {
	store := newTestStore(t)
	for _, id := range []string{"a", "b", "c", "d"} {
		addNode(t, store, id, "svc", nil)
	}
	addEdge(t, store, "ab", "a", "b", "dependsOn", nil)
	addEdge(t, store, "ac", "a", "c", "dependsOn", nil)
	addEdge(t, store, "bd", "b", "d", "dependsOn", nil)
	addEdge(t, store, "cd", "c", "d", "dependsOn", nil)

	records := execute(t, store, NewQuery().
		MatchByID("a").As("root").
		ReachableVia(ReachableSpec{EdgeTypes: []string{"dependsOn"}, Direction: DirOut}).As("dep").
		Select("dep"))

	// d is reachable on two paths but emitted once under node uniqueness.
	assert.Equal(t, []string{"b", "d", "c"}, targetIDs(t, records, "dep"))
}
