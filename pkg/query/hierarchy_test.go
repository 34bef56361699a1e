package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orneryd/yggdrasil/pkg/graph"
)

// seedParentChain builds c -> b -> a over "hasParent" edges (tree direction
// up: the edge points child -> parent).
func seedParentChain(t *testing.T) *graph.Store {
	t.Helper()
	store := newTestStore(t)
	addNode(t, store, "a", "folder", map[string]any{"name": "a"})
	addNode(t, store, "b", "folder", map[string]any{"name": "b"})
	addNode(t, store, "c", "folder", map[string]any{"name": "c"})
	addEdge(t, store, "cb", "c", "b", "hasParent", nil)
	addEdge(t, store, "ba", "b", "a", "hasParent", nil)
	return store
}

func hierarchyIDs(t *testing.T, records []Record, key string) []string {
	t.Helper()
	var ids []string
	for _, record := range records {
		ids = append(ids, record[key].(map[string]any)["id"].(string))
	}
	return ids
}

func TestAncestorsWithDepth(t *testing.T) {
	store := seedParentChain(t)

	records := execute(t, store, NewQuery().
		MatchByID("c").As("start").
		Ancestors("hasParent", HierarchyOpts{TreeDir: TreeUp, IncludeDepth: true}).As("anc").
		Select("anc").WithDepth(""))

	require.Len(t, records, 2)
	assert.Equal(t, "b", records[0]["anc"].(map[string]any)["id"])
	assert.Equal(t, 1, records[0]["_depth"])
	assert.Equal(t, "a", records[1]["anc"].(map[string]any)["id"])
	assert.Equal(t, 2, records[1]["_depth"])
}

func TestAncestorsDepthBounds(t *testing.T) {
	store := seedParentChain(t)

	records := execute(t, store, NewQuery().
		MatchByID("c").As("start").
		Ancestors("hasParent", HierarchyOpts{MinDepth: 2}).As("anc").
		Select("anc"))
	assert.Equal(t, []string{"a"}, hierarchyIDs(t, records, "anc"))

	records = execute(t, store, NewQuery().
		MatchByID("c").As("start").
		Ancestors("hasParent", HierarchyOpts{MaxDepth: 1}).As("anc").
		Select("anc"))
	assert.Equal(t, []string{"b"}, hierarchyIDs(t, records, "anc"))
}

func TestAncestorsIncludeSelf(t *testing.T) {
	store := seedParentChain(t)

	records := execute(t, store, NewQuery().
		MatchByID("c").As("start").
		Ancestors("hasParent", HierarchyOpts{IncludeSelf: true, IncludeDepth: true}).As("anc").
		Select("anc").WithDepth(""))

	require.Len(t, records, 3)
	assert.Equal(t, "c", records[0]["anc"].(map[string]any)["id"])
	assert.Equal(t, 0, records[0]["_depth"])
}

func TestParentAndChildren(t *testing.T) {
	store := seedParentChain(t)
	addNode(t, store, "c2", "folder", nil)
	addEdge(t, store, "c2b", "c2", "b", "hasParent", nil)

	records := execute(t, store, NewQuery().
		MatchByID("c").As("n").Parent("hasParent", HierarchyOpts{}).As("p").Select("p"))
	assert.Equal(t, []string{"b"}, hierarchyIDs(t, records, "p"))

	records = execute(t, store, NewQuery().
		MatchByID("b").As("n").Children("hasParent", HierarchyOpts{}).As("c").Select("c"))
	assert.ElementsMatch(t, []string{"c", "c2"}, hierarchyIDs(t, records, "c"))

	// The root has no parent: no rows.
	records = execute(t, store, NewQuery().
		MatchByID("a").As("n").Parent("hasParent", HierarchyOpts{}).As("p").Select("p"))
	assert.Empty(t, records)
}

func TestSiblings(t *testing.T) {
	store := seedParentChain(t)
	addNode(t, store, "c2", "folder", nil)
	addNode(t, store, "c3", "folder", nil)
	addEdge(t, store, "c2b", "c2", "b", "hasParent", nil)
	addEdge(t, store, "c3b", "c3", "b", "hasParent", nil)

	records := execute(t, store, NewQuery().
		MatchByID("c").As("n").Siblings("hasParent", HierarchyOpts{}).As("s").Select("s"))
	assert.ElementsMatch(t, []string{"c2", "c3"}, hierarchyIDs(t, records, "s"))

	// A node without a parent has no siblings.
	records = execute(t, store, NewQuery().
		MatchByID("a").As("n").Siblings("hasParent", HierarchyOpts{}).As("s").Select("s"))
	assert.Empty(t, records)
}

func TestRoot(t *testing.T) {
	store := seedParentChain(t)

	records := execute(t, store, NewQuery().
		MatchByID("c").As("n").
		Root("hasParent", HierarchyOpts{IncludeDepth: true}).As("r").
		Select("r").WithDepth(""))
	require.Len(t, records, 1)
	assert.Equal(t, "a", records[0]["r"].(map[string]any)["id"])
	assert.Equal(t, 2, records[0]["_depth"])

	// A root is its own root at depth 0.
	records = execute(t, store, NewQuery().
		MatchByID("a").As("n").
		Root("hasParent", HierarchyOpts{IncludeDepth: true}).As("r").
		Select("r").WithDepth(""))
	require.Len(t, records, 1)
	assert.Equal(t, "a", records[0]["r"].(map[string]any)["id"])
	assert.Equal(t, 0, records[0]["_depth"])
}

func TestDescendantsTreeDown(t *testing.T) {
	// Tree direction down: the edge points parent -> child.
	store := newTestStore(t)
	addNode(t, store, "root", "dir", nil)
	addNode(t, store, "kid1", "dir", nil)
	addNode(t, store, "kid2", "dir", nil)
	addNode(t, store, "grand", "file", nil)
	addEdge(t, store, "e1", "root", "kid1", "contains", nil)
	addEdge(t, store, "e2", "root", "kid2", "contains", nil)
	addEdge(t, store, "e3", "kid1", "grand", "contains", nil)

	records := execute(t, store, NewQuery().
		MatchByID("root").As("n").
		Descendants("contains", HierarchyOpts{TreeDir: TreeDown}).As("d").
		Select("d"))
	assert.ElementsMatch(t, []string{"kid1", "kid2", "grand"}, hierarchyIDs(t, records, "d"))
}

func TestAncestorsUntilKind(t *testing.T) {
	store := newTestStore(t)
	addNode(t, store, "leaf", "item", nil)
	addNode(t, store, "mid", "folder", nil)
	addNode(t, store, "proj", "project", nil)
	addNode(t, store, "org", "organization", nil)
	addEdge(t, store, "e1", "leaf", "mid", "hasParent", nil)
	addEdge(t, store, "e2", "mid", "proj", "hasParent", nil)
	addEdge(t, store, "e3", "proj", "org", "hasParent", nil)

	records := execute(t, store, NewQuery().
		MatchByID("leaf").As("n").
		Ancestors("hasParent", HierarchyOpts{UntilKind: "project"}).As("anc").
		Select("anc"))

	// Only the first "project" ancestor is emitted; the walk stops there.
	assert.Equal(t, []string{"proj"}, hierarchyIDs(t, records, "anc"))
}

func TestHierarchySkipsRowsWithoutSource(t *testing.T) {
	store := seedParentChain(t)

	records := execute(t, store, NewQuery().
		MatchByID("c").As("n").
		OutOptional("missing").As("gone").
		Select("gone"))
	require.Len(t, records, 1)
	assert.Nil(t, records[0]["gone"])

	// A hierarchy step from the unbound optional alias produces no rows.
	records = execute(t, store, NewQuery().
		MatchByID("c").As("n").
		OutOptional("missing").As("gone").
		Parent("hasParent", HierarchyOpts{}).As("p").
		Select("p"))
	assert.Empty(t, records)
}
