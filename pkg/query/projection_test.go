package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountProjectionShape(t *testing.T) {
	store := seedSocialGraph(t)

	records := execute(t, store, NewQuery().Match("user").As("u").CountOnly())
	require.Len(t, records, 1)
	assert.Equal(t, Record{"count": 3}, records[0])

	// Counting an empty match still yields one record.
	records = execute(t, store, NewQuery().Match("ghost").As("g").CountOnly())
	require.Len(t, records, 1)
	assert.Equal(t, Record{"count": 0}, records[0])
}

func TestExistsProjectionShape(t *testing.T) {
	store := seedSocialGraph(t)

	records := execute(t, store, NewQuery().Match("user").As("u").ExistsOnly())
	require.Len(t, records, 1)
	assert.Equal(t, Record{"exists": true}, records[0])

	records = execute(t, store, NewQuery().Match("ghost").As("g").ExistsOnly())
	require.Len(t, records, 1)
	assert.Equal(t, Record{"exists": false}, records[0])
}

func TestCollectionProjectionAttachesDepthInsideNode(t *testing.T) {
	store := seedParentChain(t)

	records := execute(t, store, NewQuery().
		MatchByID("c").As("start").
		Ancestors("hasParent", HierarchyOpts{IncludeDepth: true}).As("anc").
		WithDepth(""))

	// Collection projection: one {alias: node} record per row, with the
	// depth folded into the node object.
	require.Len(t, records, 2)
	node := records[0]["anc"].(map[string]any)
	assert.Equal(t, "b", node["id"])
	assert.Equal(t, 1, node["_depth"])
}

func TestCollectionProjectionUsesCurrentAliasWhenUnnamed(t *testing.T) {
	store := seedParentChain(t)

	records := execute(t, store, NewQuery().
		MatchByID("c").
		Parent("hasParent", HierarchyOpts{}))

	require.Len(t, records, 1)
	node, ok := records[0]["n1"].(map[string]any)
	require.True(t, ok, "unnamed projection keys by the internal alias")
	assert.Equal(t, "b", node["id"])
}

func TestCustomDepthKey(t *testing.T) {
	store := seedParentChain(t)

	records := execute(t, store, NewQuery().
		MatchByID("c").As("start").
		Ancestors("hasParent", HierarchyOpts{IncludeDepth: true, DepthAlias: "distance"}).As("anc").
		Select("anc").WithDepth("distance"))

	require.Len(t, records, 2)
	assert.Equal(t, 1, records[0]["distance"])
	assert.Equal(t, 2, records[1]["distance"])
}
