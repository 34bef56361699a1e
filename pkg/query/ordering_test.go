package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderByAscDesc(t *testing.T) {
	store := seedSocialGraph(t)

	records := execute(t, store, NewQuery().Match("user").As("u").
		OrderBy(Asc("u", "age")).Select("u"))
	assert.Equal(t, []string{"u2", "u1", "u3"}, targetIDs(t, records, "u"))

	records = execute(t, store, NewQuery().Match("user").As("u").
		OrderBy(Desc("u", "name")).Select("u"))
	assert.Equal(t, []string{"u3", "u2", "u1"}, targetIDs(t, records, "u"))
}

func TestOrderByNullsSortFirst(t *testing.T) {
	store := newTestStore(t)
	addNode(t, store, "a", "item", map[string]any{"rank": int64(2)})
	addNode(t, store, "b", "item", nil)
	addNode(t, store, "c", "item", map[string]any{"rank": int64(1)})

	records := execute(t, store, NewQuery().Match("item").As("i").
		OrderBy(Asc("i", "rank")).Select("i"))
	assert.Equal(t, []string{"b", "c", "a"}, targetIDs(t, records, "i"))
}

func TestOrderByIsStable(t *testing.T) {
	store := newTestStore(t)
	addNode(t, store, "a", "item", map[string]any{"group": "x", "seq": int64(1)})
	addNode(t, store, "b", "item", map[string]any{"group": "x", "seq": int64(2)})
	addNode(t, store, "c", "item", map[string]any{"group": "x", "seq": int64(3)})

	// All rows compare equal on the key: pre-existing order is preserved.
	records := execute(t, store, NewQuery().Match("item").As("i").
		OrderBy(Asc("i", "group")).Select("i"))
	assert.Equal(t, []string{"a", "b", "c"}, targetIDs(t, records, "i"))
}

func TestOrderByMultipleKeys(t *testing.T) {
	store := newTestStore(t)
	addNode(t, store, "a", "item", map[string]any{"cat": "z", "rank": int64(1)})
	addNode(t, store, "b", "item", map[string]any{"cat": "a", "rank": int64(9)})
	addNode(t, store, "c", "item", map[string]any{"cat": "a", "rank": int64(3)})

	records := execute(t, store, NewQuery().Match("item").As("i").
		OrderBy(Asc("i", "cat"), Desc("i", "rank")).Select("i"))
	assert.Equal(t, []string{"b", "c", "a"}, targetIDs(t, records, "i"))
}

func TestOrderByMixedTypesFallsBackToStrings(t *testing.T) {
	store := newTestStore(t)
	addNode(t, store, "a", "item", map[string]any{"v": "10"})
	addNode(t, store, "b", "item", map[string]any{"v": int64(2)})

	// No panic, deterministic result via stringified compare.
	records := execute(t, store, NewQuery().Match("item").As("i").
		OrderBy(Asc("i", "v")).Select("i"))
	assert.Len(t, records, 2)
}

func TestLimitSkipWindow(t *testing.T) {
	store := newTestStore(t)
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		addNode(t, store, id, "item", nil)
	}

	// limit(n+k) then skip(n) yields exactly the k rows at [n, n+k).
	records := execute(t, store, NewQuery().Match("item").As("i").
		Limit(4).Skip(2).Select("i"))
	assert.Equal(t, []string{"c", "d"}, targetIDs(t, records, "i"))

	records = execute(t, store, NewQuery().Match("item").As("i").
		Skip(10).Select("i"))
	assert.Empty(t, records)

	records = execute(t, store, NewQuery().Match("item").As("i").
		Limit(0).Select("i"))
	assert.Empty(t, records)
}

func TestDistinctDeduplicatesByBoundNodes(t *testing.T) {
	store := newTestStore(t)
	addNode(t, store, "u1", "user", nil)
	addNode(t, store, "p1", "post", nil)
	addNode(t, store, "p2", "post", nil)
	addEdge(t, store, "e1", "u1", "p1", "liked", nil)
	addEdge(t, store, "e2", "u1", "p1", "shared", nil)
	addEdge(t, store, "e3", "u1", "p2", "liked", nil)

	// Two distinct edges reach p1: without distinct, two identical rows.
	base := NewQuery().MatchByID("u1").As("u").
		Traverse(TraversalSpec{Direction: DirOut}).As("p")

	records := execute(t, store, base.Select("p"))
	require.Len(t, records, 3)

	records = execute(t, store, base.Distinct().Select("p"))
	assert.Equal(t, []string{"p1", "p2"}, targetIDs(t, records, "p"))
}

func TestOrderByComputedAggregationAlias(t *testing.T) {
	store := newTestStore(t)
	addNode(t, store, "p1", "post", map[string]any{"status": "draft"})
	addNode(t, store, "p2", "post", map[string]any{"status": "published"})
	addNode(t, store, "p3", "post", map[string]any{"status": "published"})

	records := execute(t, store, NewQuery().Match("post").As("p").
		Aggregate(
			[]GroupField{{Alias: "p", Field: "status"}},
			Aggregation{Fn: AggCount, As: "c"},
		).
		OrderBy(DescComputed("c")))

	require.Len(t, records, 2)
	// Computed keys resolve against the row's computed values, never as
	// node properties.
	assert.Equal(t, "published", records[0]["status"])
	assert.Equal(t, "draft", records[1]["status"])
}
