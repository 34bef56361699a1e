package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupedCount(t *testing.T) {
	store := newTestStore(t)
	addNode(t, store, "p1", "post", map[string]any{"status": "draft"})
	addNode(t, store, "p2", "post", map[string]any{"status": "published"})
	addNode(t, store, "p3", "post", map[string]any{"status": "published"})

	records := execute(t, store, NewQuery().Match("post").As("p").
		Aggregate(
			[]GroupField{{Alias: "p", Field: "status"}},
			Aggregation{Fn: AggCount, As: "c"},
		))

	require.Len(t, records, 2)
	assert.Equal(t, Record{"status": "draft", "c": 1}, records[0])
	assert.Equal(t, Record{"status": "published", "c": 2}, records[1])
}

func TestUngroupedAggregations(t *testing.T) {
	store := newTestStore(t)
	addNode(t, store, "p1", "post", map[string]any{"views": int64(10)})
	addNode(t, store, "p2", "post", map[string]any{"views": int64(30)})
	addNode(t, store, "p3", "post", map[string]any{"views": "broken"}) // ignored by numeric aggs

	records := execute(t, store, NewQuery().Match("post").As("p").
		Aggregate(nil,
			Aggregation{Fn: AggCount, As: "total"},
			Aggregation{Fn: AggSum, Source: "p", Field: "views", As: "sum"},
			Aggregation{Fn: AggAvg, Source: "p", Field: "views", As: "avg"},
			Aggregation{Fn: AggMin, Source: "p", Field: "views", As: "min"},
			Aggregation{Fn: AggMax, Source: "p", Field: "views", As: "max"},
		))

	require.Len(t, records, 1)
	record := records[0]
	assert.Equal(t, 3, record["total"])
	assert.Equal(t, float64(40), record["sum"])
	assert.Equal(t, float64(20), record["avg"])
	assert.Equal(t, float64(10), record["min"])
	assert.Equal(t, float64(30), record["max"])
}

func TestAvgOfNoNumericInputIsNull(t *testing.T) {
	store := newTestStore(t)
	addNode(t, store, "p1", "post", map[string]any{"views": "n/a"})

	records := execute(t, store, NewQuery().Match("post").As("p").
		Aggregate(nil, Aggregation{Fn: AggAvg, Source: "p", Field: "views", As: "avg"}))

	require.Len(t, records, 1)
	assert.Nil(t, records[0]["avg"])
}

func TestCountDistinct(t *testing.T) {
	store := newTestStore(t)
	addNode(t, store, "p1", "post", map[string]any{"author": "alice"})
	addNode(t, store, "p2", "post", map[string]any{"author": "alice"})
	addNode(t, store, "p3", "post", map[string]any{"author": "bob"})

	records := execute(t, store, NewQuery().Match("post").As("p").
		Aggregate(nil,
			Aggregation{Fn: AggCount, As: "rows"},
			Aggregation{Fn: AggCount, Distinct: true, Source: "p", Field: "author", As: "authors"},
			Aggregation{Fn: AggCount, Distinct: true, Source: "p", As: "nodes"},
		))

	require.Len(t, records, 1)
	assert.Equal(t, 3, records[0]["rows"])
	assert.Equal(t, 2, records[0]["authors"])
	assert.Equal(t, 3, records[0]["nodes"])
}

func TestCollectValuesAndNodes(t *testing.T) {
	store := newTestStore(t)
	addNode(t, store, "p1", "post", map[string]any{"tag": "go"})
	addNode(t, store, "p2", "post", map[string]any{"tag": "db"})
	addNode(t, store, "p3", "post", map[string]any{"tag": "go"})

	records := execute(t, store, NewQuery().Match("post").As("p").
		Aggregate(nil,
			Aggregation{Fn: AggCollect, Source: "p", Field: "tag", As: "tags"},
			Aggregation{Fn: AggCollect, Distinct: true, Source: "p", Field: "tag", As: "uniqueTags"},
			Aggregation{Fn: AggCollect, Source: "p", As: "posts"},
		))

	require.Len(t, records, 1)
	assert.Equal(t, []any{"go", "db", "go"}, records[0]["tags"])
	assert.Equal(t, []any{"go", "db"}, records[0]["uniqueTags"])

	posts := records[0]["posts"].([]any)
	require.Len(t, posts, 3)
	assert.Equal(t, "p1", posts[0].(map[string]any)["id"])
}

func TestGroupKeyFallsBackToNodeID(t *testing.T) {
	store := newTestStore(t)
	addNode(t, store, "p1", "post", nil)
	addNode(t, store, "p2", "post", nil)

	// The grouping field is absent everywhere: each node forms its own
	// group keyed by id.
	records := execute(t, store, NewQuery().Match("post").As("p").
		Aggregate(
			[]GroupField{{Alias: "p", Field: "missing"}},
			Aggregation{Fn: AggCount, As: "c"},
		))

	require.Len(t, records, 2)
	assert.Equal(t, 1, records[0]["c"])
	assert.Equal(t, 1, records[1]["c"])
}

func TestGroupedAggregationOverTraversal(t *testing.T) {
	store := seedSocialGraph(t)

	// Posts per author: group by the author's name, count distinct posts.
	records := execute(t, store, NewQuery().Match("user").As("u").
		Out("authored", "post").As("p").
		Aggregate(
			[]GroupField{{Alias: "u", Field: "name"}},
			Aggregation{Fn: AggCount, Source: "p", Distinct: true, As: "posts"},
		))

	require.Len(t, records, 2)
	assert.Equal(t, Record{"name": "Alice", "posts": 1}, records[0])
	assert.Equal(t, Record{"name": "Carol", "posts": 1}, records[1])
}
