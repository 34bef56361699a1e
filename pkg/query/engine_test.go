package query

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orneryd/yggdrasil/pkg/graph"
)

func newTestStore(t *testing.T) *graph.Store {
	t.Helper()
	store := graph.NewStore()
	t.Cleanup(func() { store.Close() })
	return store
}

func addNode(t *testing.T, store *graph.Store, id, label string, props map[string]any) {
	t.Helper()
	require.NoError(t, store.CreateNode(&graph.Node{
		ID: graph.NodeID(id), Label: label, Properties: props,
	}))
}

func addEdge(t *testing.T, store *graph.Store, id, from, to, edgeType string, props map[string]any) {
	t.Helper()
	require.NoError(t, store.CreateEdge(&graph.Edge{
		ID: graph.EdgeID(id), From: graph.NodeID(from), To: graph.NodeID(to),
		Type: edgeType, Properties: props,
	}))
}

// seedSocialGraph builds the fixture most engine tests share: three users,
// two posts, authorship and likes.
func seedSocialGraph(t *testing.T) *graph.Store {
	t.Helper()
	store := newTestStore(t)
	addNode(t, store, "u1", "user", map[string]any{"name": "Alice", "age": int64(30), "verified": true})
	addNode(t, store, "u2", "user", map[string]any{"name": "Bob", "age": int64(22)})
	addNode(t, store, "u3", "user", map[string]any{"name": "Carol", "age": int64(41), "verified": false})
	addNode(t, store, "p1", "post", map[string]any{"title": "Hello", "status": "published"})
	addNode(t, store, "p2", "post", map[string]any{"title": "Drafting", "status": "draft"})
	addEdge(t, store, "a1", "u1", "p1", "authored", nil)
	addEdge(t, store, "a2", "u3", "p2", "authored", nil)
	addEdge(t, store, "l1", "u2", "p1", "liked", nil)
	return store
}

func execute(t *testing.T, store *graph.Store, q *Query) []Record {
	t.Helper()
	records, err := NewEngine(store).Execute(context.Background(), q)
	require.NoError(t, err)
	return records
}

func TestBasicMatchCollection(t *testing.T) {
	store := newTestStore(t)
	addNode(t, store, "u1", "user", map[string]any{"name": "A"})
	addNode(t, store, "u2", "user", map[string]any{"name": "B"})

	records := execute(t, store, NewQuery().Match("user").As("u"))

	// One record per node, insertion order.
	require.Len(t, records, 2)
	first := records[0]["u"].(map[string]any)
	second := records[1]["u"].(map[string]any)
	assert.Equal(t, "u1", first["id"])
	assert.Equal(t, "A", first["name"])
	assert.Equal(t, "u2", second["id"])
	assert.Equal(t, "B", second["name"])
}

func TestMatchWithoutUserAliasProjectsInternalAlias(t *testing.T) {
	store := newTestStore(t)
	addNode(t, store, "u1", "user", nil)

	records := execute(t, store, NewQuery().Match("user"))
	require.Len(t, records, 1)
	node := records[0]["n0"].(map[string]any)
	assert.Equal(t, "u1", node["id"])
}

func TestOneHopTraversal(t *testing.T) {
	store := seedSocialGraph(t)

	records := execute(t, store, NewQuery().
		MatchByID("u1").As("u").
		Out("authored", "post").As("p").
		Select("p"))

	require.Len(t, records, 1)
	post := records[0]["p"].(map[string]any)
	assert.Equal(t, "p1", post["id"])
	assert.Equal(t, "Hello", post["title"])
}

func TestMatchByIDMissingNodeEmptiesResult(t *testing.T) {
	store := seedSocialGraph(t)
	records := execute(t, store, NewQuery().MatchByID("nope").As("u"))
	assert.Empty(t, records)
}

func TestTraversalDirections(t *testing.T) {
	store := seedSocialGraph(t)

	// Incoming: who authored p1.
	records := execute(t, store, NewQuery().
		MatchByID("p1").As("p").In("authored", "user").As("author").Select("author"))
	require.Len(t, records, 1)
	assert.Equal(t, "u1", records[0]["author"].(map[string]any)["id"])

	// Both directions from p1 over any matching type.
	records = execute(t, store, NewQuery().
		MatchByID("p1").As("p").
		Traverse(TraversalSpec{Direction: DirBoth}).As("peer").
		Select("peer"))
	require.Len(t, records, 2)
	ids := []string{
		records[0]["peer"].(map[string]any)["id"].(string),
		records[1]["peer"].(map[string]any)["id"].(string),
	}
	assert.ElementsMatch(t, []string{"u1", "u2"}, ids)
}

func TestOptionalTraversalBindsNull(t *testing.T) {
	store := newTestStore(t)
	addNode(t, store, "m4", "msg", nil)

	records := execute(t, store, NewQuery().
		MatchByID("m4").As("m").
		OutOptional("replyTo").As("replyTo").
		Select("replyTo"))

	require.Len(t, records, 1, "optional traversal emits exactly one row on no match")
	assert.Nil(t, records[0]["replyTo"])
}

func TestNonOptionalTraversalDropsRow(t *testing.T) {
	store := newTestStore(t)
	addNode(t, store, "m4", "msg", nil)

	records := execute(t, store, NewQuery().
		MatchByID("m4").As("m").
		Out("replyTo").As("r").
		Select("r"))
	assert.Empty(t, records)
}

func TestTraversalLabelFilter(t *testing.T) {
	store := seedSocialGraph(t)

	records := execute(t, store, NewQuery().
		MatchByID("u1").As("u").
		Out("authored", "comment").As("c").
		Select("c"))
	assert.Empty(t, records, "to-labels filter excludes non-matching targets")
}

func TestEdgeCaptureProjection(t *testing.T) {
	store := newTestStore(t)
	addNode(t, store, "u1", "user", nil)
	addNode(t, store, "p1", "post", nil)
	addEdge(t, store, "r1", "u1", "p1", "rated", map[string]any{"stars": int64(5)})

	records := execute(t, store, NewQuery().
		MatchByID("u1").As("u").
		Traverse(TraversalSpec{EdgeTypes: []string{"rated"}, Direction: DirOut, CaptureEdge: true}).
		As("rating").As("p").
		Select("p", "rating"))

	require.Len(t, records, 1)
	rating := records[0]["rating"].(map[string]any)
	assert.Equal(t, "r1", rating["id"])
	assert.Equal(t, "rated", rating["type"])
	assert.Equal(t, "u1", rating["fromId"])
	assert.Equal(t, "p1", rating["toId"])
	assert.Equal(t, int64(5), rating["stars"])
}

func TestWhereComparisonOperators(t *testing.T) {
	store := seedSocialGraph(t)

	tests := []struct {
		name string
		cond Condition
		want []string
	}{
		{name: "eq", cond: Eq("u", "name", "Alice"), want: []string{"u1"}},
		{name: "eq on id", cond: Eq("u", "id", "u2"), want: []string{"u2"}},
		{name: "neq", cond: Neq("u", "name", "Alice"), want: []string{"u2", "u3"}},
		{name: "gt", cond: Gt("u", "age", int64(25)), want: []string{"u1", "u3"}},
		{name: "gte", cond: Gte("u", "age", int64(30)), want: []string{"u1", "u3"}},
		{name: "lt", cond: Lt("u", "age", 30), want: []string{"u2"}},
		{name: "lte", cond: Lte("u", "age", 30.0), want: []string{"u1", "u2"}},
		{name: "gt non-numeric is false", cond: Gt("u", "name", 10), want: nil},
		{name: "in", cond: In("u", "name", []any{"Bob", "Carol"}), want: []string{"u2", "u3"}},
		{name: "notIn", cond: NotIn("u", "name", []any{"Bob", "Carol"}), want: []string{"u1"}},
		{name: "contains", cond: Contains("u", "name", "aro"), want: []string{"u3"}},
		{name: "startsWith", cond: StartsWith("u", "name", "Al"), want: []string{"u1"}},
		{name: "endsWith", cond: EndsWith("u", "name", "ob"), want: []string{"u2"}},
		{name: "isNull", cond: IsNull("u", "verified"), want: []string{"u2"}},
		{name: "isNotNull", cond: IsNotNull("u", "verified"), want: []string{"u1", "u3"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := execute(t, store, NewQuery().Match("user").As("u").
				Where(tt.cond).SelectFields("u", "id").Select("u"))
			var ids []string
			for _, record := range records {
				ids = append(ids, record["u"].(map[string]any)["id"].(string))
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestWhereLogicalConditions(t *testing.T) {
	store := seedSocialGraph(t)

	records := execute(t, store, NewQuery().Match("user").As("u").
		Where(Or(Eq("u", "name", "Alice"), Eq("u", "name", "Bob"))).
		Select("u"))
	assert.Len(t, records, 2)

	// NOT is the negation of the conjunction of its children.
	records = execute(t, store, NewQuery().Match("user").As("u").
		Where(Not(Eq("u", "name", "Alice"), Gt("u", "age", 25))).
		Select("u"))
	require.Len(t, records, 2)
	assert.Equal(t, "u2", records[0]["u"].(map[string]any)["id"])
	assert.Equal(t, "u3", records[1]["u"].(map[string]any)["id"])
}

func TestWhereExistsAndConnected(t *testing.T) {
	store := seedSocialGraph(t)

	// Users with at least one outgoing "authored" edge.
	records := execute(t, store, NewQuery().Match("user").As("u").
		Where(HasEdgeOf("u", "authored", DirOut)).Select("u"))
	require.Len(t, records, 2)

	// Negated form.
	records = execute(t, store, NewQuery().Match("user").As("u").
		Where(HasNoEdgeOf("u", "authored", DirOut)).Select("u"))
	require.Len(t, records, 1)
	assert.Equal(t, "u2", records[0]["u"].(map[string]any)["id"])

	// Connected to a specific peer.
	records = execute(t, store, NewQuery().Match("user").As("u").
		Where(ConnectedTo("u", "liked", DirOut, "p1")).Select("u"))
	require.Len(t, records, 1)
	assert.Equal(t, "u2", records[0]["u"].(map[string]any)["id"])
}

func TestCountExistsSingleHelpers(t *testing.T) {
	store := seedSocialGraph(t)
	engine := NewEngine(store)
	ctx := context.Background()

	count, err := engine.Count(ctx, NewQuery().Match("user").As("u"))
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	exists, err := engine.Exists(ctx, NewQuery().Match("user").As("u").
		Where(Eq("u", "name", "Alice")))
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = engine.Exists(ctx, NewQuery().Match("user").As("u").
		Where(Eq("u", "name", "Zed")))
	require.NoError(t, err)
	assert.False(t, exists)

	record, err := engine.Single(ctx, NewQuery().MatchByID("u1").As("u").Select("u"))
	require.NoError(t, err)
	assert.Equal(t, "u1", record["u"].(map[string]any)["id"])

	_, err = engine.Single(ctx, NewQuery().Match("user").As("u").Select("u"))
	assert.ErrorIs(t, err, ErrCardinality)

	_, err = engine.Single(ctx, NewQuery().MatchByID("nope").As("u").Select("u"))
	assert.ErrorIs(t, err, ErrCardinality)
}

func TestExecutionIsDeterministic(t *testing.T) {
	store := seedSocialGraph(t)
	engine := NewEngine(store)
	q := NewQuery().Match("user").As("u").
		OutOptional("authored", "post").As("p").
		Select("u", "p")

	first, err := engine.Execute(context.Background(), q)
	require.NoError(t, err)
	second, err := engine.Execute(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestExecuteRejectsUnknownAlias(t *testing.T) {
	store := seedSocialGraph(t)
	_, err := NewEngine(store).Execute(context.Background(),
		NewQuery().Match("user").Where(Eq("ghost", "x", 1)))
	assert.ErrorIs(t, err, ErrAliasNotFound)
}

func TestFieldSelectors(t *testing.T) {
	store := seedSocialGraph(t)

	records := execute(t, store, NewQuery().MatchByID("u1").As("u").
		SelectFields("u", "name").Select("u"))
	require.Len(t, records, 1)
	node := records[0]["u"].(map[string]any)
	assert.Equal(t, map[string]any{"name": "Alice"}, node)
}
