package neo4j

import (
	"context"
	"os"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"devaccountbook-backend/internal/domain"
	"devaccountbook-backend/internal/infrastructure/graph"
	"devaccountbook-backend/internal/repository"
)

type liveStores struct {
	entries   *EntryStore
	relations *RelationStore
	trees     *TreeBuilder
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// newLiveStores connects to NEO4J_TEST_URI and wipes every AccountEntry
// node. Point it at a throwaway database.
func newLiveStores(t *testing.T, traversal Traversal) (context.Context, *liveStores) {
	t.Helper()
	uri := os.Getenv("NEO4J_TEST_URI")
	if uri == "" {
		t.Skip("NEO4J_TEST_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)

	logger := zap.NewNop()
	driver, err := graph.NewDriver(graph.Settings{
		URI:      uri,
		Username: envOr("NEO4J_TEST_USER", "neo4j"),
		Password: os.Getenv("NEO4J_TEST_PASSWORD"),
		Database: envOr("NEO4J_TEST_DATABASE", "neo4j"),
	}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = driver.Close(context.Background()) })
	require.NoError(t, driver.VerifyConnectivity(ctx))

	session := driver.NewSession(ctx)
	t.Cleanup(func() { _ = session.Close(context.Background()) })

	_, err = session.ExecuteWrite(ctx, "MATCH (n:AccountEntry) DETACH DELETE n", nil)
	require.NoError(t, err)
	require.NoError(t, NewSchema(session, logger).EnsureConstraints(ctx))

	return ctx, &liveStores{
		entries:   NewEntryStore(session, logger),
		relations: NewRelationStore(session, logger),
		trees:     NewTreeBuilder(session, TreeSettings{MaxDepth: DefaultTreeDepth, Traversal: traversal}, logger),
	}
}

func (s *liveStores) mustCreate(ctx context.Context, t *testing.T, title string) string {
	t.Helper()
	id, err := s.entries.Create(ctx, title, nil, []string{})
	require.NoError(t, err)
	return id
}

func TestLive_CreateThenGet(t *testing.T) {
	ctx, s := newLiveStores(t, TraversalCypher)
	desc := "paid by card"

	id, err := s.entries.Create(ctx, "Coffee", &desc, []string{"food", "daily"})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	got, ok, err := s.entries.Get(ctx, id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Coffee", got.Title)
	require.NotNil(t, got.Desc)
	assert.Equal(t, desc, *got.Desc)
	assert.Equal(t, []string{"food", "daily"}, got.Tags)
	assert.False(t, got.CreatedAt.IsZero())
	assert.Nil(t, got.UpdatedAt)
}

func TestLive_ListPartitions(t *testing.T) {
	ctx, s := newLiveStores(t, TraversalCypher)

	created := map[string]bool{}
	for _, title := range []string{"a", "b", "c", "d", "e"} {
		created[s.mustCreate(ctx, t, title)] = true
	}

	first, err := s.entries.List(ctx, repository.Pagination{Limit: 3, Offset: 0})
	require.NoError(t, err)
	second, err := s.entries.List(ctx, repository.Pagination{Limit: 3, Offset: 3})
	require.NoError(t, err)

	assert.Len(t, first, 3)
	assert.Len(t, second, 2)

	seen := map[string]bool{}
	for _, e := range append(first, second...) {
		assert.False(t, seen[e.ID], "entry %s listed twice", e.ID)
		seen[e.ID] = true
	}
	assert.Equal(t, created, seen)
}

func TestLive_Update(t *testing.T) {
	ctx, s := newLiveStores(t, TraversalCypher)
	id := s.mustCreate(ctx, t, "before")

	updated, err := s.entries.Update(ctx, id, domain.Patch{})
	require.NoError(t, err)
	assert.False(t, updated)

	got, _, err := s.entries.Get(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, got.UpdatedAt)

	updated, err = s.entries.Update(ctx, id, domain.Patch{"title": "after"})
	require.NoError(t, err)
	assert.True(t, updated)

	got, _, err = s.entries.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "after", got.Title)
	assert.Equal(t, []string{}, got.Tags)
	assert.NotNil(t, got.UpdatedAt)
}

func TestLive_DeleteDecrementsCount(t *testing.T) {
	ctx, s := newLiveStores(t, TraversalCypher)
	id := s.mustCreate(ctx, t, "doomed")
	s.mustCreate(ctx, t, "survivor")

	before, err := s.entries.Count(ctx)
	require.NoError(t, err)

	deleted, err := s.entries.Delete(ctx, id)
	require.NoError(t, err)
	assert.True(t, deleted)

	_, ok, err := s.entries.Get(ctx, id)
	require.NoError(t, err)
	assert.False(t, ok)

	after, err := s.entries.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, before-1, after)
}

func TestLive_RelationUpsertAndDelete(t *testing.T) {
	ctx, s := newLiveStores(t, TraversalCypher)
	a := s.mustCreate(ctx, t, "a")
	b := s.mustCreate(ctx, t, "b")

	_, err := s.relations.Create(ctx, a, b, domain.KindRelatesTo, domain.Props{"note": "first"})
	require.NoError(t, err)

	rels, err := s.relations.List(ctx, a)
	require.NoError(t, err)
	require.Len(t, rels.Outgoing, 1)
	createdAt := rels.Outgoing[0].Props[domain.PropCreatedAt]
	require.NotNil(t, createdAt)

	_, err = s.relations.Create(ctx, a, b, domain.KindRelatesTo, domain.Props{"note": "second"})
	require.NoError(t, err)

	rels, err = s.relations.List(ctx, a)
	require.NoError(t, err)
	require.Len(t, rels.Outgoing, 1)
	assert.Equal(t, "second", rels.Outgoing[0].Props["note"])
	assert.Equal(t, createdAt, rels.Outgoing[0].Props[domain.PropCreatedAt])
	assert.NotNil(t, rels.Outgoing[0].Props[domain.PropUpdatedAt])

	n, err := s.relations.Delete(ctx, a, b, domain.KindBlocks)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = s.relations.Delete(ctx, a, b, domain.KindRelatesTo)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, int64(1))

	rels, err = s.relations.List(ctx, a)
	require.NoError(t, err)
	assert.Empty(t, rels.Outgoing)
	rels, err = s.relations.List(ctx, b)
	require.NoError(t, err)
	assert.Empty(t, rels.Incoming)
}

func TestLive_TreeScenario(t *testing.T) {
	for _, traversal := range []Traversal{TraversalCypher, TraversalAPOC} {
		t.Run(string(traversal), func(t *testing.T) {
			if traversal == TraversalAPOC && os.Getenv("NEO4J_TEST_APOC") == "" {
				t.Skip("NEO4J_TEST_APOC not set")
			}
			ctx, s := newLiveStores(t, traversal)
			a := s.mustCreate(ctx, t, "A")
			b := s.mustCreate(ctx, t, "B")
			c := s.mustCreate(ctx, t, "C")

			for _, to := range []string{b, c} {
				_, err := s.relations.Create(ctx, a, to, domain.KindRelatesTo, nil)
				require.NoError(t, err)
			}

			rels, err := s.relations.List(ctx, a)
			require.NoError(t, err)
			want := []string{b, c}
			sort.Strings(want)
			require.Len(t, rels.Outgoing, 2)
			assert.Equal(t, want, []string{rels.Outgoing[0].ToID, rels.Outgoing[1].ToID})

			root, ok, err := s.trees.BuildTree(ctx, a)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, a, root.ID)
			require.Len(t, root.Children, 2)

			childIDs := []string{}
			for _, child := range root.Children {
				childIDs = append(childIDs, child.ID)
				assert.Empty(t, child.Children)
			}
			assert.ElementsMatch(t, want, childIDs)

			leaf, ok, err := s.trees.BuildTree(ctx, b)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Empty(t, leaf.Children)

			_, ok, err = s.trees.BuildTree(ctx, "no-such-entry")
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}
