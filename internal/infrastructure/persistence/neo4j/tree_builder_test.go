package neo4j

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"devaccountbook-backend/internal/infrastructure/graph"
	"devaccountbook-backend/internal/infrastructure/graph/mocks"
)

func node(id string) map[string]any {
	return map[string]any{"id": id, "title": "T" + id, "tags": []any{}}
}

func pathRow(ids ...string) graph.Record {
	nodes := make([]any, len(ids))
	for i, id := range ids {
		nodes[i] = node(id)
	}
	return graph.Record{"nodes": nodes}
}

func TestTreeBuilder_CypherPaths(t *testing.T) {
	session := new(mocks.MockSession)
	session.On("ExecuteRead", mock.Anything, queryContaining("[:RELATES_TO*0..5]"), map[string]any{"id": "a"}).
		Return([]graph.Record{
			pathRow("a"),
			pathRow("a", "c"),
			pathRow("a", "b"),
			pathRow("a", "b", "d"),
			pathRow("a", "c", "d"),
		}, nil)

	builder := NewTreeBuilder(session, TreeSettings{MaxDepth: 5, Traversal: TraversalCypher}, zap.NewNop())
	root, ok, err := builder.BuildTree(context.Background(), "a")

	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "a", root.ID)
	assert.Equal(t, "a", root.Key)
	require.Len(t, root.Children, 2)
	assert.Equal(t, "b", root.Children[0].ID)
	assert.Equal(t, "c", root.Children[1].ID)

	// d is reachable through both b and c and appears under each.
	require.Len(t, root.Children[0].Children, 1)
	require.Len(t, root.Children[1].Children, 1)
	assert.Equal(t, "d", root.Children[0].Children[0].ID)
	assert.Equal(t, "d", root.Children[1].Children[0].ID)
	assert.Empty(t, root.Children[0].Children[0].Children)
}

func TestTreeBuilder_LeafRoot(t *testing.T) {
	session := new(mocks.MockSession)
	session.On("ExecuteRead", mock.Anything, mock.Anything, mock.Anything).Return([]graph.Record{pathRow("solo")}, nil)

	root, ok, err := NewTreeBuilder(session, TreeSettings{MaxDepth: 3, Traversal: TraversalCypher}, zap.NewNop()).
		BuildTree(context.Background(), "solo")

	require.NoError(t, err)
	require.True(t, ok)
	assert.NotNil(t, root.Children)
	assert.Empty(t, root.Children)
}

func TestTreeBuilder_MissingRoot(t *testing.T) {
	session := new(mocks.MockSession)
	session.On("ExecuteRead", mock.Anything, mock.Anything, mock.Anything).Return([]graph.Record{}, nil)

	root, ok, err := NewTreeBuilder(session, TreeSettings{MaxDepth: 3, Traversal: TraversalCypher}, zap.NewNop()).
		BuildTree(context.Background(), "ghost")

	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, root)
}

func TestTreeBuilder_APOC(t *testing.T) {
	session := new(mocks.MockSession)
	session.On("ExecuteRead", mock.Anything, queryContaining("apoc.paths.toJsonTree"), map[string]any{"id": "a"}).
		Return([]graph.Record{{"value": map[string]any{
			"id":    "a",
			"title": "A",
			"_type": "AccountEntry",
			"relates_to": []any{
				map[string]any{"id": "b", "title": "B", "relates_to._id": int64(7)},
			},
		}}}, nil)

	root, ok, err := NewTreeBuilder(session, TreeSettings{MaxDepth: 2, Traversal: TraversalAPOC}, zap.NewNop()).
		BuildTree(context.Background(), "a")

	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "AccountEntry", root.Props["_type"])
	require.Len(t, root.Children, 1)
	assert.Equal(t, int64(7), root.Children[0].Props["relates_to._id"])
}

func TestTreeBuilder_APOCEmptyValueIsAbsent(t *testing.T) {
	session := new(mocks.MockSession)
	session.On("ExecuteRead", mock.Anything, mock.Anything, mock.Anything).
		Return([]graph.Record{{"value": map[string]any{}}}, nil)

	_, ok, err := NewTreeBuilder(session, TreeSettings{MaxDepth: 2, Traversal: TraversalAPOC}, zap.NewNop()).
		BuildTree(context.Background(), "ghost")

	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTreeSettings_Validate(t *testing.T) {
	assert.NoError(t, TreeSettings{MaxDepth: 1, Traversal: TraversalCypher}.Validate())
	assert.NoError(t, TreeSettings{MaxDepth: MaxTreeDepth, Traversal: TraversalAPOC}.Validate())
	assert.Error(t, TreeSettings{MaxDepth: 0, Traversal: TraversalCypher}.Validate())
	assert.Error(t, TreeSettings{MaxDepth: 11, Traversal: TraversalCypher}.Validate())
	assert.Error(t, TreeSettings{MaxDepth: 3, Traversal: "gremlin"}.Validate())
}

func TestNewTreeBuilder_FallsBackToDefaults(t *testing.T) {
	b := NewTreeBuilder(new(mocks.MockSession), TreeSettings{MaxDepth: 50}, zap.NewNop())

	assert.Equal(t, DefaultTreeDepth, b.settings.MaxDepth)
	assert.Contains(t, b.query(treePathsQuery), "*0..5]")
}
