package neo4j

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"devaccountbook-backend/internal/domain"
	"devaccountbook-backend/internal/infrastructure/graph"
	"devaccountbook-backend/internal/repository"
	"devaccountbook-backend/internal/tree"
	"devaccountbook-backend/pkg/errors"
)

// Both queries take the relationship label and a depth literal.
const (
	treePathsQuery = `
MATCH p = (root:AccountEntry {id: $id})-[:%s*0..%d]->(:AccountEntry)
RETURN [n IN nodes(p) | n {.*}] AS nodes`

	treeAPOCQuery = `
MATCH p = (root:AccountEntry {id: $id})-[:%s*0..%d]->(:AccountEntry)
WITH collect(p) AS paths
CALL apoc.paths.toJsonTree(paths) YIELD value
RETURN value`
)

// TreeSettings controls tree traversal.
type TreeSettings struct {
	MaxDepth  int
	Traversal Traversal
}

// Validate checks the depth bound and the traversal mode.
func (s TreeSettings) Validate() error {
	if s.MaxDepth < 1 || s.MaxDepth > MaxTreeDepth {
		return fmt.Errorf("tree depth must be between 1 and %d, got %d", MaxTreeDepth, s.MaxDepth)
	}
	switch s.Traversal {
	case TraversalCypher, TraversalAPOC:
		return nil
	default:
		return fmt.Errorf("unknown tree traversal %q", s.Traversal)
	}
}

// TreeBuilder implements repository.TreeRepository.
type TreeBuilder struct {
	session  graph.Session
	settings TreeSettings
	folder   *tree.Folder
	logger   *zap.Logger
}

// NewTreeBuilder creates a TreeBuilder. Invalid settings fall back to the
// defaults.
func NewTreeBuilder(session graph.Session, settings TreeSettings, logger *zap.Logger) *TreeBuilder {
	if err := settings.Validate(); err != nil {
		logger.Warn("Invalid tree settings, using defaults", zap.Error(err))
		settings = TreeSettings{MaxDepth: DefaultTreeDepth, Traversal: TraversalCypher}
	}
	return &TreeBuilder{
		session:  session,
		settings: settings,
		folder:   tree.NewFolder(),
		logger:   logger,
	}
}

var _ repository.TreeRepository = (*TreeBuilder)(nil)

func (b *TreeBuilder) BuildTree(ctx context.Context, rootID string) (*domain.TreeNode, bool, error) {
	ctx = graph.WithOperation(ctx, "tree.build")

	var raw map[string]any
	var err error
	switch b.settings.Traversal {
	case TraversalAPOC:
		raw, err = b.apocRecord(ctx, rootID)
	default:
		raw, err = b.pathRecord(ctx, rootID)
	}
	if err != nil {
		return nil, false, err
	}
	if raw == nil {
		return nil, false, nil
	}

	node, err := b.folder.Fold(tree.FromAny(raw))
	if err != nil {
		return nil, false, errors.NewInternalError("fold tree").WithCause(err)
	}

	b.logger.Debug("Tree built",
		zap.String("root_id", rootID),
		zap.String("traversal", string(b.settings.Traversal)),
		zap.Int("children", len(node.Children)),
	)
	return node, true, nil
}

func (b *TreeBuilder) query(template string) string {
	return fmt.Sprintf(template, mustLabel(domain.TreeKind), b.settings.MaxDepth)
}

func (b *TreeBuilder) pathRecord(ctx context.Context, rootID string) (map[string]any, error) {
	rows, err := b.session.ExecuteRead(ctx, b.query(treePathsQuery), map[string]any{"id": rootID})
	if err != nil {
		return nil, err
	}

	paths := make([][]map[string]any, 0, len(rows))
	for _, row := range rows {
		nodes, _ := row["nodes"].([]any)
		path := make([]map[string]any, 0, len(nodes))
		for _, n := range nodes {
			if props, ok := n.(map[string]any); ok {
				path = append(path, props)
			}
		}
		paths = append(paths, path)
	}
	return joinPaths(rootID, paths), nil
}

func (b *TreeBuilder) apocRecord(ctx context.Context, rootID string) (map[string]any, error) {
	rows, err := b.session.ExecuteRead(ctx, b.query(treeAPOCQuery), map[string]any{"id": rootID})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	value, ok := rows[0]["value"].(map[string]any)
	if !ok || value["id"] == nil {
		return nil, nil
	}
	return value, nil
}
