package services

import (
	"go.uber.org/zap"

	"devaccountbook-backend/internal/infrastructure/graph"
	"devaccountbook-backend/internal/infrastructure/persistence/neo4j"
)

// Factory builds request-scoped services around a graph session.
type Factory struct {
	tree    neo4j.TreeSettings
	metrics Metrics
	logger  *zap.Logger
}

// NewFactory creates a Factory.
func NewFactory(tree neo4j.TreeSettings, metrics Metrics, logger *zap.Logger) *Factory {
	return &Factory{tree: tree, metrics: metrics, logger: logger}
}

// New binds a service to session. The caller owns the session.
func (f *Factory) New(session graph.Session) *AccountEntryService {
	return NewAccountEntryService(
		neo4j.NewEntryStore(session, f.logger),
		neo4j.NewRelationStore(session, f.logger),
		neo4j.NewTreeBuilder(session, f.tree, f.logger),
		f.metrics,
		f.logger,
	)
}
