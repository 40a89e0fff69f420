package neo4j

import (
	"context"

	"go.uber.org/zap"

	"devaccountbook-backend/internal/infrastructure/graph"
)

// ConstraintName is the uniqueness constraint on entry ids.
const ConstraintName = "account_entry_id_unique"

const createConstraintQuery = `
CREATE CONSTRAINT ` + ConstraintName + ` IF NOT EXISTS
FOR (n:AccountEntry) REQUIRE n.id IS UNIQUE`

// Schema sets up constraints. Running it again is a no-op.
type Schema struct {
	session graph.Session
	logger  *zap.Logger
}

// NewSchema creates a Schema bound to session.
func NewSchema(session graph.Session, logger *zap.Logger) *Schema {
	return &Schema{session: session, logger: logger}
}

// EnsureConstraints creates the entry id constraint if it is missing.
func (s *Schema) EnsureConstraints(ctx context.Context) error {
	ctx = graph.WithOperation(ctx, "schema.constraints")
	if _, err := s.session.ExecuteWrite(ctx, createConstraintQuery, nil); err != nil {
		return err
	}
	s.logger.Info("Graph constraints ensured", zap.String("constraint", ConstraintName))
	return nil
}
