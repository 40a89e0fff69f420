package neo4j

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"devaccountbook-backend/internal/domain"
	"devaccountbook-backend/internal/infrastructure/graph"
	"devaccountbook-backend/internal/repository"
	"devaccountbook-backend/pkg/errors"
)

// The %s verbs below only ever receive a label from domain.Kind.Label.
const (
	mergeRelationQuery = `
OPTIONAL MATCH (a:AccountEntry {id: $fromId})
OPTIONAL MATCH (b:AccountEntry {id: $toId})
FOREACH (ok IN CASE WHEN a IS NOT NULL AND b IS NOT NULL THEN [1] ELSE [] END |
  MERGE (a)-[r:%s]->(b)
  ON CREATE SET r.createdAt = datetime()
  SET r += $props, r.updatedAt = datetime()
)
RETURN a IS NOT NULL AS fromExists, b IS NOT NULL AS toExists`

	listRelationsQuery = `
MATCH (n:AccountEntry {id: $id})-[r]->(m:AccountEntry)
WHERE type(r) IN $kinds
RETURN 'out' AS direction, n.id AS fromId, m.id AS toId, type(r) AS kind, properties(r) AS props
UNION ALL
MATCH (m:AccountEntry)-[r]->(n:AccountEntry {id: $id})
WHERE type(r) IN $kinds
RETURN 'in' AS direction, m.id AS fromId, n.id AS toId, type(r) AS kind, properties(r) AS props`

	deleteRelationQuery = `
MATCH (:AccountEntry {id: $fromId})-[r:%s]->(:AccountEntry {id: $toId})
DELETE r
RETURN count(*) AS deleted`
)

// RelationStore implements repository.RelationRepository.
type RelationStore struct {
	session graph.Session
	logger  *zap.Logger
}

// NewRelationStore creates a RelationStore bound to session.
func NewRelationStore(session graph.Session, logger *zap.Logger) *RelationStore {
	return &RelationStore{session: session, logger: logger}
}

var _ repository.RelationRepository = (*RelationStore)(nil)

// labelOf is the single gate between a Kind and query text.
func labelOf(kind domain.Kind) (string, error) {
	label, ok := kind.Label()
	if !ok {
		return "", errors.NewInvalidEdgeTypeError(kind.String(), domain.KindLabels())
	}
	return label, nil
}

func (s *RelationStore) Create(ctx context.Context, fromID, toID string, kind domain.Kind, props domain.Props) (domain.Kind, error) {
	label, err := labelOf(kind)
	if err != nil {
		return 0, err
	}
	clean, err := sanitizeProps(props)
	if err != nil {
		return 0, err
	}
	ctx = graph.WithOperation(ctx, "relation.create")

	rows, err := s.session.ExecuteWrite(ctx, fmt.Sprintf(mergeRelationQuery, label), map[string]any{
		"fromId": fromID,
		"toId":   toID,
		"props":  clean,
	})
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, errors.NewInternalError("relation merge returned no rows")
	}

	var missing []string
	if !boolField(rows[0], "fromExists") {
		missing = append(missing, fromID)
	}
	if !boolField(rows[0], "toExists") {
		missing = append(missing, toID)
	}
	if len(missing) > 0 {
		return 0, errors.NewNotFoundError("entry", strings.Join(missing, ", ")).
			WithCode("RELATION_ENDPOINT_MISSING").
			WithDetails(map[string]interface{}{"missing": missing})
	}

	s.logger.Debug("Relation merged",
		zap.String("from_id", fromID),
		zap.String("to_id", toID),
		zap.String("kind", label),
	)
	return kind, nil
}

func (s *RelationStore) List(ctx context.Context, entryID string) (domain.Relations, error) {
	ctx = graph.WithOperation(ctx, "relation.list")

	rows, err := s.session.ExecuteRead(ctx, listRelationsQuery, map[string]any{
		"id":    entryID,
		"kinds": domain.KindLabels(),
	})
	if err != nil {
		return domain.Relations{}, err
	}

	out := domain.Relations{Outgoing: []domain.Relation{}, Incoming: []domain.Relation{}}
	for _, row := range rows {
		label, _ := row["kind"].(string)
		kind, ok := domain.ParseKind(label)
		if !ok {
			continue
		}
		rel := domain.Relation{
			FromID: fmt.Sprint(row["fromId"]),
			ToID:   fmt.Sprint(row["toId"]),
			Kind:   kind,
			Props:  domain.Props{},
		}
		if props, ok := row["props"].(map[string]any); ok {
			rel.Props = props
		}
		if row["direction"] == "out" {
			out.Outgoing = append(out.Outgoing, rel)
		} else {
			out.Incoming = append(out.Incoming, rel)
		}
	}

	sortRelations(out.Outgoing, func(r domain.Relation) string { return r.ToID })
	sortRelations(out.Incoming, func(r domain.Relation) string { return r.FromID })
	return out, nil
}

func (s *RelationStore) Delete(ctx context.Context, fromID, toID string, kind domain.Kind) (int64, error) {
	label, err := labelOf(kind)
	if err != nil {
		return 0, err
	}
	ctx = graph.WithOperation(ctx, "relation.delete")

	rows, err := s.session.ExecuteWrite(ctx, fmt.Sprintf(deleteRelationQuery, label), map[string]any{
		"fromId": fromID,
		"toId":   toID,
	})
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return int64Field(rows[0], "deleted"), nil
}

func sortRelations(rels []domain.Relation, other func(domain.Relation) string) {
	sort.SliceStable(rels, func(i, j int) bool {
		li, lj := rels[i].Kind.String(), rels[j].Kind.String()
		if li != lj {
			return li < lj
		}
		return other(rels[i]) < other(rels[j])
	})
}

// sanitizeProps drops server-owned timestamps and rejects values Neo4j
// cannot store as a relationship property.
func sanitizeProps(props domain.Props) (map[string]any, error) {
	out := make(map[string]any, len(props))
	for k, v := range props {
		if k == domain.PropCreatedAt || k == domain.PropUpdatedAt {
			continue
		}
		if !storable(v) {
			return nil, errors.NewValidationError(fmt.Sprintf("relation property %q has unsupported type %T", k, v))
		}
		out[k] = v
	}
	return out, nil
}

func storable(v any) bool {
	switch t := v.(type) {
	case nil, string, bool, int, int32, int64, float32, float64:
		return true
	case []string, []int64, []float64, []bool:
		return true
	case []any:
		return homogeneous(t)
	default:
		return false
	}
}

// homogeneous reports whether every item is a scalar of one property type.
// Neo4j rejects lists that mix types or hold nulls.
func homogeneous(items []any) bool {
	want := ""
	for _, item := range items {
		got := scalarKind(item)
		if got == "" || (want != "" && got != want) {
			return false
		}
		want = got
	}
	return true
}

func scalarKind(v any) string {
	switch v.(type) {
	case string:
		return "string"
	case bool:
		return "bool"
	case int, int32, int64:
		return "integer"
	case float32, float64:
		return "float"
	default:
		return ""
	}
}
