// Package neo4j implements the repository interfaces on top of a graph
// session. Query text is fixed at compile time except for relationship type
// labels, which come only from the domain.Kind lookup table, and the tree
// depth, which is a validated integer.
package neo4j

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"devaccountbook-backend/internal/domain"
	"devaccountbook-backend/internal/infrastructure/graph"
	"devaccountbook-backend/internal/repository"
	"devaccountbook-backend/pkg/errors"
)

const (
	createEntryQuery = `
CREATE (n:AccountEntry {id: $id, title: $title, desc: $desc, tags: $tags, createdAt: datetime()})
RETURN n.id AS id`

	getEntryQuery = `
MATCH (n:AccountEntry {id: $id})
RETURN n {.*} AS entry`

	listEntriesQuery = `
MATCH (n:AccountEntry)
RETURN n {.*} AS entry
ORDER BY n.createdAt IS NULL, n.createdAt DESC, n.id
SKIP $offset LIMIT $limit`

	countEntriesQuery = `
MATCH (n:AccountEntry)
RETURN count(n) AS total`

	updateEntryQuery = `
MATCH (n:AccountEntry {id: $id})
SET n += $props, n.updatedAt = datetime()
RETURN n.id AS id`

	deleteEntryQuery = `
MATCH (n:AccountEntry {id: $id})
DETACH DELETE n
RETURN count(*) AS deleted`
)

// EntryStore implements repository.EntryRepository.
type EntryStore struct {
	session graph.Session
	logger  *zap.Logger
	newID   func() string
}

// NewEntryStore creates an EntryStore bound to session.
func NewEntryStore(session graph.Session, logger *zap.Logger) *EntryStore {
	return &EntryStore{session: session, logger: logger, newID: uuid.NewString}
}

var _ repository.EntryRepository = (*EntryStore)(nil)

func (s *EntryStore) Create(ctx context.Context, title string, desc *string, tags []string) (string, error) {
	ctx = graph.WithOperation(ctx, "entry.create")
	start := time.Now()

	if tags == nil {
		tags = []string{}
	}
	params := map[string]any{
		"id":    s.newID(),
		"title": title,
		"desc":  nil,
		"tags":  tags,
	}
	if desc != nil {
		params["desc"] = *desc
	}

	rows, err := s.session.ExecuteWrite(ctx, createEntryQuery, params)
	if err != nil {
		return "", err
	}
	if len(rows) == 0 {
		return "", errors.NewInternalError("entry create returned no id")
	}
	id, ok := rows[0]["id"].(string)
	if !ok || id == "" {
		return "", errors.NewInternalError(fmt.Sprintf("entry create returned id of type %T", rows[0]["id"]))
	}

	s.logger.Debug("Entry created",
		zap.String("entry_id", id),
		zap.Duration("duration", time.Since(start)),
	)
	return id, nil
}

func (s *EntryStore) Get(ctx context.Context, id string) (*domain.Entry, bool, error) {
	ctx = graph.WithOperation(ctx, "entry.get")

	rows, err := s.session.ExecuteRead(ctx, getEntryQuery, map[string]any{"id": id})
	if err != nil {
		return nil, false, err
	}
	if len(rows) == 0 {
		return nil, false, nil
	}

	entry, err := decodeEntry(rows[0]["entry"])
	if err != nil {
		return nil, false, errors.NewInternalError("decode entry").WithCause(err)
	}
	return &entry, true, nil
}

func (s *EntryStore) List(ctx context.Context, page repository.Pagination) ([]domain.Entry, error) {
	if err := page.Validate(); err != nil {
		return nil, err
	}
	ctx = graph.WithOperation(ctx, "entry.list")

	rows, err := s.session.ExecuteRead(ctx, listEntriesQuery, map[string]any{
		"limit":  int64(page.Limit),
		"offset": int64(page.Offset),
	})
	if err != nil {
		return nil, err
	}

	entries := make([]domain.Entry, 0, len(rows))
	for _, row := range rows {
		entry, err := decodeEntry(row["entry"])
		if err != nil {
			return nil, errors.NewInternalError("decode entry").WithCause(err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (s *EntryStore) Count(ctx context.Context) (int64, error) {
	ctx = graph.WithOperation(ctx, "entry.count")

	rows, err := s.session.ExecuteRead(ctx, countEntriesQuery, nil)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return int64Field(rows[0], "total"), nil
}

func (s *EntryStore) Update(ctx context.Context, id string, patch domain.Patch) (bool, error) {
	props, err := patch.Sanitize()
	if err != nil {
		return false, errors.NewValidationError(err.Error())
	}
	if len(props) == 0 {
		return false, nil
	}
	ctx = graph.WithOperation(ctx, "entry.update")

	rows, err := s.session.ExecuteWrite(ctx, updateEntryQuery, map[string]any{
		"id":    id,
		"props": props,
	})
	if err != nil {
		return false, err
	}

	s.logger.Debug("Entry updated",
		zap.String("entry_id", id),
		zap.Int("fields", len(props)),
		zap.Bool("found", len(rows) > 0),
	)
	return len(rows) > 0, nil
}

func (s *EntryStore) Delete(ctx context.Context, id string) (bool, error) {
	ctx = graph.WithOperation(ctx, "entry.delete")

	rows, err := s.session.ExecuteWrite(ctx, deleteEntryQuery, map[string]any{"id": id})
	if err != nil {
		return false, err
	}
	deleted := len(rows) > 0 && int64Field(rows[0], "deleted") > 0

	s.logger.Debug("Entry deleted", zap.String("entry_id", id), zap.Bool("found", deleted))
	return deleted, nil
}
