// Package services contains the application service for account entries.
// It turns the boolean "missing" results of the repositories into typed
// errors and composes multi-step use cases such as create-then-read.
package services

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"devaccountbook-backend/internal/domain"
	"devaccountbook-backend/internal/repository"
	"devaccountbook-backend/pkg/errors"
)

// CreateEntryCommand carries the fields of a new entry.
type CreateEntryCommand struct {
	Title string
	Desc  *string
	Tags  []string
}

// LinkCommand describes a relation from an entry to another.
type LinkCommand struct {
	ToID  string
	Kind  domain.Kind
	Props domain.Props
}

// Metrics receives business counters. Implementations must be safe for
// concurrent use.
type Metrics interface {
	EntryCreated()
	EntryDeleted()
	RelationCreated(kind string)
	RelationDeleted(kind string)
}

type nopMetrics struct{}

func (nopMetrics) EntryCreated()          {}
func (nopMetrics) EntryDeleted()          {}
func (nopMetrics) RelationCreated(string) {}
func (nopMetrics) RelationDeleted(string) {}

// AccountEntryService orchestrates entry, relation and tree use cases.
// Instances are request-scoped and must not be shared across goroutines.
type AccountEntryService struct {
	entries   repository.EntryRepository
	relations repository.RelationRepository
	trees     repository.TreeRepository
	metrics   Metrics
	logger    *zap.Logger
	tracer    trace.Tracer
}

// NewAccountEntryService wires a service from its repositories. A nil
// metrics sink disables counters.
func NewAccountEntryService(
	entries repository.EntryRepository,
	relations repository.RelationRepository,
	trees repository.TreeRepository,
	metrics Metrics,
	logger *zap.Logger,
) *AccountEntryService {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &AccountEntryService{
		entries:   entries,
		relations: relations,
		trees:     trees,
		metrics:   metrics,
		logger:    logger,
		tracer:    otel.Tracer("devaccountbook-backend.application.account_entry_service"),
	}
}

func (s *AccountEntryService) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "AccountEntryService."+name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
}

func finish(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// Create stores a new entry and returns it as persisted.
func (s *AccountEntryService) Create(ctx context.Context, cmd CreateEntryCommand) (entry *domain.Entry, err error) {
	ctx, span := s.startSpan(ctx, "Create", attribute.Int("tags.count", len(cmd.Tags)))
	defer func() { finish(span, err) }()

	id, err := s.entries.Create(ctx, cmd.Title, cmd.Desc, cmd.Tags)
	if err != nil {
		return nil, err
	}
	s.metrics.EntryCreated()
	span.SetAttributes(attribute.String("entry.id", id))

	entry, ok, err := s.entries.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.NewInternalError(fmt.Sprintf("entry '%s' vanished after create", id))
	}

	s.logger.Info("Account entry created", zap.String("entry_id", id))
	return entry, nil
}

// Get returns the entry or a NOT_FOUND error.
func (s *AccountEntryService) Get(ctx context.Context, id string) (entry *domain.Entry, err error) {
	ctx, span := s.startSpan(ctx, "Get", attribute.String("entry.id", id))
	defer func() { finish(span, err) }()

	entry, ok, err := s.entries.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.NewNotFoundError("entry", id)
	}
	return entry, nil
}

// List returns one page of entries, newest first.
func (s *AccountEntryService) List(ctx context.Context, limit, offset int) (entries []domain.Entry, err error) {
	ctx, span := s.startSpan(ctx, "List", attribute.Int("limit", limit), attribute.Int("offset", offset))
	defer func() { finish(span, err) }()

	return s.entries.List(ctx, repository.Pagination{Limit: limit, Offset: offset})
}

// Count returns the number of stored entries.
func (s *AccountEntryService) Count(ctx context.Context) (total int64, err error) {
	ctx, span := s.startSpan(ctx, "Count")
	defer func() { finish(span, err) }()

	return s.entries.Count(ctx)
}

// Patch applies a partial update and returns the entry afterwards. A patch
// without recognized fields is a VALIDATION error for existing entries.
func (s *AccountEntryService) Patch(ctx context.Context, id string, patch domain.Patch) (entry *domain.Entry, err error) {
	ctx, span := s.startSpan(ctx, "Patch", attribute.String("entry.id", id), attribute.Int("fields", len(patch)))
	defer func() { finish(span, err) }()

	updated, err := s.entries.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}

	entry, ok, err := s.entries.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.NewNotFoundError("entry", id)
	}
	if !updated {
		return nil, errors.NewValidationError("no valid fields to update")
	}
	return entry, nil
}

// Delete removes the entry and its relations.
func (s *AccountEntryService) Delete(ctx context.Context, id string) (err error) {
	ctx, span := s.startSpan(ctx, "Delete", attribute.String("entry.id", id))
	defer func() { finish(span, err) }()

	deleted, err := s.entries.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return errors.NewNotFoundError("entry", id)
	}
	s.metrics.EntryDeleted()
	s.logger.Info("Account entry deleted", zap.String("entry_id", id))
	return nil
}

// Link creates or updates the relation fromID -[kind]-> cmd.ToID.
func (s *AccountEntryService) Link(ctx context.Context, fromID string, cmd LinkCommand) (rel *domain.Relation, err error) {
	ctx, span := s.startSpan(ctx, "Link",
		attribute.String("from.id", fromID),
		attribute.String("to.id", cmd.ToID),
		attribute.String("kind", cmd.Kind.String()),
	)
	defer func() { finish(span, err) }()

	kind, err := s.relations.Create(ctx, fromID, cmd.ToID, cmd.Kind, cmd.Props)
	if err != nil {
		return nil, err
	}
	s.metrics.RelationCreated(kind.String())

	props := domain.Props{}
	for k, v := range cmd.Props {
		if k == domain.PropCreatedAt || k == domain.PropUpdatedAt {
			continue
		}
		props[k] = v
	}
	return &domain.Relation{FromID: fromID, ToID: cmd.ToID, Kind: kind, Props: props}, nil
}

// ListLinks returns the relations touching an entry. An unknown entry has
// no relations.
func (s *AccountEntryService) ListLinks(ctx context.Context, id string) (rels domain.Relations, err error) {
	ctx, span := s.startSpan(ctx, "ListLinks", attribute.String("entry.id", id))
	defer func() { finish(span, err) }()

	return s.relations.List(ctx, id)
}

// Unlink removes one relation or returns NOT_FOUND.
func (s *AccountEntryService) Unlink(ctx context.Context, fromID, toID string, kind domain.Kind) (err error) {
	ctx, span := s.startSpan(ctx, "Unlink",
		attribute.String("from.id", fromID),
		attribute.String("to.id", toID),
		attribute.String("kind", kind.String()),
	)
	defer func() { finish(span, err) }()

	n, err := s.relations.Delete(ctx, fromID, toID, kind)
	if err != nil {
		return err
	}
	if n == 0 {
		return errors.NewNotFoundError("relation", fmt.Sprintf("%s-[%s]->%s", fromID, kind, toID))
	}
	s.metrics.RelationDeleted(kind.String())
	return nil
}

// Tree returns the nested view rooted at id.
func (s *AccountEntryService) Tree(ctx context.Context, id string) (node *domain.TreeNode, err error) {
	ctx, span := s.startSpan(ctx, "Tree", attribute.String("root.id", id))
	defer func() { finish(span, err) }()

	node, ok, err := s.trees.BuildTree(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.NewNotFoundError("entry", id)
	}
	return node, nil
}
