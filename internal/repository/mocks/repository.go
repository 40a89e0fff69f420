// Package mocks provides testify mocks for the repository interfaces.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"devaccountbook-backend/internal/domain"
	"devaccountbook-backend/internal/repository"
)

// MockEntryRepository mocks repository.EntryRepository.
type MockEntryRepository struct {
	mock.Mock
}

func (m *MockEntryRepository) Create(ctx context.Context, title string, desc *string, tags []string) (string, error) {
	args := m.Called(ctx, title, desc, tags)
	return args.String(0), args.Error(1)
}

func (m *MockEntryRepository) Get(ctx context.Context, id string) (*domain.Entry, bool, error) {
	args := m.Called(ctx, id)
	entry, _ := args.Get(0).(*domain.Entry)
	return entry, args.Bool(1), args.Error(2)
}

func (m *MockEntryRepository) List(ctx context.Context, page repository.Pagination) ([]domain.Entry, error) {
	args := m.Called(ctx, page)
	entries, _ := args.Get(0).([]domain.Entry)
	return entries, args.Error(1)
}

func (m *MockEntryRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockEntryRepository) Update(ctx context.Context, id string, patch domain.Patch) (bool, error) {
	args := m.Called(ctx, id, patch)
	return args.Bool(0), args.Error(1)
}

func (m *MockEntryRepository) Delete(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

// MockRelationRepository mocks repository.RelationRepository.
type MockRelationRepository struct {
	mock.Mock
}

func (m *MockRelationRepository) Create(ctx context.Context, fromID, toID string, kind domain.Kind, props domain.Props) (domain.Kind, error) {
	args := m.Called(ctx, fromID, toID, kind, props)
	return args.Get(0).(domain.Kind), args.Error(1)
}

func (m *MockRelationRepository) List(ctx context.Context, entryID string) (domain.Relations, error) {
	args := m.Called(ctx, entryID)
	return args.Get(0).(domain.Relations), args.Error(1)
}

func (m *MockRelationRepository) Delete(ctx context.Context, fromID, toID string, kind domain.Kind) (int64, error) {
	args := m.Called(ctx, fromID, toID, kind)
	return args.Get(0).(int64), args.Error(1)
}

// MockTreeRepository mocks repository.TreeRepository.
type MockTreeRepository struct {
	mock.Mock
}

func (m *MockTreeRepository) BuildTree(ctx context.Context, rootID string) (*domain.TreeNode, bool, error) {
	args := m.Called(ctx, rootID)
	node, _ := args.Get(0).(*domain.TreeNode)
	return node, args.Bool(1), args.Error(2)
}
