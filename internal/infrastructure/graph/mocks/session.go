// Package mocks provides testify mocks for the graph session.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"devaccountbook-backend/internal/infrastructure/graph"
)

// MockSession is a testify mock of graph.ClosableSession.
type MockSession struct {
	mock.Mock
}

func (m *MockSession) ExecuteRead(ctx context.Context, query string, params map[string]any) ([]graph.Record, error) {
	args := m.Called(ctx, query, params)
	rows, _ := args.Get(0).([]graph.Record)
	return rows, args.Error(1)
}

func (m *MockSession) ExecuteWrite(ctx context.Context, query string, params map[string]any) ([]graph.Record, error) {
	args := m.Called(ctx, query, params)
	rows, _ := args.Get(0).([]graph.Record)
	return rows, args.Error(1)
}

func (m *MockSession) Close(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
