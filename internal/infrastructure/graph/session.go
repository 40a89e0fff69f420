// Package graph owns the connection to the graph database and the narrow
// session contract the persistence layer runs its queries through.
package graph

import "context"

// Record is one result row keyed by the RETURN aliases of the query.
type Record map[string]any

// Session runs a single query inside one managed transaction. Decorators
// (tracing, metrics, circuit breaking) implement it too.
type Session interface {
	ExecuteRead(ctx context.Context, query string, params map[string]any) ([]Record, error)
	ExecuteWrite(ctx context.Context, query string, params map[string]any) ([]Record, error)
}

// ClosableSession is a Session bound to a pooled connection that must be
// released once the request is done.
type ClosableSession interface {
	Session
	Close(ctx context.Context) error
}

type operationKey struct{}

// WithOperation labels the queries run with ctx, e.g. "entry.create".
func WithOperation(ctx context.Context, operation string) context.Context {
	return context.WithValue(ctx, operationKey{}, operation)
}

// OperationFrom returns the label set by WithOperation, or "unknown".
func OperationFrom(ctx context.Context) string {
	if op, ok := ctx.Value(operationKey{}).(string); ok && op != "" {
		return op
	}
	return "unknown"
}
