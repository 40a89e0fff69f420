package middleware

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"devaccountbook-backend/internal/infrastructure/graph"
)

// SessionOpener hands out pooled graph sessions.
type SessionOpener interface {
	NewSession(ctx context.Context) graph.ClosableSession
}

// SessionDecorator wraps the raw session, e.g. with a circuit breaker or
// instrumentation.
type SessionDecorator func(graph.Session) graph.Session

type sessionKey struct{}

// WithSession stores session in ctx.
func WithSession(ctx context.Context, session graph.Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, session)
}

// SessionFrom returns the request session set by GraphSession.
func SessionFrom(ctx context.Context) (graph.Session, bool) {
	session, ok := ctx.Value(sessionKey{}).(graph.Session)
	return session, ok
}

// GraphSession opens one graph session per request, applies the decorators
// in order and closes the session when the handler returns.
func GraphSession(opener SessionOpener, logger *zap.Logger, decorators ...SessionDecorator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := opener.NewSession(r.Context())
			defer func() {
				// The request context may already be cancelled here.
				if err := raw.Close(context.WithoutCancel(r.Context())); err != nil {
					logger.Warn("Failed to close graph session", zap.Error(err))
				}
			}()

			var session graph.Session = raw
			for _, decorate := range decorators {
				session = decorate(session)
			}

			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), session)))
		})
	}
}
