package graph

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"devaccountbook-backend/pkg/errors"
)

// BreakerSettings configures the database circuit breaker.
type BreakerSettings struct {
	Name             string
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold float64
	MinRequests      uint32
}

// DefaultBreakerSettings returns settings tuned for a single database.
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		Name:             "neo4j",
		MaxRequests:      3,
		Interval:         30 * time.Second,
		Timeout:          15 * time.Second,
		FailureThreshold: 0.6,
		MinRequests:      5,
	}
}

// NewBreaker builds the process-wide breaker. Only transaction failures
// count against it; integrity and caller errors are normal outcomes.
func NewBreaker(s BreakerSettings, logger *zap.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: s.MaxRequests,
		Interval:    s.Interval,
		Timeout:     s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < s.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= s.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !errors.IsTransactionFailure(err)
		},
	})
}

// BreakerSession fails fast with UNAVAILABLE while the breaker is open.
type BreakerSession struct {
	next    Session
	breaker *gobreaker.CircuitBreaker
}

// NewBreakerSession wraps next with breaker.
func NewBreakerSession(next Session, breaker *gobreaker.CircuitBreaker) *BreakerSession {
	return &BreakerSession{next: next, breaker: breaker}
}

func (s *BreakerSession) ExecuteRead(ctx context.Context, query string, params map[string]any) ([]Record, error) {
	return s.execute(func() ([]Record, error) { return s.next.ExecuteRead(ctx, query, params) })
}

func (s *BreakerSession) ExecuteWrite(ctx context.Context, query string, params map[string]any) ([]Record, error) {
	return s.execute(func() ([]Record, error) { return s.next.ExecuteWrite(ctx, query, params) })
}

func (s *BreakerSession) execute(run func() ([]Record, error)) ([]Record, error) {
	out, err := s.breaker.Execute(func() (interface{}, error) {
		return run()
	})
	if err != nil {
		if stderrors.Is(err, gobreaker.ErrOpenState) || stderrors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, errors.NewUnavailableError(s.breaker.Name()).WithCause(err)
		}
		return nil, err
	}
	rows, _ := out.([]Record)
	return rows, nil
}
