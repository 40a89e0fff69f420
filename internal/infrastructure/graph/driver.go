package graph

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"devaccountbook-backend/pkg/errors"
)

// Neo4j status code raised when a uniqueness constraint rejects a write.
const constraintViolationCode = "Neo.ClientError.Schema.ConstraintValidationFailed"

// Status code families raised for malformed queries or parameters.
const (
	statementErrorPrefix = "Neo.ClientError.Statement."
	requestErrorPrefix   = "Neo.ClientError.Request."
)

// Settings describes how to reach the database.
type Settings struct {
	URI                string
	Username           string
	Password           string
	Database           string
	MaxPoolSize        int
	AcquireTimeout     time.Duration
	TransactionTimeout time.Duration
}

// Driver is the process-wide connection pool. Create one at startup, hand
// out sessions per request, and Close it at shutdown.
type Driver struct {
	driver    neo4j.DriverWithContext
	database  string
	txTimeout time.Duration
	logger    *zap.Logger
}

// NewDriver opens the pool. It does not contact the server; use
// VerifyConnectivity for that.
func NewDriver(s Settings, logger *zap.Logger) (*Driver, error) {
	if s.URI == "" {
		return nil, fmt.Errorf("graph: empty database uri")
	}

	d, err := neo4j.NewDriverWithContext(s.URI, neo4j.BasicAuth(s.Username, s.Password, ""), func(c *neo4j.Config) {
		if s.MaxPoolSize > 0 {
			c.MaxConnectionPoolSize = s.MaxPoolSize
		}
		if s.AcquireTimeout > 0 {
			c.ConnectionAcquisitionTimeout = s.AcquireTimeout
		}
	})
	if err != nil {
		return nil, fmt.Errorf("graph: create driver: %w", err)
	}

	logger.Info("Graph driver created",
		zap.String("uri", s.URI),
		zap.String("database", s.Database),
	)

	return &Driver{
		driver:    d,
		database:  s.Database,
		txTimeout: s.TransactionTimeout,
		logger:    logger,
	}, nil
}

// VerifyConnectivity checks that the server is reachable.
func (d *Driver) VerifyConnectivity(ctx context.Context) error {
	if err := d.driver.VerifyConnectivity(ctx); err != nil {
		return errors.NewUnavailableError("neo4j").WithCause(err)
	}
	return nil
}

// Close releases every pooled connection.
func (d *Driver) Close(ctx context.Context) error {
	d.logger.Info("Closing graph driver")
	return d.driver.Close(ctx)
}

// NewSession opens a request-scoped session. The caller must Close it.
func (d *Driver) NewSession(ctx context.Context) ClosableSession {
	return &neo4jSession{
		session: d.driver.NewSession(ctx, neo4j.SessionConfig{
			DatabaseName: d.database,
		}),
		txTimeout: d.txTimeout,
	}
}

type neo4jSession struct {
	session   neo4j.SessionWithContext
	txTimeout time.Duration
}

func (s *neo4jSession) ExecuteRead(ctx context.Context, query string, params map[string]any) ([]Record, error) {
	out, err := s.session.ExecuteRead(ctx, collect(ctx, query, params), s.txConfig()...)
	return records(ctx, out, err)
}

func (s *neo4jSession) ExecuteWrite(ctx context.Context, query string, params map[string]any) ([]Record, error) {
	out, err := s.session.ExecuteWrite(ctx, collect(ctx, query, params), s.txConfig()...)
	return records(ctx, out, err)
}

func (s *neo4jSession) Close(ctx context.Context) error {
	return s.session.Close(ctx)
}

func (s *neo4jSession) txConfig() []func(*neo4j.TransactionConfig) {
	if s.txTimeout <= 0 {
		return nil
	}
	return []func(*neo4j.TransactionConfig){neo4j.WithTxTimeout(s.txTimeout)}
}

func collect(ctx context.Context, query string, params map[string]any) neo4j.ManagedTransactionWork {
	return func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		rows, err := result.Collect(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]Record, len(rows))
		for i, row := range rows {
			out[i] = Record(row.AsMap())
		}
		return out, nil
	}
}

func records(ctx context.Context, out any, err error) ([]Record, error) {
	if err != nil {
		return nil, Classify(OperationFrom(ctx), err)
	}
	rows, _ := out.([]Record)
	return NormalizeRecords(rows), nil
}

// Classify tags a driver error by who caused it. Caller mistakes become
// VALIDATION, a cancelled context becomes CANCELED, a uniqueness rejection
// becomes CONSTRAINT_VIOLATION. Connectivity, transient and database errors
// stay TRANSACTION_FAILURE. Errors that are already typed pass through.
func Classify(operation string, err error) error {
	if err == nil || errors.IsAppError(err) {
		return err
	}
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return errors.NewCanceledError(operation, err)
	}

	var neoErr *neo4j.Neo4jError
	if !stderrors.As(err, &neoErr) {
		return errors.NewTransactionFailureError(operation, err)
	}
	switch {
	case neoErr.Code == constraintViolationCode:
		return errors.NewConstraintViolationError(operation, err)
	case strings.HasPrefix(neoErr.Code, statementErrorPrefix),
		strings.HasPrefix(neoErr.Code, requestErrorPrefix):
		return errors.NewValidationError(fmt.Sprintf("query rejected during '%s': %s", operation, neoErr.Msg)).
			WithCode(neoErr.Code).
			WithCause(err)
	default:
		return errors.NewTransactionFailureError(operation, err)
	}
}
