package di

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"devaccountbook-backend/internal/config"
	"devaccountbook-backend/internal/infrastructure/graph"
	"devaccountbook-backend/internal/infrastructure/observability"
	pkgerrors "devaccountbook-backend/pkg/errors"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv("CONFIG_DIR", t.TempDir())
	loader := config.NewLoader(t.TempDir(), config.Test)
	cfg, err := loader.Load()
	require.NoError(t, err)
	cfg.Environment = config.Test
	cfg.Logging.Level = "error"
	return cfg
}

func TestInitializeContainerIntegration(t *testing.T) {
	cfg := testConfig(t)

	container, cleanup, err := InitializeContainer(context.Background(), cfg)
	require.NoError(t, err)
	defer cleanup()

	router := container.Router.Setup()

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
	assert.Same(t, cfg, container.Watcher.GetConfig())
}

func TestProvideLogLevel(t *testing.T) {
	cfg := &config.Config{Logging: config.Logging{Level: "warn"}}

	level, err := ProvideLogLevel(cfg)
	require.NoError(t, err)
	assert.Equal(t, zapcore.WarnLevel, level.Level())

	cfg.Logging.Level = "loud"
	_, err = ProvideLogLevel(cfg)
	assert.Error(t, err)
}

func TestProvideBreaker_Disabled(t *testing.T) {
	cfg := &config.Config{}
	assert.Nil(t, ProvideBreaker(cfg, zap.NewNop()))

	cfg.CircuitBreaker = config.CircuitBreaker{Enabled: true, MaxRequests: 1}
	cb := ProvideBreaker(cfg, zap.NewNop())
	require.NotNil(t, cb)
	assert.Equal(t, "neo4j", cb.Name())
}

type failingSession struct{}

func (failingSession) ExecuteRead(context.Context, string, map[string]any) ([]graph.Record, error) {
	return nil, pkgerrors.NewTransactionFailureError("entry.get", errors.New("connection reset"))
}

func (failingSession) ExecuteWrite(context.Context, string, map[string]any) ([]graph.Record, error) {
	return nil, pkgerrors.NewTransactionFailureError("entry.create", errors.New("connection reset"))
}

func TestProvideSessionDecorators_Order(t *testing.T) {
	cfg := &config.Config{
		Metrics:        config.Metrics{Enabled: true},
		CircuitBreaker: config.CircuitBreaker{Enabled: true, MinRequests: 1, FailureThreshold: 1},
	}
	collector := observability.NewCollector("test")
	decorators := ProvideSessionDecorators(cfg, ProvideBreaker(cfg, zap.NewNop()), collector)
	require.Len(t, decorators, 2)

	var session graph.Session = failingSession{}
	for _, decorate := range decorators {
		session = decorate(session)
	}
	_, ok := session.(*observability.InstrumentedSession)
	require.True(t, ok, "instrumentation is outermost")

	ctx := context.Background()
	_, err := session.ExecuteRead(ctx, "MATCH (n) RETURN n", nil)
	assert.True(t, pkgerrors.IsTransactionFailure(err))

	_, err = session.ExecuteRead(ctx, "MATCH (n) RETURN n", nil)
	assert.True(t, pkgerrors.IsUnavailable(err), "breaker opened after the first failure")
}

func TestProvideMetricsSink(t *testing.T) {
	collector := observability.NewCollector("test")

	assert.Nil(t, ProvideMetricsSink(&config.Config{}, collector))
	assert.NotNil(t, ProvideMetricsSink(&config.Config{Metrics: config.Metrics{Enabled: true}}, collector))
}
