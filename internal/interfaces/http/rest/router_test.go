package rest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"devaccountbook-backend/internal/application/services"
	"devaccountbook-backend/internal/config"
	"devaccountbook-backend/internal/infrastructure/graph"
	"devaccountbook-backend/internal/infrastructure/graph/mocks"
	"devaccountbook-backend/internal/infrastructure/observability"
	"devaccountbook-backend/internal/infrastructure/persistence/neo4j"
	"devaccountbook-backend/internal/interfaces/http/rest/handlers"
	"devaccountbook-backend/internal/interfaces/http/rest/middleware"
	"devaccountbook-backend/pkg/errors"
)

type opener struct{ session *mocks.MockSession }

func (o opener) NewSession(context.Context) graph.ClosableSession { return o.session }

type pinger struct{}

func (pinger) VerifyConnectivity(context.Context) error { return nil }

func testConfig() *config.Config {
	return &config.Config{
		Environment: config.Test,
		CORS: config.CORS{
			AllowedOrigins: []string{"http://localhost:5173"},
			AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type"},
			MaxAge:         300,
		},
		Metrics: config.Metrics{Enabled: true, Namespace: "test", Path: "/metrics"},
		Tracing: config.Tracing{ServiceName: "devaccountbook-test"},
	}
}

func newTestRouter(session *mocks.MockSession, decorators SessionDecorators) http.Handler {
	logger := zap.NewNop()
	cfg := testConfig()
	collector := observability.NewCollector(cfg.Metrics.Namespace)
	errorHandler := errors.NewErrorHandler(logger, false)
	factory := services.NewFactory(neo4j.TreeSettings{MaxDepth: 5, Traversal: neo4j.TraversalCypher}, collector, logger)

	return NewRouter(
		cfg,
		handlers.NewAccountEntryHandler(handlers.SessionResolver(factory), errorHandler, logger),
		handlers.NewHealthHandler(pinger{}, logger),
		errorHandler,
		collector,
		opener{session: session},
		decorators,
		logger,
	).Setup()
}

func TestRouter_CountThroughSession(t *testing.T) {
	session := new(mocks.MockSession)
	session.On("ExecuteRead", mock.Anything, mock.Anything, mock.Anything).
		Return([]graph.Record{{"total": int64(3)}}, nil).Once()
	session.On("Close", mock.Anything).Return(nil).Once()

	decorated := 0
	router := newTestRouter(session, SessionDecorators{
		func(s graph.Session) graph.Session { decorated++; return s },
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/account-entries/count", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"total":3}`, rec.Body.String())
	assert.Equal(t, 1, decorated)
	session.AssertExpectations(t)
}

func TestRouter_ProbesSkipSession(t *testing.T) {
	session := new(mocks.MockSession)
	router := newTestRouter(session, nil)

	for _, path := range []string{"/healthz", "/ready", "/metrics"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
	session.AssertNotCalled(t, "Close", mock.Anything)
}

func TestRouter_UnknownRoute(t *testing.T) {
	router := newTestRouter(new(mocks.MockSession), nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v2/nothing", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"NOT_FOUND"`)
}

func TestRouter_CORSPreflight(t *testing.T) {
	router := newTestRouter(new(mocks.MockSession), nil)

	req := httptest.NewRequest(http.MethodOptions, "/v1/account-entries", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPatch)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
}

var _ middleware.SessionOpener = opener{}
