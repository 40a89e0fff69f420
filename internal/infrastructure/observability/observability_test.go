package observability

import (
	"context"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"devaccountbook-backend/internal/infrastructure/graph"
	"devaccountbook-backend/internal/infrastructure/graph/mocks"
	"devaccountbook-backend/pkg/errors"
)

func TestCollector_BusinessCounters(t *testing.T) {
	c := NewCollector("test")

	c.EntryCreated()
	c.EntryCreated()
	c.EntryDeleted()
	c.RelationCreated("RELATES_TO")
	c.RelationDeleted("BLOCKS")

	assert.Equal(t, 2.0, testutil.ToFloat64(c.EntriesCreated))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.EntriesDeleted))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.RelationsCreated.WithLabelValues("RELATES_TO")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.RelationsDeleted.WithLabelValues("BLOCKS")))
}

func TestCollectors_AreIndependent(t *testing.T) {
	a := NewCollector("test")
	b := NewCollector("test")

	a.EntryCreated()

	assert.Equal(t, 0.0, testutil.ToFloat64(b.EntriesCreated))
}

func TestMetricsMiddleware_UsesRoutePattern(t *testing.T) {
	c := NewCollector("test")
	r := chi.NewRouter()
	r.Use(MetricsMiddleware(c))
	r.Get("/v1/account-entries/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/account-entries/abc", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(c.HTTPRequests.WithLabelValues("GET", "/v1/account-entries/{id}", "404")))
}

func TestCollector_Handler(t *testing.T) {
	c := NewCollector("test")
	c.EntryCreated()

	w := httptest.NewRecorder()
	c.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "test_entries_created_total 1"))
}

func TestTracingMiddleware_PassesThrough(t *testing.T) {
	_, err := InitTracing(context.Background(), TracingConfig{Enabled: false})
	require.NoError(t, err)

	h := TracingMiddleware("test")(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusTeapot, w.Code)
}

func TestInstrumentedSession_RecordsOperations(t *testing.T) {
	c := NewCollector("test")
	inner := new(mocks.MockSession)
	inner.On("ExecuteRead", mock.Anything, "MATCH", mock.Anything).Return([]graph.Record{{"n": 1}}, nil)
	inner.On("ExecuteWrite", mock.Anything, "CREATE", mock.Anything).
		Return(nil, errors.NewTransactionFailureError("entry.create", stderrors.New("down")))

	s := NewInstrumentedSession(inner, c, "neo4j")
	ctx := graph.WithOperation(context.Background(), "entry.get")

	rows, err := s.ExecuteRead(ctx, "MATCH", nil)
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	_, err = s.ExecuteWrite(graph.WithOperation(context.Background(), "entry.create"), "CREATE", nil)
	assert.True(t, errors.IsTransactionFailure(err))

	assert.Equal(t, 1.0, testutil.ToFloat64(c.GraphOperations.WithLabelValues("entry.get", "read", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.GraphOperations.WithLabelValues("entry.create", "write", "TRANSACTION_FAILURE")))
}
