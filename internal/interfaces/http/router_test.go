package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/aopwiki-graph/internal/domain/run"
	"github.com/turtacn/aopwiki-graph/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/aopwiki-graph/internal/interfaces/http/handlers"
	pkgerrors "github.com/turtacn/aopwiki-graph/pkg/errors"
)

type MockRunRepository struct {
	mock.Mock
}

func (m *MockRunRepository) Start(ctx context.Context, rn *run.Run) error {
	return m.Called(ctx, rn).Error(0)
}

func (m *MockRunRepository) Finish(ctx context.Context, rn *run.Run) error {
	return m.Called(ctx, rn).Error(0)
}

func (m *MockRunRepository) Get(ctx context.Context, id uuid.UUID) (*run.Run, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*run.Run), args.Error(1)
}

func (m *MockRunRepository) ListRecent(ctx context.Context, limit int) ([]*run.Run, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*run.Run), args.Error(1)
}

func serve(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestRouter_Liveness(t *testing.T) {
	r := NewRouter(RouterConfig{HealthHandler: handlers.NewHealthHandler("v1.2.3"), Logger: logging.NewNopLogger()})
	w := serve(t, r, "/healthz")
	require.Equal(t, http.StatusOK, w.Code)

	var body handlers.LivenessResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "alive", body.Status)
	assert.Equal(t, "v1.2.3", body.Version)
}

func TestRouter_Readiness(t *testing.T) {
	ok := handlers.CheckFunc{Component: "postgres", Fn: func(context.Context) error { return nil }}
	down := handlers.CheckFunc{Component: "neo4j", Fn: func(context.Context) error { return errors.New("connection refused") }}

	w := serve(t, NewRouter(RouterConfig{HealthHandler: handlers.NewHealthHandler("v", ok)}), "/readyz")
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(t, NewRouter(RouterConfig{HealthHandler: handlers.NewHealthHandler("v", ok, down)}), "/readyz")
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	var body handlers.ReadinessResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "not_ready", body.Status)
	assert.Equal(t, "healthy", body.Components["postgres"].Status)
	assert.Equal(t, "connection refused", body.Components["neo4j"].Error)
}

func TestRouter_Metrics(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("aopgraph_runs_total 1\n"))
	})
	w := serve(t, NewRouter(RouterConfig{MetricsHandler: metrics}), "/metrics")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "aopgraph_runs_total")
}

func TestRouter_UnmountedRoutes(t *testing.T) {
	r := NewRouter(RouterConfig{})
	assert.Equal(t, http.StatusNotFound, serve(t, r, "/healthz").Code)
	assert.Equal(t, http.StatusNotFound, serve(t, r, "/runs").Code)
}

func TestRouter_Runs(t *testing.T) {
	repo := new(MockRunRepository)
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	rn := run.NewRun("aop-wiki-xml-2024-04-01", "HGNCgenes.txt", now)
	repo.On("ListRecent", mock.Anything, 5).Return([]*run.Run{rn}, nil)
	repo.On("ListRecent", mock.Anything, 20).Return(nil, nil)
	repo.On("Get", mock.Anything, rn.ID).Return(rn, nil)
	missing := uuid.New()
	repo.On("Get", mock.Anything, missing).Return(nil, pkgerrors.New(pkgerrors.ErrCodeNotFound, "run not found"))

	r := NewRouter(RouterConfig{RunHandler: handlers.NewRunHandler(repo)})

	w := serve(t, r, "/runs?limit=5")
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Runs []run.Run `json:"runs"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Runs, 1)
	assert.Equal(t, rn.ID, list.Runs[0].ID)

	w = serve(t, r, "/runs")
	assert.JSONEq(t, `{"runs":[]}`, w.Body.String())

	assert.Equal(t, http.StatusBadRequest, serve(t, r, "/runs?limit=abc").Code)
	assert.Equal(t, http.StatusOK, serve(t, r, "/runs/"+rn.ID.String()).Code)
	assert.Equal(t, http.StatusNotFound, serve(t, r, "/runs/"+missing.String()).Code)
	assert.Equal(t, http.StatusBadRequest, serve(t, r, "/runs/not-a-uuid").Code)
	repo.AssertExpectations(t)
}

func TestServer_StartStop(t *testing.T) {
	s := NewServer("127.0.0.1:0", NewRouter(RouterConfig{}), nil)
	done := make(chan error, 1)
	go func() { done <- s.Start() }()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, s.Stop(ctx))
	assert.NoError(t, <-done)
}
