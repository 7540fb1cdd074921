package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jafarshop/ledgersync/internal/api/middleware"
	"github.com/jafarshop/ledgersync/internal/config"
	"github.com/jafarshop/ledgersync/internal/domain"
	"github.com/jafarshop/ledgersync/internal/repository"
	"github.com/jafarshop/ledgersync/internal/repository/memory"
	"github.com/jafarshop/ledgersync/pkg/errors"
)

const adminKey = "operator-key"

var adminKeyHash string

func init() {
	gin.SetMode(gin.TestMode)
	hash, err := middleware.HashAPIKey(adminKey)
	if err != nil {
		panic(err)
	}
	adminKeyHash = hash
}

type stubSyncer struct {
	run   *domain.SyncRun
	err   error
	calls int
	ctx   context.Context
}

func (s *stubSyncer) RunSync(ctx context.Context) (*domain.SyncRun, error) {
	s.calls++
	s.ctx = ctx
	return s.run, s.err
}

func setupRouter(t *testing.T, syncer *stubSyncer) (*gin.Engine, *repository.Repositories) {
	t.Helper()
	repos := memory.NewRepositories()
	cfg := &config.Config{
		Environment: "test",
		API:         config.APIConfig{AdminKeyHash: adminKeyHash},
	}
	return NewRouter(cfg, repos, syncer, zap.NewNop()), repos
}

func doRequest(router *gin.Engine, method, path string, authorized bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if authorized {
		req.Header.Set("Authorization", "Bearer "+adminKey)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealthAndIndex(t *testing.T) {
	router, _ := setupRouter(t, &stubSyncer{})

	w := doRequest(router, http.MethodGet, "/health", false)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = doRequest(router, http.MethodGet, "/", false)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "POST /internal/sync")
}

func TestMetricsEndpoint(t *testing.T) {
	router, _ := setupRouter(t, &stubSyncer{})

	w := doRequest(router, http.MethodGet, "/metrics", false)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestInternalRoutesRequireKey(t *testing.T) {
	syncer := &stubSyncer{}
	router, _ := setupRouter(t, syncer)

	for _, route := range []struct{ method, path string }{
		{http.MethodPost, "/internal/sync"},
		{http.MethodGet, "/internal/sync/stats"},
		{http.MethodGet, "/internal/sync/logs"},
	} {
		w := doRequest(router, route.method, route.path, false)
		assert.Equal(t, http.StatusUnauthorized, w.Code, route.path)
	}
	assert.Zero(t, syncer.calls)
}

func TestTriggerSync(t *testing.T) {
	run := &domain.SyncRun{
		ID:              uuid.New(),
		State:           domain.RunStateDone,
		ProductsAdded:   2,
		ProductsUpdated: 1,
	}

	t.Run("accepted", func(t *testing.T) {
		syncer := &stubSyncer{run: run}
		router, _ := setupRouter(t, syncer)

		w := doRequest(router, http.MethodPost, "/internal/sync", true)
		require.Equal(t, http.StatusAccepted, w.Code)

		var body struct {
			Run domain.SyncRun `json:"run"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, run.ID, body.Run.ID)
		assert.Equal(t, domain.RunStateDone, body.Run.State)
		assert.Equal(t, 2, body.Run.ProductsAdded)
		assert.Equal(t, 1, syncer.calls)
		assert.NoError(t, syncer.ctx.Err())
	})

	t.Run("conflict", func(t *testing.T) {
		syncer := &stubSyncer{err: &errors.ErrConflict{Message: "sync already running"}}
		router, _ := setupRouter(t, syncer)

		w := doRequest(router, http.MethodPost, "/internal/sync", true)
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.JSONEq(t, `{"error":"sync already running"}`, w.Body.String())
	})

	t.Run("aborted", func(t *testing.T) {
		aborted := &domain.SyncRun{ID: uuid.New(), State: domain.RunStateAborted, Error: "catalog down"}
		syncer := &stubSyncer{run: aborted, err: fmt.Errorf("fetch catalog: %w", &errors.ErrTransport{Op: "fetch catalog", StatusCode: 503})}
		router, _ := setupRouter(t, syncer)

		w := doRequest(router, http.MethodPost, "/internal/sync", true)
		assert.Equal(t, http.StatusBadGateway, w.Code)

		var body struct {
			Error string         `json:"error"`
			Run   domain.SyncRun `json:"run"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Contains(t, body.Error, "ledger returned 503")
		assert.Equal(t, domain.RunStateAborted, body.Run.State)
	})
}

func TestGetStats(t *testing.T) {
	router, repos := setupRouter(t, &stubSyncer{})
	ctx := context.Background()

	finished := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repos.Stats.SaveRun(ctx, &domain.SyncRun{
		FinishedAt:      finished,
		ProductsAdded:   4,
		ProductsUpdated: 7,
	}))
	require.NoError(t, repos.Stats.IncrementCategoriesCreated(ctx, 2))

	w := doRequest(router, http.MethodGet, "/internal/sync/stats", true)
	require.Equal(t, http.StatusOK, w.Code)

	var stats domain.SyncStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	require.NotNil(t, stats.LastSyncAt)
	assert.True(t, finished.Equal(*stats.LastSyncAt))
	assert.Equal(t, 4, stats.ProductsAdded)
	assert.Equal(t, 7, stats.ProductsUpdated)
	assert.Equal(t, 2, stats.CategoriesCreated)
}

func TestListLogs(t *testing.T) {
	router, repos := setupRouter(t, &stubSyncer{})
	ctx := context.Background()

	runA, runB := uuid.New(), uuid.New()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, e := range []struct {
		run   uuid.UUID
		event string
	}{
		{runA, "sync.started"},
		{runA, "sync.completed"},
		{runB, "sync.started"},
	} {
		require.NoError(t, repos.SyncLog.Create(ctx, &domain.SyncLogEntry{
			RunID:     e.run,
			Level:     domain.LogLevelInfo,
			EventType: e.event,
			Message:   e.event,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	type logsResponse struct {
		Entries []domain.SyncLogEntry `json:"entries"`
	}

	t.Run("recent with limit", func(t *testing.T) {
		w := doRequest(router, http.MethodGet, "/internal/sync/logs?limit=2", true)
		require.Equal(t, http.StatusOK, w.Code)

		var body logsResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		require.Len(t, body.Entries, 2)
		assert.Equal(t, runB, body.Entries[0].RunID)
		assert.Equal(t, "sync.completed", body.Entries[1].EventType)
	})

	t.Run("by run", func(t *testing.T) {
		w := doRequest(router, http.MethodGet, "/internal/sync/logs?run_id="+runA.String(), true)
		require.Equal(t, http.StatusOK, w.Code)

		var body logsResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		require.Len(t, body.Entries, 2)
		assert.Equal(t, "sync.started", body.Entries[0].EventType)
		assert.Equal(t, "sync.completed", body.Entries[1].EventType)
	})

	t.Run("unknown run is empty list", func(t *testing.T) {
		w := doRequest(router, http.MethodGet, "/internal/sync/logs?run_id="+uuid.NewString(), true)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"entries":[]}`, w.Body.String())
	})

	t.Run("bad params", func(t *testing.T) {
		for _, q := range []string{"?limit=0", "?limit=-3", "?limit=abc", "?run_id=nope"} {
			w := doRequest(router, http.MethodGet, "/internal/sync/logs"+q, true)
			assert.Equal(t, http.StatusBadRequest, w.Code, q)
		}
	})
}

func TestUnconfiguredAdminKey(t *testing.T) {
	cfg := &config.Config{Environment: "test"}
	router := NewRouter(cfg, memory.NewRepositories(), &stubSyncer{}, zap.NewNop())

	w := doRequest(router, http.MethodGet, "/internal/sync/stats", true)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
