package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reviewgate/reviewgate/internal/models"
	"github.com/reviewgate/reviewgate/internal/store"
)

// countingEngine records review invocations.
type countingEngine struct {
	calls     int
	lastDiff  string
	developer string
	result    *models.FinalVerdict
}

func (e *countingEngine) Review(ctx context.Context, diff, developer string) *models.FinalVerdict {
	e.calls++
	e.lastDiff = diff
	e.developer = developer
	out := *e.result
	out.Developer = developer
	return &out
}

func passResult() *models.FinalVerdict {
	return &models.FinalVerdict{
		Verdict:       models.VerdictPass,
		VoteBreakdown: "PASS:5 FAIL:0 (of 5 models)",
		Reviewers:     make([]models.ReviewerVerdict, 5),
		Issues:        []models.Issue{},
	}
}

func setupTestServer(t *testing.T) (*Server, store.Store, *countingEngine) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	s, err := store.NewSQLiteStore(dbPath)
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { s.Close() })

	engine := &countingEngine{result: passResult()}
	srv := NewServer(s, engine, time.Minute)

	return srv, s, engine
}

func postReview(router http.Handler, apiKey, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", "/api/v1/review", strings.NewReader(body))
	if apiKey != "" {
		req.Header.Set("X-Api-Key", apiKey)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestReview_MissingKey(t *testing.T) {
	srv, _, engine := setupTestServer(t)

	w := postReview(srv.Router(), "", "diff --git a/x b/x")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Zero(t, engine.calls)
}

func TestReview_InvalidKey(t *testing.T) {
	srv, _, engine := setupTestServer(t)

	w := postReview(srv.Router(), "bogus", "diff --git a/x b/x")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Zero(t, engine.calls)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Contains(t, body["error"], "Invalid or disabled")
}

func TestReview_DisabledKey(t *testing.T) {
	srv, s, engine := setupTestServer(t)
	ctx := context.Background()

	k, err := s.CreateKey(ctx, "mallory")
	require.NoError(t, err)
	require.NoError(t, s.SetKeyEnabled(ctx, k.Key, false))

	w := postReview(srv.Router(), k.Key, "diff --git a/x b/x")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Zero(t, engine.calls)

	// A rejected caller is never charged.
	got, err := s.GetKey(ctx, k.Key)
	require.NoError(t, err)
	assert.Zero(t, got.UsageCount)
}

func TestReview_EmptyDiff(t *testing.T) {
	srv, s, engine := setupTestServer(t)

	k, err := s.CreateKey(context.Background(), "alice")
	require.NoError(t, err)

	for _, body := range []string{"", "   \n\t  "} {
		w := postReview(srv.Router(), k.Key, body)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	}
	assert.Zero(t, engine.calls)
}

func TestReview_Success(t *testing.T) {
	srv, s, engine := setupTestServer(t)
	ctx := context.Background()

	k, err := s.CreateKey(ctx, "alice")
	require.NoError(t, err)

	w := postReview(srv.Router(), k.Key, "diff --git a/x b/x\n+added line\n")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, engine.calls)
	assert.Equal(t, "alice", engine.developer)
	assert.Contains(t, engine.lastDiff, "+added line")

	var result models.FinalVerdict
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, models.VerdictPass, result.Verdict)
	assert.Equal(t, "alice", result.Developer)
	assert.Equal(t, "PASS:5 FAIL:0 (of 5 models)", result.VoteBreakdown)

	// Auth charged exactly one use.
	got, err := s.GetKey(ctx, k.Key)
	require.NoError(t, err)
	assert.EqualValues(t, 1, got.UsageCount)
}

func TestReview_OversizeBodyTruncatedNotRejected(t *testing.T) {
	srv, s, engine := setupTestServer(t)

	k, err := s.CreateKey(context.Background(), "alice")
	require.NoError(t, err)

	body := strings.Repeat("x", maxBodyBytes+4096)
	w := postReview(srv.Router(), k.Key, body)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, engine.calls)
	assert.Len(t, engine.lastDiff, maxBodyBytes)
}

func TestReview_ChargedEvenIfPanelAllErrors(t *testing.T) {
	srv, s, engine := setupTestServer(t)
	ctx := context.Background()
	engine.result = &models.FinalVerdict{
		Verdict:       models.VerdictPass,
		LowConfidence: true,
		Warning:       "Only 0/5 models responded — passing with low confidence (quorum is 3)",
	}

	k, err := s.CreateKey(ctx, "bob")
	require.NoError(t, err)

	w := postReview(srv.Router(), k.Key, "diff --git a/x b/x")
	assert.Equal(t, http.StatusOK, w.Code)

	var result models.FinalVerdict
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.True(t, result.LowConfidence)

	got, err := s.GetKey(ctx, k.Key)
	require.NoError(t, err)
	assert.EqualValues(t, 1, got.UsageCount)
}

func TestReview_PanicReturns500(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := store.NewSQLiteStore(dbPath)
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { s.Close() })

	k, err := s.CreateKey(context.Background(), "alice")
	require.NoError(t, err)

	srv := NewServer(s, panickyEngine{}, time.Minute)
	w := postReview(srv.Router(), k.Key, "diff --git a/x b/x")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

type panickyEngine struct{}

func (panickyEngine) Review(ctx context.Context, diff, developer string) *models.FinalVerdict {
	panic("aggregation broke")
}

func TestHealthz(t *testing.T) {
	srv, _, _ := setupTestServer(t)

	req := httptest.NewRequest("GET", "/api/v1/healthz", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestReview_MethodNotAllowed(t *testing.T) {
	srv, _, _ := setupTestServer(t)

	req := httptest.NewRequest("GET", "/api/v1/review", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
