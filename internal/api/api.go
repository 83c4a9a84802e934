// Package api exposes the review pipeline over HTTP. Callers authenticate
// with an X-Api-Key header and POST a raw diff; failure classes map to
// distinct status codes (401 unauthorized, 400 empty input, 500 internal) so
// tooling can branch without parsing prose.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/reviewgate/reviewgate/internal/models"
	"github.com/reviewgate/reviewgate/internal/store"
)

// maxBodyBytes caps how much of a request body is buffered. It is far above
// any configurable diff cap, so no reviewable content is ever lost to it.
const maxBodyBytes = 10 << 20

// ReviewEngine runs the reviewer panel. Satisfied by *review.Engine.
type ReviewEngine interface {
	Review(ctx context.Context, diff, developer string) *models.FinalVerdict
}

// Server provides the REST API handlers.
type Server struct {
	store  store.Store
	engine ReviewEngine

	// timeout is the hard outer deadline for one review request. Reviewers
	// still running when it fires surface as ERROR verdicts.
	timeout time.Duration
}

// NewServer creates a new API server. A timeout of zero disables the outer
// deadline (the per-reviewer timeouts still apply).
func NewServer(s store.Store, engine ReviewEngine, timeout time.Duration) *Server {
	return &Server{
		store:   s,
		engine:  engine,
		timeout: timeout,
	}
}

// Router returns an http.Handler for the API routes.
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/review", s.handleReview)
	mux.HandleFunc("GET /api/v1/healthz", s.handleHealthz)

	return recoverMiddleware(mux)
}

// recoverMiddleware converts a panic in request handling into a generic 500
// instead of dropping the connection.
func recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				slog.Error("panic in request handler", "path", r.URL.Path, "panic", rec)
				writeError(w, http.StatusInternalServerError, "internal error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReview is the gate: authenticate and charge usage first, validate
// input second, and only then dispatch the panel.
func (s *Server) handleReview(w http.ResponseWriter, r *http.Request) {
	apiKey := r.Header.Get("X-Api-Key")
	if apiKey == "" {
		writeError(w, http.StatusUnauthorized, "Missing X-Api-Key header")
		return
	}

	developer, err := s.store.Authorize(r.Context(), apiKey)
	if err != nil {
		if errors.Is(err, store.ErrUnauthorized) {
			writeError(w, http.StatusUnauthorized, "Invalid or disabled API key")
			return
		}
		slog.Error("authorize failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	// Bounded read: bytes past the cap are discarded, and the engine
	// truncates to its own character limit anyway. Oversize input is
	// truncated, never rejected.
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	diff := strings.TrimSpace(string(body))
	if diff == "" {
		writeError(w, http.StatusBadRequest, "No diff provided")
		return
	}

	ctx := r.Context()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	result := s.engine.Review(ctx, diff, developer)
	writeJSON(w, http.StatusOK, result)
}
