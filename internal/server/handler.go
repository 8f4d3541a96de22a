// Package server exposes a fitted model over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/Adithya-Monish-Kumar-K/vhash/internal/vcache"
	"github.com/Adithya-Monish-Kumar-K/vhash/internal/vhash"
	apperrors "github.com/Adithya-Monish-Kumar-K/vhash/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/vhash/pkg/logger"
)

const maxBodyBytes = 8 << 20

// Model is the read-only view of a fitted engine the service needs.
type Model interface {
	TransformContext(ctx context.Context, docs []string) ([][]float32, error)
	Dimensions() int
	Info() vhash.ModelInfo
	TopPhrases(n int) []vhash.PhraseWeight
}

type TransformRequest struct {
	Documents []string `json:"documents"`
}

type TransformResponse struct {
	Dimensions int         `json:"dimensions"`
	Vectors    [][]float32 `json:"vectors"`
}

type Handler struct {
	model        Model
	cache        *vcache.Cache
	namespace    string
	maxDocuments int
	logger       *slog.Logger
}

// New builds a Handler. cache may be nil; namespace scopes cache keys to the
// loaded model.
func New(model Model, cache *vcache.Cache, namespace string, maxDocuments int) *Handler {
	return &Handler{
		model:        model,
		cache:        cache,
		namespace:    namespace,
		maxDocuments: maxDocuments,
		logger:       slog.Default().With("component", "transform-handler"),
	}
}

func (h *Handler) Transform(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	log := logger.FromContext(ctx)

	var req TransformRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeError(w, fmt.Errorf("%w: request body exceeds %d bytes",
				apperrors.ErrTooManyDocuments, tooLarge.Limit))
			return
		}
		h.writeError(w, apperrors.Invalidf("decoding request body: %v", err))
		return
	}
	if len(req.Documents) == 0 {
		h.writeError(w, apperrors.Invalidf("documents must not be empty"))
		return
	}
	if h.maxDocuments > 0 && len(req.Documents) > h.maxDocuments {
		h.writeError(w, fmt.Errorf("%w: %d documents, limit is %d",
			apperrors.ErrTooManyDocuments, len(req.Documents), h.maxDocuments))
		return
	}

	var (
		vectors [][]float32
		err     error
	)
	if h.cache != nil {
		vectors, err = h.cache.Transform(ctx, h.namespace, req.Documents, h.model.TransformContext)
	} else {
		vectors, err = h.model.TransformContext(ctx, req.Documents)
	}
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("%w: %v", apperrors.ErrTimeout, err)
		}
		log.Error("transform failed", "documents", len(req.Documents), "error", err)
		h.writeError(w, err)
		return
	}

	log.Info("transform completed",
		"documents", len(req.Documents),
		"dimensions", h.model.Dimensions(),
		"latency_ms", time.Since(start).Milliseconds(),
	)
	h.writeJSON(w, http.StatusOK, TransformResponse{
		Dimensions: h.model.Dimensions(),
		Vectors:    vectors,
	})
}

// ModelInfo serves the model summary and, with ?top=N, its heaviest phrases.
func (h *Handler) ModelInfo(w http.ResponseWriter, r *http.Request) {
	resp := struct {
		vhash.ModelInfo
		TopPhrases []vhash.PhraseWeight `json:"top_phrases,omitempty"`
	}{ModelInfo: h.model.Info()}

	if top := r.URL.Query().Get("top"); top != "" {
		n, err := strconv.Atoi(top)
		if err != nil || n < 1 {
			h.writeError(w, apperrors.Invalidf("top must be a positive integer"))
			return
		}
		resp.TopPhrases = h.model.TopPhrases(n)
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}

	hits, misses := h.cache.Stats()
	total := hits + misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"hits":     hits,
		"misses":   misses,
		"total":    total,
		"hit_rate": fmt.Sprintf("%.1f%%", hitRate),
	})
}

func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "caching is disabled"})
		return
	}
	if err := h.cache.Invalidate(r.Context(), h.namespace); err != nil {
		h.logger.Error("cache invalidation failed", "error", err)
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

// writeError maps err onto a status through pkg/errors. Server-side failures
// are not echoed to the client.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := apperrors.HTTPStatusCode(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "internal error"
	}
	h.writeJSON(w, status, map[string]string{"error": message})
}
