package server

import (
	"net/http"
	"time"

	"github.com/Adithya-Monish-Kumar-K/vhash/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/vhash/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/vhash/pkg/middleware"
)

// NewRouter builds the service handler.
//
// Route table:
//
//	POST   /v1/transform          → dense vectors for a batch of documents
//	GET    /v1/model              → model summary (?top=N adds phrases)
//	GET    /v1/cache/stats        → vector cache hit/miss counts
//	POST   /v1/cache/invalidate   → drop cached vectors of this model
//	GET    /health/live
//	GET    /health/ready
//
// Middleware chain (outermost first):
//
//	RequestID → Timeout → Metrics → mux
func NewRouter(h *Handler, checker *health.Checker, m *metrics.Metrics, timeout time.Duration) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/transform", h.Transform)
	mux.HandleFunc("GET /v1/model", h.ModelInfo)
	mux.HandleFunc("GET /v1/cache/stats", h.CacheStats)
	mux.HandleFunc("POST /v1/cache/invalidate", h.CacheInvalidate)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	var chain http.Handler = mux
	chain = middleware.Metrics(m)(chain)
	if timeout > 0 {
		chain = middleware.Timeout(timeout)(chain)
	}
	chain = middleware.RequestID(chain)
	return chain
}
