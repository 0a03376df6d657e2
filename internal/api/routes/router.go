package routes

import (
	"net/http"

	"github.com/zatekoja/movequote/internal/api/handlers"
	"github.com/zatekoja/movequote/internal/api/middleware"
	"github.com/zatekoja/movequote/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	quoteHandler          *handlers.QuoteHandler
	recommendationHandler *handlers.RecommendationHandler
	sseHandler            *handlers.SSEHandler

	cacheMiddleware *middleware.CacheMiddleware
	cors            *middleware.CORS
	metrics         *observability.Metrics
}

// NewRouter creates a new router
func NewRouter(
	quoteHandler *handlers.QuoteHandler,
	recommendationHandler *handlers.RecommendationHandler,
	sseHandler *handlers.SSEHandler,
	cacheMiddleware *middleware.CacheMiddleware,
	cors *middleware.CORS,
	metrics *observability.Metrics,
) *Router {
	if cors == nil {
		cors = middleware.NewCORS(nil)
	}
	return &Router{
		mux:                   http.NewServeMux(),
		quoteHandler:          quoteHandler,
		recommendationHandler: recommendationHandler,
		sseHandler:            sseHandler,
		cacheMiddleware:       cacheMiddleware,
		cors:                  cors,
		metrics:               metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	// Health check endpoint
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	// Quote endpoints
	r.mux.HandleFunc("POST /api/quotes", r.quoteHandler.CalculateQuotes)

	// Provider registry endpoints
	r.mux.HandleFunc("GET /api/providers", r.quoteHandler.ListProviders)
	r.mux.HandleFunc("GET /api/providers/{id}/rate-limit", r.quoteHandler.GetRateLimit)

	// Conversation endpoints
	r.mux.HandleFunc("POST /api/recommendations", r.recommendationHandler.GenerateRecommendations)
	r.mux.HandleFunc("POST /api/chat/intent", r.recommendationHandler.ClassifyIntent)
	r.mux.HandleFunc("DELETE /api/sessions/{id}", r.recommendationHandler.EndSession)

	// Quote activity stats; the stream itself is mounted below
	if r.sseHandler != nil {
		r.mux.HandleFunc("GET /api/events/stats", r.sseHandler.Stats)
	}

	// Apply middleware in reverse order (last middleware wraps first)
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)

	if r.cacheMiddleware != nil {
		handler = r.cacheMiddleware.Middleware(handler)
	}

	handler = middleware.ObservabilityMiddleware(r.metrics, middleware.MuxRouteResolver(r.mux))(handler)

	// Apply HTTP performance optimizations (compression, ETag, cache headers)
	handler = middleware.ResponseOptimization(handler)

	// CORS wraps everything so headers are set even on cache HITs
	handler = r.cors.Middleware(handler)

	if r.sseHandler == nil {
		return handler
	}

	// Event streams bypass the buffering ETag and compression layers
	root := http.NewServeMux()
	root.Handle("GET /api/events/quotes", r.cors.Middleware(
		middleware.LoggingMiddleware(http.HandlerFunc(r.sseHandler.StreamQuoteEvents)),
	))
	root.Handle("/", handler)

	return root
}
