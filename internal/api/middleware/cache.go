package middleware

import (
	"bytes"
	"net/http"
	"time"

	"github.com/zatekoja/movequote/internal/domain/providers"
	"github.com/zatekoja/movequote/internal/infrastructure/observability"
)

const (
	responseCachePrefix = "http:resp:"
	defaultResponseTTL  = time.Minute
)

// CacheMiddleware serves repeated GETs of read-only registry routes from the
// shared cache. Quote and recommendation routes are POSTs and never pass
// through it; per-provider limiter snapshots are excluded since they change
// on every provider call.
type CacheMiddleware struct {
	cache  providers.CacheProvider
	routes map[string]time.Duration
}

// NewCacheMiddleware caches GET /api/providers for one minute.
func NewCacheMiddleware(cache providers.CacheProvider) *CacheMiddleware {
	return NewCacheMiddlewareForRoutes(cache, map[string]time.Duration{
		"/api/providers": defaultResponseTTL,
	})
}

// NewCacheMiddlewareForRoutes caches the given exact paths with their TTLs.
func NewCacheMiddlewareForRoutes(cache providers.CacheProvider, routes map[string]time.Duration) *CacheMiddleware {
	return &CacheMiddleware{cache: cache, routes: routes}
}

// Middleware returns the caching handler.
func (m *CacheMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ttl, ok := m.routes[r.URL.Path]
		if m.cache == nil || r.Method != http.MethodGet || !ok {
			next.ServeHTTP(w, r)
			return
		}

		key := responseCacheKey(r)
		logger := observability.LoggerFromContext(r.Context())

		if cached, err := m.cache.Get(r.Context(), key); err == nil {
			logger.Debug().Str("key", key).Msg("HTTP cache hit")
			w.Header().Set("X-Cache", "HIT")
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			w.Write(cached)
			return
		}

		w.Header().Set("X-Cache", "MISS")
		tee := &teeResponseWriter{ResponseWriter: w}
		next.ServeHTTP(tee, r)

		if tee.status() != http.StatusOK || tee.body.Len() == 0 {
			return
		}
		if err := m.cache.Set(r.Context(), key, tee.body.Bytes(), int(ttl.Seconds())); err != nil {
			logger.Warn().Err(err).Str("key", key).Msg("Failed to cache HTTP response")
		}
	})
}

// responseCacheKey uses the path and the canonical (sorted) query.
func responseCacheKey(r *http.Request) string {
	key := responseCachePrefix + r.URL.Path
	if q := r.URL.Query(); len(q) > 0 {
		key += "?" + q.Encode()
	}
	return key
}

// teeResponseWriter writes through to the client while keeping a copy.
type teeResponseWriter struct {
	http.ResponseWriter
	body       bytes.Buffer
	statusCode int
}

func (t *teeResponseWriter) WriteHeader(statusCode int) {
	if t.statusCode != 0 {
		return
	}
	t.statusCode = statusCode
	t.ResponseWriter.WriteHeader(statusCode)
}

func (t *teeResponseWriter) Write(p []byte) (int, error) {
	if t.statusCode == 0 {
		t.WriteHeader(http.StatusOK)
	}
	t.body.Write(p)
	return t.ResponseWriter.Write(p)
}

func (t *teeResponseWriter) status() int {
	if t.statusCode == 0 {
		return http.StatusOK
	}
	return t.statusCode
}
