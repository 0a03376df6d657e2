package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	corsAllowMethods = "GET, POST, DELETE, OPTIONS"
	corsAllowHeaders = "Content-Type, Authorization"
	// X-Cache tells browser clients whether the provider list came from cache.
	corsExposeHeaders = "ETag, X-Cache"
	corsMaxAge        = 10 * time.Minute
)

// CORS answers cross-origin requests from the configured origins. A "*"
// entry allows any origin. DELETE is listed for ending a conversation
// session (DELETE /api/sessions/{id}), whose preflight would fail otherwise.
type CORS struct {
	wildcard bool
	origins  map[string]struct{}
}

// NewCORS builds the policy from a list of origins. Blank entries are
// ignored; an empty list allows any origin.
func NewCORS(allowedOrigins []string) *CORS {
	c := &CORS{origins: make(map[string]struct{}, len(allowedOrigins))}
	for _, origin := range allowedOrigins {
		origin = strings.TrimRight(strings.TrimSpace(origin), "/")
		switch origin {
		case "":
		case "*":
			c.wildcard = true
		default:
			c.origins[origin] = struct{}{}
		}
	}
	if len(c.origins) == 0 {
		c.wildcard = true
	}
	return c
}

func (c *CORS) allows(origin string) bool {
	if c.wildcard {
		return true
	}
	_, ok := c.origins[origin]
	return ok
}

// Middleware returns the CORS handler.
func (c *CORS) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		allowed := origin != "" && c.allows(origin)

		if allowed {
			if c.wildcard {
				w.Header().Set("Access-Control-Allow-Origin", "*")
			} else {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
			}
			w.Header().Set("Access-Control-Expose-Headers", corsExposeHeaders)
		}

		if r.Method != http.MethodOptions || r.Header.Get("Access-Control-Request-Method") == "" {
			next.ServeHTTP(w, r)
			return
		}

		// Preflight
		if !allowed {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.Header().Set("Access-Control-Allow-Methods", corsAllowMethods)
		w.Header().Set("Access-Control-Allow-Headers", corsAllowHeaders)
		w.Header().Set("Access-Control-Max-Age", strconv.Itoa(int(corsMaxAge.Seconds())))
		w.WriteHeader(http.StatusNoContent)
	})
}
