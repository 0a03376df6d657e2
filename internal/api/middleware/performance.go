package middleware

import (
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
)

// minCompressBytes is the smallest body worth gzipping. Error envelopes and
// limiter snapshots stay uncompressed.
const minCompressBytes = 1024

// cachePolicy pairs a path prefix with the Cache-Control value it gets.
type cachePolicy struct {
	prefix string
	exact  bool
	value  string
}

// Registry listings change only when the engine config is reloaded. Limiter
// snapshots, quotes and recommendations are live.
var cachePolicies = []cachePolicy{
	{prefix: "/api/providers", exact: true, value: "public, max-age=60, must-revalidate"},
	{prefix: "/api/providers/", value: "no-store"},
	{prefix: "/health", exact: true, value: "no-store"},
}

const defaultCachePolicy = "private, no-cache, must-revalidate"

func cacheControlFor(path string) string {
	for _, p := range cachePolicies {
		if (p.exact && path == p.prefix) || (!p.exact && strings.HasPrefix(path, p.prefix)) {
			return p.value
		}
	}
	return defaultCachePolicy
}

var gzipWriterPool = sync.Pool{
	New: func() interface{} {
		gz, _ := gzip.NewWriterLevel(io.Discard, gzip.DefaultCompression)
		return gz
	},
}

// bufferedResponse holds the handler's output until the middleware decides
// on ETag and encoding.
type bufferedResponse struct {
	http.ResponseWriter
	body       bytes.Buffer
	statusCode int
}

func (b *bufferedResponse) Write(p []byte) (int, error) {
	return b.body.Write(p)
}

func (b *bufferedResponse) WriteHeader(statusCode int) {
	if b.statusCode == 0 {
		b.statusCode = statusCode
	}
}

func (b *bufferedResponse) status() int {
	if b.statusCode == 0 {
		return http.StatusOK
	}
	return b.statusCode
}

// ResponseOptimization sets per-route Cache-Control, answers conditional GETs
// with 304 using a body-hash ETag, and gzips bodies of at least
// minCompressBytes when the client accepts it. Streaming endpoints must be
// mounted outside this middleware since the body is buffered.
func ResponseOptimization(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", cacheControlFor(r.URL.Path))

		buf := &bufferedResponse{ResponseWriter: w}
		next.ServeHTTP(buf, r)

		status := buf.status()
		body := buf.body.Bytes()

		if status == http.StatusOK && (r.Method == http.MethodGet || r.Method == http.MethodHead) {
			etag := bodyETag(body)
			w.Header().Set("ETag", etag)
			if etagMatches(r.Header.Get("If-None-Match"), etag) {
				w.WriteHeader(http.StatusNotModified)
				return
			}
		}

		w.Header().Add("Vary", "Accept-Encoding")
		if len(body) < minCompressBytes || !acceptsGzip(r) {
			w.Header().Set("Content-Length", strconv.Itoa(len(body)))
			w.WriteHeader(status)
			w.Write(body)
			return
		}

		gz := gzipWriterPool.Get().(*gzip.Writer)
		defer gzipWriterPool.Put(gz)
		gz.Reset(w)

		w.Header().Set("Content-Encoding", "gzip")
		w.Header().Del("Content-Length")
		w.WriteHeader(status)
		gz.Write(body)
		gz.Close()
	})
}

func bodyETag(body []byte) string {
	sum := sha256.Sum256(body)
	return `"` + hex.EncodeToString(sum[:16]) + `"`
}

func etagMatches(header, etag string) bool {
	if header == "" {
		return false
	}
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || strings.TrimPrefix(candidate, "W/") == etag {
			return true
		}
	}
	return false
}

func acceptsGzip(r *http.Request) bool {
	for _, enc := range strings.Split(r.Header.Get("Accept-Encoding"), ",") {
		name, _, _ := strings.Cut(strings.TrimSpace(enc), ";")
		if strings.EqualFold(name, "gzip") {
			return true
		}
	}
	return false
}
