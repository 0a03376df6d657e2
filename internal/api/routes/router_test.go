package routes_test

import (
	"bufio"
	"context"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/movequote/internal/adapters/cache"
	"github.com/zatekoja/movequote/internal/adapters/events"
	"github.com/zatekoja/movequote/internal/adapters/providers/geolocation"
	"github.com/zatekoja/movequote/internal/adapters/providers/movers"
	"github.com/zatekoja/movequote/internal/adapters/session"
	"github.com/zatekoja/movequote/internal/api/handlers"
	"github.com/zatekoja/movequote/internal/api/middleware"
	"github.com/zatekoja/movequote/internal/api/routes"
	"github.com/zatekoja/movequote/internal/application/services"
	"github.com/zatekoja/movequote/pkg/config"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	cfg := config.DefaultEngineConfig()
	for i := range cfg.Providers {
		cfg.Providers[i].FailureRate = 0
	}
	registry := movers.NewStaticRegistry(cfg)
	limiter := services.NewProviderRateLimiter(cfg.RateLimits, config.RateLimit{RequestLimit: 10, WindowDurationMs: 60_000})
	distance := geolocation.NewZipDistanceProvider()
	gateway := movers.NewSimulatedGateway(cfg, registry, limiter, distance, movers.GatewayOptions{
		Rand: rand.New(rand.NewPCG(3, 4)),
	})
	aggregator := services.NewQuoteAggregationService(registry, gateway, distance, cfg, services.DefaultAggregationSettings(), nil)
	memCache := cache.NewMemoryAdapter()
	bus := events.NewMemoryEventBus()
	t.Cleanup(func() { _ = bus.Close() })

	engine := services.NewQuoteEngine(services.EngineDeps{
		Aggregator: services.NewPublishingQuoteAggregator(aggregator, bus),
		Scorer:     services.NewQuoteScoringService(cfg),
		Profiles:   session.NewCacheProfileStore(memCache, time.Hour),
		Registry:   registry,
		Limiter:    limiter,
		Distance:   distance,
	})

	router := routes.NewRouter(
		handlers.NewQuoteHandler(engine),
		handlers.NewRecommendationHandler(engine),
		handlers.NewSSEHandler(bus),
		middleware.NewCacheMiddleware(memCache),
		middleware.NewCORS([]string{"http://localhost:3000"}),
		nil,
	)
	server := httptest.NewServer(router.SetupRoutes())
	t.Cleanup(server.Close)
	return server
}

func TestRouter_Health(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Get(server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRouter_QuotesAndRateLimit(t *testing.T) {
	server := newTestServer(t)

	moveDate := time.Now().AddDate(0, 0, 21).Format("2006-01-02")
	body := `{"originZip":"60601","destinationZip":"75201","moveDate":"` + moveDate + `","homeSize":"1-bedroom"}`
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, server.URL+"/api/quotes", strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(server.URL + "/api/providers/premier-moving-group/rate-limit")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(server.URL + "/api/providers/unknown/rate-limit")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRouter_ProviderListIsCached(t *testing.T) {
	server := newTestServer(t)

	first, err := http.Get(server.URL + "/api/providers")
	require.NoError(t, err)
	first.Body.Close()
	assert.Equal(t, "MISS", first.Header.Get("X-Cache"))

	second, err := http.Get(server.URL + "/api/providers")
	require.NoError(t, err)
	second.Body.Close()
	assert.Equal(t, "HIT", second.Header.Get("X-Cache"))
}

func TestRouter_MethodNotAllowedAndPreflight(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Get(server.URL + "/api/quotes")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

	req, err := http.NewRequest(http.MethodOptions, server.URL+"/api/quotes", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "http://localhost:3000", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), http.MethodDelete)
}

func TestRouter_QuoteEventStream(t *testing.T) {
	server := newTestServer(t)

	stream, err := http.Get(server.URL + "/api/events/quotes?category=longDistance")
	require.NoError(t, err)
	defer stream.Body.Close()
	assert.Equal(t, "text/event-stream", stream.Header.Get("Content-Type"))

	reader := bufio.NewReader(stream.Body)
	readUntil := func(prefix string) string {
		t.Helper()
		for {
			line, err := reader.ReadString('\n')
			require.NoError(t, err)
			if strings.HasPrefix(line, prefix) {
				return line
			}
		}
	}
	readUntil("event: connected")

	moveDate := time.Now().AddDate(0, 0, 30).Format("2006-01-02")
	body := `{"originZip":"60601","destinationZip":"75201","moveDate":"` + moveDate + `","homeSize":"studio"}`
	resp, err := http.Post(server.URL+"/api/quotes", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	readUntil("event: quotes_aggregated")
	data := readUntil("data: ")
	assert.Contains(t, data, `"moveCategory":"longDistance"`)
	assert.Contains(t, data, `"originZip":"60601"`)

	statsResp, err := http.Get(server.URL + "/api/events/stats")
	require.NoError(t, err)
	defer statsResp.Body.Close()
	assert.Equal(t, http.StatusOK, statsResp.StatusCode)
}
