package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/zatekoja/movequote/internal/domain/entities"
	"github.com/zatekoja/movequote/internal/domain/providers"
	"github.com/zatekoja/movequote/internal/infrastructure/observability"
)

const defaultHeartbeat = 30 * time.Second

// SSEHandler streams quote aggregation events as Server-Sent Events
type SSEHandler struct {
	eventBus  providers.EventBus
	heartbeat time.Duration

	mu      sync.RWMutex
	clients map[string]int // channel -> connected clients
}

// NewSSEHandler creates a new SSE handler
func NewSSEHandler(eventBus providers.EventBus) *SSEHandler {
	return &SSEHandler{
		eventBus:  eventBus,
		heartbeat: defaultHeartbeat,
		clients:   make(map[string]int),
	}
}

// SetHeartbeat changes the keep-alive interval
func (h *SSEHandler) SetHeartbeat(d time.Duration) {
	h.heartbeat = d
}

// StreamQuoteEvents handles SSE connections for aggregation activity.
// GET /api/events/quotes?category=local|longDistance|international
func (h *SSEHandler) StreamQuoteEvents(w http.ResponseWriter, r *http.Request) {
	channel := providers.EventChannelQuotes
	category := entities.MoveCategory(r.URL.Query().Get("category"))
	switch category {
	case "":
	case entities.MoveCategoryLocal, entities.MoveCategoryLongDistance, entities.MoveCategoryInternational:
		channel = providers.GetCategoryChannel(category)
	default:
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("unknown category %q", category))
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondWithError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	logger := observability.LoggerFromContext(r.Context())

	eventChan, err := h.eventBus.Subscribe(r.Context(), channel)
	if err != nil {
		logger.Error().Err(err).Str("channel", channel).Msg("Failed to subscribe to quote events")
		respondWithError(w, http.StatusServiceUnavailable, "event stream unavailable")
		return
	}

	h.registerClient(channel)
	defer h.unregisterClient(channel)

	// Streams outlive the server write timeout
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	h.sendEvent(w, "connected", map[string]interface{}{
		"channel":   channel,
		"timestamp": time.Now(),
	})
	flusher.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			logger.Debug().Str("channel", channel).Msg("Client disconnected from quote stream")
			return
		case <-ticker.C:
			h.sendEvent(w, "heartbeat", map[string]interface{}{
				"timestamp": time.Now(),
			})
			flusher.Flush()
		case event, ok := <-eventChan:
			if !ok {
				return
			}
			h.sendEvent(w, string(event.EventType), event)
			flusher.Flush()
		}
	}
}

// Stats reports connected clients per channel.
// GET /api/events/stats
func (h *SSEHandler) Stats(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	channels := make(map[string]int, len(h.clients))
	total := 0
	for channel, n := range h.clients {
		channels[channel] = n
		total += n
	}
	h.mu.RUnlock()

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"connectedClients": total,
		"channels":         channels,
	})
}

func (h *SSEHandler) registerClient(channel string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[channel]++
}

func (h *SSEHandler) unregisterClient(channel string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[channel]--
	if h.clients[channel] <= 0 {
		delete(h.clients, channel)
	}
}

// GetClientCount returns the number of connected clients
func (h *SSEHandler) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	count := 0
	for _, n := range h.clients {
		count += n
	}
	return count
}

// sendEvent writes one SSE frame
func (h *SSEHandler) sendEvent(w http.ResponseWriter, eventType string, data interface{}) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		observability.GetLogger().Warn().Err(err).Str("event", eventType).Msg("Failed to marshal event data")
		return
	}

	fmt.Fprintf(w, "event: %s\n", eventType)
	fmt.Fprintf(w, "data: %s\n\n", jsonData)
}
