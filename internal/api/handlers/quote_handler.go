package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/zatekoja/movequote/internal/domain/entities"
)

const moveDateLayout = "2006-01-02"

// QuoteService defines the quote operations used by the handler.
type QuoteService interface {
	CalculateQuotes(ctx context.Context, req entities.MoveRequest) (*entities.AggregateResult, error)
	Providers(ctx context.Context) ([]entities.MovingProvider, error)
	RateLimitState(ctx context.Context, providerID string) (entities.RateLimitState, error)
}

// QuoteHandler handles quote and provider registry requests
type QuoteHandler struct {
	service QuoteService
}

// NewQuoteHandler creates a new quote handler
func NewQuoteHandler(service QuoteService) *QuoteHandler {
	return &QuoteHandler{service: service}
}

type quoteRequest struct {
	OriginZip         string   `json:"originZip"`
	DestinationZip    string   `json:"destinationZip"`
	MoveDate          string   `json:"moveDate"`
	HomeSize          string   `json:"homeSize"`
	RequestedServices []string `json:"requestedServices"`
	SpecialItems      []string `json:"specialItems"`
}

func (q quoteRequest) toMoveRequest() (entities.MoveRequest, error) {
	req := entities.MoveRequest{
		OriginZip:         q.OriginZip,
		DestinationZip:    q.DestinationZip,
		HomeSize:          entities.HomeSize(q.HomeSize),
		RequestedServices: q.RequestedServices,
		SpecialItems:      q.SpecialItems,
	}
	if strings.TrimSpace(q.MoveDate) != "" {
		date, err := time.Parse(moveDateLayout, strings.TrimSpace(q.MoveDate))
		if err != nil {
			return req, err
		}
		req.MoveDate = date
	}
	return req, nil
}

// CalculateQuotes handles POST /api/quotes
func (h *QuoteHandler) CalculateQuotes(w http.ResponseWriter, r *http.Request) {
	var payload quoteRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	req, err := payload.toMoveRequest()
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "moveDate must be formatted as YYYY-MM-DD")
		return
	}

	result, err := h.service.CalculateQuotes(r.Context(), req)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

// ListProviders handles GET /api/providers
func (h *QuoteHandler) ListProviders(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.Providers(r.Context())
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	if list == nil {
		list = []entities.MovingProvider{}
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"providers": list,
		"count":     len(list),
	})
}

// GetRateLimit handles GET /api/providers/{id}/rate-limit
func (h *QuoteHandler) GetRateLimit(w http.ResponseWriter, r *http.Request) {
	providerID := r.PathValue("id")
	if providerID == "" {
		respondWithError(w, http.StatusBadRequest, "provider ID is required")
		return
	}

	state, err := h.service.RateLimitState(r.Context(), providerID)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"providerId":       state.ProviderID,
		"requestCount":     state.RequestCount,
		"windowLimit":      state.WindowLimit,
		"windowDurationMs": state.WindowDuration.Milliseconds(),
		"windowStartedAt":  state.WindowStartedAt,
		"remaining":        max(state.WindowLimit-state.RequestCount, 0),
	})
}
