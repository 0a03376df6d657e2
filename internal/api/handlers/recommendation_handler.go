package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/zatekoja/movequote/internal/application/services"
	"github.com/zatekoja/movequote/internal/domain/entities"
)

const maxMessageLength = 2000

// RecommendationService defines the conversational operations used by the handler.
type RecommendationService interface {
	GenerateRecommendations(ctx context.Context, in services.RecommendationInput) (*entities.RecommendationBundle, error)
	ClassifyMessage(text string) (entities.IntentTag, entities.UserProfile)
	EndSession(ctx context.Context, sessionID string) error
}

// RecommendationHandler handles recommendation and chat requests
type RecommendationHandler struct {
	service RecommendationService
}

// NewRecommendationHandler creates a new recommendation handler
func NewRecommendationHandler(service RecommendationService) *RecommendationHandler {
	return &RecommendationHandler{service: service}
}

type recommendationRequest struct {
	SessionID      string           `json:"sessionId"`
	Message        string           `json:"message"`
	Quotes         []entities.Quote `json:"quotes"`
	OriginZip      string           `json:"originZip"`
	DestinationZip string           `json:"destinationZip"`
}

type intentRequest struct {
	Message string `json:"message"`
}

// GenerateRecommendations handles POST /api/recommendations
func (h *RecommendationHandler) GenerateRecommendations(w http.ResponseWriter, r *http.Request) {
	var payload recommendationRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if len(payload.Message) > maxMessageLength {
		respondWithError(w, http.StatusBadRequest, "message is too long")
		return
	}

	bundle, err := h.service.GenerateRecommendations(r.Context(), services.RecommendationInput{
		SessionID:      payload.SessionID,
		Text:           payload.Message,
		Quotes:         payload.Quotes,
		OriginZip:      strings.TrimSpace(payload.OriginZip),
		DestinationZip: strings.TrimSpace(payload.DestinationZip),
	})
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, bundle)
}

// ClassifyIntent handles POST /api/chat/intent
func (h *RecommendationHandler) ClassifyIntent(w http.ResponseWriter, r *http.Request) {
	var payload intentRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if len(payload.Message) > maxMessageLength {
		respondWithError(w, http.StatusBadRequest, "message is too long")
		return
	}

	intent, profile := h.service.ClassifyMessage(payload.Message)
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"intent":  intent,
		"profile": profile,
	})
}

// EndSession handles DELETE /api/sessions/{id}
func (h *RecommendationHandler) EndSession(w http.ResponseWriter, r *http.Request) {
	if err := h.service.EndSession(r.Context(), r.PathValue("id")); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
