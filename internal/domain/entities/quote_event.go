package entities

import "time"

// QuoteEventType names an activity published on the quote event bus.
type QuoteEventType string

const (
	QuoteEventAggregated QuoteEventType = "quotes_aggregated"
	QuoteEventFallback   QuoteEventType = "quotes_fallback"
)

// QuoteEvent summarizes one completed provider fan-out. It carries no user
// text and no session identity.
type QuoteEvent struct {
	ID                  string            `json:"id"`
	EventType           QuoteEventType    `json:"eventType"`
	OriginZip           string            `json:"originZip"`
	DestinationZip      string            `json:"destinationZip"`
	HomeSize            HomeSize          `json:"homeSize"`
	MoveCategory        MoveCategory      `json:"moveCategory"`
	ProvidersQueried    int               `json:"providersQueried"`
	SuccessfulResponses int               `json:"successfulResponses"`
	Failures            []ProviderFailure `json:"failures,omitempty"`
	LowestPrice         int               `json:"lowestPrice"`
	Timestamp           time.Time         `json:"timestamp"`
}

// NewQuoteEvent builds the event for an aggregation result.
func NewQuoteEvent(id string, req MoveRequest, result *AggregateResult, at time.Time) *QuoteEvent {
	event := &QuoteEvent{
		ID:                  id,
		EventType:           QuoteEventAggregated,
		OriginZip:           req.OriginZip,
		DestinationZip:      req.DestinationZip,
		HomeSize:            req.HomeSize,
		MoveCategory:        result.MoveCategory,
		ProvidersQueried:    result.ProvidersQueried,
		SuccessfulResponses: result.SuccessfulResponses,
		Failures:            result.Failures,
		Timestamp:           at,
	}
	if result.UsedFallback {
		event.EventType = QuoteEventFallback
	}
	if len(result.Quotes) > 0 {
		event.LowestPrice = result.Quotes[0].TotalPrice
	}
	return event
}
