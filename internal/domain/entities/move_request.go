package entities

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	apperrors "github.com/zatekoja/movequote/pkg/errors"
)

// HomeSize is the canonical size key used by the base-price table.
type HomeSize string

const (
	HomeSizeStudio   HomeSize = "studio"
	HomeSizeOneBed   HomeSize = "1-bedroom"
	HomeSizeTwoBed   HomeSize = "2-bedroom"
	HomeSizeThreeBed HomeSize = "3-bedroom"
	HomeSizeFourBed  HomeSize = "4-bedroom"
	HomeSizeFiveBed  HomeSize = "5-bedroom"
)

var homeSizeAliases = map[string]HomeSize{
	"studio": HomeSizeStudio,
	"1br":    HomeSizeOneBed,
	"2br":    HomeSizeTwoBed,
	"3br":    HomeSizeThreeBed,
	"4br":    HomeSizeFourBed,
	"5br":    HomeSizeFiveBed,
	"1bed":   HomeSizeOneBed,
	"2bed":   HomeSizeTwoBed,
	"3bed":   HomeSizeThreeBed,
	"4bed":   HomeSizeFourBed,
	"5bed":   HomeSizeFiveBed,
}

// ParseHomeSize normalizes user-supplied sizes ("2BR", "2 bedroom") to the
// canonical key. Unknown sizes are kept lower-cased; pricing falls back to the
// default base price for them.
func ParseHomeSize(raw string) HomeSize {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return ""
	}
	compact := strings.NewReplacer(" ", "", "-", "", "_", "").Replace(s)
	if size, ok := homeSizeAliases[compact]; ok {
		return size
	}
	compact = strings.TrimSuffix(compact, "s")
	if strings.HasSuffix(compact, "bedroom") {
		n := strings.TrimSuffix(compact, "bedroom")
		if size, ok := homeSizeAliases[n+"br"]; ok {
			return size
		}
	}
	return HomeSize(s)
}

var zipPattern = regexp.MustCompile(`^\d{5}$`)

// MoveRequest describes a prospective move submitted for pricing.
type MoveRequest struct {
	OriginZip         string    `json:"originZip"`
	DestinationZip    string    `json:"destinationZip"`
	MoveDate          time.Time `json:"moveDate"`
	HomeSize          HomeSize  `json:"homeSize"`
	RequestedServices []string  `json:"requestedServices,omitempty"`
	SpecialItems      []string  `json:"specialItems,omitempty"`
}

// Normalize canonicalizes sizes and de-duplicates service and item lists
// while keeping their first-seen order.
func (r *MoveRequest) Normalize() {
	r.OriginZip = strings.TrimSpace(r.OriginZip)
	r.DestinationZip = strings.TrimSpace(r.DestinationZip)
	r.HomeSize = ParseHomeSize(string(r.HomeSize))
	r.RequestedServices = normalizeSet(r.RequestedServices)
	r.SpecialItems = normalizeSet(r.SpecialItems)
}

// Validate checks zip format, required fields and that the move date is not
// in the past relative to now. Dates compare at day granularity.
func (r *MoveRequest) Validate(now time.Time) error {
	if r.OriginZip == "" {
		return apperrors.NewValidationError("originZip is required")
	}
	if !zipPattern.MatchString(r.OriginZip) {
		return apperrors.NewValidationError(fmt.Sprintf("originZip %q must be 5 digits", r.OriginZip))
	}
	if r.DestinationZip == "" {
		return apperrors.NewValidationError("destinationZip is required")
	}
	if !zipPattern.MatchString(r.DestinationZip) {
		return apperrors.NewValidationError(fmt.Sprintf("destinationZip %q must be 5 digits", r.DestinationZip))
	}
	if r.HomeSize == "" {
		return apperrors.NewValidationError("homeSize is required")
	}
	if r.MoveDate.IsZero() {
		return apperrors.NewValidationError("moveDate is required")
	}
	if truncateDay(r.MoveDate).Before(truncateDay(now)) {
		return apperrors.NewValidationError("moveDate must not be in the past")
	}
	return nil
}

// DaysUntilMove returns whole days between now and the move date.
func (r *MoveRequest) DaysUntilMove(now time.Time) int {
	return int(truncateDay(r.MoveDate).Sub(truncateDay(now)).Hours() / 24)
}

// HasService reports whether the service was requested.
func (r *MoveRequest) HasService(service string) bool {
	s := strings.ToLower(strings.TrimSpace(service))
	for _, requested := range r.RequestedServices {
		if requested == s {
			return true
		}
	}
	return false
}

// Fingerprint is a stable identity for caching identical requests.
func (r *MoveRequest) Fingerprint() string {
	return fmt.Sprintf("%s:%s:%s:%s:%s:%s",
		r.OriginZip,
		r.DestinationZip,
		r.MoveDate.Format("2006-01-02"),
		r.HomeSize,
		strings.Join(r.RequestedServices, ","),
		strings.Join(r.SpecialItems, ","),
	)
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func normalizeSet(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
