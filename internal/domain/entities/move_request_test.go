package entities

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/zatekoja/movequote/pkg/errors"
)

var testNow = time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

func validRequest() MoveRequest {
	return MoveRequest{
		OriginZip:         "10001",
		DestinationZip:    "90210",
		MoveDate:          testNow.AddDate(0, 0, 30),
		HomeSize:          HomeSizeTwoBed,
		RequestedServices: []string{"packing"},
	}
}

func TestParseHomeSize(t *testing.T) {
	tests := []struct {
		raw  string
		want HomeSize
	}{
		{"studio", HomeSizeStudio},
		{"Studio", HomeSizeStudio},
		{"1br", HomeSizeOneBed},
		{"2BR", HomeSizeTwoBed},
		{"2-bedroom", HomeSizeTwoBed},
		{"3 bedrooms", HomeSizeThreeBed},
		{"5br", HomeSizeFiveBed},
		{"mansion", HomeSize("mansion")},
		{"  ", HomeSize("")},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseHomeSize(tt.raw))
		})
	}
}

func TestMoveRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(r *MoveRequest)
		wantErr string
	}{
		{"valid", func(r *MoveRequest) {}, ""},
		{"move today is allowed", func(r *MoveRequest) { r.MoveDate = testNow.Add(-time.Hour) }, ""},
		{"missing origin", func(r *MoveRequest) { r.OriginZip = "" }, "originZip is required"},
		{"short origin", func(r *MoveRequest) { r.OriginZip = "1001" }, "originZip"},
		{"alpha destination", func(r *MoveRequest) { r.DestinationZip = "9021A" }, "destinationZip"},
		{"missing size", func(r *MoveRequest) { r.HomeSize = "" }, "homeSize is required"},
		{"missing date", func(r *MoveRequest) { r.MoveDate = time.Time{} }, "moveDate is required"},
		{"past date", func(r *MoveRequest) { r.MoveDate = testNow.AddDate(0, 0, -1) }, "past"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)

			err := req.Validate(testNow)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestMoveRequest_NormalizeDedupesInOrder(t *testing.T) {
	req := MoveRequest{
		OriginZip:         " 10001 ",
		HomeSize:          "2BR",
		RequestedServices: []string{"Packing", "storage", "packing", ""},
		SpecialItems:      []string{"Piano", "piano"},
	}
	req.Normalize()

	assert.Equal(t, "10001", req.OriginZip)
	assert.Equal(t, HomeSizeTwoBed, req.HomeSize)
	assert.Equal(t, []string{"packing", "storage"}, req.RequestedServices)
	assert.Equal(t, []string{"piano"}, req.SpecialItems)
	assert.True(t, req.HasService("PACKING"))
	assert.False(t, req.HasService("unpacking"))
}

func TestMoveRequest_DaysUntilMove(t *testing.T) {
	req := validRequest()
	assert.Equal(t, 30, req.DaysUntilMove(testNow))
}

func TestAvailabilityForDays(t *testing.T) {
	assert.Equal(t, AvailabilityLimited, AvailabilityForDays(6))
	assert.Equal(t, AvailabilityGood, AvailabilityForDays(7))
	assert.Equal(t, AvailabilityGood, AvailabilityForDays(29))
	assert.Equal(t, AvailabilityExcellent, AvailabilityForDays(30))
}

func TestMoveCategoryForDistance(t *testing.T) {
	assert.Equal(t, MoveCategoryLocal, MoveCategoryForDistance(100))
	assert.Equal(t, MoveCategoryLongDistance, MoveCategoryForDistance(100.5))
	assert.Equal(t, MoveCategoryLongDistance, MoveCategoryForDistance(1000))
	assert.Equal(t, MoveCategoryInternational, MoveCategoryForDistance(1000.1))
}

func TestUserProfile_CloneDoesNotAlias(t *testing.T) {
	p := NewUserProfile()
	p.SpecialNeeds[NeedStorage] = true

	c := p.Clone()
	c.SpecialNeeds[NeedPiano] = true

	assert.False(t, p.HasNeed(NeedPiano))
	assert.Equal(t, []SpecialNeed{NeedPiano, NeedStorage}, c.Needs())
}

func TestIntentTag_IsValid(t *testing.T) {
	for _, intent := range ValidIntents() {
		assert.True(t, intent.IsValid(), intent)
	}
	assert.False(t, IntentTag("weather").IsValid())
}
