package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irfndi/bovara-ml/internal/models"
)

func TestCalvingWindow(t *testing.T) {
	est := CalvingWindow(ptr(daysFromToday(-100)), 285, testToday)

	require.NotNil(t, est.Date)
	assert.Equal(t, daysFromToday(185), *est.Date)
	assert.Greater(t, est.Confidence, 0.0)
	assert.LessOrEqual(t, est.Confidence, 0.95)
	assert.InDelta(t, 0.65*0.95, est.Confidence, 1e-12)
}

func TestCalvingWindow_NotActionable(t *testing.T) {
	unknown := CalvingWindow(nil, 285, testToday)
	assert.Nil(t, unknown.Date)
	assert.Equal(t, 0.0, unknown.Confidence)
	assert.Equal(t, models.ReasonUnknownInsemination, unknown.Reason)

	past := CalvingWindow(ptr(daysFromToday(-300)), 285, testToday)
	assert.Nil(t, past.Date)
	assert.Equal(t, 0.0, past.Confidence)
	assert.Equal(t, models.ReasonCalvingElapsed, past.Reason)

	dueToday := CalvingWindow(ptr(daysFromToday(-285)), 285, testToday)
	require.NotNil(t, dueToday.Date)
	assert.Equal(t, testToday, *dueToday.Date)
}

func TestDryOffDate(t *testing.T) {
	calving := models.DateEstimate{Date: ptr(daysFromToday(185)), Confidence: 0.6}

	est := DryOffDate(calving, 60, testToday)

	require.NotNil(t, est.Date)
	assert.Equal(t, daysFromToday(125), *est.Date)
	assert.Equal(t, 0.90, est.Confidence)
}

func TestDryOffDate_ElapsedClampsToToday(t *testing.T) {
	calving := models.DateEstimate{Date: ptr(daysFromToday(30)), Confidence: 0.6}

	est := DryOffDate(calving, 60, testToday)

	require.NotNil(t, est.Date)
	assert.Equal(t, testToday, *est.Date)
	assert.Equal(t, 0.5, est.Confidence)
	assert.Equal(t, models.ReasonDryOffElapsed, est.Reason)
}

func TestDryOffDate_NoCalving(t *testing.T) {
	est := DryOffDate(models.DateEstimate{}, 60, testToday)

	assert.Nil(t, est.Date)
	assert.Equal(t, models.ReasonNoCalvingDate, est.Reason)
}

func TestNextHeat(t *testing.T) {
	tests := []struct {
		name     string
		lastHeat *int
		want     int
	}{
		{"rolls forward two cycles", ptr(-30), 12},
		{"lands on today", ptr(-21), 0},
		{"heat recorded today", ptr(0), 0},
		{"future heat kept", ptr(5), 5},
		{"unknown heat projects one cycle", nil, 21},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var last *time.Time
			if tt.lastHeat != nil {
				last = ptr(daysFromToday(*tt.lastHeat))
			}
			est := NextHeat(last, 21, testToday)

			require.NotNil(t, est.Date)
			assert.Equal(t, daysFromToday(tt.want), *est.Date)
			assert.Equal(t, NextHeatConfidence, est.Confidence)
		})
	}
}

func TestNextHeat_InvalidCycle(t *testing.T) {
	est := NextHeat(ptr(daysFromToday(-10)), 0, testToday)

	assert.Nil(t, est.Date)
	assert.Equal(t, models.ReasonInvalidCycle, est.Reason)
}

func TestConceptionSuccess(t *testing.T) {
	tests := []struct {
		name                        string
		age, health, open, attempts int
		want                        float64
	}{
		{"healthy adult", 1000, 90, 50, 2, 0.80},
		{"heifer", 400, 90, 50, 0, 0.65},
		{"old cow", 2600, 90, 50, 0, 0.65},
		{"poor health", 1000, 69, 50, 0, 0.60},
		{"long open", 1000, 90, 151, 0, 0.55},
		{"one extra attempt", 1000, 90, 50, 4, 0.70},
		{"three extra attempts", 1000, 90, 50, 6, 0.50},
		{"every penalty floors", 300, 50, 200, 5, 0.10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ConceptionSuccess(tt.age, tt.health, tt.open, tt.attempts), 1e-9)
		})
	}
}
