package models

import (
	"slices"
	"time"
)

// WeightObservation is a single weighing. Producers may deliver them in any order.
type WeightObservation struct {
	Date               time.Time `json:"date" db:"event_date"`
	WeightKg           float64   `json:"weight_kg" db:"weight_kg"`
	BodyConditionScore *float64  `json:"body_condition_score,omitempty" db:"body_condition_score"`
}

// ReproductiveEventKind distinguishes breeding and birth events
type ReproductiveEventKind string

const (
	EventBreeding ReproductiveEventKind = "breeding"
	EventBirth    ReproductiveEventKind = "birth"
)

// ReproductiveEvent is a breeding or birth event. Only counts and dates are used
// by the engine, the attributes are carried for auditing.
type ReproductiveEvent struct {
	Date       time.Time             `json:"date" db:"event_date"`
	Kind       ReproductiveEventKind `json:"kind"`
	Attributes map[string]string     `json:"attributes,omitempty"`
}

// CalvingInterval returns the days between the two most recent births, 0 with fewer than two
func CalvingInterval(births []ReproductiveEvent) int {
	if len(births) < 2 {
		return 0
	}
	dates := make([]time.Time, len(births))
	for i, b := range births {
		dates[i] = b.Date
	}
	slices.SortFunc(dates, func(a, b time.Time) int { return b.Compare(a) })

	days := DaysBetween(dates[1], dates[0])
	if days < 0 {
		return 0
	}
	return days
}
