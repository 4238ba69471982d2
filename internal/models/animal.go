package models

import (
	"time"

	"github.com/google/uuid"
)

// DefaultAgeDays is used when an animal has no recorded birth date
const DefaultAgeDays = 365

// Animal represents an animal row as read from the animals table
type Animal struct {
	ID                   uuid.UUID    `json:"id" db:"id"`
	RanchID              uuid.UUID    `json:"ranch_id" db:"ranch_id"`
	LotID                *uuid.UUID   `json:"lot_id,omitempty" db:"lot_id"`
	VisualTag            string       `json:"visual_tag" db:"visual_tag"`
	ElectronicTag        *string      `json:"electronic_tag,omitempty" db:"electronic_tag"`
	Name                 *string      `json:"name,omitempty" db:"name"`
	Sex                  string       `json:"sex" db:"sex"`
	Breed                *string      `json:"breed,omitempty" db:"breed"`
	BirthDate            *time.Time   `json:"birth_date,omitempty" db:"birth_date"`
	HealthScore          int          `json:"health_score" db:"health_score"`
	LastHeatDate         *time.Time   `json:"last_heat_date,omitempty" db:"last_heat_date"`
	LastBirthDate        *time.Time   `json:"last_birth_date,omitempty" db:"last_birth_date"`
	LastInseminationDate *time.Time   `json:"last_insemination_date,omitempty" db:"last_insemination_date"`
	CurrentClusterLabel  ClusterLabel `json:"current_cluster_label" db:"current_cluster_label"`
	IsActive             bool         `json:"is_active" db:"is_active"`
	ServerUpdatedAt      time.Time    `json:"server_updated_at" db:"server_updated_at"`
}

// Snapshot returns the immutable engine input for this animal
func (a Animal) Snapshot() AnimalSnapshot {
	return AnimalSnapshot{
		BirthDate:            a.BirthDate,
		HealthScore:          a.HealthScore,
		LastHeatDate:         a.LastHeatDate,
		LastBirthDate:        a.LastBirthDate,
		LastInseminationDate: a.LastInseminationDate,
	}
}

// AnimalSnapshot is the subset of animal state one invocation reads
type AnimalSnapshot struct {
	BirthDate            *time.Time
	HealthScore          int
	LastHeatDate         *time.Time
	LastBirthDate        *time.Time
	LastInseminationDate *time.Time
}

// AgeDays returns days since birth, or DefaultAgeDays when the birth date is unknown
func (s AnimalSnapshot) AgeDays(asOf time.Time) int {
	if s.BirthDate == nil {
		return DefaultAgeDays
	}
	return DaysBetween(*s.BirthDate, asOf)
}

// DaysOpen returns days since the last recorded birth, 0 when there is none
func (s AnimalSnapshot) DaysOpen(asOf time.Time) int {
	if s.LastBirthDate == nil {
		return 0
	}
	days := DaysBetween(*s.LastBirthDate, asOf)
	if days < 0 {
		return 0
	}
	return days
}

// ForecastFields are the forecast columns written back to the animals table
type ForecastFields struct {
	PredictedSaleDate   *time.Time `json:"predicted_sale_date,omitempty"`
	ExpectedCalvingDate *time.Time `json:"expected_calving_date,omitempty"`
	SuggestedDryDate    *time.Time `json:"suggested_dry_date,omitempty"`
	NextLikelyHeatDate  *time.Time `json:"next_likely_heat_date,omitempty"`
	ProjectedWeight30d  *float64   `json:"projected_weight_30d,omitempty"`
}
