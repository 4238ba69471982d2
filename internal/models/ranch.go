package models

import "github.com/google/uuid"

// RanchReproSettings holds a ranch's reproductive calendar parameters
type RanchReproSettings struct {
	ID                     uuid.UUID `json:"id" db:"id"`
	RanchID                uuid.UUID `json:"ranch_id" db:"ranch_id"`
	AvgGestationDays       int       `json:"avg_gestation_days" db:"avg_gestation_days"`
	EstrusCycleDays        int       `json:"estrus_cycle_days" db:"estrus_cycle_days"`
	VoluntaryWaitingPeriod int       `json:"voluntary_waiting_period" db:"voluntary_waiting_period"`
	DaysToDryOff           int       `json:"days_to_dry_off" db:"days_to_dry_off"`
	GDPFactorDrySeason     float64   `json:"gdp_factor_dry_season" db:"gdp_factor_dry_season"`
	GDPFactorRainySeason   float64   `json:"gdp_factor_rainy_season" db:"gdp_factor_rainy_season"`
}

// ProductionGoals holds a ranch's production targets
type ProductionGoals struct {
	ID                 uuid.UUID `json:"id" db:"id"`
	RanchID            uuid.UUID `json:"ranch_id" db:"ranch_id"`
	TargetSaleWeightKg float64   `json:"target_sale_weight_kg" db:"target_sale_weight_kg"`
	MaxRanchCapacityKg *float64  `json:"max_ranch_capacity_kg,omitempty" db:"max_ranch_capacity_kg"`
}

// RanchConfig is the immutable ranch configuration one forecast invocation reads
type RanchConfig struct {
	AvgGestationDays   int
	EstrusCycleDays    int
	DaysToDryOff       int
	TargetSaleWeightKg float64
}

// NewRanchConfig combines repro settings and production goals
func NewRanchConfig(repro RanchReproSettings, goals ProductionGoals) RanchConfig {
	return RanchConfig{
		AvgGestationDays:   repro.AvgGestationDays,
		EstrusCycleDays:    repro.EstrusCycleDays,
		DaysToDryOff:       repro.DaysToDryOff,
		TargetSaleWeightKg: goals.TargetSaleWeightKg,
	}
}
