package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/irfndi/bovara-ml/internal/models"
)

// EventRepository reads weighings and reproductive events joined to their detail tables.
type EventRepository struct {
	pool DatabasePool
}

// NewEventRepository creates a new event repository.
func NewEventRepository(pool DatabasePool) *EventRepository {
	return &EventRepository{pool: pool}
}

// FindWeightEvents returns weighings of the last daysBack days, newest first.
func (r *EventRepository) FindWeightEvents(ctx context.Context, animalID uuid.UUID, daysBack int) ([]models.WeightObservation, error) {
	query := `
		SELECT e.event_date, ew.weight_kg, ew.body_condition_score
		FROM events e
		JOIN event_weights ew ON e.id = ew.event_id
		WHERE e.animal_id = $1 AND e.event_date >= CURRENT_DATE - $2::int AND e.is_deleted = FALSE
		ORDER BY e.event_date DESC`

	rows, err := r.pool.Query(ctx, query, animalID, daysBack)
	if err != nil {
		return nil, fmt.Errorf("failed to query weight events of animal %s: %w", animalID, err)
	}
	defer rows.Close()

	var observations []models.WeightObservation
	for rows.Next() {
		var obs models.WeightObservation
		if err := rows.Scan(&obs.Date, &obs.WeightKg, &obs.BodyConditionScore); err != nil {
			return nil, fmt.Errorf("failed to scan weight event: %w", err)
		}
		observations = append(observations, obs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating weight events: %w", err)
	}
	return observations, nil
}

// FindBreedingEvents returns inseminations and natural services, newest first.
func (r *EventRepository) FindBreedingEvents(ctx context.Context, animalID uuid.UUID, daysBack int) ([]models.ReproductiveEvent, error) {
	query := `
		SELECT e.event_date, eb.breeding_type, eb.sire_id::text, eb.technician_name
		FROM events e
		JOIN event_breeding eb ON e.id = eb.event_id
		WHERE e.animal_id = $1 AND e.event_date >= CURRENT_DATE - $2::int AND e.is_deleted = FALSE
		ORDER BY e.event_date DESC`

	return r.findReproductive(ctx, query, animalID, daysBack, models.EventBreeding,
		"breeding_type", "sire_id", "technician_name")
}

// FindBirthEvents returns calvings, newest first.
func (r *EventRepository) FindBirthEvents(ctx context.Context, animalID uuid.UUID, daysBack int) ([]models.ReproductiveEvent, error) {
	query := `
		SELECT e.event_date, eb.birth_type, eb.offspring_count::text, eb.live_births::text
		FROM events e
		JOIN event_births eb ON e.id = eb.event_id
		WHERE e.animal_id = $1 AND e.event_date >= CURRENT_DATE - $2::int AND e.is_deleted = FALSE
		ORDER BY e.event_date DESC`

	return r.findReproductive(ctx, query, animalID, daysBack, models.EventBirth,
		"birth_type", "offspring_count", "live_births")
}

// findReproductive scans an event date followed by one nullable text column per attribute name.
func (r *EventRepository) findReproductive(ctx context.Context, query string, animalID uuid.UUID, daysBack int, kind models.ReproductiveEventKind, attributes ...string) ([]models.ReproductiveEvent, error) {
	rows, err := r.pool.Query(ctx, query, animalID, daysBack)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s events of animal %s: %w", kind, animalID, err)
	}
	defer rows.Close()

	var events []models.ReproductiveEvent
	for rows.Next() {
		ev, err := scanReproductive(rows, kind, attributes)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s event: %w", kind, err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s events: %w", kind, err)
	}
	return events, nil
}

func scanReproductive(rows pgx.Rows, kind models.ReproductiveEventKind, attributes []string) (models.ReproductiveEvent, error) {
	ev := models.ReproductiveEvent{Kind: kind}
	values := make([]*string, len(attributes))
	dest := make([]interface{}, 0, len(attributes)+1)
	dest = append(dest, &ev.Date)
	for i := range values {
		dest = append(dest, &values[i])
	}
	if err := rows.Scan(dest...); err != nil {
		return ev, err
	}

	for i, name := range attributes {
		if values[i] == nil {
			continue
		}
		if ev.Attributes == nil {
			ev.Attributes = make(map[string]string, len(attributes))
		}
		ev.Attributes[name] = *values[i]
	}
	return ev, nil
}
