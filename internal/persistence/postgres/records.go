package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/bentonah/fitlog/internal/domain"
	"github.com/bentonah/fitlog/internal/events"
	"github.com/bentonah/fitlog/internal/outbox"
)

// CreateExercise persists the exercise and, when enabled, its outbox event in one transaction.
func (r *Repository) CreateExercise(ctx context.Context, exercise domain.Exercise) error {
	return r.withOwnerTx(ctx, exercise.OwnerID, func(tx pgx.Tx) error {
		const stmt = `INSERT INTO exercises (exercise_id, owner_id, name, reps, sets, weight, created_at, ordering_key)
            VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`

		if _, err := tx.Exec(ctx, stmt,
			exercise.ID,
			exercise.OwnerID,
			exercise.Name,
			exercise.Reps,
			exercise.Sets,
			exercise.Weight,
			exercise.CreatedAt,
			exercise.OrderingKey,
		); err != nil {
			return fmt.Errorf("insert exercise: %w", err)
		}

		if !r.outbox {
			return nil
		}
		return outbox.Insert(ctx, tx, outbox.Event{
			OwnerID:       exercise.OwnerID,
			AggregateType: "exercise",
			AggregateID:   exercise.ID,
			EventType:     events.TypeExerciseLogged,
			Payload: events.ExerciseLogged{
				ExerciseID: exercise.ID,
				OwnerID:    exercise.OwnerID,
				Name:       exercise.Name,
				Reps:       exercise.Reps,
				Sets:       exercise.Sets,
				Weight:     exercise.Weight,
				LoggedAt:   exercise.OrderingKey,
			},
		})
	})
}

// CreateHealthMeasurement persists the measurement and, when enabled, its outbox event in one transaction.
func (r *Repository) CreateHealthMeasurement(ctx context.Context, m domain.HealthMeasurement) error {
	return r.withOwnerTx(ctx, m.OwnerID, func(tx pgx.Tx) error {
		const stmt = `INSERT INTO health_measurements (measurement_id, owner_id, weight, bmi, upper_arms, forearms, shoulders, chest, stomach, thighs, calves, created_at, ordering_key)
            VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`

		if _, err := tx.Exec(ctx, stmt,
			m.ID, m.OwnerID, m.Weight, m.BMI, m.UpperArms, m.Forearms, m.Shoulders, m.Chest, m.Stomach, m.Thighs, m.Calves, m.CreatedAt, m.OrderingKey,
		); err != nil {
			return fmt.Errorf("insert health measurement: %w", err)
		}

		if !r.outbox {
			return nil
		}
		return outbox.Insert(ctx, tx, outbox.Event{
			OwnerID:       m.OwnerID,
			AggregateType: "health_measurement",
			AggregateID:   m.ID,
			EventType:     events.TypeHealthMeasurementLogged,
			Payload: events.HealthMeasurementLogged{
				MeasurementID: m.ID,
				OwnerID:       m.OwnerID,
				Weight:        m.Weight,
				BMI:           m.BMI,
				UpperArms:     m.UpperArms,
				Forearms:      m.Forearms,
				Shoulders:     m.Shoulders,
				Chest:         m.Chest,
				Stomach:       m.Stomach,
				Thighs:        m.Thighs,
				Calves:        m.Calves,
				LoggedAt:      m.OrderingKey,
			},
		})
	})
}

// ListExercises returns up to limit exercises inside window, newest first.
func (r *Repository) ListExercises(ctx context.Context, ownerID string, window domain.TimeRange, limit int) ([]domain.Exercise, error) {
	const query = `SELECT exercise_id, owner_id, name, reps, sets, weight, created_at, ordering_key
        FROM exercises
        WHERE owner_id = $1 AND ordering_key BETWEEN $2 AND $3
        ORDER BY ordering_key DESC, exercise_id DESC
        LIMIT $4`

	var results []domain.Exercise
	err := r.withOwnerTx(ctx, ownerID, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, query, ownerID, window.Start, window.End, limit)
		if err != nil {
			return fmt.Errorf("select exercises: %w", err)
		}
		results, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Exercise, error) {
			var e domain.Exercise
			err := row.Scan(&e.ID, &e.OwnerID, &e.Name, &e.Reps, &e.Sets, &e.Weight, &e.CreatedAt, &e.OrderingKey)
			e.CreatedAt, e.OrderingKey = e.CreatedAt.UTC(), e.OrderingKey.UTC()
			return e, err
		})
		if err != nil {
			return fmt.Errorf("scan exercises: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// ListHealthMeasurements returns up to limit measurements inside window, newest first.
func (r *Repository) ListHealthMeasurements(ctx context.Context, ownerID string, window domain.TimeRange, limit int) ([]domain.HealthMeasurement, error) {
	const query = `SELECT measurement_id, owner_id, weight, bmi, upper_arms, forearms, shoulders, chest, stomach, thighs, calves, created_at, ordering_key
        FROM health_measurements
        WHERE owner_id = $1 AND ordering_key BETWEEN $2 AND $3
        ORDER BY ordering_key DESC, measurement_id DESC
        LIMIT $4`

	var results []domain.HealthMeasurement
	err := r.withOwnerTx(ctx, ownerID, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, query, ownerID, window.Start, window.End, limit)
		if err != nil {
			return fmt.Errorf("select health measurements: %w", err)
		}
		results, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.HealthMeasurement, error) {
			var m domain.HealthMeasurement
			err := row.Scan(&m.ID, &m.OwnerID, &m.Weight, &m.BMI, &m.UpperArms, &m.Forearms, &m.Shoulders, &m.Chest, &m.Stomach, &m.Thighs, &m.Calves, &m.CreatedAt, &m.OrderingKey)
			m.CreatedAt, m.OrderingKey = m.CreatedAt.UTC(), m.OrderingKey.UTC()
			return m, err
		})
		if err != nil {
			return fmt.Errorf("scan health measurements: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}
