package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/bentonah/fitlog/internal/domain"
)

// JoinByOrderingKey pairs exercises and measurements whose ordering keys are exactly equal.
func (r *Repository) JoinByOrderingKey(ctx context.Context, ownerID string) ([]domain.JoinedRow, error) {
	const query = `SELECT e.name, e.reps, e.sets, e.weight, h.weight, h.bmi
        FROM exercises e
        JOIN health_measurements h ON h.owner_id = e.owner_id AND h.ordering_key = e.ordering_key
        WHERE e.owner_id = $1
        ORDER BY e.ordering_key DESC`

	var rowsOut []domain.JoinedRow
	err := r.withOwnerTx(ctx, ownerID, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, query, ownerID)
		if err != nil {
			return fmt.Errorf("join records: %w", err)
		}
		rowsOut, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.JoinedRow, error) {
			var j domain.JoinedRow
			err := row.Scan(&j.Name, &j.Reps, &j.Sets, &j.Weight, &j.HealthWeight, &j.BMI)
			return j, err
		})
		if err != nil {
			return fmt.Errorf("scan joined rows: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rowsOut, nil
}

// AggregateByOwner computes totals over all of the owner's rows, independent of the join.
func (r *Repository) AggregateByOwner(ctx context.Context, ownerID string) (domain.Aggregate, error) {
	var agg domain.Aggregate
	err := r.withOwnerTx(ctx, ownerID, func(tx pgx.Tx) error {
		var totalReps int64
		if err := tx.QueryRow(ctx,
			`SELECT COALESCE(SUM(reps), 0), AVG(weight) FROM exercises WHERE owner_id = $1`, ownerID,
		).Scan(&totalReps, &agg.AverageWeight); err != nil {
			return fmt.Errorf("aggregate exercises: %w", err)
		}
		agg.TotalReps = int(totalReps)

		if err := tx.QueryRow(ctx,
			`SELECT MAX(bmi) FROM health_measurements WHERE owner_id = $1`, ownerID,
		).Scan(&agg.MaxBMI); err != nil {
			return fmt.Errorf("aggregate health measurements: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.Aggregate{}, err
	}
	return agg, nil
}
