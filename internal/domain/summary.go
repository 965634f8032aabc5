package domain

import (
	"context"
	"time"
)

// DefaultWindow is the look-back used when no start date is supplied.
const DefaultWindow = 30 * 24 * time.Hour

// QueryService builds the dashboard and summary views.
type QueryService struct {
	records *RecordService
	repo    RecordRepository
	now     Clock
}

// NewQueryService constructs a QueryService over the same repository the
// RecordService writes to.
func NewQueryService(repo RecordRepository, now Clock) *QueryService {
	if now == nil {
		now = SystemClock
	}
	return &QueryService{records: NewRecordService(repo, now), repo: repo, now: now}
}

// RecentSummary lists both record kinds inside [start, end]. A nil start
// defaults to 30 days ago and a nil end to now.
func (q *QueryService) RecentSummary(ctx context.Context, ownerID string, start, end *time.Time) (*RecentSummary, error) {
	now := q.now()
	window := TimeRange{Start: now.Add(-DefaultWindow), End: now}
	if start != nil {
		window.Start = *start
	}
	if end != nil {
		window.End = *end
	}

	exercises, err := q.records.ListExercises(ctx, ownerID, window)
	if err != nil {
		return nil, err
	}
	measurements, err := q.records.ListHealthMeasurements(ctx, ownerID, window)
	if err != nil {
		return nil, err
	}

	return &RecentSummary{
		Range:        window,
		Exercises:    exercises,
		Measurements: measurements,
	}, nil
}

// JoinedSummary pairs exercises and measurements whose ordering keys are
// exactly equal, and reports totals over all of the owner's rows.
func (q *QueryService) JoinedSummary(ctx context.Context, ownerID string) (*JoinedSummary, error) {
	rows, err := q.repo.JoinByOrderingKey(ctx, ownerID)
	if err != nil {
		return nil, storageFault("join records", err)
	}
	totals, err := q.repo.AggregateByOwner(ctx, ownerID)
	if err != nil {
		return nil, storageFault("aggregate records", err)
	}
	if rows == nil {
		rows = []JoinedRow{}
	}
	return &JoinedSummary{Rows: rows, Totals: totals}, nil
}
