package domain

import "time"

// User is an account that owns exercise and measurement records.
type User struct {
	ID           string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// Exercise is a single logged set of work. Values are immutable once created.
type Exercise struct {
	ID          string
	OwnerID     string
	Name        string
	Reps        int
	Sets        int
	Weight      float64
	CreatedAt   time.Time
	OrderingKey time.Time
}

// HealthMeasurement is a body-measurement entry.
type HealthMeasurement struct {
	ID          string
	OwnerID     string
	Weight      float64
	BMI         float64
	UpperArms   float64
	Forearms    float64
	Shoulders   float64
	Chest       float64
	Stomach     float64
	Thighs      float64
	Calves      float64
	CreatedAt   time.Time
	OrderingKey time.Time
}

// Session binds a browser cookie to a user on the server side.
type Session struct {
	ID        string
	UserID    string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the session is no longer valid at now.
func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// TimeRange is an inclusive window over ordering keys.
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether ts lies within [Start, End].
func (r TimeRange) Contains(ts time.Time) bool {
	return !ts.Before(r.Start) && !ts.After(r.End)
}

// JoinedRow pairs an exercise with a measurement sharing its ordering key.
type JoinedRow struct {
	Name         string
	Reps         int
	Sets         int
	Weight       float64
	HealthWeight float64
	BMI          float64
}

// Aggregate summarises all of an owner's rows, independent of any join.
// AverageWeight and MaxBMI are nil when the owner has no rows of that kind.
type Aggregate struct {
	TotalReps     int
	AverageWeight *float64
	MaxBMI        *float64
}

// RecentSummary is the dashboard listing for a time window.
type RecentSummary struct {
	Range        TimeRange
	Exercises    []Exercise
	Measurements []HealthMeasurement
}

// JoinedSummary is the exercise/health correlation view.
type JoinedSummary struct {
	Rows   []JoinedRow
	Totals Aggregate
}

// Clock returns the current instant.
type Clock func() time.Time

// SystemClock returns UTC wall-clock time at microsecond precision, which is
// what Postgres timestamptz columns store.
func SystemClock() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
