// Package events defines the payloads fitlog publishes when records are logged.
package events

import "time"

// Event types carried in the outbox and the event_type Kafka header.
const (
	TypeExerciseLogged          = "exercise.logged"
	TypeHealthMeasurementLogged = "health_measurement.logged"
)

// ExerciseLogged is emitted when a user records an exercise.
type ExerciseLogged struct {
	ExerciseID string    `json:"exercise_id"`
	OwnerID    string    `json:"owner_id"`
	Name       string    `json:"name"`
	Reps       int       `json:"reps"`
	Sets       int       `json:"sets"`
	Weight     float64   `json:"weight"`
	LoggedAt   time.Time `json:"logged_at"`
}

// HealthMeasurementLogged is emitted when a user records body measurements.
type HealthMeasurementLogged struct {
	MeasurementID string    `json:"measurement_id"`
	OwnerID       string    `json:"owner_id"`
	Weight        float64   `json:"weight"`
	BMI           float64   `json:"bmi"`
	UpperArms     float64   `json:"upper_arms"`
	Forearms      float64   `json:"forearms"`
	Shoulders     float64   `json:"shoulders"`
	Chest         float64   `json:"chest"`
	Stomach       float64   `json:"stomach"`
	Thighs        float64   `json:"thighs"`
	Calves        float64   `json:"calves"`
	LoggedAt      time.Time `json:"logged_at"`
}
