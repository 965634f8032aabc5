// Package domain defines the business logic for the fitlog service.
package domain

import (
	"context"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	// RecentLimit caps every listing of recent entries.
	RecentLimit = 10
	// MaxExerciseNameLength mirrors the exercises.name column size.
	MaxExerciseNameLength = 100
)

// ExerciseInput captures a submitted exercise form.
type ExerciseInput struct {
	Name   string
	Reps   int
	Sets   int
	Weight float64
}

// Validate ensures the exercise is well formed.
func (in ExerciseInput) Validate() error {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return invalid("name", "is required")
	}
	if utf8.RuneCountInString(name) > MaxExerciseNameLength {
		return invalid("name", "is too long")
	}
	if in.Reps <= 0 {
		return invalid("reps", "must be > 0")
	}
	if in.Sets <= 0 {
		return invalid("sets", "must be > 0")
	}
	return positive("weight", in.Weight)
}

// MeasurementInput captures a submitted health measurement form.
type MeasurementInput struct {
	Weight    float64
	BMI       float64
	UpperArms float64
	Forearms  float64
	Shoulders float64
	Chest     float64
	Stomach   float64
	Thighs    float64
	Calves    float64
}

// Validate ensures every measurement is a positive finite number.
func (in MeasurementInput) Validate() error {
	fields := []struct {
		name  string
		value float64
	}{
		{"weight", in.Weight},
		{"bmi", in.BMI},
		{"upper_arms", in.UpperArms},
		{"forearms", in.Forearms},
		{"shoulders", in.Shoulders},
		{"chest", in.Chest},
		{"stomach", in.Stomach},
		{"thighs", in.Thighs},
		{"calves", in.Calves},
	}
	for _, f := range fields {
		if err := positive(f.name, f.value); err != nil {
			return err
		}
	}
	return nil
}

func positive(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return invalid(field, "must be a finite number")
	}
	if v <= 0 {
		return invalid(field, "must be > 0")
	}
	return nil
}

// RecordService creates and lists an owner's exercise and measurement entries.
type RecordService struct {
	repo RecordRepository
	now  Clock
}

// NewRecordService constructs a RecordService. A nil clock uses SystemClock.
func NewRecordService(repo RecordRepository, now Clock) *RecordService {
	if now == nil {
		now = SystemClock
	}
	return &RecordService{repo: repo, now: now}
}

// AddExercise validates and persists a new exercise stamped with the current time.
func (s *RecordService) AddExercise(ctx context.Context, ownerID string, input ExerciseInput) (*Exercise, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	now := s.now()
	exercise := Exercise{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		Name:        strings.TrimSpace(input.Name),
		Reps:        input.Reps,
		Sets:        input.Sets,
		Weight:      input.Weight,
		CreatedAt:   now,
		OrderingKey: now,
	}
	if err := s.repo.CreateExercise(ctx, exercise); err != nil {
		return nil, storageFault("add exercise", err)
	}
	return &exercise, nil
}

// AddHealthMeasurement validates and persists a new measurement stamped with the current time.
func (s *RecordService) AddHealthMeasurement(ctx context.Context, ownerID string, input MeasurementInput) (*HealthMeasurement, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	now := s.now()
	measurement := HealthMeasurement{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		Weight:      input.Weight,
		BMI:         input.BMI,
		UpperArms:   input.UpperArms,
		Forearms:    input.Forearms,
		Shoulders:   input.Shoulders,
		Chest:       input.Chest,
		Stomach:     input.Stomach,
		Thighs:      input.Thighs,
		Calves:      input.Calves,
		CreatedAt:   now,
		OrderingKey: now,
	}
	if err := s.repo.CreateHealthMeasurement(ctx, measurement); err != nil {
		return nil, storageFault("add health measurement", err)
	}
	return &measurement, nil
}

// ListExercises returns the owner's most recent exercises inside window.
func (s *RecordService) ListExercises(ctx context.Context, ownerID string, window TimeRange) ([]Exercise, error) {
	items, err := s.repo.ListExercises(ctx, ownerID, window, RecentLimit)
	if err != nil {
		return nil, storageFault("list exercises", err)
	}
	return items, nil
}

// ListHealthMeasurements returns the owner's most recent measurements inside window.
func (s *RecordService) ListHealthMeasurements(ctx context.Context, ownerID string, window TimeRange) ([]HealthMeasurement, error) {
	items, err := s.repo.ListHealthMeasurements(ctx, ownerID, window, RecentLimit)
	if err != nil {
		return nil, storageFault("list health measurements", err)
	}
	return items, nil
}
