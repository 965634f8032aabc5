// Package memory provides an in-process store for local development and tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/bentonah/fitlog/internal/domain"
)

// Repository keeps users, records and sessions in maps guarded by a single lock.
type Repository struct {
	mu           sync.RWMutex
	users        map[string]domain.User
	usernames    map[string]string
	exercises    []domain.Exercise
	measurements []domain.HealthMeasurement
	sessions     map[string]domain.Session
}

// NewRepository constructs an empty Repository.
func NewRepository() *Repository {
	return &Repository{
		users:     make(map[string]domain.User),
		usernames: make(map[string]string),
		sessions:  make(map[string]domain.Session),
	}
}

// CreateUser implements domain.UserRepository.
func (r *Repository) CreateUser(ctx context.Context, user domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.usernames[user.Username]; taken {
		return domain.ErrConflict
	}
	r.users[user.ID] = user
	r.usernames[user.Username] = user.ID
	return nil
}

// FindUserByUsername implements domain.UserRepository.
func (r *Repository) FindUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.usernames[username]
	if !ok {
		return nil, nil
	}
	user := r.users[id]
	return &user, nil
}

// FindUserByID implements domain.UserRepository.
func (r *Repository) FindUserByID(ctx context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	return &user, nil
}

// CreateExercise implements domain.RecordRepository.
func (r *Repository) CreateExercise(ctx context.Context, exercise domain.Exercise) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.exercises = append(r.exercises, exercise)
	return nil
}

// CreateHealthMeasurement implements domain.RecordRepository.
func (r *Repository) CreateHealthMeasurement(ctx context.Context, measurement domain.HealthMeasurement) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.measurements = append(r.measurements, measurement)
	return nil
}

// ListExercises implements domain.RecordRepository.
func (r *Repository) ListExercises(ctx context.Context, ownerID string, window domain.TimeRange, limit int) ([]domain.Exercise, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	results := make([]domain.Exercise, 0)
	for _, e := range r.exercises {
		if e.OwnerID == ownerID && window.Contains(e.OrderingKey) {
			results = append(results, e)
		}
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].OrderingKey.After(results[j].OrderingKey)
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// ListHealthMeasurements implements domain.RecordRepository.
func (r *Repository) ListHealthMeasurements(ctx context.Context, ownerID string, window domain.TimeRange, limit int) ([]domain.HealthMeasurement, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	results := make([]domain.HealthMeasurement, 0)
	for _, m := range r.measurements {
		if m.OwnerID == ownerID && window.Contains(m.OrderingKey) {
			results = append(results, m)
		}
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].OrderingKey.After(results[j].OrderingKey)
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// JoinByOrderingKey implements domain.RecordRepository with exact timestamp equality.
func (r *Repository) JoinByOrderingKey(ctx context.Context, ownerID string) ([]domain.JoinedRow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	type keyed struct {
		key time.Time
		row domain.JoinedRow
	}
	matches := make([]keyed, 0)
	for _, e := range r.exercises {
		if e.OwnerID != ownerID {
			continue
		}
		for _, m := range r.measurements {
			if m.OwnerID != ownerID || !e.OrderingKey.Equal(m.OrderingKey) {
				continue
			}
			matches = append(matches, keyed{key: e.OrderingKey, row: domain.JoinedRow{
				Name:         e.Name,
				Reps:         e.Reps,
				Sets:         e.Sets,
				Weight:       e.Weight,
				HealthWeight: m.Weight,
				BMI:          m.BMI,
			}})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].key.After(matches[j].key)
	})

	rows := make([]domain.JoinedRow, 0, len(matches))
	for _, m := range matches {
		rows = append(rows, m.row)
	}
	return rows, nil
}

// AggregateByOwner implements domain.RecordRepository.
func (r *Repository) AggregateByOwner(ctx context.Context, ownerID string) (domain.Aggregate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var agg domain.Aggregate
	var weightSum float64
	var count int
	for _, e := range r.exercises {
		if e.OwnerID != ownerID {
			continue
		}
		agg.TotalReps += e.Reps
		weightSum += e.Weight
		count++
	}
	if count > 0 {
		avg := weightSum / float64(count)
		agg.AverageWeight = &avg
	}

	for _, m := range r.measurements {
		if m.OwnerID != ownerID {
			continue
		}
		if agg.MaxBMI == nil || m.BMI > *agg.MaxBMI {
			bmi := m.BMI
			agg.MaxBMI = &bmi
		}
	}
	return agg, nil
}

// CreateSession implements domain.SessionRepository. The ttl is carried by
// session.ExpiresAt.
func (r *Repository) CreateSession(ctx context.Context, session domain.Session, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[session.ID] = session
	return nil
}

// GetSession implements domain.SessionRepository.
func (r *Repository) GetSession(ctx context.Context, id string) (*domain.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[id]
	if !ok {
		return nil, nil
	}
	return &session, nil
}

// DeleteSession implements domain.SessionRepository.
func (r *Repository) DeleteSession(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, id)
	return nil
}

// Counts reports how many exercises and measurements are stored.
func (r *Repository) Counts() (exercises, measurements int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.exercises), len(r.measurements)
}
