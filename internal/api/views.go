package api

import (
	"time"

	"github.com/bentonah/fitlog/internal/domain"
)

// UserView identifies the signed-in user.
type UserView struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// RangeView is the resolved listing window.
type RangeView struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// ExerciseView is a listed exercise.
type ExerciseView struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Reps      int       `json:"reps"`
	Sets      int       `json:"sets"`
	Weight    float64   `json:"weight"`
	CreatedAt time.Time `json:"created_at"`
}

// MeasurementView is a listed health measurement.
type MeasurementView struct {
	ID        string    `json:"id"`
	Weight    float64   `json:"weight"`
	BMI       float64   `json:"bmi"`
	UpperArms float64   `json:"upper_arms"`
	Forearms  float64   `json:"forearms"`
	Shoulders float64   `json:"shoulders"`
	Chest     float64   `json:"chest"`
	Stomach   float64   `json:"stomach"`
	Thighs    float64   `json:"thighs"`
	Calves    float64   `json:"calves"`
	CreatedAt time.Time `json:"created_at"`
}

// DashboardResponse is the body of GET /.
type DashboardResponse struct {
	User               UserView          `json:"user"`
	Range              RangeView         `json:"range"`
	Exercises          []ExerciseView    `json:"exercises"`
	HealthMeasurements []MeasurementView `json:"health_measurements"`
	Messages           []Flash           `json:"messages"`
}

// JoinedRowView is one exercise/measurement pair.
type JoinedRowView struct {
	Name         string  `json:"name"`
	Reps         int     `json:"reps"`
	Sets         int     `json:"sets"`
	Weight       float64 `json:"weight"`
	HealthWeight float64 `json:"health_weight"`
	BMI          float64 `json:"bmi"`
}

// TotalsView carries the summary aggregates. Averages are null without rows.
type TotalsView struct {
	TotalReps     int      `json:"total_reps"`
	AverageWeight *float64 `json:"average_weight"`
	MaxBMI        *float64 `json:"max_bmi"`
}

// SummaryResponse is the body of GET /exercise_health_summary.
type SummaryResponse struct {
	Rows     []JoinedRowView `json:"rows"`
	Totals   TotalsView      `json:"totals"`
	Messages []Flash         `json:"messages"`
}

// LoginResponse is the body of GET /login.
type LoginResponse struct {
	Next     string  `json:"next"`
	Messages []Flash `json:"messages"`
}

func toDashboard(user *domain.User, summary *domain.RecentSummary, messages []Flash) DashboardResponse {
	resp := DashboardResponse{
		User:               UserView{ID: user.ID, Username: user.Username},
		Range:              RangeView{Start: summary.Range.Start, End: summary.Range.End},
		Exercises:          make([]ExerciseView, 0, len(summary.Exercises)),
		HealthMeasurements: make([]MeasurementView, 0, len(summary.Measurements)),
		Messages:           messages,
	}
	for _, e := range summary.Exercises {
		resp.Exercises = append(resp.Exercises, ExerciseView{
			ID:        e.ID,
			Name:      e.Name,
			Reps:      e.Reps,
			Sets:      e.Sets,
			Weight:    e.Weight,
			CreatedAt: e.CreatedAt,
		})
	}
	for _, m := range summary.Measurements {
		resp.HealthMeasurements = append(resp.HealthMeasurements, MeasurementView{
			ID:        m.ID,
			Weight:    m.Weight,
			BMI:       m.BMI,
			UpperArms: m.UpperArms,
			Forearms:  m.Forearms,
			Shoulders: m.Shoulders,
			Chest:     m.Chest,
			Stomach:   m.Stomach,
			Thighs:    m.Thighs,
			Calves:    m.Calves,
			CreatedAt: m.CreatedAt,
		})
	}
	return resp
}

func toSummary(summary *domain.JoinedSummary, messages []Flash) SummaryResponse {
	resp := SummaryResponse{
		Rows: make([]JoinedRowView, 0, len(summary.Rows)),
		Totals: TotalsView{
			TotalReps:     summary.Totals.TotalReps,
			AverageWeight: summary.Totals.AverageWeight,
			MaxBMI:        summary.Totals.MaxBMI,
		},
		Messages: messages,
	}
	for _, row := range summary.Rows {
		resp.Rows = append(resp.Rows, JoinedRowView(row))
	}
	return resp
}
