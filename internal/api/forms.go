package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bentonah/fitlog/internal/domain"
)

const dateLayout = "2006-01-02"

func formInt(r *http.Request, field string) (int, error) {
	raw := strings.TrimSpace(r.PostFormValue(field))
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &domain.ValidationError{Field: field, Reason: "must be an integer"}
	}
	return v, nil
}

func formFloat(r *http.Request, field string) (float64, error) {
	raw := strings.TrimSpace(r.PostFormValue(field))
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, &domain.ValidationError{Field: field, Reason: "must be a number"}
	}
	return v, nil
}

func parseExerciseForm(r *http.Request) (domain.ExerciseInput, error) {
	var in domain.ExerciseInput
	var err error

	in.Name = r.PostFormValue("name")
	if in.Reps, err = formInt(r, "reps"); err != nil {
		return in, err
	}
	if in.Sets, err = formInt(r, "sets"); err != nil {
		return in, err
	}
	if in.Weight, err = formFloat(r, "weight"); err != nil {
		return in, err
	}
	return in, nil
}

func parseMeasurementForm(r *http.Request) (domain.MeasurementInput, error) {
	var in domain.MeasurementInput
	fields := []struct {
		name string
		dst  *float64
	}{
		{"weight", &in.Weight},
		{"bmi", &in.BMI},
		{"upper_arms", &in.UpperArms},
		{"forearms", &in.Forearms},
		{"shoulders", &in.Shoulders},
		{"chest", &in.Chest},
		{"stomach", &in.Stomach},
		{"thighs", &in.Thighs},
		{"calves", &in.Calves},
	}
	for _, f := range fields {
		v, err := formFloat(r, f.name)
		if err != nil {
			return in, err
		}
		*f.dst = v
	}
	return in, nil
}

// parseDateParam reads an optional YYYY-MM-DD query parameter as midnight UTC.
func parseDateParam(r *http.Request, name string) (*time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(dateLayout, raw, time.UTC)
	if err != nil {
		return nil, &domain.ValidationError{Field: name, Reason: "must be a YYYY-MM-DD date"}
	}
	return &t, nil
}

// safeNext only allows local absolute paths as post-login redirect targets.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	return next
}
