// Package api exposes HTTP handlers for the fitlog service.
package api

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/sirupsen/logrus"

	"github.com/bentonah/fitlog/internal/auth"
	"github.com/bentonah/fitlog/internal/domain"
	"github.com/bentonah/fitlog/internal/observability"
)

// LoginPath is where unauthenticated browsers are sent.
const LoginPath = "/login"

// PublicRoutes are served without a session.
var PublicRoutes = []string{LoginPath, "/register", "/logout", "/healthz", "/metrics"}

// Handler coordinates HTTP requests with the domain services.
type Handler struct {
	credentials *domain.CredentialService
	records     *domain.RecordService
	queries     *domain.QueryService
	sessions    *auth.Manager
}

// NewHandler builds a Handler.
func NewHandler(credentials *domain.CredentialService, records *domain.RecordService, queries *domain.QueryService, sessions *auth.Manager) *Handler {
	return &Handler{credentials: credentials, records: records, queries: queries, sessions: sessions}
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.dashboard)
	mux.HandleFunc("POST /add_exercise", h.addExercise)
	mux.HandleFunc("POST /add_health_measurement", h.addHealthMeasurement)
	mux.HandleFunc("GET /exercise_health_summary", h.exerciseHealthSummary)
	mux.HandleFunc("GET /login", h.loginPage)
	mux.HandleFunc("POST /login", h.login)
	mux.HandleFunc("POST /register", h.register)
	mux.HandleFunc("POST /logout", h.logout)
	mux.HandleFunc("GET /healthz", healthz)
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) currentUser(w http.ResponseWriter, r *http.Request) (*domain.User, bool) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		redirect(w, r, LoginPath+"?next="+url.QueryEscape(r.URL.RequestURI()))
		return nil, false
	}
	return user, true
}

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	start, err := parseDateParam(r, "start_date")
	if err != nil {
		respondError(w, r, err)
		return
	}
	end, err := parseDateParam(r, "end_date")
	if err != nil {
		respondError(w, r, err)
		return
	}

	summary, err := h.queries.RecentSummary(r.Context(), user.ID, start, end)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDashboard(user, summary, takeFlashes(w, r)))
}

func (h *Handler) addExercise(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	input, err := parseExerciseForm(r)
	if err == nil {
		var exercise *domain.Exercise
		exercise, err = h.records.AddExercise(r.Context(), user.ID, input)
		if err == nil {
			observability.RecordPersisted(observability.KindExercise, exercise.CreatedAt)
			setFlash(w, Flash{Category: categorySuccess, Message: msgExerciseAdded})
			redirect(w, r, "/")
			return
		}
	}
	h.formFailure(w, r, observability.KindExercise, err)
}

func (h *Handler) addHealthMeasurement(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	input, err := parseMeasurementForm(r)
	if err == nil {
		var measurement *domain.HealthMeasurement
		measurement, err = h.records.AddHealthMeasurement(r.Context(), user.ID, input)
		if err == nil {
			observability.RecordPersisted(observability.KindHealthMeasurement, measurement.CreatedAt)
			setFlash(w, Flash{Category: categorySuccess, Message: msgMeasurementAdded})
			redirect(w, r, "/")
			return
		}
	}
	h.formFailure(w, r, observability.KindHealthMeasurement, err)
}

// formFailure turns validation errors into a flash and redirect; anything else is a 5xx.
func (h *Handler) formFailure(w http.ResponseWriter, r *http.Request, kind string, err error) {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		observability.RecordValidationFailure(kind)
		logrus.WithFields(logrus.Fields{"kind": kind, "field": verr.Field}).Info("submission rejected")
		setFlash(w, Flash{Category: categoryError, Message: msgInvalidInput})
		redirect(w, r, "/")
		return
	}
	respondError(w, r, err)
}

func (h *Handler) exerciseHealthSummary(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	summary, err := h.queries.JoinedSummary(r.Context(), user.ID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSummary(summary, takeFlashes(w, r)))
}

func (h *Handler) loginPage(w http.ResponseWriter, r *http.Request) {
	next := r.URL.Query().Get("next")
	messages := takeFlashes(w, r)
	if next != "" && len(messages) == 0 {
		messages = append(messages, Flash{Category: categoryInfo, Message: msgLoginRequired})
	}
	writeJSON(w, http.StatusOK, LoginResponse{Next: safeNext(next), Messages: messages})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	username := r.PostFormValue("username")
	password := r.PostFormValue("password")
	next := safeNext(r.PostFormValue("next"))

	user, err := h.credentials.Verify(r.Context(), username, password)
	if err != nil {
		if errors.Is(err, domain.ErrAuthFailure) {
			observability.RecordLogin(false)
			setFlash(w, Flash{Category: categoryError, Message: msgInvalidCredentials})
			target := LoginPath
			if next != "/" {
				target += "?next=" + url.QueryEscape(next)
			}
			redirect(w, r, target)
			return
		}
		respondError(w, r, err)
		return
	}

	if err := h.sessions.Start(r.Context(), w, user); err != nil {
		respondError(w, r, err)
		return
	}
	observability.RecordLogin(true)
	redirect(w, r, next)
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	user, err := h.credentials.Register(r.Context(), r.PostFormValue("username"), r.PostFormValue("password"))
	switch {
	case errors.Is(err, domain.ErrConflict):
		setFlash(w, Flash{Category: categoryError, Message: msgUsernameTaken})
		redirect(w, r, LoginPath)
		return
	case errors.Is(err, domain.ErrValidation):
		setFlash(w, Flash{Category: categoryError, Message: msgInvalidInput})
		redirect(w, r, LoginPath)
		return
	case err != nil:
		respondError(w, r, err)
		return
	}

	if err := h.sessions.Start(r.Context(), w, user); err != nil {
		respondError(w, r, err)
		return
	}
	redirect(w, r, "/")
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.End(r.Context(), w, r); err != nil {
		respondError(w, r, err)
		return
	}
	redirect(w, r, LoginPath)
}
