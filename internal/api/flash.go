package api

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
)

const flashCookieName = "fitlog_flash"

// Flash categories.
const (
	categorySuccess = "success"
	categoryError   = "error"
	categoryInfo    = "info"
)

// User-facing messages.
const (
	msgInvalidInput       = "Invalid input. Please fill out all fields with valid values."
	msgExerciseAdded      = "Exercise added successfully!"
	msgMeasurementAdded   = "Health measurement added successfully!"
	msgInvalidCredentials = "Invalid username or password."
	msgUsernameTaken      = "Username already taken."
	msgLoginRequired      = "Please log in to access this page."
)

// Flash is a one-shot message shown on the next rendered view.
type Flash struct {
	Category string `json:"category"`
	Message  string `json:"message"`
}

// setFlash attaches messages to the response; the next view renders and clears them.
func setFlash(w http.ResponseWriter, flashes ...Flash) {
	body, err := json.Marshal(flashes)
	if err != nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    base64.RawURLEncoding.EncodeToString(body),
		Path:     "/",
		MaxAge:   60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// takeFlashes returns pending messages and clears the cookie. A malformed
// cookie is dropped silently.
func takeFlashes(w http.ResponseWriter, r *http.Request) []Flash {
	flashes := make([]Flash, 0)

	cookie, err := r.Cookie(flashCookieName)
	if err != nil {
		return flashes
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	raw, err := base64.RawURLEncoding.DecodeString(cookie.Value)
	if err != nil {
		return flashes
	}
	var decoded []Flash
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return flashes
	}
	return append(flashes, decoded...)
}
