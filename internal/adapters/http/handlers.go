package web

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"coachdesk/internal/adapters/http/middleware"
	"coachdesk/internal/application/orchestrators"
	"coachdesk/internal/application/session"
	"coachdesk/internal/domain/access"
	"coachdesk/internal/domain/account"
	"coachdesk/internal/domain/profile"
	"coachdesk/internal/domain/result"
	"coachdesk/internal/domain/subscription"
	"coachdesk/internal/domain/template"
	"coachdesk/internal/domain/week"
)

// generateID creates a new UUID string.
func generateID() string {
	return uuid.New().String()
}

// internalError logs the real error and returns a generic message to the client.
// This prevents leaking internal details per OWASP A05.
func internalError(w http.ResponseWriter, err error) {
	slog.Error("internal_error", "error", err.Error())
	writeJSONError(w, http.StatusInternalServerError, "internal server error")
}

// strictDecode decodes JSON from the request body, rejecting unknown fields.
func strictDecode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("encode_failed", "error", err)
	}
}

type errorBody struct {
	Error string `json:"error"`
}

// writeJSONError writes {"error": msg}.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// badRequest answers a body that could not be decoded.
func badRequest(w http.ResponseWriter) {
	writeJSONError(w, http.StatusBadRequest, "invalid request body")
}

// badRequestErrors are domain validation failures shown to the user verbatim.
var badRequestErrors = []error{
	account.ErrInvalidEmail, account.ErrEmptyEmail, account.ErrEmailTooLong,
	account.ErrEmptyPassword, account.ErrPasswordTooShort,
	profile.ErrEmptyUID, profile.ErrInvalidRole, profile.ErrEmptyFirstName,
	profile.ErrEmptyLastName, profile.ErrNameTooLong,
	template.ErrEmptyID, template.ErrTitleTooShort, template.ErrTitleTooLong,
	template.ErrEmptyDayID, template.ErrInvalidDayOrder, template.ErrWorkoutTooLong,
	week.ErrEmptyID, week.ErrEmptyAthleteUID, week.ErrMissingTemplate,
	result.ErrEmptyID, result.ErrEmptyAthleteUID, result.ErrEmptyWeekID,
	result.ErrEmptyDayID, result.ErrEmptyWorkoutID, result.ErrEmptyResult,
	result.ErrNotesTooLong, result.ErrCommentTooLong, result.ErrResultTooLong,
	result.ErrUnknownSource,
	subscription.ErrInvalidDate,
	orchestrators.ErrConfirmationRequired, orchestrators.ErrNotAthlete,
	orchestrators.ErrNoTemplateSelected, orchestrators.ErrWorkoutNotFound,
	orchestrators.ErrCurrentPasswordWrong, orchestrators.ErrNewPasswordSame,
}

// writeError maps an orchestrator or projection error to a status code.
// Unknown errors are logged and hidden behind a generic 500.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		writeJSONError(w, http.StatusNotFound, "not found")
	case errors.Is(err, orchestrators.ErrInvalidCredentials), errors.Is(err, orchestrators.ErrAccountLocked):
		writeJSONError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, orchestrators.ErrEmailAlreadyExists), errors.Is(err, orchestrators.ErrAlreadyAssigned):
		writeJSONError(w, http.StatusConflict, err.Error())
	case errors.Is(err, orchestrators.ErrSubscriptionExpired):
		middleware.WritePanel(w, http.StatusForbidden, middleware.Panel{
			Reason:  middleware.ReasonSubscriptionExpired,
			Message: err.Error(),
		})
	default:
		for _, target := range badRequestErrors {
			if errors.Is(err, target) {
				writeJSONError(w, http.StatusBadRequest, target.Error())
				return
			}
		}
		internalError(w, err)
	}
}

// methodNotAllowed answers a method the route does not serve.
func methodNotAllowed(w http.ResponseWriter) {
	writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
}

// handleIndex routes a visitor to the page matching their session.
func handleIndex(w http.ResponseWriter, r *http.Request) {
	h := session.FromContext(r.Context())
	target := "/athlete"
	switch {
	case h.User == nil:
		target = access.LoginPath
	case h.Role() == profile.RoleCoach:
		target = access.CoachHome
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// handleHealthz reports liveness.
func handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
