package web

import (
	"net/http"
	"time"

	"coachdesk/internal/adapters/http/middleware"
	"coachdesk/internal/application/session"
	"coachdesk/internal/domain/profile"
)

// coach wraps a handler behind the coach gate.
func coach(h http.HandlerFunc) http.Handler {
	return middleware.Gate(profile.RoleCoach, middleware.StaticView{Handler: h})
}

// athlete wraps an identity-bound view behind the athlete gate.
func athlete(view func(session.Identity) http.Handler) http.Handler {
	return middleware.Gate(profile.RoleAthlete, middleware.ViewFactory(view))
}

// activeAthlete is athlete plus the subscription check.
func activeAthlete(view func(session.Identity) http.Handler) http.Handler {
	requireActive := middleware.RequireActiveSubscription(func() time.Time { return timeNow() })
	return athlete(func(id session.Identity) http.Handler {
		return requireActive(view(id))
	})
}

// registerRoutes mounts every route on mux. Handlers switch on r.Method.
func registerRoutes(mux *http.ServeMux, limiter middleware.Limiter) {
	limit := func(scope string, h http.HandlerFunc) http.Handler {
		return middleware.RateLimit(limiter, scope)(h)
	}

	mux.HandleFunc("/{$}", handleIndex)
	mux.HandleFunc("/healthz", handleHealthz)

	// Accounts and sessions
	mux.Handle("/api/register", limit("register", handleRegister))
	mux.Handle("/api/login", limit("login", handleLogin))
	mux.Handle("/api/token", limit("token", handleToken))
	mux.HandleFunc("/api/logout", handleLogout)
	mux.HandleFunc("/api/session", handleSession)
	mux.Handle("/api/profile", athlete(profileHandler))
	mux.Handle("/api/me/password", athlete(passwordHandler))

	// Template editor
	mux.Handle("/api/templates", coach(handleTemplates))
	mux.Handle("/api/templates/{id}", coach(handleTemplate))
	mux.Handle("/api/templates/{id}/days", coach(handleTemplateDays))
	mux.Handle("/api/templates/{id}/days/{dayId}", coach(handleTemplateDay))

	// Roster, assignment and progress
	mux.Handle("/api/athletes", coach(handleAthletes))
	mux.Handle("/api/athletes/{uid}/subscription", coach(handleAthleteSubscription))
	mux.Handle("/api/athletes/{uid}/weeks", coach(handleAthleteWeeks))
	mux.Handle("/api/athletes/{uid}/weeks/{weekId}", coach(handleAthleteWeek))
	mux.Handle("/api/athletes/{uid}/weeks/{weekId}/results/{dayId}/comment", coach(handleDayResultComment))
	mux.Handle("/api/athletes/{uid}/entries/{entryId}/comment", coach(handleEntryComment))
	mux.Handle("/api/athletes/{uid}/progress", coach(handleAthleteProgress))
	mux.Handle("/api/assignments", coach(handleAssignments))

	// Athlete area
	mux.Handle("/api/me/home", athlete(meHomeHandler))
	mux.Handle("/api/me/weeks", activeAthlete(meWeeksHandler))
	mux.Handle("/api/me/weeks/{weekId}", activeAthlete(meWeekHandler))
	mux.Handle("/api/me/weeks/{weekId}/results/{dayId}", activeAthlete(meDayResultHandler))
	mux.Handle("/api/me/weeks/{weekId}/days/{dayId}/entries", activeAthlete(meEntriesHandler))
}
