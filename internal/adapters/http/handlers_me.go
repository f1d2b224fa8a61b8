package web

import (
	"net/http"

	"coachdesk/internal/application/orchestrators"
	"coachdesk/internal/application/projections"
	"coachdesk/internal/application/session"
	"coachdesk/internal/domain/result"
)

type dayResultRequest struct {
	Result string `json:"result"`
}

type entryRequest struct {
	WorkoutID   string `json:"workoutId"`
	WeightKg    string `json:"weightKg"`
	Reps        string `json:"reps"`
	TimeSeconds string `json:"timeSeconds"`
	Notes       string `json:"notes"`
}

// entryResponse is the stored entry as returned after submission.
type entryResponse struct {
	ID           string       `json:"id"`
	WeekID       string       `json:"weekId"`
	DayID        string       `json:"dayId"`
	WorkoutID    string       `json:"workoutId"`
	WeekTitle    string       `json:"weekTitle"`
	DayLabel     string       `json:"dayLabel"`
	WorkoutTitle string       `json:"workoutTitle"`
	Value        result.Value `json:"value"`
}

// meHomeHandler serves GET /api/me/home.
func meHomeHandler(id session.Identity) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		res, err := projections.QueryGetAthleteHome(r.Context(), projections.GetAthleteHomeQuery{
			AthleteUID: id.User.UID,
			Email:      id.User.Email,
		}, projections.GetAthleteHomeDeps{
			ProfileStore: stores.ProfileStore,
			WeekStore:    stores.WeekStore,
			Now:          timeNow,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	})
}

// meWeeksHandler serves GET /api/me/weeks.
func meWeeksHandler(id session.Identity) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		res, err := projections.QueryGetAthleteWeeks(r.Context(), projections.GetAthleteWeeksQuery{
			AthleteUID: id.User.UID,
		}, projections.GetAthleteWeeksDeps{WeekStore: stores.WeekStore})
		if err != nil {
			internalError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	})
}

// meWeekHandler serves GET /api/me/weeks/{weekId}.
func meWeekHandler(id session.Identity) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		res, err := projections.QueryGetAthleteWeek(r.Context(), projections.GetAthleteWeekQuery{
			AthleteUID: id.User.UID,
			WeekID:     r.PathValue("weekId"),
		}, projections.GetAthleteWeekDeps{
			WeekStore:     stores.WeekStore,
			TemplateStore: stores.TemplateStore,
			ResultStore:   stores.ResultStore,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	})
}

// meDayResultHandler serves PUT /api/me/weeks/{weekId}/results/{dayId}.
func meDayResultHandler(id session.Identity) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			methodNotAllowed(w)
			return
		}
		var req dayResultRequest
		if err := strictDecode(r, &req); err != nil {
			badRequest(w)
			return
		}
		d, err := orchestrators.ExecuteSaveDayResult(r.Context(), orchestrators.SaveDayResultInput{
			AthleteUID: id.User.UID,
			WeekID:     r.PathValue("weekId"),
			DayID:      r.PathValue("dayId"),
			Text:       req.Result,
		}, orchestrators.SaveDayResultDeps{
			ProfileStore:  stores.ProfileStore,
			WeekStore:     stores.WeekStore,
			TemplateStore: stores.TemplateStore,
			ResultStore:   stores.ResultStore,
			Now:           timeNow,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		countResult(result.SourceWeekResults)
		writeJSON(w, http.StatusOK, map[string]any{
			"weekId":    d.WeekID,
			"dayId":     d.DayID,
			"result":    d.Result,
			"dayOrder":  d.DayOrder,
			"updatedAt": d.UpdatedAt,
		})
	})
}

// meEntriesHandler serves GET (list) and POST (submit) for
// /api/me/weeks/{weekId}/days/{dayId}/entries.
func meEntriesHandler(id session.Identity) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		weekID, dayID := r.PathValue("weekId"), r.PathValue("dayId")
		switch r.Method {
		case http.MethodGet:
			res, err := projections.QueryGetResultEntries(r.Context(), projections.GetResultEntriesQuery{
				AthleteUID: id.User.UID,
				WeekID:     weekID,
				DayID:      dayID,
				WorkoutID:  r.URL.Query().Get("workoutId"),
			}, projections.GetResultEntriesDeps{ResultStore: stores.ResultStore})
			if err != nil {
				internalError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, res)

		case http.MethodPost:
			var req entryRequest
			if err := strictDecode(r, &req); err != nil {
				badRequest(w)
				return
			}
			e, err := orchestrators.ExecuteSubmitResult(r.Context(), orchestrators.SubmitResultInput{
				AthleteUID: id.User.UID,
				WeekID:     weekID,
				DayID:      dayID,
				WorkoutID:  req.WorkoutID,
				Raw: result.RawValue{
					WeightKg:    req.WeightKg,
					Reps:        req.Reps,
					TimeSeconds: req.TimeSeconds,
					Notes:       req.Notes,
				},
			}, orchestrators.SubmitResultDeps{
				WeekStore:     stores.WeekStore,
				TemplateStore: stores.TemplateStore,
				ResultStore:   stores.ResultStore,
				GenerateID:    generateID,
				Now:           timeNow,
			})
			if err != nil {
				writeError(w, err)
				return
			}
			countResult(result.SourceEntries)
			writeJSON(w, http.StatusCreated, entryResponse{
				ID:           e.ID,
				WeekID:       e.WeekID,
				DayID:        e.DayID,
				WorkoutID:    e.WorkoutID,
				WeekTitle:    e.WeekTitle,
				DayLabel:     e.DayLabel,
				WorkoutTitle: e.WorkoutTitle,
				Value:        e.Value,
			})

		default:
			methodNotAllowed(w)
		}
	})
}

// countResult increments the results counter when metrics are enabled.
func countResult(source string) {
	if metricsManager != nil {
		metricsManager.CounterResults.WithLabelValues(source).Inc()
	}
}
