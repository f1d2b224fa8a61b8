package web

import (
	"net/http"

	"coachdesk/internal/application/orchestrators"
	"coachdesk/internal/application/projections"
	"coachdesk/internal/domain/result"
)

type subscriptionRequest struct {
	Date  string `json:"date"`
	Clear bool   `json:"clear"`
}

type assignRequest struct {
	TemplateID string `json:"templateId"`
}

type bulkAssignRequest struct {
	TemplateID  string   `json:"templateId"`
	AthleteUIDs []string `json:"athleteUids"`
}

type commentRequest struct {
	Comment string `json:"comment"`
}

func assignDeps() orchestrators.AssignWeekDeps {
	return orchestrators.AssignWeekDeps{
		ProfileStore:  stores.ProfileStore,
		TemplateStore: stores.TemplateStore,
		WeekStore:     stores.WeekStore,
		Notifier:      weekNotifier(),
		GenerateID:    generateID,
		Now:           timeNow,
	}
}

// countAssignment increments the assignment counter when metrics are enabled.
func countAssignment(outcome string) {
	if metricsManager != nil {
		metricsManager.CounterAssignments.WithLabelValues(outcome).Inc()
	}
}

// handleAthletes handles GET /api/athletes: the roster, optionally marked
// against ?templateId=.
func handleAthletes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	res, err := projections.QueryGetRoster(r.Context(), projections.GetRosterQuery{
		TemplateID: r.URL.Query().Get("templateId"),
	}, projections.GetRosterDeps{
		ProfileStore: stores.ProfileStore,
		WeekStore:    stores.WeekStore,
		Now:          timeNow,
	})
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleAthleteSubscription handles PUT /api/athletes/{uid}/subscription.
func handleAthleteSubscription(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		methodNotAllowed(w)
		return
	}
	var req subscriptionRequest
	if err := strictDecode(r, &req); err != nil {
		badRequest(w)
		return
	}
	p, err := orchestrators.ExecuteSetSubscription(r.Context(), orchestrators.SetSubscriptionInput{
		AthleteUID: r.PathValue("uid"),
		Date:       req.Date,
		Clear:      req.Clear,
	}, orchestrators.SetSubscriptionDeps{
		ProfileStore: stores.ProfileStore,
		Now:          timeNow,
		Location:     location,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newProfileView(p))
}

// handleAthleteWeeks handles GET (list) and POST (assign) for
// /api/athletes/{uid}/weeks.
func handleAthleteWeeks(w http.ResponseWriter, r *http.Request) {
	uid := r.PathValue("uid")
	switch r.Method {
	case http.MethodGet:
		res, err := projections.QueryGetAthleteWeeks(r.Context(), projections.GetAthleteWeeksQuery{
			AthleteUID: uid,
		}, projections.GetAthleteWeeksDeps{WeekStore: stores.WeekStore})
		if err != nil {
			internalError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)

	case http.MethodPost:
		var req assignRequest
		if err := strictDecode(r, &req); err != nil {
			badRequest(w)
			return
		}
		wk, err := orchestrators.ExecuteAssignWeek(r.Context(), orchestrators.AssignWeekInput{
			AthleteUID: uid,
			TemplateID: req.TemplateID,
		}, assignDeps())
		if err != nil {
			countAssignment(orchestrators.OutcomeError)
			writeError(w, err)
			return
		}
		countAssignment(orchestrators.OutcomeAssigned)
		writeJSON(w, http.StatusCreated, projections.NewWeekSummary(wk))

	default:
		methodNotAllowed(w)
	}
}

// handleAthleteWeek handles DELETE /api/athletes/{uid}/weeks/{weekId}.
func handleAthleteWeek(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		methodNotAllowed(w)
		return
	}
	err := orchestrators.ExecuteRemoveWeek(r.Context(), orchestrators.RemoveWeekInput{
		AthleteUID: r.PathValue("uid"),
		WeekID:     r.PathValue("weekId"),
	}, orchestrators.RemoveWeekDeps{WeekStore: stores.WeekStore})
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleAssignments handles POST /api/assignments: one template to many athletes.
func handleAssignments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req bulkAssignRequest
	if err := strictDecode(r, &req); err != nil {
		badRequest(w)
		return
	}
	outcomes, err := orchestrators.ExecuteBulkAssignWeek(r.Context(), orchestrators.BulkAssignInput{
		TemplateID:  req.TemplateID,
		AthleteUIDs: req.AthleteUIDs,
	}, assignDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	for _, o := range outcomes {
		countAssignment(o.Status)
	}
	writeJSON(w, http.StatusOK, map[string]any{"outcomes": outcomes})
}

// handleAthleteProgress handles GET /api/athletes/{uid}/progress.
func handleAthleteProgress(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	res, err := projections.QueryGetAthleteProgress(r.Context(), projections.GetAthleteProgressQuery{
		AthleteUID: r.PathValue("uid"),
	}, projections.GetAthleteProgressDeps{
		ProfileStore:  stores.ProfileStore,
		WeekStore:     stores.WeekStore,
		TemplateStore: stores.TemplateStore,
		ResultStore:   stores.ResultStore,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// saveComment decodes a comment body and stores it on the target result.
func saveComment(w http.ResponseWriter, r *http.Request, input orchestrators.SaveCommentInput) {
	if r.Method != http.MethodPut {
		methodNotAllowed(w)
		return
	}
	var req commentRequest
	if err := strictDecode(r, &req); err != nil {
		badRequest(w)
		return
	}
	input.AthleteUID = r.PathValue("uid")
	input.Comment = req.Comment

	res, err := orchestrators.ExecuteSaveComment(r.Context(), input, orchestrators.SaveCommentDeps{
		ResultStore:  stores.ResultStore,
		ProfileStore: stores.ProfileStore,
		Notifier:     commentNotifier(),
		Now:          timeNow,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	if metricsManager != nil {
		metricsManager.CounterComments.Inc()
	}
	writeJSON(w, http.StatusOK, res)
}

// handleEntryComment handles PUT /api/athletes/{uid}/entries/{entryId}/comment.
func handleEntryComment(w http.ResponseWriter, r *http.Request) {
	saveComment(w, r, orchestrators.SaveCommentInput{
		Source:  result.SourceEntries,
		EntryID: r.PathValue("entryId"),
	})
}

// handleDayResultComment handles
// PUT /api/athletes/{uid}/weeks/{weekId}/results/{dayId}/comment.
func handleDayResultComment(w http.ResponseWriter, r *http.Request) {
	saveComment(w, r, orchestrators.SaveCommentInput{
		Source: result.SourceWeekResults,
		WeekID: r.PathValue("weekId"),
		DayID:  r.PathValue("dayId"),
	})
}
