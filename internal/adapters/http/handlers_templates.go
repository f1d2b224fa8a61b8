package web

import (
	"log/slog"
	"net/http"
	"strconv"

	"coachdesk/internal/application/listutil"
	"coachdesk/internal/application/orchestrators"
	"coachdesk/internal/application/projections"
	"coachdesk/internal/domain/template"
)

type templateRequest struct {
	Title string `json:"title"`
}

type dayRequest struct {
	Workout string `json:"workout"`
}

// templateView is the JSON form of a template after a write.
type templateView struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// dayView is the JSON form of a day after a write.
type dayView struct {
	ID         string `json:"id"`
	TemplateID string `json:"templateId"`
	Order      int    `json:"order"`
	Label      string `json:"label"`
	Workout    string `json:"workout"`
}

func newDayView(d template.Day) dayView {
	return dayView{ID: d.ID, TemplateID: d.TemplateID, Order: d.Order, Label: d.Label(), Workout: d.Workout}
}

// handleTemplates handles GET (list/search) and POST (create) for /api/templates.
func handleTemplates(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		res, err := projections.QueryGetTemplates(r.Context(), projections.GetTemplatesQuery{
			ListParams: listutil.ParseListParams(r.URL.Query()),
		}, projections.GetTemplatesDeps{TemplateStore: stores.TemplateStore})
		if err != nil {
			internalError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)

	case http.MethodPost:
		var req templateRequest
		if err := strictDecode(r, &req); err != nil {
			badRequest(w)
			return
		}
		t, err := orchestrators.ExecuteCreateTemplate(r.Context(), orchestrators.CreateTemplateInput{
			Title: req.Title,
		}, orchestrators.CreateTemplateDeps{
			TemplateStore: stores.TemplateStore,
			GenerateID:    generateID,
			Now:           timeNow,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, templateView{ID: t.ID, Title: t.Title})

	default:
		methodNotAllowed(w)
	}
}

// handleTemplate handles GET (detail), PUT (rename) and DELETE (cascade) for
// /api/templates/{id}.
func handleTemplate(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	switch r.Method {
	case http.MethodGet:
		res, err := projections.QueryGetTemplateDetail(r.Context(), projections.GetTemplateDetailQuery{
			TemplateID: id,
		}, projections.GetTemplateDetailDeps{TemplateStore: stores.TemplateStore})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)

	case http.MethodPut:
		var req templateRequest
		if err := strictDecode(r, &req); err != nil {
			badRequest(w)
			return
		}
		res, err := orchestrators.ExecuteRenameTemplate(r.Context(), orchestrators.RenameTemplateInput{
			TemplateID: id,
			Title:      req.Title,
		}, orchestrators.RenameTemplateDeps{
			TemplateStore: stores.TemplateStore,
			WeekStore:     stores.WeekStore,
			Now:           timeNow,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"template":     templateView{ID: res.Template.ID, Title: res.Template.Title},
			"weeksUpdated": res.WeeksUpdated,
		})

	case http.MethodDelete:
		res, err := orchestrators.ExecuteDeleteTemplate(r.Context(), orchestrators.DeleteTemplateInput{
			TemplateID: id,
		}, orchestrators.DeleteTemplateDeps{
			TemplateStore: stores.TemplateStore,
			WeekStore:     stores.WeekStore,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		slog.Info("template_event", "event", "template_deleted", "template_id", id, "weeks_removed", res.WeeksRemoved)
		writeJSON(w, http.StatusOK, map[string]int{"weeksRemoved": res.WeeksRemoved})

	default:
		methodNotAllowed(w)
	}
}

func dayDeps() orchestrators.DayDeps {
	return orchestrators.DayDeps{
		TemplateStore: stores.TemplateStore,
		GenerateID:    generateID,
		Now:           timeNow,
	}
}

// handleTemplateDays handles POST /api/templates/{id}/days.
func handleTemplateDays(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	d, err := orchestrators.ExecuteAddDay(r.Context(), orchestrators.AddDayInput{
		TemplateID: r.PathValue("id"),
	}, dayDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newDayView(d))
}

// handleTemplateDay handles PUT (edit workout) and DELETE for
// /api/templates/{id}/days/{dayId}. DELETE requires ?confirm=true.
func handleTemplateDay(w http.ResponseWriter, r *http.Request) {
	templateID, dayID := r.PathValue("id"), r.PathValue("dayId")
	switch r.Method {
	case http.MethodPut:
		var req dayRequest
		if err := strictDecode(r, &req); err != nil {
			badRequest(w)
			return
		}
		d, err := orchestrators.ExecuteEditDay(r.Context(), orchestrators.EditDayInput{
			TemplateID: templateID,
			DayID:      dayID,
			Workout:    req.Workout,
		}, dayDeps())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, newDayView(d))

	case http.MethodDelete:
		confirmed, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))
		err := orchestrators.ExecuteDeleteDay(r.Context(), orchestrators.DeleteDayInput{
			TemplateID: templateID,
			DayID:      dayID,
			Confirmed:  confirmed,
		}, dayDeps())
		if err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		methodNotAllowed(w)
	}
}
