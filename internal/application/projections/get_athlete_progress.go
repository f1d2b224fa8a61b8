package projections

import (
	"context"
	"database/sql"
	"errors"
	"slices"
	"time"

	"coachdesk/internal/adapters/storage/result"
	domainResult "coachdesk/internal/domain/result"
	domainTemplate "coachdesk/internal/domain/template"
	domainWeek "coachdesk/internal/domain/week"
)

const fallbackAthleteName = "Athlete"

// GetAthleteProgressQuery carries query parameters.
type GetAthleteProgressQuery struct {
	AthleteUID string
}

// ProgressItem is one result of either stored shape.
// Source tells which shape it came from; Value is set for entries, Result for
// legacy day results.
type ProgressItem struct {
	Source         string              `json:"source"`
	ID             string              `json:"id"`
	WeekID         string              `json:"weekId"`
	DayID          string              `json:"dayId"`
	WeekTitle      string              `json:"weekTitle"`
	DayLabel       string              `json:"dayLabel"`
	WorkoutTitle   string              `json:"workoutTitle,omitempty"`
	Value          *domainResult.Value `json:"value,omitempty"`
	Result         string              `json:"result,omitempty"`
	CoachComment   string              `json:"coachComment"`
	CoachCommentAt *time.Time          `json:"coachCommentAt"`
	UpdatedAt      time.Time           `json:"updatedAt"`
}

// GetAthleteProgressResult carries the query result.
type GetAthleteProgressResult struct {
	AthleteUID  string         `json:"athleteUid"`
	AthleteName string         `json:"athleteName"`
	Items       []ProgressItem `json:"items"`
}

// GetAthleteProgressDeps holds dependencies for GetAthleteProgress.
type GetAthleteProgressDeps struct {
	ProfileStore  ProfileStore
	WeekStore     WeekStore
	TemplateStore TemplateStore
	ResultStore   ResultStore
}

// QueryGetAthleteProgress merges entries and legacy day results for the coach.
// PRE: AthleteUID is non-empty
// POST: Items sorted by UpdatedAt descending
// INVARIANT: legacy label is "Day {order}" from the template, else the stored
// dayOrder, else "Day {dayId}"
func QueryGetAthleteProgress(ctx context.Context, query GetAthleteProgressQuery, deps GetAthleteProgressDeps) (GetAthleteProgressResult, error) {
	name := fallbackAthleteName
	p, err := deps.ProfileStore.GetByUID(ctx, query.AthleteUID)
	switch {
	case err == nil:
		name = p.DisplayName()
	case !errors.Is(err, sql.ErrNoRows):
		return GetAthleteProgressResult{}, err
	}

	entries, err := deps.ResultStore.ListEntries(ctx, query.AthleteUID, result.EntryFilter{})
	if err != nil {
		return GetAthleteProgressResult{}, err
	}
	dayResults, err := deps.ResultStore.ListDayResultsByAthlete(ctx, query.AthleteUID)
	if err != nil {
		return GetAthleteProgressResult{}, err
	}

	items := make([]ProgressItem, 0, len(entries)+len(dayResults))
	for _, e := range entries {
		v := e.Value
		items = append(items, ProgressItem{
			Source:         domainResult.SourceEntries,
			ID:             e.ID,
			WeekID:         e.WeekID,
			DayID:          e.DayID,
			WeekTitle:      e.WeekTitle,
			DayLabel:       e.DayLabel,
			WorkoutTitle:   e.WorkoutTitle,
			Value:          &v,
			CoachComment:   e.CoachComment,
			CoachCommentAt: optionalTime(e.CoachCommentAt),
			UpdatedAt:      e.UpdatedAt,
		})
	}

	lookup := newWeekLookup(query.AthleteUID, deps.WeekStore, deps.TemplateStore)
	for _, d := range dayResults {
		w, orders, err := lookup.resolve(ctx, d.WeekID)
		if err != nil {
			return GetAthleteProgressResult{}, err
		}
		items = append(items, ProgressItem{
			Source:         domainResult.SourceWeekResults,
			ID:             d.WeekID + "/" + d.DayID,
			WeekID:         d.WeekID,
			DayID:          d.DayID,
			WeekTitle:      w.Title,
			DayLabel:       legacyDayLabel(d, orders),
			Result:         d.Result,
			CoachComment:   d.CoachComment,
			CoachCommentAt: optionalTime(d.CoachCommentAt),
			UpdatedAt:      d.UpdatedAt,
		})
	}

	slices.SortStableFunc(items, func(a, b ProgressItem) int {
		return b.UpdatedAt.Compare(a.UpdatedAt)
	})
	return GetAthleteProgressResult{AthleteUID: query.AthleteUID, AthleteName: name, Items: items}, nil
}

func legacyDayLabel(d domainResult.DayResult, orders map[string]int) string {
	if order, ok := orders[d.DayID]; ok {
		return domainTemplate.DayLabel(order)
	}
	if d.DayOrder > 0 {
		return domainTemplate.DayLabel(d.DayOrder)
	}
	return "Day " + d.DayID
}

// weekLookup caches weeks and template day orders while merging results.
type weekLookup struct {
	athleteUID string
	weeks      WeekStore
	templates  TemplateStore
	byWeek     map[string]domainWeek.Week
	orders     map[string]map[string]int
}

func newWeekLookup(athleteUID string, weeks WeekStore, templates TemplateStore) *weekLookup {
	return &weekLookup{
		athleteUID: athleteUID,
		weeks:      weeks,
		templates:  templates,
		byWeek:     make(map[string]domainWeek.Week),
		orders:     make(map[string]map[string]int),
	}
}

// resolve returns the week and its template's day orders.
// A removed week or template resolves to empty values rather than an error.
func (l *weekLookup) resolve(ctx context.Context, weekID string) (domainWeek.Week, map[string]int, error) {
	w, ok := l.byWeek[weekID]
	if !ok {
		var err error
		w, err = l.weeks.GetByID(ctx, l.athleteUID, weekID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return domainWeek.Week{}, nil, err
		}
		l.byWeek[weekID] = w
	}
	if !w.HasTemplate() {
		return w, nil, nil
	}

	orders, ok := l.orders[w.TemplateID]
	if !ok {
		days, err := l.templates.ListDays(ctx, w.TemplateID)
		if err != nil {
			return domainWeek.Week{}, nil, err
		}
		orders = domainTemplate.OrderMap(days)
		l.orders[w.TemplateID] = orders
	}
	return w, orders, nil
}
