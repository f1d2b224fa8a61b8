package projections

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"coachdesk/internal/adapters/storage/result"
	"coachdesk/internal/domain/profile"
	"coachdesk/internal/domain/subscription"
)

// Messages shown in place of days when a week cannot resolve its program.
const (
	MessageNoTemplate      = "This week has no program attached yet."
	MessageTemplateRemoved = "The program for this week is no longer available."
)

// GetAthleteHomeQuery carries query parameters.
type GetAthleteHomeQuery struct {
	AthleteUID string
	// Email fills the summary when no profile has been stored yet.
	Email string
}

// GetAthleteHomeResult carries the query result.
type GetAthleteHomeResult struct {
	Name         string              `json:"name"`
	Email        string              `json:"email"`
	FirstName    string              `json:"firstName"`
	LastName     string              `json:"lastName"`
	Subscription subscription.Status `json:"subscription"`
	WeekCount    int                 `json:"weekCount"`
}

// GetAthleteHomeDeps holds dependencies for GetAthleteHome.
type GetAthleteHomeDeps struct {
	ProfileStore ProfileStore
	WeekStore    WeekStore
	Now          func() time.Time
}

// QueryGetAthleteHome summarises an athlete's own area.
// PRE: AthleteUID is non-empty
// POST: Subscription.Expired matches the gate's evaluation at Now
func QueryGetAthleteHome(ctx context.Context, query GetAthleteHomeQuery, deps GetAthleteHomeDeps) (GetAthleteHomeResult, error) {
	now := deps.Now()
	p, err := deps.ProfileStore.GetByUID(ctx, query.AthleteUID)
	if errors.Is(err, sql.ErrNoRows) {
		p, err = profile.New(query.AthleteUID, query.Email, now), nil
	}
	if err != nil {
		return GetAthleteHomeResult{}, err
	}
	weeks, err := deps.WeekStore.ListByAthlete(ctx, query.AthleteUID)
	if err != nil {
		return GetAthleteHomeResult{}, err
	}
	return GetAthleteHomeResult{
		Name:         p.DisplayName(),
		Email:        p.Email,
		FirstName:    p.FirstName,
		LastName:     p.LastName,
		Subscription: subscription.Evaluate(p.SubscriptionExpiresAt, now),
		WeekCount:    len(weeks),
	}, nil
}

// GetAthleteWeeksQuery carries query parameters.
type GetAthleteWeeksQuery struct {
	AthleteUID string
}

// GetAthleteWeeksResult carries the query result.
type GetAthleteWeeksResult struct {
	Weeks []WeekSummary `json:"weeks"`
}

// GetAthleteWeeksDeps holds dependencies for GetAthleteWeeks.
type GetAthleteWeeksDeps struct {
	WeekStore WeekStore
}

// QueryGetAthleteWeeks lists an athlete's weeks newest first.
func QueryGetAthleteWeeks(ctx context.Context, query GetAthleteWeeksQuery, deps GetAthleteWeeksDeps) (GetAthleteWeeksResult, error) {
	weeks, err := deps.WeekStore.ListByAthlete(ctx, query.AthleteUID)
	if err != nil {
		return GetAthleteWeeksResult{}, err
	}
	out := make([]WeekSummary, 0, len(weeks))
	for _, w := range weeks {
		out = append(out, NewWeekSummary(w))
	}
	return GetAthleteWeeksResult{Weeks: out}, nil
}

// GetAthleteWeekQuery carries query parameters.
type GetAthleteWeekQuery struct {
	AthleteUID string
	WeekID     string
}

// GetAthleteWeekResult carries the query result.
type GetAthleteWeekResult struct {
	Week       WeekSummary     `json:"week"`
	Days       []DayView       `json:"days"`
	DayResults []DayResultView `json:"dayResults"`
	Message    string          `json:"message,omitempty"`
}

// GetAthleteWeekDeps holds dependencies for GetAthleteWeek.
type GetAthleteWeekDeps struct {
	WeekStore     WeekStore
	TemplateStore TemplateStore
	ResultStore   ResultStore
}

// QueryGetAthleteWeek loads one week with its program days and legacy results.
// PRE: AthleteUID and WeekID are non-empty
// POST: a week without a resolvable template yields Message and no Days
func QueryGetAthleteWeek(ctx context.Context, query GetAthleteWeekQuery, deps GetAthleteWeekDeps) (GetAthleteWeekResult, error) {
	w, err := deps.WeekStore.GetByID(ctx, query.AthleteUID, query.WeekID)
	if err != nil {
		return GetAthleteWeekResult{}, err
	}
	res := GetAthleteWeekResult{Week: NewWeekSummary(w), Days: []DayView{}}

	dayResults, err := deps.ResultStore.ListDayResults(ctx, query.AthleteUID, w.ID)
	if err != nil {
		return GetAthleteWeekResult{}, err
	}
	res.DayResults = make([]DayResultView, 0, len(dayResults))
	for _, d := range dayResults {
		res.DayResults = append(res.DayResults, dayResultView(d))
	}

	if !w.HasTemplate() {
		res.Message = MessageNoTemplate
		return res, nil
	}
	if _, err := deps.TemplateStore.GetByID(ctx, w.TemplateID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			res.Message = MessageTemplateRemoved
			return res, nil
		}
		return GetAthleteWeekResult{}, err
	}
	days, err := deps.TemplateStore.ListDays(ctx, w.TemplateID)
	if err != nil {
		return GetAthleteWeekResult{}, err
	}
	if res.Days, err = dayViews(days); err != nil {
		return GetAthleteWeekResult{}, err
	}
	return res, nil
}

// GetResultEntriesQuery carries query parameters. Empty filters match all.
type GetResultEntriesQuery struct {
	AthleteUID string
	WeekID     string
	DayID      string
	WorkoutID  string
}

// GetResultEntriesResult carries the query result.
type GetResultEntriesResult struct {
	Entries []EntryView `json:"entries"`
}

// GetResultEntriesDeps holds dependencies for GetResultEntries.
type GetResultEntriesDeps struct {
	ResultStore ResultStore
}

// QueryGetResultEntries lists an athlete's result entries newest first.
func QueryGetResultEntries(ctx context.Context, query GetResultEntriesQuery, deps GetResultEntriesDeps) (GetResultEntriesResult, error) {
	entries, err := deps.ResultStore.ListEntries(ctx, query.AthleteUID, result.EntryFilter{
		WeekID:    query.WeekID,
		DayID:     query.DayID,
		WorkoutID: query.WorkoutID,
	})
	if err != nil {
		return GetResultEntriesResult{}, err
	}
	out := make([]EntryView, 0, len(entries))
	for _, e := range entries {
		out = append(out, entryView(e))
	}
	return GetResultEntriesResult{Entries: out}, nil
}
