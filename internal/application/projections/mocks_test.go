package projections

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"strings"
	"time"

	resultStore "coachdesk/internal/adapters/storage/result"
	templateStore "coachdesk/internal/adapters/storage/template"
	domainProfile "coachdesk/internal/domain/profile"
	domainResult "coachdesk/internal/domain/result"
	domainTemplate "coachdesk/internal/domain/template"
	domainWeek "coachdesk/internal/domain/week"
)

var fixedTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return fixedTime }

type mockProfileStore struct {
	profiles []domainProfile.Profile
}

// GetByUID returns a seeded profile.
// PRE: uid is non-empty
// POST: Returns the profile or a wrapped sql.ErrNoRows
func (m *mockProfileStore) GetByUID(_ context.Context, uid string) (domainProfile.Profile, error) {
	for _, p := range m.profiles {
		if p.UID == uid {
			return p, nil
		}
	}
	return domainProfile.Profile{}, fmt.Errorf("profile not found: %w", sql.ErrNoRows)
}

// ListByRole returns seeded profiles with the role.
// PRE: role is valid
// POST: Returns profiles in seed order
func (m *mockProfileStore) ListByRole(_ context.Context, role string) ([]domainProfile.Profile, error) {
	var out []domainProfile.Profile
	for _, p := range m.profiles {
		if p.Role == role {
			out = append(out, p)
		}
	}
	return out, nil
}

type mockTemplateStore struct {
	templates []domainTemplate.Template
	days      []domainTemplate.Day
}

// GetByID returns a seeded template.
// PRE: id is non-empty
// POST: Returns the template or a wrapped sql.ErrNoRows
func (m *mockTemplateStore) GetByID(_ context.Context, id string) (domainTemplate.Template, error) {
	for _, t := range m.templates {
		if t.ID == id {
			return t, nil
		}
	}
	return domainTemplate.Template{}, fmt.Errorf("template not found: %w", sql.ErrNoRows)
}

func (m *mockTemplateStore) matching(search string) []domainTemplate.Template {
	var out []domainTemplate.Template
	for _, t := range m.templates {
		if strings.Contains(strings.ToLower(t.Title), strings.ToLower(search)) {
			out = append(out, t)
		}
	}
	return out
}

// List returns matching templates paged by the filter.
// PRE: filter is valid
// POST: Returns at most Limit templates starting at Offset
func (m *mockTemplateStore) List(_ context.Context, filter templateStore.ListFilter) ([]domainTemplate.Template, error) {
	out := m.matching(filter.Search)
	if filter.Offset >= len(out) {
		return nil, nil
	}
	out = out[filter.Offset:]
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

// Count returns the number of matching templates.
// PRE: filter is valid
// POST: Returns count >= 0
func (m *mockTemplateStore) Count(_ context.Context, filter templateStore.ListFilter) (int, error) {
	return len(m.matching(filter.Search)), nil
}

// ListDays returns a copy of the template's days in seed order.
// PRE: templateID is non-empty
// POST: Returns the days, possibly none
func (m *mockTemplateStore) ListDays(_ context.Context, templateID string) ([]domainTemplate.Day, error) {
	var out []domainTemplate.Day
	for _, d := range m.days {
		if d.TemplateID == templateID {
			out = append(out, d)
		}
	}
	return out, nil
}

type mockWeekStore struct {
	weeks []domainWeek.Week
}

// GetByID returns the athlete's week.
// PRE: athleteUID and weekID are non-empty
// POST: Returns the week or a wrapped sql.ErrNoRows
func (m *mockWeekStore) GetByID(_ context.Context, athleteUID, weekID string) (domainWeek.Week, error) {
	for _, w := range m.weeks {
		if w.AthleteUID == athleteUID && w.ID == weekID {
			return w, nil
		}
	}
	return domainWeek.Week{}, fmt.Errorf("week not found: %w", sql.ErrNoRows)
}

// ListByAthlete returns the athlete's weeks newest first.
// PRE: athleteUID is non-empty
// POST: Returns weeks sorted by CreatedAt descending
func (m *mockWeekStore) ListByAthlete(_ context.Context, athleteUID string) ([]domainWeek.Week, error) {
	var out []domainWeek.Week
	for _, w := range m.weeks {
		if w.AthleteUID == athleteUID {
			out = append(out, w)
		}
	}
	slices.SortStableFunc(out, func(a, b domainWeek.Week) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return out, nil
}

// ListByTemplate returns every week built from the template.
// PRE: templateID is non-empty
// POST: Returns weeks in seed order
func (m *mockWeekStore) ListByTemplate(_ context.Context, templateID string) ([]domainWeek.Week, error) {
	var out []domainWeek.Week
	for _, w := range m.weeks {
		if w.TemplateID == templateID {
			out = append(out, w)
		}
	}
	return out, nil
}

type mockResultStore struct {
	entries    []domainResult.Entry
	dayResults []domainResult.DayResult
}

// ListEntries returns the athlete's entries matching the filter.
// PRE: athleteUID is non-empty
// POST: Returns entries in seed order
func (m *mockResultStore) ListEntries(_ context.Context, athleteUID string, filter resultStore.EntryFilter) ([]domainResult.Entry, error) {
	var out []domainResult.Entry
	for _, e := range m.entries {
		if e.AthleteUID != athleteUID {
			continue
		}
		if (filter.WeekID != "" && e.WeekID != filter.WeekID) ||
			(filter.DayID != "" && e.DayID != filter.DayID) ||
			(filter.WorkoutID != "" && e.WorkoutID != filter.WorkoutID) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// ListDayResults returns the day results stored under one week.
// PRE: athleteUID and weekID are non-empty
// POST: Returns day results in seed order
func (m *mockResultStore) ListDayResults(_ context.Context, athleteUID, weekID string) ([]domainResult.DayResult, error) {
	var out []domainResult.DayResult
	for _, d := range m.dayResults {
		if d.AthleteUID == athleteUID && d.WeekID == weekID {
			out = append(out, d)
		}
	}
	return out, nil
}

// ListDayResultsByAthlete returns every day result of the athlete.
// PRE: athleteUID is non-empty
// POST: Returns day results in seed order
func (m *mockResultStore) ListDayResultsByAthlete(_ context.Context, athleteUID string) ([]domainResult.DayResult, error) {
	var out []domainResult.DayResult
	for _, d := range m.dayResults {
		if d.AthleteUID == athleteUID {
			out = append(out, d)
		}
	}
	return out, nil
}
