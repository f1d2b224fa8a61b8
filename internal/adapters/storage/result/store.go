package result

import (
	"context"

	domain "coachdesk/internal/domain/result"
)

// EntryFilter scopes an entry listing; empty fields match everything.
type EntryFilter struct {
	WeekID    string
	DayID     string
	WorkoutID string
}

// Store persists result entries and legacy day results.
type Store interface {
	CreateEntry(ctx context.Context, value domain.Entry) error
	GetEntry(ctx context.Context, athleteUID, entryID string) (domain.Entry, error)
	SaveEntry(ctx context.Context, value domain.Entry) error
	ListEntries(ctx context.Context, athleteUID string, filter EntryFilter) ([]domain.Entry, error)

	GetDayResult(ctx context.Context, athleteUID, weekID, dayID string) (domain.DayResult, error)
	SaveDayResult(ctx context.Context, value domain.DayResult) error
	ListDayResults(ctx context.Context, athleteUID, weekID string) ([]domain.DayResult, error)
	ListDayResultsByAthlete(ctx context.Context, athleteUID string) ([]domain.DayResult, error)
}
