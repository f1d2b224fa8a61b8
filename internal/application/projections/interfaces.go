package projections

import (
	"context"

	resultStore "coachdesk/internal/adapters/storage/result"
	templateStore "coachdesk/internal/adapters/storage/template"
	domainProfile "coachdesk/internal/domain/profile"
	domainResult "coachdesk/internal/domain/result"
	domainTemplate "coachdesk/internal/domain/template"
	domainWeek "coachdesk/internal/domain/week"
)

// ProfileStore interface for profile queries.
type ProfileStore interface {
	GetByUID(ctx context.Context, uid string) (domainProfile.Profile, error)
	ListByRole(ctx context.Context, role string) ([]domainProfile.Profile, error)
}

// TemplateStore interface for template queries.
type TemplateStore interface {
	GetByID(ctx context.Context, id string) (domainTemplate.Template, error)
	List(ctx context.Context, filter templateStore.ListFilter) ([]domainTemplate.Template, error)
	Count(ctx context.Context, filter templateStore.ListFilter) (int, error)
	ListDays(ctx context.Context, templateID string) ([]domainTemplate.Day, error)
}

// WeekStore interface for week queries.
type WeekStore interface {
	GetByID(ctx context.Context, athleteUID, weekID string) (domainWeek.Week, error)
	ListByAthlete(ctx context.Context, athleteUID string) ([]domainWeek.Week, error)
	ListByTemplate(ctx context.Context, templateID string) ([]domainWeek.Week, error)
}

// ResultStore interface for result queries.
type ResultStore interface {
	ListEntries(ctx context.Context, athleteUID string, filter resultStore.EntryFilter) ([]domainResult.Entry, error)
	ListDayResults(ctx context.Context, athleteUID, weekID string) ([]domainResult.DayResult, error)
	ListDayResultsByAthlete(ctx context.Context, athleteUID string) ([]domainResult.DayResult, error)
}
