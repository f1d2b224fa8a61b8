package template

import (
	"context"

	domain "coachdesk/internal/domain/template"
)

// ListFilter narrows and pages a template listing.
type ListFilter struct {
	Search string
	Limit  int
	Offset int
}

// Store persists Template and Day state.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Template, error)
	Save(ctx context.Context, value domain.Template) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter ListFilter) ([]domain.Template, error)
	Count(ctx context.Context, filter ListFilter) (int, error)

	ListDays(ctx context.Context, templateID string) ([]domain.Day, error)
	GetDay(ctx context.Context, templateID, dayID string) (domain.Day, error)
	SaveDay(ctx context.Context, value domain.Day) error
	DeleteDay(ctx context.Context, templateID, dayID string) error
	DeleteDays(ctx context.Context, templateID string) error
}
