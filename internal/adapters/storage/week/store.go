package week

import (
	"context"
	"errors"

	domain "coachdesk/internal/domain/week"
)

// ErrDuplicate is returned by Create when the athlete already holds a week
// for the same template.
var ErrDuplicate = errors.New("week already exists for this template")

// Store persists Week state.
type Store interface {
	Create(ctx context.Context, value domain.Week) error
	Save(ctx context.Context, value domain.Week) error
	Delete(ctx context.Context, athleteUID, weekID string) error
	GetByID(ctx context.Context, athleteUID, weekID string) (domain.Week, error)
	ListByAthlete(ctx context.Context, athleteUID string) ([]domain.Week, error)
	ListByTemplate(ctx context.Context, templateID string) ([]domain.Week, error)
	ExistsForTemplate(ctx context.Context, athleteUID, templateID string) (bool, error)
}
