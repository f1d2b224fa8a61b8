package week

import (
	"errors"
	"strings"
	"time"
)

// DefaultTitle is used when the referenced template has no title.
const DefaultTitle = "Week"

// Domain errors
var (
	ErrEmptyID         = errors.New("week ID is required")
	ErrEmptyAthleteUID = errors.New("athlete uid is required")
	ErrMissingTemplate = errors.New("this week is not linked to a template")
)

// Week is a template assigned to one athlete. Title is a copy of the
// template title kept in sync on rename.
type Week struct {
	ID         string
	AthleteUID string
	TemplateID string
	Title      string
	CreatedAt  time.Time
}

// Validate checks if the Week has valid data.
// PRE: Week struct is populated
// POST: Returns nil if valid, error otherwise
func (w *Week) Validate() error {
	if w.ID == "" {
		return ErrEmptyID
	}
	if w.AthleteUID == "" {
		return ErrEmptyAthleteUID
	}
	if w.TemplateID == "" {
		return ErrMissingTemplate
	}
	return nil
}

// HasTemplate reports whether the week references a template.
// INVARIANT: Week fields are not mutated
func (w Week) HasTemplate() bool {
	return w.TemplateID != ""
}

// DisplayTitle returns the title or DefaultTitle when it is blank.
func (w Week) DisplayTitle() string {
	return TitleFor(w.Title)
}

// TitleFor returns the week title copied from a template title.
func TitleFor(templateTitle string) string {
	if t := strings.TrimSpace(templateTitle); t != "" {
		return t
	}
	return DefaultTitle
}
