package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.uber.org/multierr"

	templateDomain "coachdesk/internal/domain/template"
	"coachdesk/internal/domain/week"
)

// TemplateStoreForEditor defines the store interface needed by template orchestrators.
type TemplateStoreForEditor interface {
	GetByID(ctx context.Context, id string) (templateDomain.Template, error)
	Save(ctx context.Context, t templateDomain.Template) error
	Delete(ctx context.Context, id string) error
	ListDays(ctx context.Context, templateID string) ([]templateDomain.Day, error)
	GetDay(ctx context.Context, templateID, dayID string) (templateDomain.Day, error)
	SaveDay(ctx context.Context, d templateDomain.Day) error
	DeleteDay(ctx context.Context, templateID, dayID string) error
	DeleteDays(ctx context.Context, templateID string) error
}

// WeekStoreForTemplate defines the week operations the template cascade needs.
type WeekStoreForTemplate interface {
	ListByTemplate(ctx context.Context, templateID string) ([]week.Week, error)
	Save(ctx context.Context, w week.Week) error
	Delete(ctx context.Context, athleteUID, weekID string) error
}

var ErrConfirmationRequired = errors.New("deleting a day must be confirmed")

// --- Create Template ---

// CreateTemplateInput carries input for creating a template.
type CreateTemplateInput struct {
	Title string
}

// CreateTemplateDeps holds dependencies for CreateTemplate.
type CreateTemplateDeps struct {
	TemplateStore TemplateStoreForEditor
	GenerateID    func() string
	Now           func() time.Time
}

// ExecuteCreateTemplate creates an empty template.
// PRE: Title trims to 2..120 characters
// POST: Template persisted with no days
func ExecuteCreateTemplate(ctx context.Context, input CreateTemplateInput, deps CreateTemplateDeps) (templateDomain.Template, error) {
	title, err := templateDomain.NewTitle(input.Title)
	if err != nil {
		return templateDomain.Template{}, err
	}
	now := deps.Now()
	t := templateDomain.Template{ID: deps.GenerateID(), Title: title, CreatedAt: now, UpdatedAt: now}
	if err := t.Validate(); err != nil {
		return templateDomain.Template{}, err
	}
	if err := deps.TemplateStore.Save(ctx, t); err != nil {
		return templateDomain.Template{}, err
	}
	slog.Info("template_event", "event", "template_created", "template_id", t.ID, "title", t.Title)
	return t, nil
}

// --- Rename Template ---

// RenameTemplateInput carries a new title for a template.
type RenameTemplateInput struct {
	TemplateID string
	Title      string
}

// RenameTemplateDeps holds dependencies for RenameTemplate.
type RenameTemplateDeps struct {
	TemplateStore TemplateStoreForEditor
	WeekStore     WeekStoreForTemplate
	Now           func() time.Time
}

// RenameTemplateResult reports the propagation outcome.
type RenameTemplateResult struct {
	Template     templateDomain.Template
	WeeksUpdated int
}

// ExecuteRenameTemplate retitles a template and every week assigned from it.
// An empty title becomes "Untitled".
// PRE: TemplateID exists
// POST: Template title updated; every referencing week carries the new title
// unless its update failed, in which case the combined error is returned
func ExecuteRenameTemplate(ctx context.Context, input RenameTemplateInput, deps RenameTemplateDeps) (RenameTemplateResult, error) {
	title, err := templateDomain.RenameTitle(input.Title)
	if err != nil {
		return RenameTemplateResult{}, err
	}
	t, err := deps.TemplateStore.GetByID(ctx, input.TemplateID)
	if err != nil {
		return RenameTemplateResult{}, err
	}
	t.Title = title
	t.UpdatedAt = deps.Now()
	if err := deps.TemplateStore.Save(ctx, t); err != nil {
		return RenameTemplateResult{}, err
	}

	weeks, err := deps.WeekStore.ListByTemplate(ctx, t.ID)
	if err != nil {
		return RenameTemplateResult{Template: t}, fmt.Errorf("list weeks for rename: %w", err)
	}

	result := RenameTemplateResult{Template: t}
	var errs error
	for _, w := range weeks {
		w.Title = week.TitleFor(title)
		if err := deps.WeekStore.Save(ctx, w); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("week %s: %w", w.ID, err))
			continue
		}
		result.WeeksUpdated++
	}

	slog.Info("template_event", "event", "template_renamed", "template_id", t.ID, "weeks_updated", result.WeeksUpdated, "weeks_failed", len(multierr.Errors(errs)))
	return result, errs
}

// --- Delete Template ---

// DeleteTemplateInput identifies the template to delete.
type DeleteTemplateInput struct {
	TemplateID string
}

// DeleteTemplateDeps holds dependencies for DeleteTemplate.
type DeleteTemplateDeps struct {
	TemplateStore TemplateStoreForEditor
	WeekStore     WeekStoreForTemplate
}

// DeleteTemplateResult reports how far the cascade got.
type DeleteTemplateResult struct {
	WeeksRemoved int
}

// ExecuteDeleteTemplate removes every week assigned from the template, then
// its days, then the template. There is no transaction: the first failing
// step stops the cascade and earlier steps stay applied.
// PRE: TemplateID exists
// POST: No week, day or template row references TemplateID
func ExecuteDeleteTemplate(ctx context.Context, input DeleteTemplateInput, deps DeleteTemplateDeps) (DeleteTemplateResult, error) {
	var result DeleteTemplateResult
	if _, err := deps.TemplateStore.GetByID(ctx, input.TemplateID); err != nil {
		return result, err
	}

	weeks, err := deps.WeekStore.ListByTemplate(ctx, input.TemplateID)
	if err != nil {
		return result, fmt.Errorf("list weeks for delete: %w", err)
	}
	for _, w := range weeks {
		if err := deps.WeekStore.Delete(ctx, w.AthleteUID, w.ID); err != nil {
			return result, fmt.Errorf("delete week %s: %w", w.ID, err)
		}
		result.WeeksRemoved++
	}

	if err := deps.TemplateStore.DeleteDays(ctx, input.TemplateID); err != nil {
		return result, fmt.Errorf("delete days: %w", err)
	}
	if err := deps.TemplateStore.Delete(ctx, input.TemplateID); err != nil {
		return result, fmt.Errorf("delete template: %w", err)
	}

	slog.Info("template_event", "event", "template_deleted", "template_id", input.TemplateID, "weeks_removed", result.WeeksRemoved)
	return result, nil
}

// --- Days ---

// AddDayInput identifies the template to extend.
type AddDayInput struct {
	TemplateID string
}

// DayDeps holds dependencies for the day orchestrators.
type DayDeps struct {
	TemplateStore TemplateStoreForEditor
	GenerateID    func() string
	Now           func() time.Time
}

// ExecuteAddDay appends an empty day after the highest existing order.
// PRE: TemplateID exists
// POST: New day with order max(order)+1, or 1 for an empty template
func ExecuteAddDay(ctx context.Context, input AddDayInput, deps DayDeps) (templateDomain.Day, error) {
	t, err := deps.TemplateStore.GetByID(ctx, input.TemplateID)
	if err != nil {
		return templateDomain.Day{}, err
	}
	days, err := deps.TemplateStore.ListDays(ctx, t.ID)
	if err != nil {
		return templateDomain.Day{}, err
	}

	d := templateDomain.Day{ID: deps.GenerateID(), TemplateID: t.ID, Order: templateDomain.NextOrder(days)}
	if err := d.Validate(); err != nil {
		return templateDomain.Day{}, err
	}
	if err := deps.TemplateStore.SaveDay(ctx, d); err != nil {
		return templateDomain.Day{}, err
	}
	touchTemplate(ctx, deps, t)
	return d, nil
}

// EditDayInput carries new workout text for a day.
type EditDayInput struct {
	TemplateID string
	DayID      string
	Workout    string
}

// ExecuteEditDay replaces a day's workout text.
// PRE: Day belongs to TemplateID
// POST: Workout persisted; order unchanged
func ExecuteEditDay(ctx context.Context, input EditDayInput, deps DayDeps) (templateDomain.Day, error) {
	d, err := deps.TemplateStore.GetDay(ctx, input.TemplateID, input.DayID)
	if err != nil {
		return templateDomain.Day{}, err
	}
	d.Workout = input.Workout
	if err := d.Validate(); err != nil {
		return templateDomain.Day{}, err
	}
	if err := deps.TemplateStore.SaveDay(ctx, d); err != nil {
		return templateDomain.Day{}, err
	}
	if t, err := deps.TemplateStore.GetByID(ctx, input.TemplateID); err == nil {
		touchTemplate(ctx, deps, t)
	}
	return d, nil
}

// DeleteDayInput identifies a day and carries the user's confirmation.
type DeleteDayInput struct {
	TemplateID string
	DayID      string
	Confirmed  bool
}

// ExecuteDeleteDay removes a day after explicit confirmation. Remaining days
// keep their order values.
// PRE: Confirmed is true
// POST: Day removed
func ExecuteDeleteDay(ctx context.Context, input DeleteDayInput, deps DayDeps) error {
	if !input.Confirmed {
		return ErrConfirmationRequired
	}
	if _, err := deps.TemplateStore.GetDay(ctx, input.TemplateID, input.DayID); err != nil {
		return err
	}
	if err := deps.TemplateStore.DeleteDay(ctx, input.TemplateID, input.DayID); err != nil {
		return err
	}
	slog.Info("template_event", "event", "day_deleted", "template_id", input.TemplateID, "day_id", input.DayID)
	return nil
}

// touchTemplate bumps UpdatedAt after a day change. Failures are logged only.
func touchTemplate(ctx context.Context, deps DayDeps, t templateDomain.Template) {
	t.UpdatedAt = deps.Now()
	if err := deps.TemplateStore.Save(ctx, t); err != nil {
		slog.Warn("template_touch_failed", "template_id", t.ID, "error", err)
	}
}
