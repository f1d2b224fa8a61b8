package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	emailAdapter "coachdesk/internal/adapters/email"
	weekStore "coachdesk/internal/adapters/storage/week"
	"coachdesk/internal/domain/profile"
	templateDomain "coachdesk/internal/domain/template"
	"coachdesk/internal/domain/week"
)

// ProfileStoreForAssignment defines the profile lookups assignment needs.
type ProfileStoreForAssignment interface {
	GetByUID(ctx context.Context, uid string) (profile.Profile, error)
}

// TemplateStoreForAssignment defines the template lookups assignment needs.
type TemplateStoreForAssignment interface {
	GetByID(ctx context.Context, id string) (templateDomain.Template, error)
}

// WeekStoreForAssignment defines the week operations assignment needs.
type WeekStoreForAssignment interface {
	Create(ctx context.Context, w week.Week) error
	ExistsForTemplate(ctx context.Context, athleteUID, templateID string) (bool, error)
	Delete(ctx context.Context, athleteUID, weekID string) error
}

var (
	ErrSubscriptionExpired = errors.New("subscription expired")
	ErrNoTemplateSelected  = errors.New("select a template first")
	ErrAlreadyAssigned     = errors.New("this template is already assigned to the athlete")
)

// Bulk assignment outcomes.
const (
	OutcomeAssigned        = "assigned"
	OutcomeExpired         = "expired"
	OutcomeAlreadyAssigned = "already_assigned"
	OutcomeError           = "error"
)

// AssignWeekInput carries input for assigning a template to an athlete.
type AssignWeekInput struct {
	AthleteUID string
	TemplateID string
}

// AssignWeekDeps holds dependencies for AssignWeek and BulkAssignWeek.
type AssignWeekDeps struct {
	ProfileStore  ProfileStoreForAssignment
	TemplateStore TemplateStoreForAssignment
	WeekStore     WeekStoreForAssignment
	Notifier      WeekNotifier
	GenerateID    func() string
	Now           func() time.Time
}

// ExecuteAssignWeek creates a week for the athlete from a template.
// Checks run in order: subscription, template selection, duplicate.
// PRE: AthleteUID has a profile
// POST: A week titled after the template exists for (AthleteUID, TemplateID)
// INVARIANT: At most one week per (athlete, template)
func ExecuteAssignWeek(ctx context.Context, input AssignWeekInput, deps AssignWeekDeps) (week.Week, error) {
	w, athlete, err := assignWeek(ctx, input, deps)
	if err != nil {
		return week.Week{}, err
	}
	if deps.Notifier != nil && athlete.Email != "" {
		err := deps.Notifier.WeekAssigned(ctx, weekNotice(athlete, w))
		logNotifyFailure("week_assigned", err, "athlete_uid", athlete.UID)
	}
	return w, nil
}

func assignWeek(ctx context.Context, input AssignWeekInput, deps AssignWeekDeps) (week.Week, profile.Profile, error) {
	athlete, err := deps.ProfileStore.GetByUID(ctx, input.AthleteUID)
	if err != nil {
		return week.Week{}, profile.Profile{}, err
	}
	now := deps.Now()
	if athlete.SubscriptionExpired(now) {
		slog.Info("assignment_event", "event", "assign_blocked", "athlete_uid", input.AthleteUID, "reason", "subscription_expired")
		return week.Week{}, athlete, ErrSubscriptionExpired
	}

	templateID := strings.TrimSpace(input.TemplateID)
	if templateID == "" {
		return week.Week{}, athlete, ErrNoTemplateSelected
	}

	exists, err := deps.WeekStore.ExistsForTemplate(ctx, input.AthleteUID, templateID)
	if err != nil {
		return week.Week{}, athlete, err
	}
	if exists {
		return week.Week{}, athlete, ErrAlreadyAssigned
	}

	t, err := deps.TemplateStore.GetByID(ctx, templateID)
	if err != nil {
		return week.Week{}, athlete, err
	}

	w := week.Week{
		ID:         deps.GenerateID(),
		AthleteUID: input.AthleteUID,
		TemplateID: t.ID,
		Title:      week.TitleFor(t.Title),
		CreatedAt:  now,
	}
	if err := w.Validate(); err != nil {
		return week.Week{}, athlete, err
	}
	if err := deps.WeekStore.Create(ctx, w); err != nil {
		if errors.Is(err, weekStore.ErrDuplicate) {
			return week.Week{}, athlete, ErrAlreadyAssigned
		}
		return week.Week{}, athlete, err
	}

	slog.Info("assignment_event", "event", "week_assigned", "athlete_uid", w.AthleteUID, "template_id", w.TemplateID, "week_id", w.ID)
	return w, athlete, nil
}

// --- Bulk Assign ---

// BulkAssignInput carries one template and many athletes.
type BulkAssignInput struct {
	TemplateID  string
	AthleteUIDs []string
}

// AssignmentOutcome is the per-athlete result of a bulk assignment.
type AssignmentOutcome struct {
	AthleteUID string `json:"athleteUid"`
	Status     string `json:"status"`
	WeekID     string `json:"weekId,omitempty"`
	Error      string `json:"error,omitempty"`
}

// ExecuteBulkAssignWeek assigns a template to each athlete independently and
// sends the notifications as one batch.
// PRE: TemplateID is non-empty
// POST: One outcome per distinct athlete, in input order
func ExecuteBulkAssignWeek(ctx context.Context, input BulkAssignInput, deps AssignWeekDeps) ([]AssignmentOutcome, error) {
	if strings.TrimSpace(input.TemplateID) == "" {
		return nil, ErrNoTemplateSelected
	}

	seen := make(map[string]bool, len(input.AthleteUIDs))
	outcomes := make([]AssignmentOutcome, 0, len(input.AthleteUIDs))
	var notices []emailAdapter.WeekAssignedNotice

	for _, uid := range input.AthleteUIDs {
		if uid == "" || seen[uid] {
			continue
		}
		seen[uid] = true

		w, athlete, err := assignWeek(ctx, AssignWeekInput{AthleteUID: uid, TemplateID: input.TemplateID}, deps)
		outcome := AssignmentOutcome{AthleteUID: uid}
		switch {
		case err == nil:
			outcome.Status = OutcomeAssigned
			outcome.WeekID = w.ID
			if athlete.Email != "" {
				notices = append(notices, weekNotice(athlete, w))
			}
		case errors.Is(err, ErrSubscriptionExpired):
			outcome.Status = OutcomeExpired
		case errors.Is(err, ErrAlreadyAssigned):
			outcome.Status = OutcomeAlreadyAssigned
		default:
			outcome.Status = OutcomeError
			outcome.Error = err.Error()
			slog.Warn("assignment_event", "event", "bulk_assign_failed", "athlete_uid", uid, "error", err)
		}
		outcomes = append(outcomes, outcome)
	}

	if deps.Notifier != nil && len(notices) > 0 {
		err := deps.Notifier.WeeksAssigned(ctx, notices)
		logNotifyFailure("weeks_assigned", err, "count", len(notices))
	}
	return outcomes, nil
}

// --- Remove Week ---

// RemoveWeekInput identifies the week to remove.
type RemoveWeekInput struct {
	AthleteUID string
	WeekID     string
}

// RemoveWeekDeps holds dependencies for RemoveWeek.
type RemoveWeekDeps struct {
	WeekStore WeekStoreForAssignment
}

// ExecuteRemoveWeek deletes one week of one athlete. Results stay in place.
// PRE: Week exists for AthleteUID
// POST: Week removed; other weeks untouched
func ExecuteRemoveWeek(ctx context.Context, input RemoveWeekInput, deps RemoveWeekDeps) error {
	if err := deps.WeekStore.Delete(ctx, input.AthleteUID, input.WeekID); err != nil {
		return err
	}
	slog.Info("assignment_event", "event", "week_removed", "athlete_uid", input.AthleteUID, "week_id", input.WeekID)
	return nil
}

func weekNotice(athlete profile.Profile, w week.Week) emailAdapter.WeekAssignedNotice {
	return emailAdapter.WeekAssignedNotice{
		AthleteEmail: athlete.Email,
		AthleteName:  athlete.DisplayName(),
		WeekTitle:    w.DisplayTitle(),
		WeekID:       w.ID,
	}
}
