package orchestrators

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"
	"time"

	emailAdapter "coachdesk/internal/adapters/email"
	"coachdesk/internal/domain/result"
	templateDomain "coachdesk/internal/domain/template"
	"coachdesk/internal/domain/week"
)

// WeekStoreForResult defines the week lookups result logging needs.
type WeekStoreForResult interface {
	GetByID(ctx context.Context, athleteUID, weekID string) (week.Week, error)
}

// TemplateStoreForResult defines the template lookups result logging needs.
type TemplateStoreForResult interface {
	GetDay(ctx context.Context, templateID, dayID string) (templateDomain.Day, error)
}

// ResultStoreForOrchestrator defines the result operations the orchestrators need.
type ResultStoreForOrchestrator interface {
	CreateEntry(ctx context.Context, e result.Entry) error
	GetEntry(ctx context.Context, athleteUID, entryID string) (result.Entry, error)
	SaveEntry(ctx context.Context, e result.Entry) error
	GetDayResult(ctx context.Context, athleteUID, weekID, dayID string) (result.DayResult, error)
	SaveDayResult(ctx context.Context, d result.DayResult) error
}

var ErrWorkoutNotFound = errors.New("workout not found for this day")

// --- Submit Result ---

// SubmitResultInput carries an athlete's raw form values for one workout.
type SubmitResultInput struct {
	AthleteUID string
	WeekID     string
	DayID      string
	WorkoutID  string // defaults to DayID
	Raw        result.RawValue
}

// SubmitResultDeps holds dependencies for SubmitResult.
type SubmitResultDeps struct {
	WeekStore     WeekStoreForResult
	TemplateStore TemplateStoreForResult
	ResultStore   ResultStoreForOrchestrator
	GenerateID    func() string
	Now           func() time.Time
}

// ExecuteSubmitResult appends an immutable result entry with denormalised
// week, day and workout titles. Only fields that parse are stored.
// PRE: Week belongs to AthleteUID and references a template containing DayID
// POST: New entry persisted
func ExecuteSubmitResult(ctx context.Context, input SubmitResultInput, deps SubmitResultDeps) (result.Entry, error) {
	value := result.ParseValue(input.Raw)
	if value.IsEmpty() {
		return result.Entry{}, result.ErrEmptyResult
	}

	w, err := deps.WeekStore.GetByID(ctx, input.AthleteUID, input.WeekID)
	if err != nil {
		return result.Entry{}, err
	}
	if !w.HasTemplate() {
		return result.Entry{}, week.ErrMissingTemplate
	}
	d, err := deps.TemplateStore.GetDay(ctx, w.TemplateID, input.DayID)
	if err != nil {
		return result.Entry{}, err
	}

	workoutID := input.WorkoutID
	if workoutID == "" {
		workoutID = d.ID
	}
	if workoutID != d.ID {
		return result.Entry{}, ErrWorkoutNotFound
	}

	now := deps.Now()
	e := result.Entry{
		ID:           deps.GenerateID(),
		AthleteUID:   input.AthleteUID,
		WeekID:       w.ID,
		DayID:        d.ID,
		WorkoutID:    workoutID,
		WeekTitle:    w.DisplayTitle(),
		DayLabel:     d.Label(),
		WorkoutTitle: d.WorkoutTitle(),
		Value:        value,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := e.Validate(); err != nil {
		return result.Entry{}, err
	}
	if err := deps.ResultStore.CreateEntry(ctx, e); err != nil {
		return result.Entry{}, err
	}

	slog.Info("result_event", "event", "result_submitted", "athlete_uid", e.AthleteUID, "week_id", e.WeekID, "day_id", e.DayID)
	return e, nil
}

// --- Save Day Result ---

// SaveDayResultInput carries free-text results for one day of a week.
type SaveDayResultInput struct {
	AthleteUID string
	WeekID     string
	DayID      string
	Text       string
}

// SaveDayResultDeps holds dependencies for SaveDayResult.
type SaveDayResultDeps struct {
	ProfileStore  ProfileStoreForAssignment
	WeekStore     WeekStoreForResult
	TemplateStore TemplateStoreForResult
	ResultStore   ResultStoreForOrchestrator
	Now           func() time.Time
}

// ExecuteSaveDayResult upserts the per-day free-text result. An existing
// coach comment is kept.
// PRE: Athlete subscription is active
// POST: Day result stores the text, the day's order and the save time
func ExecuteSaveDayResult(ctx context.Context, input SaveDayResultInput, deps SaveDayResultDeps) (result.DayResult, error) {
	now := deps.Now()
	athlete, err := deps.ProfileStore.GetByUID(ctx, input.AthleteUID)
	if err != nil {
		return result.DayResult{}, err
	}
	if athlete.SubscriptionExpired(now) {
		return result.DayResult{}, ErrSubscriptionExpired
	}

	w, err := deps.WeekStore.GetByID(ctx, input.AthleteUID, input.WeekID)
	if err != nil {
		return result.DayResult{}, err
	}
	if !w.HasTemplate() {
		return result.DayResult{}, week.ErrMissingTemplate
	}
	d, err := deps.TemplateStore.GetDay(ctx, w.TemplateID, input.DayID)
	if err != nil {
		return result.DayResult{}, err
	}

	dr, err := loadDayResult(ctx, deps.ResultStore, input.AthleteUID, w.ID, d.ID)
	if err != nil {
		return result.DayResult{}, err
	}
	dr.Result = strings.TrimSpace(input.Text)
	dr.DayOrder = d.Order
	dr.UpdatedAt = now
	if err := dr.Validate(); err != nil {
		return result.DayResult{}, err
	}
	if err := deps.ResultStore.SaveDayResult(ctx, dr); err != nil {
		return result.DayResult{}, err
	}

	slog.Info("result_event", "event", "day_result_saved", "athlete_uid", dr.AthleteUID, "week_id", dr.WeekID, "day_id", dr.DayID)
	return dr, nil
}

// --- Save Comment ---

// SaveCommentInput targets either a result entry (EntryID) or a legacy day
// result (WeekID and DayID), selected by Source.
type SaveCommentInput struct {
	AthleteUID string
	Source     string
	EntryID    string
	WeekID     string
	DayID      string
	Comment    string
}

// SaveCommentDeps holds dependencies for SaveComment.
type SaveCommentDeps struct {
	ResultStore  ResultStoreForOrchestrator
	ProfileStore ProfileStoreForAssignment
	Notifier     CommentNotifier
	Now          func() time.Time
}

// SaveCommentResult echoes the stored comment.
type SaveCommentResult struct {
	Source         string    `json:"source"`
	CoachComment   string    `json:"coachComment"`
	CoachCommentAt time.Time `json:"coachCommentAt"`
}

// ExecuteSaveComment merge-updates the coach comment on one result. The
// comment is trimmed; an empty comment clears it.
// PRE: caller is a coach; Source is entries or weekResults
// POST: coachComment, coachCommentAt and updatedAt are set; other fields untouched
func ExecuteSaveComment(ctx context.Context, input SaveCommentInput, deps SaveCommentDeps) (SaveCommentResult, error) {
	if !result.IsValidSource(input.Source) {
		return SaveCommentResult{}, result.ErrUnknownSource
	}
	comment := strings.TrimSpace(input.Comment)
	now := deps.Now()
	var label string

	switch input.Source {
	case result.SourceEntries:
		e, err := deps.ResultStore.GetEntry(ctx, input.AthleteUID, input.EntryID)
		if err != nil {
			return SaveCommentResult{}, err
		}
		if err := e.SetComment(comment, now); err != nil {
			return SaveCommentResult{}, err
		}
		if err := deps.ResultStore.SaveEntry(ctx, e); err != nil {
			return SaveCommentResult{}, err
		}
		label = e.WeekTitle + " · " + e.DayLabel
	case result.SourceWeekResults:
		// Comments only update an existing day result; a missing one is not found.
		dr, err := deps.ResultStore.GetDayResult(ctx, input.AthleteUID, input.WeekID, input.DayID)
		if err != nil {
			return SaveCommentResult{}, err
		}
		if err := dr.Validate(); err != nil {
			return SaveCommentResult{}, err
		}
		if err := dr.SetComment(comment, now); err != nil {
			return SaveCommentResult{}, err
		}
		if err := deps.ResultStore.SaveDayResult(ctx, dr); err != nil {
			return SaveCommentResult{}, err
		}
		label = templateDomain.DayLabel(dr.DayOrder)
		if dr.DayOrder == 0 {
			label = "Day " + dr.DayID
		}
	}

	slog.Info("result_event", "event", "comment_saved", "athlete_uid", input.AthleteUID, "source", input.Source, "cleared", comment == "")
	if comment != "" {
		notifyComment(ctx, input.AthleteUID, label, comment, deps)
	}
	return SaveCommentResult{Source: input.Source, CoachComment: comment, CoachCommentAt: now}, nil
}

// loadDayResult returns the stored day result or a fresh one keyed by the arguments.
func loadDayResult(ctx context.Context, store ResultStoreForOrchestrator, athleteUID, weekID, dayID string) (result.DayResult, error) {
	dr, err := store.GetDayResult(ctx, athleteUID, weekID, dayID)
	if errors.Is(err, sql.ErrNoRows) {
		return result.DayResult{AthleteUID: athleteUID, WeekID: weekID, DayID: dayID}, nil
	}
	return dr, err
}

func notifyComment(ctx context.Context, athleteUID, label, comment string, deps SaveCommentDeps) {
	if deps.Notifier == nil || deps.ProfileStore == nil {
		return
	}
	athlete, err := deps.ProfileStore.GetByUID(ctx, athleteUID)
	if err != nil {
		logNotifyFailure("coach_commented", err, "athlete_uid", athleteUID)
		return
	}
	if athlete.Email == "" {
		return
	}
	err = deps.Notifier.CoachCommented(ctx, emailAdapter.CommentNotice{
		AthleteEmail: athlete.Email,
		AthleteName:  athlete.DisplayName(),
		Label:        label,
		Comment:      comment,
	})
	logNotifyFailure("coach_commented", err, "athlete_uid", athleteUID)
}
