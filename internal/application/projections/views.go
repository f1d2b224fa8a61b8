package projections

import (
	"bytes"
	"fmt"
	"time"

	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	domainResult "coachdesk/internal/domain/result"
	domainTemplate "coachdesk/internal/domain/template"
	domainWeek "coachdesk/internal/domain/week"
)

// workoutRenderer turns workout markdown into HTML.
// Raw HTML in the input is omitted since WithUnsafe is not set.
var workoutRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

// DayView is a template day ready for display.
type DayView struct {
	ID           string `json:"id"`
	Order        int    `json:"order"`
	Label        string `json:"label"`
	WorkoutID    string `json:"workoutId"`
	WorkoutTitle string `json:"workoutTitle"`
	Workout      string `json:"workout"`
	WorkoutHTML  string `json:"workoutHtml"`
}

// WeekSummary is a week as listed for an athlete or coach.
type WeekSummary struct {
	ID         string    `json:"id"`
	TemplateID string    `json:"templateId"`
	Title      string    `json:"title"`
	CreatedAt  time.Time `json:"createdAt"`
}

// DayResultView is a legacy per-day result.
type DayResultView struct {
	WeekID         string     `json:"weekId"`
	DayID          string     `json:"dayId"`
	Result         string     `json:"result"`
	DayOrder       int        `json:"dayOrder"`
	CoachComment   string     `json:"coachComment"`
	CoachCommentAt *time.Time `json:"coachCommentAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// EntryView is a per-workout result entry.
type EntryView struct {
	ID             string             `json:"id"`
	WeekID         string             `json:"weekId"`
	DayID          string             `json:"dayId"`
	WorkoutID      string             `json:"workoutId"`
	WeekTitle      string             `json:"weekTitle"`
	DayLabel       string             `json:"dayLabel"`
	WorkoutTitle   string             `json:"workoutTitle"`
	Value          domainResult.Value `json:"value"`
	CoachComment   string             `json:"coachComment"`
	CoachCommentAt *time.Time         `json:"coachCommentAt"`
	CreatedAt      time.Time          `json:"createdAt"`
	UpdatedAt      time.Time          `json:"updatedAt"`
}

// renderWorkout converts workout markdown to HTML.
func renderWorkout(src string) (string, error) {
	if src == "" {
		return "", nil
	}
	var buf bytes.Buffer
	if err := workoutRenderer.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("render workout: %w", err)
	}
	return buf.String(), nil
}

// dayViews sorts days by order and renders each workout.
// POST: result order matches domainTemplate.SortDays
func dayViews(days []domainTemplate.Day) ([]DayView, error) {
	domainTemplate.SortDays(days)
	views := make([]DayView, 0, len(days))
	for _, d := range days {
		html, err := renderWorkout(d.Workout)
		if err != nil {
			return nil, err
		}
		views = append(views, DayView{
			ID:           d.ID,
			Order:        d.Order,
			Label:        d.Label(),
			WorkoutID:    d.ID,
			WorkoutTitle: d.WorkoutTitle(),
			Workout:      d.Workout,
			WorkoutHTML:  html,
		})
	}
	return views, nil
}

// NewWeekSummary converts a stored week to its summary view.
func NewWeekSummary(w domainWeek.Week) WeekSummary {
	return WeekSummary{
		ID:         w.ID,
		TemplateID: w.TemplateID,
		Title:      w.DisplayTitle(),
		CreatedAt:  w.CreatedAt,
	}
}

func dayResultView(d domainResult.DayResult) DayResultView {
	return DayResultView{
		WeekID:         d.WeekID,
		DayID:          d.DayID,
		Result:         d.Result,
		DayOrder:       d.DayOrder,
		CoachComment:   d.CoachComment,
		CoachCommentAt: optionalTime(d.CoachCommentAt),
		UpdatedAt:      d.UpdatedAt,
	}
}

func entryView(e domainResult.Entry) EntryView {
	return EntryView{
		ID:             e.ID,
		WeekID:         e.WeekID,
		DayID:          e.DayID,
		WorkoutID:      e.WorkoutID,
		WeekTitle:      e.WeekTitle,
		DayLabel:       e.DayLabel,
		WorkoutTitle:   e.WorkoutTitle,
		Value:          e.Value,
		CoachComment:   e.CoachComment,
		CoachCommentAt: optionalTime(e.CoachCommentAt),
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      e.UpdatedAt,
	}
}

// optionalTime maps the zero time to nil.
func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
