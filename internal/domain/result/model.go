package result

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Max length constants for user-editable fields.
const (
	MaxNotesLength   = 1000
	MaxCommentLength = 2000
	MaxResultLength  = 5000
)

// Source constants name the two stored result shapes.
const (
	SourceEntries     = "entries"
	SourceWeekResults = "weekResults"
)

// Domain errors
var (
	ErrEmptyID         = errors.New("result ID is required")
	ErrEmptyAthleteUID = errors.New("athlete uid is required")
	ErrEmptyWeekID     = errors.New("week ID is required")
	ErrEmptyDayID      = errors.New("day ID is required")
	ErrEmptyWorkoutID  = errors.New("workout ID is required")
	ErrEmptyResult     = errors.New("fill in at least one field")
	ErrNotesTooLong    = errors.New("notes cannot exceed 1000 characters")
	ErrCommentTooLong  = errors.New("comment cannot exceed 2000 characters")
	ErrResultTooLong   = errors.New("result cannot exceed 5000 characters")
	ErrUnknownSource   = errors.New("source must be one of: entries, weekResults")
)

// Value is the sparse outcome of a workout. Fields the athlete left blank are nil
// and are omitted from the stored document.
type Value struct {
	WeightKg    *float64 `json:"weightKg,omitempty"`
	Reps        *int     `json:"reps,omitempty"`
	TimeSeconds *int     `json:"timeSeconds,omitempty"`
	Notes       string   `json:"notes,omitempty"`
}

// RawValue carries the form fields exactly as the athlete typed them.
type RawValue struct {
	WeightKg    string
	Reps        string
	TimeSeconds string
	Notes       string
}

var (
	leadingFloat = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)
	leadingInt   = regexp.MustCompile(`^[+-]?\d+`)
)

// ParseValue keeps only the fields that parse. A field is read from its leading
// number, so "12kg" is 12 and "10 reps" is 10. Blank, unparseable or
// non-finite numbers are dropped rather than rejected; notes are kept when
// non-blank after trimming.
// PRE: none
// POST: returned Value contains only successfully parsed, finite fields
func ParseValue(raw RawValue) Value {
	var v Value
	if w, ok := parseLeadingFloat(raw.WeightKg); ok {
		v.WeightKg = &w
	}
	if r, ok := parseLeadingInt(raw.Reps); ok {
		v.Reps = &r
	}
	if s, ok := parseLeadingInt(raw.TimeSeconds); ok {
		v.TimeSeconds = &s
	}
	v.Notes = strings.TrimSpace(raw.Notes)
	return v
}

func parseLeadingFloat(raw string) (float64, bool) {
	m := leadingFloat.FindString(strings.ReplaceAll(strings.TrimSpace(raw), ",", "."))
	if m == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func parseLeadingInt(raw string) (int, bool) {
	m := leadingInt.FindString(strings.TrimSpace(raw))
	if m == "" {
		return 0, false
	}
	n, err := strconv.Atoi(m)
	return n, err == nil
}

// IsEmpty reports whether no field was filled in.
func (v Value) IsEmpty() bool {
	return v.WeightKg == nil && v.Reps == nil && v.TimeSeconds == nil && v.Notes == ""
}

// Entry is an immutable per-workout result; only the coach comment changes.
type Entry struct {
	ID             string
	AthleteUID     string
	WeekID         string
	DayID          string
	WorkoutID      string
	WeekTitle      string
	DayLabel       string
	WorkoutTitle   string
	Value          Value
	CoachComment   string
	CoachCommentAt time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Validate checks if the Entry has valid data.
// PRE: Entry struct is populated
// POST: Returns nil if valid, error otherwise
func (e *Entry) Validate() error {
	switch {
	case e.ID == "":
		return ErrEmptyID
	case e.AthleteUID == "":
		return ErrEmptyAthleteUID
	case e.WeekID == "":
		return ErrEmptyWeekID
	case e.DayID == "":
		return ErrEmptyDayID
	case e.WorkoutID == "":
		return ErrEmptyWorkoutID
	case e.Value.IsEmpty():
		return ErrEmptyResult
	case len(e.Value.Notes) > MaxNotesLength:
		return ErrNotesTooLong
	case len(e.CoachComment) > MaxCommentLength:
		return ErrCommentTooLong
	}
	return nil
}

// SetComment merges a coach comment into the entry.
// PRE: comment already trimmed
// POST: CoachComment, CoachCommentAt and UpdatedAt set
func (e *Entry) SetComment(comment string, now time.Time) error {
	if len(comment) > MaxCommentLength {
		return ErrCommentTooLong
	}
	e.CoachComment = comment
	e.CoachCommentAt = now
	e.UpdatedAt = now
	return nil
}

// DayResult is the per-day free-text result shape kept under an athlete's week.
type DayResult struct {
	AthleteUID     string
	WeekID         string
	DayID          string
	Result         string
	DayOrder       int
	CoachComment   string
	CoachCommentAt time.Time
	UpdatedAt      time.Time
}

// Validate checks if the DayResult has valid data.
// PRE: DayResult struct is populated
// POST: Returns nil if valid, error otherwise
func (d *DayResult) Validate() error {
	switch {
	case d.AthleteUID == "":
		return ErrEmptyAthleteUID
	case d.WeekID == "":
		return ErrEmptyWeekID
	case d.DayID == "":
		return ErrEmptyDayID
	case len(d.Result) > MaxResultLength:
		return ErrResultTooLong
	case len(d.CoachComment) > MaxCommentLength:
		return ErrCommentTooLong
	}
	return nil
}

// SetComment merges a coach comment into the day result.
// PRE: comment already trimmed
// POST: CoachComment, CoachCommentAt and UpdatedAt set
func (d *DayResult) SetComment(comment string, now time.Time) error {
	if len(comment) > MaxCommentLength {
		return ErrCommentTooLong
	}
	d.CoachComment = comment
	d.CoachCommentAt = now
	d.UpdatedAt = now
	return nil
}

// IsValidSource reports whether source names a stored result shape.
func IsValidSource(source string) bool {
	return source == SourceEntries || source == SourceWeekResults
}
