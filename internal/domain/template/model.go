package template

import (
	"errors"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Max length constants for user-editable fields.
const (
	MinTitleLength   = 2
	MaxTitleLength   = 120
	MaxWorkoutLength = 10000
)

// DefaultTitle replaces an empty title on rename.
const DefaultTitle = "Untitled"

// Domain errors
var (
	ErrEmptyID          = errors.New("template ID is required")
	ErrTitleTooShort    = errors.New("title must be at least 2 characters")
	ErrTitleTooLong     = errors.New("title cannot exceed 120 characters")
	ErrEmptyDayID       = errors.New("day ID is required")
	ErrInvalidDayOrder  = errors.New("day order must be positive")
	ErrWorkoutTooLong   = errors.New("workout cannot exceed 10000 characters")
	ErrCreatedAtMissing = errors.New("created_at must be set")
)

// Template is a reusable, coach-authored workout week.
type Template struct {
	ID        string
	Title     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Day is an ordered slot within a Template holding workout text.
type Day struct {
	ID         string
	TemplateID string
	Order      int
	Workout    string
}

// Validate checks if the Template has valid data.
// PRE: Template struct is populated
// POST: Returns nil if valid, error otherwise
func (t *Template) Validate() error {
	if t.ID == "" {
		return ErrEmptyID
	}
	if err := validateTitle(t.Title); err != nil {
		return err
	}
	if t.CreatedAt.IsZero() {
		return ErrCreatedAtMissing
	}
	return nil
}

// Validate checks if the Day has valid data.
// PRE: Day struct is populated
// POST: Returns nil if valid, error otherwise
func (d *Day) Validate() error {
	if d.ID == "" {
		return ErrEmptyDayID
	}
	if d.TemplateID == "" {
		return ErrEmptyID
	}
	if d.Order < 1 {
		return ErrInvalidDayOrder
	}
	if len(d.Workout) > MaxWorkoutLength {
		return ErrWorkoutTooLong
	}
	return nil
}

// Label returns the athlete-facing name of the day.
func (d Day) Label() string {
	return DayLabel(d.Order)
}

// maxWorkoutTitle caps the title derived from workout text.
const maxWorkoutTitle = 80

// WorkoutTitle derives a short title from the first non-blank line of the
// workout, stripped of markdown heading marks. Empty workouts use the day label.
func (d Day) WorkoutTitle() string {
	for _, line := range strings.Split(d.Workout, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "#"))
		if line == "" {
			continue
		}
		if r := []rune(line); len(r) > maxWorkoutTitle {
			line = string(r[:maxWorkoutTitle])
		}
		return line
	}
	return d.Label()
}

// DayLabel formats a day order as "Day N".
func DayLabel(order int) string {
	return "Day " + strconv.Itoa(order)
}

// NewTitle trims a title supplied when creating a template.
// PRE: none
// POST: returns the trimmed title or a length error
func NewTitle(raw string) (string, error) {
	title := strings.TrimSpace(raw)
	if err := validateTitle(title); err != nil {
		return "", err
	}
	return title, nil
}

// RenameTitle trims a title supplied on rename; an empty title becomes DefaultTitle.
// PRE: none
// POST: returns the title to store or a length error
func RenameTitle(raw string) (string, error) {
	title := strings.TrimSpace(raw)
	if title == "" {
		title = DefaultTitle
	}
	if err := validateTitle(title); err != nil {
		return "", err
	}
	return title, nil
}

// NextOrder returns the order for a day appended to days: max+1, or 1 when empty.
// INVARIANT: days is not mutated
func NextOrder(days []Day) int {
	max := 0
	for _, d := range days {
		if d.Order > max {
			max = d.Order
		}
	}
	return max + 1
}

// SortDays orders days by Order, keeping the delivered order for ties.
// POST: days sorted ascending by Order (stable)
func SortDays(days []Day) {
	sort.SliceStable(days, func(i, j int) bool {
		return days[i].Order < days[j].Order
	})
}

// OrderMap indexes day orders by day ID.
func OrderMap(days []Day) map[string]int {
	m := make(map[string]int, len(days))
	for _, d := range days {
		m[d.ID] = d.Order
	}
	return m
}

func validateTitle(title string) error {
	if len([]rune(title)) < MinTitleLength {
		return ErrTitleTooShort
	}
	if len([]rune(title)) > MaxTitleLength {
		return ErrTitleTooLong
	}
	return nil
}
