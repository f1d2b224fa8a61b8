package orchestrators

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"coachdesk/internal/domain/profile"
	"coachdesk/internal/domain/subscription"
	"coachdesk/internal/domain/week"
)

func expiredAthlete(uid string) profile.Profile {
	p := athleteProfile(uid)
	p.SubscriptionExpiresAt = subscription.Instant{At: fixedTime.Add(-24 * time.Hour)}
	return p
}

func assignDeps(profiles *mockProfileStore, weeks *mockWeekStore, notifier *recordingNotifier) AssignWeekDeps {
	templates := newMockTemplateStore()
	seedTemplate(templates, "t1", "Strength Block", 1)
	seedTemplate(templates, "t2", "  ", 1)
	return AssignWeekDeps{
		ProfileStore:  profiles,
		TemplateStore: templates,
		WeekStore:     weeks,
		Notifier:      notifier,
		GenerateID:    seqIDs(),
		Now:           fixedNow,
	}
}

// TestExecuteAssignWeek tests the ordered rejection checks.
func TestExecuteAssignWeek(t *testing.T) {
	tests := []struct {
		name       string
		athlete    profile.Profile
		templateID string
		existing   []week.Week
		wantErr    error
		wantTitle  string
	}{
		{"assigns", athleteProfile("a1"), "t1", nil, nil, "Strength Block"},
		{"blank template title defaults", athleteProfile("a1"), "t2", nil, nil, week.DefaultTitle},
		{"expired before template check", expiredAthlete("a1"), "", nil, ErrSubscriptionExpired, ""},
		{"no template", athleteProfile("a1"), "  ", nil, ErrNoTemplateSelected, ""},
		{"already assigned", athleteProfile("a1"), "t1", []week.Week{{ID: "w0", AthleteUID: "a1", TemplateID: "t1"}}, ErrAlreadyAssigned, ""},
		{"missing template", athleteProfile("a1"), "gone", nil, sql.ErrNoRows, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			notifier := &recordingNotifier{}
			weeks := newMockWeekStore(tt.existing...)
			w, err := ExecuteAssignWeek(context.Background(), AssignWeekInput{AthleteUID: tt.athlete.UID, TemplateID: tt.templateID},
				assignDeps(newMockProfileStore(tt.athlete), weeks, notifier))
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				if len(notifier.single) != 0 {
					t.Error("no notification expected on failure")
				}
				return
			}
			if w.Title != tt.wantTitle || w.AthleteUID != "a1" {
				t.Errorf("week = %+v", w)
			}
			if len(notifier.single) != 1 || notifier.single[0].AthleteEmail != "a1@coachdesk.app" {
				t.Errorf("notifications = %+v", notifier.single)
			}
		})
	}
}

// TestExecuteAssignWeek_SequentialDuplicate tests that assigning twice fails the second time.
func TestExecuteAssignWeek_SequentialDuplicate(t *testing.T) {
	weeks := newMockWeekStore()
	deps := assignDeps(newMockProfileStore(athleteProfile("a1")), weeks, &recordingNotifier{})
	in := AssignWeekInput{AthleteUID: "a1", TemplateID: "t1"}

	if _, err := ExecuteAssignWeek(context.Background(), in, deps); err != nil {
		t.Fatalf("first assign: %v", err)
	}
	if _, err := ExecuteAssignWeek(context.Background(), in, deps); !errors.Is(err, ErrAlreadyAssigned) {
		t.Errorf("second assign: expected ErrAlreadyAssigned, got %v", err)
	}
	if len(weeks.weeks) != 1 {
		t.Errorf("weeks = %d, want 1", len(weeks.weeks))
	}
}

// TestExecuteAssignWeek_LostRaceMapsToAlreadyAssigned tests the unique-index fallback.
func TestExecuteAssignWeek_LostRaceMapsToAlreadyAssigned(t *testing.T) {
	weeks := newMockWeekStore(week.Week{ID: "w0", AthleteUID: "a1", TemplateID: "t1"})
	weeks.hideExisting = true
	_, err := ExecuteAssignWeek(context.Background(), AssignWeekInput{AthleteUID: "a1", TemplateID: "t1"},
		assignDeps(newMockProfileStore(athleteProfile("a1")), weeks, &recordingNotifier{}))
	if !errors.Is(err, ErrAlreadyAssigned) {
		t.Errorf("expected ErrAlreadyAssigned, got %v", err)
	}
}

// TestExecuteAssignWeek_NotifyFailureIgnored tests best-effort notification.
func TestExecuteAssignWeek_NotifyFailureIgnored(t *testing.T) {
	notifier := &recordingNotifier{err: errors.New("smtp down")}
	_, err := ExecuteAssignWeek(context.Background(), AssignWeekInput{AthleteUID: "a1", TemplateID: "t1"},
		assignDeps(newMockProfileStore(athleteProfile("a1")), newMockWeekStore(), notifier))
	if err != nil {
		t.Errorf("notification failure must not fail assignment: %v", err)
	}
}

// TestExecuteBulkAssignWeek tests per-athlete outcomes and batched notification.
func TestExecuteBulkAssignWeek(t *testing.T) {
	profiles := newMockProfileStore(athleteProfile("a1"), expiredAthlete("a2"), athleteProfile("a3"))
	weeks := newMockWeekStore(week.Week{ID: "w0", AthleteUID: "a3", TemplateID: "t1"})
	notifier := &recordingNotifier{}

	outcomes, err := ExecuteBulkAssignWeek(context.Background(), BulkAssignInput{
		TemplateID:  "t1",
		AthleteUIDs: []string{"a1", "a2", "a3", "a4", "a1", ""},
	}, assignDeps(profiles, weeks, notifier))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := map[string]string{
		"a1": OutcomeAssigned,
		"a2": OutcomeExpired,
		"a3": OutcomeAlreadyAssigned,
		"a4": OutcomeError,
	}
	if len(outcomes) != len(want) {
		t.Fatalf("got %d outcomes, want %d: %+v", len(outcomes), len(want), outcomes)
	}
	for _, o := range outcomes {
		if o.Status != want[o.AthleteUID] {
			t.Errorf("%s: status %q, want %q", o.AthleteUID, o.Status, want[o.AthleteUID])
		}
	}
	if len(notifier.batches) != 1 || len(notifier.batches[0]) != 1 {
		t.Errorf("batches = %+v", notifier.batches)
	}
	if len(notifier.single) != 0 {
		t.Error("bulk assign must not send single notifications")
	}
}

// TestExecuteBulkAssignWeek_NoTemplate tests the template guard.
func TestExecuteBulkAssignWeek_NoTemplate(t *testing.T) {
	_, err := ExecuteBulkAssignWeek(context.Background(), BulkAssignInput{AthleteUIDs: []string{"a1"}},
		assignDeps(newMockProfileStore(athleteProfile("a1")), newMockWeekStore(), &recordingNotifier{}))
	if !errors.Is(err, ErrNoTemplateSelected) {
		t.Errorf("expected ErrNoTemplateSelected, got %v", err)
	}
}

// TestExecuteRemoveWeek tests scoped removal.
func TestExecuteRemoveWeek(t *testing.T) {
	weeks := newMockWeekStore(
		week.Week{ID: "w1", AthleteUID: "a1", TemplateID: "t1"},
		week.Week{ID: "w2", AthleteUID: "a1", TemplateID: "t2"},
	)
	deps := RemoveWeekDeps{WeekStore: weeks}

	if err := ExecuteRemoveWeek(context.Background(), RemoveWeekInput{AthleteUID: "a1", WeekID: "w1"}, deps); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := weeks.weeks["w2"]; !ok || len(weeks.weeks) != 1 {
		t.Errorf("weeks = %+v", weeks.weeks)
	}
	err := ExecuteRemoveWeek(context.Background(), RemoveWeekInput{AthleteUID: "a1", WeekID: "w1"}, deps)
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("expected not found, got %v", err)
	}
}
