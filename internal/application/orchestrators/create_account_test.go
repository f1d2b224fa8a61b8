package orchestrators

import (
	"context"
	"errors"
	"testing"

	"coachdesk/internal/domain/account"
	"coachdesk/internal/domain/profile"
)

// TestExecuteRegister tests registration validation and creation.
func TestExecuteRegister(t *testing.T) {
	tests := []struct {
		name    string
		input   RegisterInput
		wantErr error
	}{
		{"valid", RegisterInput{Email: "New@Coachdesk.app", Password: testPassword, FirstName: "Sam", LastName: "Lee"}, nil},
		{"missing first name", RegisterInput{Email: "a@coachdesk.app", Password: testPassword, LastName: "Lee"}, profile.ErrEmptyFirstName},
		{"missing last name", RegisterInput{Email: "a@coachdesk.app", Password: testPassword, FirstName: "Sam"}, profile.ErrEmptyLastName},
		{"bad email", RegisterInput{Email: "nope", Password: testPassword, FirstName: "Sam", LastName: "Lee"}, account.ErrInvalidEmail},
		{"short password", RegisterInput{Email: "a@coachdesk.app", Password: "short", FirstName: "Sam", LastName: "Lee"}, account.ErrPasswordTooShort},
		{"duplicate", RegisterInput{Email: "taken@coachdesk.app", Password: testPassword, FirstName: "Sam", LastName: "Lee"}, ErrEmailAlreadyExists},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			accounts := newMockAccountStore(account.Account{ID: "x", Email: "taken@coachdesk.app"})
			profiles := newMockProfileStore()
			res, err := ExecuteRegister(context.Background(), tt.input, RegisterDeps{
				AccountStore: accounts,
				ProfileStore: profiles,
				GenerateID:   fixedID,
				Now:          fixedNow,
			})
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				if _, ok := profiles.profiles["test-id-001"]; ok {
					t.Error("profile must not be created on failure")
				}
				return
			}
			if res.Email != "new@coachdesk.app" {
				t.Errorf("Email = %q, want normalised", res.Email)
			}
			p := profiles.profiles["test-id-001"]
			if p.Role != profile.RoleAthlete || p.FirstName != "Sam" || p.LastName != "Lee" {
				t.Errorf("unexpected profile: %+v", p)
			}
			if accounts.byEmail["new@coachdesk.app"].PasswordHash == "" {
				t.Error("password hash not stored")
			}
		})
	}
}

// TestExecuteSeedCoach tests the first-run seed.
func TestExecuteSeedCoach(t *testing.T) {
	t.Run("seeds when empty", func(t *testing.T) {
		accounts := newMockAccountStore()
		profiles := newMockProfileStore()
		err := ExecuteSeedCoach(context.Background(), "coach@coachdesk.app", testPassword, RegisterDeps{
			AccountStore: accounts, ProfileStore: profiles, GenerateID: fixedID, Now: fixedNow,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if profiles.profiles["test-id-001"].Role != profile.RoleCoach {
			t.Errorf("seeded profile is not a coach: %+v", profiles.profiles["test-id-001"])
		}
	})

	t.Run("skips when accounts exist", func(t *testing.T) {
		accounts := newMockAccountStore(account.Account{ID: "x", Email: "x@coachdesk.app"})
		profiles := newMockProfileStore()
		err := ExecuteSeedCoach(context.Background(), "coach@coachdesk.app", testPassword, RegisterDeps{
			AccountStore: accounts, ProfileStore: profiles, GenerateID: fixedID, Now: fixedNow,
		})
		if err != nil || len(profiles.profiles) != 0 {
			t.Errorf("expected no seed, got err=%v profiles=%d", err, len(profiles.profiles))
		}
	})

	t.Run("skips without credentials", func(t *testing.T) {
		accounts := newMockAccountStore()
		err := ExecuteSeedCoach(context.Background(), "", "", RegisterDeps{
			AccountStore: accounts, ProfileStore: newMockProfileStore(), GenerateID: fixedID, Now: fixedNow,
		})
		if err != nil || accounts.saves != 0 {
			t.Errorf("expected no seed, got err=%v saves=%d", err, accounts.saves)
		}
	})
}
