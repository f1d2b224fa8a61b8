package orchestrators

import (
	"context"
	"errors"
	"testing"
	"time"

	"coachdesk/internal/domain/account"
	"coachdesk/internal/domain/profile"
	"coachdesk/internal/domain/subscription"
)

const testPassword = "correct-horse-battery"

func accountWithPassword(t *testing.T, id, email string) account.Account {
	t.Helper()
	a := account.Account{ID: id, Email: email, CreatedAt: fixedTime}
	if err := a.SetPassword(testPassword); err != nil {
		t.Fatalf("SetPassword: %v", err)
	}
	return a
}

// TestExecuteLogin tests credential checks and lockout.
func TestExecuteLogin(t *testing.T) {
	base := accountWithPassword(t, "u1", "sam@coachdesk.app")
	locked := base
	locked.FailedLogins = account.MaxFailedLogins
	locked.LockedUntil = fixedTime.Add(time.Minute)
	expiredLock := base
	expiredLock.FailedLogins = account.MaxFailedLogins
	expiredLock.LockedUntil = fixedTime.Add(-time.Minute)

	tests := []struct {
		name     string
		acct     account.Account
		email    string
		password string
		wantErr  error
	}{
		{"success", base, "sam@coachdesk.app", testPassword, nil},
		{"email normalised", base, "  SAM@coachdesk.app ", testPassword, nil},
		{"wrong password", base, "sam@coachdesk.app", "wrong-password-123", ErrInvalidCredentials},
		{"unknown email", base, "nobody@coachdesk.app", testPassword, ErrInvalidCredentials},
		{"empty password", base, "sam@coachdesk.app", "", ErrInvalidCredentials},
		{"locked", locked, "sam@coachdesk.app", testPassword, ErrAccountLocked},
		{"lock elapsed", expiredLock, "sam@coachdesk.app", testPassword, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			accounts := newMockAccountStore(tt.acct)
			profiles := newMockProfileStore()
			res, err := ExecuteLogin(context.Background(), LoginInput{Email: tt.email, Password: tt.password}, LoginDeps{
				AccountStore: accounts,
				ProfileStore: profiles,
				Now:          fixedNow,
			})
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				return
			}
			if res.AccountID != "u1" || res.Profile == nil {
				t.Errorf("unexpected result: %+v", res)
			}
			if got := accounts.byEmail["sam@coachdesk.app"]; got.FailedLogins != 0 || !got.LockedUntil.IsZero() {
				t.Errorf("failed logins not reset: %+v", got)
			}
		})
	}
}

// TestExecuteLogin_LocksAfterMaxFailures tests the lockout threshold.
func TestExecuteLogin_LocksAfterMaxFailures(t *testing.T) {
	accounts := newMockAccountStore(accountWithPassword(t, "u1", "sam@coachdesk.app"))
	deps := LoginDeps{AccountStore: accounts, ProfileStore: newMockProfileStore(), Now: fixedNow}
	for i := 0; i < account.MaxFailedLogins; i++ {
		_, _ = ExecuteLogin(context.Background(), LoginInput{Email: "sam@coachdesk.app", Password: "wrong-password-123"}, deps)
	}
	_, err := ExecuteLogin(context.Background(), LoginInput{Email: "sam@coachdesk.app", Password: testPassword}, deps)
	if !errors.Is(err, ErrAccountLocked) {
		t.Errorf("expected ErrAccountLocked, got %v", err)
	}
}

// TestExecuteLogin_ProfileFailureStillSignsIn tests that a failing profile
// read yields a nil profile instead of a login failure.
func TestExecuteLogin_ProfileFailureStillSignsIn(t *testing.T) {
	profiles := newMockProfileStore()
	profiles.getErr = errStoreDown
	res, err := ExecuteLogin(context.Background(), LoginInput{Email: "sam@coachdesk.app", Password: testPassword}, LoginDeps{
		AccountStore: newMockAccountStore(accountWithPassword(t, "u1", "sam@coachdesk.app")),
		ProfileStore: profiles,
		Now:          fixedNow,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Profile != nil {
		t.Errorf("expected nil profile, got %+v", res.Profile)
	}
}

// TestExecuteEnsureProfile tests first sign-in creation and refresh.
func TestExecuteEnsureProfile(t *testing.T) {
	coach := profile.New("c1", "old@coachdesk.app", fixedTime.Add(-time.Hour))
	coach.Role = profile.RoleCoach
	coach.SubscriptionExpiresAt = subscription.EpochMillis{Millis: 42}

	tests := []struct {
		name     string
		existing []profile.Profile
		uid      string
		wantRole string
	}{
		{"first sign-in creates athlete", nil, "u1", profile.RoleAthlete},
		{"existing coach keeps role", []profile.Profile{coach}, "c1", profile.RoleCoach},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMockProfileStore(tt.existing...)
			p, err := ExecuteEnsureProfile(context.Background(), EnsureProfileInput{UID: tt.uid, Email: "new@coachdesk.app"}, EnsureProfileDeps{
				ProfileStore: store,
				Now:          fixedNow,
			})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if p.Role != tt.wantRole {
				t.Errorf("Role = %q, want %q", p.Role, tt.wantRole)
			}
			if p.Email != "new@coachdesk.app" || !p.UpdatedAt.Equal(fixedTime) {
				t.Errorf("sign-in fields not refreshed: %+v", p)
			}
			if stored := store.profiles[tt.uid]; stored.Role != tt.wantRole {
				t.Errorf("stored role = %q", stored.Role)
			}
		})
	}

	stored := newMockProfileStore(coach)
	p, _ := ExecuteEnsureProfile(context.Background(), EnsureProfileInput{UID: "c1"}, EnsureProfileDeps{ProfileStore: stored, Now: fixedNow})
	if _, ok := p.SubscriptionExpiresAt.(subscription.EpochMillis); !ok {
		t.Errorf("subscription overwritten: %#v", p.SubscriptionExpiresAt)
	}
}

// TestExecuteEnsureProfile_ReadFailure tests that a non-missing read error is surfaced.
func TestExecuteEnsureProfile_ReadFailure(t *testing.T) {
	store := newMockProfileStore()
	store.getErr = errStoreDown
	_, err := ExecuteEnsureProfile(context.Background(), EnsureProfileInput{UID: "u1"}, EnsureProfileDeps{ProfileStore: store, Now: fixedNow})
	if !errors.Is(err, errStoreDown) {
		t.Errorf("expected store error, got %v", err)
	}
	if len(store.profiles) != 0 {
		t.Error("profile must not be created on read failure")
	}
}
