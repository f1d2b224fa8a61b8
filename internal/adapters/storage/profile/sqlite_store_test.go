package profile

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"coachdesk/internal/adapters/storage"
	domain "coachdesk/internal/domain/profile"
	"coachdesk/internal/domain/subscription"
)

var fixedTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	if err := storage.InitDB(db); err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	return NewSQLiteStore(db)
}

// TestSQLiteStore_SubscriptionVariants tests every expiry representation survives storage.
func TestSQLiteStore_SubscriptionVariants(t *testing.T) {
	tests := []struct {
		name   string
		expiry subscription.Expiry
	}{
		{"unset", subscription.Unset{}},
		{"nil becomes unset", nil},
		{"instant", subscription.Instant{At: fixedTime.Add(48 * time.Hour)}},
		{"epoch millis", subscription.EpochMillis{Millis: fixedTime.UnixMilli()}},
		{"iso string", subscription.ISOString{Value: "2026-04-01"}},
		{"garbage iso", subscription.ISOString{Value: "soon"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newTestStore(t)
			ctx := context.Background()
			p := domain.New("u1", "a@coachdesk.app", fixedTime)
			p.SubscriptionExpiresAt = tt.expiry
			if err := store.Save(ctx, p); err != nil {
				t.Fatalf("Save: %v", err)
			}
			got, err := store.GetByUID(ctx, "u1")
			if err != nil {
				t.Fatalf("GetByUID: %v", err)
			}

			want := tt.expiry
			if want == nil {
				want = subscription.Unset{}
			}
			wantAt, wantOK := want.Resolve()
			gotAt, gotOK := got.SubscriptionExpiresAt.Resolve()
			if gotOK != wantOK || !gotAt.Equal(wantAt) {
				t.Errorf("Resolve() = %v,%v want %v,%v", gotAt, gotOK, wantAt, wantOK)
			}
		})
	}
}

// TestSQLiteStore_ListByRole tests role filtering.
func TestSQLiteStore_ListByRole(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	coach := domain.New("c1", "coach@coachdesk.app", fixedTime)
	coach.Role = domain.RoleCoach
	for _, p := range []domain.Profile{
		coach,
		domain.New("a1", "one@coachdesk.app", fixedTime),
		domain.New("a2", "two@coachdesk.app", fixedTime),
	} {
		if err := store.Save(ctx, p); err != nil {
			t.Fatalf("Save %s: %v", p.UID, err)
		}
	}

	athletes, err := store.ListByRole(ctx, domain.RoleAthlete)
	if err != nil {
		t.Fatalf("ListByRole: %v", err)
	}
	if len(athletes) != 2 {
		t.Fatalf("got %d athletes, want 2", len(athletes))
	}
	for _, a := range athletes {
		if a.Role != domain.RoleAthlete {
			t.Errorf("unexpected role %q for %s", a.Role, a.UID)
		}
	}
}

// TestSQLiteStore_NotFound tests the wrapped not-found error.
func TestSQLiteStore_NotFound(t *testing.T) {
	store := newTestStore(t)
	_, err := store.GetByUID(context.Background(), "missing")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("expected sql.ErrNoRows, got %v", err)
	}
}
