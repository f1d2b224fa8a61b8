package template

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"coachdesk/internal/adapters/storage"
	domain "coachdesk/internal/domain/template"
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

func seedTemplates(t *testing.T, store *SQLiteStore) {
	t.Helper()
	titles := []string{"Strength Block", "Engine Builder", "strength deload"}
	for i, title := range titles {
		tpl := domain.Template{ID: string(rune('a' + i)), Title: title, CreatedAt: fixedTime.Add(time.Duration(i) * time.Hour)}
		if err := store.Save(context.Background(), tpl); err != nil {
			t.Fatalf("Save %s: %v", title, err)
		}
	}
}

// TestSQLiteStore_ListNewestFirst tests ordering and case-insensitive search.
func TestSQLiteStore_ListNewestFirst(t *testing.T) {
	store := newTestStore(t)
	seedTemplates(t, store)
	ctx := context.Background()

	tests := []struct {
		name   string
		filter ListFilter
		want   []string
	}{
		{"all", ListFilter{}, []string{"c", "b", "a"}},
		{"search", ListFilter{Search: "STRENGTH"}, []string{"c", "a"}},
		{"page", ListFilter{Limit: 1, Offset: 1}, []string{"b"}},
		{"no match", ListFilter{Search: "zzz"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.List(ctx, tt.filter)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d templates, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i].ID != tt.want[i] {
					t.Errorf("[%d] = %s, want %s", i, got[i].ID, tt.want[i])
				}
			}
		})
	}

	count, err := store.Count(ctx, ListFilter{Search: "strength", Limit: 1})
	if err != nil || count != 2 {
		t.Errorf("Count = %d, %v; want 2", count, err)
	}
}

// TestSQLiteStore_DaysSortedStable tests day ordering with ties.
func TestSQLiteStore_DaysSortedStable(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	days := []domain.Day{
		{ID: "d3", TemplateID: "t1", Order: 2, Workout: "row"},
		{ID: "d1", TemplateID: "t1", Order: 1, Workout: "squat"},
		{ID: "d2", TemplateID: "t1", Order: 2, Workout: "bike"},
		{ID: "x1", TemplateID: "t2", Order: 1},
	}
	for _, d := range days {
		if err := store.SaveDay(ctx, d); err != nil {
			t.Fatalf("SaveDay: %v", err)
		}
	}

	got, err := store.ListDays(ctx, "t1")
	if err != nil {
		t.Fatalf("ListDays: %v", err)
	}
	want := []string{"d1", "d3", "d2"}
	if len(got) != len(want) {
		t.Fatalf("got %d days, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].ID != want[i] {
			t.Errorf("[%d] = %s, want %s", i, got[i].ID, want[i])
		}
	}

	if err := store.DeleteDays(ctx, "t1"); err != nil {
		t.Fatalf("DeleteDays: %v", err)
	}
	remaining, _ := store.ListDays(ctx, "t2")
	if len(remaining) != 1 {
		t.Errorf("other template days = %d, want 1", len(remaining))
	}
}

// TestSQLiteStore_GetDay tests the scoped lookup.
func TestSQLiteStore_GetDay(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	if err := store.SaveDay(ctx, domain.Day{ID: "d1", TemplateID: "t1", Order: 1, Workout: "5x5"}); err != nil {
		t.Fatalf("SaveDay: %v", err)
	}

	d, err := store.GetDay(ctx, "t1", "d1")
	if err != nil || d.Workout != "5x5" {
		t.Errorf("GetDay = %+v, %v", d, err)
	}
	if _, err := store.GetDay(ctx, "t2", "d1"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("expected not found for other template, got %v", err)
	}
}
