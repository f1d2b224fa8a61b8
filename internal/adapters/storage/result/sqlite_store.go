package result

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"coachdesk/internal/adapters/storage"
	domain "coachdesk/internal/domain/result"
)

const entryColumns = `SELECT id, athlete_uid, week_id, day_id, workout_id, week_title, day_label,
	workout_title, value, coach_comment, coach_comment_at, created_at, updated_at FROM result_entry`

const dayResultColumns = `SELECT athlete_uid, week_id, day_id, result, day_order,
	coach_comment, coach_comment_at, updated_at FROM day_result`

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new ResultStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// CreateEntry appends a result entry.
// PRE: entity has been validated
// POST: Entry is persisted
func (s *SQLiteStore) CreateEntry(ctx context.Context, e domain.Entry) error {
	value, err := json.Marshal(e.Value)
	if err != nil {
		return fmt.Errorf("encode result value: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO result_entry (id, athlete_uid, week_id, day_id, workout_id, week_title, day_label,
			workout_title, value, coach_comment, coach_comment_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.AthleteUID, e.WeekID, e.DayID, e.WorkoutID, e.WeekTitle, e.DayLabel,
		e.WorkoutTitle, string(value), e.CoachComment, storage.NullTime(e.CoachCommentAt),
		storage.FormatTime(e.CreatedAt), storage.FormatTime(e.UpdatedAt),
	)
	return err
}

// GetEntry retrieves an athlete's entry.
// PRE: athleteUID and entryID are non-empty
// POST: Returns the entity or an error if not found
func (s *SQLiteStore) GetEntry(ctx context.Context, athleteUID, entryID string) (domain.Entry, error) {
	row := s.db.QueryRowContext(ctx, entryColumns+" WHERE athlete_uid = ? AND id = ?", athleteUID, entryID)
	entity, err := scanEntry(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Entry{}, fmt.Errorf("result entry not found: %w", err)
	}
	return entity, err
}

// SaveEntry merge-updates the coach comment fields of an entry. The value
// and denormalised titles are immutable once written.
// PRE: entity exists
// POST: Comment fields and updated_at are persisted
func (s *SQLiteStore) SaveEntry(ctx context.Context, e domain.Entry) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE result_entry SET coach_comment = ?, coach_comment_at = ?, updated_at = ?
		WHERE athlete_uid = ? AND id = ?`,
		e.CoachComment, storage.NullTime(e.CoachCommentAt), storage.FormatTime(e.UpdatedAt),
		e.AthleteUID, e.ID,
	)
	return err
}

// ListEntries retrieves an athlete's entries newest first.
// PRE: athleteUID is non-empty
// POST: Returns entries matching every non-empty filter field
func (s *SQLiteStore) ListEntries(ctx context.Context, athleteUID string, filter EntryFilter) ([]domain.Entry, error) {
	query := entryColumns + " WHERE athlete_uid = ?"
	args := []any{athleteUID}
	if filter.WeekID != "" {
		query += " AND week_id = ?"
		args = append(args, filter.WeekID)
	}
	if filter.DayID != "" {
		query += " AND day_id = ?"
		args = append(args, filter.DayID)
	}
	if filter.WorkoutID != "" {
		query += " AND workout_id = ?"
		args = append(args, filter.WorkoutID)
	}
	query += " ORDER BY created_at DESC, id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Entry
	for rows.Next() {
		entity, err := scanEntry(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, entity)
	}
	return results, rows.Err()
}

// GetDayResult retrieves a legacy day result.
// PRE: all keys are non-empty
// POST: Returns the entity or an error if not found
func (s *SQLiteStore) GetDayResult(ctx context.Context, athleteUID, weekID, dayID string) (domain.DayResult, error) {
	row := s.db.QueryRowContext(ctx, dayResultColumns+" WHERE athlete_uid = ? AND week_id = ? AND day_id = ?",
		athleteUID, weekID, dayID)
	entity, err := scanDayResult(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.DayResult{}, fmt.Errorf("day result not found: %w", err)
	}
	return entity, err
}

// SaveDayResult upserts a legacy day result.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) SaveDayResult(ctx context.Context, d domain.DayResult) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO day_result (athlete_uid, week_id, day_id, result, day_order,
			coach_comment, coach_comment_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(athlete_uid, week_id, day_id) DO UPDATE SET
			result=excluded.result,
			day_order=excluded.day_order,
			coach_comment=excluded.coach_comment,
			coach_comment_at=excluded.coach_comment_at,
			updated_at=excluded.updated_at`,
		d.AthleteUID, d.WeekID, d.DayID, d.Result, d.DayOrder,
		d.CoachComment, storage.NullTime(d.CoachCommentAt), storage.FormatTime(d.UpdatedAt),
	)
	return err
}

// ListDayResults retrieves the day results of one week.
// PRE: athleteUID and weekID are non-empty
// POST: Returns matching entities ordered by day order
func (s *SQLiteStore) ListDayResults(ctx context.Context, athleteUID, weekID string) ([]domain.DayResult, error) {
	return s.listDayResults(ctx,
		dayResultColumns+" WHERE athlete_uid = ? AND week_id = ? ORDER BY day_order, day_id",
		athleteUID, weekID)
}

// ListDayResultsByAthlete retrieves every day result of an athlete, most recently updated first.
// PRE: athleteUID is non-empty
// POST: Returns matching entities
func (s *SQLiteStore) ListDayResultsByAthlete(ctx context.Context, athleteUID string) ([]domain.DayResult, error) {
	return s.listDayResults(ctx,
		dayResultColumns+" WHERE athlete_uid = ? ORDER BY updated_at DESC",
		athleteUID)
}

func (s *SQLiteStore) listDayResults(ctx context.Context, query string, args ...any) ([]domain.DayResult, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.DayResult
	for rows.Next() {
		entity, err := scanDayResult(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, entity)
	}
	return results, rows.Err()
}

// scanEntry extracts an Entry from a row scanner function.
func scanEntry(scan func(dest ...any) error) (domain.Entry, error) {
	var e domain.Entry
	var value, createdAt, updatedAt string
	var commentAt sql.NullString
	err := scan(
		&e.ID, &e.AthleteUID, &e.WeekID, &e.DayID, &e.WorkoutID,
		&e.WeekTitle, &e.DayLabel, &e.WorkoutTitle, &value,
		&e.CoachComment, &commentAt, &createdAt, &updatedAt,
	)
	if err != nil {
		return domain.Entry{}, err
	}
	if err := json.Unmarshal([]byte(value), &e.Value); err != nil {
		return domain.Entry{}, fmt.Errorf("decode result value %s: %w", e.ID, err)
	}
	if commentAt.Valid && commentAt.String != "" {
		e.CoachCommentAt, _ = storage.ParseTime(commentAt.String)
	}
	e.CreatedAt, _ = storage.ParseTime(createdAt)
	e.UpdatedAt, _ = storage.ParseTime(updatedAt)
	return e, nil
}

// scanDayResult extracts a DayResult from a row scanner function.
func scanDayResult(scan func(dest ...any) error) (domain.DayResult, error) {
	var d domain.DayResult
	var updatedAt string
	var commentAt sql.NullString
	err := scan(&d.AthleteUID, &d.WeekID, &d.DayID, &d.Result, &d.DayOrder,
		&d.CoachComment, &commentAt, &updatedAt)
	if err != nil {
		return domain.DayResult{}, err
	}
	if commentAt.Valid && commentAt.String != "" {
		d.CoachCommentAt, _ = storage.ParseTime(commentAt.String)
	}
	d.UpdatedAt, _ = storage.ParseTime(updatedAt)
	return d, nil
}
