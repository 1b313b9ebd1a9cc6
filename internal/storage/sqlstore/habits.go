package sqlstore

import (
	"context"
	"database/sql"
	"time"

	"github.com/julianstephens/routinely/internal/models"
	"github.com/julianstephens/routinely/internal/storage"
)

func (s *Store) AddHabit(ctx context.Context, h models.Habit) error {
	if h.CreatedAt.IsZero() {
		h.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO habits (id, user_id, name, active, scheduled_time, streak, consistency, created_at, archived_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		h.ID, h.UserID, h.Name, h.Active, h.ScheduledTime, h.Streak, h.Consistency,
		formatTimestamp(h.CreatedAt), nullableTimestamp(h.ArchivedAt))
	return err
}

func (s *Store) GetHabits(ctx context.Context, userID string, includeArchived bool) ([]models.Habit, error) {
	query := `
		SELECT id, user_id, name, active, scheduled_time, streak, consistency, created_at, archived_at
		FROM habits WHERE user_id = ?`
	if !includeArchived {
		query += " AND archived_at IS NULL"
	}
	query += " ORDER BY name"

	rows, err := s.db.QueryContext(ctx, s.rebind(query), userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var habits []models.Habit
	for rows.Next() {
		var h models.Habit
		var createdAt string
		var archivedAt sql.NullString
		if err := rows.Scan(&h.ID, &h.UserID, &h.Name, &h.Active, &h.ScheduledTime, &h.Streak,
			&h.Consistency, &createdAt, &archivedAt); err != nil {
			return nil, err
		}
		h.CreatedAt = parseTimestamp(createdAt)
		if archivedAt.Valid {
			t := parseTimestamp(archivedAt.String)
			h.ArchivedAt = &t
		}
		habits = append(habits, h)
	}
	return habits, rows.Err()
}

func (s *Store) UpdateHabit(ctx context.Context, h models.Habit) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`
		UPDATE habits SET name = ?, active = ?, scheduled_time = ?, streak = ?, consistency = ?
		WHERE id = ? AND user_id = ?`),
		h.Name, h.Active, h.ScheduledTime, h.Streak, h.Consistency, h.ID, h.UserID)
	if err != nil {
		return err
	}
	return expectRow(res)
}

func (s *Store) ArchiveHabit(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`
		UPDATE habits SET archived_at = ?, active = ?
		WHERE id = ? AND user_id = ? AND archived_at IS NULL`),
		formatTimestamp(time.Now()), false, id, userID)
	if err != nil {
		return err
	}
	return expectRow(res)
}

func nullableTimestamp(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTimestamp(*t), Valid: true}
}

func expectRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}
