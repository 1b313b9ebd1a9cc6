package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/routinely/internal/models"
	"github.com/julianstephens/routinely/internal/storage"
)

const routineColumns = `id, user_id, date, adaptations, completed, version, created_at, updated_at`

func (s *Store) GetRoutineByDate(ctx context.Context, userID, date string) (models.DailyRoutine, error) {
	return s.getRoutine(ctx, s.db, "user_id = ? AND date = ?", userID, date)
}

func (s *Store) GetRoutineByID(ctx context.Context, id string) (models.DailyRoutine, error) {
	return s.getRoutine(ctx, s.db, "id = ?", id)
}

func (s *Store) getRoutine(ctx context.Context, q querier, where string, args ...any) (models.DailyRoutine, error) {
	row := q.QueryRowContext(ctx, s.rebind("SELECT "+routineColumns+" FROM routines WHERE "+where), args...)
	r, err := scanRoutine(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.DailyRoutine{}, storage.ErrNotFound
		}
		return models.DailyRoutine{}, err
	}
	if r.Segments, err = s.loadSegments(ctx, q, r.ID); err != nil {
		return models.DailyRoutine{}, err
	}
	return r, nil
}

func (s *Store) GetRoutinesInRange(ctx context.Context, userID, start, end string) ([]models.DailyRoutine, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(
		"SELECT "+routineColumns+" FROM routines WHERE user_id = ? AND date >= ? AND date <= ? ORDER BY date"),
		userID, start, end)
	if err != nil {
		return nil, err
	}

	var routines []models.DailyRoutine
	for rows.Next() {
		r, err := scanRoutine(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		routines = append(routines, r)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for i := range routines {
		if routines[i].Segments, err = s.loadSegments(ctx, s.db, routines[i].ID); err != nil {
			return nil, err
		}
	}
	return routines, nil
}

func (s *Store) SaveRoutine(ctx context.Context, r models.DailyRoutine) (models.DailyRoutine, bool, error) {
	adaptations, err := encodeJSON(nonNil(r.Adaptations))
	if err != nil {
		return models.DailyRoutine{}, false, err
	}
	now := time.Now()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	r.UpdatedAt = now
	if r.Version == 0 {
		r.Version = 1
	}
	r.Completed = r.AllCompleted()

	inserted := false
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, s.rebind(`
			INSERT INTO routines (`+routineColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (user_id, date) DO NOTHING`),
			r.ID, r.UserID, r.Date, adaptations, r.Completed, r.Version,
			formatTimestamp(r.CreatedAt), formatTimestamp(r.UpdatedAt))
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
		inserted = true
		return s.insertSegments(ctx, tx, r.ID, r.Segments)
	})
	if err != nil {
		return models.DailyRoutine{}, false, err
	}

	if !inserted {
		s.log.Debug("routine already exists for date", "user", r.UserID, "date", r.Date)
		existing, err := s.GetRoutineByDate(ctx, r.UserID, r.Date)
		if err != nil {
			return models.DailyRoutine{}, false, fmt.Errorf("loading existing routine: %w", err)
		}
		return existing, false, nil
	}
	return r, true, nil
}

func (s *Store) UpdateRoutineSegments(ctx context.Context, id string, segments []models.RoutineSegment, adaptations []string, expectedVersion int) (models.DailyRoutine, error) {
	encoded, err := encodeJSON(nonNil(adaptations))
	if err != nil {
		return models.DailyRoutine{}, err
	}
	completed := models.DailyRoutine{Segments: segments}.AllCompleted()

	var updated models.DailyRoutine
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, s.rebind(`
			UPDATE routines SET adaptations = ?, completed = ?, version = version + 1, updated_at = ?
			WHERE id = ? AND version = ?`),
			encoded, completed, formatTimestamp(time.Now()), id, expectedVersion)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			var exists int
			err := tx.QueryRowContext(ctx, s.rebind("SELECT COUNT(*) FROM routines WHERE id = ?"), id).Scan(&exists)
			if err != nil {
				return err
			}
			if exists == 0 {
				return storage.ErrNotFound
			}
			return storage.ErrVersionConflict
		}

		if _, err := tx.ExecContext(ctx, s.rebind("DELETE FROM routine_segments WHERE routine_id = ?"), id); err != nil {
			return err
		}
		if err := s.insertSegments(ctx, tx, id, segments); err != nil {
			return err
		}
		updated, err = s.getRoutine(ctx, tx, "id = ?", id)
		return err
	})
	if err != nil {
		return models.DailyRoutine{}, err
	}
	return updated, nil
}

func (s *Store) insertSegments(ctx context.Context, tx *sql.Tx, routineID string, segments []models.RoutineSegment) error {
	stmt, err := tx.PrepareContext(ctx, s.rebind(`
		INSERT INTO routine_segments (id, routine_id, position, start_time, end_time, energy_level, type,
		                              description, duration_min, priority, completed, actual_duration_min,
		                              focus_quality, suggestions)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`))
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, seg := range segments {
		suggestions, err := encodeJSON(nonNil(seg.Suggestions))
		if err != nil {
			return err
		}
		var actual sql.NullInt64
		if seg.ActualDurationMin != nil {
			actual = sql.NullInt64{Int64: int64(*seg.ActualDurationMin), Valid: true}
		}
		var focus sql.NullFloat64
		if seg.FocusQuality != nil {
			focus = sql.NullFloat64{Float64: *seg.FocusQuality, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, seg.ID, routineID, i, seg.Slot.Start, seg.Slot.End,
			string(seg.Slot.Energy), string(seg.Type), seg.Description, seg.DurationMin,
			string(seg.Priority), seg.Completed, actual, focus, suggestions); err != nil {
			return fmt.Errorf("inserting segment %s: %w", seg.ID, err)
		}
	}
	return nil
}

func (s *Store) loadSegments(ctx context.Context, q querier, routineID string) ([]models.RoutineSegment, error) {
	rows, err := q.QueryContext(ctx, s.rebind(`
		SELECT id, start_time, end_time, energy_level, type, description, duration_min, priority,
		       completed, actual_duration_min, focus_quality, suggestions
		FROM routine_segments WHERE routine_id = ? ORDER BY position`), routineID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	segments := []models.RoutineSegment{}
	for rows.Next() {
		var seg models.RoutineSegment
		var energy, typ, priority, suggestions string
		var actual sql.NullInt64
		var focus sql.NullFloat64
		if err := rows.Scan(&seg.ID, &seg.Slot.Start, &seg.Slot.End, &energy, &typ, &seg.Description,
			&seg.DurationMin, &priority, &seg.Completed, &actual, &focus, &suggestions); err != nil {
			return nil, err
		}
		seg.Slot.Energy = models.EnergyLevel(energy)
		seg.Type = models.ActivityType(typ)
		seg.Priority = models.Priority(priority)
		if actual.Valid {
			v := int(actual.Int64)
			seg.ActualDurationMin = &v
		}
		if focus.Valid {
			v := focus.Float64
			seg.FocusQuality = &v
		}
		if err := decodeJSON(suggestions, &seg.Suggestions); err != nil {
			return nil, fmt.Errorf("decoding suggestions: %w", err)
		}
		segments = append(segments, seg)
	}
	return segments, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRoutine(row rowScanner) (models.DailyRoutine, error) {
	var r models.DailyRoutine
	var adaptations, createdAt, updatedAt string
	if err := row.Scan(&r.ID, &r.UserID, &r.Date, &adaptations, &r.Completed, &r.Version, &createdAt, &updatedAt); err != nil {
		return models.DailyRoutine{}, err
	}
	if err := decodeJSON(adaptations, &r.Adaptations); err != nil {
		return models.DailyRoutine{}, fmt.Errorf("decoding adaptations: %w", err)
	}
	r.CreatedAt = parseTimestamp(createdAt)
	r.UpdatedAt = parseTimestamp(updatedAt)
	return r, nil
}
