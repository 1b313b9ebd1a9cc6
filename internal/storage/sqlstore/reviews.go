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

func (s *Store) SaveReview(ctx context.Context, r models.EveningReview) error {
	tasks, err := encodeJSON(nonNil(r.TomorrowTasks))
	if err != nil {
		return err
	}
	insights, err := encodeJSON(nonNil(r.Insights))
	if err != nil {
		return err
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}

	_, err = s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO evening_reviews (id, user_id, date, tomorrow_tasks, energy_level, mood, insights, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, date) DO UPDATE SET
			tomorrow_tasks = excluded.tomorrow_tasks,
			energy_level = excluded.energy_level,
			mood = excluded.mood,
			insights = excluded.insights,
			created_at = excluded.created_at`),
		r.ID, r.UserID, r.Date, tasks, r.EnergyLevel, r.Mood, insights, formatTimestamp(r.CreatedAt))
	return err
}

func (s *Store) GetLatestReview(ctx context.Context, userID, before string) (models.EveningReview, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT id, user_id, date, tomorrow_tasks, energy_level, mood, insights, created_at
		FROM evening_reviews
		WHERE user_id = ? AND date < ?
		ORDER BY date DESC LIMIT 1`), userID, before)

	var r models.EveningReview
	var tasks, insights, createdAt string
	if err := row.Scan(&r.ID, &r.UserID, &r.Date, &tasks, &r.EnergyLevel, &r.Mood, &insights, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.EveningReview{}, storage.ErrNotFound
		}
		return models.EveningReview{}, err
	}
	if err := decodeJSON(tasks, &r.TomorrowTasks); err != nil {
		return models.EveningReview{}, fmt.Errorf("decoding tomorrow_tasks: %w", err)
	}
	if err := decodeJSON(insights, &r.Insights); err != nil {
		return models.EveningReview{}, fmt.Errorf("decoding insights: %w", err)
	}
	r.CreatedAt = parseTimestamp(createdAt)
	return r, nil
}
