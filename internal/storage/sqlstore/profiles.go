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

func (s *Store) GetProfile(ctx context.Context, userID string) (models.Profile, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT user_id, target_identity, academic_goals, skill_goals, wake_up_time, sleep_time,
		       available_hours, energy_pattern, learning_style, updated_at
		FROM profiles WHERE user_id = ?`), userID)

	var p models.Profile
	var academic, skill, patterns, updatedAt string
	err := row.Scan(&p.UserID, &p.TargetIdentity, &academic, &skill, &p.WakeUpTime, &p.SleepTime,
		&p.AvailableHours, &patterns, &p.LearningStyle, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Profile{}, storage.ErrNotFound
		}
		return models.Profile{}, err
	}

	if err := decodeJSON(academic, &p.AcademicGoals); err != nil {
		return models.Profile{}, fmt.Errorf("decoding academic_goals: %w", err)
	}
	if err := decodeJSON(skill, &p.SkillGoals); err != nil {
		return models.Profile{}, fmt.Errorf("decoding skill_goals: %w", err)
	}
	if err := decodeJSON(patterns, &p.EnergyPattern); err != nil {
		return models.Profile{}, fmt.Errorf("decoding energy_pattern: %w", err)
	}
	p.UpdatedAt = parseTimestamp(updatedAt)
	return p, nil
}

func (s *Store) SaveProfile(ctx context.Context, p models.Profile) error {
	academic, err := encodeJSON(nonNil(p.AcademicGoals))
	if err != nil {
		return err
	}
	skill, err := encodeJSON(nonNil(p.SkillGoals))
	if err != nil {
		return err
	}
	patterns, err := encodeJSON(nonNil(p.EnergyPattern))
	if err != nil {
		return err
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now()
	}

	_, err = s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO profiles (user_id, target_identity, academic_goals, skill_goals, wake_up_time,
		                      sleep_time, available_hours, energy_pattern, learning_style, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			target_identity = excluded.target_identity,
			academic_goals = excluded.academic_goals,
			skill_goals = excluded.skill_goals,
			wake_up_time = excluded.wake_up_time,
			sleep_time = excluded.sleep_time,
			available_hours = excluded.available_hours,
			energy_pattern = excluded.energy_pattern,
			learning_style = excluded.learning_style,
			updated_at = excluded.updated_at`),
		p.UserID, p.TargetIdentity, academic, skill, p.WakeUpTime,
		p.SleepTime, p.AvailableHours, patterns, p.LearningStyle, formatTimestamp(p.UpdatedAt))
	return err
}

func nonNil[T any](values []T) []T {
	if values == nil {
		return []T{}
	}
	return values
}
