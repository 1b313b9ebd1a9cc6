package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/julianstephens/routinely/internal/constants"
	"github.com/julianstephens/routinely/internal/models"
)

func (s *Store) GetSettings(ctx context.Context) (models.Settings, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT key, value FROM settings")
	if err != nil {
		return models.Settings{}, err
	}
	defer rows.Close()

	settings := models.DefaultSettings()
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return models.Settings{}, err
		}
		switch key {
		case constants.SettingMorningWindowStart:
			settings.MorningWindowStart = value
		case constants.SettingMorningWindowEnd:
			settings.MorningWindowEnd = value
		case constants.SettingEveningWindowStart:
			settings.EveningWindowStart = value
		case constants.SettingEveningWindowEnd:
			settings.EveningWindowEnd = value
		case constants.SettingMorningWakeHour:
			if settings.MorningWakeHour, err = strconv.Atoi(value); err != nil {
				return models.Settings{}, fmt.Errorf("parsing %s: %w", key, err)
			}
		case constants.SettingHistoryDays:
			if settings.HistoryDays, err = strconv.Atoi(value); err != nil {
				return models.Settings{}, fmt.Errorf("parsing %s: %w", key, err)
			}
		case constants.SettingTimezone:
			settings.Timezone = value
		}
	}
	return settings, rows.Err()
}

func (s *Store) SaveSettings(ctx context.Context, settings models.Settings) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, s.rebind(`
			INSERT INTO settings (key, value) VALUES (?, ?)
			ON CONFLICT (key) DO UPDATE SET value = excluded.value`))
		if err != nil {
			return err
		}
		defer stmt.Close()

		pairs := [][2]string{
			{constants.SettingMorningWindowStart, settings.MorningWindowStart},
			{constants.SettingMorningWindowEnd, settings.MorningWindowEnd},
			{constants.SettingEveningWindowStart, settings.EveningWindowStart},
			{constants.SettingEveningWindowEnd, settings.EveningWindowEnd},
			{constants.SettingMorningWakeHour, strconv.Itoa(settings.MorningWakeHour)},
			{constants.SettingHistoryDays, strconv.Itoa(settings.HistoryDays)},
			{constants.SettingTimezone, settings.Timezone},
		}
		for _, kv := range pairs {
			if _, err := stmt.ExecContext(ctx, kv[0], kv[1]); err != nil {
				return fmt.Errorf("saving %s: %w", kv[0], err)
			}
		}
		return nil
	})
}

func (s *Store) ensureDefaultSettings(ctx context.Context) error {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM settings").Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	if err := s.SaveSettings(ctx, models.DefaultSettings()); err != nil {
		return fmt.Errorf("failed to save default settings: %w", err)
	}
	return nil
}
