package cli

import (
	"fmt"

	"github.com/julianstephens/routinely/internal/utils"
)

type SettingsCmd struct {
	List bool `help:"List current settings."`

	MorningStart *string `help:"Start of the morning window (HH:MM)."`
	MorningEnd   *string `help:"End of the morning window (HH:MM)."`
	EveningStart *string `help:"Start of the evening window (HH:MM)."`
	EveningEnd   *string `help:"End of the evening window (HH:MM)."`
	WakeHour     *int    `help:"Wake hours below this mark a morning person."`
	HistoryDays  *int    `help:"Days of history used for performance analysis."`
	Timezone     *string `help:"IANA timezone or Local."`
}

func (c *SettingsCmd) Run(ctx *Context) error {
	settings, err := ctx.Store.GetSettings(ctx.Context())
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	if c.List {
		ctx.println("Current Settings:")
		ctx.printf("  Morning Window:        %s-%s\n", settings.MorningWindowStart, settings.MorningWindowEnd)
		ctx.printf("  Evening Window:        %s-%s\n", settings.EveningWindowStart, settings.EveningWindowEnd)
		ctx.printf("  Morning Wake Hour:     %d\n", settings.MorningWakeHour)
		ctx.printf("  History Days:          %d\n", settings.HistoryDays)
		ctx.printf("  Timezone:              %s\n", settings.Timezone)
		return nil
	}

	updated := false
	clock := func(dst *string, value *string, name string) error {
		if value == nil {
			return nil
		}
		if !utils.ValidateTimeFormat(*value) {
			return fmt.Errorf("invalid %s %q: use HH:MM", name, *value)
		}
		*dst = *value
		updated = true
		return nil
	}
	if err := clock(&settings.MorningWindowStart, c.MorningStart, "morning start"); err != nil {
		return err
	}
	if err := clock(&settings.MorningWindowEnd, c.MorningEnd, "morning end"); err != nil {
		return err
	}
	if err := clock(&settings.EveningWindowStart, c.EveningStart, "evening start"); err != nil {
		return err
	}
	if err := clock(&settings.EveningWindowEnd, c.EveningEnd, "evening end"); err != nil {
		return err
	}
	if c.WakeHour != nil {
		if *c.WakeHour < 0 || *c.WakeHour > 23 {
			return fmt.Errorf("wake hour must be between 0 and 23")
		}
		settings.MorningWakeHour = *c.WakeHour
		updated = true
	}
	if c.HistoryDays != nil {
		if *c.HistoryDays < 1 || *c.HistoryDays > 365 {
			return fmt.Errorf("history days must be between 1 and 365")
		}
		settings.HistoryDays = *c.HistoryDays
		updated = true
	}
	if c.Timezone != nil {
		if !utils.ValidateTimezone(*c.Timezone) {
			return fmt.Errorf("unknown timezone %q", *c.Timezone)
		}
		settings.Timezone = *c.Timezone
		updated = true
	}

	if updated {
		if err := ctx.Store.SaveSettings(ctx.Context(), settings); err != nil {
			return fmt.Errorf("failed to save settings: %w", err)
		}
		ctx.invalidate()
		ctx.println("Settings updated successfully.")
	} else {
		ctx.println("No changes specified. Use --list to view settings or flags to update them.")
	}

	return nil
}
