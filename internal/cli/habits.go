package cli

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/julianstephens/routinely/internal/models"
	"github.com/julianstephens/routinely/internal/utils"
)

type HabitAddCmd struct {
	Name string `arg:"" help:"Habit name."`
	Time string `help:"Usual time of day (HH:MM)."`
}

func (cmd *HabitAddCmd) Run(ctx *Context) error {
	name := strings.TrimSpace(cmd.Name)
	if name == "" {
		return fmt.Errorf("habit name cannot be empty")
	}
	if cmd.Time != "" && !utils.ValidateTimeFormat(cmd.Time) {
		return fmt.Errorf("invalid time %q: use HH:MM", cmd.Time)
	}
	h := models.Habit{
		ID:            uuid.New().String(),
		UserID:        ctx.UserID,
		Name:          name,
		Active:        true,
		ScheduledTime: cmd.Time,
		CreatedAt:     ctx.now(),
	}
	if err := ctx.Store.AddHabit(ctx.Context(), h); err != nil {
		return fmt.Errorf("failed to add habit: %w", err)
	}
	ctx.invalidate()
	ctx.printf("Added habit: %s (%s)\n", h.Name, h.ID)
	return nil
}

type HabitListCmd struct {
	All bool `help:"Include archived habits."`
}

func (cmd *HabitListCmd) Run(ctx *Context) error {
	habits, err := ctx.Store.GetHabits(ctx.Context(), ctx.UserID, cmd.All)
	if err != nil {
		return fmt.Errorf("failed to list habits: %w", err)
	}
	if len(habits) == 0 {
		ctx.println("No habits found.")
		return nil
	}
	for _, h := range habits {
		status := ""
		if h.ArchivedAt != nil {
			status = " [archived]"
		}
		when := ""
		if h.ScheduledTime != "" {
			when = " at " + h.ScheduledTime
		}
		ctx.printf("- %s%s (streak %d, %.0f%% consistent)%s\n  id: %s\n",
			h.Name, when, h.Streak, h.Consistency*100, status, h.ID)
	}
	return nil
}

type HabitArchiveCmd struct {
	ID string `arg:"" help:"Habit ID."`
}

func (cmd *HabitArchiveCmd) Run(ctx *Context) error {
	if err := ctx.Store.ArchiveHabit(ctx.Context(), ctx.UserID, cmd.ID); err != nil {
		return fmt.Errorf("failed to archive habit: %w", err)
	}
	ctx.invalidate()
	ctx.printf("Archived habit %s\n", cmd.ID)
	return nil
}

type HabitsCmd struct {
	Add     HabitAddCmd     `cmd:"" help:"Track a new habit."`
	List    HabitListCmd    `cmd:"" help:"List habits." default:"1"`
	Archive HabitArchiveCmd `cmd:"" help:"Stop tracking a habit."`
}

// invalidate drops the user's cached contexts after a write that feeds them.
func (c *Context) invalidate() {
	if c.Aggregator == nil {
		return
	}
	if _, err := c.Aggregator.ClearUserCache(c.Context(), c.UserID); err != nil {
		fmt.Fprintf(c.Out, "warning: could not clear cached context: %v\n", err)
	}
}
