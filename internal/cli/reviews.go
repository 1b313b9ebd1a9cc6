package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/julianstephens/routinely/internal/models"
	"github.com/julianstephens/routinely/internal/storage"
)

type ReviewAddCmd struct {
	Date    string   `help:"Day being reviewed." default:"today"`
	Task    []string `help:"Task to carry into tomorrow (repeatable)." sep:"none"`
	Energy  int      `required:"" help:"End-of-day energy, 1-10."`
	Mood    int      `required:"" help:"End-of-day mood, 1-10."`
	Insight []string `help:"Something learned today (repeatable)." sep:"none"`
}

func (cmd *ReviewAddCmd) Run(ctx *Context) error {
	date, err := ctx.day(cmd.Date)
	if err != nil {
		return err
	}
	if cmd.Energy < 1 || cmd.Energy > 10 {
		return fmt.Errorf("energy must be between 1 and 10, got %d", cmd.Energy)
	}
	if cmd.Mood < 1 || cmd.Mood > 10 {
		return fmt.Errorf("mood must be between 1 and 10, got %d", cmd.Mood)
	}

	review := models.EveningReview{
		ID:            uuid.New().String(),
		UserID:        ctx.UserID,
		Date:          date,
		TomorrowTasks: trimAll(cmd.Task),
		EnergyLevel:   cmd.Energy,
		Mood:          cmd.Mood,
		Insights:      trimAll(cmd.Insight),
		CreatedAt:     ctx.now(),
	}
	if err := ctx.Store.SaveReview(ctx.Context(), review); err != nil {
		return fmt.Errorf("failed to save review: %w", err)
	}
	ctx.invalidate()
	ctx.printf("Saved review for %s with %d tasks for tomorrow.\n", date, len(review.TomorrowTasks))
	return nil
}

type ReviewLastCmd struct {
	Before string `help:"Show the latest review dated before this day." default:"tomorrow"`
	JSON   bool   `help:"Print the review as JSON."`
}

func (cmd *ReviewLastCmd) Run(ctx *Context) error {
	before, err := ctx.day(cmd.Before)
	if err != nil {
		return err
	}
	review, err := ctx.Store.GetLatestReview(ctx.Context(), ctx.UserID, before)
	if errors.Is(err, storage.ErrNotFound) {
		ctx.println("No reviews yet.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load review: %w", err)
	}
	if cmd.JSON {
		return writeJSON(ctx.Out, review)
	}
	ctx.printf("Review for %s: energy %d/10, mood %d/10\n", review.Date, review.EnergyLevel, review.Mood)
	for _, t := range review.TomorrowTasks {
		ctx.printf("  task: %s\n", t)
	}
	for _, i := range review.Insights {
		ctx.printf("  insight: %s\n", i)
	}
	return nil
}

type ReviewsCmd struct {
	Add  ReviewAddCmd  `cmd:"" help:"Record an evening review."`
	Last ReviewLastCmd `cmd:"" help:"Show the most recent review." default:"1"`
}

func trimAll(values []string) []string {
	out := []string{}
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
