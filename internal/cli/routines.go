package cli

import (
	"fmt"
	"strings"

	"github.com/julianstephens/routinely/internal/models"
	"github.com/julianstephens/routinely/internal/routine"
)

type GenerateCmd struct {
	Date   string   `arg:"" optional:"" default:"today" help:"Day to plan (YYYY-MM-DD, today or tomorrow)."`
	Slot   []string `help:"Manual slot as HH:MM-HH:MM, optionally pinned with =type (e.g. 18:00-19:00=personal). Switches to manual mode." sep:"none"`
	Energy string   `help:"Override the day's energy level." enum:"high,medium,low," default:""`
	Hours  int      `help:"Override available hours for the day."`
	JSON   bool     `help:"Print the result as JSON."`
}

func (cmd *GenerateCmd) Run(ctx *Context) error {
	if err := ctx.requireEngine(); err != nil {
		return err
	}
	date, err := ctx.day(cmd.Date)
	if err != nil {
		return err
	}

	req := routine.GenerateRequest{
		UserID:                 ctx.UserID,
		Date:                   date,
		Mode:                   models.ModeAutomatic,
		EnergyLevelOverride:    models.EnergyLevel(cmd.Energy),
		AvailableHoursOverride: cmd.Hours,
	}
	if len(cmd.Slot) > 0 {
		slots, err := parseSlots(cmd.Slot)
		if err != nil {
			return err
		}
		req.Mode = models.ModeManual
		req.ManualSlots = slots
	}

	res, err := ctx.Service.Generate(ctx.Context(), req)
	if err != nil {
		return err
	}
	if cmd.JSON {
		return writeJSON(ctx.Out, res)
	}
	ctx.printf("%s", RenderGenerateResult(res))
	return nil
}

// parseSlots reads "HH:MM-HH:MM" or "HH:MM-HH:MM=type" specs.
func parseSlots(specs []string) ([]models.ManualSlot, error) {
	slots := make([]models.ManualSlot, 0, len(specs))
	for _, spec := range specs {
		window, kind, pinned := strings.Cut(strings.TrimSpace(spec), "=")
		start, end, ok := strings.Cut(window, "-")
		if !ok {
			return nil, fmt.Errorf("invalid slot %q: expected HH:MM-HH:MM", spec)
		}
		slot := models.ManualSlot{TimeSlot: models.TimeSlot{
			Start: strings.TrimSpace(start),
			End:   strings.TrimSpace(end),
		}}
		if pinned {
			slot.Type = models.ActivityType(strings.ToLower(strings.TrimSpace(kind)))
			if !slot.Type.Valid() || slot.Type == models.ActivityBreak {
				return nil, fmt.Errorf("invalid slot %q: unknown activity type %q", spec, kind)
			}
		}
		slots = append(slots, slot)
	}
	return slots, nil
}

type DayCmd struct {
	Date string `arg:"" optional:"" default:"today" help:"Day to show (YYYY-MM-DD, today, yesterday or tomorrow)."`
	JSON bool   `help:"Print the routine as JSON."`
}

func (cmd *DayCmd) Run(ctx *Context) error {
	if err := ctx.requireEngine(); err != nil {
		return err
	}
	date, err := ctx.day(cmd.Date)
	if err != nil {
		return err
	}
	r, err := ctx.Service.GetByDate(ctx.Context(), ctx.UserID, date)
	if err != nil {
		return err
	}
	if cmd.JSON {
		return writeJSON(ctx.Out, r)
	}
	ctx.printf("%s", RenderRoutine(r))
	return nil
}

type CompleteCmd struct {
	Segment int      `arg:"" help:"Segment number as shown by 'routines day'."`
	Date    string   `help:"Day of the routine." default:"today"`
	Undo    bool     `help:"Mark the segment as not completed."`
	Actual  *int     `help:"Minutes actually spent."`
	Focus   *float64 `help:"Focus quality between 0 and 1."`
}

func (cmd *CompleteCmd) Run(ctx *Context) error {
	if err := ctx.requireEngine(); err != nil {
		return err
	}
	date, err := ctx.day(cmd.Date)
	if err != nil {
		return err
	}
	r, err := ctx.Service.GetByDate(ctx.Context(), ctx.UserID, date)
	if err != nil {
		return err
	}
	if cmd.Segment < 1 || cmd.Segment > len(r.Segments) {
		return fmt.Errorf("segment %d out of range: routine has %d segments", cmd.Segment, len(r.Segments))
	}
	seg := r.Segments[cmd.Segment-1]
	if seg.Type == models.ActivityBreak {
		return fmt.Errorf("segment %d is a break", cmd.Segment)
	}

	completed := !cmd.Undo
	updated, err := ctx.Service.UpdateSegment(ctx.Context(), ctx.UserID, r.ID, seg.ID, routine.SegmentUpdate{
		Completed:         &completed,
		ActualDurationMin: cmd.Actual,
		FocusQuality:      cmd.Focus,
	})
	if err != nil {
		return err
	}

	verb := "Completed"
	if cmd.Undo {
		verb = "Reopened"
	}
	ctx.printf("%s: %s\n", verb, seg.Description)
	if updated.Completed {
		ctx.println("Every segment for the day is done.")
	}
	return nil
}

type AdaptCmd struct {
	Remaining int    `arg:"" help:"Minutes left to plan after the last completed segment."`
	Date      string `help:"Day of the routine." default:"today"`
	JSON      bool   `help:"Print the adapted routine as JSON."`
}

func (cmd *AdaptCmd) Run(ctx *Context) error {
	if err := ctx.requireEngine(); err != nil {
		return err
	}
	date, err := ctx.day(cmd.Date)
	if err != nil {
		return err
	}
	r, err := ctx.Service.GetByDate(ctx.Context(), ctx.UserID, date)
	if err != nil {
		return err
	}
	adapted, err := ctx.Service.AdaptMidDay(ctx.Context(), ctx.UserID, r.ID, cmd.Remaining)
	if err != nil {
		return err
	}
	if cmd.JSON {
		return writeJSON(ctx.Out, adapted)
	}
	ctx.printf("%s", RenderRoutine(adapted))
	return nil
}

type CompareCmd struct {
	Dates []string `arg:"" help:"Two or more days whose routines to compare."`
	JSON  bool     `help:"Print the comparison as JSON."`
}

func (cmd *CompareCmd) Run(ctx *Context) error {
	if err := ctx.requireEngine(); err != nil {
		return err
	}
	variations := make([]models.DailyRoutine, 0, len(cmd.Dates))
	for _, d := range cmd.Dates {
		date, err := ctx.day(d)
		if err != nil {
			return err
		}
		r, err := ctx.Service.GetByDate(ctx.Context(), ctx.UserID, date)
		if err != nil {
			return err
		}
		variations = append(variations, r)
	}
	cmp, err := ctx.Service.CompareVariations(ctx.Context(), ctx.UserID, variations)
	if err != nil {
		return err
	}
	if cmd.JSON {
		return writeJSON(ctx.Out, cmp)
	}
	ctx.printf("%s", RenderComparison(cmp))
	return nil
}

type ValidateCmd struct {
	Date string `arg:"" optional:"" default:"today" help:"Day whose routine to check."`
}

func (cmd *ValidateCmd) Run(ctx *Context) error {
	if err := ctx.requireEngine(); err != nil {
		return err
	}
	date, err := ctx.day(cmd.Date)
	if err != nil {
		return err
	}
	result, err := ctx.Service.ValidateStored(ctx.Context(), ctx.UserID, date)
	if err != nil {
		return err
	}
	ctx.printf("%s", RenderValidation(result))
	if !result.Valid {
		return fmt.Errorf("routine for %s has %d conflicts", date, len(result.Errors))
	}
	return nil
}

type StatsCmd struct {
	JSON bool `help:"Print the summary as JSON."`
}

func (cmd *StatsCmd) Run(ctx *Context) error {
	if err := ctx.requireEngine(); err != nil {
		return err
	}
	perf, err := ctx.Service.Performance(ctx.Context(), ctx.UserID)
	if err != nil {
		return err
	}
	if cmd.JSON {
		return writeJSON(ctx.Out, perf)
	}
	ctx.printf("%s", RenderPerformance(perf))
	return nil
}

// RoutinesCmd groups the routine subcommands.
type RoutinesCmd struct {
	Generate GenerateCmd `cmd:"" help:"Generate the routine for a day."`
	Day      DayCmd      `cmd:"" help:"Show the routine for a day."`
	Complete CompleteCmd `cmd:"" help:"Record completion of a segment."`
	Adapt    AdaptCmd    `cmd:"" help:"Re-plan the rest of the day, keeping completed segments."`
	Compare  CompareCmd  `cmd:"" help:"Compare routines from several days."`
	Validate ValidateCmd `cmd:"" help:"Check a stored routine for conflicts."`
	Stats    StatsCmd    `cmd:"" help:"Summarise recent completion history."`
}
