package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/routinely/internal/models"
	"github.com/julianstephens/routinely/internal/utils"
)

type ProfileShowCmd struct {
	JSON bool `help:"Print the profile as JSON."`
}

func (cmd *ProfileShowCmd) Run(ctx *Context) error {
	if err := ctx.requireEngine(); err != nil {
		return err
	}
	p, stored, err := ctx.Service.Profile(ctx.Context(), ctx.UserID)
	if err != nil {
		return err
	}
	if cmd.JSON {
		return writeJSON(ctx.Out, p)
	}
	ctx.printf("%s", RenderProfile(p, stored))
	return nil
}

type ProfileSetCmd struct {
	Identity    string   `help:"Who you are working to become."`
	Academic    []string `help:"Academic goals (repeatable; replaces the current list)." sep:"none"`
	Skill       []string `help:"Skill goals (repeatable; replaces the current list)." sep:"none"`
	Wake        string   `help:"Wake-up time (HH:MM)."`
	Sleep       string   `help:"Sleep time (HH:MM)."`
	Hours       *int     `help:"Hours available for focused work."`
	Style       string   `help:"Learning style (visual, auditory, reading, kinesthetic)."`
	Energy      []string `help:"Energy window as part=level[:productivity] or HH:MM-HH:MM=level[:productivity] (repeatable; replaces the pattern)." sep:"none"`
	Interactive bool     `short:"i" help:"Edit the profile in an interactive form."`
}

func (cmd *ProfileSetCmd) Run(ctx *Context) error {
	if err := ctx.requireEngine(); err != nil {
		return err
	}
	p, _, err := ctx.Service.Profile(ctx.Context(), ctx.UserID)
	if err != nil {
		return err
	}
	p.UserID = ctx.UserID

	if cmd.Interactive {
		if err := editProfileForm(&p); err != nil {
			return err
		}
	} else if err := cmd.apply(&p); err != nil {
		return err
	}

	if err := ctx.Service.SaveProfile(ctx.Context(), p); err != nil {
		return err
	}
	ctx.println("Profile saved.")
	return nil
}

func (cmd *ProfileSetCmd) apply(p *models.Profile) error {
	if cmd.Identity != "" {
		p.TargetIdentity = cmd.Identity
	}
	if len(cmd.Academic) > 0 {
		p.AcademicGoals = cmd.Academic
	}
	if len(cmd.Skill) > 0 {
		p.SkillGoals = cmd.Skill
	}
	if cmd.Wake != "" {
		p.WakeUpTime = cmd.Wake
	}
	if cmd.Sleep != "" {
		p.SleepTime = cmd.Sleep
	}
	if cmd.Hours != nil {
		p.AvailableHours = *cmd.Hours
	}
	if cmd.Style != "" {
		p.LearningStyle = cmd.Style
	}
	if len(cmd.Energy) > 0 {
		patterns, err := parseEnergyPatterns(cmd.Energy)
		if err != nil {
			return err
		}
		p.EnergyPattern = patterns
	}
	return nil
}

// parseEnergyPatterns reads "morning=high:0.9" or "09:00-12:00=high" specs.
// A missing productivity takes the level's default.
func parseEnergyPatterns(specs []string) ([]models.EnergyPattern, error) {
	out := make([]models.EnergyPattern, 0, len(specs))
	for _, spec := range specs {
		window, value, ok := strings.Cut(strings.TrimSpace(spec), "=")
		if !ok || window == "" {
			return nil, fmt.Errorf("invalid energy window %q: expected window=level", spec)
		}
		levelStr, prodStr, hasProd := strings.Cut(value, ":")
		level := models.EnergyLevel(strings.ToLower(strings.TrimSpace(levelStr)))
		if !level.Valid() {
			return nil, fmt.Errorf("invalid energy window %q: unknown level %q", spec, levelStr)
		}
		pattern := models.EnergyPattern{Level: level, Productivity: defaultProductivity(level)}
		if hasProd {
			prod, err := strconv.ParseFloat(strings.TrimSpace(prodStr), 64)
			if err != nil {
				return nil, fmt.Errorf("invalid energy window %q: %w", spec, err)
			}
			pattern.Productivity = prod
		}
		if start, end, isRange := strings.Cut(window, "-"); isRange {
			if !utils.ValidateTimeFormat(start) || !utils.ValidateTimeFormat(end) {
				return nil, fmt.Errorf("invalid energy window %q: expected HH:MM-HH:MM", spec)
			}
			pattern.StartTime, pattern.EndTime = start, end
		} else {
			pattern.TimeOfDay = strings.ToLower(window)
		}
		out = append(out, pattern)
	}
	return out, nil
}

func defaultProductivity(level models.EnergyLevel) float64 {
	switch level {
	case models.EnergyHigh:
		return 0.9
	case models.EnergyMedium:
		return 0.6
	default:
		return 0.3
	}
}

type profileForm struct {
	Identity string
	Academic string
	Skill    string
	Wake     string
	Sleep    string
	Hours    string
	Style    string
}

func validateClock(s string) error {
	if !utils.ValidateTimeFormat(strings.TrimSpace(s)) {
		return fmt.Errorf("use HH:MM")
	}
	return nil
}

func editProfileForm(p *models.Profile) error {
	fm := profileForm{
		Identity: p.TargetIdentity,
		Academic: strings.Join(p.AcademicGoals, ", "),
		Skill:    strings.Join(p.SkillGoals, ", "),
		Wake:     p.WakeUpTime,
		Sleep:    p.SleepTime,
		Hours:    strconv.Itoa(p.AvailableHours),
		Style:    p.LearningStyle,
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Target identity").
				Value(&fm.Identity),
			huh.NewInput().
				Title("Academic goals").
				Description("Comma separated").
				Value(&fm.Academic),
			huh.NewInput().
				Title("Skill goals").
				Description("Comma separated").
				Value(&fm.Skill),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Wake-up time").
				Value(&fm.Wake).
				Validate(validateClock),
			huh.NewInput().
				Title("Sleep time").
				Value(&fm.Sleep).
				Validate(validateClock),
			huh.NewInput().
				Title("Available hours").
				Value(&fm.Hours).
				Validate(func(s string) error {
					i, err := strconv.Atoi(strings.TrimSpace(s))
					if err != nil {
						return err
					}
					if i < 1 || i > 24 {
						return fmt.Errorf("hours must be 1-24")
					}
					return nil
				}),
			huh.NewSelect[string]().
				Title("Learning style").
				Options(
					huh.NewOption("None", ""),
					huh.NewOption("Visual", "visual"),
					huh.NewOption("Auditory", "auditory"),
					huh.NewOption("Reading", "reading"),
					huh.NewOption("Kinesthetic", "kinesthetic"),
				).
				Value(&fm.Style),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("profile form: %w", err)
	}

	p.TargetIdentity = strings.TrimSpace(fm.Identity)
	p.AcademicGoals = splitList(fm.Academic)
	p.SkillGoals = splitList(fm.Skill)
	p.WakeUpTime = strings.TrimSpace(fm.Wake)
	p.SleepTime = strings.TrimSpace(fm.Sleep)
	p.AvailableHours, _ = strconv.Atoi(strings.TrimSpace(fm.Hours))
	p.LearningStyle = fm.Style
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

type ProfileCmd struct {
	Show ProfileShowCmd `cmd:"" help:"Show the profile." default:"1"`
	Set  ProfileSetCmd  `cmd:"" help:"Update the profile."`
}
