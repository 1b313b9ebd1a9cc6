package providers

import (
	"context"
	"strings"

	"github.com/julianstephens/routinely/internal/models"
)

// TemplateSuggester proposes activities from fixed templates keyed by the
// slot's energy and the user's learning style.
type TemplateSuggester struct{}

func NewTemplateSuggester() *TemplateSuggester {
	return &TemplateSuggester{}
}

var energyTemplates = map[models.EnergyLevel][]models.ActivitySuggestion{
	models.EnergyHigh: {
		{Title: "Hardest problem first", Detail: "Start with the task you have been avoiding", Minutes: 45},
		{Title: "Distraction-free sprint", Detail: "Phone in another room, one tab open", Minutes: 25},
	},
	models.EnergyMedium: {
		{Title: "Deliberate practice", Detail: "Repeat a focused drill and track errors", Minutes: 30},
		{Title: "Review yesterday's notes", Detail: "Rewrite the parts that were unclear", Minutes: 20},
	},
	models.EnergyLow: {
		{Title: "Light review", Detail: "Flashcards or skimming summaries", Minutes: 20},
		{Title: "Plan tomorrow", Detail: "List the first concrete step of each goal", Minutes: 10},
	},
}

var styleTemplates = map[string]models.ActivitySuggestion{
	"visual":      {Title: "Concept map", Detail: "Sketch how the ideas connect"},
	"auditory":    {Title: "Explain it aloud", Detail: "Teach the topic to an imaginary student"},
	"kinesthetic": {Title: "Worked examples", Detail: "Solve examples by hand before reading solutions"},
	"reading":     {Title: "Written summary", Detail: "Summarise the material in your own words"},
}

func (s *TemplateSuggester) SuggestActivities(ctx context.Context, slot models.TimeSlot, rctx models.RoutineContext) ([]models.ActivitySuggestion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	level := slot.Energy
	if !level.Valid() {
		level = models.EnergyMedium
	}
	out := append([]models.ActivitySuggestion{}, energyTemplates[level]...)
	if extra, ok := styleTemplates[strings.ToLower(strings.TrimSpace(rctx.Profile.Profile.LearningStyle))]; ok {
		out = append(out, extra)
	}
	if rctx.Preferences.LowEnergy && level == models.EnergyHigh {
		out = out[1:]
	}
	return out, nil
}
