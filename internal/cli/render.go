package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/routinely/internal/cache"
	"github.com/julianstephens/routinely/internal/models"
	"github.com/julianstephens/routinely/internal/optimizer"
	"github.com/julianstephens/routinely/internal/routine"
	"github.com/julianstephens/routinely/internal/validation"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true)

	timeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Width(14)

	taskStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Bold(true)

	breakStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)

	doneStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	noteStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244")).
			Italic(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Width(22)
)

var energyMarks = map[models.EnergyLevel]string{
	models.EnergyHigh:   "▲",
	models.EnergyMedium: "■",
	models.EnergyLow:    "▼",
}

// RenderRoutine draws a routine as one line per segment, numbered the way
// `routines complete` expects.
func RenderRoutine(r models.DailyRoutine) string {
	var b strings.Builder
	status := ""
	if r.Completed {
		status = " " + doneStyle.Render("(completed)")
	}
	fmt.Fprintf(&b, "%s%s\n", titleStyle.Render("Routine for "+r.Date), status)

	if len(r.Segments) == 0 {
		b.WriteString(noteStyle.Render("No segments.") + "\n")
	}
	for i, seg := range r.Segments {
		window := timeStyle.Render(fmt.Sprintf("%s-%s", seg.Slot.Start, seg.Slot.End))
		if seg.Type == models.ActivityBreak {
			fmt.Fprintf(&b, "%3d. %s %s\n", i+1, window, breakStyle.Render(seg.Description))
			continue
		}
		mark := "[ ]"
		if seg.Completed {
			mark = doneStyle.Render("[x]")
		}
		line := fmt.Sprintf("%3d. %s %s %s", i+1, window, mark, taskStyle.Render(seg.Description))
		meta := []string{fmt.Sprintf("%d min", seg.DurationMin), string(seg.Priority)}
		if m, ok := energyMarks[seg.Slot.Energy]; ok {
			meta = append(meta, m+" "+string(seg.Slot.Energy))
		}
		if seg.ActualDurationMin != nil {
			meta = append(meta, fmt.Sprintf("actual %d min", *seg.ActualDurationMin))
		}
		if seg.FocusQuality != nil {
			meta = append(meta, fmt.Sprintf("focus %.0f%%", *seg.FocusQuality*100))
		}
		fmt.Fprintf(&b, "%s %s\n", line, noteStyle.Render("("+strings.Join(meta, ", ")+")"))
		for _, s := range seg.Suggestions {
			fmt.Fprintf(&b, "       %s\n", noteStyle.Render("· "+s.Title))
		}
	}

	if len(r.Adaptations) > 0 {
		b.WriteString("\n" + titleStyle.Render("Adaptations") + "\n")
		for _, a := range r.Adaptations {
			fmt.Fprintf(&b, "  - %s\n", a)
		}
	}
	return b.String()
}

// RenderGenerateResult adds the generation summary under the routine.
func RenderGenerateResult(res routine.GenerateResult) string {
	var b strings.Builder
	b.WriteString(RenderRoutine(res.Routine))
	b.WriteString("\n")
	if res.Created {
		fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("Complexity"), res.ComplexityLevel)
	} else {
		fmt.Fprintf(&b, "%s\n", noteStyle.Render("A routine already existed for this day; showing it unchanged."))
	}
	fmt.Fprintf(&b, "%s %d min\n", labelStyle.Render("Estimated work"), res.EstimatedCompletionMinutes)
	return b.String()
}

func RenderComparison(cmp optimizer.Comparison) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Routine comparison") + "\n")
	for _, v := range cmp.Variations {
		name := fmt.Sprintf("#%d", v.Index+1)
		if v.Date != "" {
			name += " " + v.Date
		}
		if v.Index == cmp.RecommendedIndex {
			name = doneStyle.Render(name + " *")
		}
		fmt.Fprintf(&b, "  %s %d segments, %d min, predicted %.0f%%\n",
			labelStyle.Render(name), v.SegmentCount, v.TotalMinutes, v.PredictedScore*100)
	}
	for _, f := range cmp.Findings {
		fmt.Fprintf(&b, "  %s\n", warningStyle.Render("! "+f))
	}
	fmt.Fprintf(&b, "\n%s\n", cmp.Recommendation)
	return b.String()
}

func RenderValidation(result validation.ValidationResult) string {
	var b strings.Builder
	if result.Valid {
		b.WriteString(doneStyle.Render("✓ Routine is valid") + "\n")
	} else {
		b.WriteString(errorStyle.Render("✗ Routine has conflicts") + "\n")
	}
	for _, issue := range result.Errors {
		fmt.Fprintf(&b, "  %s\n", errorStyle.Render("error: "+issue.Description))
	}
	for _, issue := range result.Warnings {
		fmt.Fprintf(&b, "  %s\n", warningStyle.Render("warning: "+issue.Description))
	}
	return b.String()
}

func RenderProfile(p models.Profile, stored bool) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Profile for "+p.UserID) + "\n")
	if !stored {
		b.WriteString(noteStyle.Render("No profile saved yet; showing defaults.") + "\n")
	}
	row := func(label, value string) {
		fmt.Fprintf(&b, "  %s %s\n", labelStyle.Render(label), value)
	}
	row("Target identity", p.TargetIdentity)
	row("Academic goals", strings.Join(p.AcademicGoals, ", "))
	row("Skill goals", strings.Join(p.SkillGoals, ", "))
	row("Wake / sleep", p.WakeUpTime+" / "+p.SleepTime)
	row("Available hours", fmt.Sprintf("%d", p.AvailableHours))
	if p.LearningStyle != "" {
		row("Learning style", p.LearningStyle)
	}
	for _, e := range p.EnergyPattern {
		window := e.TimeOfDay
		if e.StartTime != "" {
			window = e.StartTime + "-" + e.EndTime
		}
		row("Energy "+window, fmt.Sprintf("%s (%.0f%%)", e.Level, e.Productivity*100))
	}
	return b.String()
}

func RenderPerformance(perf *models.PerformanceData) string {
	if perf == nil {
		return noteStyle.Render("No routine history yet.") + "\n"
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render("Recent performance") + "\n")
	row := func(label, value string) {
		fmt.Fprintf(&b, "  %s %s\n", labelStyle.Render(label), value)
	}
	row("Days observed", fmt.Sprintf("%d", perf.DaysObserved))
	row("Completion rate", fmt.Sprintf("%.0f%%", perf.CompletionRate*100))
	row("Consistency", fmt.Sprintf("%.0f%%", perf.ConsistencyScore*100))
	row("Average focus", fmt.Sprintf("%.0f%%", perf.AverageFocusQuality*100))
	row("Last 7 days", fmt.Sprintf("%d done, %d missed", perf.RecentSuccesses, perf.RecentFailures))
	if len(perf.PreferredActivityTypes) > 0 {
		types := make([]string, len(perf.PreferredActivityTypes))
		for i, t := range perf.PreferredActivityTypes {
			types[i] = string(t)
		}
		row("Strongest at", strings.Join(types, ", "))
	}
	return b.String()
}

func RenderCacheStats(stats cache.Stats) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s (ttl %s)\n", titleStyle.Render("Context cache"), stats.Backend, stats.TTL)
	if stats.Backend == cache.MemoryBackend {
		b.WriteString(noteStyle.Render("  "+memoryCacheNote) + "\n")
	}
	if len(stats.Entries) == 0 {
		b.WriteString(noteStyle.Render("  empty") + "\n")
		return b.String()
	}
	for _, e := range stats.Entries {
		label := e.Key
		if user, date, ok := cache.ParseKey(e.Key); ok {
			label = user + " " + date
		}
		fmt.Fprintf(&b, "  %s expires in %s\n", labelStyle.Render(label), e.ExpiresIn.Round(time.Second))
	}
	return b.String()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
