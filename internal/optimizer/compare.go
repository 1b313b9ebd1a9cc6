package optimizer

import (
	"fmt"
	"math"

	"github.com/julianstephens/routinely/internal/constants"
	apperr "github.com/julianstephens/routinely/internal/errors"
	"github.com/julianstephens/routinely/internal/models"
)

// VariationSummary describes one candidate routine.
type VariationSummary struct {
	Index          int                         `json:"index"`
	Date           string                      `json:"date,omitempty"`
	SegmentCount   int                         `json:"segment_count"`
	TotalMinutes   int                         `json:"total_minutes"`
	TypeCounts     map[models.ActivityType]int `json:"type_counts"`
	PriorityCounts map[models.Priority]int     `json:"priority_counts"`
	PredictedScore float64                     `json:"predicted_score"`
}

type Comparison struct {
	Variations                []VariationSummary `json:"variations"`
	SegmentSpread             int                `json:"segment_spread"`
	SignificantComplexityDiff bool               `json:"significant_complexity_difference"`
	Findings                  []string           `json:"findings"`
	Recommendation            string             `json:"recommendation"`
	RecommendedIndex          int                `json:"recommended_index"` // -1 when all are acceptable
}

// CompareRoutineVariations summarises at least two candidate routines and
// recommends one given the user's recent completion rate. perf may be nil.
func CompareRoutineVariations(variations []models.DailyRoutine, perf *models.PerformanceData) (Comparison, error) {
	if len(variations) < 2 {
		return Comparison{}, apperr.NewValidation("compare routines",
			fmt.Sprintf("variations: need at least 2, got %d", len(variations)))
	}

	cmp := Comparison{RecommendedIndex: -1, Findings: []string{}}
	lowest, highest := 0, 0
	for i, r := range variations {
		summary := VariationSummary{
			Index:          i,
			Date:           r.Date,
			SegmentCount:   len(r.Segments),
			TypeCounts:     map[models.ActivityType]int{},
			PriorityCounts: map[models.Priority]int{},
			PredictedScore: PredictScore(len(r.Segments)),
		}
		for _, seg := range r.Segments {
			summary.TotalMinutes += seg.DurationMin
			summary.TypeCounts[seg.Type]++
			if seg.Priority != "" {
				summary.PriorityCounts[seg.Priority]++
			}
		}
		cmp.Variations = append(cmp.Variations, summary)

		if summary.SegmentCount < cmp.Variations[lowest].SegmentCount {
			lowest = i
		}
		if summary.SegmentCount > cmp.Variations[highest].SegmentCount {
			highest = i
		}
	}

	cmp.SegmentSpread = cmp.Variations[highest].SegmentCount - cmp.Variations[lowest].SegmentCount
	if cmp.SegmentSpread > constants.ComparatorSpreadThreshold {
		cmp.SignificantComplexityDiff = true
		cmp.Findings = append(cmp.Findings, fmt.Sprintf(
			"Significant complexity difference: variation %d has %d segments, variation %d has %d (spread %d)",
			lowest+1, cmp.Variations[lowest].SegmentCount,
			highest+1, cmp.Variations[highest].SegmentCount, cmp.SegmentSpread))
	}

	if perf != nil && perf.CompletionRate < constants.ComparatorCompletionCutoff {
		cmp.RecommendedIndex = lowest
		cmp.Recommendation = fmt.Sprintf(
			"Recent completion rate is %.0f%%: prefer variation %d, the lower-complexity option",
			perf.CompletionRate*100, lowest+1)
	} else {
		cmp.Recommendation = "All variations are acceptable"
	}
	return cmp, nil
}

// PredictScore is the heuristic success score for a routine of n segments.
func PredictScore(n int) float64 {
	penalty := math.Max(0, float64(n-constants.ComparatorBaselineSegments)*constants.ComparatorPenaltyPerSegment)
	return math.Max(constants.ComparatorMinScore, constants.ComparatorBaseScore-penalty)
}
