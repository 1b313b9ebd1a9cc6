package optimizer

import (
	"github.com/julianstephens/routinely/internal/constants"
	"github.com/julianstephens/routinely/internal/models"
)

// DefaultComplexity is the tier used until performance history says otherwise.
// Its counts are nominal; the scheduler only binds the simple tier's caps and
// the complex tier's floors.
func DefaultComplexity() models.Complexity {
	return models.Complexity{
		Level:             models.ComplexityModerate,
		TaskCount:         constants.ModerateTaskCount,
		DeepWorkBlocks:    constants.ModerateDeepWorkBlocks,
		BreakFrequencyMin: constants.ModerateBreakFrequencyMin,
	}
}

// CalculateAdaptiveComplexity steps a struggling user down to the simple tier
// and a consistently successful one up to the complex tier. Anything in
// between keeps current. A nil perf means no history and also keeps current.
func CalculateAdaptiveComplexity(perf *models.PerformanceData, current models.Complexity) models.Complexity {
	if perf == nil {
		return current
	}

	switch {
	case perf.CompletionRate <= constants.SimpleMaxCompletionRate ||
		perf.RecentFailures >= constants.SimpleMinRecentFailures:
		return Simplify(current)

	case perf.CompletionRate >= constants.ComplexMinCompletionRate &&
		perf.ConsistencyScore >= constants.ComplexMinConsistencyScore &&
		perf.RecentSuccesses >= constants.ComplexMinRecentSuccesses:
		return models.Complexity{
			Level:             models.ComplexityComplex,
			TaskCount:         max(current.TaskCount, constants.ComplexTaskCount),
			DeepWorkBlocks:    max(current.DeepWorkBlocks, constants.ComplexDeepWorkBlocks),
			BreakFrequencyMin: max(current.BreakFrequencyMin, constants.ComplexBreakFrequencyMin),
			Multitasking:      true,
		}
	}
	return current
}

// Simplify steps current down to the simple tier without raising any limit
// that is already lower.
func Simplify(current models.Complexity) models.Complexity {
	return models.Complexity{
		Level:             models.ComplexitySimple,
		TaskCount:         capAt(current.TaskCount, constants.SimpleTaskCount),
		DeepWorkBlocks:    capAt(current.DeepWorkBlocks, constants.SimpleDeepWorkBlocks),
		BreakFrequencyMin: capAt(current.BreakFrequencyMin, constants.SimpleBreakFrequencyMin),
		Multitasking:      false,
	}
}

// capAt lowers value to limit; an unset value takes the limit.
func capAt(value, limit int) int {
	if value <= 0 {
		return limit
	}
	return min(value, limit)
}
