package models

type PerformanceData struct {
	CompletionRate         float64        `json:"completion_rate"`
	ConsistencyScore       float64        `json:"consistency_score"`
	RecentFailures         int            `json:"recent_failures"`
	RecentSuccesses        int            `json:"recent_successes"`
	AverageFocusQuality    float64        `json:"average_focus_quality"`
	PreferredActivityTypes []ActivityType `json:"preferred_activity_types,omitempty"`
	DaysObserved           int            `json:"days_observed"`
}

type ComplexityLevel string

const (
	ComplexitySimple   ComplexityLevel = "simple"
	ComplexityModerate ComplexityLevel = "moderate"
	ComplexityComplex  ComplexityLevel = "complex"
)

// Complexity is the density/challenge guidance applied to a generated routine.
type Complexity struct {
	Level             ComplexityLevel `json:"level"`
	TaskCount         int             `json:"task_count"`
	DeepWorkBlocks    int             `json:"deep_work_blocks"`
	BreakFrequencyMin int             `json:"break_frequency_min"`
	Multitasking      bool            `json:"multitasking"`
}
