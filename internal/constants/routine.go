package constants

const (
	// Segment synthesis
	MinSegmentCount       = 3
	MaxSegmentCount       = 8
	HoursPerSegment       = 1.5
	SegmentBufferMin      = 15
	SegmentJitterMin      = 10
	MinSegmentDurationMin = 30

	// Activity pool shares
	DeepWorkShare      = 0.35
	SkillPracticeShare = 0.30
	StudyShare         = 0.25

	// Breaks
	LongSegmentMin     = 90
	VeryLongSegmentMin = 120
	ShortBreakMin      = 10
	LongBreakMin       = 15

	// Performance thresholds for segment count
	LowCompletionRate  = 0.5
	HighCompletionRate = 0.8

	// Manual slot validation
	ManualMinSlotMin     = 15
	ManualMaxSlotMin     = 180
	FocusedMinSlotMin    = 30
	FocusedMaxSlotMin    = 120
	ManualMaxGapMin      = 60
	MidDaySegmentSizeMin = 60

	// Adaptive complexity
	SimpleMaxCompletionRate     = 0.4
	SimpleMinRecentFailures     = 6
	ComplexMinCompletionRate    = 0.85
	ComplexMinConsistencyScore  = 0.8
	ComplexMinRecentSuccesses   = 8
	SimpleTaskCount             = 4
	SimpleDeepWorkBlocks        = 1
	SimpleBreakFrequencyMin     = 60
	ModerateTaskCount           = 5
	ModerateDeepWorkBlocks      = 2
	ModerateBreakFrequencyMin   = 90
	ComplexTaskCount            = 6
	ComplexDeepWorkBlocks       = 2
	ComplexBreakFrequencyMin    = 90
	ComparatorSpreadThreshold   = 2
	ComparatorCompletionCutoff  = 0.7
	ComparatorBaseScore         = 0.7
	ComparatorMinScore          = 0.3
	ComparatorPenaltyPerSegment = 0.05
	ComparatorBaselineSegments  = 5

	// Context defaults
	DefaultTargetIdentity    = "Focused student"
	DefaultAcademicGoal      = "Review course material"
	DefaultSkillGoal         = "Practice a core skill"
	DefaultWakeTime          = "07:00"
	DefaultSleepTime         = "23:00"
	DefaultAvailableHours    = 8
	DefaultSessionMin        = 90
	DefaultCognitiveLoad     = "medium"
	DefaultReviewScale       = 5
	DefaultAnalyticsScalar   = 0.5
	LowEnergyReviewThreshold = 3
)
