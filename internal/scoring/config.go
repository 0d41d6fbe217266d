package scoring

// SpeedTier awards Multiplier when at least MinRemainingMs of the question budget is left.
type SpeedTier struct {
	MinRemainingMs int64
	Multiplier     float64
}

// GradeBand maps an accuracy floor to a letter grade.
type GradeBand struct {
	MinAccuracy float64
	Grade       string
}

// Config holds the scoring tables. Tier and band slices are evaluated top-down.
type Config struct {
	BasePoints map[int]int
	SpeedTiers []SpeedTier

	StreakMinimum   int
	StreakPerAnswer int
	StreakCap       int

	WrongPenalty   int
	TimeoutPenalty int

	PerfectMultiplier   float64
	PerfectMinQuestions int

	GradeBands []GradeBand

	FastAverageMs       int64
	StreakAchievement   int
	TopicMasteryMinimum int
}

// Achievement tags reported with a phase result.
const (
	AchievementPerfectPhase = "perfect_phase"
	AchievementSpeedDemon   = "speed_demon"
	AchievementStreakMaster = "streak_master"
	// AchievementTopicMasterPrefix is followed by the topic name.
	AchievementTopicMasterPrefix = "topic_master:"
)

// DefaultConfig returns production scoring constants.
func DefaultConfig() Config {
	return Config{
		BasePoints: map[int]int{1: 10, 2: 20, 3: 30, 4: 40, 5: 50},
		SpeedTiers: []SpeedTier{
			{MinRemainingMs: 20000, Multiplier: 2.0},
			{MinRemainingMs: 15000, Multiplier: 1.5},
			{MinRemainingMs: 10000, Multiplier: 1.2},
			{MinRemainingMs: 0, Multiplier: 1.0},
		},
		StreakMinimum:       3,
		StreakPerAnswer:     5,
		StreakCap:           50,
		WrongPenalty:        -5,
		TimeoutPenalty:      -3,
		PerfectMultiplier:   1.5,
		PerfectMinQuestions: 5,
		GradeBands: []GradeBand{
			{MinAccuracy: 0.95, Grade: "A+"},
			{MinAccuracy: 0.90, Grade: "A"},
			{MinAccuracy: 0.85, Grade: "B+"},
			{MinAccuracy: 0.80, Grade: "B"},
			{MinAccuracy: 0.75, Grade: "C+"},
			{MinAccuracy: 0.70, Grade: "C"},
			{MinAccuracy: 0.60, Grade: "D"},
		},
		FastAverageMs:       8000,
		StreakAchievement:   7,
		TopicMasteryMinimum: 3,
	}
}
