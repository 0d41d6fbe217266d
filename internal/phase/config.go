package phase

import (
	"fmt"
	"sort"

	"trivia-session-engine/internal/domain"
)

// DefaultQuestionsPerPhase is the normative size of every phase.
const DefaultQuestionsPerPhase = 10

// TieBreak decides which level receives a leftover unit when fractional remainders tie.
type TieBreak int

const (
	TieLowerLevel TieBreak = iota
	TieHigherLevel
)

// Band maps an inclusive phase range to level percentages.
type Band struct {
	From    int
	To      int
	Percent map[int]float64
}

// AccuracyBand maps an inclusive phase range to the accuracy needed to pass.
type AccuracyBand struct {
	From            int
	To              int
	MinimumAccuracy float64
}

// AdaptiveConfig bounds how far recent performance may bend a phase's distribution.
type AdaptiveConfig struct {
	// ShiftPercent is the most distribution mass (in percentage points) moved per adjustment.
	ShiftPercent float64
	HighAccuracy float64
	LowAccuracy  float64
	// Window is how many recent answers are considered.
	Window     int
	MinAnswers int
}

// Config holds the static phase tables.
type Config struct {
	QuestionsPerPhase int
	Bands             []Band
	AccuracyBands     []AccuracyBand
	TieBreak          TieBreak
	Adaptive          AdaptiveConfig
}

// PhaseConfig is the resolved configuration of one phase. It is computed on demand and
// never persisted.
type PhaseConfig struct {
	Phase           int             `json:"phase"`
	Percentages     map[int]float64 `json:"percentages"`
	Distribution    map[int]int     `json:"distribution"`
	MinLevel        int             `json:"minLevel"`
	MaxLevel        int             `json:"maxLevel"`
	MinimumAccuracy float64         `json:"minimumAccuracy"`
}

// DefaultConfig returns the production phase tables: five pure bands, one per level, with
// mixed bands of two adjacent levels between them.
func DefaultConfig() Config {
	return Config{
		QuestionsPerPhase: DefaultQuestionsPerPhase,
		Bands: []Band{
			{From: 1, To: 3, Percent: map[int]float64{1: 100}},
			{From: 4, To: 6, Percent: map[int]float64{1: 70, 2: 30}},
			{From: 7, To: 9, Percent: map[int]float64{1: 50, 2: 50}},
			{From: 10, To: 12, Percent: map[int]float64{1: 30, 2: 70}},
			{From: 13, To: 15, Percent: map[int]float64{2: 100}},
			{From: 16, To: 18, Percent: map[int]float64{2: 70, 3: 30}},
			{From: 19, To: 21, Percent: map[int]float64{2: 50, 3: 50}},
			{From: 22, To: 24, Percent: map[int]float64{2: 30, 3: 70}},
			{From: 25, To: 27, Percent: map[int]float64{3: 100}},
			{From: 28, To: 30, Percent: map[int]float64{3: 70, 4: 30}},
			{From: 31, To: 33, Percent: map[int]float64{3: 50, 4: 50}},
			{From: 34, To: 36, Percent: map[int]float64{3: 30, 4: 70}},
			{From: 37, To: 39, Percent: map[int]float64{4: 100}},
			{From: 40, To: 42, Percent: map[int]float64{4: 65, 5: 35}},
			{From: 43, To: 45, Percent: map[int]float64{4: 35, 5: 65}},
			{From: 46, To: 50, Percent: map[int]float64{5: 100}},
		},
		AccuracyBands: []AccuracyBand{
			{From: 1, To: 10, MinimumAccuracy: 0.6},
			{From: 11, To: 25, MinimumAccuracy: 0.7},
			{From: 26, To: 40, MinimumAccuracy: 0.75},
			{From: 41, To: 50, MinimumAccuracy: 0.8},
		},
		TieBreak: TieLowerLevel,
		Adaptive: AdaptiveConfig{
			ShiftPercent: 10,
			HighAccuracy: 0.8,
			LowAccuracy:  0.5,
			Window:       10,
			MinAnswers:   5,
		},
	}
}

var defaultConfig = DefaultConfig()

// ForPhase resolves phase n with the default tables.
func ForPhase(n int) (PhaseConfig, error) {
	return defaultConfig.ForPhase(n)
}

// MinimumAccuracy returns the default pass threshold of phase n.
func MinimumAccuracy(n int) float64 {
	return defaultConfig.MinimumAccuracy(n)
}

// ForPhase resolves the distribution and pass threshold of phase n.
func (c Config) ForPhase(n int) (PhaseConfig, error) {
	if err := domain.ValidatePhase(n); err != nil {
		return PhaseConfig{}, err
	}
	for _, band := range c.Bands {
		if n < band.From || n > band.To {
			continue
		}
		pc := PhaseConfig{
			Phase:           n,
			Percentages:     make(map[int]float64, len(band.Percent)),
			MinLevel:        domain.MaxLevel,
			MaxLevel:        domain.MinLevel,
			MinimumAccuracy: c.MinimumAccuracy(n),
		}
		for level, pct := range band.Percent {
			if pct <= 0 {
				continue
			}
			pc.Percentages[level] = pct
			pc.MinLevel = min(pc.MinLevel, level)
			pc.MaxLevel = max(pc.MaxLevel, level)
		}
		pc.Distribution = LargestRemainder(pc.Percentages, c.questionsPerPhase(), c.TieBreak)
		return pc, nil
	}
	return PhaseConfig{}, fmt.Errorf("no distribution band covers phase %d", n)
}

// MinimumAccuracy returns the pass threshold of phase n, or 1 for uncovered phases.
func (c Config) MinimumAccuracy(n int) float64 {
	for _, band := range c.AccuracyBands {
		if n >= band.From && n <= band.To {
			return band.MinimumAccuracy
		}
	}
	return 1
}

func (c Config) questionsPerPhase() int {
	if c.QuestionsPerPhase <= 0 {
		return DefaultQuestionsPerPhase
	}
	return c.QuestionsPerPhase
}

// Levels returns the allowed levels of the phase in ascending order.
func (pc PhaseConfig) Levels() []int {
	levels := make([]int, 0, pc.MaxLevel-pc.MinLevel+1)
	for l := pc.MinLevel; l <= pc.MaxLevel; l++ {
		levels = append(levels, l)
	}
	return levels
}

// Total sums the target counts of the distribution.
func (pc PhaseConfig) Total() int {
	total := 0
	for _, n := range pc.Distribution {
		total += n
	}
	return total
}

// InRange reports whether level is allowed for the phase.
func (pc PhaseConfig) InRange(level int) bool {
	return level >= pc.MinLevel && level <= pc.MaxLevel
}

func sortedLevels(m map[int]float64) []int {
	levels := make([]int, 0, len(m))
	for l := range m {
		levels = append(levels, l)
	}
	sort.Ints(levels)
	return levels
}
