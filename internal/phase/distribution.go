package phase

import (
	"math"
	"sort"

	"trivia-session-engine/internal/domain"
)

const remainderEpsilon = 1e-9

// LargestRemainder converts level percentages into integer counts summing exactly to n.
// Each level first gets floor(n*share); the leftover units go to the levels with the
// largest fractional remainder, ties resolved by tie.
func LargestRemainder(percent map[int]float64, n int, tie TieBreak) map[int]int {
	counts := make(map[int]int, len(percent))
	sum := 0.0
	for _, pct := range percent {
		if pct > 0 {
			sum += pct
		}
	}
	if sum <= 0 || n <= 0 {
		return counts
	}

	type share struct {
		level     int
		remainder float64
	}
	shares := make([]share, 0, len(percent))
	assigned := 0
	for _, level := range sortedLevels(percent) {
		pct := percent[level]
		if pct <= 0 {
			continue
		}
		exact := float64(n) * pct / sum
		floor := int(math.Floor(exact + remainderEpsilon))
		counts[level] = floor
		assigned += floor
		shares = append(shares, share{level: level, remainder: exact - float64(floor)})
	}

	sort.SliceStable(shares, func(i, j int) bool {
		if math.Abs(shares[i].remainder-shares[j].remainder) > remainderEpsilon {
			return shares[i].remainder > shares[j].remainder
		}
		if tie == TieHigherLevel {
			return shares[i].level > shares[j].level
		}
		return shares[i].level < shares[j].level
	})
	for i := 0; assigned < n && len(shares) > 0; i++ {
		counts[shares[i%len(shares)].level]++
		assigned++
	}
	return counts
}

// Adjust bends pc toward recent performance. With accuracy at or above HighAccuracy up to
// ShiftPercent points move from the lowest populated level to the next one up; at or below
// LowAccuracy they move from the highest populated level to the next one down. Mass never
// leaves [MinLevel, MaxLevel], so single-level phases are returned unchanged.
func (c Config) Adjust(pc PhaseConfig, hints domain.PerformanceHints) PhaseConfig {
	cfg := c.Adaptive
	accuracy, n := hints.Accuracy(cfg.Window)
	if n == 0 || n < cfg.MinAnswers || pc.MinLevel == pc.MaxLevel || cfg.ShiftPercent <= 0 {
		return pc
	}

	from, to := 0, 0
	switch {
	case accuracy >= cfg.HighAccuracy:
		for l := pc.MinLevel; l < pc.MaxLevel; l++ {
			if pc.Percentages[l] > 0 {
				from, to = l, l+1
				break
			}
		}
	case accuracy <= cfg.LowAccuracy:
		for l := pc.MaxLevel; l > pc.MinLevel; l-- {
			if pc.Percentages[l] > 0 {
				from, to = l, l-1
				break
			}
		}
	}
	if from == 0 {
		return pc
	}

	adjusted := pc
	adjusted.Percentages = make(map[int]float64, len(pc.Percentages)+1)
	for level, pct := range pc.Percentages {
		adjusted.Percentages[level] = pct
	}
	moved := math.Min(cfg.ShiftPercent, adjusted.Percentages[from])
	adjusted.Percentages[from] -= moved
	adjusted.Percentages[to] += moved
	if adjusted.Percentages[from] <= 0 {
		delete(adjusted.Percentages, from)
	}
	adjusted.Distribution = LargestRemainder(adjusted.Percentages, c.questionsPerPhase(), c.TieBreak)
	return adjusted
}
