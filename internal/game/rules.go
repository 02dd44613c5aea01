package game

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// Difficulty names a preset pairing of number range and time budget.
type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

// Difficulties lists the presets in selector order.
var Difficulties = []Difficulty{Easy, Medium, Hard}

// DefaultDifficulty is selected for a fresh player.
const DefaultDifficulty = Medium

// ParseDifficulty normalizes a selector value into a Difficulty.
func ParseDifficulty(s string) (Difficulty, error) {
	d := Difficulty(strings.ToLower(strings.TrimSpace(s)))
	if !lo.Contains(Difficulties, d) {
		return "", fmt.Errorf("%w: %q", ErrUnknownDifficulty, s)
	}
	return d, nil
}

// Level is the range and countdown for one difficulty.
type Level struct {
	MaxRange   int `yaml:"maxRange" json:"maxRange"`
	TimeBudget int `yaml:"timeBudget" json:"timeBudget"`
}

// Tier buckets how close a wrong guess landed.
type Tier string

const (
	TierNear  Tier = "near"
	TierClose Tier = "close"
	TierFar   Tier = "far"
)

// Rules holds the tunable tables behind difficulty and feedback.
// Thresholds are fractions of the range.
type Rules struct {
	Levels         map[Difficulty]Level `yaml:"levels"`
	NearThreshold  float64              `yaml:"nearThreshold"`
	CloseThreshold float64              `yaml:"closeThreshold"`
	MinBarWidth    float64              `yaml:"minBarWidth"`
	UrgentAt       int                  `yaml:"urgentAt"`
	Colors         map[Tier]string      `yaml:"colors"`
}

// DefaultRules returns the stock difficulty table and feedback constants.
func DefaultRules() Rules {
	return Rules{
		Levels: map[Difficulty]Level{
			Easy:   {MaxRange: 50, TimeBudget: 45},
			Medium: {MaxRange: 100, TimeBudget: 60},
			Hard:   {MaxRange: 500, TimeBudget: 75},
		},
		NearThreshold:  0.10,
		CloseThreshold: 0.25,
		MinBarWidth:    5,
		UrgentAt:       10,
		Colors: map[Tier]string{
			TierNear:  "#ff4757",
			TierClose: "#ffa502",
			TierFar:   "#4f46e5",
		},
	}
}

// Level returns the configuration for d.
func (r Rules) Level(d Difficulty) (Level, bool) {
	lvl, ok := r.Levels[d]
	return lvl, ok
}

// Validate reports the first inconsistency in r.
func (r Rules) Validate() error {
	for _, d := range Difficulties {
		lvl, ok := r.Levels[d]
		if !ok {
			return fmt.Errorf("rules: missing level %q", d)
		}
		if lvl.MaxRange < 1 {
			return fmt.Errorf("rules: level %q max range must be at least 1, got %d", d, lvl.MaxRange)
		}
		if lvl.TimeBudget < 1 {
			return fmt.Errorf("rules: level %q time budget must be at least 1, got %d", d, lvl.TimeBudget)
		}
	}
	if r.NearThreshold <= 0 || r.NearThreshold >= r.CloseThreshold || r.CloseThreshold > 1 {
		return fmt.Errorf("rules: thresholds must satisfy 0 < near < close <= 1, got %v/%v", r.NearThreshold, r.CloseThreshold)
	}
	if r.MinBarWidth < 0 || r.MinBarWidth > 100 {
		return fmt.Errorf("rules: min bar width must be within [0,100], got %v", r.MinBarWidth)
	}
	if r.UrgentAt < 0 {
		return fmt.Errorf("rules: urgent threshold must not be negative, got %d", r.UrgentAt)
	}
	for _, tier := range []Tier{TierNear, TierClose, TierFar} {
		if r.Colors[tier] == "" {
			return fmt.Errorf("rules: missing color for tier %q", tier)
		}
	}
	return nil
}
