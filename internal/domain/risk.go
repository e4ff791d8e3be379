package domain

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Tier is the classifier's output category.
type Tier string

const (
	TierSafe    Tier = "safe"
	TierCaution Tier = "caution"
	TierSevere  Tier = "severe"
)

// Assessment is the result of one risk classification. It is computed fresh
// per query and never persisted.
type Assessment struct {
	Tier       Tier      `json:"tier"`
	Score      int       `json:"score"`
	Reasons    []string  `json:"reasons"`
	AssessedAt time.Time `json:"assessed_at"`
}

// TemperatureRules scores a temperature reading. Bands are evaluated in a
// fixed order: low cutoff, optimal points, growth band, high band, fallback.
// Inclusive bounds mean GrowthMax itself lands in the growth band, not high.
type TemperatureRules struct {
	OptimalPoints    []float64 `yaml:"optimal_points"`
	OptimalTolerance float64   `yaml:"optimal_tolerance"`
	OptimalScore     int       `yaml:"optimal_score"`
	GrowthMin        float64   `yaml:"growth_min"`
	GrowthMax        float64   `yaml:"growth_max"`
	GrowthScore      int       `yaml:"growth_score"`
	HighScore        int       `yaml:"high_score"` // above GrowthMax
	LowCutoff        float64   `yaml:"low_cutoff"` // at or below: LowScore
	LowScore         int       `yaml:"low_score"`
	FallbackScore    int       `yaml:"fallback_score"`
}

// SalinityRules scores a salinity reading.
type SalinityRules struct {
	OptimalMin    float64 `yaml:"optimal_min"`
	OptimalMax    float64 `yaml:"optimal_max"`
	OptimalScore  int     `yaml:"optimal_score"`
	LowCutoff     float64 `yaml:"low_cutoff"` // at or below: LowScore
	LowScore      int     `yaml:"low_score"`
	FallbackScore int     `yaml:"fallback_score"`
}

// Thresholds map the summed score onto tiers: score >= Severe is Severe,
// score >= Caution is Caution, anything below is Safe.
type Thresholds struct {
	Severe  int `yaml:"severe"`
	Caution int `yaml:"caution"`
}

// Zone is the bloom-favourable rectangle drawn over the scatter distribution.
type Zone struct {
	TempMin float64 `yaml:"temp_min" json:"temp_min"`
	TempMax float64 `yaml:"temp_max" json:"temp_max"`
	SaltMin float64 `yaml:"salt_min" json:"salt_min"`
	SaltMax float64 `yaml:"salt_max" json:"salt_max"`
}

// Rules is the complete scoring table. Field surveys disagree on exact band
// edges, so every number is data: the embedded rules.yaml is the canonical
// default and RISK_RULES_FILE can replace it without a code change.
type Rules struct {
	Temperature TemperatureRules `yaml:"temperature"`
	Salinity    SalinityRules    `yaml:"salinity"`
	Thresholds  Thresholds       `yaml:"thresholds"`
	OptimalZone Zone             `yaml:"optimal_zone"`
}

//go:embed rules.yaml
var defaultRulesYAML []byte

// DefaultRules returns the embedded canonical scoring table.
func DefaultRules() Rules {
	rules, err := ParseRules(defaultRulesYAML)
	if err != nil {
		panic("domain: embedded rules.yaml is invalid: " + err.Error())
	}
	return rules
}

// LoadRules reads and validates a scoring table from a YAML file.
func LoadRules(path string) (Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, fmt.Errorf("read rules file: %w", err)
	}
	return ParseRules(data)
}

// ParseRules unmarshals and validates a YAML scoring table.
func ParseRules(data []byte) (Rules, error) {
	var rules Rules
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return Rules{}, fmt.Errorf("parse rules: %w", err)
	}
	if err := rules.Validate(); err != nil {
		return Rules{}, fmt.Errorf("validate rules: %w", err)
	}
	return rules, nil
}

// Validate rejects tables whose bands cannot cover the real line exactly
// once under ordered evaluation, and tables with inverted thresholds.
func (r Rules) Validate() error {
	t := r.Temperature
	if len(t.OptimalPoints) == 0 {
		return errors.New("temperature: at least one optimal point required")
	}
	if t.OptimalTolerance < 0 {
		return errors.New("temperature: optimal_tolerance must be non-negative")
	}
	if t.GrowthMin > t.GrowthMax {
		return errors.New("temperature: growth_min exceeds growth_max")
	}
	if t.LowCutoff >= t.GrowthMin {
		return errors.New("temperature: low_cutoff overlaps the growth band")
	}
	for _, p := range t.OptimalPoints {
		if p-t.OptimalTolerance <= t.LowCutoff {
			return fmt.Errorf("temperature: optimal point %g overlaps the low band", p)
		}
	}

	s := r.Salinity
	if s.OptimalMin > s.OptimalMax {
		return errors.New("salinity: optimal_min exceeds optimal_max")
	}
	if s.LowCutoff >= s.OptimalMin {
		return errors.New("salinity: low_cutoff overlaps the optimal band")
	}

	if r.Thresholds.Severe <= r.Thresholds.Caution {
		return errors.New("thresholds: severe must exceed caution")
	}
	return nil
}

// Assess classifies one (temperature, salinity) pair. It is deterministic
// and pure apart from the assessment timestamp; reasons are returned in
// evaluation order, temperature before salinity, and are never empty.
func Assess(rules Rules, temp, salt float64) Assessment {
	tempScore, tempReason := rules.Temperature.score(temp)
	saltScore, saltReason := rules.Salinity.score(salt)

	score := tempScore + saltScore

	var tier Tier
	switch {
	case score >= rules.Thresholds.Severe:
		tier = TierSevere
	case score >= rules.Thresholds.Caution:
		tier = TierCaution
	default:
		tier = TierSafe
	}

	return Assessment{
		Tier:       tier,
		Score:      score,
		Reasons:    []string{tempReason, saltReason},
		AssessedAt: clock.Now(),
	}
}

func (t TemperatureRules) score(temp float64) (int, string) {
	for _, p := range t.OptimalPoints {
		if temp >= p-t.OptimalTolerance && temp <= p+t.OptimalTolerance {
			return t.OptimalScore, fmt.Sprintf(
				"optimal temperature (%s °C): ideal for bloom growth", formatPoints(t.OptimalPoints))
		}
	}
	switch {
	case temp <= t.LowCutoff:
		return t.LowScore, fmt.Sprintf(
			"low temperature (%g °C and below) suppresses growth", t.LowCutoff)
	case temp >= t.GrowthMin && temp <= t.GrowthMax:
		return t.GrowthScore, fmt.Sprintf(
			"good growth temperature (%g-%g °C)", t.GrowthMin, t.GrowthMax)
	case temp > t.GrowthMax:
		return t.HighScore, fmt.Sprintf(
			"high temperature (above %g °C) suppresses growth", t.GrowthMax)
	default:
		return t.FallbackScore, "temperature outside the optimal range"
	}
}

func (s SalinityRules) score(salt float64) (int, string) {
	switch {
	case salt >= s.OptimalMin && salt <= s.OptimalMax:
		return s.OptimalScore, fmt.Sprintf(
			"optimal salinity (%g-%g psu): ideal for bloom growth", s.OptimalMin, s.OptimalMax)
	case salt <= s.LowCutoff:
		return s.LowScore, fmt.Sprintf(
			"salinity too low (%g psu and below), growth especially suppressed", s.LowCutoff)
	default:
		return s.FallbackScore, "salinity outside the optimal range"
	}
}

func formatPoints(points []float64) string {
	parts := make([]string, len(points))
	for i, p := range points {
		parts[i] = fmt.Sprintf("%g", p)
	}
	return strings.Join(parts, ", ")
}
