package domain

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRules(t *testing.T) {
	rules := DefaultRules()

	assert.Equal(t, []float64{20, 25, 27.5}, rules.Temperature.OptimalPoints)
	assert.Equal(t, 70, rules.Temperature.OptimalScore)
	assert.Equal(t, 60, rules.Salinity.OptimalScore)
	assert.Equal(t, 90, rules.Thresholds.Severe)
	assert.Equal(t, 50, rules.Thresholds.Caution)
	require.NoError(t, rules.Validate())
}

func TestTemperatureBands(t *testing.T) {
	rules := DefaultRules()

	// Every cutoff and its neighborhood must land in exactly one band.
	tests := []struct {
		name  string
		temp  float64
		score int
	}{
		{"far below low cutoff", -5, -30},
		{"exactly at low cutoff", 15, -30},
		{"just above low cutoff", 15.1, -20},
		{"gap between low and optimal", 18, -20},
		{"first optimal point", 20, 70},
		{"within optimal tolerance", 20.04, 70},
		{"outside optimal tolerance", 20.1, -20},
		{"growth band lower edge", 21, 60},
		{"mid growth band", 24.9, 60},
		{"second optimal point", 25, 70},
		{"between optimal and growth", 25.2, 60},
		{"third optimal point", 27.5, 70},
		{"growth band upper edge", 30, 60},
		{"just above growth band", 30.1, 30},
		{"well above growth band", 35, 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, reason := rules.Temperature.score(tt.temp)
			assert.Equal(t, tt.score, score)
			assert.NotEmpty(t, reason)
		})
	}
}

func TestSalinityBands(t *testing.T) {
	rules := DefaultRules()

	tests := []struct {
		name  string
		salt  float64
		score int
	}{
		{"exactly at low cutoff", 20, -30},
		{"brackish", 10, -30},
		{"just above low cutoff", 20.1, -20},
		{"below optimal band", 30.9, -20},
		{"optimal band lower edge", 31, 60},
		{"mid optimal band", 33, 60},
		{"optimal band upper edge", 34, 60},
		{"above optimal band", 34.1, -20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, reason := rules.Salinity.score(tt.salt)
			assert.Equal(t, tt.score, score)
			assert.NotEmpty(t, reason)
		})
	}
}

func TestAssess(t *testing.T) {
	rules := DefaultRules()
	frozen := time.Date(2023, 8, 15, 12, 0, 0, 0, time.UTC)
	SetClock(clockwork.NewFakeClockAt(frozen))
	defer SetClock(nil)

	t.Run("optimal temperature and salinity is severe", func(t *testing.T) {
		a := Assess(rules, 25, 33)

		assert.Equal(t, TierSevere, a.Tier)
		assert.Equal(t, 130, a.Score)
		assert.Equal(t, frozen, a.AssessedAt)
	})

	t.Run("growth temperature with poor salinity is caution", func(t *testing.T) {
		a := Assess(rules, 25, 35) // 70 - 20 = 50, at the caution threshold

		assert.Equal(t, TierCaution, a.Tier)
		assert.Equal(t, 50, a.Score)
	})

	t.Run("cold brackish water is safe", func(t *testing.T) {
		a := Assess(rules, 10, 10)

		assert.Equal(t, TierSafe, a.Tier)
		assert.Equal(t, -60, a.Score)
	})

	t.Run("reasons are non-empty and temperature-first", func(t *testing.T) {
		a := Assess(rules, 25, 33)

		require.Len(t, a.Reasons, 2)
		assert.Contains(t, a.Reasons[0], "temperature")
		assert.Contains(t, a.Reasons[1], "salinity")
	})

	t.Run("deterministic", func(t *testing.T) {
		first := Assess(rules, 23.7, 31.9)
		second := Assess(rules, 23.7, 31.9)

		assert.Equal(t, first, second)
	})
}

func TestAssessEveryInputYieldsOneTier(t *testing.T) {
	rules := DefaultRules()
	valid := map[Tier]bool{TierSafe: true, TierCaution: true, TierSevere: true}

	// Sweep a coarse grid including band edges; each point must classify.
	for temp := -10.0; temp <= 40; temp += 0.5 {
		for salt := 0.0; salt <= 45; salt += 1.5 {
			a := Assess(rules, temp, salt)
			require.True(t, valid[a.Tier], "temp=%g salt=%g yielded tier %q", temp, salt, a.Tier)
			require.NotEmpty(t, a.Reasons)
		}
	}
}

func TestParseRules(t *testing.T) {
	t.Run("override table", func(t *testing.T) {
		raw := []byte(`
temperature:
  optimal_points: [22.0]
  optimal_tolerance: 0.1
  optimal_score: 80
  growth_min: 23.0
  growth_max: 29.0
  growth_score: 50
  high_score: 10
  low_cutoff: 12.0
  low_score: -40
  fallback_score: -10
salinity:
  optimal_min: 33.0
  optimal_max: 35.0
  optimal_score: 50
  low_cutoff: 18.0
  low_score: -40
  fallback_score: -10
thresholds:
  severe: 85
  caution: 40
`)
		rules, err := ParseRules(raw)
		require.NoError(t, err)

		a := Assess(rules, 22, 34)
		assert.Equal(t, TierSevere, a.Tier)
		assert.Equal(t, 130, a.Score)
	})

	t.Run("inverted thresholds rejected", func(t *testing.T) {
		rules := DefaultRules()
		rules.Thresholds = Thresholds{Severe: 40, Caution: 85}

		err := rules.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "severe")
	})

	t.Run("low cutoff overlapping growth band rejected", func(t *testing.T) {
		rules := DefaultRules()
		rules.Temperature.LowCutoff = 25

		err := rules.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "low_cutoff")
	})

	t.Run("optimal point inside low band rejected", func(t *testing.T) {
		rules := DefaultRules()
		rules.Temperature.OptimalPoints = []float64{10}

		err := rules.Validate()
		require.Error(t, err)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		_, err := ParseRules([]byte("temperature: ["))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parse rules")
	})
}

func TestLoadRules_MissingFile(t *testing.T) {
	_, err := LoadRules("/nonexistent/rules.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read rules file")
}
