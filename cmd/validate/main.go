// Command validate performs integrity checks over a red tide data
// directory: it loads both CSVs the way the server would, reports kept and
// dropped row counts, probes the risk table at every band boundary, and
// replays the canonical severe scenario.
//
// Usage:
//
//	go run ./cmd/validate -data-dir ./data [-rules rules.yaml]
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/tidewatch/redtide/internal/domain"
	"github.com/tidewatch/redtide/internal/observability"
	"github.com/tidewatch/redtide/internal/store"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	dataDir := flag.String("data-dir", "", "directory containing the observation CSV files")
	envFile := flag.String("env-file", "tongyeong_lite.csv", "environment CSV file name")
	occFile := flag.String("occurrence-file", "redtide_occurrences.csv", "occurrence CSV file name")
	rulesFile := flag.String("rules", "", "optional risk rules YAML (defaults to the embedded table)")
	flag.Parse()

	if *dataDir == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*dataDir, *envFile, *occFile, *rulesFile); code != 0 {
		os.Exit(code)
	}
}

func run(dataDir, envFile, occFile, rulesFile string) int {
	rules := domain.DefaultRules()
	if rulesFile != "" {
		var err error
		rules, err = domain.LoadRules(rulesFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: load rules: %v\n", err)
			return 1
		}
	}

	fmt.Println("=== Red Tide Data Integrity Validation ===")
	fmt.Println()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	st := store.New([]string{dataDir}, envFile, occFile, logger, observability.NewMetricsForTesting())

	phases := []*phase{
		validateEnvironment(st),
		validateOccurrences(st),
		validateRuleBoundaries(rules),
		validateSevereScenario(rules),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

func validateEnvironment(st *store.Store) *phase {
	p := &phase{name: "environment dataset"}

	records, err := st.Environment()
	if err != nil {
		p.errorf("load: %v", err)
		return p
	}
	if len(records) == 0 {
		p.errorf("dataset is empty after filtering")
		return p
	}

	for i, r := range records {
		if !r.WithinBounds() {
			p.errorf("row %d escaped the bounds filter: temp=%g salt=%g", i, r.Temp, r.Salt)
		}
		if i > 0 && r.Date.Before(records[i-1].Date) {
			p.errorf("row %d breaks date ordering", i)
		}
	}

	minDate, maxDate, err := st.DateRange()
	if err == nil {
		fmt.Printf("environment: %d rows, %s to %s\n",
			len(records), minDate.Format("2006-01-02"), maxDate.Format("2006-01-02"))
	}
	return p
}

func validateOccurrences(st *store.Store) *phase {
	p := &phase{name: "occurrence dataset"}

	occ := st.Occurrences()
	if occ == nil {
		fmt.Println("occurrences: not found (overlay disabled, not an error)")
		return p
	}
	for i, o := range occ {
		if o.Density < 0 {
			p.errorf("row %d has negative density %g", i, o.Density)
		}
	}
	fmt.Printf("occurrences: %d rows\n", len(occ))
	return p
}

// validateRuleBoundaries probes the scoring table at each stated cutoff and
// just beside it, confirming every probe classifies into exactly one tier.
func validateRuleBoundaries(rules domain.Rules) *phase {
	p := &phase{name: "rule table boundary coverage"}

	var probes []float64
	t := rules.Temperature
	for _, cut := range append([]float64{t.LowCutoff, t.GrowthMin, t.GrowthMax}, t.OptimalPoints...) {
		probes = append(probes, cut-0.01, cut, cut+0.01)
	}

	valid := map[domain.Tier]bool{domain.TierSafe: true, domain.TierCaution: true, domain.TierSevere: true}
	for _, temp := range probes {
		for _, salt := range []float64{rules.Salinity.LowCutoff, rules.Salinity.OptimalMin, rules.Salinity.OptimalMax, 40} {
			a := domain.Assess(rules, temp, salt)
			if !valid[a.Tier] {
				p.errorf("temp=%g salt=%g produced unknown tier %q", temp, salt, a.Tier)
			}
			if len(a.Reasons) == 0 {
				p.errorf("temp=%g salt=%g produced no reasons", temp, salt)
			}
		}
	}
	return p
}

// validateSevereScenario replays the reference case: optimal temperature
// and optimal salinity must combine to a Severe classification.
func validateSevereScenario(rules domain.Rules) *phase {
	p := &phase{name: "canonical severe scenario"}

	a := domain.Assess(rules, 25, 33)
	if a.Tier != domain.TierSevere {
		p.errorf("temp=25 salt=33 classified %q (score %d), want severe", a.Tier, a.Score)
	}
	if a.AssessedAt.After(time.Now().Add(time.Minute)) {
		p.errorf("assessment timestamp is in the future: %s", a.AssessedAt)
	}
	return p
}
