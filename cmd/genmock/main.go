// Command genmock writes synthetic observation CSVs for local development:
// a daily environment series with a seasonal temperature cycle and a small
// occurrence log concentrated in bloom-favourable summer water. Output is
// deterministic for a given seed.
//
// Usage:
//
//	go run ./cmd/genmock -out ./data -start-year 2001 -years 23 -seed 42
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

func main() {
	out := flag.String("out", ".", "output directory")
	startYear := flag.Int("start-year", 2001, "first year of the series")
	years := flag.Int("years", 23, "number of years to generate")
	seed := flag.Int64("seed", 42, "random seed")
	flag.Parse()

	if err := run(*out, *startYear, *years, *seed); err != nil {
		fmt.Fprintf(os.Stderr, "genmock: %v\n", err)
		os.Exit(1)
	}
}

func run(out string, startYear, years int, seed int64) error {
	if err := os.MkdirAll(out, 0o755); err != nil {
		return err
	}
	rng := rand.New(rand.NewSource(seed))

	envRows, occRows := generate(rng, startYear, years)

	if err := writeCSV(filepath.Join(out, "tongyeong_lite.csv"),
		[]string{"Date", "Temp", "Salt"}, envRows); err != nil {
		return err
	}
	if err := writeCSV(filepath.Join(out, "redtide_occurrences.csv"),
		[]string{"Date", "Temp", "Salt", "Density"}, occRows); err != nil {
		return err
	}

	fmt.Printf("wrote %d environment rows and %d occurrence rows to %s\n",
		len(envRows), len(occRows), out)
	return nil
}

// generate walks the calendar day by day. Temperature follows a sinusoid
// peaking in mid-August (day 227); salinity dips slightly in the rainy
// summer months. Bloom-favourable days occasionally produce an occurrence.
func generate(rng *rand.Rand, startYear, years int) (envRows, occRows [][]string) {
	start := time.Date(startYear, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(years, 0, 0)

	for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
		doy := float64(d.YearDay())
		temp := 14.5 + 9.5*math.Sin(2*math.Pi*(doy-105)/365) + rng.NormFloat64()*0.8
		salt := 33.2 - 1.2*math.Sin(2*math.Pi*(doy-160)/365) + rng.NormFloat64()*0.4

		envRows = append(envRows, []string{
			d.Format("2006-01-02"),
			strconv.FormatFloat(temp, 'f', 2, 64),
			strconv.FormatFloat(salt, 'f', 2, 64),
		})

		// Roughly a handful of occurrences per summer.
		if temp > 23 && temp < 29 && salt > 31 && salt < 34 && rng.Float64() < 0.03 {
			density := math.Exp(rng.NormFloat64()*1.2 + 6)
			occRows = append(occRows, []string{
				d.Format("2006-01-02"),
				strconv.FormatFloat(temp+rng.NormFloat64()*0.3, 'f', 2, 64),
				strconv.FormatFloat(salt+rng.NormFloat64()*0.2, 'f', 2, 64),
				strconv.FormatFloat(density, 'f', 0, 64),
			})
		}
	}
	return envRows, occRows
}

func writeCSV(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}
