// Package store loads the read-only observation datasets from disk and
// answers date queries over them. Files are located by probing an ordered
// list of candidate directories; the first parseable file wins. The load
// happens once per process, so a fresh process picks up file changes.
package store

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tidewatch/redtide/internal/domain"
	"github.com/tidewatch/redtide/internal/observability"
)

var (
	// ErrDataUnavailable means no candidate path yielded a parseable
	// environment dataset. Blocking: queries cannot proceed without it.
	ErrDataUnavailable = errors.New("environment dataset unavailable")

	// ErrNoMatchingRecords means a date or month/day query matched zero
	// rows. Non-fatal: the caller may retry with a different input.
	ErrNoMatchingRecords = errors.New("no matching records")
)

// dateLayouts are tried in order when parsing the Date column.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// DaySummary is the arithmetic mean over every record matching one query.
type DaySummary struct {
	MeanTemp float64 `json:"mean_temp"`
	MeanSalt float64 `json:"mean_salt"`
	Samples  int     `json:"samples"`
}

// Store owns both record collections. All fields behind loadOnce are
// written exactly once and treated as immutable afterwards.
type Store struct {
	paths   []string
	envFile string
	occFile string
	logger  *slog.Logger
	metrics *observability.Metrics

	loadOnce sync.Once
	loaded   atomic.Bool
	env      []domain.EnvironmentRecord
	occ      []domain.OccurrenceRecord
	envErr   error
}

// New creates a Store over the given probe directories and file names.
// Nothing is read until the first query or an explicit Warm call.
func New(paths []string, envFile, occFile string, logger *slog.Logger, metrics *observability.Metrics) *Store {
	return &Store{
		paths:   paths,
		envFile: envFile,
		occFile: occFile,
		logger:  logger,
		metrics: metrics,
	}
}

// Warm triggers the one-time dataset load and reports whether the
// environment dataset is usable.
func (s *Store) Warm() error {
	s.loadOnce.Do(s.load)
	return s.envErr
}

// Loaded reports whether the one-time load has completed, regardless of
// its outcome.
func (s *Store) Loaded() bool {
	return s.loaded.Load()
}

// Environment returns the cleaned, date-sorted environment records.
func (s *Store) Environment() ([]domain.EnvironmentRecord, error) {
	s.loadOnce.Do(s.load)
	if s.envErr != nil {
		return nil, s.envErr
	}
	return s.env, nil
}

// Occurrences returns the occurrence records, or nil when the file was not
// found. Occurrence data is optional; its absence only disables the density
// overlay.
func (s *Store) Occurrences() []domain.OccurrenceRecord {
	s.loadOnce.Do(s.load)
	return s.occ
}

// DateRange returns the earliest and latest environment record dates.
func (s *Store) DateRange() (time.Time, time.Time, error) {
	records, err := s.Environment()
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if len(records) == 0 {
		return time.Time{}, time.Time{}, ErrNoMatchingRecords
	}
	return records[0].Date, records[len(records)-1].Date, nil
}

// QueryByDate averages every record on the given calendar date. A single
// date may carry multiple intraday samples.
func (s *Store) QueryByDate(date time.Time) (DaySummary, error) {
	records, err := s.Environment()
	if err != nil {
		return DaySummary{}, err
	}

	y, m, d := date.Date()
	return summarize(records, func(r domain.EnvironmentRecord) bool {
		ry, rm, rd := r.Date.Date()
		return ry == y && rm == m && rd == d
	})
}

// QueryBySeasonalDate averages every record whose month and day match,
// across all years. This is the climatological ("normal year") estimate
// used for future dates.
func (s *Store) QueryBySeasonalDate(month time.Month, day int) (DaySummary, error) {
	records, err := s.Environment()
	if err != nil {
		return DaySummary{}, err
	}

	key := fmt.Sprintf("%02d-%02d", month, day)
	return summarize(records, func(r domain.EnvironmentRecord) bool {
		return r.MonthDay() == key
	})
}

func summarize(records []domain.EnvironmentRecord, match func(domain.EnvironmentRecord) bool) (DaySummary, error) {
	var sumT, sumS float64
	n := 0
	for _, r := range records {
		if match(r) {
			sumT += r.Temp
			sumS += r.Salt
			n++
		}
	}
	if n == 0 {
		return DaySummary{}, ErrNoMatchingRecords
	}
	return DaySummary{
		MeanTemp: sumT / float64(n),
		MeanSalt: sumS / float64(n),
		Samples:  n,
	}, nil
}

// load probes the candidate paths for both datasets. Individual path
// failures are logged causes, not control flow; only the final absence of
// the environment dataset is an error.
func (s *Store) load() {
	defer s.loaded.Store(true)

	env, envDropped, envPath := probe(s.paths, s.envFile, s.logger, readEnvironmentCSV)
	if envPath == "" {
		s.envErr = ErrDataUnavailable
		s.metrics.DataLoaded.WithLabelValues("environment").Set(0)
		s.logger.Error("no candidate path yielded the environment dataset",
			"file", s.envFile, "paths", s.paths)
	} else {
		sort.SliceStable(env, func(i, j int) bool { return env[i].Date.Before(env[j].Date) })
		s.env = env
		s.metrics.DataLoaded.WithLabelValues("environment").Set(1)
		s.metrics.RowsLoaded.WithLabelValues("environment").Set(float64(len(env)))
		s.metrics.RowsDropped.WithLabelValues("environment").Set(float64(envDropped))
		s.logger.Info("environment dataset loaded",
			"path", envPath, "rows", len(env), "dropped", envDropped)
	}

	occ, occDropped, occPath := probe(s.paths, s.occFile, s.logger, readOccurrenceCSV)
	if occPath == "" {
		s.metrics.DataLoaded.WithLabelValues("occurrence").Set(0)
		s.logger.Warn("occurrence dataset not found, density overlay disabled",
			"file", s.occFile, "paths", s.paths)
		return
	}
	s.occ = occ
	s.metrics.DataLoaded.WithLabelValues("occurrence").Set(1)
	s.metrics.RowsLoaded.WithLabelValues("occurrence").Set(float64(len(occ)))
	s.metrics.RowsDropped.WithLabelValues("occurrence").Set(float64(occDropped))
	s.logger.Info("occurrence dataset loaded",
		"path", occPath, "rows", len(occ), "dropped", occDropped)
}

// probe tries each candidate directory in order and returns the first
// successful parse, along with the winning path.
func probe[T any](paths []string, file string, logger *slog.Logger, read func(string) ([]T, int, error)) ([]T, int, string) {
	for _, dir := range paths {
		path := filepath.Join(dir, file)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		records, dropped, err := read(path)
		if err != nil {
			logger.Warn("candidate file unreadable, trying next path", "path", path, "error", err)
			continue
		}
		return records, dropped, path
	}
	return nil, 0, ""
}

// readEnvironmentCSV parses Date,Temp,Salt rows. Rows failing type coercion
// or the sensor bounds filter are dropped silently; only the aggregate count
// is reported.
func readEnvironmentCSV(path string) ([]domain.EnvironmentRecord, int, error) {
	rows, cols, err := readCSV(path, "Date", "Temp", "Salt")
	if err != nil {
		return nil, 0, err
	}

	var records []domain.EnvironmentRecord
	dropped := 0
	for _, row := range rows {
		date, errD := parseDate(row[cols["Date"]])
		temp, errT := strconv.ParseFloat(row[cols["Temp"]], 64)
		salt, errS := strconv.ParseFloat(row[cols["Salt"]], 64)
		if errD != nil || errT != nil || errS != nil {
			dropped++
			continue
		}
		rec := domain.EnvironmentRecord{Date: date, Temp: temp, Salt: salt}
		if !rec.WithinBounds() {
			dropped++
			continue
		}
		records = append(records, rec)
	}
	return records, dropped, nil
}

// readOccurrenceCSV parses Date,Temp,Salt,Density rows. Density is coerced
// leniently: unparsable or negative values become 0 ("bloom sighted, density
// unmeasured") rather than failing the row.
func readOccurrenceCSV(path string) ([]domain.OccurrenceRecord, int, error) {
	rows, cols, err := readCSV(path, "Date", "Temp", "Salt", "Density")
	if err != nil {
		return nil, 0, err
	}

	var records []domain.OccurrenceRecord
	dropped := 0
	for _, row := range rows {
		date, errD := parseDate(row[cols["Date"]])
		temp, errT := strconv.ParseFloat(row[cols["Temp"]], 64)
		salt, errS := strconv.ParseFloat(row[cols["Salt"]], 64)
		if errD != nil || errT != nil || errS != nil {
			dropped++
			continue
		}
		records = append(records, domain.OccurrenceRecord{
			Date:    date,
			Temp:    temp,
			Salt:    salt,
			Density: parseDensity(row[cols["Density"]]),
		})
	}
	return records, dropped, nil
}

// readCSV reads all data rows and resolves the required column indexes from
// the header. Rows shorter than the widest required column are returned
// as-is and dropped by the caller's coercion step.
func readCSV(path string, required ...string) ([][]string, map[string]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}

	cols := make(map[string]int, len(required))
	for i, name := range header {
		cols[name] = i
	}
	maxIdx := 0
	for _, name := range required {
		idx, ok := cols[name]
		if !ok {
			return nil, nil, fmt.Errorf("missing column %q", name)
		}
		if idx > maxIdx {
			maxIdx = idx
		}
	}

	var rows [][]string
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read row: %w", err)
		}
		if len(row) <= maxIdx {
			// Pad short rows so coercion sees empty fields and drops them.
			padded := make([]string, maxIdx+1)
			copy(padded, row)
			row = padded
		}
		rows = append(rows, row)
	}
	return rows, cols, nil
}

func parseDate(raw string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", raw)
}

// parseDensity coerces the density field, defaulting to 0 on unparsable or
// negative input rather than failing the whole load.
func parseDensity(raw string) float64 {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}
