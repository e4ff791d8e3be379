// Package service implements the dashboard operations as explicit
// request/response handlers over the loaded datasets. Handlers take input
// parameters and return result structs; there is no ambient session state,
// and derived values (assessments, regression fits, similarity rankings)
// are recomputed per request.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tidewatch/redtide/internal/domain"
	"github.com/tidewatch/redtide/internal/observability"
	"github.com/tidewatch/redtide/internal/store"
)

// maxNeighbors caps the similar-days request size.
const maxNeighbors = 50

// Service wires the store, the scoring rules, and observability together.
type Service struct {
	store        *store.Store
	rules        domain.Rules
	logger       *slog.Logger
	metrics      *observability.Metrics
	scatterLimit int
}

// New creates a Service. scatterLimit caps the background points returned
// by Scatter.
func New(st *store.Store, rules domain.Rules, logger *slog.Logger, metrics *observability.Metrics, scatterLimit int) *Service {
	return &Service{
		store:        st,
		rules:        rules,
		logger:       logger,
		metrics:      metrics,
		scatterLimit: scatterLimit,
	}
}

// Rules returns the active scoring table.
func (s *Service) Rules() domain.Rules {
	return s.rules
}

// WarmUp triggers the one-time dataset load so readiness flips without
// waiting for the first query.
func (s *Service) WarmUp() error {
	return s.store.Warm()
}

// CheckReadiness returns nil once the environment dataset has loaded, or an
// error describing why the service cannot answer queries yet.
func (s *Service) CheckReadiness(_ context.Context) error {
	if !s.store.Loaded() {
		return errors.New("datasets have not been loaded yet")
	}
	if _, err := s.store.Environment(); err != nil {
		return err
	}
	return nil
}

// HistoryResult answers "what was the sea like, and how risky, on a past date".
type HistoryResult struct {
	Date       string            `json:"date"`
	MeanTemp   float64           `json:"mean_temp"`
	MeanSalt   float64           `json:"mean_salt"`
	Samples    int               `json:"samples"`
	Assessment domain.Assessment `json:"assessment"`
}

// History averages every observation on the given calendar date and
// classifies the result.
func (s *Service) History(date time.Time) (HistoryResult, error) {
	start := time.Now()
	summary, err := s.store.QueryByDate(date)
	if err != nil {
		s.observe("history", start, err)
		return HistoryResult{}, fmt.Errorf("history query: %w", err)
	}

	assessment := s.assess(summary.MeanTemp, summary.MeanSalt)
	s.observe("history", start, nil)

	return HistoryResult{
		Date:       date.Format("2006-01-02"),
		MeanTemp:   summary.MeanTemp,
		MeanSalt:   summary.MeanSalt,
		Samples:    summary.Samples,
		Assessment: assessment,
	}, nil
}

// ClimatologyResult is the "normal year" estimate for a month/day: the mean
// of historical values on that date across all years, used as a seasonal
// forecast proxy for future dates.
type ClimatologyResult struct {
	MonthDay   string            `json:"month_day"`
	MeanTemp   float64           `json:"mean_temp"`
	MeanSalt   float64           `json:"mean_salt"`
	Samples    int               `json:"samples"`
	Assessment domain.Assessment `json:"assessment"`
}

// Climatology averages all historical observations for the given month/day
// and classifies the climatological means.
func (s *Service) Climatology(month time.Month, day int) (ClimatologyResult, error) {
	start := time.Now()
	summary, err := s.store.QueryBySeasonalDate(month, day)
	if err != nil {
		s.observe("climatology", start, err)
		return ClimatologyResult{}, fmt.Errorf("climatology query: %w", err)
	}

	assessment := s.assess(summary.MeanTemp, summary.MeanSalt)
	s.observe("climatology", start, nil)

	return ClimatologyResult{
		MonthDay:   fmt.Sprintf("%02d-%02d", month, day),
		MeanTemp:   summary.MeanTemp,
		MeanSalt:   summary.MeanSalt,
		Samples:    summary.Samples,
		Assessment: assessment,
	}, nil
}

// PredictionResult carries the regression-based salinity estimate for a
// hypothetical temperature, its risk classification, and the most similar
// historical days.
type PredictionResult struct {
	Temp          float64            `json:"temp"`
	PredictedSalt float64            `json:"predicted_salt"`
	Model         domain.LinearModel `json:"model"`
	Assessment    domain.Assessment  `json:"assessment"`
	SimilarDays   []domain.Neighbor  `json:"similar_days"`
}

// PredictFromTemperature fits the salinity regression over the full dataset,
// predicts salinity at the input temperature, classifies the pair, and
// ranks the k most similar historical days. The fit is recomputed per
// request; only the underlying dataset load is memoized.
func (s *Service) PredictFromTemperature(temp float64, k int) (PredictionResult, error) {
	start := time.Now()
	if k <= 0 {
		k = 5
	}
	if k > maxNeighbors {
		k = maxNeighbors
	}

	records, err := s.store.Environment()
	if err != nil {
		s.observe("predict", start, err)
		return PredictionResult{}, fmt.Errorf("predict: %w", err)
	}

	model, err := domain.FitSalinityFromTemperature(records)
	if err != nil {
		s.observe("predict", start, err)
		return PredictionResult{}, fmt.Errorf("predict: %w", err)
	}

	predicted := model.Predict(temp)
	assessment := s.assess(temp, predicted)
	neighbors := domain.NearestByEuclidean(records, temp, predicted, k)
	s.observe("predict", start, nil)

	return PredictionResult{
		Temp:          temp,
		PredictedSalt: predicted,
		Model:         model,
		Assessment:    assessment,
		SimilarDays:   neighbors,
	}, nil
}

// ScatterPoint is one background observation in the scatter response.
type ScatterPoint struct {
	Temp float64 `json:"temp"`
	Salt float64 `json:"salt"`
}

// ScatterResult is everything a client needs to render the distribution:
// a sampled background cloud, the occurrence overlay with densities, and
// the bloom-favourable rectangle.
type ScatterResult struct {
	Environment  []ScatterPoint            `json:"environment"`
	Occurrences  []domain.OccurrenceRecord `json:"occurrences"`
	OptimalZone  domain.Zone               `json:"optimal_zone"`
	TotalRecords int                       `json:"total_records"`
}

// Scatter samples the environment records with a deterministic stride so
// responses are reproducible, caps them at the configured limit, and
// attaches the occurrence overlay when available.
func (s *Service) Scatter() (ScatterResult, error) {
	start := time.Now()
	records, err := s.store.Environment()
	if err != nil {
		s.observe("scatter", start, err)
		return ScatterResult{}, fmt.Errorf("scatter: %w", err)
	}

	points := samplePoints(records, s.scatterLimit)
	s.observe("scatter", start, nil)

	return ScatterResult{
		Environment:  points,
		Occurrences:  s.store.Occurrences(),
		OptimalZone:  s.rules.OptimalZone,
		TotalRecords: len(records),
	}, nil
}

// samplePoints strides over the date-sorted records to keep at most limit
// points spread across the whole time range.
func samplePoints(records []domain.EnvironmentRecord, limit int) []ScatterPoint {
	if limit <= 0 || len(records) == 0 {
		return nil
	}

	stride := 1
	if len(records) > limit {
		stride = (len(records) + limit - 1) / limit
	}

	points := make([]ScatterPoint, 0, (len(records)+stride-1)/stride)
	for i := 0; i < len(records); i += stride {
		points = append(points, ScatterPoint{Temp: records[i].Temp, Salt: records[i].Salt})
	}
	return points
}

func (s *Service) assess(temp, salt float64) domain.Assessment {
	assessment := domain.Assess(s.rules, temp, salt)
	s.metrics.Assessments.WithLabelValues(string(assessment.Tier)).Inc()
	return assessment
}

// observe records one query's outcome and duration.
func (s *Service) observe(operation string, start time.Time, err error) {
	outcome := "success"
	switch {
	case errors.Is(err, store.ErrNoMatchingRecords):
		outcome = "no_match"
	case errors.Is(err, store.ErrDataUnavailable):
		outcome = "unavailable"
	case err != nil:
		outcome = "error"
	}
	s.metrics.Queries.WithLabelValues(operation, outcome).Inc()
	s.metrics.QueryDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
