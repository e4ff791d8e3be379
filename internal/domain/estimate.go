package domain

import (
	"errors"
	"fmt"
	"sort"
)

// ErrNotEnoughData is returned when a model cannot be fit over the dataset.
var ErrNotEnoughData = errors.New("not enough records to fit a model")

// LinearModel is an ordinary least squares line predicting salinity from
// temperature. No train/test split, no regularization: the fit exists to
// give a plausible salinity for a hypothetical temperature, not to forecast.
type LinearModel struct {
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
}

// Predict evaluates the fitted line at the given temperature.
func (m LinearModel) Predict(temp float64) float64 {
	return m.Slope*temp + m.Intercept
}

// FitSalinityFromTemperature fits an OLS line over every record, temperature
// as the sole predictor and salinity as the response. It fails on fewer than
// two records or a dataset with zero temperature variance, where the slope
// is undefined.
func FitSalinityFromTemperature(records []EnvironmentRecord) (LinearModel, error) {
	n := float64(len(records))
	if len(records) < 2 {
		return LinearModel{}, fmt.Errorf("fit salinity model: %w", ErrNotEnoughData)
	}

	var sumT, sumS float64
	for _, r := range records {
		sumT += r.Temp
		sumS += r.Salt
	}
	meanT := sumT / n
	meanS := sumS / n

	var covTS, varT float64
	for _, r := range records {
		dt := r.Temp - meanT
		covTS += dt * (r.Salt - meanS)
		varT += dt * dt
	}
	if varT == 0 {
		return LinearModel{}, errors.New("fit salinity model: temperature has zero variance")
	}

	slope := covTS / varT
	return LinearModel{Slope: slope, Intercept: meanS - slope*meanT}, nil
}

// Neighbor pairs a historical record with its squared Euclidean distance to
// the query point in (temperature, salinity) space. Distances are squared
// and unnormalized, matching the station's historical similarity reports;
// the two axes have different natural scales, a known weakness.
type Neighbor struct {
	Record   EnvironmentRecord `json:"record"`
	Distance float64           `json:"distance"`
}

// NearestByEuclidean returns the k records closest to (temp, salt) in
// ascending distance order. Ties break on the earlier date. k larger than
// the dataset returns every record.
func NearestByEuclidean(records []EnvironmentRecord, temp, salt float64, k int) []Neighbor {
	if k <= 0 || len(records) == 0 {
		return nil
	}

	neighbors := make([]Neighbor, len(records))
	for i, r := range records {
		dt := r.Temp - temp
		ds := r.Salt - salt
		neighbors[i] = Neighbor{Record: r, Distance: dt*dt + ds*ds}
	}

	sort.SliceStable(neighbors, func(i, j int) bool {
		if neighbors[i].Distance != neighbors[j].Distance {
			return neighbors[i].Distance < neighbors[j].Distance
		}
		return neighbors[i].Record.Date.Before(neighbors[j].Record.Date)
	})

	if k > len(neighbors) {
		k = len(neighbors)
	}
	return neighbors[:k]
}
