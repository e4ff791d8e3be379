package domain

import "time"

// EnvironmentRecord is one sea-surface observation from the tidal station.
// A calendar date may carry several intraday samples.
type EnvironmentRecord struct {
	Date time.Time `json:"date"`
	Temp float64   `json:"temp"` // sea-surface temperature, °C
	Salt float64   `json:"salt"` // salinity, psu
}

// WithinBounds reports whether the observation passes the load-time sensor
// sanity filter: Temp > 0 and 0 < Salt < 45. Rows outside these bounds are
// instrument faults, not domain signal.
func (r EnvironmentRecord) WithinBounds() bool {
	return r.Temp > 0 && r.Salt > 0 && r.Salt < 45
}

// MonthDay returns the "MM-DD" key used to group records across years for
// climatological averaging.
func (r EnvironmentRecord) MonthDay() string {
	return r.Date.Format("01-02")
}

// OccurrenceRecord is a logged red tide event with a measured cell density.
// Density is 0 when the historical log left it unmeasured.
type OccurrenceRecord struct {
	Date    time.Time `json:"date"`
	Temp    float64   `json:"temp"`
	Salt    float64   `json:"salt"`
	Density float64   `json:"density"` // algal cells per mL
}
