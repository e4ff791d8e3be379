// Package domain models sea-surface observations from the Tongyeong tidal
// station and the rule-based red tide risk assessment computed over them.
//
// # Data Source
//
// Environment records come from the Tongyeong tidal station archive
// (2001-2023), exported as a flat CSV with one row per observation. A second,
// independent CSV logs confirmed red tide occurrences with measured algal
// cell densities. The two datasets are never joined by key; occurrences exist
// only to overlay the scatter distribution.
//
// # Sensor Conventions
//
// Temperature:
//
//	Sea-surface temperature in degrees Celsius. Values at or below 0 are
//	sensor errors (the station never freezes) and are dropped at load time.
//
// Salinity:
//
//	Practical salinity units (psu), a dimensionless measure. Open-water
//	values sit near 30-34 psu; readings outside (0, 45) are sensor faults
//	and are dropped at load time.
//
// Density:
//
//	Algal cells per mL in occurrence records. Historical logs frequently
//	leave the column blank or non-numeric; such values mean "bloom sighted,
//	density unmeasured" and are coerced to 0 rather than dropped.
//
// # Risk Scoring
//
// Assess sums two independent piecewise scores, one over temperature and one
// over salinity, then maps the total onto three tiers (Safe, Caution,
// Severe). Field surveys of Margalefidinium polykrikoides blooms in the
// region disagree on exact band edges, so the whole table lives in data: the
// embedded rules.yaml is the canonical default and can be replaced wholesale
// at runtime. See [Rules].
package domain
