package lab

import (
	"errors"
	"math"
	"sort"
	"strings"
	"time"
)

// ErrInvalidLabValue is returned for NaN or infinite readings.
var ErrInvalidLabValue = errors.New("invalid lab value")

const (
	// trendMinAbsDelta is the smallest absolute change reported as a trend.
	trendMinAbsDelta = 0.5
	// trendMinRelDelta is the smallest change relative to the first reading.
	trendMinRelDelta = 0.07
)

// ReferenceRange bounds a marker's normal values. Either bound may be unknown.
type ReferenceRange struct {
	Low  *float64
	High *float64
}

// LabReading is a single value of a marker at a point in time.
type LabReading struct {
	MarkerCode string
	Value      float64
	TakenAt    time.Time
}

// NormalizeMarkerCode returns the canonical form of a marker code. An empty
// result means the marker is missing.
func NormalizeMarkerCode(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// ClassifyLabValue places value relative to rng. Bounds are inclusive-normal
// and LOW wins when the range is inverted.
func ClassifyLabValue(value float64, rng ReferenceRange) (LabStatus, error) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return "", ErrInvalidLabValue
	}
	if rng.Low != nil && value < *rng.Low {
		return StatusLow, nil
	}
	if rng.High != nil && value > *rng.High {
		return StatusHigh, nil
	}
	return StatusNormal, nil
}

// ComputeTrend compares the oldest and newest readings in series. The input
// slice is left untouched.
func ComputeTrend(series []LabReading) Trend {
	if len(series) < 2 {
		return TrendStable
	}

	sorted := make([]LabReading, len(series))
	copy(sorted, series)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].TakenAt.Before(sorted[j].TakenAt)
	})

	first := sorted[0].Value
	last := sorted[len(sorted)-1].Value
	delta := last - first
	absDelta := math.Abs(delta)

	rel := math.Inf(1)
	if first != 0 {
		rel = absDelta / math.Abs(first)
	}

	if absDelta < trendMinAbsDelta && rel < trendMinRelDelta {
		return TrendStable
	}
	switch {
	case delta > 0:
		return TrendUp
	case delta < 0:
		return TrendDown
	default:
		return TrendStable
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
