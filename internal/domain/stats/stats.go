// Package stats derives the relative and absolute time differences of a track.
package stats

import (
	"errors"
	"math"

	"github.com/okian/atdiff/internal/domain/model"
)

// ErrZeroAuthorTime is returned when the baseline is zero and percentages are undefined.
var ErrZeroAuthorTime = errors.New("author time is zero")

// Compute derives the four metrics of t. Percentages are
// 100 * (author - observed) / author rounded to two decimals; deltas are exact.
func Compute(t model.Times) (model.Metrics, error) {
	if t.AuthorMS == 0 {
		return model.Metrics{}, ErrZeroAuthorTime
	}
	topDelta := t.AuthorMS - t.TopMS
	tenKDelta := t.AuthorMS - t.TenKMS
	return model.Metrics{
		TopPercent:  Percent(topDelta, t.AuthorMS),
		TenKPercent: Percent(tenKDelta, t.AuthorMS),
		TopDeltaMS:  topDelta,
		TenKDeltaMS: tenKDelta,
	}, nil
}

// Percent returns 100*delta/base rounded to two decimals. base must not be zero.
func Percent(delta, base int64) float64 {
	return Round2(100 * float64(delta) / float64(base))
}

// Round2 rounds half away from zero to two decimals.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Build computes the metrics of track and returns the exported record.
func Build(track model.Track) (model.Record, error) {
	m, err := Compute(track.Times)
	if err != nil {
		return model.Record{}, err
	}
	return model.Record{Track: track, Metrics: m}, nil
}
