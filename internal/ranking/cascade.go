// Package ranking tiers normalised results into staged disclosure bands.
package ranking

import (
	"math"
	"sort"

	"github.com/custodia-labs/handover-core/internal/core/domain"
)

const bandCount = 3

// Config tunes the cascader.
type Config struct {
	// NoiseFloor sinks bands whose best result is below it to the lowest
	// free band. Zero disables sinking.
	NoiseFloor float64
}

// DefaultConfig returns the production cascader configuration.
func DefaultConfig() Config {
	return Config{NoiseFloor: domain.DefaultScoringSettings().NoiseFloor}
}

// Cascader sorts results by confidence and slices them into rank bands.
type Cascader struct {
	cfg Config
}

// NewCascader creates a Cascader.
func NewCascader(cfg Config) *Cascader {
	return &Cascader{cfg: cfg}
}

// Cascade tiers results with the default configuration.
func Cascade(results []domain.Result) domain.ResultSet {
	return NewCascader(DefaultConfig()).Cascade(results)
}

// Cascade sorts results by confidence, highest first, keeping the input
// order between equal scores, and slices the ranking into primary,
// secondary and tertiary bands of up to five. Results past the fifteenth
// are only counted. The input slice is not modified.
func (c *Cascader) Cascade(results []domain.Result) domain.ResultSet {
	rs := domain.NewResultSet()
	if len(results) == 0 {
		return rs
	}

	ranked := make([]domain.Result, len(results))
	copy(ranked, results)
	sort.SliceStable(ranked, func(i, j int) bool {
		return score(ranked[i]) > score(ranked[j])
	})

	caps := [bandCount]int{domain.PrimaryCap, domain.SecondaryCap, domain.TertiaryCap}
	var bands [bandCount][]domain.Result
	offset := 0
	for i, limit := range caps {
		end := min(offset+limit, len(ranked))
		bands[i] = ranked[offset:end:end]
		offset = end
	}

	bands = c.sinkNoise(bands)

	rs.Primary = nonNil(bands[0])
	rs.Secondary = nonNil(bands[1])
	rs.Tertiary = nonNil(bands[2])

	shown := len(rs.Primary) + len(rs.Secondary) + len(rs.Tertiary)
	rs.Hidden.Count = len(ranked) - shown
	rs.Summary = domain.ResultSummary{
		Found:           len(ranked),
		Shown:           shown,
		Hidden:          rs.Hidden.Count,
		QueryConfidence: score(ranked[0]),
	}
	return rs
}

// sinkNoise moves trailing bands whose best result is below the noise floor
// to the bottom band slots, preserving their relative order. Because the
// ranking is sorted, once one band is noise every later band is too.
func (c *Cascader) sinkNoise(bands [bandCount][]domain.Result) [bandCount][]domain.Result {
	if c.cfg.NoiseFloor <= 0 {
		return bands
	}

	filled := 0
	for filled < bandCount && len(bands[filled]) > 0 {
		filled++
	}

	firstNoise := filled
	for i := 0; i < filled; i++ {
		if score(bands[i][0]) < c.cfg.NoiseFloor {
			firstNoise = i
			break
		}
	}

	noise := filled - firstNoise
	if noise == 0 {
		return bands
	}

	var sunk [bandCount][]domain.Result
	copy(sunk[:firstNoise], bands[:firstNoise])
	copy(sunk[bandCount-noise:], bands[firstNoise:filled])
	return sunk
}

// score returns the sortable confidence of a result; NaN sorts as zero.
func score(r domain.Result) float64 {
	if math.IsNaN(r.Confidence) {
		return 0
	}
	return r.Confidence
}

func nonNil(band []domain.Result) []domain.Result {
	if band == nil {
		return []domain.Result{}
	}
	return band
}
