package sampler

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// ErrInvalidDistribution is returned by Build for empty, negative, non-finite
// or all-zero weight sets.
var ErrInvalidDistribution = errors.New("sampler: invalid distribution")

// Discrete is a normalised cumulative table. It is immutable after Build and
// safe for concurrent use.
type Discrete struct {
	cdf   []float64
	total float64
	first int // first bin with non-zero weight
	last  int // last bin with non-zero weight
}

// Build normalises weights into C[i] = sum(weights[0..i]) / total.
func Build(weights []float64) (*Discrete, error) {
	if len(weights) == 0 {
		return nil, fmt.Errorf("%w: no weights", ErrInvalidDistribution)
	}
	first, last := -1, -1
	for i, w := range weights {
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return nil, fmt.Errorf("%w: weight %d is not finite", ErrInvalidDistribution, i)
		}
		if w < 0 {
			return nil, fmt.Errorf("%w: weight %d is negative (%g)", ErrInvalidDistribution, i, w)
		}
		if w > 0 {
			if first < 0 {
				first = i
			}
			last = i
		}
	}
	if last < 0 {
		return nil, fmt.Errorf("%w: all %d weights are zero", ErrInvalidDistribution, len(weights))
	}

	cdf := floats.CumSum(make([]float64, len(weights)), weights)
	total := cdf[len(cdf)-1]
	if math.IsInf(total, 0) {
		return nil, fmt.Errorf("%w: weight total overflows", ErrInvalidDistribution)
	}
	floats.Scale(1/total, cdf)
	// Rounding can leave the tail a hair under 1; pin everything from the
	// last non-zero bin on so trailing empty bins stay unreachable.
	for i := last; i < len(cdf); i++ {
		cdf[i] = 1
	}

	return &Discrete{
		cdf:   cdf,
		total: total,
		first: first,
		last:  last,
	}, nil
}

// Draw returns the smallest i with u < C[i]. u is expected in [0, 1); values
// outside that range (including NaN) are clamped to the first or last
// non-zero bin.
func (d *Discrete) Draw(u float64) int {
	if !(u >= 0) {
		return d.first
	}
	i := sort.Search(len(d.cdf), func(i int) bool { return u < d.cdf[i] })
	if i > d.last {
		return d.last
	}
	return i
}

// Len returns the number of bins.
func (d *Discrete) Len() int {
	return len(d.cdf)
}

// Probability returns the normalised weight of bin i.
func (d *Discrete) Probability(i int) float64 {
	if i < 0 || i >= len(d.cdf) {
		return 0
	}
	if i == 0 {
		return d.cdf[0]
	}
	return d.cdf[i] - d.cdf[i-1]
}

// Total returns the raw, un-normalised weight sum.
func (d *Discrete) Total() float64 {
	return d.total
}

// CDF returns a copy of the cumulative table.
func (d *Discrete) CDF() []float64 {
	out := make([]float64, len(d.cdf))
	copy(out, d.cdf)
	return out
}
