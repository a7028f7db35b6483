package sampler

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/GoSim-25-26J-441/vertex-source/pkg/utils"
)

func TestBuildNormalisesTable(t *testing.T) {
	d, err := Build([]float64{1, 1, 2})
	require.NoError(t, err)
	require.Equal(t, 3, d.Len())
	require.InDelta(t, 4.0, d.Total(), 1e-12)

	cdf := d.CDF()
	require.InDeltaSlice(t, []float64{0.25, 0.5, 1}, cdf, 1e-12)
	require.InDelta(t, 0.5, d.Probability(2), 1e-12)
	require.Zero(t, d.Probability(3))

	// CDF hands out a copy.
	cdf[0] = 42
	require.InDelta(t, 0.25, d.CDF()[0], 1e-12)
}

func TestBuildRejectsDegenerateWeights(t *testing.T) {
	tests := []struct {
		name    string
		weights []float64
	}{
		{"empty", nil},
		{"all zero", []float64{0, 0, 0}},
		{"negative", []float64{1, -0.5, 2}},
		{"nan", []float64{1, math.NaN()}},
		{"inf", []float64{math.Inf(1), 1}},
		{"overflow", []float64{math.MaxFloat64, math.MaxFloat64}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := Build(tt.weights)
			require.ErrorIs(t, err, ErrInvalidDistribution)
			require.Nil(t, d)
		})
	}
}

func TestDrawBoundaries(t *testing.T) {
	d, err := Build([]float64{0, 3, 0, 1, 0, 0})
	require.NoError(t, err)

	require.Equal(t, 1, d.Draw(0))
	require.Equal(t, 1, d.Draw(0.74))
	require.Equal(t, 3, d.Draw(0.75))
	require.Equal(t, 3, d.Draw(math.Nextafter(1, 0)))
	require.Equal(t, 3, d.Draw(1))
	require.Equal(t, 3, d.Draw(7))
	require.Equal(t, 1, d.Draw(-0.1))
	require.Equal(t, 1, d.Draw(math.NaN()))
}

func TestDrawNearOneNeverOutOfRange(t *testing.T) {
	tables := [][]float64{
		{1},
		{1, 1e-300},
		{0.1, 0.2, 0.3, 0.4},
		{1e-9, 1e9, 0},
	}
	u := math.Nextafter(1, 0)
	for _, w := range tables {
		d, err := Build(w)
		require.NoError(t, err)
		for _, x := range []float64{u, 1 - 1e-12, 1 - 1e-15} {
			i := d.Draw(x)
			require.GreaterOrEqual(t, i, 0)
			require.Less(t, i, d.Len())
			require.Positive(t, w[i], "drew empty bin %d from %v", i, w)
		}
	}
}

func TestDrawReproducesWeights(t *testing.T) {
	weights := []float64{1, 2, 3, 4, 0, 10}
	d, err := Build(weights)
	require.NoError(t, err)

	const n = 20000
	rng := utils.NewRandSource(2024)
	counts := make([]float64, len(weights))
	for i := 0; i < n; i++ {
		counts[d.Draw(rng.Float64())]++
	}
	require.Zero(t, counts[4], "zero-weight bin must never be drawn")

	var obs, exp []float64
	for i, w := range weights {
		if w == 0 {
			continue
		}
		obs = append(obs, counts[i])
		exp = append(exp, n*d.Probability(i))
	}
	chi2 := stat.ChiSquare(obs, exp)
	pValue := 1 - distuv.ChiSquared{K: float64(len(obs) - 1)}.CDF(chi2)
	require.Greater(t, pValue, 1e-3, "chi2=%g counts=%v", chi2, counts)
}
