package chain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculator_CallPutRatio(t *testing.T) {
	calc := NewCalculator(DefaultConfig())

	result := calc.Compute(balancedChain(310, 190))

	assert.Equal(t, 500, result.TotalContracts)
	assert.Equal(t, 310, result.Calls)
	assert.Equal(t, 190, result.Puts)
	assert.InDelta(t, 1.63, result.CallPutRatio, 0.005)
	assert.False(t, result.RatioUnbounded)
}

func TestCalculator_ZeroPutsSentinel(t *testing.T) {
	calc := NewCalculator(DefaultConfig())

	result := calc.Compute(newSnapshot(
		call(100, 50),
		call(105, 30),
		call(110, 20),
	))

	assert.True(t, result.RatioUnbounded)
	assert.Zero(t, result.CallPutRatio)
	assert.Equal(t, 3, result.Calls)
	assert.Equal(t, 0, result.Puts)
}

func TestCalculator_StrikeStats(t *testing.T) {
	calc := NewCalculator(DefaultConfig())

	// 100 appears three times, 105 three times: mode tie breaks to the
	// lowest strike
	result := calc.Compute(newSnapshot(
		call(100, 10), call(100, 10), put(100, 10),
		call(105, 10), call(105, 10), put(105, 10),
		call(110, 10),
		put(95, 10),
	))

	assert.Equal(t, 4, result.DistinctStrikes)
	assert.Equal(t, 95.0, result.StrikeMin)
	assert.Equal(t, 110.0, result.StrikeMax)
	assert.InDelta(t, 102.5, result.StrikeMedian, 1e-9)
	assert.Equal(t, 100.0, result.StrikeMode)
}

func TestCalculator_Skew(t *testing.T) {
	calc := NewCalculator(DefaultConfig())

	t.Run("both sides present", func(t *testing.T) {
		result := calc.Compute(newSnapshot(
			call(110, 10), call(120, 10),
			put(90, 10), put(100, 10),
		))

		// call median 115, put median 95
		assert.InDelta(t, 20.0, result.Skew, 1e-9)
		assert.InDelta(t, 115.0, result.CallStrikeMedian, 1e-9)
		assert.InDelta(t, 95.0, result.PutStrikeMedian, 1e-9)
	})

	t.Run("one side missing leaves skew unset", func(t *testing.T) {
		result := calc.Compute(newSnapshot(call(110, 10), call(120, 10)))
		assert.Zero(t, result.Skew)
	})
}

func TestCalculator_Concentration(t *testing.T) {
	calc := NewCalculator(DefaultConfig())

	// top five strikes carry 400 each, bottom five 100 each:
	// top-5 share = 2000/2500 = 0.8
	snap := newSnapshot(
		call(100, 400), call(101, 400), call(102, 400), call(103, 400), call(104, 400),
		put(95, 100), put(96, 100), put(97, 100), put(98, 100), put(99, 100),
	)

	result := calc.Compute(snap)
	require.False(t, result.NoVolumeData)
	assert.InDelta(t, 0.8, result.Concentration, 1e-9)
}

func TestCalculator_NoVolumeData(t *testing.T) {
	calc := NewCalculator(DefaultConfig())

	result := calc.Compute(newSnapshot(call(100, 0), put(95, 0)))

	assert.True(t, result.NoVolumeData)
	assert.Zero(t, result.Concentration)
}
