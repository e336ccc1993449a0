package chain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chainsight/internal/domain/options"
)

func TestMaxPain_EmptySnapshot(t *testing.T) {
	mp := NewMaxPainCalculator(DefaultConfig())
	assert.Nil(t, mp.Compute(newSnapshot()))
}

func TestMaxPain_OpenInterestProxy(t *testing.T) {
	mp := NewMaxPainCalculator(DefaultConfig())

	// Heavy put interest above and call interest below pins pain at the
	// middle strike
	result := mp.Compute(newSnapshot(
		withOI(call(90, 1), 100),
		withOI(put(110, 1), 100),
		withOI(call(100, 1), 10),
		withOI(put(100, 1), 10),
	))

	require.NotNil(t, result)
	assert.Equal(t, 100.0, result.Strike)
	assert.False(t, result.ProxyDegraded)
	assert.Equal(t, ConfidenceHigh, result.Confidence)
}

func TestMaxPain_VolumeFallbackDegradesConfidence(t *testing.T) {
	mp := NewMaxPainCalculator(DefaultConfig())

	t.Run("all open interest missing", func(t *testing.T) {
		result := mp.Compute(newSnapshot(
			call(90, 100), put(110, 100), call(100, 10), put(100, 10),
		))

		require.NotNil(t, result)
		assert.True(t, result.ProxyDegraded)
		assert.Equal(t, ConfidenceLow, result.Confidence)
	})

	t.Run("a single missing value degrades the whole result", func(t *testing.T) {
		result := mp.Compute(newSnapshot(
			withOI(call(90, 100), 100),
			withOI(put(110, 100), 100),
			call(100, 10), // no open interest
		))

		require.NotNil(t, result)
		assert.True(t, result.ProxyDegraded)
		assert.Equal(t, ConfidenceLow, result.Confidence)
	})
}

func TestMaxPain_ScaleInvariance(t *testing.T) {
	mp := NewMaxPainCalculator(DefaultConfig())

	base := []options.Contract{
		call(90, 120), call(95, 60), call(100, 30),
		put(100, 25), put(105, 70), put(110, 140),
	}

	baseline := mp.Compute(newSnapshot(base...))
	require.NotNil(t, baseline)

	for _, scale := range []float64{2, 10, 0.5} {
		scaled := make([]options.Contract, len(base))
		for i, c := range base {
			c.Volume *= scale
			scaled[i] = c
		}

		result := mp.Compute(newSnapshot(scaled...))
		require.NotNil(t, result)
		assert.Equal(t, baseline.Strike, result.Strike, "scale %v", scale)
	}
}

func TestMaxPain_TieBreaksTowardVolumeWeightedMedian(t *testing.T) {
	mp := NewMaxPainCalculator(DefaultConfig())

	// Pain is 500 at both strikes; the volume-weighted median sits at 100,
	// so the tie resolves there
	result := mp.Compute(newSnapshot(
		withOI(call(100, 10), 50),
		withOI(put(110, 1), 50),
	))

	require.NotNil(t, result)
	assert.Equal(t, 100.0, result.Strike)
}
