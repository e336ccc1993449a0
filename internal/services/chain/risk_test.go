package chain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chainsight/internal/domain/options"
)

func assess(t *testing.T, snap *options.Snapshot) *RiskAssessment {
	t.Helper()
	cfg := DefaultConfig()
	metrics := NewCalculator(cfg).Compute(snap)
	clusters := NewClusterer(cfg).Cluster(snap)
	result := NewRiskAssessor(cfg).Assess(snap, metrics, clusters)
	require.NotNil(t, result)
	return result
}

func TestRisk_PutConcentrationLevels(t *testing.T) {
	t.Run("call-tilted volume is low risk", func(t *testing.T) {
		result := assess(t, newSnapshot(call(100, 120), put(100, 80)))
		assert.Equal(t, RiskLow, result.Level)
		assert.InDelta(t, 0.4, result.PutConcentration, 1e-9)
	})

	t.Run("put share above the moderate bound", func(t *testing.T) {
		result := assess(t, newSnapshot(call(100, 100), put(100, 110)))
		assert.Equal(t, RiskModerate, result.Level)
		require.NotEmpty(t, result.Factors)
	})

	t.Run("put share above the elevated bound", func(t *testing.T) {
		result := assess(t, newSnapshot(call(100, 100), put(100, 250)))
		assert.Equal(t, RiskElevated, result.Level)
		require.NotEmpty(t, result.Factors)
		assert.Contains(t, result.Factors[0], "put volume concentration")
	})
}

func TestRisk_ExtremeImbalance(t *testing.T) {
	t.Run("imbalance without put clustering stays low", func(t *testing.T) {
		// 1 call / 3 puts: ratio 0.33 below the 0.4 imbalance bound, but
		// the puts are scattered and put volume is a few percent of flow
		result := assess(t, newSnapshot(
			call(100, 1000), put(50, 10), put(70, 10), put(90, 10),
		))

		assert.Equal(t, RiskLow, result.Level)
		for _, f := range result.Factors {
			assert.NotContains(t, f, "extreme put imbalance")
		}
	})

	t.Run("imbalance with clustered downside puts elevates", func(t *testing.T) {
		// Same 0.33 ratio, but the puts sit in a tight cluster below the
		// volume-weighted reference strike
		result := assess(t, newSnapshot(
			call(200, 500), put(150, 50), put(151, 50), put(152, 50),
		))

		assert.Equal(t, RiskElevated, result.Level)

		found := false
		for _, f := range result.Factors {
			if strings.Contains(f, "extreme put imbalance") {
				found = true
			}
		}
		assert.True(t, found)
	})
}

func TestRisk_HedgingPattern(t *testing.T) {
	ra := NewRiskAssessor(DefaultConfig())

	t.Run("balanced long-dated near-the-money flow", func(t *testing.T) {
		snap := newSnapshot(
			call(100, 124), put(100, 100),
			call(101, 124), put(101, 100),
		)
		metrics := NewCalculator(DefaultConfig()).Compute(snap)
		clusters := NewClusterer(DefaultConfig()).Cluster(snap)

		result := ra.Assess(snap, metrics, clusters)

		assert.True(t, result.HedgingPattern)
		assert.Equal(t, RiskLow, result.Level, "hedging flag never raises the level by itself")
	})

	t.Run("short-dated flow is not hedging", func(t *testing.T) {
		snap := newSnapshot(
			shortDated(call(100, 100)), shortDated(put(100, 100)),
		)
		metrics := NewCalculator(DefaultConfig()).Compute(snap)
		clusters := NewClusterer(DefaultConfig()).Cluster(snap)

		result := ra.Assess(snap, metrics, clusters)

		assert.False(t, result.HedgingPattern)
	})

	t.Run("one-sided flow is not hedging", func(t *testing.T) {
		snap := newSnapshot(call(100, 500), put(100, 50))
		metrics := NewCalculator(DefaultConfig()).Compute(snap)
		clusters := NewClusterer(DefaultConfig()).Cluster(snap)

		result := ra.Assess(snap, metrics, clusters)

		assert.False(t, result.HedgingPattern)
	})
}

func TestRisk_PutClusterBelowSpot(t *testing.T) {
	// Dense put cluster well below the volume-weighted reference strike
	result := assess(t, newSnapshot(
		call(200, 500), call(202, 500), call(204, 500),
		put(150, 50), put(151, 50), put(152, 50),
	))

	assert.NotEqual(t, RiskLow, result.Level)

	found := false
	for _, f := range result.Factors {
		if strings.Contains(f, "put cluster") {
			found = true
		}
	}
	assert.True(t, found)
}
