package chain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func classify(t *testing.T, snap *MetricsResult, report *ValidationReport) *SentimentResult {
	t.Helper()
	sc := NewSentimentClassifier(DefaultConfig())
	result := sc.Classify(snap, report)
	require.NotNil(t, result)
	return result
}

func TestSentiment_BullishMediumConfidence(t *testing.T) {
	calc := NewCalculator(DefaultConfig())
	validator := NewValidator(DefaultConfig())

	snap := balancedChain(310, 190)
	metrics := calc.Compute(snap)
	report := validator.Validate(snap)
	require.True(t, report.OK)
	require.Empty(t, report.Warnings)

	result := classify(t, metrics, report)

	assert.Equal(t, Bullish, result.Classification)
	assert.Equal(t, ConfidenceMedium, result.Confidence)
	require.NotEmpty(t, result.Evidence)
	assert.Contains(t, result.Evidence[0], "1.63")
}

func TestSentiment_UnboundedRatio(t *testing.T) {
	metrics := &MetricsResult{
		TotalContracts: 900,
		Calls:          900,
		RatioUnbounded: true,
	}

	result := classify(t, metrics, &ValidationReport{OK: true})

	assert.Equal(t, StronglyBullish, result.Classification)
	assert.Equal(t, ConfidenceLow, result.Confidence, "unbounded ratio caps confidence regardless of count")

	found := false
	for _, e := range result.Evidence {
		if strings.Contains(e, "undefined denominator, low reliability") {
			found = true
		}
	}
	assert.True(t, found, "evidence must flag the undefined denominator")
}

func TestSentiment_Classes(t *testing.T) {
	tests := []struct {
		ratio float64
		want  Classification
	}{
		{2.5, StronglyBullish},
		{1.8, Bullish},
		{1.2, Bullish},
		{0.85, Neutral},
		{0.5, Bearish},
		{0.3, StronglyBearish},
	}

	for _, tt := range tests {
		metrics := &MetricsResult{TotalContracts: 900, CallPutRatio: tt.ratio}
		result := classify(t, metrics, &ValidationReport{OK: true})
		assert.Equal(t, tt.want, result.Classification, "ratio %v", tt.ratio)
	}
}

func TestSentiment_ScoreMonotonicInRatio(t *testing.T) {
	prev := -1.0
	for ratio := 0.1; ratio <= 3.0; ratio += 0.1 {
		metrics := &MetricsResult{TotalContracts: 600, CallPutRatio: ratio}
		result := classify(t, metrics, &ValidationReport{OK: true})
		assert.GreaterOrEqual(t, result.Score, prev, "score regressed at ratio %v", ratio)
		prev = result.Score
	}
}

func TestSentiment_ScoreBounds(t *testing.T) {
	cfg := DefaultConfig()
	sc := NewSentimentClassifier(cfg)

	for _, metrics := range []*MetricsResult{
		{TotalContracts: 10, CallPutRatio: 0.01, Skew: -50, PutStrikeMedian: 100, CallStrikeMedian: 50, Concentration: 0.9, TotalVolume: 1},
		{TotalContracts: 10, CallPutRatio: 99, Skew: 50, CallStrikeMedian: 150, PutStrikeMedian: 100, Concentration: 0.9, TotalVolume: 1},
	} {
		result := sc.Classify(metrics, &ValidationReport{OK: true})
		assert.GreaterOrEqual(t, result.Score, 0.0)
		assert.LessOrEqual(t, result.Score, 1.0)
	}
}

func TestSentiment_LowConfidenceOnThinChain(t *testing.T) {
	calc := NewCalculator(DefaultConfig())
	validator := NewValidator(DefaultConfig())

	snap := balancedChain(100, 50) // 150 contracts, below the 300 floor
	metrics := calc.Compute(snap)
	report := validator.Validate(snap)
	require.True(t, report.OK)
	require.True(t, report.HasWarning(CheckContractCount))

	result := classify(t, metrics, report)

	assert.Equal(t, ConfidenceLow, result.Confidence)
}

func TestSentiment_SkewAdjustsScore(t *testing.T) {
	base := &MetricsResult{TotalContracts: 600, CallPutRatio: 1.0}
	tilted := &MetricsResult{
		TotalContracts: 600, CallPutRatio: 1.0,
		Skew: 10, CallStrikeMedian: 110, PutStrikeMedian: 100,
	}

	baseScore := classify(t, base, &ValidationReport{OK: true}).Score
	tiltedScore := classify(t, tilted, &ValidationReport{OK: true}).Score

	assert.Greater(t, tiltedScore, baseScore)
}

func TestSentiment_ConflictingSignalSurfaced(t *testing.T) {
	// Neutral ratio with maximal bullish corrections cannot move the
	// score more than one tier, so force the disagreement directly:
	// bearish ratio with a strongly positive skew and concentration
	cfg := DefaultConfig()
	cfg.SkewWeight = 0.4
	sc := NewSentimentClassifier(cfg)

	metrics := &MetricsResult{
		TotalContracts: 900,
		CallPutRatio:   0.65,
		Skew:           25,
		CallStrikeMedian: 125, PutStrikeMedian: 100,
		TotalVolume: 100,
	}

	result := sc.Classify(metrics, &ValidationReport{OK: true})

	found := false
	for _, e := range result.Evidence {
		if strings.Contains(e, "conflicting signal") {
			found = true
		}
	}
	assert.True(t, found)
	assert.NotEqual(t, ConfidenceHigh, result.Confidence)
}
