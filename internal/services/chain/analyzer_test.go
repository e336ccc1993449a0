package chain

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chainsight/pkg/errors"
)

func TestAnalyzer_FullPipeline(t *testing.T) {
	analyzer := NewAnalyzer(DefaultConfig())

	snap := balancedChain(310, 190)
	analysis, err := analyzer.Analyze(context.Background(), snap)
	require.NoError(t, err)
	require.NotNil(t, analysis)

	assert.True(t, analysis.Validation.OK)
	assert.Equal(t, 500, analysis.Metrics.TotalContracts)
	assert.NotNil(t, analysis.MaxPain)
	assert.Equal(t, Bullish, analysis.Sentiment.Classification)

	report := analysis.Report
	require.NotNil(t, report)
	assert.Equal(t, "TEST", report.Ticker)
	assert.Equal(t, report.Sentiment.Classification, analysis.Sentiment.Classification)
	assert.Equal(t, report.Metrics.CallPutRatio, analysis.Metrics.CallPutRatio)
	assert.NotEmpty(t, report.Evidence)
}

func TestAnalyzer_RejectsOneSidedChain(t *testing.T) {
	analyzer := NewAnalyzer(DefaultConfig())

	snap := newSnapshot(call(100, 10), call(105, 10), call(110, 10))
	analysis, err := analyzer.Analyze(context.Background(), snap)

	assert.Nil(t, analysis)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrDataIncomplete))
}

func TestAnalyzer_RejectsEmptySnapshot(t *testing.T) {
	analyzer := NewAnalyzer(DefaultConfig())

	analysis, err := analyzer.Analyze(context.Background(), newSnapshot())

	assert.Nil(t, analysis)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrDataIncomplete))
}

func TestAnalyzer_KeyLevels(t *testing.T) {
	analyzer := NewAnalyzer(DefaultConfig())

	// Put-dominant cluster low, call-dominant cluster high
	snap := newSnapshot(
		put(150, 300), put(151, 200), put(152, 100),
		call(200, 100), call(202, 200), call(204, 300),
	)

	analysis, err := analyzer.Analyze(context.Background(), snap)
	require.NoError(t, err)

	assert.Equal(t, []float64{150}, analysis.Report.KeyLevels.Support)
	assert.Equal(t, []float64{204}, analysis.Report.KeyLevels.Resistance)
}

func TestAnalyzer_WarningsPropagateToReport(t *testing.T) {
	analyzer := NewAnalyzer(DefaultConfig())

	snap := balancedChain(100, 50)
	analysis, err := analyzer.Analyze(context.Background(), snap)
	require.NoError(t, err)

	require.NotEmpty(t, analysis.Report.Warnings)
	assert.Contains(t, analysis.Report.Warnings[0], "too few contracts")
	assert.Equal(t, ConfidenceLow, analysis.Report.Sentiment.Confidence)
}

func TestRenderText(t *testing.T) {
	analyzer := NewAnalyzer(DefaultConfig())

	analysis, err := analyzer.Analyze(context.Background(), balancedChain(310, 190))
	require.NoError(t, err)

	text := RenderText(analysis)

	assert.Contains(t, text, "Options Chain Analysis: TEST")
	assert.Contains(t, text, "Call/Put Ratio: 1.63")
	assert.Contains(t, text, "Sentiment: Bullish")
	assert.Contains(t, text, "Max Pain:")
	assert.True(t, strings.HasSuffix(text, "\n"))
}
