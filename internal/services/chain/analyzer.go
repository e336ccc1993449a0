package chain

import (
	"context"
	"sort"
	"time"

	"chainsight/internal/domain/options"
	"chainsight/internal/metrics"
	"chainsight/pkg/errors"
	"chainsight/pkg/logger"
)

// Analysis bundles every stage output for one snapshot. The Report field
// is the condensed view handed upward; the rest is kept for anomaly
// detection and export.
type Analysis struct {
	Validation *ValidationReport
	Metrics    *MetricsResult
	Clusters   *ClusterSet
	MaxPain    *MaxPainResult
	Sentiment  *SentimentResult
	Risk       *RiskAssessment
	Report     *Report
}

// Analyzer runs the full analysis pipeline over a snapshot. All stages are
// pure; the analyzer itself only sequences them and assembles the report.
type Analyzer struct {
	cfg        Config
	validator  *Validator
	calculator *Calculator
	clusterer  *Clusterer
	maxPain    *MaxPainCalculator
	sentiment  *SentimentClassifier
	risk       *RiskAssessor
	log        *logger.Logger
}

// NewAnalyzer creates an analyzer with all pipeline stages
func NewAnalyzer(cfg Config) *Analyzer {
	return &Analyzer{
		cfg:        cfg,
		validator:  NewValidator(cfg),
		calculator: NewCalculator(cfg),
		clusterer:  NewClusterer(cfg),
		maxPain:    NewMaxPainCalculator(cfg),
		sentiment:  NewSentimentClassifier(cfg),
		risk:       NewRiskAssessor(cfg),
		log:        logger.Get().With("component", "analyzer"),
	}
}

// Analyze validates the snapshot and runs every derivation stage.
// Validation errors abort the pipeline; warnings flow into the report and
// cap confidence downstream.
func (a *Analyzer) Analyze(ctx context.Context, snapshot *options.Snapshot) (*Analysis, error) {
	if snapshot == nil || len(snapshot.Contracts) == 0 {
		return nil, errors.Wrap(errors.ErrDataIncomplete, "empty snapshot")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()

	analysis := &Analysis{}
	analysis.Validation = a.validator.Validate(snapshot)
	if !analysis.Validation.OK {
		multi := &errors.MultiError{}
		for _, ve := range analysis.Validation.Errors {
			multi.Add(ve)
		}
		return nil, errors.Wrapf(errors.ErrDataIncomplete,
			"snapshot %s failed validation: %v", snapshot.Ticker, multi.ToError())
	}

	analysis.Metrics = a.calculator.Compute(snapshot)
	analysis.Clusters = a.clusterer.Cluster(snapshot)
	analysis.MaxPain = a.maxPain.Compute(snapshot)
	analysis.Sentiment = a.sentiment.Classify(analysis.Metrics, analysis.Validation)
	analysis.Risk = a.risk.Assess(snapshot, analysis.Metrics, analysis.Clusters)
	analysis.Report = a.assembleReport(snapshot, analysis)

	metrics.ObserveAnalysisDuration(snapshot.Ticker, time.Since(start))

	a.log.Info("Snapshot analyzed",
		"ticker", snapshot.Ticker,
		"contracts", analysis.Metrics.TotalContracts,
		"classification", analysis.Sentiment.Classification,
		"risk", analysis.Risk.Level,
		"duration", time.Since(start),
	)

	return analysis, nil
}

func (a *Analyzer) assembleReport(snapshot *options.Snapshot, analysis *Analysis) *Report {
	report := &Report{
		Ticker:       snapshot.Ticker,
		AnalysisDate: snapshot.AsOf,
		Sentiment: ReportSentiment{
			Classification: analysis.Sentiment.Classification,
			Score:          analysis.Sentiment.Score,
			Confidence:     analysis.Sentiment.Confidence,
		},
		Metrics: ReportMetrics{
			CallPutRatio:   analysis.Metrics.CallPutRatio,
			RatioUnbounded: analysis.Metrics.RatioUnbounded,
			TotalContracts: analysis.Metrics.TotalContracts,
			Calls:          analysis.Metrics.Calls,
			Puts:           analysis.Metrics.Puts,
		},
		RiskAssessment: ReportRisk{
			Level:   analysis.Risk.Level,
			Factors: analysis.Risk.Factors,
		},
		MaxPain:   analysis.MaxPain,
		KeyLevels: a.keyLevels(analysis),
		Evidence:  analysis.Sentiment.Evidence,
	}

	for _, warning := range analysis.Validation.Warnings {
		report.Warnings = append(report.Warnings, warning.Error())
	}

	return report
}

// keyLevels derives support and resistance from retained clusters: each
// cluster contributes its highest-volume strike, put-dominant clusters as
// support and call-dominant as resistance. Pivot clusters fall on whichever
// side of max pain they sit.
func (a *Analyzer) keyLevels(analysis *Analysis) KeyLevels {
	var levels KeyLevels
	for _, cluster := range analysis.Clusters.Clusters {
		level := peakStrike(cluster, analysis.Metrics.VolumeByStrike)
		switch cluster.DominantType {
		case DominantPut:
			levels.Support = append(levels.Support, level)
		case DominantCall:
			levels.Resistance = append(levels.Resistance, level)
		case DominantPivot:
			if analysis.MaxPain != nil && level > analysis.MaxPain.Strike {
				levels.Resistance = append(levels.Resistance, level)
			} else {
				levels.Support = append(levels.Support, level)
			}
		}
	}
	sort.Float64s(levels.Support)
	sort.Float64s(levels.Resistance)
	return levels
}

// peakStrike picks the strike carrying the most volume within a cluster
func peakStrike(cluster Cluster, volumeByStrike map[float64]float64) float64 {
	peak := cluster.Strikes[0]
	best := volumeByStrike[peak]
	for _, strike := range cluster.Strikes[1:] {
		if v := volumeByStrike[strike]; v > best {
			best = v
			peak = strike
		}
	}
	return peak
}
