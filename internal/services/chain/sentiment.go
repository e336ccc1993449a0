package chain

import (
	"fmt"

	"chainsight/pkg/logger"
)

// sentiment tiers, most bullish first; the ratio tier is authoritative,
// the score tier only corroborates
const (
	tierStronglyBullish = iota
	tierBullish
	tierSlightlyBullish
	tierNeutral
	tierBearish
	tierStronglyBearish
)

// SentimentClassifier turns snapshot metrics into a sentiment verdict.
// Pure and stateless; all thresholds come from the injected config.
type SentimentClassifier struct {
	cfg Config
	log *logger.Logger
}

// NewSentimentClassifier creates a new sentiment classifier
func NewSentimentClassifier(cfg Config) *SentimentClassifier {
	return &SentimentClassifier{
		cfg: cfg,
		log: logger.Get().With("component", "sentiment"),
	}
}

// Classify derives sentiment from metrics and the validation report.
// Every classification cites at least one concrete metric value in its
// evidence. The caller must not invoke this when validation failed hard.
func (sc *SentimentClassifier) Classify(metrics *MetricsResult, validation *ValidationReport) *SentimentResult {
	result := &SentimentResult{}

	ratioTier := sc.ratioTier(metrics)
	result.Classification = tierClass(ratioTier)

	if metrics.RatioUnbounded {
		result.Evidence = append(result.Evidence, fmt.Sprintf(
			"undefined denominator, low reliability: %d calls, 0 puts", metrics.Calls))
	} else {
		result.Evidence = append(result.Evidence, fmt.Sprintf(
			"call/put ratio %.2f (%d calls / %d puts)",
			metrics.CallPutRatio, metrics.Calls, metrics.Puts))
	}

	score := sc.score(metrics, result)
	result.Score = score

	scoreTier := sc.scoreTier(score)
	agreement := ratioTier - scoreTier
	if agreement < 0 {
		agreement = -agreement
	}
	if agreement > 1 {
		// Surface the disagreement rather than silently resolving it
		result.Evidence = append(result.Evidence, fmt.Sprintf(
			"conflicting signal: ratio tier %d vs score tier %d", ratioTier, scoreTier))
	}

	result.Confidence = sc.confidence(metrics, validation, agreement)

	sc.log.Debug("Sentiment classified",
		"classification", result.Classification,
		"score", result.Score,
		"confidence", result.Confidence,
	)

	return result
}

// ratioTier maps the call/put ratio onto the authoritative tier
func (sc *SentimentClassifier) ratioTier(metrics *MetricsResult) int {
	if metrics.RatioUnbounded {
		return tierStronglyBullish
	}
	r := metrics.CallPutRatio
	switch {
	case r > 2.0:
		return tierStronglyBullish
	case r > 1.5:
		return tierBullish
	case r > 1.0:
		return tierSlightlyBullish
	case r > 0.7:
		return tierNeutral
	case r >= 0.4:
		return tierBearish
	default:
		return tierStronglyBearish
	}
}

// score computes the continuous corroboration score in [0,1], adjusted by
// skew direction and concentration strength, appending the evidence used
func (sc *SentimentClassifier) score(metrics *MetricsResult, result *SentimentResult) float64 {
	var base float64
	if metrics.RatioUnbounded {
		base = 1.0
	} else {
		base = clamp01((metrics.CallPutRatio - 0.5) / 1.5)
	}

	score := base

	if metrics.Skew != 0 {
		if metrics.Skew > 0 {
			score += sc.cfg.SkewWeight
		} else {
			score -= sc.cfg.SkewWeight
		}
		result.Evidence = append(result.Evidence, fmt.Sprintf(
			"strike skew %+.2f (call median %.2f, put median %.2f)",
			metrics.Skew, metrics.CallStrikeMedian, metrics.PutStrikeMedian))
	}

	if !metrics.NoVolumeData && metrics.Concentration >= sc.cfg.StrongConcentration {
		// Strong concentration amplifies whichever side the score leans to
		if base >= 0.5 {
			score += sc.cfg.ConcentrationWeight
		} else {
			score -= sc.cfg.ConcentrationWeight
		}
		result.Evidence = append(result.Evidence, fmt.Sprintf(
			"top-5 strike concentration %.1f%% of volume", metrics.Concentration*100))
	}

	return clamp01(score)
}

// scoreTier maps the continuous score back onto the tier scale using the
// same band edges as the ratio tiers under score = (ratio-0.5)/1.5
func (sc *SentimentClassifier) scoreTier(score float64) int {
	switch {
	case score >= 1.0:
		return tierStronglyBullish
	case score >= 2.0/3.0:
		return tierBullish
	case score >= 1.0/3.0:
		return tierSlightlyBullish
	case score >= 0.4/3.0:
		return tierNeutral
	case score > 0.03:
		return tierBearish
	default:
		return tierStronglyBearish
	}
}

// confidence is a deterministic function of contract count, validator
// warning count and tier agreement
func (sc *SentimentClassifier) confidence(metrics *MetricsResult, validation *ValidationReport, agreement int) Confidence {
	level := 0 // 0 = Low, 1 = Medium, 2 = High
	switch {
	case metrics.TotalContracts >= sc.cfg.ConfidenceHighBreak:
		level = 2
	case metrics.TotalContracts >= sc.cfg.ConfidenceMediumBreak:
		level = 1
	}

	if validation != nil {
		level -= len(validation.Warnings)
	}
	if agreement > 1 {
		level--
	}

	// An unbounded ratio is never more than a low-reliability read
	if metrics.RatioUnbounded {
		level = 0
	}
	if metrics.TotalContracts < sc.cfg.ConfidenceLowBreak {
		level = 0
	}

	switch {
	case level >= 2:
		return ConfidenceHigh
	case level == 1:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// tierClass collapses the six tiers onto the five public classes
func tierClass(tier int) Classification {
	switch tier {
	case tierStronglyBullish:
		return StronglyBullish
	case tierBullish, tierSlightlyBullish:
		return Bullish
	case tierNeutral:
		return Neutral
	case tierBearish:
		return Bearish
	default:
		return StronglyBearish
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
