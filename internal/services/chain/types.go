package chain

import (
	"time"

	"chainsight/pkg/errors"
)

// Classification is the sentiment class of a chain snapshot
type Classification string

const (
	StronglyBullish Classification = "strongly_bullish"
	Bullish         Classification = "bullish"
	Neutral         Classification = "neutral"
	Bearish         Classification = "bearish"
	StronglyBearish Classification = "strongly_bearish"
)

// String returns string representation
func (c Classification) String() string {
	return string(c)
}

// Confidence expresses how reliable a derived result is
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// ValidationReport is the validator's verdict on a snapshot.
// Warnings allow downstream stages to run; errors do not.
type ValidationReport struct {
	OK       bool
	Warnings []*errors.ValidationError
	Errors   []*errors.ValidationError
}

// HasWarning reports whether a warning for the named check was raised
func (r *ValidationReport) HasWarning(check string) bool {
	for _, w := range r.Warnings {
		if w.Check == check {
			return true
		}
	}
	return false
}

// MetricsResult holds every derived per-snapshot metric.
// Recomputed on demand, never persisted independently.
type MetricsResult struct {
	TotalContracts int `json:"total_contracts"`
	Calls          int `json:"calls"`
	Puts           int `json:"puts"`

	// CallPutRatio is zero with RatioUnbounded set when puts == 0
	CallPutRatio   float64 `json:"call_put_ratio"`
	RatioUnbounded bool    `json:"ratio_unbounded,omitempty"`

	TotalVolume  float64 `json:"total_volume"`
	CallVolume   float64 `json:"call_volume"`
	PutVolume    float64 `json:"put_volume"`
	NoVolumeData bool    `json:"no_volume_data,omitempty"`

	DistinctStrikes int     `json:"distinct_strikes"`
	StrikeMin       float64 `json:"strike_min"`
	StrikeMax       float64 `json:"strike_max"`
	StrikeMedian    float64 `json:"strike_median"`
	StrikeMode      float64 `json:"strike_mode"`

	CallStrikeMedian float64 `json:"call_strike_median"`
	PutStrikeMedian  float64 `json:"put_strike_median"`

	VolumeByStrike map[float64]float64 `json:"volume_by_strike"`

	// Concentration is the share of total volume in the top-5 strikes
	Concentration float64 `json:"concentration"`

	// Skew is median(call strikes) - median(put strikes); sign indicates
	// directional tilt of positioning
	Skew float64 `json:"skew"`
}

// DominantType tags a strike cluster by majority volume side
type DominantType string

const (
	DominantCall  DominantType = "call"
	DominantPut   DominantType = "put"
	DominantPivot DominantType = "pivot"
)

// Cluster is one retained group of adjacent strikes
type Cluster struct {
	Strikes      []float64    `json:"strikes"`
	TotalVolume  float64      `json:"total_volume"`
	DominantType DominantType `json:"dominant_type"`
	Strength     float64      `json:"strength"`
}

// Low returns the lowest strike in the cluster
func (c Cluster) Low() float64 { return c.Strikes[0] }

// High returns the highest strike in the cluster
func (c Cluster) High() float64 { return c.Strikes[len(c.Strikes)-1] }

// Span returns the strike distance covered by the cluster
func (c Cluster) Span() float64 { return c.High() - c.Low() }

// ClusterSet is the ordered clustering result for a snapshot
type ClusterSet struct {
	Clusters []Cluster `json:"clusters"`
	Isolated []float64 `json:"isolated"`
}

// MaxPainResult identifies the strike minimizing aggregate in-the-money
// value held by option buyers at expiration
type MaxPainResult struct {
	Strike float64 `json:"strike"`
	Pain   float64 `json:"pain"`

	// ProxyDegraded is set when volume substituted for missing open
	// interest anywhere in the chain; confidence is Low in that case
	ProxyDegraded bool       `json:"proxy_degraded,omitempty"`
	Confidence    Confidence `json:"confidence"`
}

// SentimentResult is the classifier's verdict with supporting evidence
type SentimentResult struct {
	Classification Classification `json:"classification"`
	Score          float64        `json:"score"`
	Confidence     Confidence     `json:"confidence"`
	Evidence       []string       `json:"evidence"`
}

// RiskLevel grades downside positioning risk
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskModerate RiskLevel = "moderate"
	RiskElevated RiskLevel = "elevated"
)

// RiskAssessment is the risk assessor's output. HedgingPattern is
// orthogonal to the level, not mutually exclusive with it.
type RiskAssessment struct {
	Level            RiskLevel `json:"level"`
	PutConcentration float64   `json:"put_concentration"`
	Factors          []string  `json:"factors"`
	HedgingPattern   bool      `json:"hedging_pattern"`
}

// KeyLevels lists support and resistance strikes derived from clustering
type KeyLevels struct {
	Support    []float64 `json:"support"`
	Resistance []float64 `json:"resistance"`
}

// ReportSentiment is the sentiment section of the report object
type ReportSentiment struct {
	Classification Classification `json:"classification"`
	Score          float64        `json:"score"`
	Confidence     Confidence     `json:"confidence"`
}

// ReportMetrics is the metrics section of the report object
type ReportMetrics struct {
	CallPutRatio   float64 `json:"call_put_ratio"`
	RatioUnbounded bool    `json:"ratio_unbounded,omitempty"`
	TotalContracts int     `json:"total_contracts"`
	Calls          int     `json:"calls"`
	Puts           int     `json:"puts"`
}

// ReportRisk is the risk section of the report object
type ReportRisk struct {
	Level   RiskLevel `json:"level"`
	Factors []string  `json:"factors"`
}

// Report is the assembled analysis exposed upward; in-process only, no
// wire protocol of its own
type Report struct {
	Ticker         string          `json:"ticker"`
	AnalysisDate   time.Time       `json:"analysis_date"`
	Sentiment      ReportSentiment `json:"sentiment"`
	Metrics        ReportMetrics   `json:"metrics"`
	KeyLevels      KeyLevels       `json:"key_levels"`
	RiskAssessment ReportRisk      `json:"risk_assessment"`
	MaxPain        *MaxPainResult  `json:"max_pain,omitempty"`
	Evidence       []string        `json:"evidence,omitempty"`
	Warnings       []string        `json:"warnings,omitempty"`
}
