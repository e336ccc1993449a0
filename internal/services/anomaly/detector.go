package anomaly

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"chainsight/internal/metrics"
	"chainsight/internal/services/chain"
	"chainsight/pkg/logger"
)

// Grade is the anomaly severity of a cross-period comparison
type Grade string

const (
	GradeNone   Grade = "none"
	GradeLow    Grade = "low"
	GradeMedium Grade = "medium"
	GradeHigh   Grade = "high"
)

// Config holds anomaly grading thresholds
type Config struct {
	// Similarity lower bounds per severity; below MediumBound is high
	NoneBound   float64
	LowBound    float64
	MediumBound float64

	// Relative change above which a metric counts as changed
	DeltaThreshold float64

	// Neighbors returned by similarity search
	NeighborLimit int
}

// DefaultConfig returns the default anomaly thresholds
func DefaultConfig() Config {
	return Config{
		NoneBound:      0.95,
		LowBound:       0.8,
		MediumBound:    0.5,
		DeltaThreshold: 0.10,
		NeighborLimit:  5,
	}
}

// Result is one comparison of a snapshot against a reference snapshot
type Result struct {
	Similarity     float64  `json:"similarity"`
	Grade          Grade    `json:"grade"`
	ChangedMetrics []string `json:"changed_metrics,omitempty"`
}

// Detector compares snapshot metrics across periods. Comparisons are pure
// and symmetric in similarity but report deltas current-relative-to-previous.
type Detector struct {
	cfg Config
	log *logger.Logger
}

// NewDetector creates a new anomaly detector
func NewDetector(cfg Config) *Detector {
	return &Detector{
		cfg: cfg,
		log: logger.Get().With("component", "anomaly"),
	}
}

// Compare grades the drift between current and previous metrics
func (d *Detector) Compare(current, previous *chain.MetricsResult) *Result {
	result := &Result{
		Similarity: Cosine(BuildFeatureVector(current), BuildFeatureVector(previous)),
	}
	result.Grade = d.gradeFor(result.Similarity)
	result.ChangedMetrics = d.changedMetrics(current, previous)

	metrics.RecordAnomalyGrade(string(result.Grade))

	d.log.Debug("Snapshots compared",
		"similarity", result.Similarity,
		"grade", result.Grade,
		"changed_metrics", len(result.ChangedMetrics),
	)

	return result
}

func (d *Detector) gradeFor(similarity float64) Grade {
	switch {
	case similarity >= d.cfg.NoneBound:
		return GradeNone
	case similarity >= d.cfg.LowBound:
		return GradeLow
	case similarity >= d.cfg.MediumBound:
		return GradeMedium
	default:
		return GradeHigh
	}
}

// changedMetrics lists scalar metrics whose relative change exceeds the
// delta threshold, plus strike set membership changes
func (d *Detector) changedMetrics(current, previous *chain.MetricsResult) []string {
	var changed []string

	scalars := []struct {
		name string
		cur  float64
		prev float64
	}{
		{"total_contracts", float64(current.TotalContracts), float64(previous.TotalContracts)},
		{"calls", float64(current.Calls), float64(previous.Calls)},
		{"puts", float64(current.Puts), float64(previous.Puts)},
		{"call_put_ratio", current.CallPutRatio, previous.CallPutRatio},
		{"total_volume", current.TotalVolume, previous.TotalVolume},
		{"call_volume", current.CallVolume, previous.CallVolume},
		{"put_volume", current.PutVolume, previous.PutVolume},
		{"distinct_strikes", float64(current.DistinctStrikes), float64(previous.DistinctStrikes)},
		{"concentration", current.Concentration, previous.Concentration},
		{"strike_median", current.StrikeMedian, previous.StrikeMedian},
	}

	for _, s := range scalars {
		if exceedsDelta(s.cur, s.prev, d.cfg.DeltaThreshold) {
			changed = append(changed, fmt.Sprintf("%s: %.2f -> %.2f", s.name, s.prev, s.cur))
		}
	}

	appeared, disappeared := strikeDiff(current.VolumeByStrike, previous.VolumeByStrike)
	if len(appeared) > 0 {
		changed = append(changed, fmt.Sprintf("strikes appeared: %s", formatStrikes(appeared)))
	}
	if len(disappeared) > 0 {
		changed = append(changed, fmt.Sprintf("strikes disappeared: %s", formatStrikes(disappeared)))
	}

	return changed
}

// exceedsDelta reports whether cur moved more than threshold relative to
// prev; a move from exactly zero to any nonzero value always counts
func exceedsDelta(cur, prev, threshold float64) bool {
	if prev == 0 {
		return cur != 0
	}
	return math.Abs(cur-prev)/math.Abs(prev) > threshold
}

func strikeDiff(current, previous map[float64]float64) (appeared, disappeared []float64) {
	for strike := range current {
		if _, ok := previous[strike]; !ok {
			appeared = append(appeared, strike)
		}
	}
	for strike := range previous {
		if _, ok := current[strike]; !ok {
			disappeared = append(disappeared, strike)
		}
	}
	sort.Float64s(appeared)
	sort.Float64s(disappeared)
	return appeared, disappeared
}

func formatStrikes(strikes []float64) string {
	const maxShown = 5
	parts := make([]string, 0, maxShown+1)
	for i, s := range strikes {
		if i == maxShown {
			parts = append(parts, fmt.Sprintf("and %d more", len(strikes)-maxShown))
			break
		}
		parts = append(parts, fmt.Sprintf("%.2f", s))
	}
	return fmt.Sprintf("[%s]", strings.Join(parts, ", "))
}
