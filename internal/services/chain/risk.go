package chain

import (
	"fmt"
	"sort"

	"chainsight/internal/domain/options"
	"chainsight/pkg/logger"
)

// RiskAssessor grades downside positioning risk from put concentration
// and flags institutional hedging patterns independently of the grade.
type RiskAssessor struct {
	cfg Config
	log *logger.Logger
}

// NewRiskAssessor creates a new risk assessor
func NewRiskAssessor(cfg Config) *RiskAssessor {
	return &RiskAssessor{
		cfg: cfg,
		log: logger.Get().With("component", "risk"),
	}
}

// Assess derives the risk level for a snapshot. Metrics must come from the
// same snapshot; the assessor does not recompute them.
func (ra *RiskAssessor) Assess(snapshot *options.Snapshot, metrics *MetricsResult, clusters *ClusterSet) *RiskAssessment {
	assessment := &RiskAssessment{Level: RiskLow}

	if metrics.TotalVolume > 0 {
		assessment.PutConcentration = metrics.PutVolume / metrics.TotalVolume
	}

	switch {
	case assessment.PutConcentration > ra.cfg.ElevatedPutConcentration:
		assessment.Level = RiskElevated
		assessment.Factors = append(assessment.Factors, fmt.Sprintf(
			"put volume concentration %.1f%% exceeds %.0f%%",
			assessment.PutConcentration*100, ra.cfg.ElevatedPutConcentration*100))
	case assessment.PutConcentration > ra.cfg.ModeratePutConcentration:
		assessment.Level = RiskModerate
		assessment.Factors = append(assessment.Factors, fmt.Sprintf(
			"put volume concentration %.1f%%", assessment.PutConcentration*100))
	}

	spot := volumeWeightedMedianStrike(snapshot)
	putCluster, clustered := ra.tightPutClusterBelow(clusters, spot)

	// Extreme imbalance alone is not enough; it elevates only together
	// with tight downside put clustering
	extremeImbalance := !metrics.RatioUnbounded && metrics.Puts > 0 &&
		metrics.CallPutRatio < ra.cfg.ExtremeImbalanceRatio
	if extremeImbalance && clustered {
		assessment.Level = RiskElevated
		assessment.Factors = append(assessment.Factors, fmt.Sprintf(
			"extreme put imbalance: call/put ratio %.2f with clustered downside puts",
			metrics.CallPutRatio))
	}

	if clustered {
		if assessment.Level == RiskLow {
			assessment.Level = RiskModerate
		}
		assessment.Factors = append(assessment.Factors, fmt.Sprintf(
			"put cluster %.2f-%.2f below reference strike %.2f",
			putCluster.Low(), putCluster.High(), spot))
	}

	assessment.HedgingPattern = ra.detectHedging(snapshot, spot)
	if assessment.HedgingPattern {
		assessment.Factors = append(assessment.Factors,
			"balanced long-dated near-the-money flow consistent with hedging")
	}

	ra.log.Debug("Risk assessed",
		"level", assessment.Level,
		"put_concentration", assessment.PutConcentration,
		"hedging_pattern", assessment.HedgingPattern,
	)

	return assessment
}

// tightPutClusterBelow finds a put-dominant cluster strictly below the
// reference strike; dense downside put positioning is a standalone factor
func (ra *RiskAssessor) tightPutClusterBelow(clusters *ClusterSet, spot float64) (Cluster, bool) {
	if clusters == nil || spot <= 0 {
		return Cluster{}, false
	}
	for _, c := range clusters.Clusters {
		if c.DominantType == DominantPut && c.High() < spot {
			return c, true
		}
	}
	return Cluster{}, false
}

// detectHedging flags protective positioning: call and put volume near the
// reference strike roughly balanced, with far-dated expirations. The flag
// is informational and never changes the risk level on its own.
func (ra *RiskAssessor) detectHedging(snapshot *options.Snapshot, spot float64) bool {
	if spot <= 0 {
		return false
	}

	band := spot * ra.cfg.HedgeBandPct
	var callVolume, putVolume float64
	var daysOut []float64

	for _, contract := range snapshot.Contracts {
		if contract.Strike < spot-band || contract.Strike > spot+band {
			continue
		}
		switch contract.Type {
		case options.Call:
			callVolume += contract.Volume
		case options.Put:
			putVolume += contract.Volume
		}
		daysOut = append(daysOut, contract.Expiration.Sub(snapshot.AsOf).Hours()/24)
	}

	if putVolume <= 0 || len(daysOut) == 0 {
		return false
	}

	balance := callVolume / putVolume
	if balance < ra.cfg.HedgeBalanceLow || balance > ra.cfg.HedgeBalanceHigh {
		return false
	}

	sort.Float64s(daysOut)
	medianDays := daysOut[len(daysOut)/2]
	if len(daysOut)%2 == 0 {
		medianDays = (daysOut[len(daysOut)/2-1] + daysOut[len(daysOut)/2]) / 2
	}

	return medianDays >= float64(ra.cfg.HedgeMinDays)
}
