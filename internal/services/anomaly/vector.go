package anomaly

import (
	"fmt"
	"math"
	"strings"

	"chainsight/internal/domain/options"
	"chainsight/internal/services/chain"
)

// ratioCap bounds the call/put ratio feature so an unbounded ratio does
// not dominate the vector
const ratioCap = 5.0

// BuildFeatureVector projects snapshot metrics onto a fixed-length vector
// suitable for cosine comparison. Identical metrics always produce
// identical vectors.
func BuildFeatureVector(m *chain.MetricsResult) []float64 {
	ratio := m.CallPutRatio
	if m.RatioUnbounded || ratio > ratioCap {
		ratio = ratioCap
	}

	var callShare, putShare float64
	if m.TotalVolume > 0 {
		callShare = m.CallVolume / m.TotalVolume
		putShare = m.PutVolume / m.TotalVolume
	}

	var relSkew, relSpread float64
	if m.StrikeMedian > 0 {
		relSkew = m.Skew / m.StrikeMedian
		relSpread = (m.StrikeMax - m.StrikeMin) / m.StrikeMedian
	}

	var callShareCount float64
	if m.TotalContracts > 0 {
		callShareCount = float64(m.Calls) / float64(m.TotalContracts)
	}

	return []float64{
		ratio / ratioCap,
		callShare,
		putShare,
		callShareCount,
		m.Concentration,
		relSkew,
		relSpread,
		math.Log1p(float64(m.DistinctStrikes)),
		math.Log1p(m.TotalVolume),
	}
}

// Cosine returns the cosine similarity of two equal-length vectors.
// A zero vector compares as 0 against anything, including itself.
func Cosine(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}

	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if sim > 1 {
		sim = 1
	}
	if sim < -1 {
		sim = -1
	}
	return sim
}

// BuildDocument renders a snapshot summary as text for the embedding model.
// The layout is stable so re-embedding an unchanged snapshot yields a
// comparable vector.
func BuildDocument(snapshot *options.Snapshot, m *chain.MetricsResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "options chain snapshot for %s period %s\n", snapshot.Ticker, snapshot.Period)
	fmt.Fprintf(&b, "%d contracts: %d calls, %d puts\n", m.TotalContracts, m.Calls, m.Puts)
	if m.RatioUnbounded {
		b.WriteString("call/put ratio undefined, no puts\n")
	} else {
		fmt.Fprintf(&b, "call/put ratio %.3f\n", m.CallPutRatio)
	}
	fmt.Fprintf(&b, "total volume %.0f, call volume %.0f, put volume %.0f\n",
		m.TotalVolume, m.CallVolume, m.PutVolume)
	fmt.Fprintf(&b, "strikes %d distinct from %.2f to %.2f, median %.2f, mode %.2f\n",
		m.DistinctStrikes, m.StrikeMin, m.StrikeMax, m.StrikeMedian, m.StrikeMode)
	fmt.Fprintf(&b, "top strike concentration %.3f, skew %.2f\n", m.Concentration, m.Skew)

	return b.String()
}
