package chain

import (
	"sort"

	"github.com/montanaflynn/stats"

	"chainsight/internal/domain/options"
)

// Calculator derives per-snapshot metrics. It is a pure function of the
// snapshot: stateless and safe for concurrent use. Degenerate arithmetic
// (zero puts, zero volume) resolves to documented sentinels, never errors.
type Calculator struct {
	cfg Config
}

// NewCalculator creates a new metrics calculator
func NewCalculator(cfg Config) *Calculator {
	return &Calculator{cfg: cfg}
}

// Compute derives all metrics for a snapshot
func (c *Calculator) Compute(snapshot *options.Snapshot) *MetricsResult {
	result := &MetricsResult{
		VolumeByStrike: make(map[float64]float64),
	}

	callStrikes := make(map[float64]struct{})
	putStrikes := make(map[float64]struct{})
	strikeCounts := make(map[float64]int)

	for _, contract := range snapshot.Contracts {
		switch contract.Type {
		case options.Call:
			result.Calls++
			result.CallVolume += contract.Volume
			callStrikes[contract.Strike] = struct{}{}
		case options.Put:
			result.Puts++
			result.PutVolume += contract.Volume
			putStrikes[contract.Strike] = struct{}{}
		default:
			continue
		}
		result.VolumeByStrike[contract.Strike] += contract.Volume
		strikeCounts[contract.Strike]++
	}

	result.TotalContracts = result.Calls + result.Puts
	result.TotalVolume = result.CallVolume + result.PutVolume

	if result.Puts == 0 {
		// Unbounded-bullish sentinel: the ratio denominator is zero
		result.RatioUnbounded = true
	} else {
		result.CallPutRatio = float64(result.Calls) / float64(result.Puts)
	}

	distinct := distinctSorted(result.VolumeByStrike)
	result.DistinctStrikes = len(distinct)
	if len(distinct) > 0 {
		result.StrikeMin = distinct[0]
		result.StrikeMax = distinct[len(distinct)-1]
		result.StrikeMedian, _ = stats.Median(distinct)
		result.StrikeMode = modeLowest(strikeCounts)
	}

	result.CallStrikeMedian = medianOfSet(callStrikes)
	result.PutStrikeMedian = medianOfSet(putStrikes)
	if len(callStrikes) > 0 && len(putStrikes) > 0 {
		result.Skew = result.CallStrikeMedian - result.PutStrikeMedian
	}

	if result.TotalVolume <= 0 {
		result.NoVolumeData = true
	} else {
		result.Concentration = topConcentration(result.VolumeByStrike, result.TotalVolume, 5)
	}

	return result
}

// distinctSorted returns the sorted distinct strikes from a volume map
func distinctSorted(volumeByStrike map[float64]float64) []float64 {
	strikes := make([]float64, 0, len(volumeByStrike))
	for strike := range volumeByStrike {
		strikes = append(strikes, strike)
	}
	sort.Float64s(strikes)
	return strikes
}

// modeLowest returns the most frequent strike, ties broken by lowest value
func modeLowest(counts map[float64]int) float64 {
	var mode float64
	best := -1
	for strike, count := range counts {
		if count > best || (count == best && strike < mode) {
			mode = strike
			best = count
		}
	}
	return mode
}

// medianOfSet returns the median over a set of distinct strikes, 0 when empty
func medianOfSet(set map[float64]struct{}) float64 {
	if len(set) == 0 {
		return 0
	}
	values := make([]float64, 0, len(set))
	for v := range set {
		values = append(values, v)
	}
	median, _ := stats.Median(values)
	return median
}

// topConcentration returns the share of total volume held by the k
// highest-volume strikes
func topConcentration(volumeByStrike map[float64]float64, total float64, k int) float64 {
	volumes := make([]float64, 0, len(volumeByStrike))
	for _, v := range volumeByStrike {
		volumes = append(volumes, v)
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(volumes)))

	if k > len(volumes) {
		k = len(volumes)
	}
	var top float64
	for _, v := range volumes[:k] {
		top += v
	}
	return top / total
}
