package chain

import (
	"math"
	"sort"

	"chainsight/internal/domain/options"
)

// MaxPainCalculator locates the strike minimizing aggregate in-the-money
// value held by option buyers at expiration. The naive O(n^2) pass over
// distinct strikes is fine at the bounded chain sizes we fetch.
type MaxPainCalculator struct {
	cfg Config
}

// NewMaxPainCalculator creates a new max pain calculator
func NewMaxPainCalculator(cfg Config) *MaxPainCalculator {
	return &MaxPainCalculator{cfg: cfg}
}

// Compute returns the max-pain strike for a snapshot, or nil when the
// snapshot holds no contracts. Open interest is the positioning proxy;
// volume substitutes when it is missing, which degrades confidence to Low
// and is surfaced to every caller via ProxyDegraded.
func (m *MaxPainCalculator) Compute(snapshot *options.Snapshot) *MaxPainResult {
	if len(snapshot.Contracts) == 0 {
		return nil
	}

	strikes := snapshot.DistinctStrikes()

	degraded := false
	type weighted struct {
		strike float64
		proxy  float64
	}
	var calls, puts []weighted
	for _, c := range snapshot.Contracts {
		proxy, substituted := c.PositioningProxy()
		if substituted {
			degraded = true
		}
		w := weighted{strike: c.Strike, proxy: proxy}
		switch c.Type {
		case options.Call:
			calls = append(calls, w)
		case options.Put:
			puts = append(puts, w)
		}
	}

	anchor := volumeWeightedMedianStrike(snapshot)

	best := MaxPainResult{Strike: strikes[0], Pain: math.Inf(1)}
	for _, s := range strikes {
		var pain float64
		for _, c := range calls {
			if c.strike < s {
				pain += (s - c.strike) * c.proxy
			}
		}
		for _, p := range puts {
			if p.strike > s {
				pain += (p.strike - s) * p.proxy
			}
		}

		if pain < best.Pain {
			best.Strike = s
			best.Pain = pain
		} else if pain == best.Pain && math.Abs(s-anchor) < math.Abs(best.Strike-anchor) {
			// Tie goes to the strike nearest the volume-weighted median
			best.Strike = s
		}
	}

	best.ProxyDegraded = degraded
	if degraded {
		best.Confidence = ConfidenceLow
	} else {
		best.Confidence = ConfidenceHigh
	}

	return &best
}

// volumeWeightedMedianStrike returns the strike at which cumulative volume
// crosses half the total, falling back to the plain median strike on a
// zero-volume chain
func volumeWeightedMedianStrike(snapshot *options.Snapshot) float64 {
	volumeByStrike := make(map[float64]float64)
	var total float64
	for _, c := range snapshot.Contracts {
		volumeByStrike[c.Strike] += c.Volume
		total += c.Volume
	}

	strikes := make([]float64, 0, len(volumeByStrike))
	for s := range volumeByStrike {
		strikes = append(strikes, s)
	}
	sort.Float64s(strikes)
	if len(strikes) == 0 {
		return 0
	}

	if total <= 0 {
		return strikes[len(strikes)/2]
	}

	var cumulative float64
	for _, s := range strikes {
		cumulative += volumeByStrike[s]
		if cumulative >= total/2 {
			return s
		}
	}
	return strikes[len(strikes)-1]
}
