package chain

import (
	"sort"

	"chainsight/internal/domain/options"
)

// Clusterer groups adjacent strikes into clusters by relative gap.
// The result is order-independent: permuting the input contracts yields
// identical clusters. Complexity is O(n log n) in the number of strikes.
type Clusterer struct {
	cfg Config
}

// NewClusterer creates a new strike clusterer
func NewClusterer(cfg Config) *Clusterer {
	return &Clusterer{cfg: cfg}
}

// Cluster groups the snapshot's distinct strikes. A strike joins the
// current cluster when its relative gap to the last member is below
// GapThreshold; groups smaller than MinClusterSize are reported as
// isolated points instead.
func (cl *Clusterer) Cluster(snapshot *options.Snapshot) *ClusterSet {
	strikes := snapshot.DistinctStrikes()
	set := &ClusterSet{}
	if len(strikes) == 0 {
		return set
	}

	volumeByStrike := make(map[float64]float64)
	callVolumeByStrike := make(map[float64]float64)
	putVolumeByStrike := make(map[float64]float64)
	var totalVolume float64
	for _, c := range snapshot.Contracts {
		volumeByStrike[c.Strike] += c.Volume
		totalVolume += c.Volume
		switch c.Type {
		case options.Call:
			callVolumeByStrike[c.Strike] += c.Volume
		case options.Put:
			putVolumeByStrike[c.Strike] += c.Volume
		}
	}

	var groups [][]float64
	current := []float64{strikes[0]}
	for _, strike := range strikes[1:] {
		last := current[len(current)-1]
		if last > 0 && (strike-last)/last < cl.cfg.GapThreshold {
			current = append(current, strike)
		} else {
			groups = append(groups, current)
			current = []float64{strike}
		}
	}
	groups = append(groups, current)

	var clusters []Cluster
	for _, group := range groups {
		if len(group) < cl.cfg.MinClusterSize {
			set.Isolated = append(set.Isolated, group...)
			continue
		}

		var clusterVolume, callVolume, putVolume float64
		for _, strike := range group {
			clusterVolume += volumeByStrike[strike]
			callVolume += callVolumeByStrike[strike]
			putVolume += putVolumeByStrike[strike]
		}

		clusters = append(clusters, Cluster{
			Strikes:      group,
			TotalVolume:  clusterVolume,
			DominantType: dominantType(callVolume, putVolume),
		})
	}

	scoreClusters(clusters, totalVolume)

	sort.Slice(clusters, func(i, j int) bool {
		return clusters[i].Low() < clusters[j].Low()
	})
	sort.Float64s(set.Isolated)
	set.Clusters = clusters

	return set
}

// dominantType assigns the majority volume side, tie -> Pivot
func dominantType(callVolume, putVolume float64) DominantType {
	switch {
	case callVolume > putVolume:
		return DominantCall
	case putVolume > callVolume:
		return DominantPut
	default:
		return DominantPivot
	}
}

// scoreClusters combines each cluster's normalized volume and density
// (members/span) into a strength score in [0,1]
func scoreClusters(clusters []Cluster, totalVolume float64) {
	var maxDensity float64
	densities := make([]float64, len(clusters))
	for i, c := range clusters {
		if span := c.Span(); span > 0 {
			densities[i] = float64(len(c.Strikes)) / span
		}
		if densities[i] > maxDensity {
			maxDensity = densities[i]
		}
	}

	for i := range clusters {
		var volumeShare, densityShare float64
		if totalVolume > 0 {
			volumeShare = clusters[i].TotalVolume / totalVolume
		}
		if maxDensity > 0 {
			densityShare = densities[i] / maxDensity
		}
		clusters[i].Strength = 0.5*volumeShare + 0.5*densityShare
	}
}
