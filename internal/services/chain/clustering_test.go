package chain

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chainsight/internal/domain/options"
)

func TestClusterer_AdjacentStrikesGroup(t *testing.T) {
	cl := NewClusterer(DefaultConfig())

	set := cl.Cluster(newSnapshot(
		call(100, 10), call(101, 10), call(102, 10), call(150, 10),
		put(100, 5), put(101, 5),
	))

	require.Len(t, set.Clusters, 1)
	assert.Equal(t, []float64{100, 101, 102}, set.Clusters[0].Strikes)
	assert.Equal(t, []float64{150}, set.Isolated)
}

func TestClusterer_OrderIndependence(t *testing.T) {
	cl := NewClusterer(DefaultConfig())

	contracts := []options.Contract{
		call(100, 10), call(101, 20), call(102, 30),
		put(150, 40), put(151, 50), put(152, 60),
		call(200, 70),
	}

	baseline := cl.Cluster(newSnapshot(contracts...))

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 10; i++ {
		shuffled := make([]options.Contract, len(contracts))
		copy(shuffled, contracts)
		rng.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})

		permuted := cl.Cluster(newSnapshot(shuffled...))
		assert.Equal(t, baseline, permuted)
	}
}

func TestClusterer_DominantType(t *testing.T) {
	cl := NewClusterer(DefaultConfig())

	t.Run("majority call volume", func(t *testing.T) {
		set := cl.Cluster(newSnapshot(
			call(100, 100), call(101, 100), put(102, 50),
		))
		require.Len(t, set.Clusters, 1)
		assert.Equal(t, DominantCall, set.Clusters[0].DominantType)
	})

	t.Run("majority put volume", func(t *testing.T) {
		set := cl.Cluster(newSnapshot(
			call(100, 10), put(101, 100), put(102, 100),
		))
		require.Len(t, set.Clusters, 1)
		assert.Equal(t, DominantPut, set.Clusters[0].DominantType)
	})

	t.Run("exact tie is a pivot", func(t *testing.T) {
		set := cl.Cluster(newSnapshot(
			call(100, 50), put(101, 50), call(102, 25), put(103, 25),
		))
		require.Len(t, set.Clusters, 1)
		assert.Equal(t, DominantPivot, set.Clusters[0].DominantType)
	})
}

func TestClusterer_MinClusterSize(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinClusterSize = 3
	cl := NewClusterer(cfg)

	// two adjacent strikes are below the retention size
	set := cl.Cluster(newSnapshot(call(100, 10), call(101, 10)))

	assert.Empty(t, set.Clusters)
	assert.Equal(t, []float64{100, 101}, set.Isolated)
}

func TestClusterer_Strength(t *testing.T) {
	cl := NewClusterer(DefaultConfig())

	set := cl.Cluster(newSnapshot(
		// dense high-volume cluster
		call(100, 100), call(101, 100), call(102, 100),
		// sparse low-volume cluster
		put(200, 10), put(205, 10), put(209, 10),
	))

	require.Len(t, set.Clusters, 2)
	for _, c := range set.Clusters {
		assert.GreaterOrEqual(t, c.Strength, 0.0)
		assert.LessOrEqual(t, c.Strength, 1.0)
	}
	assert.Greater(t, set.Clusters[0].Strength, set.Clusters[1].Strength)
}

func TestClusterer_EmptySnapshot(t *testing.T) {
	cl := NewClusterer(DefaultConfig())

	set := cl.Cluster(newSnapshot())

	assert.Empty(t, set.Clusters)
	assert.Empty(t, set.Isolated)
}
