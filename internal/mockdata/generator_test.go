package mockdata

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jtsunne/qinsight/internal/client"
)

var _ client.Source = (*Source)(nil)

func TestLatencies_Bounds(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for _, base := range []float64{0.2, 5, 100, 2500} {
		values := Latencies(rng, base, base*2, 2000, 0.2)
		require.Len(t, values, 2000)
		ceiling := base * 10
		if ceiling < 1 {
			ceiling = 1
		}
		for _, v := range values {
			assert.GreaterOrEqual(t, v, 1.0)
			assert.LessOrEqual(t, v, ceiling)
		}
	}
}

func TestLatencies_NoSpikesStaysNearBase(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for _, v := range Latencies(rng, 100, 10, 500, 0) {
		assert.InDelta(t, 100, v, 10)
	}
}

func TestLatencies_SpikesAppear(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	values := Latencies(rng, 100, 0, 1000, 1)
	for _, v := range values {
		assert.GreaterOrEqual(t, v, 300.0)
		assert.Less(t, v, 600.0)
	}
}

func TestLatencies_Deterministic(t *testing.T) {
	a := Latencies(rand.New(rand.NewSource(42)), 50, 20, 100, 0.1)
	b := Latencies(rand.New(rand.NewSource(42)), 50, 20, 100, 0.1)
	assert.Equal(t, a, b)
}

func TestLatencies_Empty(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	assert.Empty(t, Latencies(rng, 100, 10, 0, 0.1))
	assert.NotNil(t, Latencies(rng, 100, 10, -3, 0.1))
}

func TestCluster(t *testing.T) {
	obs := Cluster(rand.New(rand.NewSource(1)))

	copies := make(map[string]map[string]bool) // shard base -> nodes
	for _, o := range obs {
		assert.NotEmpty(t, o.NodeID)
		assert.NotEmpty(t, o.Index)
		assert.Len(t, o.Samples, samplesPerWin)
		base := o.ShardID[:len(o.ShardID)-1]
		if copies[base] == nil {
			copies[base] = make(map[string]bool)
		}
		copies[base][o.NodeID] = true
	}
	assert.Len(t, copies, 6, "3+2+1 primaries")
	for base, nodes := range copies {
		assert.Len(t, nodes, 2, "primary and replica of %s on distinct nodes", base)
	}
	assert.Len(t, obs, 6*2*windowsPerShard)
}

func TestSeriesAndStatusOrdering(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	rng := rand.New(rand.NewSource(1))

	series := Series(rng, now, 30, 5*time.Second)
	require.Len(t, series, 30)
	assert.Equal(t, now, series[29].Timestamp)
	for i := 1; i < len(series); i++ {
		assert.True(t, series[i-1].Timestamp.Before(series[i].Timestamp))
	}

	status := NodeStatus(rng, now, 4, time.Second)
	assert.Len(t, status, 4*len(demoNodes))
	assert.Equal(t, now.UnixMilli(), status[3].Timestamp)
}

func TestQueries(t *testing.T) {
	now := time.Now()
	qs := Queries(rand.New(rand.NewSource(1)), now, 2)
	require.Len(t, qs, len(demoQueries))
	running := 0
	for _, q := range qs {
		assert.NotEmpty(t, q.ID)
		assert.Greater(t, q.TotalLatencyMs, 0.0)
		assert.False(t, q.StartedAt.After(now))
		if q.Running {
			running++
		}
	}
	assert.Equal(t, 2, running)
}

func TestSource_ConcurrentUse(t *testing.T) {
	src := NewSource(99)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			obs, err := src.Observations(ctx)
			assert.NoError(t, err)
			assert.NotEmpty(t, obs)
			_, err = src.LatencySeries(ctx)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, "mock", src.Name())
}

func TestSource_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := NewSource(1)
	_, err := src.Observations(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	_, err = src.Queries(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSource_Reproducible(t *testing.T) {
	fixed := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	a, b := NewSource(5), NewSource(5)
	a.now = func() time.Time { return fixed }
	b.now = func() time.Time { return fixed }

	sa, _ := a.LatencySeries(context.Background())
	sb, _ := b.LatencySeries(context.Background())
	assert.Equal(t, sa, sb)
}
