package mockdata

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/jtsunne/qinsight/internal/model"
)

const (
	defaultSeriesLen   = 60
	defaultProbeCount  = 12
	defaultStep        = 5 * time.Second
	defaultRunningJobs = 2
)

// Source serves freshly generated demo data on every call. It is safe for
// concurrent use; a fixed seed reproduces the same sequence of answers
// when calls are made in the same order.
type Source struct {
	rng *rand.Rand
	mu  sync.Mutex
	now func() time.Time
}

// NewSource returns a Source seeded with seed.
func NewSource(seed int64) *Source {
	return &Source{
		rng: rand.New(rand.NewSource(seed)),
		now: time.Now,
	}
}

// Name identifies the source in the header.
func (s *Source) Name() string {
	return "mock"
}

func (s *Source) Observations(ctx context.Context) ([]model.ShardObservation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return Cluster(s.rng), nil
}

func (s *Source) NodeStatus(ctx context.Context) ([]model.NodeStatusSample, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return NodeStatus(s.rng, s.now(), defaultProbeCount, defaultStep), nil
}

func (s *Source) LatencySeries(ctx context.Context) ([]model.SeriesPoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return Series(s.rng, s.now(), defaultSeriesLen, defaultStep), nil
}

func (s *Source) Queries(ctx context.Context) ([]model.QueryShape, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return Queries(s.rng, s.now(), defaultRunningJobs), nil
}
