package engine

import (
	"context"
	"errors"

	"github.com/jtsunne/qinsight/internal/model"
)

// MockSource implements client.Source for testing.
type MockSource struct {
	ObservationsFn func(ctx context.Context) ([]model.ShardObservation, error)
	NodeStatusFn   func(ctx context.Context) ([]model.NodeStatusSample, error)
	SeriesFn       func(ctx context.Context) ([]model.SeriesPoint, error)
	QueriesFn      func(ctx context.Context) ([]model.QueryShape, error)
}

func (m *MockSource) Observations(ctx context.Context) ([]model.ShardObservation, error) {
	if m.ObservationsFn != nil {
		return m.ObservationsFn(ctx)
	}
	return []model.ShardObservation{{
		ShardID: "s0",
		NodeID:  "n1",
		Index:   "logs",
		Samples: []model.LatencySample{{Value: 10, Success: true}},
	}}, nil
}

func (m *MockSource) NodeStatus(ctx context.Context) ([]model.NodeStatusSample, error) {
	if m.NodeStatusFn != nil {
		return m.NodeStatusFn(ctx)
	}
	return []model.NodeStatusSample{{NodeID: "n1", Healthy: true}}, nil
}

func (m *MockSource) LatencySeries(ctx context.Context) ([]model.SeriesPoint, error) {
	if m.SeriesFn != nil {
		return m.SeriesFn(ctx)
	}
	return nil, nil
}

func (m *MockSource) Queries(ctx context.Context) ([]model.QueryShape, error) {
	if m.QueriesFn != nil {
		return m.QueriesFn(ctx)
	}
	return nil, nil
}

func (m *MockSource) Name() string {
	return "mock://test"
}

var errMockFailure = errors.New("mock failure")
