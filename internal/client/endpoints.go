package client

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jtsunne/qinsight/internal/model"
)

const (
	endpointObservations = "/observations"
	endpointNodeStatus   = "/node-status"
	endpointSeries       = "/series"
	endpointQueries      = "/queries"
)

// getJSON fetches path and decodes the body into out.
func (c *HTTPSource) getJSON(ctx context.Context, op, path string, out any) error {
	body, err := c.doGet(ctx, path)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s decode: %w", op, err)
	}
	return nil
}

// Observations fetches per-shard latency observations.
func (c *HTTPSource) Observations(ctx context.Context) ([]model.ShardObservation, error) {
	var result []model.ShardObservation
	if err := c.getJSON(ctx, "Observations", endpointObservations, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// NodeStatus fetches node health probes.
func (c *HTTPSource) NodeStatus(ctx context.Context) ([]model.NodeStatusSample, error) {
	var result []model.NodeStatusSample
	if err := c.getJSON(ctx, "NodeStatus", endpointNodeStatus, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// LatencySeries fetches the time-ordered cluster latency series.
func (c *HTTPSource) LatencySeries(ctx context.Context) ([]model.SeriesPoint, error) {
	var result []model.SeriesPoint
	if err := c.getJSON(ctx, "LatencySeries", endpointSeries, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// Queries fetches recent and in-flight query shapes.
func (c *HTTPSource) Queries(ctx context.Context) ([]model.QueryShape, error) {
	var result []model.QueryShape
	if err := c.getJSON(ctx, "Queries", endpointQueries, &result); err != nil {
		return nil, err
	}
	return result, nil
}
