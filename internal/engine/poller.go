package engine

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jtsunne/qinsight/internal/client"
	"github.com/jtsunne/qinsight/internal/model"
)

// FetchAll calls the three core source endpoints concurrently, plus the
// optional query listing. If any core endpoint fails, FetchAll returns the
// first error. Query listing failures are non-fatal (sources that only
// export samples have no query feed); on error the field is left nil.
func FetchAll(ctx context.Context, src client.Source) (*model.Snapshot, error) {
	var (
		observations []model.ShardObservation
		status       []model.NodeStatusSample
		series       []model.SeriesPoint
		queries      []model.QueryShape
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		observations, err = src.Observations(gctx)
		return err
	})

	g.Go(func() error {
		var err error
		status, err = src.NodeStatus(gctx)
		return err
	})

	g.Go(func() error {
		var err error
		series, err = src.LatencySeries(gctx)
		return err
	})

	// Queries run outside the errgroup so a slow listing does not hold up
	// the core data, and against the parent ctx so they are not cancelled
	// when the group finishes. The buffered channel lets the goroutine exit
	// whether or not the result is read.
	queryCh := make(chan []model.QueryShape, 1)
	go func() {
		q, err := src.Queries(ctx)
		if err != nil {
			queryCh <- nil
			return
		}
		queryCh <- q
	}()

	if err := g.Wait(); err != nil {
		return nil, err
	}

	select {
	case queries = <-queryCh:
	case <-ctx.Done():
	}

	return &model.Snapshot{
		Observations: observations,
		NodeStatus:   status,
		Series:       series,
		Queries:      queries,
		FetchedAt:    time.Now(),
	}, nil
}
