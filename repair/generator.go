package repair

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"attuned-server/content"
)

// Generator produces a fresh item for a slot when the activity bank has
// nothing suitable (e.g. an AI-assisted authoring service). It is an
// explicit dependency injected at construction time.
type Generator interface {
	Generate(ctx context.Context, typ content.Type, rating content.Rating, intensityMin, intensityMax int) (*content.Item, error)
}

// generation retry bounds; exhaustion degrades to the safe-template
// tier, never an unbounded loop.
const (
	genDefaultRetries  = 3
	genInitialInterval = 200 * time.Millisecond
	genMaxInterval     = 2 * time.Second
)

func generateWithRetry(ctx context.Context, gen Generator, req Request, retries int) (*content.Item, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = genInitialInterval
	bo.MaxInterval = genMaxInterval

	var item *content.Item
	op := func() error {
		var err error
		item, err = gen.Generate(ctx, req.Type, req.Rating, req.IntensityMin, req.IntensityMax)
		return err
	}

	err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(bo, uint64(retries)), ctx))
	if err != nil {
		return nil, err
	}
	return item, nil
}
