package worker

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"
)

// Run consumes until ctx is cancelled or consume fails, then calls every
// stop func once. Cancellation is a clean stop and returns nil.
func Run(ctx context.Context, consume func(context.Context) error, stops ...func()) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := consume(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		if err == nil {
			return errConsumerStopped
		}
		return err
	})
	g.Go(func() error {
		<-gctx.Done()
		for _, stop := range stops {
			stop()
		}
		return nil
	})
	return g.Wait()
}

var errConsumerStopped = errors.New("consumer stopped without cancellation")
