package querycache

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/miniticker/internal/events"
)

// MutationOptions declare what a write invalidates on success.
type MutationOptions struct {
	Invalidates []string
	// Reason is attached to the invalidation events for logging.
	Reason string
}

// Mutate runs fn. On success every tag in opts.Invalidates is invalidated,
// through the bus when the cache has one. On failure nothing is invalidated
// and the error is returned as is.
func Mutate[T any](ctx context.Context, c *Cache, opts MutationOptions, fn func(context.Context) (T, error)) (T, error) {
	out, err := fn(ctx)
	if err != nil {
		return out, err
	}
	c.publishInvalidation(ctx, opts)
	return out, nil
}

func (c *Cache) publishInvalidation(ctx context.Context, opts MutationOptions) {
	if c.bus == nil {
		c.Invalidate(opts.Invalidates...)
		return
	}
	for _, tag := range opts.Invalidates {
		event := events.NewEvent(events.TagTopic(tag), events.InvalidatedPayload{Tag: tag, Reason: opts.Reason})
		if err := c.bus.Publish(ctx, event); err != nil {
			c.logger.Warn("publish invalidation", zap.String("tag", tag), zap.Error(err))
		}
	}
}
