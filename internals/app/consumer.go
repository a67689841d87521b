package app

import (
	"context"

	"komonitor/pkg/rabbitmq"
)

func StartConsumer(ctx context.Context, c *Container) {
	eventHandler := rabbitmq.NewEventHandler(c.runner, c.validator, c.Logger)

	// Consume ranges over the delivery channel, so it gets its own goroutine
	go func() {
		if err := c.Consumer.Consume(ctx, eventHandler); err != nil {
			c.Logger.Error().
				Err(err).
				Msg("rabbitmq consumer stopped")
		}
	}()
}
