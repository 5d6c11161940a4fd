package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"nomination_ledger/internal/common"
	"nomination_ledger/internal/domain/model"

	"github.com/redis/go-redis/v9"
)

const DefaultChannel = "nominations-changes"

// RedisBroker publishes change events on a Redis Pub/Sub channel so every
// server instance sees writes made by the others.
type RedisBroker struct {
	client  *redis.Client
	channel string
	logger  *slog.Logger
}

func NewRedisBroker(client *redis.Client, channel string, logger *slog.Logger) *RedisBroker {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisBroker{
		client:  client,
		channel: channel,
		logger:  common.ResolveLogger(logger),
	}
}

func (b *RedisBroker) Publish(ctx context.Context, ev model.ChangeEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("RedisBroker.Publish: %w", err)
	}
	if err := b.client.Publish(ctx, b.channel, payload).Err(); err != nil {
		return fmt.Errorf("RedisBroker.Publish(%s): %w", b.channel, err)
	}
	return nil
}

// Subscribe returns once Redis has confirmed the subscription, so events
// published after it returns are delivered.
func (b *RedisBroker) Subscribe(ctx context.Context) (*Subscription, error) {
	pubsub := b.client.Subscribe(ctx, b.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("RedisBroker.Subscribe(%s): %w", b.channel, err)
	}

	out := make(chan model.ChangeEvent, subscriberBuffer)
	done := make(chan struct{})
	var wg sync.WaitGroup

	sub := newSubscription(out, func() {
		close(done)
		_ = pubsub.Close()
		wg.Wait()
		close(out)
	})

	wg.Add(1)
	go func() {
		defer wg.Done()
		messages := pubsub.Channel()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				go sub.Unsubscribe()
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				var ev model.ChangeEvent
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					b.logger.Warn("discarding malformed change event",
						"event", "realtime_decode_failed",
						"module", "internal/app/realtime",
						"channel", b.channel,
						"error", err.Error(),
					)
					continue
				}
				select {
				case out <- ev:
				case <-done:
					return
				}
			}
		}
	}()
	return sub, nil
}
