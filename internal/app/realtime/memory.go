package realtime

import (
	"context"
	"log/slog"
	"sync"

	"nomination_ledger/internal/common"
	"nomination_ledger/internal/domain/model"
)

// MemoryBroker fans events out inside one process. A subscriber whose
// buffer is full misses the event; the periodic refresh covers the gap.
type MemoryBroker struct {
	mu          sync.RWMutex
	subscribers map[chan model.ChangeEvent]struct{}
	logger      *slog.Logger
}

func NewMemoryBroker(logger *slog.Logger) *MemoryBroker {
	return &MemoryBroker{
		subscribers: make(map[chan model.ChangeEvent]struct{}),
		logger:      common.ResolveLogger(logger),
	}
}

func (b *MemoryBroker) Publish(ctx context.Context, ev model.ChangeEvent) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for sub := range b.subscribers {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case sub <- ev:
		default:
			b.logger.Warn("dropping change event for slow subscriber",
				"event", "realtime_publish_drop",
				"module", "internal/app/realtime",
				"event_id", ev.ID,
				"change_type", string(ev.Type),
			)
		}
	}
	return nil
}

func (b *MemoryBroker) Subscribe(ctx context.Context) (*Subscription, error) {
	ch := make(chan model.ChangeEvent, subscriberBuffer)

	b.mu.Lock()
	b.subscribers[ch] = struct{}{}
	b.mu.Unlock()

	done := make(chan struct{})
	sub := newSubscription(ch, func() {
		close(done)
		b.mu.Lock()
		delete(b.subscribers, ch)
		close(ch)
		b.mu.Unlock()
	})
	go func() {
		select {
		case <-ctx.Done():
			sub.Unsubscribe()
		case <-done:
		}
	}()
	return sub, nil
}

// Subscribers reports the number of live subscriptions.
func (b *MemoryBroker) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}
