// Package realtime carries nomination change events from the ledger to
// whoever keeps derived views fresh.
package realtime

import (
	"context"
	"sync"

	"nomination_ledger/internal/domain/model"
)

const subscriberBuffer = 128

type Publisher interface {
	Publish(ctx context.Context, ev model.ChangeEvent) error
}

type Subscriber interface {
	Subscribe(ctx context.Context) (*Subscription, error)
}

// Subscription delivers events on C until Unsubscribe is called or the
// context given to Subscribe ends. C is closed afterwards.
type Subscription struct {
	C <-chan model.ChangeEvent

	once   sync.Once
	cancel func()
}

func newSubscription(c <-chan model.ChangeEvent, cancel func()) *Subscription {
	return &Subscription{C: c, cancel: cancel}
}

// Unsubscribe releases the subscription. It is safe to call more than once.
func (s *Subscription) Unsubscribe() {
	s.once.Do(s.cancel)
}

// Message is the envelope pushed to dashboard connections.
type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

const (
	MessageSnapshot = "snapshot"
	MessageChange   = "change"
)
