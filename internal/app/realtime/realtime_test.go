package realtime

import (
	"context"
	"testing"
	"time"

	"nomination_ledger/internal/domain/model"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRedisBroker(t *testing.T) *RedisBroker {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisBroker(client, "", nil)
}

type broker interface {
	Publisher
	Subscriber
}

func brokers(t *testing.T) map[string]broker {
	return map[string]broker{
		"memory": NewMemoryBroker(nil),
		"redis":  newRedisBroker(t),
	}
}

func sampleEvent(id string) model.ChangeEvent {
	return model.ChangeEvent{
		ID:   id,
		Type: model.ChangeInsert,
		Nomination: model.Nomination{
			ID:          "n-" + id,
			JudgeID:     "j-1",
			CategoryID:  2,
			ProjectCode: "ABC123",
			CreatedAt:   time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
		},
		JudgeName:    "Marta Rivera",
		CategoryName: "Science",
		Grade:        "5th",
		OccurredAt:   time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func receive(t *testing.T, sub *Subscription) model.ChangeEvent {
	t.Helper()
	select {
	case ev, ok := <-sub.C:
		if !ok {
			t.Fatal("subscription closed")
		}
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	return model.ChangeEvent{}
}

func waitClosed(t *testing.T, sub *Subscription) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-sub.C:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("subscription channel was not closed")
		}
	}
}

func TestPublishReachesEverySubscriber(t *testing.T) {
	for name, b := range brokers(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			first, err := b.Subscribe(ctx)
			if err != nil {
				t.Fatalf("subscribe: %v", err)
			}
			defer first.Unsubscribe()
			second, err := b.Subscribe(ctx)
			if err != nil {
				t.Fatalf("subscribe: %v", err)
			}
			defer second.Unsubscribe()

			want := sampleEvent("e1")
			if err := b.Publish(ctx, want); err != nil {
				t.Fatalf("publish: %v", err)
			}
			for _, sub := range []*Subscription{first, second} {
				got := receive(t, sub)
				if got.ID != want.ID || got.Nomination != want.Nomination || got.JudgeName != want.JudgeName {
					t.Fatalf("got %+v, want %+v", got, want)
				}
			}
		})
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	for name, b := range brokers(t) {
		t.Run(name, func(t *testing.T) {
			sub, err := b.Subscribe(context.Background())
			if err != nil {
				t.Fatalf("subscribe: %v", err)
			}
			sub.Unsubscribe()
			sub.Unsubscribe()
			waitClosed(t, sub)

			if err := b.Publish(context.Background(), sampleEvent("after")); err != nil {
				t.Fatalf("publish after unsubscribe: %v", err)
			}
		})
	}
}

func TestContextCancelUnsubscribes(t *testing.T) {
	for name, b := range brokers(t) {
		t.Run(name, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			sub, err := b.Subscribe(ctx)
			if err != nil {
				t.Fatalf("subscribe: %v", err)
			}
			cancel()
			waitClosed(t, sub)
		})
	}
}

func TestMemoryBrokerDropsForSlowSubscriber(t *testing.T) {
	b := NewMemoryBroker(nil)
	sub, err := b.Subscribe(context.Background())
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer sub.Unsubscribe()

	for i := 0; i < subscriberBuffer+10; i++ {
		if err := b.Publish(context.Background(), sampleEvent("e")); err != nil {
			t.Fatalf("publish %d: %v", i, err)
		}
	}
	if got := len(sub.C); got != subscriberBuffer {
		t.Fatalf("expected a full buffer of %d, got %d", subscriberBuffer, got)
	}
	if b.Subscribers() != 1 {
		t.Fatalf("expected one subscriber, got %d", b.Subscribers())
	}
	sub.Unsubscribe()
	if b.Subscribers() != 0 {
		t.Fatalf("expected no subscribers, got %d", b.Subscribers())
	}
}
