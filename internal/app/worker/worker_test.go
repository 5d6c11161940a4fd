package worker

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"nomination_ledger/internal/app/realtime"
	"nomination_ledger/internal/domain/model"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type countingRefresher struct {
	calls atomic.Int32
	err   error
}

func (c *countingRefresher) Refresh(context.Context) (model.MetricsSnapshot, error) {
	n := c.calls.Add(1)
	if c.err != nil {
		return model.MetricsSnapshot{}, c.err
	}
	return model.MetricsSnapshot{Global: model.GlobalStats{TotalVotes: int(n)}}, nil
}

type recordingBroadcaster struct {
	mu       sync.Mutex
	messages []realtime.Message
}

func (r *recordingBroadcaster) Broadcast(msg realtime.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
}

func (r *recordingBroadcaster) count(kind string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, m := range r.messages {
		if m.Type == kind {
			n++
		}
	}
	return n
}

func eventually(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func insertEvent(code string) model.ChangeEvent {
	return model.ChangeEvent{
		ID:           "ev-" + code,
		Type:         model.ChangeInsert,
		Nomination:   model.Nomination{ID: "n-" + code, CategoryID: 2, ProjectCode: code},
		JudgeName:    "Marta Rivera",
		CategoryName: "Science",
		Grade:        "5th",
	}
}

func TestMetricsRefresherRefreshesOnChange(t *testing.T) {
	broker := realtime.NewMemoryBroker(nil)
	refresher := &countingRefresher{}
	out := &recordingBroadcaster{}
	w := NewMetricsRefresher(refresher, broker, out, time.Hour, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	eventually(t, func() bool { return refresher.calls.Load() >= 1 }, "no startup refresh")

	if err := broker.Publish(context.Background(), insertEvent("ABC123")); err != nil {
		t.Fatalf("publish: %v", err)
	}
	eventually(t, func() bool { return refresher.calls.Load() >= 2 }, "change did not trigger a refresh")
	eventually(t, func() bool { return out.count(realtime.MessageChange) == 1 }, "change was not broadcast")
	eventually(t, func() bool { return out.count(realtime.MessageSnapshot) >= 2 }, "snapshots were not broadcast")

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("refresher did not stop")
	}
	eventually(t, func() bool { return broker.Subscribers() == 0 }, "subscription leaked after stop")
}

func TestMetricsRefresherPollsOnTicker(t *testing.T) {
	refresher := &countingRefresher{}
	w := NewMetricsRefresher(refresher, nil, nil, 10*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)

	eventually(t, func() bool { return refresher.calls.Load() >= 4 }, "ticker did not drive refreshes")
}

func TestMetricsRefresherSurvivesRefreshErrors(t *testing.T) {
	refresher := &countingRefresher{err: errors.New("db down")}
	out := &recordingBroadcaster{}
	w := NewMetricsRefresher(refresher, nil, out, 10*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)

	eventually(t, func() bool { return refresher.calls.Load() >= 3 }, "refresher stopped after an error")
	if out.count(realtime.MessageSnapshot) != 0 {
		t.Fatal("failed refresh must not broadcast")
	}
}

type fakeSender struct {
	mu   sync.Mutex
	sent []tgbotapi.MessageConfig
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, msg)
	}
	return tgbotapi.Message{}, nil
}

func (f *fakeSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func TestActivityAnnouncer(t *testing.T) {
	broker := realtime.NewMemoryBroker(nil)
	sender := &fakeSender{}
	a := NewActivityAnnouncer(sender, -100123, broker, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Start(ctx) }()

	eventually(t, func() bool { return broker.Subscribers() == 1 }, "announcer did not subscribe")

	deleteEvent := insertEvent("GONE")
	deleteEvent.Type = model.ChangeDelete
	for _, ev := range []model.ChangeEvent{insertEvent("ABC123"), deleteEvent} {
		if err := broker.Publish(context.Background(), ev); err != nil {
			t.Fatalf("publish: %v", err)
		}
	}
	eventually(t, func() bool { return sender.count() == 1 }, "insert was not announced")

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("start returned %v", err)
	}

	sender.mu.Lock()
	msg := sender.sent[0]
	sender.mu.Unlock()
	if msg.ChatID != -100123 {
		t.Fatalf("sent to chat %d", msg.ChatID)
	}
	if !strings.Contains(msg.Text, "ABC123") || !strings.Contains(msg.Text, "Science - 5th") {
		t.Fatalf("unexpected text %q", msg.Text)
	}
	if sender.count() != 1 {
		t.Fatalf("delete events must not be announced, sent %d", sender.count())
	}
}

func TestAnnouncementText(t *testing.T) {
	ev := model.ChangeEvent{Nomination: model.Nomination{CategoryID: 4, ProjectCode: "ENG-7"}}
	if got := AnnouncementText(ev); got != "A judge nominated project ENG-7 in category 4" {
		t.Fatalf("unexpected text %q", got)
	}
}
