package worker

import (
	"context"
	"log/slog"
	"time"

	"nomination_ledger/internal/app/realtime"
	"nomination_ledger/internal/common"
	"nomination_ledger/internal/domain/model"
)

type SnapshotRefresher interface {
	Refresh(ctx context.Context) (model.MetricsSnapshot, error)
}

type Broadcaster interface {
	Broadcast(msg realtime.Message)
}

// MetricsRefresher keeps dashboards current from two triggers: change events
// and a fixed ticker. Both end in the same Refresh call.
type MetricsRefresher struct {
	metrics     SnapshotRefresher
	subscriber  realtime.Subscriber
	broadcaster Broadcaster
	interval    time.Duration
	logger      *slog.Logger
}

func NewMetricsRefresher(
	metrics SnapshotRefresher,
	subscriber realtime.Subscriber,
	broadcaster Broadcaster,
	interval time.Duration,
	logger *slog.Logger,
) *MetricsRefresher {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &MetricsRefresher{
		metrics:     metrics,
		subscriber:  subscriber,
		broadcaster: broadcaster,
		interval:    interval,
		logger:      common.ResolveLogger(logger),
	}
}

// Start blocks until ctx is done. Without a working subscription it still
// refreshes on every tick.
func (w *MetricsRefresher) Start(ctx context.Context) {
	w.logger.Info("metrics refresher started", "event", "metrics_refresher_started", "interval", w.interval.String())

	var events <-chan model.ChangeEvent
	if w.subscriber != nil {
		sub, err := w.subscriber.Subscribe(ctx)
		if err != nil {
			w.logger.Error("change subscription failed, polling only",
				"event", "metrics_refresher_subscribe_failed",
				"error", err.Error(),
			)
		} else {
			defer sub.Unsubscribe()
			events = sub.C
		}
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.refresh(ctx, "startup")
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("metrics refresher stopping", "event", "metrics_refresher_stopped")
			return
		case ev, ok := <-events:
			if !ok {
				w.logger.Warn("change subscription closed, polling only", "event", "metrics_refresher_subscription_closed")
				events = nil
				continue
			}
			w.broadcast(realtime.Message{Type: realtime.MessageChange, Payload: ev})
			events = w.drain(events)
			w.refresh(ctx, "change")
		case <-ticker.C:
			w.refresh(ctx, "tick")
		}
	}
}

// drain forwards events that queued up during the last refresh so a burst
// costs one recompute. It returns nil if the channel closed.
func (w *MetricsRefresher) drain(events <-chan model.ChangeEvent) <-chan model.ChangeEvent {
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			w.broadcast(realtime.Message{Type: realtime.MessageChange, Payload: ev})
		default:
			return events
		}
	}
}

// Refresh recomputes and broadcasts immediately; used for manual reloads.
func (w *MetricsRefresher) Refresh(ctx context.Context) (model.MetricsSnapshot, error) {
	snap, err := w.metrics.Refresh(ctx)
	if err != nil {
		return model.MetricsSnapshot{}, err
	}
	w.broadcast(realtime.Message{Type: realtime.MessageSnapshot, Payload: snap})
	return snap, nil
}

func (w *MetricsRefresher) refresh(ctx context.Context, trigger string) {
	if _, err := w.Refresh(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		w.logger.Error("metrics refresh failed",
			"event", "metrics_refresh_failed",
			"trigger", trigger,
			"error", err.Error(),
		)
	}
}

func (w *MetricsRefresher) broadcast(msg realtime.Message) {
	if w.broadcaster != nil {
		w.broadcaster.Broadcast(msg)
	}
}
