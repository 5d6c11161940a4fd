package worker

import (
	"context"
	"fmt"
	"log/slog"

	"nomination_ledger/internal/app/realtime"
	"nomination_ledger/internal/common"
	"nomination_ledger/internal/domain/model"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// MessageSender is the part of *tgbotapi.BotAPI the announcer uses.
type MessageSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// ActivityAnnouncer posts every new nomination to a Telegram chat.
type ActivityAnnouncer struct {
	bot        MessageSender
	chatID     int64
	subscriber realtime.Subscriber
	logger     *slog.Logger
}

func NewActivityAnnouncer(bot MessageSender, chatID int64, subscriber realtime.Subscriber, logger *slog.Logger) *ActivityAnnouncer {
	return &ActivityAnnouncer{
		bot:        bot,
		chatID:     chatID,
		subscriber: subscriber,
		logger:     common.ResolveLogger(logger),
	}
}

func (a *ActivityAnnouncer) Start(ctx context.Context) error {
	sub, err := a.subscriber.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("ActivityAnnouncer.Start: %w", err)
	}
	defer sub.Unsubscribe()

	a.logger.Info("activity announcer started", "event", "announcer_started", "chat_id", a.chatID)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-sub.C:
			if !ok {
				return nil
			}
			a.announce(ev)
		}
	}
}

func (a *ActivityAnnouncer) announce(ev model.ChangeEvent) {
	if ev.Type != model.ChangeInsert {
		return
	}
	msg := tgbotapi.NewMessage(a.chatID, AnnouncementText(ev))
	if _, err := a.bot.Send(msg); err != nil {
		a.logger.Warn("telegram announcement failed",
			"event", "announcer_send_failed",
			"nomination_id", ev.Nomination.ID,
			"error", err.Error(),
		)
	}
}

func AnnouncementText(ev model.ChangeEvent) string {
	judge := ev.JudgeName
	if judge == "" {
		judge = "A judge"
	}
	category := model.Category{Name: ev.CategoryName, Grade: ev.Grade}.Label()
	if category == "" {
		category = fmt.Sprintf("category %d", ev.Nomination.CategoryID)
	}
	return fmt.Sprintf("%s nominated project %s in %s", judge, ev.Nomination.ProjectCode, category)
}
