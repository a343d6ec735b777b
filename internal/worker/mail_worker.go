package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"beautystats/internal/amqp"
	"beautystats/internal/cache"
	"beautystats/internal/mail"
)

// MailWorker delivers mail taken from the queue.
type MailWorker struct {
	sender    mail.Sender
	delivered *cache.LRUCache[time.Time]
}

// NewMailWorker creates a worker that remembers the ids of recently
// delivered messages so a redelivered copy is not sent twice.
func NewMailWorker(sender mail.Sender, dedupSize int, dedupTTL time.Duration) *MailWorker {
	return &MailWorker{
		sender:    sender,
		delivered: cache.NewLRUCache[time.Time](dedupSize, dedupTTL),
	}
}

// Delivered exposes the dedup cache so it can join periodic cleanup.
func (w *MailWorker) Delivered() *cache.LRUCache[time.Time] {
	return w.delivered
}

// HandleMailMessage delivers one queued message. Invalid messages are
// logged and dropped; delivery errors are returned so the message is
// requeued.
func (w *MailWorker) HandleMailMessage(ctx context.Context, msg *amqp.MailMessage) error {
	slog.InfoContext(ctx, "Processing mail message",
		"id", msg.ID,
		"to", msg.Mail.To,
		"queued_at", msg.Timestamp)

	if at, ok := w.delivered.Get(msg.ID); ok {
		slog.WarnContext(ctx, "Skipping already delivered mail message",
			"id", msg.ID,
			"delivered_at", at)
		return nil
	}

	if err := w.sender.Send(ctx, msg.Mail); err != nil {
		if errors.Is(err, mail.ErrInvalidMessage) {
			slog.ErrorContext(ctx, "Dropping invalid mail message", "id", msg.ID, "error", err)
			return nil
		}
		return fmt.Errorf("deliver mail %s: %w", msg.ID, err)
	}

	w.delivered.Set(msg.ID, time.Now())
	slog.InfoContext(ctx, "Successfully delivered mail message",
		"id", msg.ID,
		"subject", msg.Mail.Subject)
	return nil
}
