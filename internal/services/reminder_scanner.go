package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"beautystats/internal/core"
	"beautystats/internal/log"
	"beautystats/internal/mail"
	"beautystats/internal/storage"
)

// ReminderSummary counts what one reminder run did.
type ReminderSummary struct {
	Period  core.Period
	Checked int
	Missing int
	Sent    int
	Failed  int
}

// ReminderScanner mails every manager whose salon has no income for the
// previous month.
type ReminderScanner struct {
	repo        *storage.SQLiteRepository
	composer    *mail.Composer
	sender      mail.Sender
	concurrency int
	now         func() time.Time
}

func NewReminderScanner(repo *storage.SQLiteRepository, composer *mail.Composer, sender mail.Sender, concurrency int) *ReminderScanner {
	if concurrency < 1 {
		concurrency = 1
	}
	return &ReminderScanner{
		repo:        repo,
		composer:    composer,
		sender:      sender,
		concurrency: concurrency,
		now:         time.Now,
	}
}

// Run sends the reminders of the month before now. A failed send is logged
// and does not stop the others; the returned error reports how many failed.
func (s *ReminderScanner) Run(ctx context.Context) (ReminderSummary, error) {
	p := core.PreviousPeriod(s.now())
	summary := ReminderSummary{Period: p}

	contacts, err := s.repo.ListSalonContacts(ctx, p)
	if err != nil {
		return summary, fmt.Errorf("list salons: %w", err)
	}
	summary.Checked = len(contacts)

	slog.InfoContext(ctx, "Starting reminder run", "period", p.String(), "salons", len(contacts))

	var sent, failed atomic.Int64
	g := new(errgroup.Group)
	g.SetLimit(s.concurrency)

	for _, c := range contacts {
		if c.Submitted {
			continue
		}
		summary.Missing++
		if ctx.Err() != nil {
			failed.Add(1)
			continue
		}

		g.Go(func() error {
			if err := s.remind(ctx, c, p); err != nil {
				slog.ErrorContext(ctx, "Failed to send reminder",
					log.FieldSalonID, c.SalonID,
					log.FieldRecipient, c.ManagerEmail,
					log.FieldOperation, log.OpNotify,
					log.FieldError, err)
				failed.Add(1)
				return nil
			}
			sent.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	summary.Sent = int(sent.Load())
	summary.Failed = int(failed.Load())

	slog.InfoContext(ctx, "Reminder run completed",
		"period", p.String(),
		"checked", summary.Checked,
		"missing", summary.Missing,
		"sent", summary.Sent,
		"failed", summary.Failed)

	if summary.Failed > 0 {
		return summary, fmt.Errorf("%d of %d reminders failed", summary.Failed, summary.Missing)
	}
	return summary, nil
}

func (s *ReminderScanner) remind(ctx context.Context, c core.SalonContact, p core.Period) error {
	msg, err := s.composer.Reminder(c, p)
	if err != nil {
		return err
	}
	return s.sender.Send(ctx, msg)
}
