// Package mail composes and delivers the messages sent to salon managers.
package mail

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

var ErrInvalidMessage = errors.New("invalid mail message")

// Message is one outgoing mail.
type Message struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
	HTML    bool   `json:"html"`
}

func (m Message) Validate() error {
	var problems []string
	if strings.TrimSpace(m.To) == "" {
		problems = append(problems, "recipient is empty")
	}
	if strings.ContainsAny(m.To, "\r\n") || strings.ContainsAny(m.Subject, "\r\n") {
		problems = append(problems, "header contains a line break")
	}
	if strings.TrimSpace(m.Subject) == "" {
		problems = append(problems, "subject is empty")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidMessage, strings.Join(problems, ", "))
	}
	return nil
}

// Sender delivers a message, either directly or by handing it to a queue.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// LogSender writes messages to the log instead of delivering them.
type LogSender struct{}

func (LogSender) Send(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Mail not delivered, logging only",
		"to", msg.To,
		"subject", msg.Subject,
		"html", msg.HTML,
		"body_bytes", len(msg.Body))
	return nil
}
