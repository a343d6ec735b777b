// Package backend selects how outgoing mail leaves the process.
package backend

import (
	"context"

	"beautystats/internal/mail"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the sender and an optional cleanup function
type BackendResult struct {
	Sender  mail.Sender
	Cleanup CleanupFunc
}

// Factory creates mail senders based on configuration
type Factory interface {
	CreateSender(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for sender creation
type Config struct {
	Type BackendType

	// smtp
	SMTP mail.SMTPConfig

	// amqp
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// BackendType names a mail backend
type BackendType string

const (
	LogBackend  BackendType = "log"
	SMTPBackend BackendType = "smtp"
	AMQPBackend BackendType = "amqp"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case LogBackend, SMTPBackend, AMQPBackend:
		return true
	default:
		return false
	}
}
