package backend

import (
	"context"
	"fmt"
	"log/slog"

	"beautystats/internal/amqp"
	"beautystats/internal/mail"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateSender implements Factory.CreateSender
func (f *DefaultFactory) CreateSender(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case LogBackend:
		f.logger.InfoContext(ctx, "Initialized log mail backend")
		return &BackendResult{Sender: mail.LogSender{}}, nil
	case SMTPBackend:
		f.logger.InfoContext(ctx, "Initialized SMTP mail backend",
			"host", config.SMTP.Host,
			"port", config.SMTP.Port)
		return &BackendResult{Sender: mail.NewSMTPSender(config.SMTP)}, nil
	case AMQPBackend:
		return f.createAMQPSender(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported mail backend: %s", config.Type)
	}
}

func (f *DefaultFactory) createAMQPSender(ctx context.Context, config Config) (*BackendResult, error) {
	client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize AMQP client: %w", err)
	}

	f.logger.InfoContext(ctx, "Initialized AMQP mail backend",
		"exchange", config.AMQPExchange,
		"queue", config.AMQPQueue)

	return &BackendResult{
		Sender:  client,
		Cleanup: client.Close,
	}, nil
}
