package backend

import (
	"fmt"

	"beautystats/internal/config"
	"beautystats/internal/mail"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	backendType := BackendType(appConfig.MailBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid mail backend in config: %s", appConfig.MailBackend)
	}

	return Config{
		Type: backendType,
		SMTP: mail.SMTPConfig{
			Host:     appConfig.SMTPHost,
			Port:     appConfig.SMTPPort,
			Username: appConfig.SMTPUsername,
			Password: appConfig.SMTPPassword,
			From:     appConfig.MailFrom,
		},
		AMQPURL:      appConfig.AMQPURL,
		AMQPExchange: appConfig.AMQPExchange,
		AMQPQueue:    appConfig.AMQPQueue,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid mail backend: %s", c.Type)
	}

	switch c.Type {
	case SMTPBackend:
		if c.SMTP.Host == "" {
			return fmt.Errorf("SMTP host is required for smtp backend")
		}
	case AMQPBackend:
		if c.AMQPURL == "" {
			return fmt.Errorf("AMQP URL is required for amqp backend")
		}
		if c.AMQPExchange == "" || c.AMQPQueue == "" {
			return fmt.Errorf("AMQP exchange and queue are required for amqp backend")
		}
	case LogBackend:
		// nothing to check
	}

	return nil
}

// GetBackendTypes returns all valid backend types
func GetBackendTypes() []BackendType {
	return []BackendType{LogBackend, SMTPBackend, AMQPBackend}
}
