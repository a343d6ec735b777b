package backend

import (
	"context"
	"testing"

	"beautystats/internal/config"
	"beautystats/internal/mail"
)

func TestFromAppConfig(t *testing.T) {
	cfg := &config.Config{
		MailBackend:  "smtp",
		MailFrom:     "noreply@jmcarre.com",
		SMTPHost:     "smtp.example.com",
		SMTPPort:     2525,
		AMQPExchange: "beautystats",
		AMQPQueue:    "mail",
	}

	bc, err := FromAppConfig(cfg)
	if err != nil {
		t.Fatalf("FromAppConfig() error = %v", err)
	}
	if bc.Type != SMTPBackend {
		t.Errorf("Type = %v, want smtp", bc.Type)
	}
	if bc.SMTP.Host != "smtp.example.com" || bc.SMTP.Port != 2525 || bc.SMTP.From != "noreply@jmcarre.com" {
		t.Errorf("unexpected SMTP config %+v", bc.SMTP)
	}

	if _, err := FromAppConfig(nil); err == nil {
		t.Error("FromAppConfig(nil) should fail")
	}
	if _, err := FromAppConfig(&config.Config{MailBackend: "fax"}); err == nil {
		t.Error("FromAppConfig() should reject an unknown backend")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"log", Config{Type: LogBackend}, false},
		{"smtp", Config{Type: SMTPBackend, SMTP: mail.SMTPConfig{Host: "h"}}, false},
		{"smtp without host", Config{Type: SMTPBackend}, true},
		{"amqp", Config{Type: AMQPBackend, AMQPURL: "amqp://x", AMQPExchange: "e", AMQPQueue: "q"}, false},
		{"amqp without url", Config{Type: AMQPBackend, AMQPExchange: "e", AMQPQueue: "q"}, true},
		{"amqp without queue", Config{Type: AMQPBackend, AMQPURL: "amqp://x", AMQPExchange: "e"}, true},
		{"unknown", Config{Type: "fax"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.config.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestFactory_CreateSender(t *testing.T) {
	f := NewFactory(nil)

	res, err := f.CreateSender(context.Background(), Config{Type: LogBackend})
	if err != nil {
		t.Fatalf("CreateSender(log) error = %v", err)
	}
	if _, ok := res.Sender.(mail.LogSender); !ok {
		t.Errorf("log backend sender is %T", res.Sender)
	}
	if res.Cleanup != nil {
		t.Error("log backend needs no cleanup")
	}

	res, err = f.CreateSender(context.Background(), Config{Type: SMTPBackend, SMTP: mail.SMTPConfig{Host: "smtp.example.com", Port: 25}})
	if err != nil {
		t.Fatalf("CreateSender(smtp) error = %v", err)
	}
	if _, ok := res.Sender.(*mail.SMTPSender); !ok {
		t.Errorf("smtp backend sender is %T", res.Sender)
	}

	if _, err := f.CreateSender(context.Background(), Config{Type: AMQPBackend}); err == nil {
		t.Error("CreateSender(amqp) without URL should fail")
	}
}
