package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"beautystats/internal/mail"
)

// MailMessage is a mail waiting in the queue for the mail worker.
type MailMessage struct {
	ID        string       `json:"id"`
	Mail      mail.Message `json:"mail"`
	Timestamp time.Time    `json:"timestamp"`
}

// NewMailMessage wraps msg with a fresh id.
func NewMailMessage(msg mail.Message) *MailMessage {
	return &MailMessage{
		ID:        uuid.NewString(),
		Mail:      msg,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *MailMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// MailMessageFromJSON decodes a queued message.
func MailMessageFromJSON(data []byte) (*MailMessage, error) {
	var msg MailMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
