package mail

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"text/template"

	"beautystats/internal/core"
)

//go:embed templates/*
var templateFS embed.FS

const (
	WelcomeSubject       = "Bienvenue chez BeautyConnect !"
	reminderSubjectStart = "Rappel - Saisie du chiffre d'affaires pour "
)

// Composer renders the mails of the application.
type Composer struct {
	from     string
	welcome  *template.Template
	reminder *htmltemplate.Template
}

func NewComposer(from string) (*Composer, error) {
	welcome, err := template.ParseFS(templateFS, "templates/welcome.txt")
	if err != nil {
		return nil, fmt.Errorf("parse welcome template: %w", err)
	}
	reminder, err := htmltemplate.ParseFS(templateFS, "templates/reminder.html")
	if err != nil {
		return nil, fmt.Errorf("parse reminder template: %w", err)
	}
	return &Composer{from: from, welcome: welcome, reminder: reminder}, nil
}

// Welcome is sent once a manager and their salon are registered.
func (c *Composer) Welcome(m core.Manager, s core.Salon) (Message, error) {
	var buf bytes.Buffer
	data := struct {
		FirstName string
		SalonName string
	}{m.FirstName, s.Name}
	if err := c.welcome.Execute(&buf, data); err != nil {
		return Message{}, fmt.Errorf("render welcome mail: %w", err)
	}
	return Message{
		From:    c.from,
		To:      m.Email,
		Subject: WelcomeSubject,
		Body:    buf.String(),
	}, nil
}

// Reminder asks a manager to submit the income of p.
func (c *Composer) Reminder(contact core.SalonContact, p core.Period) (Message, error) {
	var buf bytes.Buffer
	data := struct {
		ManagerName string
		SalonName   string
		Month       string
	}{contact.ManagerLastName, contact.SalonName, p.Label()}
	if err := c.reminder.Execute(&buf, data); err != nil {
		return Message{}, fmt.Errorf("render reminder mail: %w", err)
	}
	return Message{
		From:    c.from,
		To:      contact.ManagerEmail,
		Subject: ReminderSubject(p),
		Body:    buf.String(),
		HTML:    true,
	}, nil
}

// ReminderSubject is the subject line of the reminder for p.
func ReminderSubject(p core.Period) string {
	return reminderSubjectStart + p.Label()
}
