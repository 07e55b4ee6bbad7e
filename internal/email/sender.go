// Package email renders and delivers operator notifications.
package email

import (
	"context"
	"fmt"
	"time"

	"leadlift_backend/platform/config"
	"leadlift_backend/platform/logger"
)

// LeadAlert describes a captured submission worth an operator's attention.
type LeadAlert struct {
	ClientName  string    `json:"client_name"`
	// ClientID is the public tenant id shown in the dashboard.
	ClientID    string    `json:"client_id"`
	FormID      string    `json:"form_id"`
	FormType    string    `json:"form_type"`
	LeadScore   int       `json:"lead_score"`
	Name        string    `json:"name,omitempty"`
	Email       string    `json:"email,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	Source      string    `json:"source"`
	SubmittedAt time.Time `json:"submitted_at"`
}

type Sender interface {
	SendLeadAlert(ctx context.Context, toEmail string, alert LeadAlert) error
}

type NoopSender struct{}

func (NoopSender) SendLeadAlert(context.Context, string, LeadAlert) error {
	return nil
}

// NewSender returns an SMTP sender when SMTP is configured, otherwise a sender
// that drops every message.
func NewSender(cfg config.EmailConfig, log *logger.Logger) Sender {
	if !cfg.IsEmailEnabled() {
		log.Info("smtp not configured, email delivery disabled")
		return NoopSender{}
	}
	return NewSMTPSender(
		cfg.GetSMTPHost(),
		cfg.GetSMTPPort(),
		cfg.GetSMTPUsername(),
		cfg.GetSMTPPassword(),
		cfg.GetEmailFromAddress(),
		cfg.GetEmailFromName(),
	)
}

func renderLeadAlert(alert LeadAlert) (subject, body string, err error) {
	client := alert.ClientName
	if client == "" {
		client = alert.ClientID
	}
	body, err = execute(leadAlertTemplate, leadAlertEmailData{
		layout: layout{
			Title:      leadAlertTitle,
			Heading:    leadAlertTitle,
			Subheading: client,
		},
		ClientName:  client,
		FormID:      alert.FormID,
		FormType:    alert.FormType,
		LeadScore:   alert.LeadScore,
		Name:        alert.Name,
		Email:       alert.Email,
		Phone:       alert.Phone,
		Source:      alert.Source,
		SubmittedAt: alert.SubmittedAt.UTC().Format("2006-01-02 15:04 MST"),
	})
	if err != nil {
		return "", "", err
	}
	return fmt.Sprintf(subjectLeadAlertFmt, alert.LeadScore, client), body, nil
}
