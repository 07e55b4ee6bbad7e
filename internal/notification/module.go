// Package notification reacts to domain events with operator notifications.
// Domain modules publish events and never talk to email or the job queue.
package notification

import (
	"context"
	"errors"
	"slices"
	"strings"

	"leadlift_backend/internal/email"
	"leadlift_backend/internal/events"
	"leadlift_backend/internal/scheduler"
	"leadlift_backend/platform/config"
	"leadlift_backend/platform/logger"
)

type Module struct {
	sender     email.Sender
	enqueuer   scheduler.LeadAlertEnqueuer
	minScore   int
	recipients []string
	log        *logger.Logger
}

// New creates the notification module. When enqueuer is nil lead alerts are
// sent inline through sender.
func New(sender email.Sender, enqueuer scheduler.LeadAlertEnqueuer, cfg config.LeadAlertConfig, log *logger.Logger) *Module {
	if sender == nil {
		sender = email.NoopSender{}
	}
	return &Module{
		sender:     sender,
		enqueuer:   enqueuer,
		minScore:   cfg.GetLeadAlertMinScore(),
		recipients: uniqueRecipients(cfg.GetLeadAlertRecipients()),
		log:        log,
	}
}

func (m *Module) Name() string { return "notification" }

// RegisterHandlers subscribes to the events this module reacts to.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.SubmissionCaptured{}.EventName(), m)
	bus.Subscribe(events.UserCreated{}.EventName(), m)
	bus.Subscribe(events.ClientCreated{}.EventName(), m)

	m.log.Info("notification module registered event handlers",
		"lead_alert_min_score", m.minScore,
		"lead_alert_recipients", len(m.recipients),
		"queued", m.enqueuer != nil,
	)
}

// Handle routes events to the appropriate handler method.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.SubmissionCaptured:
		return m.handleSubmissionCaptured(ctx, e)
	case events.UserCreated:
		m.log.Info("audit: user created",
			"user_id", e.UserID,
			"username", e.Username,
			"role", e.Role,
			"created_by", e.CreatedBy,
		)
		return nil
	case events.ClientCreated:
		m.log.Info("audit: client created",
			"client_id", e.PublicID,
			"name", e.Name,
		)
		return nil
	default:
		m.log.Warn("unhandled event type", "event", event.EventName())
		return nil
	}
}

func (m *Module) handleSubmissionCaptured(ctx context.Context, e events.SubmissionCaptured) error {
	if e.LeadScore < m.minScore || len(m.recipients) == 0 {
		return nil
	}

	clientID := e.PublicID
	if clientID == "" {
		clientID = e.ClientID.String()
	}
	alert := email.LeadAlert{
		ClientName:  e.ClientName,
		ClientID:    clientID,
		FormID:      e.FormID,
		FormType:    e.FormType,
		LeadScore:   e.LeadScore,
		Name:        e.Name,
		Email:       e.Email,
		Phone:       e.Phone,
		Source:      e.Source,
		SubmittedAt: e.OccurredAt(),
	}

	var errs []error
	for _, recipient := range m.recipients {
		if err := m.deliver(ctx, recipient, alert); err != nil {
			m.log.Error("lead alert dispatch failed",
				"recipient", recipient,
				"form_id", e.FormID,
				"submission_id", e.SubmissionID,
				"error", err,
			)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *Module) deliver(ctx context.Context, recipient string, alert email.LeadAlert) error {
	if m.enqueuer != nil {
		return m.enqueuer.EnqueueLeadAlert(ctx, scheduler.LeadAlertPayload{Recipient: recipient, Alert: alert})
	}
	return m.sender.SendLeadAlert(ctx, recipient, alert)
}

func uniqueRecipients(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || slices.ContainsFunc(out, func(existing string) bool { return strings.EqualFold(existing, v) }) {
			continue
		}
		out = append(out, v)
	}
	return out
}
