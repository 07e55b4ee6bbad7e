// Package events defines the domain events exchanged between modules.
// The bus itself lives in platform/events.
package events

import (
	"leadlift_backend/platform/events"

	"github.com/google/uuid"
)

type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

var NewBaseEvent = events.NewBaseEvent

// SubmissionCaptured is published after a submission has been stored.
type SubmissionCaptured struct {
	BaseEvent
	SubmissionID uuid.UUID `json:"submission_id"`
	ClientID     uuid.UUID `json:"client_id"`
	PublicID     string    `json:"public_id"`
	ClientName   string    `json:"client_name"`
	FormID       string    `json:"form_id"`
	FormType     string    `json:"form_type"`
	LeadScore    int       `json:"lead_score"`
	Email        string    `json:"email,omitempty"`
	Name         string    `json:"name,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	Source       string    `json:"source"`
}

func (e SubmissionCaptured) EventName() string { return "submissions.captured" }

// UserCreated is published when an account is created by an operator or at bootstrap.
type UserCreated struct {
	BaseEvent
	UserID    uuid.UUID `json:"user_id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	CreatedBy uuid.UUID `json:"created_by"`
}

func (e UserCreated) EventName() string { return "auth.user.created" }

// ClientCreated is published when a new tenant is registered.
type ClientCreated struct {
	BaseEvent
	ClientID uuid.UUID `json:"client_id"`
	PublicID string    `json:"public_id"`
	Name     string    `json:"name"`
}

func (e ClientCreated) EventName() string { return "clients.created" }
