package transport

import (
	"encoding/json"

	"leadlift_backend/internal/submissions/domain"

	"github.com/google/uuid"
)

const (
	DefaultListLimit = 100
	MaxListLimit     = 1000
)

// IngestResponse is returned from the public submit endpoint.
type IngestResponse struct {
	SubmissionID   uuid.UUID             `json:"submission_id"`
	LeadScore      int                   `json:"lead_score"`
	ScoreBreakdown domain.ScoreBreakdown `json:"score_breakdown"`
}

// ListSubmissionsRequest binds the submission list query string.
type ListSubmissionsRequest struct {
	FormID   string `form:"form_id" validate:"omitempty,max=255"`
	FormType string `form:"form_type" validate:"omitempty,max=50"`
	DateFrom string `form:"date_from"`
	DateTo   string `form:"date_to"`
	Limit    *int   `form:"limit" validate:"omitempty,min=1,max=1000"`
}

// AnalyticsRequest binds the analytics query string.
type AnalyticsRequest struct {
	DateFrom string `form:"date_from"`
	DateTo   string `form:"date_to"`
}

// UTMResponse is one set of campaign parameters.
type UTMResponse struct {
	Source   *string `json:"source"`
	Medium   *string `json:"medium"`
	Campaign *string `json:"campaign"`
	Term     *string `json:"term"`
	Content  *string `json:"content"`
}

// SubmissionResponse is one stored submission.
type SubmissionResponse struct {
	ID                     uuid.UUID       `json:"id"`
	FormID                 string          `json:"form_id"`
	FormType               string          `json:"form_type"`
	FormURL                string          `json:"form_url"`
	FormPath               string          `json:"form_path"`
	FormTitle              string          `json:"form_title"`
	Email                  *string         `json:"email"`
	Name                   *string         `json:"name"`
	Phone                  *string         `json:"phone"`
	PhoneE164              *string         `json:"phone_e164"`
	UTMInitial             UTMResponse     `json:"utm_initial"`
	UTMRecent              UTMResponse     `json:"utm_recent"`
	PageJourney            *string         `json:"page_journey"`
	SessionCount           int             `json:"session_count"`
	EngagedDurationSeconds int             `json:"engaged_duration_seconds"`
	PagesVisited           int             `json:"pages_visited"`
	LeadScore              int             `json:"lead_score"`
	FormData               json.RawMessage `json:"form_data"`
	SubmittedAt            string          `json:"submitted_at"`
}

// SubmissionListResponse wraps a list of submissions.
type SubmissionListResponse struct {
	Items []SubmissionResponse `json:"items"`
	Total int                  `json:"total"`
}

// DetectedFormResponse summarizes one form seen in submissions.
type DetectedFormResponse struct {
	FormID         string  `json:"form_id"`
	FormType       string  `json:"form_type"`
	Submissions    int     `json:"submissions"`
	LastSubmission string  `json:"last_submission"`
	AvgScore       float64 `json:"avg_score"`
}
