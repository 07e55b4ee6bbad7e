package service

import (
	"encoding/json"
	"strings"
	"time"

	"leadlift_backend/internal/submissions/domain"
	"leadlift_backend/internal/submissions/transport"
	"leadlift_backend/platform/apperr"
)

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseDateBound parses an optional date filter. Values without a zone are UTC.
// An empty value yields nil.
func ParseDateBound(field, raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, apperr.Validation("invalid date format").WithDetails(map[string]string{
		field: "expected an ISO-8601 date or timestamp",
	})
}

func toSubmissionResponse(s domain.Submission) transport.SubmissionResponse {
	formData := json.RawMessage(s.FormData)
	if len(formData) == 0 || !json.Valid(formData) {
		formData = json.RawMessage("{}")
	}

	return transport.SubmissionResponse{
		ID:                     s.ID,
		FormID:                 s.Form.FormID,
		FormType:               s.Form.FormType,
		FormURL:                s.Form.URL,
		FormPath:               s.Form.Path,
		FormTitle:              s.Form.Title,
		Email:                  s.Contact.Email,
		Name:                   s.Contact.Name,
		Phone:                  s.Contact.Phone,
		PhoneE164:              s.PhoneE164,
		UTMInitial:             toUTMResponse(s.Attribution.Initial),
		UTMRecent:              toUTMResponse(s.Attribution.Recent),
		PageJourney:            s.Form.PageJourney,
		SessionCount:           s.Engagement.SessionCount,
		EngagedDurationSeconds: s.Engagement.EngagedDurationSeconds,
		PagesVisited:           s.Engagement.PagesVisited,
		LeadScore:              s.LeadScore,
		FormData:               formData,
		SubmittedAt:            s.SubmittedAt.UTC().Format(time.RFC3339),
	}
}

func toUTMResponse(u domain.UTM) transport.UTMResponse {
	return transport.UTMResponse{
		Source:   u.Source,
		Medium:   u.Medium,
		Campaign: u.Campaign,
		Term:     u.Term,
		Content:  u.Content,
	}
}
