package domain

import (
	"time"

	"github.com/google/uuid"
)

// Capture normalizes and scores a decoded payload for clientID. The caller
// assigns the ID and any derived fields such as PhoneE164.
func Capture(clientID uuid.UUID, p Payload, now time.Time) (Submission, ScoreBreakdown, error) {
	formData, err := p.RawFormData()
	if err != nil {
		return Submission{}, ScoreBreakdown{}, err
	}

	contact := NormalizeContact(p)
	engagement := ExtractEngagement(p)
	breakdown := Evaluate(engagement, contact)

	return Submission{
		ClientID:    clientID,
		Form:        ExtractFormMetadata(p),
		Contact:     contact,
		Attribution: NormalizeAttribution(p),
		Engagement:  engagement,
		LeadScore:   breakdown.Total,
		FormData:    formData,
		SubmittedAt: now.UTC(),
	}, breakdown, nil
}
