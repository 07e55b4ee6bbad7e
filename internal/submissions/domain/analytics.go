package domain

import (
	"math"
	"time"

	"github.com/google/uuid"
)

const (
	// UnknownFormGroup labels submissions without a form id.
	UnknownFormGroup = "unknown"
	// DirectSource labels submissions without any utm_source.
	DirectSource = "Direct"
)

// Submission is one stored form submission.
type Submission struct {
	ID          uuid.UUID
	ClientID    uuid.UUID
	Form        FormMetadata
	Contact     Contact
	PhoneE164   *string
	Attribution Attribution
	Engagement  EngagementFactors
	LeadScore   int
	// FormData is the JSON archive of the non-metadata fields.
	FormData    []byte
	SubmittedAt time.Time
}

// Source returns the attribution source used for grouping.
func (s Submission) Source() string {
	if s.Attribution.Initial.Source != nil && *s.Attribution.Initial.Source != "" {
		return *s.Attribution.Initial.Source
	}
	if s.Attribution.Recent.Source != nil && *s.Attribution.Recent.Source != "" {
		return *s.Attribution.Recent.Source
	}
	return DirectSource
}

// FormStats summarizes one form.
type FormStats struct {
	FormID      string  `json:"form_id"`
	FormType    string  `json:"form_type"`
	Submissions int     `json:"submissions"`
	AvgScore    float64 `json:"avg_score"`
}

// SourceStats summarizes one attribution source.
type SourceStats struct {
	Source      string  `json:"source"`
	Submissions int     `json:"submissions"`
	AvgScore    float64 `json:"avg_score"`
}

// Summary is the analytics report for one client.
type Summary struct {
	TotalSubmissions int           `json:"total_submissions"`
	AvgLeadScore     float64       `json:"avg_lead_score"`
	Forms            []FormStats   `json:"forms"`
	Sources          []SourceStats `json:"sources"`
}

type accumulator struct {
	count int
	sum   int
}

func (a accumulator) mean() float64 {
	if a.count == 0 {
		return 0
	}
	return float64(a.sum) / float64(a.count)
}

// Aggregate builds a Summary. Groups appear in the order their first
// submission appears in rows. The overall mean is rounded to one decimal;
// group means are not rounded.
func Aggregate(rows []Submission) Summary {
	summary := Summary{
		Forms:   []FormStats{},
		Sources: []SourceStats{},
	}
	if len(rows) == 0 {
		return summary
	}

	var total accumulator
	formIndex := make(map[string]int)
	formAcc := make([]accumulator, 0)
	sourceIndex := make(map[string]int)
	sourceAcc := make([]accumulator, 0)

	for _, row := range rows {
		total.count++
		total.sum += row.LeadScore

		formID := row.Form.FormID
		if formID == "" {
			formID = UnknownFormGroup
		}
		i, ok := formIndex[formID]
		if !ok {
			i = len(summary.Forms)
			formIndex[formID] = i
			summary.Forms = append(summary.Forms, FormStats{FormID: formID, FormType: row.Form.FormType})
			formAcc = append(formAcc, accumulator{})
		}
		formAcc[i].count++
		formAcc[i].sum += row.LeadScore

		source := row.Source()
		j, ok := sourceIndex[source]
		if !ok {
			j = len(summary.Sources)
			sourceIndex[source] = j
			summary.Sources = append(summary.Sources, SourceStats{Source: source})
			sourceAcc = append(sourceAcc, accumulator{})
		}
		sourceAcc[j].count++
		sourceAcc[j].sum += row.LeadScore
	}

	summary.TotalSubmissions = total.count
	summary.AvgLeadScore = RoundTenth(total.mean())
	for i := range summary.Forms {
		summary.Forms[i].Submissions = formAcc[i].count
		summary.Forms[i].AvgScore = formAcc[i].mean()
	}
	for j := range summary.Sources {
		summary.Sources[j].Submissions = sourceAcc[j].count
		summary.Sources[j].AvgScore = sourceAcc[j].mean()
	}
	return summary
}

// RoundTenth rounds half away from zero to one decimal place.
func RoundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}
