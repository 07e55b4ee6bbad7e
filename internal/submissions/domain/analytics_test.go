package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
)

func row(formID, formType string, initial, recent *string, score int) Submission {
	return Submission{
		Form:        FormMetadata{FormID: formID, FormType: formType},
		Attribution: Attribution{Initial: UTM{Source: initial}, Recent: UTM{Source: recent}},
		LeadScore:   score,
	}
}

func TestAggregateEmpty(t *testing.T) {
	s := Aggregate(nil)

	raw, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"total_submissions":0,"avg_lead_score":0,"forms":[],"sources":[]}`
	if string(raw) != want {
		t.Fatalf("expected %s, got %s", want, raw)
	}
}

func TestAggregateGroupsInFirstOccurrenceOrder(t *testing.T) {
	rows := []Submission{
		row("newsletter", "newsletter", nil, nil, 20),
		row("contact", "contact", strPtr("google"), strPtr("bing"), 60),
		row("newsletter", "signup", nil, strPtr("bing"), 30),
		row("", "other", strPtr(""), nil, 45),
		row("contact", "contact", strPtr("google"), nil, 61),
	}

	s := Aggregate(rows)

	if s.TotalSubmissions != 5 {
		t.Fatalf("expected 5 submissions, got %d", s.TotalSubmissions)
	}
	// (20+60+30+45+61)/5 = 43.2
	if s.AvgLeadScore != 43.2 {
		t.Fatalf("expected avg 43.2, got %v", s.AvgLeadScore)
	}

	wantForms := []FormStats{
		{FormID: "newsletter", FormType: "newsletter", Submissions: 2, AvgScore: 25},
		{FormID: "contact", FormType: "contact", Submissions: 2, AvgScore: 60.5},
		{FormID: UnknownFormGroup, FormType: "other", Submissions: 1, AvgScore: 45},
	}
	if len(s.Forms) != len(wantForms) {
		t.Fatalf("expected %d forms, got %+v", len(wantForms), s.Forms)
	}
	for i, want := range wantForms {
		if s.Forms[i] != want {
			t.Fatalf("form %d: expected %+v, got %+v", i, want, s.Forms[i])
		}
	}

	wantSources := []SourceStats{
		{Source: DirectSource, Submissions: 2, AvgScore: 32.5},
		{Source: "google", Submissions: 2, AvgScore: 60.5},
		{Source: "bing", Submissions: 1, AvgScore: 30},
	}
	if len(s.Sources) != len(wantSources) {
		t.Fatalf("expected %d sources, got %+v", len(wantSources), s.Sources)
	}
	for i, want := range wantSources {
		if s.Sources[i] != want {
			t.Fatalf("source %d: expected %+v, got %+v", i, want, s.Sources[i])
		}
	}
}

func TestAggregateGroupMeansAreNotRounded(t *testing.T) {
	s := Aggregate([]Submission{
		row("f", "other", nil, nil, 10),
		row("f", "other", nil, nil, 10),
		row("f", "other", nil, nil, 11),
	})

	if s.AvgLeadScore != 10.3 {
		t.Fatalf("expected rounded overall avg 10.3, got %v", s.AvgLeadScore)
	}
	if s.Forms[0].AvgScore == 10.3 || s.Forms[0].AvgScore < 10.33 {
		t.Fatalf("expected unrounded form avg, got %v", s.Forms[0].AvgScore)
	}
}

func TestCaptureBuildsScoredSubmission(t *testing.T) {
	p := mustDecode(t, `{"_form_id":"quote","_form_type":"lead","email":"a@b.co","phone":"555","utm_source":"google","_lead_score_factors":{"session_count":3,"engaged_duration":130,"pages_visited":4,"has_utm_source":true,"form_complexity":6}}`)
	clientID := uuid.New()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.FixedZone("CET", 3600))

	sub, breakdown, err := Capture(clientID, p, now)
	if err != nil {
		t.Fatalf("capture: %v", err)
	}

	// 20 utm + 15 sessions + 20 duration + 15 pages + 10 complexity + 5 email + 10 phone
	if sub.LeadScore != 95 || breakdown.Total != 95 {
		t.Fatalf("expected score 95, got %d (%+v)", sub.LeadScore, breakdown)
	}
	if sub.ClientID != clientID || sub.Form.FormID != "quote" || sub.Form.FormType != "lead" {
		t.Fatalf("unexpected submission %+v", sub)
	}
	if sub.SubmittedAt.Location() != time.UTC {
		t.Fatal("expected UTC timestamp")
	}
	if string(sub.FormData) != `{"email":"a@b.co","phone":"555","utm_source":"google"}` {
		t.Fatalf("unexpected form data %s", sub.FormData)
	}
}
