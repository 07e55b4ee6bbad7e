// Package repository persists form submissions in PostgreSQL.
package repository

import (
	"context"
	"time"

	"leadlift_backend/internal/submissions/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Filter narrows a submission query. Nil fields are ignored; date bounds are inclusive.
type Filter struct {
	FormID   *string
	FormType *string
	DateFrom *time.Time
	DateTo   *time.Time
}

// DetectedForm summarizes one (form_id, form_type) pair seen for a client.
type DetectedForm struct {
	FormID         string
	FormType       string
	Submissions    int
	LastSubmission time.Time
	AvgScore       float64
}

// Repository is the pgx-backed submission store.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a Repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const insertSubmissionQuery = `
	INSERT INTO submissions (
		id, client_id, form_id, form_type, form_url, form_path, form_title,
		email, name, phone, phone_e164,
		utm_source_initial, utm_medium_initial, utm_campaign_initial, utm_term_initial, utm_content_initial,
		utm_source_recent, utm_medium_recent, utm_campaign_recent, utm_term_recent, utm_content_recent,
		page_journey, session_count, engaged_duration_seconds, pages_visited,
		lead_score, form_data, submitted_at
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7,
		$8, $9, $10, $11,
		$12, $13, $14, $15, $16,
		$17, $18, $19, $20, $21,
		$22, $23, $24, $25,
		$26, $27::json, $28
	)
	RETURNING id`

const submissionColumns = `
	id, client_id, form_id, form_type, form_url, form_path, form_title,
	email, name, phone, phone_e164,
	utm_source_initial, utm_medium_initial, utm_campaign_initial, utm_term_initial, utm_content_initial,
	utm_source_recent, utm_medium_recent, utm_campaign_recent, utm_term_recent, utm_content_recent,
	page_journey, session_count, engaged_duration_seconds, pages_visited,
	lead_score, form_data::text, submitted_at`

const querySubmissionsQuery = `
	SELECT` + submissionColumns + `
	FROM submissions
	WHERE client_id = $1
		AND ($2::text IS NULL OR form_id = $2)
		AND ($3::text IS NULL OR form_type = $3)
		AND ($4::timestamptz IS NULL OR submitted_at >= $4)
		AND ($5::timestamptz IS NULL OR submitted_at <= $5)
	ORDER BY submitted_at DESC, id
	LIMIT $6::int`

const detectedFormsQuery = `
	SELECT form_id, form_type, COUNT(*)::int, MAX(submitted_at), ROUND(AVG(lead_score)::numeric, 1)::float8
	FROM submissions
	WHERE client_id = $1
	GROUP BY form_id, form_type
	ORDER BY MAX(submitted_at) DESC`

const countByFormQuery = `
	SELECT COUNT(*)::int
	FROM submissions
	WHERE client_id = $1 AND form_id = $2`

// InsertSubmission stores s in a single statement and returns its ID.
func (r *Repository) InsertSubmission(ctx context.Context, s domain.Submission) (uuid.UUID, error) {
	a := s.Attribution
	var id uuid.UUID
	err := r.pool.QueryRow(ctx, insertSubmissionQuery,
		s.ID, s.ClientID, s.Form.FormID, s.Form.FormType, s.Form.URL, s.Form.Path, s.Form.Title,
		s.Contact.Email, s.Contact.Name, s.Contact.Phone, s.PhoneE164,
		a.Initial.Source, a.Initial.Medium, a.Initial.Campaign, a.Initial.Term, a.Initial.Content,
		a.Recent.Source, a.Recent.Medium, a.Recent.Campaign, a.Recent.Term, a.Recent.Content,
		s.Form.PageJourney, s.Engagement.SessionCount, s.Engagement.EngagedDurationSeconds, s.Engagement.PagesVisited,
		s.LeadScore, string(s.FormData), s.SubmittedAt,
	).Scan(&id)
	return id, err
}

// QuerySubmissions returns a client's submissions newest first.
// A limit of zero or less returns every match.
func (r *Repository) QuerySubmissions(ctx context.Context, clientID uuid.UUID, f Filter, limit int) ([]domain.Submission, error) {
	var limitArg *int
	if limit > 0 {
		limitArg = &limit
	}

	rows, err := r.pool.Query(ctx, querySubmissionsQuery, clientID, f.FormID, f.FormType, f.DateFrom, f.DateTo, limitArg)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanSubmission)
}

// DetectedForms groups a client's submissions by form, most recently active first.
func (r *Repository) DetectedForms(ctx context.Context, clientID uuid.UUID) ([]DetectedForm, error) {
	rows, err := r.pool.Query(ctx, detectedFormsQuery, clientID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (DetectedForm, error) {
		var d DetectedForm
		err := row.Scan(&d.FormID, &d.FormType, &d.Submissions, &d.LastSubmission, &d.AvgScore)
		return d, err
	})
}

// CountByForm counts a client's submissions for one form ID.
func (r *Repository) CountByForm(ctx context.Context, clientID uuid.UUID, formID string) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, countByFormQuery, clientID, formID).Scan(&n)
	return n, err
}

func scanSubmission(row pgx.CollectableRow) (domain.Submission, error) {
	var (
		s        domain.Submission
		formData string
	)
	a := &s.Attribution
	err := row.Scan(
		&s.ID, &s.ClientID, &s.Form.FormID, &s.Form.FormType, &s.Form.URL, &s.Form.Path, &s.Form.Title,
		&s.Contact.Email, &s.Contact.Name, &s.Contact.Phone, &s.PhoneE164,
		&a.Initial.Source, &a.Initial.Medium, &a.Initial.Campaign, &a.Initial.Term, &a.Initial.Content,
		&a.Recent.Source, &a.Recent.Medium, &a.Recent.Campaign, &a.Recent.Term, &a.Recent.Content,
		&s.Form.PageJourney, &s.Engagement.SessionCount, &s.Engagement.EngagedDurationSeconds, &s.Engagement.PagesVisited,
		&s.LeadScore, &formData, &s.SubmittedAt,
	)
	if err != nil {
		return domain.Submission{}, err
	}
	s.FormData = []byte(formData)
	s.SubmittedAt = s.SubmittedAt.UTC()
	return s, nil
}
