// Package service implements submission ingestion, listing and analytics.
package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"leadlift_backend/internal/events"
	"leadlift_backend/internal/submissions/domain"
	"leadlift_backend/internal/submissions/repository"
	"leadlift_backend/internal/submissions/transport"
	"leadlift_backend/platform/apperr"
	"leadlift_backend/platform/cache"
	"leadlift_backend/platform/logger"
	"leadlift_backend/platform/metrics"
	"leadlift_backend/platform/phone"

	"github.com/google/uuid"
)

const (
	msgClientNotFound  = "client not found"
	msgInvalidPayload  = "invalid payload"
	msgStorageFailed   = "failed to store submission"
	msgQueryFailed     = "failed to load submissions"
	analyticsKeyPrefix = "analytics:"
)

// Tenant is the client a submission belongs to.
type Tenant struct {
	ID       uuid.UUID
	PublicID string
	Name     string
}

// TenantResolver looks up clients by their public identifier.
// It returns domain.ErrTenantNotFound when no client matches.
type TenantResolver interface {
	FindClientByPublicID(ctx context.Context, publicID string) (Tenant, error)
}

// Store is the submission persistence used by the service.
type Store interface {
	InsertSubmission(ctx context.Context, s domain.Submission) (uuid.UUID, error)
	QuerySubmissions(ctx context.Context, clientID uuid.UUID, f repository.Filter, limit int) ([]domain.Submission, error)
	DetectedForms(ctx context.Context, clientID uuid.UUID) ([]repository.DetectedForm, error)
}

// SummaryCache caches analytics summaries. platform/cache.Cache satisfies it.
type SummaryCache interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any) error
	DeletePrefix(ctx context.Context, prefix string) error
}

// Service coordinates the submission use cases.
type Service struct {
	tenants     TenantResolver
	store       Store
	bus         events.Bus
	recorder    metrics.IngestRecorder
	log         *logger.Logger
	phoneRegion string
	cache       SummaryCache
	now         func() time.Time
}

// New creates the submissions service. Analytics caching is off until SetCache is called.
func New(tenants TenantResolver, store Store, bus events.Bus, recorder metrics.IngestRecorder, log *logger.Logger, phoneRegion string) *Service {
	if recorder == nil {
		recorder = metrics.NopRecorder{}
	}
	return &Service{
		tenants:     tenants,
		store:       store,
		bus:         bus,
		recorder:    recorder,
		log:         log,
		phoneRegion: phoneRegion,
		now:         time.Now,
	}
}

// SetCache enables analytics caching.
func (s *Service) SetCache(c SummaryCache) {
	s.cache = c
}

// Ingest normalizes, scores and stores one raw submission body.
func (s *Service) Ingest(ctx context.Context, publicClientID string, body []byte) (transport.IngestResponse, error) {
	tenant, err := s.resolve(ctx, publicClientID)
	if err != nil {
		s.reject(publicClientID, "tenant_not_found", err)
		return transport.IngestResponse{}, err
	}

	payload, err := domain.DecodePayload(body)
	if err != nil {
		s.reject(publicClientID, "invalid_payload", err)
		return transport.IngestResponse{}, apperr.Wrap(apperr.KindBadRequest, msgInvalidPayload, err).WithOp("submissions.Ingest")
	}

	sub, breakdown, err := domain.Capture(tenant.ID, payload, s.now())
	if err != nil {
		s.reject(publicClientID, "invalid_payload", err)
		return transport.IngestResponse{}, apperr.Wrap(apperr.KindBadRequest, msgInvalidPayload, err).WithOp("submissions.Ingest")
	}
	sub.ID = uuid.New()
	if sub.Contact.Phone != nil {
		if e164, ok := phone.NormalizeE164(*sub.Contact.Phone, s.phoneRegion); ok {
			sub.PhoneE164 = &e164
		}
	}

	id, err := s.store.InsertSubmission(ctx, sub)
	if err != nil {
		s.log.DatabaseError("insert_submission", err)
		s.reject(publicClientID, "storage", err)
		return transport.IngestResponse{}, apperr.Wrap(apperr.KindInternal, msgStorageFailed, fmt.Errorf("%w: %w", domain.ErrStorage, err)).WithOp("submissions.Ingest")
	}
	sub.ID = id

	s.recorder.Captured(sub.Form.FormType, sub.LeadScore)
	s.log.WithContext(ctx).SubmissionCaptured(tenant.ID.String(), sub.Form.FormID, id.String(), sub.LeadScore)
	s.invalidateAnalytics(ctx, tenant.ID)

	if s.bus != nil {
		s.bus.Publish(ctx, capturedEvent(tenant, sub))
	}

	return transport.IngestResponse{
		SubmissionID:   id,
		LeadScore:      sub.LeadScore,
		ScoreBreakdown: breakdown,
	}, nil
}

// ListSubmissions returns a client's submissions newest first.
func (s *Service) ListSubmissions(ctx context.Context, publicClientID string, req transport.ListSubmissionsRequest) (transport.SubmissionListResponse, error) {
	tenant, err := s.resolve(ctx, publicClientID)
	if err != nil {
		return transport.SubmissionListResponse{}, err
	}

	filter := repository.Filter{
		FormID:   optional(req.FormID),
		FormType: optional(req.FormType),
	}
	if filter.DateFrom, err = ParseDateBound("date_from", req.DateFrom); err != nil {
		return transport.SubmissionListResponse{}, err
	}
	if filter.DateTo, err = ParseDateBound("date_to", req.DateTo); err != nil {
		return transport.SubmissionListResponse{}, err
	}

	limit := transport.DefaultListLimit
	if req.Limit != nil {
		limit = min(*req.Limit, transport.MaxListLimit)
	}

	rows, err := s.store.QuerySubmissions(ctx, tenant.ID, filter, limit)
	if err != nil {
		s.log.DatabaseError("query_submissions", err)
		return transport.SubmissionListResponse{}, apperr.Wrap(apperr.KindInternal, msgQueryFailed, err)
	}

	items := make([]transport.SubmissionResponse, 0, len(rows))
	for _, row := range rows {
		items = append(items, toSubmissionResponse(row))
	}
	return transport.SubmissionListResponse{Items: items, Total: len(items)}, nil
}

// DetectedForms lists the forms that have produced submissions for a client.
func (s *Service) DetectedForms(ctx context.Context, publicClientID string) ([]transport.DetectedFormResponse, error) {
	tenant, err := s.resolve(ctx, publicClientID)
	if err != nil {
		return nil, err
	}

	forms, err := s.store.DetectedForms(ctx, tenant.ID)
	if err != nil {
		s.log.DatabaseError("detected_forms", err)
		return nil, apperr.Wrap(apperr.KindInternal, msgQueryFailed, err)
	}

	out := make([]transport.DetectedFormResponse, 0, len(forms))
	for _, f := range forms {
		out = append(out, transport.DetectedFormResponse{
			FormID:         f.FormID,
			FormType:       f.FormType,
			Submissions:    f.Submissions,
			LastSubmission: f.LastSubmission.UTC().Format(time.RFC3339),
			AvgScore:       f.AvgScore,
		})
	}
	return out, nil
}

// Analytics summarizes a client's submissions between the optional inclusive bounds.
func (s *Service) Analytics(ctx context.Context, publicClientID string, from, to *time.Time) (domain.Summary, error) {
	tenant, err := s.resolve(ctx, publicClientID)
	if err != nil {
		return domain.Summary{}, err
	}

	key := analyticsKey(tenant.ID, from, to)
	if s.cache != nil {
		var cached domain.Summary
		err := s.cache.Get(ctx, key, &cached)
		switch {
		case err == nil:
			s.recorder.CacheLookup(true)
			return cached, nil
		case errors.Is(err, cache.ErrMiss):
			s.recorder.CacheLookup(false)
		default:
			s.log.Warn("analytics cache read failed", "error", err, "key", key)
		}
	}

	rows, err := s.store.QuerySubmissions(ctx, tenant.ID, repository.Filter{DateFrom: from, DateTo: to}, 0)
	if err != nil {
		s.log.DatabaseError("analytics_query", err)
		return domain.Summary{}, apperr.Wrap(apperr.KindInternal, msgQueryFailed, err)
	}

	// Rows come newest first; groups are ordered by first submission.
	slices.Reverse(rows)
	summary := domain.Aggregate(rows)

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, summary); err != nil {
			s.log.Warn("analytics cache write failed", "error", err, "key", key)
		}
	}
	return summary, nil
}

func (s *Service) resolve(ctx context.Context, publicClientID string) (Tenant, error) {
	tenant, err := s.tenants.FindClientByPublicID(ctx, publicClientID)
	if err == nil {
		return tenant, nil
	}
	if errors.Is(err, domain.ErrTenantNotFound) {
		return Tenant{}, apperr.Wrap(apperr.KindNotFound, msgClientNotFound, err)
	}
	s.log.DatabaseError("find_client", err)
	return Tenant{}, apperr.Wrap(apperr.KindInternal, "failed to resolve client", err)
}

func (s *Service) reject(publicClientID, reason string, err error) {
	s.recorder.Rejected(reason)
	s.log.SubmissionRejected(publicClientID, reason, err)
}

func (s *Service) invalidateAnalytics(ctx context.Context, tenantID uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeletePrefix(ctx, analyticsKeyPrefix+tenantID.String()+":"); err != nil {
		s.log.Warn("analytics cache invalidation failed", "error", err, "client_id", tenantID)
	}
}

func analyticsKey(tenantID uuid.UUID, from, to *time.Time) string {
	return analyticsKeyPrefix + tenantID.String() + ":" + boundKey(from) + ":" + boundKey(to)
}

func boundKey(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func capturedEvent(tenant Tenant, sub domain.Submission) events.SubmissionCaptured {
	return events.SubmissionCaptured{
		BaseEvent:    events.NewBaseEvent(),
		SubmissionID: sub.ID,
		ClientID:     tenant.ID,
		PublicID:     tenant.PublicID,
		ClientName:   tenant.Name,
		FormID:       sub.Form.FormID,
		FormType:     sub.Form.FormType,
		LeadScore:    sub.LeadScore,
		Email:        deref(sub.Contact.Email),
		Name:         deref(sub.Contact.Name),
		Phone:        deref(sub.Contact.Phone),
		Source:       sub.Source(),
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
