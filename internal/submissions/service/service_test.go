package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"leadlift_backend/internal/events"
	"leadlift_backend/internal/submissions/domain"
	"leadlift_backend/internal/submissions/repository"
	"leadlift_backend/internal/submissions/transport"
	"leadlift_backend/platform/apperr"
	"leadlift_backend/platform/cache"
	"leadlift_backend/platform/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const publicID = "a1b2c3d4"

type fakeTenants struct {
	tenants map[string]Tenant
	err     error
}

func (f *fakeTenants) FindClientByPublicID(_ context.Context, id string) (Tenant, error) {
	if f.err != nil {
		return Tenant{}, f.err
	}
	t, ok := f.tenants[id]
	if !ok {
		return Tenant{}, domain.ErrTenantNotFound
	}
	return t, nil
}

type fakeStore struct {
	mu        sync.Mutex
	rows      []domain.Submission
	insertErr error
	queries   int
	lastLimit int
}

func (f *fakeStore) InsertSubmission(_ context.Context, s domain.Submission) (uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return uuid.Nil, f.insertErr
	}
	f.rows = append(f.rows, s)
	return s.ID, nil
}

func (f *fakeStore) QuerySubmissions(_ context.Context, clientID uuid.UUID, filter repository.Filter, limit int) ([]domain.Submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries++
	f.lastLimit = limit

	var out []domain.Submission
	for _, row := range f.rows {
		if row.ClientID != clientID {
			continue
		}
		if filter.FormID != nil && row.Form.FormID != *filter.FormID {
			continue
		}
		if filter.FormType != nil && row.Form.FormType != *filter.FormType {
			continue
		}
		if filter.DateFrom != nil && row.SubmittedAt.Before(*filter.DateFrom) {
			continue
		}
		if filter.DateTo != nil && row.SubmittedAt.After(*filter.DateTo) {
			continue
		}
		out = append(out, row)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].SubmittedAt.After(out[j].SubmittedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStore) DetectedForms(context.Context, uuid.UUID) ([]repository.DetectedForm, error) {
	return nil, nil
}

type fakeRecorder struct {
	captured []int
	rejected []string
	hits     int
	misses   int
}

func (f *fakeRecorder) Captured(_ string, score int) { f.captured = append(f.captured, score) }
func (f *fakeRecorder) Rejected(reason string)       { f.rejected = append(f.rejected, reason) }
func (f *fakeRecorder) CacheLookup(hit bool) {
	if hit {
		f.hits++
	} else {
		f.misses++
	}
}

type fixture struct {
	svc      *Service
	store    *fakeStore
	recorder *fakeRecorder
	bus      *events.InMemoryBus
	tenant   Tenant
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := logger.NewWithWriter("production", &bytes.Buffer{})
	tenant := Tenant{ID: uuid.New(), PublicID: publicID, Name: "Acme"}
	store := &fakeStore{}
	recorder := &fakeRecorder{}
	bus := events.NewInMemoryBus(log)
	svc := New(&fakeTenants{tenants: map[string]Tenant{publicID: tenant}}, store, bus, recorder, log, "US")
	return &fixture{svc: svc, store: store, recorder: recorder, bus: bus, tenant: tenant}
}

func TestIngestStoresScoredSubmission(t *testing.T) {
	f := newFixture(t)
	var published []events.SubmissionCaptured
	var mu sync.Mutex
	f.bus.Subscribe(events.SubmissionCaptured{}.EventName(), events.HandlerFunc(func(_ context.Context, e events.Event) error {
		mu.Lock()
		defer mu.Unlock()
		published = append(published, e.(events.SubmissionCaptured))
		return nil
	}))

	body := `{"_form_id":"contact","_form_type":"contact","email":"jane@example.com","name":"Jane","phone":"(202) 456-1111","utm_source":"google"}`
	res, err := f.svc.Ingest(context.Background(), publicID, []byte(body))
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	f.bus.Wait()

	// 20 utm + 5 sessions + 5 duration + 5 pages + 0 complexity + 20 contact
	if res.LeadScore != 55 || res.ScoreBreakdown.Total != 55 {
		t.Fatalf("expected score 55, got %d", res.LeadScore)
	}
	if len(f.store.rows) != 1 {
		t.Fatalf("expected one stored row, got %d", len(f.store.rows))
	}
	row := f.store.rows[0]
	if row.ID != res.SubmissionID || row.ClientID != f.tenant.ID {
		t.Fatalf("unexpected stored row %+v", row)
	}
	if row.PhoneE164 == nil || *row.PhoneE164 != "+12024561111" {
		t.Fatalf("expected derived E.164 phone, got %v", row.PhoneE164)
	}
	if *row.Contact.Phone != "(202) 456-1111" {
		t.Fatalf("expected verbatim phone, got %s", *row.Contact.Phone)
	}
	if len(f.recorder.captured) != 1 || f.recorder.captured[0] != 55 {
		t.Fatalf("expected capture metric, got %v", f.recorder.captured)
	}
	if len(published) != 1 || published[0].SubmissionID != res.SubmissionID || published[0].Source != "google" {
		t.Fatalf("expected captured event, got %+v", published)
	}
}

func TestIngestUnknownTenantWritesNothing(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Ingest(context.Background(), "ffffffff", []byte(`{"email":"a@b.co"}`))
	if !errors.Is(err, domain.ErrTenantNotFound) {
		t.Fatalf("expected ErrTenantNotFound, got %v", err)
	}
	if apperr.GetKind(err) != apperr.KindNotFound {
		t.Fatalf("expected not found kind, got %v", apperr.GetKind(err))
	}
	if len(f.store.rows) != 0 {
		t.Fatal("expected no stored rows")
	}
	if len(f.recorder.rejected) != 1 || f.recorder.rejected[0] != "tenant_not_found" {
		t.Fatalf("unexpected rejections %v", f.recorder.rejected)
	}
}

func TestIngestInvalidPayloadWritesNothing(t *testing.T) {
	f := newFixture(t)

	for _, body := range []string{"", "{}", "[1,2]", "not json"} {
		_, err := f.svc.Ingest(context.Background(), publicID, []byte(body))
		if !errors.Is(err, domain.ErrInvalidPayload) {
			t.Fatalf("body %q: expected ErrInvalidPayload, got %v", body, err)
		}
		if e, ok := apperr.As(err); !ok || e.HTTPStatus() != 400 {
			t.Fatalf("body %q: expected a 400 error, got %v", body, err)
		}
	}
	if len(f.store.rows) != 0 {
		t.Fatal("expected no stored rows")
	}
}

func TestIngestStorageFailureIsTypedAndNotRetried(t *testing.T) {
	f := newFixture(t)
	f.store.insertErr = errors.New("connection reset")

	_, err := f.svc.Ingest(context.Background(), publicID, []byte(`{"email":"a@b.co"}`))
	if !errors.Is(err, domain.ErrStorage) {
		t.Fatalf("expected ErrStorage, got %v", err)
	}
	if apperr.GetKind(err) != apperr.KindInternal {
		t.Fatalf("expected internal kind, got %v", apperr.GetKind(err))
	}
	if len(f.recorder.rejected) != 1 || f.recorder.rejected[0] != "storage" {
		t.Fatalf("unexpected rejections %v", f.recorder.rejected)
	}
}

func TestListSubmissionsAppliesFiltersAndLimit(t *testing.T) {
	f := newFixture(t)
	base := time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)
	for i, formID := range []string{"contact", "newsletter", "contact", "contact"} {
		f.store.rows = append(f.store.rows, domain.Submission{
			ID:          uuid.New(),
			ClientID:    f.tenant.ID,
			Form:        domain.FormMetadata{FormID: formID, FormType: "other"},
			FormData:    []byte(`{"i":` + strconv.Itoa(i) + `}`),
			SubmittedAt: base.Add(time.Duration(i) * 24 * time.Hour),
		})
	}

	limit := 2
	res, err := f.svc.ListSubmissions(context.Background(), publicID, transport.ListSubmissionsRequest{
		FormID:   "contact",
		DateFrom: "2025-01-10",
		Limit:    &limit,
	})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if res.Total != 2 {
		t.Fatalf("expected 2 items, got %d", res.Total)
	}
	if res.Items[0].SubmittedAt != "2025-01-13T09:00:00Z" || res.Items[1].SubmittedAt != "2025-01-12T09:00:00Z" {
		t.Fatalf("expected newest first, got %s then %s", res.Items[0].SubmittedAt, res.Items[1].SubmittedAt)
	}
	if string(res.Items[0].FormData) != `{"i":3}` {
		t.Fatalf("unexpected form data %s", res.Items[0].FormData)
	}

	if _, err := f.svc.ListSubmissions(context.Background(), publicID, transport.ListSubmissionsRequest{}); err != nil {
		t.Fatalf("list: %v", err)
	}
	if f.store.lastLimit != transport.DefaultListLimit {
		t.Fatalf("expected default limit, got %d", f.store.lastLimit)
	}
}

func TestListSubmissionsRejectsMalformedDate(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.ListSubmissions(context.Background(), publicID, transport.ListSubmissionsRequest{DateTo: "10/01/2025"})
	if apperr.GetKind(err) != apperr.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestParseDateBoundLayouts(t *testing.T) {
	cases := map[string]time.Time{
		"2025-03-01":                time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		"2025-03-01T10:30:00":       time.Date(2025, 3, 1, 10, 30, 0, 0, time.UTC),
		"2025-03-01T10:30:00+01:00": time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC),
		"2025-03-01T10:30:00.5Z":    time.Date(2025, 3, 1, 10, 30, 0, 500000000, time.UTC),
	}
	for raw, want := range cases {
		got, err := ParseDateBound("date_from", raw)
		if err != nil {
			t.Fatalf("%s: %v", raw, err)
		}
		if !got.Equal(want) {
			t.Fatalf("%s: expected %v, got %v", raw, want, got)
		}
	}

	if got, err := ParseDateBound("date_from", "  "); got != nil || err != nil {
		t.Fatalf("expected nil bound for blank input, got %v %v", got, err)
	}
}

func TestAnalyticsUnknownTenant(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Analytics(context.Background(), "00000000", nil, nil)
	if !errors.Is(err, domain.ErrTenantNotFound) {
		t.Fatalf("expected ErrTenantNotFound, got %v", err)
	}
}

func TestAnalyticsRespectsBounds(t *testing.T) {
	f := newFixture(t)
	for i, score := range []int{20, 40, 90} {
		f.store.rows = append(f.store.rows, domain.Submission{
			ID:          uuid.New(),
			ClientID:    f.tenant.ID,
			Form:        domain.FormMetadata{FormID: "contact", FormType: "contact"},
			LeadScore:   score,
			SubmittedAt: time.Date(2025, 2, 1+i, 12, 0, 0, 0, time.UTC),
		})
	}

	from := time.Date(2025, 2, 2, 12, 0, 0, 0, time.UTC)
	summary, err := f.svc.Analytics(context.Background(), publicID, &from, nil)
	if err != nil {
		t.Fatalf("analytics: %v", err)
	}
	if summary.TotalSubmissions != 2 || summary.AvgLeadScore != 65 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if f.store.lastLimit != 0 {
		t.Fatalf("expected unbounded query, got limit %d", f.store.lastLimit)
	}
}

func TestAnalyticsCacheIsInvalidatedOnIngest(t *testing.T) {
	f := newFixture(t)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	f.svc.SetCache(cache.New(client, "leadlift", time.Minute))
	ctx := context.Background()

	first, err := f.svc.Analytics(ctx, publicID, nil, nil)
	if err != nil {
		t.Fatalf("analytics: %v", err)
	}
	if first.TotalSubmissions != 0 || f.recorder.misses != 1 {
		t.Fatalf("expected cold miss, got %+v misses=%d", first, f.recorder.misses)
	}

	if _, err := f.svc.Analytics(ctx, publicID, nil, nil); err != nil {
		t.Fatalf("analytics: %v", err)
	}
	if f.recorder.hits != 1 || f.store.queries != 1 {
		t.Fatalf("expected cached read, hits=%d queries=%d", f.recorder.hits, f.store.queries)
	}

	if _, err := f.svc.Ingest(ctx, publicID, []byte(`{"email":"a@b.co"}`)); err != nil {
		t.Fatalf("ingest: %v", err)
	}
	f.bus.Wait()

	after, err := f.svc.Analytics(ctx, publicID, nil, nil)
	if err != nil {
		t.Fatalf("analytics: %v", err)
	}
	if after.TotalSubmissions != 1 {
		t.Fatalf("expected fresh summary after ingest, got %+v", after)
	}
}

func TestIngestOversizedValuesAreStored(t *testing.T) {
	f := newFixture(t)

	body := `{"_form_id":"contact","_form_type":"` + strings.Repeat("x", 80) + `","phone":"` + strings.Repeat("1", 70) +
		`","utm_source":"` + strings.Repeat("s", 300) + `"}`
	if _, err := f.svc.Ingest(context.Background(), publicID, []byte(body)); err != nil {
		t.Fatalf("ingest: %v", err)
	}

	row := f.store.rows[0]
	if len(row.Form.FormType) != 50 {
		t.Fatalf("expected form type cut to 50, got %d", len(row.Form.FormType))
	}
	if row.Contact.Phone == nil || len(*row.Contact.Phone) != 50 {
		t.Fatalf("expected phone cut to 50, got %v", row.Contact.Phone)
	}
	if row.PhoneE164 != nil {
		t.Fatalf("expected no E.164 for a junk phone, got %s", *row.PhoneE164)
	}
	if len(*row.Attribution.Recent.Source) != 255 {
		t.Fatalf("expected utm source cut to 255, got %d", len(*row.Attribution.Recent.Source))
	}
	if !strings.Contains(string(row.FormData), strings.Repeat("1", 70)) {
		t.Fatal("archive must keep the full phone")
	}
}

func TestIngestInvalidUTF8IsStoredAsValidJSON(t *testing.T) {
	f := newFixture(t)

	if _, err := f.svc.Ingest(context.Background(), publicID, []byte("{\"msg\":\"a\xffb\",\"name\":\"Ann\"}")); err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if raw := f.store.rows[0].FormData; !utf8.Valid(raw) || !json.Valid(raw) {
		t.Fatalf("expected valid UTF-8 JSON archive, got %q", raw)
	}
}

func TestAnalyticsGroupsFollowOldestSubmissionFirst(t *testing.T) {
	f := newFixture(t)
	for i, form := range []string{"newsletter", "contact", "newsletter"} {
		f.store.rows = append(f.store.rows, domain.Submission{
			ID:          uuid.New(),
			ClientID:    f.tenant.ID,
			Form:        domain.FormMetadata{FormID: form, FormType: form},
			LeadScore:   10 * (i + 1),
			SubmittedAt: time.Date(2025, 3, 1+i, 9, 0, 0, 0, time.UTC),
		})
	}

	summary, err := f.svc.Analytics(context.Background(), publicID, nil, nil)
	if err != nil {
		t.Fatalf("analytics: %v", err)
	}
	if len(summary.Forms) != 2 || summary.Forms[0].FormID != "newsletter" || summary.Forms[1].FormID != "contact" {
		t.Fatalf("expected oldest-first form order, got %+v", summary.Forms)
	}
}

func TestCapturedEventCarriesPublicID(t *testing.T) {
	f := newFixture(t)
	var got events.SubmissionCaptured
	f.bus.Subscribe(events.SubmissionCaptured{}.EventName(), events.HandlerFunc(func(_ context.Context, e events.Event) error {
		got = e.(events.SubmissionCaptured)
		return nil
	}))

	if _, err := f.svc.Ingest(context.Background(), publicID, []byte(`{"email":"a@b.co"}`)); err != nil {
		t.Fatalf("ingest: %v", err)
	}
	f.bus.Wait()

	if got.PublicID != publicID || got.ClientID != f.tenant.ID {
		t.Fatalf("unexpected event ids %+v", got)
	}
}
