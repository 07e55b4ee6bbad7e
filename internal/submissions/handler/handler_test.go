package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"leadlift_backend/internal/auth/access"
	"leadlift_backend/internal/submissions/domain"
	"leadlift_backend/internal/submissions/repository"
	"leadlift_backend/internal/submissions/service"
	"leadlift_backend/platform/httpkit"
	"leadlift_backend/platform/logger"
	"leadlift_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPublicID = "0a1b2c3d"

type stubTenants struct{ tenant service.Tenant }

func (s stubTenants) FindClientByPublicID(_ context.Context, id string) (service.Tenant, error) {
	if id != s.tenant.PublicID {
		return service.Tenant{}, domain.ErrTenantNotFound
	}
	return s.tenant, nil
}

type memoryStore struct{ rows []domain.Submission }

func (m *memoryStore) InsertSubmission(_ context.Context, s domain.Submission) (uuid.UUID, error) {
	m.rows = append(m.rows, s)
	return s.ID, nil
}

func (m *memoryStore) QuerySubmissions(context.Context, uuid.UUID, repository.Filter, int) ([]domain.Submission, error) {
	return m.rows, nil
}

func (m *memoryStore) DetectedForms(context.Context, uuid.UUID) ([]repository.DetectedForm, error) {
	return nil, nil
}

func newRouter(t *testing.T, roles ...string) (*gin.Engine, *memoryStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := logger.NewWithWriter("production", &bytes.Buffer{})
	store := &memoryStore{}
	tenants := stubTenants{tenant: service.Tenant{ID: uuid.New(), PublicID: testPublicID, Name: "Acme"}}
	h := New(service.New(tenants, store, nil, nil, log, "US"), validator.New())

	r := gin.New()
	r.POST("/api/v1/submit/:clientId", h.Submit)

	protected := r.Group("/api/v1", func(c *gin.Context) {
		if len(roles) > 0 {
			c.Set(httpkit.ContextUserIDKey, uuid.New())
			c.Set(httpkit.ContextRolesKey, roles)
		}
		c.Next()
	})
	view := access.Require(access.ViewAnalytics)
	protected.GET("/submissions/client/:clientId", view, h.List)
	protected.GET("/analytics/:clientId", view, h.Analytics)
	return r, store
}

func TestSubmitReturnsCreatedWithScore(t *testing.T) {
	r, store := newRouter(t)

	body := `{"_form_id":"quote","email":"a@b.co","phone":"555-0100","_lead_score_factors":{"session_count":5}}`
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/submit/"+testPublicID, strings.NewReader(body)))

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var res struct {
		SubmissionID   string         `json:"submission_id"`
		LeadScore      int            `json:"lead_score"`
		ScoreBreakdown map[string]int `json:"score_breakdown"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	// 25 sessions + 5 duration + 5 pages + 5 email + 10 phone
	assert.Equal(t, 50, res.LeadScore)
	assert.Equal(t, 25, res.ScoreBreakdown["sessions"])
	assert.NotEmpty(t, res.SubmissionID)
	assert.Len(t, store.rows, 1)
}

func TestSubmitUnknownClientIs404(t *testing.T) {
	r, store := newRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/submit/deadbeef", strings.NewReader(`{"email":"a@b.co"}`)))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "client not found")
	assert.Empty(t, store.rows)
}

func TestSubmitInvalidBodyIs400(t *testing.T) {
	r, store := newRouter(t)

	for _, body := range []string{"", "{}", "[]", "{bad"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/submit/"+testPublicID, strings.NewReader(body)))
		assert.Equal(t, http.StatusBadRequest, w.Code, "body %q", body)
	}
	assert.Empty(t, store.rows)
}

type brokenBody struct{}

func (brokenBody) Read([]byte) (int, error) { return 0, io.ErrUnexpectedEOF }

func TestSubmitBodyReadErrors(t *testing.T) {
	r, store := newRouter(t)

	w := httptest.NewRecorder()
	big := `{"note":"` + strings.Repeat("x", maxSubmissionBytes) + `"}`
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/submit/"+testPublicID, strings.NewReader(big)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/submit/"+testPublicID, brokenBody{}))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "could not read request body")

	assert.Empty(t, store.rows)
}

func TestListRequiresAuthentication(t *testing.T) {
	r, _ := newRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/submissions/client/"+testPublicID, nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestListRejectsLimitAboveMaximum(t *testing.T) {
	r, _ := newRouter(t, access.RoleUser)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/submissions/client/"+testPublicID+"?limit=5000", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "limit")
}

func TestAnalyticsRejectsMalformedDate(t *testing.T) {
	r, _ := newRouter(t, access.RoleUser)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/analytics/"+testPublicID+"?date_from=yesterday", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "date_from")
}

func TestAnalyticsEmptyClient(t *testing.T) {
	r, _ := newRouter(t, access.RoleUser)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/analytics/"+testPublicID+"?date_from=2025-01-01", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"total_submissions":0,"avg_lead_score":0,"forms":[],"sources":[]}`, w.Body.String())
}
