package handler

import (
	"errors"
	"io"
	"net/http"

	"leadlift_backend/internal/submissions/service"
	"leadlift_backend/internal/submissions/transport"
	"leadlift_backend/platform/httpkit"
	"leadlift_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

// maxSubmissionBytes bounds the public submit body.
const maxSubmissionBytes = 1 << 20

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgBodyTooLarge     = "request body too large"
	msgUnreadableBody   = "could not read request body"
)

// Handler serves the submission endpoints.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a submissions handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// Submit ingests one form submission from the tracking script.
// POST /api/v1/submit/:clientId
func (h *Handler) Submit(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxSubmissionBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httpkit.Error(c, http.StatusRequestEntityTooLarge, msgBodyTooLarge, nil)
			return
		}
		httpkit.Error(c, http.StatusBadRequest, msgUnreadableBody, nil)
		return
	}

	result, err := h.svc.Ingest(c.Request.Context(), c.Param("clientId"), body)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, result)
}

// List returns a client's submissions.
// GET /api/v1/submissions/client/:clientId
func (h *Handler) List(c *gin.Context) {
	var req transport.ListSubmissionsRequest
	if !h.bindQuery(c, &req) {
		return
	}

	result, err := h.svc.ListSubmissions(c.Request.Context(), c.Param("clientId"), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Forms returns the forms detected in a client's submissions.
// GET /api/v1/submissions/client/:clientId/forms
func (h *Handler) Forms(c *gin.Context) {
	result, err := h.svc.DetectedForms(c.Request.Context(), c.Param("clientId"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Analytics returns the lead summary for a client.
// GET /api/v1/analytics/:clientId
func (h *Handler) Analytics(c *gin.Context) {
	var req transport.AnalyticsRequest
	if !h.bindQuery(c, &req) {
		return
	}

	from, err := service.ParseDateBound("date_from", req.DateFrom)
	if httpkit.HandleError(c, err) {
		return
	}
	to, err := service.ParseDateBound("date_to", req.DateTo)
	if httpkit.HandleError(c, err) {
		return
	}

	result, err := h.svc.Analytics(c.Request.Context(), c.Param("clientId"), from, to)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) bindQuery(c *gin.Context, req any) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return false
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return false
	}
	return true
}
