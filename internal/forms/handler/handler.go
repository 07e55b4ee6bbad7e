package handler

import (
	"net/http"

	"leadlift_backend/internal/forms/service"
	"leadlift_backend/internal/forms/transport"
	"leadlift_backend/platform/httpkit"
	"leadlift_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Handler struct {
	svc *service.Service
	val *validator.Validator
}

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// List GET /api/v1/clients/:clientId/forms
func (h *Handler) List(c *gin.Context) {
	result, err := h.svc.List(c.Request.Context(), c.Param("clientId"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Create POST /api/v1/clients/:clientId/forms
func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateFormRequest
	if !h.bind(c, &req) {
		return
	}

	result, err := h.svc.Create(c.Request.Context(), c.Param("clientId"), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, result)
}

// Update PUT /api/v1/forms/:formId
func (h *Handler) Update(c *gin.Context) {
	id, ok := parseFormID(c)
	if !ok {
		return
	}
	var req transport.UpdateFormRequest
	if !h.bind(c, &req) {
		return
	}

	result, err := h.svc.Update(c.Request.Context(), id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Delete DELETE /api/v1/forms/:formId
func (h *Handler) Delete(c *gin.Context) {
	id, ok := parseFormID(c)
	if !ok {
		return
	}

	if httpkit.HandleError(c, h.svc.Delete(c.Request.Context(), id)) {
		return
	}
	httpkit.OK(c, transport.MessageResponse{Message: "form deleted successfully"})
}

func (h *Handler) bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request", err.Error())
		return false
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", validator.FieldErrors(err))
		return false
	}
	return true
}

func parseFormID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("formId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid form ID", nil)
		return uuid.Nil, false
	}
	return id, true
}
