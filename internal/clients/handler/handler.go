package handler

import (
	"net/http"

	"leadlift_backend/internal/clients/service"
	"leadlift_backend/internal/clients/transport"
	"leadlift_backend/platform/httpkit"
	"leadlift_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	svc *service.Service
	val *validator.Validator
}

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// List GET /api/v1/clients
func (h *Handler) List(c *gin.Context) {
	result, err := h.svc.List(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Create POST /api/v1/clients
func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request", err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", validator.FieldErrors(err))
		return
	}

	result, err := h.svc.Create(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, result)
}

// Get GET /api/v1/clients/:clientId
func (h *Handler) Get(c *gin.Context) {
	result, err := h.svc.Get(c.Request.Context(), c.Param("clientId"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// TrackingScript GET /api/v1/clients/:clientId/tracking-script
func (h *Handler) TrackingScript(c *gin.Context) {
	result, err := h.svc.TrackingScript(c.Request.Context(), c.Param("clientId"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Industries GET /api/v1/clients/industries
func (h *Handler) Industries(c *gin.Context) {
	result, err := h.svc.Industries(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// ByIndustry GET /api/v1/clients/by-industry/:industry
func (h *Handler) ByIndustry(c *gin.Context) {
	result, err := h.svc.ListByIndustry(c.Request.Context(), c.Param("industry"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}
