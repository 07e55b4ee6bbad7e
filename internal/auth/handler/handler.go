package handler

import (
	"net/http"

	"leadlift_backend/internal/auth/service"
	"leadlift_backend/internal/auth/transport"
	"leadlift_backend/platform/httpkit"
	"leadlift_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidUserID    = "invalid user ID"
)

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// Login POST /api/v1/auth/login
func (h *Handler) Login(c *gin.Context) {
	var req transport.LoginRequest
	if !h.bindAndValidate(c, &req) {
		return
	}

	result, err := h.svc.Login(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Logout POST /api/v1/auth/logout
// Tokens are stateless; the client discards its copy.
func (h *Handler) Logout(c *gin.Context) {
	httpkit.OK(c, transport.MessageResponse{Message: "logout successful"})
}

// Me GET /api/v1/auth/me
func (h *Handler) Me(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.Me(c.Request.Context(), identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// ChangePassword POST /api/v1/auth/change-password
func (h *Handler) ChangePassword(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	var req transport.ChangePasswordRequest
	if !h.bindAndValidate(c, &req) {
		return
	}

	if httpkit.HandleError(c, h.svc.ChangePassword(c.Request.Context(), identity.UserID(), req)) {
		return
	}
	httpkit.OK(c, transport.MessageResponse{Message: "password changed successfully"})
}

// ListUsers GET /api/v1/users
func (h *Handler) ListUsers(c *gin.Context) {
	result, err := h.svc.ListUsers(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// CreateUser POST /api/v1/users
func (h *Handler) CreateUser(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	var req transport.CreateUserRequest
	if !h.bindAndValidate(c, &req) {
		return
	}

	result, err := h.svc.CreateUser(c.Request.Context(), identity, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, result)
}

// GetUser GET /api/v1/users/:id
func (h *Handler) GetUser(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	id, ok := parseUserID(c)
	if !ok {
		return
	}

	result, err := h.svc.GetUser(c.Request.Context(), identity, id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// UpdateUser PUT /api/v1/users/:id
func (h *Handler) UpdateUser(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	id, ok := parseUserID(c)
	if !ok {
		return
	}
	var req transport.UpdateUserRequest
	if !h.bindAndValidate(c, &req) {
		return
	}

	result, err := h.svc.UpdateUser(c.Request.Context(), identity, id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// DeleteUser DELETE /api/v1/users/:id
func (h *Handler) DeleteUser(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	id, ok := parseUserID(c)
	if !ok {
		return
	}

	if httpkit.HandleError(c, h.svc.DeleteUser(c.Request.Context(), identity, id)) {
		return
	}
	httpkit.OK(c, transport.MessageResponse{Message: "user deleted successfully"})
}

// Permissions GET /api/v1/admin/permissions
func (h *Handler) Permissions(c *gin.Context) {
	httpkit.OK(c, h.svc.Permissions())
}

func (h *Handler) bindAndValidate(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return false
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return false
	}
	return true
}

func parseUserID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidUserID, nil)
		return uuid.Nil, false
	}
	return id, true
}
