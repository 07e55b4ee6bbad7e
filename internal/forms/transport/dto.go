package transport

import "github.com/google/uuid"

type CreateFormRequest struct {
	FormName       string `json:"form_name" validate:"required,max=100"`
	FormIdentifier string `json:"form_identifier" validate:"omitempty,max=255"`
}

type UpdateFormRequest struct {
	FormName       *string `json:"form_name" validate:"omitempty,min=1,max=100"`
	FormIdentifier *string `json:"form_identifier" validate:"omitempty,max=255"`
}

type FormResponse struct {
	ID               uuid.UUID `json:"id"`
	ClientID         string    `json:"client_id"`
	FormName         string    `json:"form_name"`
	FormIdentifier   string    `json:"form_identifier"`
	CreatedAt        string    `json:"created_at"`
	UpdatedAt        string    `json:"updated_at"`
	SubmissionsCount int       `json:"submissions_count"`
}

type FormListResponse struct {
	Items []FormResponse `json:"items"`
	Total int            `json:"total"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
