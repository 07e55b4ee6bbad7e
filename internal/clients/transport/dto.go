package transport

import "github.com/google/uuid"

type CreateClientRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Domain   string `json:"domain" validate:"required,max=255"`
	Industry string `json:"industry" validate:"omitempty,max=100"`
}

type ClientResponse struct {
	ID               uuid.UUID `json:"id"`
	ClientID         string    `json:"client_id"`
	Name             string    `json:"name"`
	Domain           string    `json:"domain"`
	Industry         *string   `json:"industry"`
	CreatedAt        string    `json:"created_at"`
	FormsCount       int       `json:"forms_count"`
	SubmissionsCount int       `json:"submissions_count"`
}

type ClientListResponse struct {
	Items []ClientResponse `json:"items"`
	Total int              `json:"total"`
}

type IndustriesResponse struct {
	Industries []string `json:"industries"`
}

type TrackingScriptResponse struct {
	ClientID string `json:"client_id"`
	Script   string `json:"script"`
}
