// Package adapters bridges bounded contexts so that no context imports
// another context's service directly.
package adapters

import (
	"context"
	"errors"
	"fmt"

	clientsrepo "leadlift_backend/internal/clients/repository"
	formsvc "leadlift_backend/internal/forms/service"
	"leadlift_backend/internal/submissions/domain"
	submissionsvc "leadlift_backend/internal/submissions/service"

	"github.com/google/uuid"
)

// ClientReader is the narrow interface for looking up a client by public id.
type ClientReader interface {
	GetByPublicID(ctx context.Context, publicID string) (clientsrepo.Client, error)
}

// ClientsLookup adapts the clients repository to the lookups needed by the
// submissions and forms contexts.
// It implements submissions/service.TenantResolver and forms/service.ClientLookup.
type ClientsLookup struct {
	clients ClientReader
}

// NewClientsLookup creates a new lookup adapter.
func NewClientsLookup(clients ClientReader) *ClientsLookup {
	return &ClientsLookup{clients: clients}
}

// FindClientByPublicID returns the tenant or domain.ErrTenantNotFound.
func (a *ClientsLookup) FindClientByPublicID(ctx context.Context, publicID string) (submissionsvc.Tenant, error) {
	client, err := a.clients.GetByPublicID(ctx, publicID)
	if errors.Is(err, clientsrepo.ErrNotFound) {
		return submissionsvc.Tenant{}, domain.ErrTenantNotFound
	}
	if err != nil {
		return submissionsvc.Tenant{}, fmt.Errorf("look up client %s: %w", publicID, err)
	}
	return submissionsvc.Tenant{ID: client.ID, PublicID: client.PublicID, Name: client.Name}, nil
}

// ClientIDByPublicID returns the stored id or forms/service.ErrClientNotFound.
func (a *ClientsLookup) ClientIDByPublicID(ctx context.Context, publicID string) (uuid.UUID, error) {
	client, err := a.clients.GetByPublicID(ctx, publicID)
	if errors.Is(err, clientsrepo.ErrNotFound) {
		return uuid.Nil, formsvc.ErrClientNotFound
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("look up client %s: %w", publicID, err)
	}
	return client.ID, nil
}

var (
	_ submissionsvc.TenantResolver = (*ClientsLookup)(nil)
	_ formsvc.ClientLookup         = (*ClientsLookup)(nil)
)
