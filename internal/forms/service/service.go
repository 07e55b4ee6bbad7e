// Package service manages the forms operators register for a client.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"leadlift_backend/internal/forms/repository"
	"leadlift_backend/internal/forms/transport"
	"leadlift_backend/platform/apperr"
	"leadlift_backend/platform/logger"
	"leadlift_backend/platform/sanitize"

	"github.com/google/uuid"
)

// ErrClientNotFound is returned by ClientLookup when the public id is unknown.
var ErrClientNotFound = errors.New("client not found")

// ClientLookup resolves a public client id to the stored client id.
type ClientLookup interface {
	ClientIDByPublicID(ctx context.Context, publicID string) (uuid.UUID, error)
}

// SubmissionCounter counts the submissions recorded under a form id.
type SubmissionCounter interface {
	CountByForm(ctx context.Context, clientID uuid.UUID, formID string) (int, error)
}

type Service struct {
	repo    repository.FormRepository
	clients ClientLookup
	counter SubmissionCounter
	log     *logger.Logger
}

func New(repo repository.FormRepository, clients ClientLookup, counter SubmissionCounter, log *logger.Logger) *Service {
	return &Service{repo: repo, clients: clients, counter: counter, log: log}
}

// List returns the client's forms with their submission counts. A form's
// submissions are those whose form_id equals the form name.
func (s *Service) List(ctx context.Context, publicID string) (transport.FormListResponse, error) {
	clientID, err := s.resolveClient(ctx, publicID)
	if err != nil {
		return transport.FormListResponse{}, err
	}

	forms, err := s.repo.ListByClient(ctx, clientID)
	if err != nil {
		return transport.FormListResponse{}, s.internal("list_forms", err)
	}

	items := make([]transport.FormResponse, 0, len(forms))
	for _, f := range forms {
		resp, err := s.withCount(ctx, f)
		if err != nil {
			return transport.FormListResponse{}, err
		}
		items = append(items, resp)
	}
	return transport.FormListResponse{Items: items, Total: len(items)}, nil
}

func (s *Service) Create(ctx context.Context, publicID string, req transport.CreateFormRequest) (transport.FormResponse, error) {
	clientID, err := s.resolveClient(ctx, publicID)
	if err != nil {
		return transport.FormResponse{}, err
	}

	name := sanitize.Text(req.FormName)
	if name == "" {
		return transport.FormResponse{}, apperr.Validation("form name is required")
	}

	created, err := s.repo.Create(ctx, repository.Form{
		ID:             uuid.New(),
		ClientID:       clientID,
		FormName:       name,
		FormIdentifier: strings.TrimSpace(req.FormIdentifier),
	})
	if err != nil {
		return transport.FormResponse{}, s.internal("create_form", err)
	}
	return s.withCount(ctx, created)
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req transport.UpdateFormRequest) (transport.FormResponse, error) {
	upd := repository.FormUpdate{FormName: sanitize.TextPtr(req.FormName)}
	if req.FormName != nil && upd.FormName == nil {
		return transport.FormResponse{}, apperr.Validation("form name cannot be empty")
	}
	if req.FormIdentifier != nil {
		identifier := strings.TrimSpace(*req.FormIdentifier)
		upd.FormIdentifier = &identifier
	}

	updated, err := s.repo.Update(ctx, id, upd)
	if err != nil {
		return transport.FormResponse{}, s.notFoundOr("update_form", err)
	}
	return s.withCount(ctx, updated)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return s.notFoundOr("delete_form", err)
	}
	return nil
}

func (s *Service) resolveClient(ctx context.Context, publicID string) (uuid.UUID, error) {
	id, err := s.clients.ClientIDByPublicID(ctx, publicID)
	if errors.Is(err, ErrClientNotFound) {
		return uuid.Nil, apperr.Wrap(apperr.KindNotFound, "client not found", err)
	}
	if err != nil {
		return uuid.Nil, s.internal("resolve_client", err)
	}
	return id, nil
}

func (s *Service) withCount(ctx context.Context, f repository.Form) (transport.FormResponse, error) {
	count, err := s.counter.CountByForm(ctx, f.ClientID, f.FormName)
	if err != nil {
		return transport.FormResponse{}, s.internal("count_submissions", err)
	}
	return transport.FormResponse{
		ID:               f.ID,
		ClientID:         f.ClientPublicID,
		FormName:         f.FormName,
		FormIdentifier:   f.FormIdentifier,
		CreatedAt:        f.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:        f.UpdatedAt.UTC().Format(time.RFC3339),
		SubmissionsCount: count,
	}, nil
}

func (s *Service) notFoundOr(op string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.Wrap(apperr.KindNotFound, "form not found", err)
	}
	return s.internal(op, err)
}

func (s *Service) internal(op string, err error) error {
	s.log.DatabaseError(op, err)
	return apperr.Wrap(apperr.KindInternal, "internal server error", err).WithOp("forms." + op)
}
