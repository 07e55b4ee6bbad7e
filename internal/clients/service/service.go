// Package service manages tenants and their tracking snippets.
package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"leadlift_backend/internal/clients/repository"
	"leadlift_backend/internal/clients/tracking"
	"leadlift_backend/internal/clients/transport"
	"leadlift_backend/internal/events"
	"leadlift_backend/platform/apperr"
	"leadlift_backend/platform/config"
	"leadlift_backend/platform/logger"
	"leadlift_backend/platform/sanitize"

	"github.com/google/uuid"
)

const (
	publicIDBytes       = 4
	maxPublicIDAttempts = 10
	msgClientNotFound   = "client not found"
)

type Service struct {
	repo     repository.ClientRepository
	tracking config.TrackingConfig
	bus      events.Bus
	log      *logger.Logger
	newID    func() (string, error)
}

func New(repo repository.ClientRepository, tracking config.TrackingConfig, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, tracking: tracking, bus: bus, log: log, newID: randomPublicID}
}

// List returns every client with its form and submission counts.
func (s *Service) List(ctx context.Context) (transport.ClientListResponse, error) {
	return s.list(ctx, nil)
}

// ListByIndustry returns the clients of one industry.
func (s *Service) ListByIndustry(ctx context.Context, industry string) (transport.ClientListResponse, error) {
	industry = strings.TrimSpace(industry)
	if industry == "" {
		return transport.ClientListResponse{}, apperr.Validation("industry is required")
	}
	return s.list(ctx, &industry)
}

// Industries lists the distinct non-empty industries.
func (s *Service) Industries(ctx context.Context) (transport.IndustriesResponse, error) {
	industries, err := s.repo.Industries(ctx)
	if err != nil {
		return transport.IndustriesResponse{}, s.internal("list_industries", err)
	}
	if industries == nil {
		industries = []string{}
	}
	return transport.IndustriesResponse{Industries: industries}, nil
}

// Create registers a client under a fresh 8-hex-character public id.
func (s *Service) Create(ctx context.Context, req transport.CreateClientRequest) (transport.ClientResponse, error) {
	name := sanitize.Text(req.Name)
	domain := sanitize.Text(req.Domain)
	if name == "" || domain == "" {
		return transport.ClientResponse{}, apperr.Validation("name and domain are required")
	}

	client := repository.Client{
		ID:       uuid.New(),
		Name:     name,
		Domain:   domain,
		Industry: sanitize.TextPtr(&req.Industry),
	}

	for attempt := 0; attempt < maxPublicIDAttempts; attempt++ {
		publicID, err := s.unusedPublicID(ctx)
		if err != nil {
			return transport.ClientResponse{}, err
		}
		client.PublicID = publicID

		created, err := s.repo.Create(ctx, client)
		if errors.Is(err, repository.ErrPublicIDTaken) {
			continue
		}
		if err != nil {
			return transport.ClientResponse{}, s.internal("create_client", err)
		}

		s.log.Info("client created", "client_id", created.PublicID, "name", created.Name)
		if s.bus != nil {
			s.bus.Publish(ctx, events.ClientCreated{
				BaseEvent: events.NewBaseEvent(),
				ClientID:  created.ID,
				PublicID:  created.PublicID,
				Name:      created.Name,
			})
		}
		return toResponse(created), nil
	}
	return transport.ClientResponse{}, apperr.Internal("could not allocate a client id")
}

// Get returns one client by public id.
func (s *Service) Get(ctx context.Context, publicID string) (transport.ClientResponse, error) {
	client, err := s.find(ctx, publicID)
	if err != nil {
		return transport.ClientResponse{}, err
	}
	return toResponse(client), nil
}

// FindByPublicID returns the stored client or repository.ErrNotFound.
func (s *Service) FindByPublicID(ctx context.Context, publicID string) (repository.Client, error) {
	return s.repo.GetByPublicID(ctx, publicID)
}

// TrackingScript renders the embeddable snippet for a client.
func (s *Service) TrackingScript(ctx context.Context, publicID string) (transport.TrackingScriptResponse, error) {
	client, err := s.find(ctx, publicID)
	if err != nil {
		return transport.TrackingScriptResponse{}, err
	}

	script, err := tracking.Render(tracking.Params{
		ClientName: client.Name,
		PublicID:   client.PublicID,
		APIBaseURL: s.tracking.GetPublicAPIBaseURL(),
	})
	if err != nil {
		return transport.TrackingScriptResponse{}, apperr.Wrap(apperr.KindInternal, "failed to render tracking script", err)
	}
	return transport.TrackingScriptResponse{ClientID: client.PublicID, Script: script}, nil
}

func (s *Service) list(ctx context.Context, industry *string) (transport.ClientListResponse, error) {
	clients, err := s.repo.List(ctx, industry)
	if err != nil {
		return transport.ClientListResponse{}, s.internal("list_clients", err)
	}

	items := make([]transport.ClientResponse, 0, len(clients))
	for _, c := range clients {
		items = append(items, toResponse(c))
	}
	return transport.ClientListResponse{Items: items, Total: len(items)}, nil
}

func (s *Service) find(ctx context.Context, publicID string) (repository.Client, error) {
	client, err := s.repo.GetByPublicID(ctx, publicID)
	if errors.Is(err, repository.ErrNotFound) {
		return repository.Client{}, apperr.Wrap(apperr.KindNotFound, msgClientNotFound, err)
	}
	if err != nil {
		return repository.Client{}, s.internal("get_client", err)
	}
	return client, nil
}

// unusedPublicID draws ids until one is not yet stored. The insert still
// reports a collision when two creates race for the same id.
func (s *Service) unusedPublicID(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxPublicIDAttempts; attempt++ {
		id, err := s.newID()
		if err != nil {
			return "", apperr.Wrap(apperr.KindInternal, "failed to generate client id", err)
		}
		exists, err := s.repo.PublicIDExists(ctx, id)
		if err != nil {
			return "", s.internal("public_id_exists", err)
		}
		if !exists {
			return id, nil
		}
	}
	return "", apperr.Internal("could not allocate a client id")
}

func (s *Service) internal(op string, err error) error {
	s.log.DatabaseError(op, err)
	return apperr.Wrap(apperr.KindInternal, "internal server error", err).WithOp("clients." + op)
}

func randomPublicID() (string, error) {
	buf := make([]byte, publicIDBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func toResponse(c repository.Client) transport.ClientResponse {
	return transport.ClientResponse{
		ID:               c.ID,
		ClientID:         c.PublicID,
		Name:             c.Name,
		Domain:           c.Domain,
		Industry:         c.Industry,
		CreatedAt:        c.CreatedAt.UTC().Format(time.RFC3339),
		FormsCount:       c.FormsCount,
		SubmissionsCount: c.SubmissionsCount,
	}
}
