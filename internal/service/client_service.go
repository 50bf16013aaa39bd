package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/montecristo/sales-api/internal/domain"
	"github.com/montecristo/sales-api/internal/mapper"
	"github.com/montecristo/sales-api/internal/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ClientService struct {
	clientRepo      *repository.ClientRepository
	atRiskThreshold int
	logger          *zap.Logger
	now             func() time.Time
}

func NewClientService(
	clientRepo *repository.ClientRepository,
	atRiskThreshold int,
	logger *zap.Logger,
) *ClientService {
	return &ClientService{
		clientRepo:      clientRepo,
		atRiskThreshold: atRiskThreshold,
		logger:          logger,
		now:             time.Now,
	}
}

// Create registers a client. Counters start at zero and the client is not blocked.
func (s *ClientService) Create(ctx context.Context, req *domain.CreateClientRequest) (*domain.ClientDTO, error) {
	rut := normalizeRUT(req.RUT)
	if err := s.ensureRUTAvailable(ctx, rut, uuid.Nil); err != nil {
		return nil, err
	}

	client := &domain.Client{
		BusinessName:   strings.TrimSpace(req.BusinessName),
		RUT:            rut,
		Email:          strings.TrimSpace(req.Email),
		Phone:          strings.TrimSpace(req.Phone),
		Address:        strings.TrimSpace(req.Address),
		ContactName:    strings.TrimSpace(req.ContactName),
		ContactPhone:   strings.TrimSpace(req.ContactPhone),
		ContactEmail:   strings.TrimSpace(req.ContactEmail),
		TotalPurchases: decimal.Zero,
	}

	if err := s.clientRepo.Create(ctx, client); err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	s.logger.Info("client created",
		zap.String("clientID", client.ID.String()),
		zap.String("rut", client.RUT))

	dto := mapper.ToClientDTO(client, s.atRiskThreshold)
	return &dto, nil
}

func (s *ClientService) GetByID(ctx context.Context, id uuid.UUID) (*domain.ClientDTO, error) {
	client, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := mapper.ToClientDTO(client, s.atRiskThreshold)
	return &dto, nil
}

// Update merges the non-nil fields of req. The blocked flag and the counters
// are not editable here.
func (s *ClientService) Update(ctx context.Context, id uuid.UUID, req *domain.UpdateClientRequest) (*domain.ClientDTO, error) {
	client, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.RUT != nil {
		rut := normalizeRUT(*req.RUT)
		if rut != client.RUT {
			if err := s.ensureRUTAvailable(ctx, rut, client.ID); err != nil {
				return nil, err
			}
			client.RUT = rut
		}
	}
	if req.BusinessName != nil {
		client.BusinessName = strings.TrimSpace(*req.BusinessName)
	}
	if req.Email != nil {
		client.Email = strings.TrimSpace(*req.Email)
	}
	if req.Phone != nil {
		client.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.Address != nil {
		client.Address = strings.TrimSpace(*req.Address)
	}
	if req.ContactName != nil {
		client.ContactName = strings.TrimSpace(*req.ContactName)
	}
	if req.ContactPhone != nil {
		client.ContactPhone = strings.TrimSpace(*req.ContactPhone)
	}
	if req.ContactEmail != nil {
		client.ContactEmail = strings.TrimSpace(*req.ContactEmail)
	}

	if err := s.clientRepo.Update(ctx, client); err != nil {
		return nil, fmt.Errorf("failed to update client: %w", err)
	}

	dto := mapper.ToClientDTO(client, s.atRiskThreshold)
	return &dto, nil
}

// Block marks the client as blocked. Blocking is one-way; blocking an
// already blocked client returns it unchanged.
func (s *ClientService) Block(ctx context.Context, id uuid.UUID) (*domain.ClientDTO, error) {
	if _, err := s.get(ctx, id); err != nil {
		return nil, err
	}

	changed, err := s.clientRepo.Block(ctx, id, s.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to block client: %w", err)
	}

	client, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	if changed {
		s.logger.Info("client blocked",
			zap.String("clientID", client.ID.String()),
			zap.String("rut", client.RUT))
	}

	dto := mapper.ToClientDTO(client, s.atRiskThreshold)
	return &dto, nil
}

func (s *ClientService) List(ctx context.Context, filter domain.ClientFilter) (*domain.PaginatedResponse, error) {
	filter.Page, filter.PageSize = normalizePage(filter.Page, filter.PageSize)

	if filter.Status != "" && filter.Status != "all" && !domain.ClientStatus(filter.Status).IsValid() {
		return nil, fmt.Errorf("%w: unknown client status %q", ErrValidation, filter.Status)
	}

	clients, total, err := s.clientRepo.List(ctx, filter, s.atRiskThreshold)
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}

	dtos := make([]domain.ClientDTO, len(clients))
	for i := range clients {
		dtos[i] = mapper.ToClientDTO(&clients[i], s.atRiskThreshold)
	}

	return domain.NewPaginatedResponse(dtos, total, filter.Page, filter.PageSize), nil
}

func (s *ClientService) get(ctx context.Context, id uuid.UUID) (*domain.Client, error) {
	client, err := s.clientRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("failed to get client: %w", err)
	}
	return client, nil
}

func (s *ClientService) ensureRUTAvailable(ctx context.Context, rut string, self uuid.UUID) error {
	existing, err := s.clientRepo.GetByRUT(ctx, rut)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return fmt.Errorf("failed to check client RUT: %w", err)
	}
	if existing.ID != self {
		return fmt.Errorf("%w: %s", ErrClientRUTExists, rut)
	}
	return nil
}

// normalizeRUT trims and upper-cases the verifier digit so "k" and "K" match
func normalizeRUT(rut string) string {
	return strings.ToUpper(strings.TrimSpace(rut))
}
