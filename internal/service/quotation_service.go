package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/montecristo/sales-api/internal/auth"
	"github.com/montecristo/sales-api/internal/domain"
	"github.com/montecristo/sales-api/internal/mapper"
	"github.com/montecristo/sales-api/internal/pricing"
	"github.com/montecristo/sales-api/internal/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// moneyPlaces is the precision stored for every amount
const moneyPlaces = 2

// DocumentArchiver keeps rendered quotation documents
type DocumentArchiver interface {
	Archive(ctx context.Context, q *domain.Quotation) (string, error)
	Remove(ctx context.Context, path string) error
}

type QuotationService struct {
	quotationRepo   *repository.QuotationRepository
	clientRepo      *repository.ClientRepository
	productRepo     *repository.ProductRepository
	numbers         *NumberSequenceService
	engine          *pricing.Engine
	documents       DocumentArchiver
	defaultValidity time.Duration
	logger          *zap.Logger
	now             func() time.Time
}

// NewQuotationService creates a QuotationService. documents may be nil, in
// which case sending a quotation does not archive a PDF.
func NewQuotationService(
	quotationRepo *repository.QuotationRepository,
	clientRepo *repository.ClientRepository,
	productRepo *repository.ProductRepository,
	numbers *NumberSequenceService,
	engine *pricing.Engine,
	documents DocumentArchiver,
	defaultValidity time.Duration,
	logger *zap.Logger,
) *QuotationService {
	return &QuotationService{
		quotationRepo:   quotationRepo,
		clientRepo:      clientRepo,
		productRepo:     productRepo,
		numbers:         numbers,
		engine:          engine,
		documents:       documents,
		defaultValidity: defaultValidity,
		logger:          logger,
		now:             time.Now,
	}
}

// Create prices and stores a new pending quotation
func (s *QuotationService) Create(ctx context.Context, req *domain.CreateQuotationRequest) (*domain.QuotationDTO, error) {
	address := strings.TrimSpace(req.DeliveryAddress)
	if address == "" {
		return nil, fmt.Errorf("%w: deliveryAddress is required", ErrValidation)
	}
	if req.DeliveryCost < 0 {
		return nil, fmt.Errorf("%w: deliveryCost must not be negative", ErrValidation)
	}
	if err := s.validateItemInputs(req.Items); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	validUntil := now.Add(s.defaultValidity)
	if req.ValidUntil != nil {
		validUntil = req.ValidUntil.UTC()
		if !validUntil.After(now) {
			return nil, fmt.Errorf("%w: validUntil must be in the future", ErrValidation)
		}
	}

	client, err := s.resolveClient(ctx, req.ClientID)
	if err != nil {
		return nil, err
	}

	items, err := s.buildItems(ctx, req.Items)
	if err != nil {
		return nil, err
	}

	q := &domain.Quotation{
		BaseModel:       domain.BaseModel{CreatedAt: now, UpdatedAt: now},
		ClientID:        client.ID,
		ClientName:      client.BusinessName,
		ClientRUT:       client.RUT,
		Items:           items,
		DeliveryAddress: address,
		DeliveryCost:    decimal.NewFromFloat(req.DeliveryCost).Round(moneyPlaces),
		ValidUntil:      validUntil,
		Status:          domain.QuotationStatusPending,
		Notes:           strings.TrimSpace(req.Notes),
		CreatedBy:       "system",
	}
	if userCtx, ok := auth.FromContext(ctx); ok {
		q.CreatedBy = userCtx.UserID.String()
		q.CreatedByName = userCtx.DisplayName
	}
	s.applyTotals(q)

	number, err := s.numbers.NextQuotationNumber(ctx)
	if err != nil {
		return nil, err
	}
	q.Number = number

	if err := s.quotationRepo.Create(ctx, q); err != nil {
		return nil, fmt.Errorf("failed to create quotation: %w", err)
	}

	s.logger.Info("quotation created",
		zap.String("quotationID", q.ID.String()),
		zap.String("number", q.Number),
		zap.String("clientID", q.ClientID.String()),
		zap.String("total", q.Total.String()))

	dto := mapper.ToQuotationDTO(q)
	return &dto, nil
}

// Update merges the non-nil fields of req. Content can only change while
// the quotation is pending; a status change goes through the transition table.
func (s *QuotationService) Update(ctx context.Context, id uuid.UUID, req *domain.UpdateQuotationRequest) (*domain.QuotationDTO, error) {
	q, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Status != nil && !req.Status.IsValid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, *req.Status)
	}

	if req.HasContentChanges() {
		if q.Status.IsTerminal() {
			return nil, fmt.Errorf("%w: %s is %s", ErrQuotationClosed, q.Number, q.Status)
		}
		if err := s.applyContentChanges(ctx, q, req); err != nil {
			return nil, err
		}
	}

	if req.Status != nil {
		if err := s.transition(ctx, q, *req.Status); err != nil {
			return nil, err
		}
	}

	q, err = s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := mapper.ToQuotationDTO(q)
	return &dto, nil
}

func (s *QuotationService) applyContentChanges(ctx context.Context, q *domain.Quotation, req *domain.UpdateQuotationRequest) error {
	previousClientID := q.ClientID
	reprice := false
	replaceItems := false

	if req.DeliveryAddress != nil {
		address := strings.TrimSpace(*req.DeliveryAddress)
		if address == "" {
			return fmt.Errorf("%w: deliveryAddress must not be empty", ErrValidation)
		}
		q.DeliveryAddress = address
	}
	if req.DeliveryCost != nil {
		if *req.DeliveryCost < 0 {
			return fmt.Errorf("%w: deliveryCost must not be negative", ErrValidation)
		}
		q.DeliveryCost = decimal.NewFromFloat(*req.DeliveryCost).Round(moneyPlaces)
		reprice = true
	}
	if req.ValidUntil != nil {
		validUntil := req.ValidUntil.UTC()
		if !validUntil.After(s.now().UTC()) {
			return fmt.Errorf("%w: validUntil must be in the future", ErrValidation)
		}
		q.ValidUntil = validUntil
	}
	if req.Notes != nil {
		q.Notes = strings.TrimSpace(*req.Notes)
	}
	if req.Items != nil {
		if err := s.validateItemInputs(*req.Items); err != nil {
			return err
		}
	}

	if req.ClientID != nil && *req.ClientID != q.ClientID {
		client, err := s.resolveClient(ctx, *req.ClientID)
		if err != nil {
			return err
		}
		q.ClientID = client.ID
		q.ClientName = client.BusinessName
		q.ClientRUT = client.RUT
		q.Client = nil
	}

	if req.Items != nil {
		items, err := s.buildItems(ctx, *req.Items)
		if err != nil {
			return err
		}
		q.Items = items
		replaceItems = true
		reprice = true
	}

	if reprice {
		s.applyTotals(q)
	}
	// An archive rendered at send time no longer matches the content
	q.DocumentPath = ""
	q.UpdatedAt = s.now().UTC()

	if err := s.quotationRepo.UpdateContent(ctx, q, replaceItems, previousClientID); err != nil {
		return fmt.Errorf("failed to update quotation: %w", err)
	}

	s.logger.Info("quotation updated",
		zap.String("quotationID", q.ID.String()),
		zap.String("number", q.Number),
		zap.Bool("repriced", reprice),
		zap.String("total", q.Total.String()))

	return nil
}

func (s *QuotationService) FindByID(ctx context.Context, id uuid.UUID) (*domain.QuotationDTO, error) {
	q, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := mapper.ToQuotationDTO(q)
	return &dto, nil
}

func (s *QuotationService) List(ctx context.Context, filter domain.QuotationFilter) (*domain.PaginatedResponse, error) {
	filter.Page, filter.PageSize = normalizePage(filter.Page, filter.PageSize)

	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, filter.Status)
	}

	quotations, total, err := s.quotationRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list quotations: %w", err)
	}

	return domain.NewPaginatedResponse(mapper.ToQuotationDTOs(quotations), total, filter.Page, filter.PageSize), nil
}

// Delete removes a quotation with its items and archived document.
// Client counters are historical and are left untouched.
func (s *QuotationService) Delete(ctx context.Context, id uuid.UUID) error {
	q, err := s.get(ctx, id)
	if err != nil {
		return err
	}

	deleted, err := s.quotationRepo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete quotation: %w", err)
	}
	if !deleted {
		return ErrQuotationNotFound
	}

	if q.DocumentPath != "" && s.documents != nil {
		if err := s.documents.Remove(ctx, q.DocumentPath); err != nil {
			s.logger.Warn("failed to remove quotation document",
				zap.String("number", q.Number),
				zap.String("path", q.DocumentPath),
				zap.Error(err))
		}
	}

	s.logger.Info("quotation deleted", zap.String("quotationID", id.String()), zap.String("number", q.Number))
	return nil
}

// Preview prices a draft at the current product prices without storing it
func (s *QuotationService) Preview(ctx context.Context, req *domain.PricingPreviewRequest) (*domain.PricingPreviewDTO, error) {
	if req.DeliveryCost < 0 {
		return nil, fmt.Errorf("%w: deliveryCost must not be negative", ErrValidation)
	}
	if err := s.validateItemInputs(req.Items); err != nil {
		return nil, err
	}

	items, err := s.buildItems(ctx, req.Items)
	if err != nil {
		return nil, err
	}

	q := &domain.Quotation{
		Items:        items,
		DeliveryCost: decimal.NewFromFloat(req.DeliveryCost).Round(moneyPlaces),
	}
	s.applyTotals(q)

	dtos := make([]domain.QuotationItemDTO, len(q.Items))
	for i := range q.Items {
		dtos[i] = mapper.ToQuotationItemDTO(&q.Items[i])
	}

	return &domain.PricingPreviewDTO{
		Items:        dtos,
		Subtotal:     mapper.Money(q.Subtotal),
		TaxRate:      mapper.Money(q.TaxRate),
		Tax:          mapper.Money(q.Tax),
		DeliveryCost: mapper.Money(q.DeliveryCost),
		Total:        mapper.Money(q.Total),
	}, nil
}

// TaxRate returns the rate applied to new and repriced quotations
func (s *QuotationService) TaxRate() decimal.Decimal {
	return s.engine.TaxRate()
}

func (s *QuotationService) get(ctx context.Context, id uuid.UUID) (*domain.Quotation, error) {
	q, err := s.quotationRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuotationNotFound
		}
		return nil, fmt.Errorf("failed to get quotation: %w", err)
	}
	return q, nil
}

// validateItemInputs checks item bounds before any reference is resolved
func (s *QuotationService) validateItemInputs(inputs []domain.QuotationItemInput) error {
	lines := make([]pricing.Line, len(inputs))
	for i, in := range inputs {
		lines[i] = pricing.Line{
			Quantity:  in.Quantity,
			UnitPrice: decimal.Zero,
			Discount:  decimal.NewFromFloat(in.Discount),
		}
		if in.UnitPrice != nil {
			lines[i].UnitPrice = decimal.NewFromFloat(*in.UnitPrice)
		}
	}
	if err := s.engine.ValidateItems(lines); err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}
	return nil
}

// resolveClient loads a client that may receive quotations
func (s *QuotationService) resolveClient(ctx context.Context, id uuid.UUID) (*domain.Client, error) {
	client, err := s.clientRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: client %s", ErrReferenceNotFound, id)
		}
		return nil, fmt.Errorf("failed to get client: %w", err)
	}
	if client.IsBlocked {
		return nil, fmt.Errorf("%w: %s", ErrClientBlocked, client.BusinessName)
	}
	return client, nil
}

// buildItems resolves every product and snapshots its code, name and,
// when the input has none, its current price
func (s *QuotationService) buildItems(ctx context.Context, inputs []domain.QuotationItemInput) ([]domain.QuotationItem, error) {
	ids := make([]uuid.UUID, 0, len(inputs))
	for _, in := range inputs {
		ids = append(ids, in.ProductID)
	}

	products, err := s.productRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}

	items := make([]domain.QuotationItem, len(inputs))
	for i, in := range inputs {
		product, ok := products[in.ProductID]
		if !ok {
			return nil, fmt.Errorf("%w: product %s (items[%d])", ErrReferenceNotFound, in.ProductID, i)
		}

		unitPrice := product.Price
		if in.UnitPrice != nil {
			unitPrice = decimal.NewFromFloat(*in.UnitPrice).Round(moneyPlaces)
		}

		items[i] = domain.QuotationItem{
			ProductID:   product.ID,
			ProductCode: product.Code,
			ProductName: product.Name,
			Quantity:    in.Quantity,
			UnitPrice:   unitPrice,
			Discount:    decimal.NewFromFloat(in.Discount).Round(moneyPlaces),
			Position:    i,
		}
	}
	return items, nil
}

// applyTotals prices q.Items and q.DeliveryCost and stores the rounded
// amounts on the quotation and its items
func (s *QuotationService) applyTotals(q *domain.Quotation) {
	lines := make([]pricing.Line, len(q.Items))
	for i, item := range q.Items {
		lines[i] = pricing.Line{
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Discount:  item.Discount,
		}
	}

	totals := s.engine.Compute(lines, q.DeliveryCost).Round(moneyPlaces)
	for i := range q.Items {
		q.Items[i].Subtotal = totals.Lines[i]
	}
	q.Subtotal = totals.Subtotal
	q.TaxRate = totals.TaxRate
	q.Tax = totals.Tax
	q.Total = totals.Total
}
