package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/montecristo/sales-api/internal/domain"
	"github.com/montecristo/sales-api/internal/mapper"
	"github.com/montecristo/sales-api/internal/repository"
	"github.com/montecristo/sales-api/internal/storage"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrUnsupportedImageType is returned for product images that are not PNG, JPEG or WebP
var ErrUnsupportedImageType = fmt.Errorf("%w: unsupported image type", ErrValidation)

var imageExtensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/webp": ".webp",
}

type ProductService struct {
	productRepo       *repository.ProductRepository
	store             storage.Storage
	lowStockThreshold int
	logger            *zap.Logger
}

func NewProductService(
	productRepo *repository.ProductRepository,
	store storage.Storage,
	lowStockThreshold int,
	logger *zap.Logger,
) *ProductService {
	return &ProductService{
		productRepo:       productRepo,
		store:             store,
		lowStockThreshold: lowStockThreshold,
		logger:            logger,
	}
}

func (s *ProductService) Create(ctx context.Context, req *domain.CreateProductRequest) (*domain.ProductDTO, error) {
	code := strings.TrimSpace(req.Code)
	if err := s.ensureCodeAvailable(ctx, code, uuid.Nil); err != nil {
		return nil, err
	}

	product := &domain.Product{
		Code:        code,
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Category:    strings.TrimSpace(req.Category),
		Price:       decimal.NewFromFloat(req.Price),
		Stock:       req.Stock,
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.logger.Info("product created",
		zap.String("productID", product.ID.String()),
		zap.String("code", product.Code))

	dto := mapper.ToProductDTO(product, s.lowStockThreshold)
	return &dto, nil
}

func (s *ProductService) GetByID(ctx context.Context, id uuid.UUID) (*domain.ProductDTO, error) {
	product, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := mapper.ToProductDTO(product, s.lowStockThreshold)
	return &dto, nil
}

// Update merges the non-nil fields of req into the product
func (s *ProductService) Update(ctx context.Context, id uuid.UUID, req *domain.UpdateProductRequest) (*domain.ProductDTO, error) {
	product, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Code != nil {
		code := strings.TrimSpace(*req.Code)
		if code != product.Code {
			if err := s.ensureCodeAvailable(ctx, code, product.ID); err != nil {
				return nil, err
			}
			product.Code = code
		}
	}
	if req.Name != nil {
		product.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.Category != nil {
		product.Category = strings.TrimSpace(*req.Category)
	}
	if req.Price != nil {
		if *req.Price < 0 {
			return nil, fmt.Errorf("%w: price must not be negative", ErrValidation)
		}
		product.Price = decimal.NewFromFloat(*req.Price)
	}
	if req.Stock != nil {
		if *req.Stock < 0 {
			return nil, fmt.Errorf("%w: stock must not be negative", ErrValidation)
		}
		product.Stock = *req.Stock
	}

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	dto := mapper.ToProductDTO(product, s.lowStockThreshold)
	return &dto, nil
}

// Delete removes a product. Quotation items keep their own copy of the
// product code and name, so no reference check is made.
func (s *ProductService) Delete(ctx context.Context, id uuid.UUID) error {
	product, err := s.get(ctx, id)
	if err != nil {
		return err
	}

	deleted, err := s.productRepo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if !deleted {
		return ErrProductNotFound
	}

	if product.ImagePath != "" && s.store != nil {
		if err := s.store.Delete(ctx, product.ImagePath); err != nil {
			s.logger.Warn("failed to delete product image",
				zap.String("productID", id.String()),
				zap.String("path", product.ImagePath),
				zap.Error(err))
		}
	}

	s.logger.Info("product deleted", zap.String("productID", id.String()), zap.String("code", product.Code))
	return nil
}

func (s *ProductService) List(ctx context.Context, filter domain.ProductFilter) (*domain.PaginatedResponse, error) {
	filter.Page, filter.PageSize = normalizePage(filter.Page, filter.PageSize)

	products, total, err := s.productRepo.List(ctx, filter, s.lowStockThreshold)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	dtos := make([]domain.ProductDTO, len(products))
	for i := range products {
		dtos[i] = mapper.ToProductDTO(&products[i], s.lowStockThreshold)
	}

	return domain.NewPaginatedResponse(dtos, total, filter.Page, filter.PageSize), nil
}

func (s *ProductService) Categories(ctx context.Context) ([]string, error) {
	categories, err := s.productRepo.Categories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	if categories == nil {
		categories = []string{}
	}
	return categories, nil
}

// UploadImage stores a product image and replaces any previous one
func (s *ProductService) UploadImage(ctx context.Context, id uuid.UUID, contentType string, data io.Reader) (*domain.ProductDTO, error) {
	ext, ok := imageExtensions[strings.ToLower(strings.TrimSpace(contentType))]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedImageType, contentType)
	}

	product, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	key := storage.ProductImageKey(product.ID.String(), ext)
	size, err := s.store.Put(ctx, key, contentType, data)
	if err != nil {
		return nil, fmt.Errorf("failed to store product image: %w", err)
	}

	if product.ImagePath != "" && product.ImagePath != key {
		if err := s.store.Delete(ctx, product.ImagePath); err != nil {
			s.logger.Warn("failed to delete previous product image",
				zap.String("path", product.ImagePath),
				zap.Error(err))
		}
	}

	if err := s.productRepo.SetImagePath(ctx, product.ID, key); err != nil {
		return nil, fmt.Errorf("failed to update product image: %w", err)
	}
	product.ImagePath = key

	s.logger.Info("product image uploaded",
		zap.String("productID", product.ID.String()),
		zap.String("path", key),
		zap.Int64("size", size))

	dto := mapper.ToProductDTO(product, s.lowStockThreshold)
	return &dto, nil
}

// GetImage opens the product image; the caller closes the reader
func (s *ProductService) GetImage(ctx context.Context, id uuid.UUID) (io.ReadCloser, string, error) {
	product, err := s.get(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if product.ImagePath == "" {
		return nil, "", ErrImageNotFound
	}

	rc, err := s.store.Get(ctx, product.ImagePath)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, "", ErrImageNotFound
		}
		return nil, "", fmt.Errorf("failed to read product image: %w", err)
	}
	return rc, imageContentType(product.ImagePath), nil
}

func imageContentType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	for contentType, e := range imageExtensions {
		if e == ext {
			return contentType
		}
	}
	return "application/octet-stream"
}

func (s *ProductService) get(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return product, nil
}

func (s *ProductService) ensureCodeAvailable(ctx context.Context, code string, self uuid.UUID) error {
	existing, err := s.productRepo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return fmt.Errorf("failed to check product code: %w", err)
	}
	if existing.ID != self {
		return fmt.Errorf("%w: %s", ErrProductCodeExists, code)
	}
	return nil
}
