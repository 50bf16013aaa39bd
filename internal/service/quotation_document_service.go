package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/montecristo/sales-api/internal/document"
	"github.com/montecristo/sales-api/internal/domain"
	"github.com/montecristo/sales-api/internal/repository"
	"github.com/montecristo/sales-api/internal/storage"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// QuotationDocumentService renders quotation PDFs and keeps them in storage
type QuotationDocumentService struct {
	quotationRepo *repository.QuotationRepository
	store         storage.Storage
	renderer      *document.Renderer
	logger        *zap.Logger
}

func NewQuotationDocumentService(
	quotationRepo *repository.QuotationRepository,
	store storage.Storage,
	renderer *document.Renderer,
	logger *zap.Logger,
) *QuotationDocumentService {
	return &QuotationDocumentService{
		quotationRepo: quotationRepo,
		store:         store,
		renderer:      renderer,
		logger:        logger,
	}
}

// Archive renders q, stores it under the quotation number and records the path
func (s *QuotationDocumentService) Archive(ctx context.Context, q *domain.Quotation) (string, error) {
	var buf bytes.Buffer
	if err := s.renderer.Render(q, &buf); err != nil {
		return "", err
	}

	key := storage.QuotationDocumentKey(q.Number)
	size, err := s.store.Put(ctx, key, document.ContentType, &buf)
	if err != nil {
		return "", fmt.Errorf("failed to store quotation document: %w", err)
	}

	if err := s.quotationRepo.SetDocumentPath(ctx, q.ID, key); err != nil {
		return "", fmt.Errorf("failed to record quotation document: %w", err)
	}

	s.logger.Info("quotation document archived",
		zap.String("number", q.Number),
		zap.String("path", key),
		zap.Int64("size", size))

	return key, nil
}

// Remove deletes an archived document
func (s *QuotationDocumentService) Remove(ctx context.Context, path string) error {
	return s.store.Delete(ctx, path)
}

// Open returns the quotation PDF and its download file name. Pending
// quotations may still change, so they are rendered fresh on every call.
// Closed quotations are served from the archive, rendering it once if missing.
func (s *QuotationDocumentService) Open(ctx context.Context, id uuid.UUID) (io.ReadCloser, string, error) {
	q, err := s.quotationRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrQuotationNotFound
		}
		return nil, "", fmt.Errorf("failed to get quotation: %w", err)
	}
	filename := q.Number + ".pdf"

	if q.Status != domain.QuotationStatusPending && q.DocumentPath != "" {
		rc, err := s.store.Get(ctx, q.DocumentPath)
		if err == nil {
			return rc, filename, nil
		}
		if !errors.Is(err, storage.ErrObjectNotFound) {
			return nil, "", fmt.Errorf("failed to read quotation document: %w", err)
		}
		s.logger.Warn("archived quotation document missing, rendering again",
			zap.String("number", q.Number),
			zap.String("path", q.DocumentPath))
	}

	path, err := s.Archive(ctx, q)
	if err != nil {
		return nil, "", err
	}

	rc, err := s.store.Get(ctx, path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read quotation document: %w", err)
	}
	return rc, filename, nil
}
