package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/montecristo/sales-api/internal/domain"
	"github.com/montecristo/sales-api/internal/logger"
	"github.com/montecristo/sales-api/internal/mapper"
	"github.com/montecristo/sales-api/internal/repository"
	"go.uber.org/zap"
)

// Send stamps the quotation as sent to the client and archives its PDF.
// Only pending quotations can be sent; sending again refreshes sentAt.
func (s *QuotationService) Send(ctx context.Context, id uuid.UUID) (*domain.QuotationDTO, error) {
	q, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	if q.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: %s is %s", ErrQuotationClosed, q.Number, q.Status)
	}

	now := s.now().UTC()
	if err := s.quotationRepo.SetSentAt(ctx, q.ID, now); err != nil {
		return nil, fmt.Errorf("failed to mark quotation as sent: %w", err)
	}
	q.SentAt = &now
	q.UpdatedAt = now

	if s.documents != nil {
		path, err := s.documents.Archive(ctx, q)
		if err != nil {
			// The quotation stays sent; the document is rendered again on download
			s.logger.Error("failed to archive quotation document",
				zap.String("number", q.Number),
				zap.Error(err))
		} else {
			q.DocumentPath = path
		}
	}

	logger.WithQuotation(s.logger, q.ID.String(), q.Number).Info("quotation sent")

	dto := mapper.ToQuotationDTO(q)
	return &dto, nil
}

// Accept moves a pending quotation to accepted and records the purchase on the client
func (s *QuotationService) Accept(ctx context.Context, id uuid.UUID) (*domain.QuotationDTO, error) {
	return s.transitionByID(ctx, id, domain.QuotationStatusAccepted)
}

// Reject moves a pending quotation to rejected
func (s *QuotationService) Reject(ctx context.Context, id uuid.UUID) (*domain.QuotationDTO, error) {
	return s.transitionByID(ctx, id, domain.QuotationStatusRejected)
}

// Expire moves a pending quotation to expired
func (s *QuotationService) Expire(ctx context.Context, id uuid.UUID) (*domain.QuotationDTO, error) {
	return s.transitionByID(ctx, id, domain.QuotationStatusExpired)
}

// ExpireOverdue expires every pending quotation whose validity ended before
// now and returns how many were expired. Quotations answered concurrently
// are skipped.
func (s *QuotationService) ExpireOverdue(ctx context.Context, now time.Time) (int, error) {
	overdue, err := s.quotationRepo.ListOverdue(ctx, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to list overdue quotations: %w", err)
	}

	expired := 0
	for i := range overdue {
		if err := ctx.Err(); err != nil {
			return expired, err
		}

		q := &overdue[i]
		if !q.IsOverdue(now) {
			continue
		}
		err := s.transition(ctx, q, domain.QuotationStatusExpired)
		switch {
		case err == nil:
			expired++
		case errors.Is(err, ErrInvalidStatusTransition):
			s.logger.Debug("quotation answered before expiry",
				zap.String("number", q.Number))
		default:
			return expired, err
		}
	}

	return expired, nil
}

func (s *QuotationService) transitionByID(ctx context.Context, id uuid.UUID, target domain.QuotationStatus) (*domain.QuotationDTO, error) {
	q, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.transition(ctx, q, target); err != nil {
		return nil, err
	}

	dto := mapper.ToQuotationDTO(q)
	return &dto, nil
}

// transition applies a status change through the transition table.
// Setting the current status again is a no-op.
func (s *QuotationService) transition(ctx context.Context, q *domain.Quotation, target domain.QuotationStatus) error {
	if !target.IsValid() {
		return fmt.Errorf("%w: unknown status %q", ErrValidation, target)
	}

	from := q.Status
	if from == target {
		return nil
	}
	if !from.CanTransitionTo(target) {
		return fmt.Errorf("%w: %s cannot move from %s to %s", ErrInvalidStatusTransition, q.Number, from, target)
	}

	now := s.now().UTC()
	previousRespondedAt := q.RespondedAt
	q.Status = target
	q.UpdatedAt = now
	if target == domain.QuotationStatusAccepted || target == domain.QuotationStatusRejected {
		q.RespondedAt = &now
	}

	if err := s.quotationRepo.Transition(ctx, q, from); err != nil {
		q.Status = from
		q.RespondedAt = previousRespondedAt
		if errors.Is(err, repository.ErrStatusChanged) {
			return fmt.Errorf("%w: %s is no longer %s", ErrInvalidStatusTransition, q.Number, from)
		}
		return fmt.Errorf("failed to update quotation status: %w", err)
	}

	logger.WithQuotation(s.logger, q.ID.String(), q.Number).Info("quotation status changed",
		zap.String("from", string(from)),
		zap.String("to", string(target)))

	return nil
}
