package service

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/montecristo/sales-api/internal/repository"
	"go.uber.org/zap"
)

var quotationNumberPattern = regexp.MustCompile(`^[A-Z0-9]+-\d{4}-\d{4,}$`)

// NumberSequenceService hands out unique quotation numbers.
//
// Format: {PREFIX}-{YEAR}-{SEQUENCE}
// Example: COT-2025-0001
type NumberSequenceService struct {
	repo   *repository.NumberSequenceRepository
	prefix string
	logger *zap.Logger
	now    func() time.Time
}

// NewNumberSequenceService creates a new NumberSequenceService
func NewNumberSequenceService(
	repo *repository.NumberSequenceRepository,
	prefix string,
	logger *zap.Logger,
) *NumberSequenceService {
	return &NumberSequenceService{
		repo:   repo,
		prefix: prefix,
		logger: logger,
		now:    time.Now,
	}
}

// Prefix returns the configured quotation number prefix
func (s *NumberSequenceService) Prefix() string {
	return s.prefix
}

// NextQuotationNumber reserves the next number of the current year.
// The sequence restarts at 1 every year. A reserved number is never reused,
// even when the quotation that asked for it fails to persist.
func (s *NumberSequenceService) NextQuotationNumber(ctx context.Context) (string, error) {
	year := s.now().UTC().Year()

	nextSeq, err := s.repo.GetNextNumber(ctx, s.prefix, year)
	if err != nil {
		s.logger.Error("failed to get next sequence number",
			zap.String("prefix", s.prefix),
			zap.Int("year", year),
			zap.Error(err))
		return "", fmt.Errorf("failed to generate quotation number: %w", err)
	}

	number := FormatQuotationNumber(s.prefix, year, nextSeq)

	s.logger.Debug("generated quotation number",
		zap.String("number", number),
		zap.Int("sequence", nextSeq))

	return number, nil
}

// GetCurrentSequence returns the last issued sequence for a year, 0 if none
func (s *NumberSequenceService) GetCurrentSequence(ctx context.Context, year int) (int, error) {
	return s.repo.GetCurrentSequence(ctx, s.prefix, year)
}

// FormatQuotationNumber renders PREFIX-YYYY-NNNN
func FormatQuotationNumber(prefix string, year, sequence int) string {
	return fmt.Sprintf("%s-%d-%04d", prefix, year, sequence)
}

// ValidQuotationNumber checks a number against the PREFIX-YYYY-NNNN format
func ValidQuotationNumber(number string) bool {
	return quotationNumberPattern.MatchString(number)
}
