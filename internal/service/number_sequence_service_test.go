package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/montecristo/sales-api/internal/repository"
	"github.com/montecristo/sales-api/internal/service"
	"github.com/montecristo/sales-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestFormatQuotationNumber(t *testing.T) {
	assert.Equal(t, "COT-2025-0001", service.FormatQuotationNumber("COT", 2025, 1))
	assert.Equal(t, "COT-2025-0420", service.FormatQuotationNumber("COT", 2025, 420))
	assert.Equal(t, "COT-2025-12345", service.FormatQuotationNumber("COT", 2025, 12345))
}

func TestValidQuotationNumber(t *testing.T) {
	assert.True(t, service.ValidQuotationNumber("COT-2025-0001"))
	assert.True(t, service.ValidQuotationNumber("COT-2025-12345"))
	assert.False(t, service.ValidQuotationNumber("COT-25-0001"))
	assert.False(t, service.ValidQuotationNumber("COT-2025-01"))
	assert.False(t, service.ValidQuotationNumber("cot-2025-0001"))
	assert.False(t, service.ValidQuotationNumber(""))
}

func TestNumberSequenceService_NextQuotationNumber(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := service.NewNumberSequenceService(repository.NewNumberSequenceRepository(db), "COT", zap.NewNop())
	ctx := context.Background()
	year := time.Now().UTC().Year()

	seen := make(map[string]bool)
	for i := 1; i <= 5; i++ {
		number, err := svc.NextQuotationNumber(ctx)
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("COT-%d-%04d", year, i), number)
		assert.False(t, seen[number], "duplicate number %s", number)
		seen[number] = true
	}

	current, err := svc.GetCurrentSequence(ctx, year)
	require.NoError(t, err)
	assert.Equal(t, 5, current)

	current, err = svc.GetCurrentSequence(ctx, year-1)
	require.NoError(t, err)
	assert.Zero(t, current)
}
