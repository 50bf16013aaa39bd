package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/montecristo/sales-api/internal/domain"
	"github.com/montecristo/sales-api/internal/service"
	"github.com/montecristo/sales-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConversionRate(t *testing.T) {
	assert.Equal(t, 0.0, service.ConversionRate(0, 0))
	assert.Equal(t, 50.0, service.ConversionRate(1, 2))
	assert.Equal(t, 33.33, service.ConversionRate(1, 3))
	assert.Equal(t, 100.0, service.ConversionRate(4, 4))
}

func TestReportService(t *testing.T) {
	f := setupQuotationFixture(t)
	ctx := context.Background()

	// Three quotations for the fixture client: one accepted, one rejected, one pending
	accepted := f.create(t)
	rejected := f.create(t)
	f.create(t)
	_, err := f.svc.quotations.Accept(ctx, accepted.ID)
	require.NoError(t, err)
	_, err = f.svc.quotations.Reject(ctx, rejected.ID)
	require.NoError(t, err)

	// A client with three quotations and no purchase is at risk
	risky := testutil.CreateTestClient(t, f.svc.db, "Cliente Indeciso")
	for i := 0; i < testAtRiskThreshold; i++ {
		_, err := f.svc.quotations.Create(ctx, exampleDraft(risky.ID, f.screw, f.nut))
		require.NoError(t, err)
	}

	t.Run("dashboard", func(t *testing.T) {
		dashboard, err := f.svc.reports.GetDashboard(ctx)
		require.NoError(t, err)

		assert.Equal(t, domain.StatusCountsDTO{Total: 6, Pending: 4, Accepted: 1, Rejected: 1}, dashboard.Quotations)
		assert.Equal(t, int64(2), dashboard.TotalClients)
		assert.Equal(t, int64(1), dashboard.ActiveClients)
		assert.Equal(t, int64(0), dashboard.BlockedClients)
		assert.Equal(t, int64(2), dashboard.TotalProducts)
		assert.Len(t, dashboard.RecentQuotations, 5)
		require.NotEmpty(t, dashboard.TopClients)
		assert.Equal(t, f.client.ID, dashboard.TopClients[0].ID)
		assert.Equal(t, 1404.6, dashboard.TopClients[0].TotalPurchases)
	})

	t.Run("report over today", func(t *testing.T) {
		today := time.Now().UTC()
		report, err := f.svc.reports.GetReport(ctx, today, today)
		require.NoError(t, err)

		assert.Equal(t, 6, report.Quotations.Total)
		assert.Equal(t, 1, report.Quotations.Accepted)
		assert.Equal(t, 16.67, report.ConversionRate)
		assert.Equal(t, 1404.6, report.Revenue)
		assert.Equal(t, int64(2), report.ActiveClients)

		require.Len(t, report.TopClients, 1, "only clients with purchases")
		assert.Equal(t, f.client.ID, report.TopClients[0].ID)

		require.Len(t, report.AtRiskClients, 1)
		assert.Equal(t, risky.ID, report.AtRiskClients[0].ID)

		require.Len(t, report.ProductPerformance, 2)
		assert.Equal(t, "TOR001", report.ProductPerformance[0].Code)
		assert.Equal(t, 12, report.ProductPerformance[0].QuotedQuantity)
		assert.Equal(t, 1800.0, report.ProductPerformance[0].QuotedRevenue)
		assert.Equal(t, 240.0, report.ProductPerformance[1].QuotedRevenue)

		require.Len(t, report.Monthly, 6)
		current := report.Monthly[5]
		assert.Equal(t, today.Format("2006-01"), current.Month)
		assert.Equal(t, 6, current.Quotations)
		assert.Equal(t, 1, current.Accepted)
		assert.Equal(t, 1404.6, current.Revenue)
	})

	t.Run("range without quotations", func(t *testing.T) {
		from := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
		report, err := f.svc.reports.GetReport(ctx, from, from.AddDate(0, 1, 0))
		require.NoError(t, err)
		assert.Zero(t, report.Quotations.Total)
		assert.Zero(t, report.ConversionRate)
		assert.Empty(t, report.ProductPerformance)
	})

	t.Run("inverted range", func(t *testing.T) {
		now := time.Now()
		_, err := f.svc.reports.GetReport(ctx, now, now.AddDate(0, 0, -1))
		assert.ErrorIs(t, err, service.ErrValidation)
	})
}
