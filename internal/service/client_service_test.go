package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/montecristo/sales-api/internal/domain"
	"github.com/montecristo/sales-api/internal/service"
	"github.com/montecristo/sales-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClientRequest(name, rut string) *domain.CreateClientRequest {
	return &domain.CreateClientRequest{
		BusinessName: name,
		RUT:          rut,
		Email:        "contacto@example.cl",
		Phone:        "+56 2 2345 6789",
		Address:      "Av. Providencia 1234, Santiago",
		ContactName:  "Juan Pérez",
	}
}

func TestClientService_Create(t *testing.T) {
	svc := setupServices(t)
	ctx := context.Background()

	created, err := svc.clients.Create(ctx, newClientRequest("Constructora ABC Ltda.", "76.123.456-k"))
	require.NoError(t, err)
	assert.Equal(t, "76.123.456-K", created.RUT)
	assert.Zero(t, created.QuotationCount)
	assert.Zero(t, created.PurchaseCount)
	assert.Zero(t, created.TotalPurchases)
	assert.False(t, created.IsBlocked)
	assert.Equal(t, domain.ClientStatusActive, created.Status)
	assert.Equal(t, domain.ClientSegmentProspect, created.Segment)

	t.Run("duplicate RUT conflicts", func(t *testing.T) {
		_, err := svc.clients.Create(ctx, newClientRequest("Otra", "76.123.456-K"))
		assert.ErrorIs(t, err, service.ErrClientRUTExists)
	})
}

func TestClientService_UpdateAndBlock(t *testing.T) {
	svc := setupServices(t)
	ctx := context.Background()

	created, err := svc.clients.Create(ctx, newClientRequest("Constructora ABC Ltda.", "76.123.456-7"))
	require.NoError(t, err)

	t.Run("partial update", func(t *testing.T) {
		updated, err := svc.clients.Update(ctx, created.ID, &domain.UpdateClientRequest{
			Phone:       stringPtr("+56 9 8765 4321"),
			ContactName: stringPtr("María González"),
		})
		require.NoError(t, err)
		assert.Equal(t, "+56 9 8765 4321", updated.Phone)
		assert.Equal(t, "María González", updated.ContactName)
		assert.Equal(t, "Constructora ABC Ltda.", updated.BusinessName)
	})

	t.Run("block is idempotent", func(t *testing.T) {
		blocked, err := svc.clients.Block(ctx, created.ID)
		require.NoError(t, err)
		assert.True(t, blocked.IsBlocked)
		assert.Equal(t, domain.ClientStatusBlocked, blocked.Status)
		require.NotNil(t, blocked.BlockedAt)

		again, err := svc.clients.Block(ctx, created.ID)
		require.NoError(t, err)
		assert.True(t, again.IsBlocked)
		assert.Equal(t, *blocked.BlockedAt, *again.BlockedAt)
	})

	t.Run("update does not unblock", func(t *testing.T) {
		updated, err := svc.clients.Update(ctx, created.ID, &domain.UpdateClientRequest{Email: stringPtr("nuevo@example.cl")})
		require.NoError(t, err)
		assert.True(t, updated.IsBlocked)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := svc.clients.Block(ctx, uuid.New())
		assert.ErrorIs(t, err, service.ErrClientNotFound)

		_, err = svc.clients.GetByID(ctx, uuid.New())
		assert.ErrorIs(t, err, service.ErrNotFound)
	})
}

func TestClientService_List(t *testing.T) {
	svc := setupServices(t)
	ctx := context.Background()

	active := testutil.CreateTestClient(t, svc.db, "Constructora ABC Ltda.")
	atRisk := testutil.CreateTestClient(t, svc.db, "Metalúrgica XYZ S.A.")
	blocked := testutil.CreateTestClient(t, svc.db, "Ferretería Sur")

	require.NoError(t, svc.db.Model(&domain.Client{}).Where("id = ?", atRisk.ID).
		Update("quotation_count", testAtRiskThreshold).Error)
	_, err := svc.clients.Block(ctx, blocked.ID)
	require.NoError(t, err)

	cases := map[string]int64{"": 3, "all": 3, "active": 1, "at_risk": 1, "blocked": 1}
	for status, want := range cases {
		page, err := svc.clients.List(ctx, domain.ClientFilter{Status: status})
		require.NoError(t, err, status)
		assert.Equal(t, want, page.Total, status)
	}

	page, err := svc.clients.List(ctx, domain.ClientFilter{Status: "active"})
	require.NoError(t, err)
	assert.Equal(t, active.ID, page.Data.([]domain.ClientDTO)[0].ID)

	page, err = svc.clients.List(ctx, domain.ClientFilter{Search: "metalúrgica"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
	assert.Equal(t, domain.ClientStatusAtRisk, page.Data.([]domain.ClientDTO)[0].Status)

	page, err = svc.clients.List(ctx, domain.ClientFilter{Search: atRisk.RUT})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)

	_, err = svc.clients.List(ctx, domain.ClientFilter{Status: "vip"})
	assert.ErrorIs(t, err, service.ErrValidation)
}
