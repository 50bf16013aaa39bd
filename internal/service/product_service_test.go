package service_test

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/montecristo/sales-api/internal/domain"
	"github.com/montecristo/sales-api/internal/mapper"
	"github.com/montecristo/sales-api/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProductRequest(code, name, category string, price float64, stock int) *domain.CreateProductRequest {
	return &domain.CreateProductRequest{
		Code:        code,
		Name:        name,
		Description: name + " galvanizado",
		Category:    category,
		Price:       price,
		Stock:       stock,
	}
}

func TestProductService_CRUD(t *testing.T) {
	svc := setupServices(t)
	ctx := context.Background()

	created, err := svc.products.Create(ctx, newProductRequest("TOR001", "Tornillo hexagonal", "Tornillería", 150, 1000))
	require.NoError(t, err)
	assert.Equal(t, "TOR001", created.Code)
	assert.Equal(t, 150.0, created.Price)
	assert.Equal(t, mapper.StockStatusIn, created.StockStatus)

	t.Run("duplicate code conflicts", func(t *testing.T) {
		_, err := svc.products.Create(ctx, newProductRequest("TOR001", "Otro", "Tornillería", 10, 1))
		assert.ErrorIs(t, err, service.ErrProductCodeExists)
		assert.ErrorIs(t, err, service.ErrConflict)
	})

	t.Run("partial update merges fields", func(t *testing.T) {
		updated, err := svc.products.Update(ctx, created.ID, &domain.UpdateProductRequest{
			Price: floatPtr(175.5),
			Stock: intPtr(40),
		})
		require.NoError(t, err)
		assert.Equal(t, 175.5, updated.Price)
		assert.Equal(t, 40, updated.Stock)
		assert.Equal(t, "Tornillo hexagonal", updated.Name)
		assert.Equal(t, mapper.StockStatusLow, updated.StockStatus)

		got, err := svc.products.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, 175.5, got.Price)
	})

	t.Run("update to a taken code conflicts", func(t *testing.T) {
		_, err := svc.products.Create(ctx, newProductRequest("TUE001", "Tuerca", "Tornillería", 80, 800))
		require.NoError(t, err)

		_, err = svc.products.Update(ctx, created.ID, &domain.UpdateProductRequest{Code: stringPtr("TUE001")})
		assert.ErrorIs(t, err, service.ErrProductCodeExists)
	})

	t.Run("delete then get is not found", func(t *testing.T) {
		require.NoError(t, svc.products.Delete(ctx, created.ID))

		_, err := svc.products.GetByID(ctx, created.ID)
		assert.ErrorIs(t, err, service.ErrProductNotFound)

		assert.ErrorIs(t, svc.products.Delete(ctx, created.ID), service.ErrNotFound)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := svc.products.Update(ctx, uuid.New(), &domain.UpdateProductRequest{Name: stringPtr("x")})
		assert.ErrorIs(t, err, service.ErrNotFound)
	})
}

func TestProductService_List(t *testing.T) {
	svc := setupServices(t)
	ctx := context.Background()

	for _, req := range []*domain.CreateProductRequest{
		newProductRequest("TOR001", "Tornillo hexagonal", "Tornillería", 150, 1000),
		newProductRequest("TUE001", "Tuerca hexagonal", "Tornillería", 80, 50),
		newProductRequest("PIN001", "Pintura esmalte", "Pinturas", 9990, 0),
	} {
		_, err := svc.products.Create(ctx, req)
		require.NoError(t, err)
	}

	t.Run("all products ordered by name", func(t *testing.T) {
		page, err := svc.products.List(ctx, domain.ProductFilter{})
		require.NoError(t, err)
		assert.Equal(t, int64(3), page.Total)
		products := page.Data.([]domain.ProductDTO)
		assert.Equal(t, "Pintura esmalte", products[0].Name)
	})

	t.Run("search", func(t *testing.T) {
		page, err := svc.products.List(ctx, domain.ProductFilter{Search: "hexagonal"})
		require.NoError(t, err)
		assert.Equal(t, int64(2), page.Total)

		page, err = svc.products.List(ctx, domain.ProductFilter{Search: "pin001"})
		require.NoError(t, err)
		assert.Equal(t, int64(1), page.Total)
	})

	t.Run("category filter", func(t *testing.T) {
		page, err := svc.products.List(ctx, domain.ProductFilter{Category: "Pinturas"})
		require.NoError(t, err)
		assert.Equal(t, int64(1), page.Total)

		page, err = svc.products.List(ctx, domain.ProductFilter{Category: "all"})
		require.NoError(t, err)
		assert.Equal(t, int64(3), page.Total)
	})

	t.Run("low stock filter", func(t *testing.T) {
		page, err := svc.products.List(ctx, domain.ProductFilter{LowStockOnly: true})
		require.NoError(t, err)
		assert.Equal(t, int64(2), page.Total)
	})

	t.Run("page size is clamped", func(t *testing.T) {
		page, err := svc.products.List(ctx, domain.ProductFilter{Page: -3, PageSize: 5000})
		require.NoError(t, err)
		assert.Equal(t, 1, page.Page)
		assert.Equal(t, 200, page.PageSize)
	})

	t.Run("categories", func(t *testing.T) {
		categories, err := svc.products.Categories(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"Pinturas", "Tornillería"}, categories)
	})
}

func TestProductService_Image(t *testing.T) {
	svc := setupServices(t)
	ctx := context.Background()

	product, err := svc.products.Create(ctx, newProductRequest("TOR001", "Tornillo", "Tornillería", 150, 1000))
	require.NoError(t, err)

	_, _, err = svc.products.GetImage(ctx, product.ID)
	assert.ErrorIs(t, err, service.ErrImageNotFound)

	_, err = svc.products.UploadImage(ctx, product.ID, "application/zip", bytes.NewReader([]byte("PK")))
	assert.ErrorIs(t, err, service.ErrValidation)

	updated, err := svc.products.UploadImage(ctx, product.ID, "image/png", bytes.NewReader([]byte("\x89PNG fake")))
	require.NoError(t, err)
	assert.True(t, updated.HasImage)

	rc, contentType, err := svc.products.GetImage(ctx, product.ID)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, "image/png", contentType)
	assert.Equal(t, "\x89PNG fake", string(data))

	_, err = svc.products.UploadImage(ctx, uuid.New(), "image/png", bytes.NewReader(nil))
	assert.ErrorIs(t, err, service.ErrProductNotFound)
}

func intPtr(v int) *int { return &v }
