// Package testutil provides isolated in-memory databases and fixtures for tests.
package testutil

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/montecristo/sales-api/internal/config"
	"github.com/montecristo/sales-api/internal/database"
	"github.com/montecristo/sales-api/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SetupTestDB returns a migrated, empty SQLite in-memory database private to t
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	cfg := &config.DatabaseConfig{
		Driver: "sqlite",
		DSN:    fmt.Sprintf("file:test_%s?mode=memory&cache=shared", uuid.NewString()),
	}
	db, err := database.NewDatabase(cfg, zap.NewNop())
	require.NoError(t, err, "Failed to open in-memory test database")
	require.NoError(t, database.AutoMigrate(db))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	return db
}

// CreateTestProduct inserts a product with the given code and price
func CreateTestProduct(t *testing.T, db *gorm.DB, code string, price int64) *domain.Product {
	t.Helper()

	product := &domain.Product{
		Code:        code,
		Name:        "Producto " + code,
		Description: "Producto de prueba " + code,
		Category:    "Tornillería",
		Price:       decimal.NewFromInt(price),
		Stock:       500,
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

// CreateTestClient inserts an active client with zeroed counters
func CreateTestClient(t *testing.T, db *gorm.DB, businessName string) *domain.Client {
	t.Helper()

	client := &domain.Client{
		BusinessName:   businessName,
		RUT:            fmt.Sprintf("%08d-%d", uuid.New().ID()%100000000, uuid.New().ID()%10),
		Email:          "compras@example.cl",
		Phone:          "+56 2 2000 0000",
		Address:        "Av. Siempre Viva 742, Santiago",
		ContactName:    "Contacto " + businessName,
		TotalPurchases: decimal.Zero,
	}
	require.NoError(t, db.Create(client).Error)
	return client
}

// CreateTestUser inserts a user with a throwaway password hash
func CreateTestUser(t *testing.T, db *gorm.DB, email string, role domain.UserRole) *domain.User {
	t.Helper()

	user := &domain.User{
		Email:        email,
		Name:         "Usuario " + email,
		Role:         role,
		PasswordHash: "not-a-real-hash",
	}
	require.NoError(t, db.Create(user).Error)
	return user
}
