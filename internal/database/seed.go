package database

import (
	"context"
	"fmt"

	"github.com/montecristo/sales-api/internal/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultSeedPassword is the password of the seeded demo users
const DefaultSeedPassword = "123456"

// Seed loads the demo catalog, clients and users into an empty database.
// Tables that already hold rows are left alone.
func Seed(ctx context.Context, db *gorm.DB, log *zap.Logger) error {
	db = db.WithContext(ctx)

	if err := seedUsers(db); err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}
	if err := seedProducts(db); err != nil {
		return fmt.Errorf("failed to seed products: %w", err)
	}
	if err := seedClients(db); err != nil {
		return fmt.Errorf("failed to seed clients: %w", err)
	}

	log.Info("Seed data loaded")
	return nil
}

func isEmpty(db *gorm.DB, model interface{}) (bool, error) {
	var count int64
	if err := db.Model(model).Count(&count).Error; err != nil {
		return false, err
	}
	return count == 0, nil
}

func seedUsers(db *gorm.DB) error {
	empty, err := isEmpty(db, &domain.User{})
	if err != nil || !empty {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(DefaultSeedPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	users := []domain.User{
		{Email: "admin@montecristo.com", Name: "Administrador", Role: domain.RoleAdmin, PasswordHash: string(hash)},
		{Email: "vendedor@montecristo.com", Name: "Juan Pérez", Role: domain.RoleVendedor, PasswordHash: string(hash)},
	}
	return db.Create(&users).Error
}

func seedProducts(db *gorm.DB) error {
	empty, err := isEmpty(db, &domain.Product{})
	if err != nil || !empty {
		return err
	}

	products := []domain.Product{
		{
			Code:        "TOR001",
			Name:        "Tornillo Hexagonal M8x20",
			Description: "Tornillo hexagonal galvanizado M8x20mm",
			Category:    "Tornillería",
			Price:       decimal.NewFromInt(150),
			Stock:       1000,
		},
		{
			Code:        "TUE001",
			Name:        "Tuerca Hexagonal M8",
			Description: "Tuerca hexagonal galvanizada M8",
			Category:    "Tornillería",
			Price:       decimal.NewFromInt(80),
			Stock:       800,
		},
		{
			Code:        "ARA001",
			Name:        "Arandela Plana M8",
			Description: "Arandela plana galvanizada M8",
			Category:    "Tornillería",
			Price:       decimal.NewFromInt(25),
			Stock:       2000,
		},
	}
	return db.Create(&products).Error
}

func seedClients(db *gorm.DB) error {
	empty, err := isEmpty(db, &domain.Client{})
	if err != nil || !empty {
		return err
	}

	clients := []domain.Client{
		{
			BusinessName:   "Constructora ABC Ltda.",
			RUT:            "76.123.456-7",
			Email:          "compras@constructoraabc.cl",
			Phone:          "+56 2 2345 6789",
			Address:        "Av. Providencia 1234, Santiago",
			ContactName:    "María González",
			ContactPhone:   "+56 9 8765 4321",
			ContactEmail:   "maria.gonzalez@constructoraabc.cl",
			QuotationCount: 5,
			PurchaseCount:  3,
			TotalPurchases: decimal.NewFromInt(2500000),
		},
		{
			BusinessName:   "Metalúrgica XYZ S.A.",
			RUT:            "96.789.123-4",
			Email:          "adquisiciones@metalurgicaxyz.cl",
			Phone:          "+56 2 3456 7890",
			Address:        "Calle Industrial 567, Maipú",
			ContactName:    "Carlos Rodríguez",
			ContactPhone:   "+56 9 7654 3210",
			ContactEmail:   "carlos.rodriguez@metalurgicaxyz.cl",
			QuotationCount: 8,
			PurchaseCount:  6,
			TotalPurchases: decimal.NewFromInt(4200000),
		},
	}
	return db.Create(&clients).Error
}
