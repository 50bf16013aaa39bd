package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/montecristo/sales-api/internal/auth"
	"github.com/montecristo/sales-api/internal/config"
	"github.com/montecristo/sales-api/internal/document"
	"github.com/montecristo/sales-api/internal/domain"
	"github.com/montecristo/sales-api/internal/pricing"
	"github.com/montecristo/sales-api/internal/repository"
	"github.com/montecristo/sales-api/internal/service"
	"github.com/montecristo/sales-api/internal/storage"
	"github.com/montecristo/sales-api/internal/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	testAtRiskThreshold   = 3
	testLowStockThreshold = 100
)

type testServices struct {
	db         *gorm.DB
	store      storage.Storage
	products   *service.ProductService
	clients    *service.ClientService
	quotations *service.QuotationService
	documents  *service.QuotationDocumentService
	reports    *service.ReportService
	auth       *service.AuthService
}

func setupServices(t *testing.T) *testServices {
	t.Helper()
	logger := zap.NewNop()
	db := testutil.SetupTestDB(t)

	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	engine, err := pricing.NewEngine(pricing.DefaultTaxRate)
	require.NoError(t, err)

	productRepo := repository.NewProductRepository(db)
	clientRepo := repository.NewClientRepository(db)
	quotationRepo := repository.NewQuotationRepository(db)
	userRepo := repository.NewUserRepository(db)

	numbers := service.NewNumberSequenceService(repository.NewNumberSequenceRepository(db), "COT", logger)
	documents := service.NewQuotationDocumentService(quotationRepo, store, document.NewRenderer(document.DefaultCompany), logger)

	tokens, err := auth.NewTokenManager(&config.AuthConfig{
		JWTSecret:     "service-test-secret",
		Issuer:        "montecristo-sales-api",
		TokenTTLHours: 12,
	})
	require.NoError(t, err)

	return &testServices{
		db:         db,
		store:      store,
		products:   service.NewProductService(productRepo, store, testLowStockThreshold, logger),
		clients:    service.NewClientService(clientRepo, testAtRiskThreshold, logger),
		quotations: service.NewQuotationService(quotationRepo, clientRepo, productRepo, numbers, engine, documents, 72*time.Hour, logger),
		documents:  documents,
		reports:    service.NewReportService(quotationRepo, clientRepo, productRepo, testAtRiskThreshold, testLowStockThreshold, logger),
		auth:       service.NewAuthService(userRepo, tokens, logger),
	}
}

func sellerContext(name string) context.Context {
	return auth.WithUserContext(context.Background(), &auth.UserContext{
		UserID:      uuid.New(),
		DisplayName: name,
		Email:       "vendedor@montecristo.com",
		Role:        domain.RoleVendedor,
	})
}

func floatPtr(v float64) *float64 { return &v }

func stringPtr(v string) *string { return &v }

func statusPtr(v domain.QuotationStatus) *domain.QuotationStatus { return &v }
