package router_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/montecristo/sales-api/internal/auth"
	"github.com/montecristo/sales-api/internal/config"
	"github.com/montecristo/sales-api/internal/document"
	"github.com/montecristo/sales-api/internal/domain"
	"github.com/montecristo/sales-api/internal/http/handler"
	"github.com/montecristo/sales-api/internal/http/middleware"
	"github.com/montecristo/sales-api/internal/http/router"
	"github.com/montecristo/sales-api/internal/pricing"
	"github.com/montecristo/sales-api/internal/repository"
	"github.com/montecristo/sales-api/internal/service"
	"github.com/montecristo/sales-api/internal/storage"
	"github.com/montecristo/sales-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const testPassword = "123456"

type testAPI struct {
	t           *testing.T
	db          *gorm.DB
	handler     http.Handler
	adminToken  string
	sellerToken string
}

func setupAPI(t *testing.T) *testAPI {
	t.Helper()
	logger := zap.NewNop()
	db := testutil.SetupTestDB(t)

	cfg := &config.Config{
		App:       config.AppConfig{Name: "sales-api", Environment: "test"},
		Database:  config.DatabaseConfig{Driver: "sqlite"},
		Auth:      config.AuthConfig{JWTSecret: "router-test-secret", Issuer: "montecristo-sales-api", TokenTTLHours: 1},
		Pricing:   config.PricingConfig{TaxRate: 0.19},
		Quotation: config.QuotationConfig{NumberPrefix: "COT", DefaultValidityDays: 3},
		Clients:   config.ClientsConfig{AtRiskQuotationThreshold: 3},
		Reports:   config.ReportsConfig{LowStockThreshold: 100},
		Storage:   config.StorageConfig{Mode: "local", MaxUploadSizeMB: 1},
		Security:  config.SecurityConfig{ContentTypeNosniff: true, FrameOptions: "DENY"},
		RateLimit: config.RateLimitConfig{Enabled: false},
	}

	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	engine, err := pricing.NewEngineFromFloat(cfg.Pricing.TaxRate)
	require.NoError(t, err)
	tokens, err := auth.NewTokenManager(&cfg.Auth)
	require.NoError(t, err)

	productRepo := repository.NewProductRepository(db)
	clientRepo := repository.NewClientRepository(db)
	quotationRepo := repository.NewQuotationRepository(db)
	userRepo := repository.NewUserRepository(db)

	numbers := service.NewNumberSequenceService(repository.NewNumberSequenceRepository(db), cfg.Quotation.NumberPrefix, logger)
	documents := service.NewQuotationDocumentService(quotationRepo, store, document.NewRenderer(document.DefaultCompany), logger)
	products := service.NewProductService(productRepo, store, cfg.Reports.LowStockThreshold, logger)
	clients := service.NewClientService(clientRepo, cfg.Clients.AtRiskQuotationThreshold, logger)
	quotations := service.NewQuotationService(quotationRepo, clientRepo, productRepo, numbers, engine, documents, cfg.Quotation.DefaultValidity(), logger)
	reports := service.NewReportService(quotationRepo, clientRepo, productRepo, cfg.Clients.AtRiskQuotationThreshold, cfg.Reports.LowStockThreshold, logger)
	authService := service.NewAuthService(userRepo, tokens, logger)

	rt := router.NewRouter(
		cfg,
		logger,
		db,
		auth.NewMiddleware(tokens, logger),
		middleware.NewRateLimiter(&cfg.RateLimit, logger),
		handler.NewAuthHandler(authService, logger),
		handler.NewProductHandler(products, &cfg.Storage, logger),
		handler.NewClientHandler(clients, logger),
		handler.NewQuotationHandler(quotations, documents, logger),
		handler.NewReportHandler(reports, quotations, numbers, cfg, logger),
	)

	hash, err := service.HashPassword(testPassword)
	require.NoError(t, err)
	admin := &domain.User{Email: "admin@montecristo.com", Name: "Administrador", Role: domain.RoleAdmin, PasswordHash: hash}
	seller := &domain.User{Email: "vendedor@montecristo.com", Name: "Juan Pérez", Role: domain.RoleVendedor, PasswordHash: hash}
	require.NoError(t, db.Create(admin).Error)
	require.NoError(t, db.Create(seller).Error)

	adminToken, _, err := tokens.Issue(admin)
	require.NoError(t, err)
	sellerToken, _, err := tokens.Issue(seller)
	require.NoError(t, err)

	return &testAPI{
		t:           t,
		db:          db,
		handler:     rt.Setup(),
		adminToken:  adminToken,
		sellerToken: sellerToken,
	}
}

func (a *testAPI) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	a.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func quotationBody(clientID, productA, productB string) map[string]interface{} {
	return map[string]interface{}{
		"clientId":        clientID,
		"deliveryAddress": "Av. Providencia 1234, Santiago",
		"deliveryCost":    20,
		"items": []map[string]interface{}{
			{"productId": productA, "quantity": 2, "discount": 10},
			{"productId": productB, "quantity": 1},
		},
	}
}

func TestHealth(t *testing.T) {
	api := setupAPI(t)

	rec := api.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())

	rec = api.do(http.MethodGet, "/health/db", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", decode[map[string]interface{}](t, rec)["status"])
}

func TestAuth(t *testing.T) {
	api := setupAPI(t)

	t.Run("protected routes require a token", func(t *testing.T) {
		rec := api.do(http.MethodGet, "/api/v1/products", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("login", func(t *testing.T) {
		rec := api.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{
			"email":    "vendedor@montecristo.com",
			"password": testPassword,
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		resp := decode[domain.LoginResponse](t, rec)
		assert.Equal(t, "Bearer", resp.TokenType)
		assert.Equal(t, domain.RoleVendedor, resp.User.Role)

		me := api.do(http.MethodGet, "/api/v1/auth/me", resp.AccessToken, nil)
		require.Equal(t, http.StatusOK, me.Code)
		assert.Equal(t, "vendedor@montecristo.com", decode[domain.UserDTO](t, me).Email)
	})

	t.Run("wrong password", func(t *testing.T) {
		rec := api.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{
			"email":    "vendedor@montecristo.com",
			"password": "nope",
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, domain.ErrorTypeUnauthorized, decode[domain.APIError](t, rec).Type)
	})

	t.Run("login validation", func(t *testing.T) {
		rec := api.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": "not-an-email"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		body := decode[domain.APIError](t, rec)
		assert.Equal(t, domain.ErrorTypeValidation, body.Type)
		assert.Contains(t, body.Errors, "email")
		assert.Contains(t, body.Errors, "password")
	})
}

func TestProducts(t *testing.T) {
	api := setupAPI(t)

	rec := api.do(http.MethodPost, "/api/v1/products", api.sellerToken, map[string]interface{}{
		"code":     "TOR-001",
		"name":     "Tornillo hexagonal",
		"category": "Tornillería",
		"price":    150,
		"stock":    40,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[domain.ProductDTO](t, rec)
	assert.Equal(t, "/api/v1/products/"+created.ID.String(), rec.Header().Get("Location"))

	t.Run("duplicate code conflicts", func(t *testing.T) {
		rec := api.do(http.MethodPost, "/api/v1/products", api.sellerToken, map[string]interface{}{
			"code": "TOR-001", "name": "Otro", "category": "Tornillería", "price": 1, "stock": 1,
		})
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("partial update", func(t *testing.T) {
		rec := api.do(http.MethodPut, "/api/v1/products/"+created.ID.String(), api.sellerToken, map[string]interface{}{"stock": 500})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		updated := decode[domain.ProductDTO](t, rec)
		assert.Equal(t, 500, updated.Stock)
		assert.Equal(t, "Tornillo hexagonal", updated.Name)
	})

	t.Run("categories", func(t *testing.T) {
		rec := api.do(http.MethodGet, "/api/v1/products/categories", api.sellerToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, []string{"Tornillería"}, decode[[]string](t, rec))
	})

	t.Run("invalid id", func(t *testing.T) {
		rec := api.do(http.MethodGet, "/api/v1/products/not-a-uuid", api.sellerToken, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("image upload and download", func(t *testing.T) {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="image"; filename="tornillo.png"`)
		h.Set("Content-Type", "image/png")
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write([]byte("\x89PNG\r\n\x1a\nfake"))
		require.NoError(t, err)
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, "/api/v1/products/"+created.ID.String()+"/image", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+api.sellerToken)
		rec := httptest.NewRecorder()
		api.handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.True(t, decode[domain.ProductDTO](t, rec).HasImage)

		img := api.do(http.MethodGet, "/api/v1/products/"+created.ID.String()+"/image", api.sellerToken, nil)
		require.Equal(t, http.StatusOK, img.Code)
		assert.Equal(t, "image/png", img.Header().Get("Content-Type"))
		assert.True(t, strings.HasPrefix(img.Body.String(), "\x89PNG"))
	})

	t.Run("delete requires admin", func(t *testing.T) {
		rec := api.do(http.MethodDelete, "/api/v1/products/"+created.ID.String(), api.sellerToken, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)

		rec = api.do(http.MethodDelete, "/api/v1/products/"+created.ID.String(), api.adminToken, nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)

		rec = api.do(http.MethodGet, "/api/v1/products/"+created.ID.String(), api.adminToken, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestClients(t *testing.T) {
	api := setupAPI(t)

	rec := api.do(http.MethodPost, "/api/v1/clients", api.sellerToken, map[string]interface{}{
		"businessName": "Ferretería El Tornillo",
		"rut":          "76.123.456-k",
		"email":        "compras@eltornillo.cl",
		"phone":        "+56 2 2345 6789",
		"address":      "Av. Matta 500, Santiago",
		"contactName":  "María González",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	client := decode[domain.ClientDTO](t, rec)
	assert.Equal(t, "76.123.456-K", client.RUT)
	assert.Equal(t, domain.ClientStatusActive, client.Status)

	t.Run("unknown status filter", func(t *testing.T) {
		rec := api.do(http.MethodGet, "/api/v1/clients?status=vip", api.sellerToken, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("block requires admin", func(t *testing.T) {
		path := "/api/v1/clients/" + client.ID.String() + "/block"
		assert.Equal(t, http.StatusForbidden, api.do(http.MethodPost, path, api.sellerToken, nil).Code)

		rec := api.do(http.MethodPost, path, api.adminToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, domain.ClientStatusBlocked, decode[domain.ClientDTO](t, rec).Status)

		list := api.do(http.MethodGet, "/api/v1/clients?status=blocked", api.sellerToken, nil)
		require.Equal(t, http.StatusOK, list.Code)
		assert.EqualValues(t, 1, decode[domain.PaginatedResponse](t, list).Total)
	})
}

func TestQuotationLifecycle(t *testing.T) {
	api := setupAPI(t)
	productA := testutil.CreateTestProduct(t, api.db, "A-1", 100)
	productB := testutil.CreateTestProduct(t, api.db, "B-1", 50)
	client := testutil.CreateTestClient(t, api.db, "Constructora Andes")

	body := quotationBody(client.ID.String(), productA.ID.String(), productB.ID.String())

	t.Run("preview does not persist", func(t *testing.T) {
		rec := api.do(http.MethodPost, "/api/v1/quotations/preview", api.sellerToken, map[string]interface{}{
			"deliveryCost": body["deliveryCost"],
			"items":        body["items"],
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		preview := decode[domain.PricingPreviewDTO](t, rec)
		assert.InDelta(t, 230.0, preview.Subtotal, 0.001)
		assert.InDelta(t, 43.7, preview.Tax, 0.001)
		assert.InDelta(t, 293.7, preview.Total, 0.001)

		list := api.do(http.MethodGet, "/api/v1/quotations", api.sellerToken, nil)
		assert.EqualValues(t, 0, decode[domain.PaginatedResponse](t, list).Total)
	})

	rec := api.do(http.MethodPost, "/api/v1/quotations", api.sellerToken, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	q := decode[domain.QuotationDTO](t, rec)
	assert.Equal(t, domain.QuotationStatusPending, q.Status)
	assert.InDelta(t, 293.7, q.Total, 0.001)
	assert.Equal(t, "Juan Pérez", q.CreatedByName)
	assert.True(t, strings.HasPrefix(q.Number, "COT-"))
	base := "/api/v1/quotations/" + q.ID.String()

	t.Run("get", func(t *testing.T) {
		rec := api.do(http.MethodGet, base, api.sellerToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, q.Number, decode[domain.QuotationDTO](t, rec).Number)
	})

	t.Run("update reprices", func(t *testing.T) {
		rec := api.do(http.MethodPut, base, api.sellerToken, map[string]interface{}{"deliveryCost": 0})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.InDelta(t, 273.7, decode[domain.QuotationDTO](t, rec).Total, 0.001)
	})

	t.Run("send then accept", func(t *testing.T) {
		rec := api.do(http.MethodPost, base+"/send", api.sellerToken, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.NotNil(t, decode[domain.QuotationDTO](t, rec).SentAt)

		rec = api.do(http.MethodPost, base+"/accept", api.sellerToken, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		accepted := decode[domain.QuotationDTO](t, rec)
		assert.Equal(t, domain.QuotationStatusAccepted, accepted.Status)
		assert.NotNil(t, accepted.RespondedAt)

		c := api.do(http.MethodGet, "/api/v1/clients/"+client.ID.String(), api.sellerToken, nil)
		require.Equal(t, http.StatusOK, c.Code)
		assert.Equal(t, 1, decode[domain.ClientDTO](t, c).PurchaseCount)
	})

	t.Run("closed quotation rejects further changes", func(t *testing.T) {
		rec := api.do(http.MethodPost, base+"/reject", api.sellerToken, nil)
		assert.Equal(t, http.StatusConflict, rec.Code)

		rec = api.do(http.MethodPut, base, api.sellerToken, map[string]interface{}{"notes": "tarde"})
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("pdf download", func(t *testing.T) {
		rec := api.do(http.MethodGet, base+"/pdf", api.sellerToken, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, document.ContentType, rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Header().Get("Content-Disposition"), q.Number)
		assert.True(t, strings.HasPrefix(rec.Body.String(), "%PDF-"))
	})

	t.Run("delete", func(t *testing.T) {
		assert.Equal(t, http.StatusNoContent, api.do(http.MethodDelete, base, api.sellerToken, nil).Code)
		assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, base, api.sellerToken, nil).Code)
	})
}

func TestQuotationErrors(t *testing.T) {
	api := setupAPI(t)
	product := testutil.CreateTestProduct(t, api.db, "A-1", 100)
	client := testutil.CreateTestClient(t, api.db, "Constructora Andes")

	t.Run("empty items is a validation error", func(t *testing.T) {
		rec := api.do(http.MethodPost, "/api/v1/quotations", api.sellerToken, map[string]interface{}{
			"clientId":        client.ID.String(),
			"deliveryAddress": "Calle 1",
			"items":           []interface{}{},
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, decode[domain.APIError](t, rec).Errors, "items")
	})

	t.Run("item quantity is validated per line", func(t *testing.T) {
		rec := api.do(http.MethodPost, "/api/v1/quotations", api.sellerToken, map[string]interface{}{
			"clientId":        client.ID.String(),
			"deliveryAddress": "Calle 1",
			"items":           []map[string]interface{}{{"productId": product.ID.String(), "quantity": 0}},
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, decode[domain.APIError](t, rec).Errors, "items[0].quantity")
	})

	t.Run("unknown product is unprocessable", func(t *testing.T) {
		body := quotationBody(client.ID.String(), product.ID.String(), "7b0ad4b4-9a7e-4c5f-8d8e-0a1b2c3d4e5f")
		rec := api.do(http.MethodPost, "/api/v1/quotations", api.sellerToken, body)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, domain.ErrorTypeUnprocessable, decode[domain.APIError](t, rec).Type)
	})

	t.Run("blocked client is unprocessable", func(t *testing.T) {
		blocked := testutil.CreateTestClient(t, api.db, "Bloqueada SpA")
		require.Equal(t, http.StatusOK, api.do(http.MethodPost, "/api/v1/clients/"+blocked.ID.String()+"/block", api.adminToken, nil).Code)

		body := quotationBody(blocked.ID.String(), product.ID.String(), product.ID.String())
		rec := api.do(http.MethodPost, "/api/v1/quotations", api.sellerToken, body)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("validUntil in the past", func(t *testing.T) {
		body := quotationBody(client.ID.String(), product.ID.String(), product.ID.String())
		body["validUntil"] = time.Now().Add(-time.Hour).UTC().Format(time.RFC3339)
		rec := api.do(http.MethodPost, "/api/v1/quotations", api.sellerToken, body)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown quotation", func(t *testing.T) {
		rec := api.do(http.MethodPost, "/api/v1/quotations/7b0ad4b4-9a7e-4c5f-8d8e-0a1b2c3d4e5f/accept", api.sellerToken, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/quotations", strings.NewReader("{"))
		req.Header.Set("Authorization", "Bearer "+api.sellerToken)
		rec := httptest.NewRecorder()
		api.handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestReports(t *testing.T) {
	api := setupAPI(t)
	product := testutil.CreateTestProduct(t, api.db, "A-1", 100)
	client := testutil.CreateTestClient(t, api.db, "Constructora Andes")

	body := quotationBody(client.ID.String(), product.ID.String(), product.ID.String())
	rec := api.do(http.MethodPost, "/api/v1/quotations", api.sellerToken, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	t.Run("dashboard", func(t *testing.T) {
		rec := api.do(http.MethodGet, "/api/v1/dashboard", api.sellerToken, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		dashboard := decode[domain.DashboardDTO](t, rec)
		assert.Equal(t, 1, dashboard.Quotations.Pending)
		assert.EqualValues(t, 1, dashboard.TotalProducts)
	})

	t.Run("report defaults to the last 30 days", func(t *testing.T) {
		rec := api.do(http.MethodGet, "/api/v1/reports", api.sellerToken, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		report := decode[domain.ReportDTO](t, rec)
		assert.Equal(t, 1, report.Quotations.Total)
		assert.Len(t, report.Monthly, 6)
	})

	t.Run("report date validation", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, api.do(http.MethodGet, "/api/v1/reports?from=01-02-2024", api.sellerToken, nil).Code)
		assert.Equal(t, http.StatusBadRequest, api.do(http.MethodGet, "/api/v1/reports?from=2024-03-01&to=2024-02-01", api.sellerToken, nil).Code)
	})

	t.Run("settings", func(t *testing.T) {
		rec := api.do(http.MethodGet, "/api/v1/settings", api.sellerToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		settings := decode[domain.SettingsDTO](t, rec)
		assert.InDelta(t, 0.19, settings.TaxRate, 0.0001)
		assert.Equal(t, "COT", settings.NumberPrefix)
		assert.Equal(t, 3, settings.DefaultValidityDays)
	})
}
