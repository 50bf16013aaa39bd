package handler

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/montecristo/sales-api/internal/config"
	"github.com/montecristo/sales-api/internal/domain"
	"github.com/montecristo/sales-api/internal/service"
	"go.uber.org/zap"
)

type ProductHandler struct {
	productService *service.ProductService
	maxUploadBytes int64
	logger         *zap.Logger
}

func NewProductHandler(productService *service.ProductService, storageCfg *config.StorageConfig, logger *zap.Logger) *ProductHandler {
	maxMB := storageCfg.MaxUploadSizeMB
	if maxMB <= 0 {
		maxMB = 10
	}
	return &ProductHandler{
		productService: productService,
		maxUploadBytes: maxMB << 20,
		logger:         logger,
	}
}

// List godoc
// @Summary List products
// @Description Get paginated list of products with optional filters
// @Tags Products
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 200)" default(20)
// @Param search query string false "Search by code or name"
// @Param category query string false "Filter by category"
// @Param lowStock query bool false "Only products below the low stock threshold"
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.ProductDTO}
// @Failure 401 {object} domain.APIError
// @Security BearerAuth
// @Router /products [get]
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	page, pageSize := parsePagination(r)
	lowStock, _ := strconv.ParseBool(r.URL.Query().Get("lowStock"))

	result, err := h.productService.List(r.Context(), domain.ProductFilter{
		Search:       r.URL.Query().Get("search"),
		Category:     r.URL.Query().Get("category"),
		LowStockOnly: lowStock,
		Page:         page,
		PageSize:     pageSize,
	})
	if err != nil {
		handleServiceError(w, h.logger, err, "list products")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// Categories godoc
// @Summary List product categories
// @Tags Products
// @Produce json
// @Success 200 {array} string
// @Security BearerAuth
// @Router /products/categories [get]
func (h *ProductHandler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.productService.Categories(r.Context())
	if err != nil {
		handleServiceError(w, h.logger, err, "list product categories")
		return
	}

	respondJSON(w, http.StatusOK, categories)
}

// Create godoc
// @Summary Create product
// @Tags Products
// @Accept json
// @Produce json
// @Param product body domain.CreateProductRequest true "Product data"
// @Success 201 {object} domain.ProductDTO
// @Failure 400 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Router /products [post]
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateProductRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	product, err := h.productService.Create(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "create product")
		return
	}

	w.Header().Set("Location", "/api/v1/products/"+product.ID.String())
	respondJSON(w, http.StatusCreated, product)
}

// GetByID godoc
// @Summary Get product
// @Tags Products
// @Produce json
// @Param id path string true "Product ID"
// @Success 200 {object} domain.ProductDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /products/{id} [get]
func (h *ProductHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "product")
	if !ok {
		return
	}

	product, err := h.productService.GetByID(r.Context(), id)
	if err != nil {
		handleServiceError(w, h.logger, err, "get product")
		return
	}

	respondJSON(w, http.StatusOK, product)
}

// Update godoc
// @Summary Update product
// @Description Partial update; omitted fields keep their value
// @Tags Products
// @Accept json
// @Produce json
// @Param id path string true "Product ID"
// @Param product body domain.UpdateProductRequest true "Fields to change"
// @Success 200 {object} domain.ProductDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Router /products/{id} [put]
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "product")
	if !ok {
		return
	}

	var req domain.UpdateProductRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	product, err := h.productService.Update(r.Context(), id, &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "update product")
		return
	}

	respondJSON(w, http.StatusOK, product)
}

// Delete godoc
// @Summary Delete product
// @Description Admin only. Quotation items keep their copied code and name.
// @Tags Products
// @Param id path string true "Product ID"
// @Success 204
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /products/{id} [delete]
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "product")
	if !ok {
		return
	}

	if err := h.productService.Delete(r.Context(), id); err != nil {
		handleServiceError(w, h.logger, err, "delete product")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// UploadImage godoc
// @Summary Upload product image
// @Description Multipart upload in field "image". PNG, JPEG or WebP.
// @Tags Products
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Product ID"
// @Param image formData file true "Image file"
// @Success 200 {object} domain.ProductDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 413 {object} domain.APIError
// @Security BearerAuth
// @Router /products/{id}/image [post]
func (h *ProductHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "product")
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respondWithError(w, http.StatusRequestEntityTooLarge, "Image too large")
			return
		}
		respondWithError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("image")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Missing image file")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if parsed, _, err := mime.ParseMediaType(contentType); err == nil {
		contentType = parsed
	}

	product, err := h.productService.UploadImage(r.Context(), id, contentType, file)
	if err != nil {
		handleServiceError(w, h.logger, err, "upload product image")
		return
	}

	respondJSON(w, http.StatusOK, product)
}

// GetImage godoc
// @Summary Download product image
// @Tags Products
// @Produce image/png,image/jpeg,image/webp
// @Param id path string true "Product ID"
// @Success 200 {file} binary
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /products/{id}/image [get]
func (h *ProductHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "product")
	if !ok {
		return
	}

	body, contentType, err := h.productService.GetImage(r.Context(), id)
	if err != nil {
		handleServiceError(w, h.logger, err, "get product image")
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, body); err != nil {
		h.logger.Warn("failed to stream product image", zap.String("product_id", id.String()), zap.Error(err))
	}
}
