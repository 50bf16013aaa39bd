package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/montecristo/sales-api/internal/domain"
	"github.com/montecristo/sales-api/internal/service"
	"go.uber.org/zap"
)

type QuotationHandler struct {
	quotationService *service.QuotationService
	documentService  *service.QuotationDocumentService
	logger           *zap.Logger
}

func NewQuotationHandler(
	quotationService *service.QuotationService,
	documentService *service.QuotationDocumentService,
	logger *zap.Logger,
) *QuotationHandler {
	return &QuotationHandler{
		quotationService: quotationService,
		documentService:  documentService,
		logger:           logger,
	}
}

// List godoc
// @Summary List quotations
// @Description Get paginated list of quotations, newest first
// @Tags Quotations
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 200)" default(20)
// @Param search query string false "Search by number or client"
// @Param status query string false "Filter by status" Enums(pending, accepted, rejected, expired)
// @Param clientId query string false "Filter by client ID"
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.QuotationDTO}
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Router /quotations [get]
func (h *QuotationHandler) List(w http.ResponseWriter, r *http.Request) {
	page, pageSize := parsePagination(r)
	filter := domain.QuotationFilter{
		Search:   r.URL.Query().Get("search"),
		Status:   domain.QuotationStatus(r.URL.Query().Get("status")),
		Page:     page,
		PageSize: pageSize,
	}
	if raw := r.URL.Query().Get("clientId"); raw != "" {
		clientID, err := uuid.Parse(raw)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid client ID")
			return
		}
		filter.ClientID = &clientID
	}

	result, err := h.quotationService.List(r.Context(), filter)
	if err != nil {
		handleServiceError(w, h.logger, err, "list quotations")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// Create godoc
// @Summary Create quotation
// @Description Prices the items and stores a pending quotation with a new number.
// @Description A missing unitPrice takes the product's current price; validUntil defaults to the configured validity.
// @Tags Quotations
// @Accept json
// @Produce json
// @Param quotation body domain.CreateQuotationRequest true "Quotation draft"
// @Success 201 {object} domain.QuotationDTO
// @Failure 400 {object} domain.APIError
// @Failure 422 {object} domain.APIError "Unknown client or product, or client blocked"
// @Security BearerAuth
// @Router /quotations [post]
func (h *QuotationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateQuotationRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	quotation, err := h.quotationService.Create(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "create quotation")
		return
	}

	w.Header().Set("Location", "/api/v1/quotations/"+quotation.ID.String())
	respondJSON(w, http.StatusCreated, quotation)
}

// Preview godoc
// @Summary Price a quotation draft
// @Description Computes line subtotals, tax and total without storing anything
// @Tags Quotations
// @Accept json
// @Produce json
// @Param draft body domain.PricingPreviewRequest true "Items and delivery cost"
// @Success 200 {object} domain.PricingPreviewDTO
// @Failure 400 {object} domain.APIError
// @Failure 422 {object} domain.APIError
// @Security BearerAuth
// @Router /quotations/preview [post]
func (h *QuotationHandler) Preview(w http.ResponseWriter, r *http.Request) {
	var req domain.PricingPreviewRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	preview, err := h.quotationService.Preview(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "price quotation")
		return
	}

	respondJSON(w, http.StatusOK, preview)
}

// GetByID godoc
// @Summary Get quotation
// @Tags Quotations
// @Produce json
// @Param id path string true "Quotation ID"
// @Success 200 {object} domain.QuotationDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /quotations/{id} [get]
func (h *QuotationHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "quotation")
	if !ok {
		return
	}

	quotation, err := h.quotationService.FindByID(r.Context(), id)
	if err != nil {
		handleServiceError(w, h.logger, err, "get quotation")
		return
	}

	respondJSON(w, http.StatusOK, quotation)
}

// Update godoc
// @Summary Update quotation
// @Description Partial update. Content can only change while pending and is repriced.
// @Description A status field moves the quotation through its lifecycle.
// @Tags Quotations
// @Accept json
// @Produce json
// @Param id path string true "Quotation ID"
// @Param quotation body domain.UpdateQuotationRequest true "Fields to change"
// @Success 200 {object} domain.QuotationDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError "Quotation closed or invalid transition"
// @Failure 422 {object} domain.APIError
// @Security BearerAuth
// @Router /quotations/{id} [put]
func (h *QuotationHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "quotation")
	if !ok {
		return
	}

	var req domain.UpdateQuotationRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	quotation, err := h.quotationService.Update(r.Context(), id, &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "update quotation")
		return
	}

	respondJSON(w, http.StatusOK, quotation)
}

// Delete godoc
// @Summary Delete quotation
// @Tags Quotations
// @Param id path string true "Quotation ID"
// @Success 204
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /quotations/{id} [delete]
func (h *QuotationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "quotation")
	if !ok {
		return
	}

	if err := h.quotationService.Delete(r.Context(), id); err != nil {
		handleServiceError(w, h.logger, err, "delete quotation")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
