package handler

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/montecristo/sales-api/internal/document"
	"github.com/montecristo/sales-api/internal/domain"
	"go.uber.org/zap"
)

type transitionFunc func(ctx context.Context, id uuid.UUID) (*domain.QuotationDTO, error)

func (h *QuotationHandler) transition(w http.ResponseWriter, r *http.Request, action string, fn transitionFunc) {
	id, ok := parseID(w, r, "quotation")
	if !ok {
		return
	}

	quotation, err := fn(r.Context(), id)
	if err != nil {
		handleServiceError(w, h.logger, err, action+" quotation")
		return
	}

	respondJSON(w, http.StatusOK, quotation)
}

// Send godoc
// @Summary Send quotation
// @Description Records the send time of a pending quotation and archives its PDF
// @Tags Quotations
// @Produce json
// @Param id path string true "Quotation ID"
// @Success 200 {object} domain.QuotationDTO
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Router /quotations/{id}/send [post]
func (h *QuotationHandler) Send(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "send", h.quotationService.Send)
}

// Accept godoc
// @Summary Accept quotation
// @Description Closes a pending quotation as a purchase and updates the client's counters
// @Tags Quotations
// @Produce json
// @Param id path string true "Quotation ID"
// @Success 200 {object} domain.QuotationDTO
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Router /quotations/{id}/accept [post]
func (h *QuotationHandler) Accept(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "accept", h.quotationService.Accept)
}

// Reject godoc
// @Summary Reject quotation
// @Tags Quotations
// @Produce json
// @Param id path string true "Quotation ID"
// @Success 200 {object} domain.QuotationDTO
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Router /quotations/{id}/reject [post]
func (h *QuotationHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "reject", h.quotationService.Reject)
}

// Expire godoc
// @Summary Expire quotation
// @Tags Quotations
// @Produce json
// @Param id path string true "Quotation ID"
// @Success 200 {object} domain.QuotationDTO
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Router /quotations/{id}/expire [post]
func (h *QuotationHandler) Expire(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "expire", h.quotationService.Expire)
}

// PDF godoc
// @Summary Download quotation PDF
// @Tags Quotations
// @Produce application/pdf
// @Param id path string true "Quotation ID"
// @Success 200 {file} binary
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /quotations/{id}/pdf [get]
func (h *QuotationHandler) PDF(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "quotation")
	if !ok {
		return
	}

	body, filename, err := h.documentService.Open(r.Context(), id)
	if err != nil {
		handleServiceError(w, h.logger, err, "render quotation document")
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", document.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, body); err != nil {
		h.logger.Warn("failed to stream quotation document", zap.String("quotation_id", id.String()), zap.Error(err))
	}
}
