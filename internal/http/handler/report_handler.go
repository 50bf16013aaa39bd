package handler

import (
	"net/http"
	"time"

	"github.com/montecristo/sales-api/internal/config"
	"github.com/montecristo/sales-api/internal/domain"
	"github.com/montecristo/sales-api/internal/service"
	"go.uber.org/zap"
)

const (
	reportDateLayout  = "2006-01-02"
	defaultReportDays = 30
)

type ReportHandler struct {
	reportService    *service.ReportService
	quotationService *service.QuotationService
	numbers          *service.NumberSequenceService
	cfg              *config.Config
	logger           *zap.Logger
	now              func() time.Time
}

func NewReportHandler(
	reportService *service.ReportService,
	quotationService *service.QuotationService,
	numbers *service.NumberSequenceService,
	cfg *config.Config,
	logger *zap.Logger,
) *ReportHandler {
	return &ReportHandler{
		reportService:    reportService,
		quotationService: quotationService,
		numbers:          numbers,
		cfg:              cfg,
		logger:           logger,
		now:              time.Now,
	}
}

// Dashboard godoc
// @Summary Get dashboard
// @Description Quotation counts per status, client and product totals, top clients and recent quotations
// @Tags Reports
// @Produce json
// @Success 200 {object} domain.DashboardDTO
// @Security BearerAuth
// @Router /dashboard [get]
func (h *ReportHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	dashboard, err := h.reportService.GetDashboard(r.Context())
	if err != nil {
		handleServiceError(w, h.logger, err, "build dashboard")
		return
	}

	respondJSON(w, http.StatusOK, dashboard)
}

// Report godoc
// @Summary Get sales report
// @Description Report over quotations created between from and to, both inclusive. Defaults to the last 30 days.
// @Tags Reports
// @Produce json
// @Param from query string false "Start date (YYYY-MM-DD)"
// @Param to query string false "End date (YYYY-MM-DD)"
// @Success 200 {object} domain.ReportDTO
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Router /reports [get]
func (h *ReportHandler) Report(w http.ResponseWriter, r *http.Request) {
	today := h.now().UTC().Truncate(24 * time.Hour)
	to, ok := parseDate(w, r, "to", today)
	if !ok {
		return
	}
	from, ok := parseDate(w, r, "from", to.AddDate(0, 0, -defaultReportDays))
	if !ok {
		return
	}

	report, err := h.reportService.GetReport(r.Context(), from, to)
	if err != nil {
		handleServiceError(w, h.logger, err, "build report")
		return
	}

	respondJSON(w, http.StatusOK, report)
}

// Settings godoc
// @Summary Get effective settings
// @Description Tax rate, quotation number prefix, default validity and report thresholds in effect
// @Tags Reports
// @Produce json
// @Success 200 {object} domain.SettingsDTO
// @Security BearerAuth
// @Router /settings [get]
func (h *ReportHandler) Settings(w http.ResponseWriter, r *http.Request) {
	taxRate, _ := h.quotationService.TaxRate().Float64()

	respondJSON(w, http.StatusOK, domain.SettingsDTO{
		TaxRate:                  taxRate,
		NumberPrefix:             h.numbers.Prefix(),
		DefaultValidityDays:      h.cfg.Quotation.DefaultValidityDays,
		AtRiskQuotationThreshold: h.cfg.Clients.AtRiskQuotationThreshold,
		LowStockThreshold:        h.cfg.Reports.LowStockThreshold,
	})
}

func parseDate(w http.ResponseWriter, r *http.Request, param string, fallback time.Time) (time.Time, bool) {
	raw := r.URL.Query().Get(param)
	if raw == "" {
		return fallback, true
	}
	t, err := time.Parse(reportDateLayout, raw)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid '"+param+"' date, expected YYYY-MM-DD")
		return time.Time{}, false
	}
	return t, true
}
