package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/montecristo/sales-api/internal/domain"
	"github.com/montecristo/sales-api/internal/mapper"
	"github.com/montecristo/sales-api/internal/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	dashboardTopClients       = 5
	dashboardRecentQuotations = 5
	reportTopClients          = 10
	reportTopProducts         = 10
	reportMonths              = 6
	reportDateLayout          = "2006-01-02"
)

// ReportService aggregates quotations, clients and products for the dashboard and reports
type ReportService struct {
	quotationRepo     *repository.QuotationRepository
	clientRepo        *repository.ClientRepository
	productRepo       *repository.ProductRepository
	atRiskThreshold   int
	lowStockThreshold int
	logger            *zap.Logger
	now               func() time.Time
}

func NewReportService(
	quotationRepo *repository.QuotationRepository,
	clientRepo *repository.ClientRepository,
	productRepo *repository.ProductRepository,
	atRiskThreshold int,
	lowStockThreshold int,
	logger *zap.Logger,
) *ReportService {
	return &ReportService{
		quotationRepo:     quotationRepo,
		clientRepo:        clientRepo,
		productRepo:       productRepo,
		atRiskThreshold:   atRiskThreshold,
		lowStockThreshold: lowStockThreshold,
		logger:            logger,
		now:               time.Now,
	}
}

// GetDashboard returns the headline figures across all data
func (s *ReportService) GetDashboard(ctx context.Context) (*domain.DashboardDTO, error) {
	byStatus, err := s.quotationRepo.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count quotations: %w", err)
	}

	totalClients, err := s.clientRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count clients: %w", err)
	}
	activeClients, err := s.clientRepo.CountWithStatus(ctx, domain.ClientStatusActive, s.atRiskThreshold)
	if err != nil {
		return nil, fmt.Errorf("failed to count active clients: %w", err)
	}
	blockedClients, err := s.clientRepo.CountBlocked(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count blocked clients: %w", err)
	}

	totalProducts, err := s.productRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}
	lowStock, err := s.productRepo.CountLowStock(ctx, s.lowStockThreshold)
	if err != nil {
		return nil, fmt.Errorf("failed to count low stock products: %w", err)
	}

	topClients, err := s.clientRepo.TopByPurchases(ctx, dashboardTopClients, false)
	if err != nil {
		return nil, fmt.Errorf("failed to get top clients: %w", err)
	}

	recent, err := s.quotationRepo.ListRecent(ctx, dashboardRecentQuotations)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent quotations: %w", err)
	}

	return &domain.DashboardDTO{
		Quotations:       statusCountsFromMap(byStatus),
		TotalClients:     totalClients,
		ActiveClients:    activeClients,
		BlockedClients:   blockedClients,
		TotalProducts:    totalProducts,
		LowStockProducts: lowStock,
		TopClients:       clientSummaries(topClients),
		RecentQuotations: mapper.ToQuotationDTOs(recent),
	}, nil
}

// GetReport aggregates quotations created between the from and to dates,
// both inclusive. The monthly series always covers the six months up to now.
func (s *ReportService) GetReport(ctx context.Context, from, to time.Time) (*domain.ReportDTO, error) {
	from = startOfDay(from)
	to = startOfDay(to)
	if to.Before(from) {
		return nil, fmt.Errorf("%w: 'to' must not be before 'from'", ErrValidation)
	}

	quotations, err := s.quotationRepo.ListCreatedBetween(ctx, from, to.AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("failed to list quotations: %w", err)
	}

	counts := domain.StatusCountsDTO{}
	revenue := decimal.Zero
	clients := make(map[uuid.UUID]struct{})
	for i := range quotations {
		q := &quotations[i]
		addStatus(&counts, q.Status)
		if q.Status == domain.QuotationStatusAccepted {
			revenue = revenue.Add(q.Total)
		}
		clients[q.ClientID] = struct{}{}
	}

	topClients, err := s.clientRepo.TopByPurchases(ctx, reportTopClients, true)
	if err != nil {
		return nil, fmt.Errorf("failed to get top clients: %w", err)
	}
	atRisk, err := s.clientRepo.AtRisk(ctx, s.atRiskThreshold)
	if err != nil {
		return nil, fmt.Errorf("failed to get at-risk clients: %w", err)
	}

	monthly, err := s.monthlyPerformance(ctx)
	if err != nil {
		return nil, err
	}

	return &domain.ReportDTO{
		From:               from.Format(reportDateLayout),
		To:                 to.Format(reportDateLayout),
		Quotations:         counts,
		ConversionRate:     ConversionRate(counts.Accepted, counts.Total),
		Revenue:            mapper.Money(revenue),
		ActiveClients:      int64(len(clients)),
		TopClients:         clientSummaries(topClients),
		AtRiskClients:      clientSummaries(atRisk),
		ProductPerformance: productPerformance(quotations, reportTopProducts),
		Monthly:            monthly,
	}, nil
}

func (s *ReportService) monthlyPerformance(ctx context.Context) ([]domain.MonthlyPerformanceDTO, error) {
	now := s.now().UTC()
	currentMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	start := currentMonth.AddDate(0, -(reportMonths - 1), 0)
	end := currentMonth.AddDate(0, 1, 0)

	quotations, err := s.quotationRepo.ListCreatedBetween(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list quotations for monthly series: %w", err)
	}

	months := make([]domain.MonthlyPerformanceDTO, reportMonths)
	revenue := make([]decimal.Decimal, reportMonths)
	index := make(map[string]int, reportMonths)
	for i := 0; i < reportMonths; i++ {
		key := start.AddDate(0, i, 0).Format("2006-01")
		months[i].Month = key
		revenue[i] = decimal.Zero
		index[key] = i
	}

	for i := range quotations {
		q := &quotations[i]
		idx, ok := index[q.CreatedAt.UTC().Format("2006-01")]
		if !ok {
			continue
		}
		months[idx].Quotations++
		if q.Status == domain.QuotationStatusAccepted {
			months[idx].Accepted++
			revenue[idx] = revenue[idx].Add(q.Total)
		}
	}
	for i := range months {
		months[i].Revenue = mapper.Money(revenue[i])
	}
	return months, nil
}

// ConversionRate returns accepted / total × 100 with two decimals, 0 when total is 0
func ConversionRate(accepted, total int) float64 {
	if total == 0 {
		return 0
	}
	rate := decimal.NewFromInt(int64(accepted)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(total))).
		Round(2)
	return rate.InexactFloat64()
}

type productAggregate struct {
	id       uuid.UUID
	code     string
	name     string
	quantity int
	revenue  decimal.Decimal
}

// productPerformance sums quoted quantity and item subtotals per product,
// highest revenue first
func productPerformance(quotations []domain.Quotation, limit int) []domain.ProductPerformanceDTO {
	byProduct := make(map[uuid.UUID]*productAggregate)
	for i := range quotations {
		for _, item := range quotations[i].Items {
			agg, ok := byProduct[item.ProductID]
			if !ok {
				agg = &productAggregate{id: item.ProductID, code: item.ProductCode, name: item.ProductName, revenue: decimal.Zero}
				byProduct[item.ProductID] = agg
			}
			agg.quantity += item.Quantity
			agg.revenue = agg.revenue.Add(item.Subtotal)
		}
	}

	aggregates := make([]*productAggregate, 0, len(byProduct))
	for _, agg := range byProduct {
		aggregates = append(aggregates, agg)
	}
	sort.Slice(aggregates, func(i, j int) bool {
		if c := aggregates[i].revenue.Cmp(aggregates[j].revenue); c != 0 {
			return c > 0
		}
		if aggregates[i].quantity != aggregates[j].quantity {
			return aggregates[i].quantity > aggregates[j].quantity
		}
		return aggregates[i].code < aggregates[j].code
	})
	if len(aggregates) > limit {
		aggregates = aggregates[:limit]
	}

	result := make([]domain.ProductPerformanceDTO, len(aggregates))
	for i, agg := range aggregates {
		result[i] = domain.ProductPerformanceDTO{
			ProductID:      agg.id,
			Code:           agg.code,
			Name:           agg.name,
			QuotedQuantity: agg.quantity,
			QuotedRevenue:  mapper.Money(agg.revenue),
		}
	}
	return result
}

func statusCountsFromMap(byStatus map[domain.QuotationStatus]int) domain.StatusCountsDTO {
	var counts domain.StatusCountsDTO
	for _, status := range domain.AllQuotationStatuses() {
		addStatusCount(&counts, status, byStatus[status])
	}
	return counts
}

func addStatus(counts *domain.StatusCountsDTO, status domain.QuotationStatus) {
	addStatusCount(counts, status, 1)
}

func addStatusCount(counts *domain.StatusCountsDTO, status domain.QuotationStatus, n int) {
	switch status {
	case domain.QuotationStatusPending:
		counts.Pending += n
	case domain.QuotationStatusAccepted:
		counts.Accepted += n
	case domain.QuotationStatusRejected:
		counts.Rejected += n
	case domain.QuotationStatusExpired:
		counts.Expired += n
	default:
		return
	}
	counts.Total += n
}

func clientSummaries(clients []domain.Client) []domain.ClientSummaryDTO {
	summaries := make([]domain.ClientSummaryDTO, len(clients))
	for i := range clients {
		summaries[i] = mapper.ToClientSummaryDTO(&clients[i])
	}
	return summaries
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
