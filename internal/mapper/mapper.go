package mapper

import (
	"time"

	"github.com/montecristo/sales-api/internal/domain"
	"github.com/shopspring/decimal"
)

const timestampLayout = "2006-01-02T15:04:05Z"

// StockStatus values reported on products
const (
	StockStatusOut = "out_of_stock"
	StockStatusLow = "low_stock"
	StockStatusIn  = "in_stock"
)

func formatTime(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

// Money converts a decimal amount to float64 for JSON responses
func Money(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}

// StockStatus classifies a stock level against the low stock threshold
func StockStatus(stock, lowStockThreshold int) string {
	switch {
	case stock <= 0:
		return StockStatusOut
	case stock < lowStockThreshold:
		return StockStatusLow
	default:
		return StockStatusIn
	}
}

// ToProductDTO converts Product to ProductDTO
func ToProductDTO(product *domain.Product, lowStockThreshold int) domain.ProductDTO {
	return domain.ProductDTO{
		ID:          product.ID,
		Code:        product.Code,
		Name:        product.Name,
		Description: product.Description,
		Category:    product.Category,
		Price:       Money(product.Price),
		Stock:       product.Stock,
		StockStatus: StockStatus(product.Stock, lowStockThreshold),
		HasImage:    product.ImagePath != "",
		CreatedAt:   formatTime(product.CreatedAt),
		UpdatedAt:   formatTime(product.UpdatedAt),
	}
}

// ToClientDTO converts Client to ClientDTO
func ToClientDTO(client *domain.Client, atRiskThreshold int) domain.ClientDTO {
	return domain.ClientDTO{
		ID:             client.ID,
		BusinessName:   client.BusinessName,
		RUT:            client.RUT,
		Email:          client.Email,
		Phone:          client.Phone,
		Address:        client.Address,
		ContactName:    client.ContactName,
		ContactPhone:   client.ContactPhone,
		ContactEmail:   client.ContactEmail,
		IsBlocked:      client.IsBlocked,
		BlockedAt:      formatTimePtr(client.BlockedAt),
		Status:         client.Status(atRiskThreshold),
		Segment:        client.Segment(),
		QuotationCount: client.QuotationCount,
		PurchaseCount:  client.PurchaseCount,
		TotalPurchases: Money(client.TotalPurchases),
		CreatedAt:      formatTime(client.CreatedAt),
		UpdatedAt:      formatTime(client.UpdatedAt),
	}
}

// ToClientSummaryDTO converts Client to the short form used in reports
func ToClientSummaryDTO(client *domain.Client) domain.ClientSummaryDTO {
	return domain.ClientSummaryDTO{
		ID:             client.ID,
		BusinessName:   client.BusinessName,
		RUT:            client.RUT,
		QuotationCount: client.QuotationCount,
		PurchaseCount:  client.PurchaseCount,
		TotalPurchases: Money(client.TotalPurchases),
	}
}

// ToQuotationItemDTO converts QuotationItem to QuotationItemDTO
func ToQuotationItemDTO(item *domain.QuotationItem) domain.QuotationItemDTO {
	return domain.QuotationItemDTO{
		ID:          item.ID,
		ProductID:   item.ProductID,
		ProductCode: item.ProductCode,
		ProductName: item.ProductName,
		Quantity:    item.Quantity,
		UnitPrice:   Money(item.UnitPrice),
		Discount:    Money(item.Discount),
		Subtotal:    Money(item.Subtotal),
	}
}

// ToQuotationDTO converts Quotation to QuotationDTO
func ToQuotationDTO(q *domain.Quotation) domain.QuotationDTO {
	items := make([]domain.QuotationItemDTO, len(q.Items))
	for i := range q.Items {
		items[i] = ToQuotationItemDTO(&q.Items[i])
	}

	return domain.QuotationDTO{
		ID:              q.ID,
		Number:          q.Number,
		ClientID:        q.ClientID,
		ClientName:      q.ClientName,
		ClientRUT:       q.ClientRUT,
		Items:           items,
		DeliveryAddress: q.DeliveryAddress,
		DeliveryCost:    Money(q.DeliveryCost),
		Subtotal:        Money(q.Subtotal),
		TaxRate:         Money(q.TaxRate),
		Tax:             Money(q.Tax),
		Total:           Money(q.Total),
		ValidUntil:      formatTime(q.ValidUntil),
		Status:          q.Status,
		Notes:           q.Notes,
		CreatedBy:       q.CreatedBy,
		CreatedByName:   q.CreatedByName,
		CreatedAt:       formatTime(q.CreatedAt),
		UpdatedAt:       formatTime(q.UpdatedAt),
		SentAt:          formatTimePtr(q.SentAt),
		RespondedAt:     formatTimePtr(q.RespondedAt),
		HasDocument:     q.DocumentPath != "",
	}
}

// ToQuotationDTOs converts a slice of quotations
func ToQuotationDTOs(quotations []domain.Quotation) []domain.QuotationDTO {
	dtos := make([]domain.QuotationDTO, len(quotations))
	for i := range quotations {
		dtos[i] = ToQuotationDTO(&quotations[i])
	}
	return dtos
}

// ToUserDTO converts User to UserDTO
func ToUserDTO(user *domain.User) domain.UserDTO {
	return domain.UserDTO{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.Name,
		Role:  user.Role,
	}
}
