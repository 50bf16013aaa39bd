package domain

import (
	"time"

	"github.com/google/uuid"
)

// ============================================================================
// Products
// ============================================================================

type ProductDTO struct {
	ID          uuid.UUID `json:"id"`
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Price       float64   `json:"price"`
	Stock       int       `json:"stock"`
	StockStatus string    `json:"stockStatus"`
	HasImage    bool      `json:"hasImage"`
	CreatedAt   string    `json:"createdAt"` // ISO 8601
	UpdatedAt   string    `json:"updatedAt"` // ISO 8601
}

type CreateProductRequest struct {
	Code        string  `json:"code" validate:"required,max=50"`
	Name        string  `json:"name" validate:"required,max=200"`
	Description string  `json:"description" validate:"max=2000"`
	Category    string  `json:"category" validate:"required,max=100"`
	Price       float64 `json:"price" validate:"gte=0"`
	Stock       int     `json:"stock" validate:"gte=0"`
}

// UpdateProductRequest is a partial update; nil fields are left untouched
type UpdateProductRequest struct {
	Code        *string  `json:"code,omitempty" validate:"omitempty,min=1,max=50"`
	Name        *string  `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Description *string  `json:"description,omitempty" validate:"omitempty,max=2000"`
	Category    *string  `json:"category,omitempty" validate:"omitempty,min=1,max=100"`
	Price       *float64 `json:"price,omitempty" validate:"omitempty,gte=0"`
	Stock       *int     `json:"stock,omitempty" validate:"omitempty,gte=0"`
}

// ProductFilter narrows product listings
type ProductFilter struct {
	Search       string
	Category     string
	LowStockOnly bool
	Page         int
	PageSize     int
}

// ============================================================================
// Clients
// ============================================================================

type ClientDTO struct {
	ID             uuid.UUID     `json:"id"`
	BusinessName   string        `json:"businessName"`
	RUT            string        `json:"rut"`
	Email          string        `json:"email"`
	Phone          string        `json:"phone"`
	Address        string        `json:"address"`
	ContactName    string        `json:"contactName"`
	ContactPhone   string        `json:"contactPhone,omitempty"`
	ContactEmail   string        `json:"contactEmail,omitempty"`
	IsBlocked      bool          `json:"isBlocked"`
	BlockedAt      *string       `json:"blockedAt,omitempty"`
	Status         ClientStatus  `json:"status"`
	Segment        ClientSegment `json:"segment"`
	QuotationCount int           `json:"quotationCount"`
	PurchaseCount  int           `json:"purchaseCount"`
	TotalPurchases float64       `json:"totalPurchases"`
	CreatedAt      string        `json:"createdAt"`
	UpdatedAt      string        `json:"updatedAt"`
}

type CreateClientRequest struct {
	BusinessName string `json:"businessName" validate:"required,max=200"`
	RUT          string `json:"rut" validate:"required,max=20"`
	Email        string `json:"email" validate:"required,email,max=255"`
	Phone        string `json:"phone" validate:"required,max=50"`
	Address      string `json:"address" validate:"required,max=500"`
	ContactName  string `json:"contactName" validate:"required,max=200"`
	ContactPhone string `json:"contactPhone" validate:"omitempty,max=50"`
	ContactEmail string `json:"contactEmail" validate:"omitempty,email,max=255"`
}

// UpdateClientRequest is a partial update. Blocking has its own operation.
type UpdateClientRequest struct {
	BusinessName *string `json:"businessName,omitempty" validate:"omitempty,min=1,max=200"`
	RUT          *string `json:"rut,omitempty" validate:"omitempty,min=1,max=20"`
	Email        *string `json:"email,omitempty" validate:"omitempty,email,max=255"`
	Phone        *string `json:"phone,omitempty" validate:"omitempty,max=50"`
	Address      *string `json:"address,omitempty" validate:"omitempty,max=500"`
	ContactName  *string `json:"contactName,omitempty" validate:"omitempty,max=200"`
	ContactPhone *string `json:"contactPhone,omitempty" validate:"omitempty,max=50"`
	ContactEmail *string `json:"contactEmail,omitempty" validate:"omitempty,email,max=255"`
}

// ClientFilter narrows client listings. Status is "", "all" or a ClientStatus.
type ClientFilter struct {
	Search   string
	Status   string
	Page     int
	PageSize int
}

// ============================================================================
// Quotations
// ============================================================================

type QuotationItemDTO struct {
	ID          uuid.UUID `json:"id"`
	ProductID   uuid.UUID `json:"productId"`
	ProductCode string    `json:"productCode"`
	ProductName string    `json:"productName"`
	Quantity    int       `json:"quantity"`
	UnitPrice   float64   `json:"unitPrice"`
	Discount    float64   `json:"discount"`
	Subtotal    float64   `json:"subtotal"`
}

type QuotationDTO struct {
	ID              uuid.UUID          `json:"id"`
	Number          string             `json:"number"`
	ClientID        uuid.UUID          `json:"clientId"`
	ClientName      string             `json:"clientName"`
	ClientRUT       string             `json:"clientRut"`
	Items           []QuotationItemDTO `json:"items"`
	DeliveryAddress string             `json:"deliveryAddress"`
	DeliveryCost    float64            `json:"deliveryCost"`
	Subtotal        float64            `json:"subtotal"`
	TaxRate         float64            `json:"taxRate"`
	Tax             float64            `json:"iva"`
	Total           float64            `json:"total"`
	ValidUntil      string             `json:"validUntil"`
	Status          QuotationStatus    `json:"status"`
	Notes           string             `json:"notes,omitempty"`
	CreatedBy       string             `json:"createdBy"`
	CreatedByName   string             `json:"createdByName,omitempty"`
	CreatedAt       string             `json:"createdAt"`
	UpdatedAt       string             `json:"updatedAt"`
	SentAt          *string            `json:"sentAt,omitempty"`
	RespondedAt     *string            `json:"respondedAt,omitempty"`
	HasDocument     bool               `json:"hasDocument"`
}

// QuotationItemInput describes one line of a quotation draft. A nil UnitPrice
// takes the product's current price.
type QuotationItemInput struct {
	ProductID uuid.UUID `json:"productId" validate:"required"`
	Quantity  int       `json:"quantity" validate:"gte=1"`
	UnitPrice *float64  `json:"unitPrice,omitempty" validate:"omitempty,gte=0"`
	Discount  float64   `json:"discount" validate:"gte=0,lte=100"`
}

type CreateQuotationRequest struct {
	ClientID        uuid.UUID            `json:"clientId" validate:"required"`
	DeliveryAddress string               `json:"deliveryAddress" validate:"required,max=500"`
	DeliveryCost    float64              `json:"deliveryCost" validate:"gte=0"`
	ValidUntil      *time.Time           `json:"validUntil,omitempty"`
	Notes           string               `json:"notes" validate:"max=2000"`
	Items           []QuotationItemInput `json:"items" validate:"required,min=1,dive"`
}

// UpdateQuotationRequest is a partial update; nil fields are left untouched
type UpdateQuotationRequest struct {
	ClientID        *uuid.UUID            `json:"clientId,omitempty"`
	DeliveryAddress *string               `json:"deliveryAddress,omitempty" validate:"omitempty,min=1,max=500"`
	DeliveryCost    *float64              `json:"deliveryCost,omitempty" validate:"omitempty,gte=0"`
	ValidUntil      *time.Time            `json:"validUntil,omitempty"`
	Notes           *string               `json:"notes,omitempty" validate:"omitempty,max=2000"`
	Items           *[]QuotationItemInput `json:"items,omitempty" validate:"omitempty,min=1,dive"`
	Status          *QuotationStatus      `json:"status,omitempty" validate:"omitempty,oneof=pending accepted rejected expired"`
}

// HasContentChanges reports whether any field other than status is set
func (r *UpdateQuotationRequest) HasContentChanges() bool {
	return r.ClientID != nil || r.DeliveryAddress != nil || r.DeliveryCost != nil ||
		r.ValidUntil != nil || r.Notes != nil || r.Items != nil
}

// PricingPreviewRequest prices a draft without storing it
type PricingPreviewRequest struct {
	DeliveryCost float64              `json:"deliveryCost" validate:"gte=0"`
	Items        []QuotationItemInput `json:"items" validate:"required,min=1,dive"`
}

type PricingPreviewDTO struct {
	Items        []QuotationItemDTO `json:"items"`
	Subtotal     float64            `json:"subtotal"`
	TaxRate      float64            `json:"taxRate"`
	Tax          float64            `json:"iva"`
	DeliveryCost float64            `json:"deliveryCost"`
	Total        float64            `json:"total"`
}

// QuotationFilter narrows quotation listings
type QuotationFilter struct {
	Search   string
	Status   QuotationStatus
	ClientID *uuid.UUID
	Page     int
	PageSize int
}

// ============================================================================
// Auth
// ============================================================================

type UserDTO struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
	Name  string    `json:"name"`
	Role  UserRole  `json:"role"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	AccessToken string  `json:"accessToken"`
	TokenType   string  `json:"tokenType"`
	ExpiresIn   int64   `json:"expiresIn"` // seconds
	User        UserDTO `json:"user"`
}

// ============================================================================
// Reports
// ============================================================================

type StatusCountsDTO struct {
	Total    int `json:"total"`
	Pending  int `json:"pending"`
	Accepted int `json:"accepted"`
	Rejected int `json:"rejected"`
	Expired  int `json:"expired"`
}

type ClientSummaryDTO struct {
	ID             uuid.UUID `json:"id"`
	BusinessName   string    `json:"businessName"`
	RUT            string    `json:"rut"`
	QuotationCount int       `json:"quotationCount"`
	PurchaseCount  int       `json:"purchaseCount"`
	TotalPurchases float64   `json:"totalPurchases"`
}

type DashboardDTO struct {
	Quotations       StatusCountsDTO    `json:"quotations"`
	TotalClients     int64              `json:"totalClients"`
	ActiveClients    int64              `json:"activeClients"`
	BlockedClients   int64              `json:"blockedClients"`
	TotalProducts    int64              `json:"totalProducts"`
	LowStockProducts int64              `json:"lowStockProducts"`
	TopClients       []ClientSummaryDTO `json:"topClients"`
	RecentQuotations []QuotationDTO     `json:"recentQuotations"`
}

type ProductPerformanceDTO struct {
	ProductID      uuid.UUID `json:"productId"`
	Code           string    `json:"code"`
	Name           string    `json:"name"`
	QuotedQuantity int       `json:"quotedQuantity"`
	QuotedRevenue  float64   `json:"quotedRevenue"`
}

type MonthlyPerformanceDTO struct {
	Month      string  `json:"month"` // YYYY-MM
	Quotations int     `json:"quotations"`
	Accepted   int     `json:"accepted"`
	Revenue    float64 `json:"revenue"`
}

type ReportDTO struct {
	From               string                  `json:"from"`
	To                 string                  `json:"to"`
	Quotations         StatusCountsDTO         `json:"quotations"`
	ConversionRate     float64                 `json:"conversionRate"`
	Revenue            float64                 `json:"revenue"`
	ActiveClients      int64                   `json:"activeClients"`
	TopClients         []ClientSummaryDTO      `json:"topClients"`
	AtRiskClients      []ClientSummaryDTO      `json:"atRiskClients"`
	ProductPerformance []ProductPerformanceDTO `json:"productPerformance"`
	Monthly            []MonthlyPerformanceDTO `json:"monthly"`
}

type SettingsDTO struct {
	TaxRate                  float64 `json:"taxRate"`
	NumberPrefix             string  `json:"numberPrefix"`
	DefaultValidityDays      int     `json:"defaultValidityDays"`
	AtRiskQuotationThreshold int     `json:"atRiskQuotationThreshold"`
	LowStockThreshold        int     `json:"lowStockThreshold"`
}

// ============================================================================
// Common
// ============================================================================

// PaginatedResponse wraps a page of results
type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	PageSize   int         `json:"pageSize"`
	TotalPages int         `json:"totalPages"`
}

// NewPaginatedResponse computes the page count for a result page
func NewPaginatedResponse(data interface{}, total int64, page, pageSize int) *PaginatedResponse {
	totalPages := 0
	if pageSize > 0 {
		totalPages = int((total + int64(pageSize) - 1) / int64(pageSize))
	}
	return &PaginatedResponse{
		Data:       data,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}
}
