package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// BeforeCreate assigns an ID when none was set
func (b *BaseModel) BeforeCreate(_ *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// UserRole represents the role of an application user
type UserRole string

const (
	RoleAdmin    UserRole = "admin"
	RoleVendedor UserRole = "vendedor"
)

// IsValid checks if the UserRole is a valid enum value
func (r UserRole) IsValid() bool {
	switch r {
	case RoleAdmin, RoleVendedor:
		return true
	}
	return false
}

// User is an application user that can log in and author quotations
type User struct {
	BaseModel
	Email        string   `gorm:"type:varchar(255);not null;uniqueIndex"`
	Name         string   `gorm:"type:varchar(200);not null"`
	Role         UserRole `gorm:"type:varchar(20);not null"`
	PasswordHash string   `gorm:"type:varchar(255);not null"`
}

// Product is a sellable catalog item
type Product struct {
	BaseModel
	Code        string          `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name        string          `gorm:"type:varchar(200);not null;index"`
	Description string          `gorm:"type:text"`
	Category    string          `gorm:"type:varchar(100);index"`
	Price       decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	Stock       int             `gorm:"not null"`
	ImagePath   string          `gorm:"type:varchar(500)"`
}

// ClientStatus is derived from the blocked flag and the quotation counters
type ClientStatus string

const (
	ClientStatusActive  ClientStatus = "active"
	ClientStatusAtRisk  ClientStatus = "at_risk"
	ClientStatusBlocked ClientStatus = "blocked"
)

// IsValid checks if the ClientStatus is a valid enum value
func (s ClientStatus) IsValid() bool {
	switch s {
	case ClientStatusActive, ClientStatusAtRisk, ClientStatusBlocked:
		return true
	}
	return false
}

// ClientSegment classifies a client by purchase count
type ClientSegment string

const (
	ClientSegmentProspect ClientSegment = "prospect"
	ClientSegmentRegular  ClientSegment = "regular"
	ClientSegmentFrequent ClientSegment = "frequent"
	ClientSegmentVIP      ClientSegment = "vip"
)

// Client is a customer company that receives quotations
type Client struct {
	BaseModel
	BusinessName   string          `gorm:"type:varchar(200);not null;index"`
	RUT            string          `gorm:"column:rut;type:varchar(20);not null;uniqueIndex"`
	Email          string          `gorm:"type:varchar(255)"`
	Phone          string          `gorm:"type:varchar(50)"`
	Address        string          `gorm:"type:text"`
	ContactName    string          `gorm:"type:varchar(200)"`
	ContactPhone   string          `gorm:"type:varchar(50)"`
	ContactEmail   string          `gorm:"type:varchar(255)"`
	IsBlocked      bool            `gorm:"not null;index"`
	BlockedAt      *time.Time
	QuotationCount int             `gorm:"not null"`
	PurchaseCount  int             `gorm:"not null"`
	TotalPurchases decimal.Decimal `gorm:"type:decimal(15,2);not null"`
}

// Status derives the client's status. A client is at risk once it has
// requested threshold or more quotations without a single purchase.
func (c *Client) Status(atRiskThreshold int) ClientStatus {
	if c.IsBlocked {
		return ClientStatusBlocked
	}
	if c.QuotationCount >= atRiskThreshold && c.PurchaseCount == 0 {
		return ClientStatusAtRisk
	}
	return ClientStatusActive
}

// Segment derives the client's segment from its purchase count
func (c *Client) Segment() ClientSegment {
	switch {
	case c.PurchaseCount >= 10:
		return ClientSegmentVIP
	case c.PurchaseCount >= 5:
		return ClientSegmentFrequent
	case c.PurchaseCount > 0:
		return ClientSegmentRegular
	default:
		return ClientSegmentProspect
	}
}

// Quotation is a priced offer to a client
type Quotation struct {
	BaseModel
	Number          string          `gorm:"type:varchar(50);not null;uniqueIndex"`
	ClientID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	Client          *Client         `gorm:"foreignKey:ClientID"`
	ClientName      string          `gorm:"type:varchar(200)"`
	ClientRUT       string          `gorm:"column:client_rut;type:varchar(20)"`
	Items           []QuotationItem `gorm:"foreignKey:QuotationID;constraint:OnDelete:CASCADE"`
	DeliveryAddress string          `gorm:"type:text;not null"`
	DeliveryCost    decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	Subtotal        decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	Tax             decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	Total           decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	TaxRate         decimal.Decimal `gorm:"type:decimal(5,4);not null"`
	ValidUntil      time.Time       `gorm:"not null;index"`
	Status          QuotationStatus `gorm:"type:varchar(20);not null;index"`
	Notes           string          `gorm:"type:text"`
	CreatedBy       string          `gorm:"type:varchar(100);not null;index"`
	CreatedByName   string          `gorm:"type:varchar(200)"`
	SentAt          *time.Time
	RespondedAt     *time.Time
	DocumentPath    string          `gorm:"type:varchar(500)"`
}

// IsOverdue reports whether a pending quotation has passed its validity date
func (q *Quotation) IsOverdue(now time.Time) bool {
	return q.Status == QuotationStatusPending && q.ValidUntil.Before(now)
}

// QuotationItem is a line of a quotation. Product code and name are copied at
// selection time, so the line survives later product edits or deletion.
type QuotationItem struct {
	BaseModel
	QuotationID uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductCode string          `gorm:"type:varchar(50)"`
	ProductName string          `gorm:"type:varchar(200)"`
	Quantity    int             `gorm:"not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	Discount    decimal.Decimal `gorm:"type:decimal(5,2);not null"`
	Subtotal    decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	Position    int             `gorm:"not null"`
}

// NumberSequence tracks the last issued document number per prefix and year
type NumberSequence struct {
	ID           uint      `gorm:"primaryKey;autoIncrement"`
	Prefix       string    `gorm:"type:varchar(20);not null;uniqueIndex:idx_number_sequences_prefix_year"`
	Year         int       `gorm:"not null;uniqueIndex:idx_number_sequences_prefix_year"`
	LastSequence int       `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
}
