package document

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/montecristo/sales-api/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatMoney(t *testing.T) {
	cases := map[string]string{
		"0":          "$0,00",
		"25":         "$25,00",
		"340":        "$340,00",
		"1404.6":     "$1.404,60",
		"2500000":    "$2.500.000,00",
		"-1234.567":  "-$1.234,57",
		"999999.999": "$1.000.000,00",
	}
	for in, want := range cases {
		assert.Equal(t, want, FormatMoney(decimal.RequireFromString(in)), in)
	}
}

func TestRenderer_Render(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	q := &domain.Quotation{
		BaseModel:       domain.BaseModel{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		Number:          "COT-2025-0001",
		ClientName:      "Constructora ABC Ltda.",
		ClientRUT:       "76.123.456-7",
		DeliveryAddress: "Av. Providencia 1234, Santiago",
		DeliveryCost:    decimal.NewFromInt(1000),
		Subtotal:        decimal.NewFromInt(340),
		TaxRate:         decimal.RequireFromString("0.19"),
		Tax:             decimal.RequireFromString("64.6"),
		Total:           decimal.RequireFromString("1404.6"),
		ValidUntil:      now.AddDate(0, 0, 3),
		Status:          domain.QuotationStatusPending,
		Notes:           "Entrega en bodega, horario de oficina.",
		CreatedByName:   "Juan Pérez",
		Items: []domain.QuotationItem{
			{ProductCode: "TOR001", ProductName: "Tornillo hexagonal 1/4\"", Quantity: 2,
				UnitPrice: decimal.NewFromInt(150), Discount: decimal.Zero, Subtotal: decimal.NewFromInt(300)},
			{ProductCode: "TUE001", ProductName: "Tuerca hexagonal 1/4\"", Quantity: 1,
				UnitPrice: decimal.NewFromInt(80), Discount: decimal.NewFromInt(50), Subtotal: decimal.NewFromInt(40)},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, NewRenderer(Company{}).Render(q, &buf))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")), "output is a PDF")
	assert.Greater(t, buf.Len(), 500)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
}
