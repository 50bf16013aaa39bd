package pricing

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestComputeItemSubtotal(t *testing.T) {
	tests := []struct {
		name     string
		quantity int
		price    string
		discount string
		want     string
	}{
		{"no discount", 2, "150", "0", "300"},
		{"half off", 1, "80", "50", "40"},
		{"full discount", 5, "1000", "100", "0"},
		{"fractional discount", 3, "10.55", "15", "26.9025"},
		{"free item", 10, "0", "20", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeItemSubtotal(tt.quantity, d(tt.price), d(tt.discount))
			assert.True(t, got.Equal(d(tt.want)), "got %s want %s", got, tt.want)
		})
	}
}

func TestComputeQuotationTotals_Example(t *testing.T) {
	lines := []Line{
		{Quantity: 2, UnitPrice: d("150"), Discount: d("0")},
		{Quantity: 1, UnitPrice: d("80"), Discount: d("50")},
	}

	totals := ComputeQuotationTotals(lines, d("1000"), DefaultTaxRate)

	require.Len(t, totals.Lines, 2)
	assert.True(t, totals.Lines[0].Equal(d("300")))
	assert.True(t, totals.Lines[1].Equal(d("40")))
	assert.True(t, totals.Subtotal.Equal(d("340")), "subtotal %s", totals.Subtotal)
	assert.True(t, totals.Tax.Equal(d("64.6")), "tax %s", totals.Tax)
	assert.True(t, totals.Total.Equal(d("1404.6")), "total %s", totals.Total)
}

func TestComputeQuotationTotals_Invariants(t *testing.T) {
	lines := []Line{
		{Quantity: 7, UnitPrice: d("12990"), Discount: d("12.5")},
		{Quantity: 1, UnitPrice: d("0.99"), Discount: d("0")},
		{Quantity: 250, UnitPrice: d("3.33"), Discount: d("99")},
	}
	delivery := d("4500")

	totals := ComputeQuotationTotals(lines, delivery, DefaultTaxRate)

	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))).Mul(decimal.NewFromInt(1).Sub(l.Discount.Div(hundred))))
	}
	assert.True(t, totals.Subtotal.Equal(sum), "subtotal %s sum %s", totals.Subtotal, sum)
	assert.True(t, totals.Tax.Equal(totals.Subtotal.Mul(DefaultTaxRate)))
	assert.True(t, totals.Total.Equal(totals.Subtotal.Add(totals.Tax).Add(delivery)))

	again := ComputeQuotationTotals(lines, delivery, DefaultTaxRate)
	assert.True(t, again.Total.Equal(totals.Total))
}

func TestTotals_Round(t *testing.T) {
	lines := []Line{{Quantity: 3, UnitPrice: d("10.55"), Discount: d("15")}}
	totals := ComputeQuotationTotals(lines, d("0"), DefaultTaxRate).Round(2)

	assert.True(t, totals.Lines[0].Equal(d("26.9")), "line %s", totals.Lines[0])
	assert.True(t, totals.Subtotal.Equal(d("26.9")), "subtotal %s", totals.Subtotal)
	assert.True(t, totals.Tax.Equal(d("5.11")), "tax %s", totals.Tax)
	assert.True(t, totals.Total.Equal(d("32.01")), "total %s", totals.Total)
}

func TestTotals_RoundKeepsSums(t *testing.T) {
	tests := []struct {
		name      string
		lines     []Line
		delivery  string
		wantLines []string
		wantSub   string
		wantTax   string
		wantTotal string
	}{
		{
			name: "two half-cent lines",
			lines: []Line{
				{Quantity: 1, UnitPrice: d("10.01"), Discount: d("50")},
				{Quantity: 1, UnitPrice: d("10.01"), Discount: d("50")},
			},
			delivery:  "0",
			wantLines: []string{"5.01", "5.01"},
			wantSub:   "10.02",
			wantTax:   "1.9",
			wantTotal: "11.92",
		},
		{
			name:      "single tiny line",
			lines:     []Line{{Quantity: 1, UnitPrice: d("0.07"), Discount: d("50")}},
			delivery:  "2.5",
			wantLines: []string{"0.04"},
			wantSub:   "0.04",
			wantTax:   "0.01",
			wantTotal: "2.55",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			totals := ComputeQuotationTotals(tt.lines, d(tt.delivery), DefaultTaxRate).Round(2)

			sum := decimal.Zero
			for i, l := range totals.Lines {
				assert.True(t, l.Equal(d(tt.wantLines[i])), "line %d: %s", i, l)
				sum = sum.Add(l)
			}
			assert.True(t, totals.Subtotal.Equal(sum), "subtotal %s sum %s", totals.Subtotal, sum)
			assert.True(t, totals.Subtotal.Equal(d(tt.wantSub)), "subtotal %s", totals.Subtotal)
			assert.True(t, totals.Tax.Equal(d(tt.wantTax)), "tax %s", totals.Tax)
			assert.True(t, totals.Total.Equal(totals.Subtotal.Add(totals.Tax).Add(totals.Delivery)), "total %s", totals.Total)
			assert.True(t, totals.Total.Equal(d(tt.wantTotal)), "total %s", totals.Total)
		})
	}
}

func TestValidateLines(t *testing.T) {
	valid := Line{Quantity: 1, UnitPrice: d("10"), Discount: d("0")}

	assert.NoError(t, ValidateLines([]Line{valid}))
	assert.True(t, errors.Is(ValidateLines(nil), ErrNoItems))

	tests := []struct {
		name string
		line Line
	}{
		{"zero quantity", Line{Quantity: 0, UnitPrice: d("10"), Discount: d("0")}},
		{"negative price", Line{Quantity: 1, UnitPrice: d("-1"), Discount: d("0")}},
		{"negative discount", Line{Quantity: 1, UnitPrice: d("10"), Discount: d("-0.01")}},
		{"discount above 100", Line{Quantity: 1, UnitPrice: d("10"), Discount: d("100.01")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateLines([]Line{valid, tt.line})
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidLine)
			assert.Contains(t, err.Error(), "items[1]")
		})
	}
}

func TestNewEngine(t *testing.T) {
	e, err := NewEngineFromFloat(0.19)
	require.NoError(t, err)
	assert.True(t, e.TaxRate().Equal(DefaultTaxRate))

	totals := e.Compute([]Line{{Quantity: 1, UnitPrice: d("100"), Discount: d("0")}}, d("0"))
	assert.True(t, totals.Total.Equal(d("119")))

	_, err = NewEngineFromFloat(-0.1)
	assert.ErrorIs(t, err, ErrInvalidTaxRate)
	_, err = NewEngineFromFloat(1)
	assert.ErrorIs(t, err, ErrInvalidTaxRate)

	zero, err := NewEngineFromFloat(0)
	require.NoError(t, err)
	assert.True(t, zero.Compute([]Line{{Quantity: 2, UnitPrice: d("5"), Discount: d("0")}}, d("1")).Total.Equal(d("11")))
}
