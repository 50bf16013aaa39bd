// Package pricing computes quotation line subtotals and document totals.
// All functions are pure; money is carried as decimal.Decimal and no rounding
// is applied here.
package pricing

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// DefaultTaxRate is the Chilean IVA rate
	DefaultTaxRate = decimal.RequireFromString("0.19")

	// ErrNoItems is returned when a quotation has no lines
	ErrNoItems = errors.New("quotation must contain at least one item")
	// ErrInvalidLine is returned when a line violates quantity, price or discount bounds
	ErrInvalidLine = errors.New("invalid quotation item")
	// ErrInvalidTaxRate is returned for rates outside [0,1)
	ErrInvalidTaxRate = errors.New("tax rate must be in [0,1)")

	hundred = decimal.NewFromInt(100)
)

// Line is one priced quotation line
type Line struct {
	Quantity  int
	UnitPrice decimal.Decimal
	Discount  decimal.Decimal // percent, 0..100
}

// Totals is the result of pricing a quotation
type Totals struct {
	Lines    []decimal.Decimal
	Subtotal decimal.Decimal
	TaxRate  decimal.Decimal
	Tax      decimal.Decimal
	Delivery decimal.Decimal
	Total    decimal.Decimal
}

// ComputeItemSubtotal returns quantity × unitPrice × (1 − discountPercent/100)
func ComputeItemSubtotal(quantity int, unitPrice, discountPercent decimal.Decimal) decimal.Decimal {
	return decimal.NewFromInt(int64(quantity)).
		Mul(unitPrice).
		Mul(hundred.Sub(discountPercent)).
		Div(hundred)
}

// ComputeQuotationTotals prices lines plus delivery at the given tax rate.
// Tax applies to the item subtotal only; delivery is added after tax.
func ComputeQuotationTotals(lines []Line, deliveryCost, taxRate decimal.Decimal) Totals {
	totals := Totals{
		Lines:    make([]decimal.Decimal, len(lines)),
		Subtotal: decimal.Zero,
		TaxRate:  taxRate,
		Delivery: deliveryCost,
	}
	for i, line := range lines {
		sub := ComputeItemSubtotal(line.Quantity, line.UnitPrice, line.Discount)
		totals.Lines[i] = sub
		totals.Subtotal = totals.Subtotal.Add(sub)
	}
	totals.Tax = totals.Subtotal.Mul(taxRate)
	totals.Total = totals.Subtotal.Add(totals.Tax).Add(deliveryCost)
	return totals
}

// Round returns the amounts as they are stored: each line is rounded half
// away from zero, the subtotal is the sum of the rounded lines, tax is
// rounded from that subtotal and total is the exact sum of the rounded parts.
func (t Totals) Round(places int32) Totals {
	rounded := Totals{
		Lines:    make([]decimal.Decimal, len(t.Lines)),
		Subtotal: decimal.Zero,
		TaxRate:  t.TaxRate,
		Delivery: t.Delivery.Round(places),
	}
	for i, l := range t.Lines {
		rounded.Lines[i] = l.Round(places)
		rounded.Subtotal = rounded.Subtotal.Add(rounded.Lines[i])
	}
	rounded.Tax = rounded.Subtotal.Mul(t.TaxRate).Round(places)
	rounded.Total = rounded.Subtotal.Add(rounded.Tax).Add(rounded.Delivery)
	return rounded
}

// ValidateLines checks the invariants the compute functions assume:
// at least one line, quantity ≥ 1, unit price ≥ 0, discount in [0,100].
func ValidateLines(lines []Line) error {
	if len(lines) == 0 {
		return ErrNoItems
	}
	for i, line := range lines {
		if line.Quantity < 1 {
			return fmt.Errorf("%w: items[%d].quantity must be at least 1", ErrInvalidLine, i)
		}
		if line.UnitPrice.IsNegative() {
			return fmt.Errorf("%w: items[%d].unitPrice must not be negative", ErrInvalidLine, i)
		}
		if line.Discount.IsNegative() || line.Discount.GreaterThan(hundred) {
			return fmt.Errorf("%w: items[%d].discount must be between 0 and 100", ErrInvalidLine, i)
		}
	}
	return nil
}

// Engine prices quotations at a configured tax rate
type Engine struct {
	taxRate decimal.Decimal
}

// NewEngine creates an engine for the given tax rate
func NewEngine(taxRate decimal.Decimal) (*Engine, error) {
	if taxRate.IsNegative() || taxRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("%w: got %s", ErrInvalidTaxRate, taxRate)
	}
	return &Engine{taxRate: taxRate}, nil
}

// NewEngineFromFloat is NewEngine for config values
func NewEngineFromFloat(taxRate float64) (*Engine, error) {
	return NewEngine(decimal.NewFromFloat(taxRate))
}

// TaxRate returns the engine's tax rate
func (e *Engine) TaxRate() decimal.Decimal {
	return e.taxRate
}

// Compute prices lines plus delivery at the engine's tax rate
func (e *Engine) Compute(lines []Line, deliveryCost decimal.Decimal) Totals {
	return ComputeQuotationTotals(lines, deliveryCost, e.taxRate)
}

// ValidateItems checks lines against the item invariants
func (e *Engine) ValidateItems(lines []Line) error {
	return ValidateLines(lines)
}
