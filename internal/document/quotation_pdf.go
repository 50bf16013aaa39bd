// Package document renders quotations as printable PDF documents.
package document

import (
	"fmt"
	"io"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/montecristo/sales-api/internal/domain"
	"github.com/shopspring/decimal"
)

// ContentType is the MIME type of rendered documents
const ContentType = "application/pdf"

// Company identifies the issuer printed on every document
type Company struct {
	Name    string
	RUT     string
	Address string
	Phone   string
	Email   string
}

// DefaultCompany is the issuer used when none is configured
var DefaultCompany = Company{
	Name:    "Monte Cristo",
	RUT:     "77.777.777-7",
	Address: "Santiago, Chile",
	Phone:   "+56 2 2345 6789",
	Email:   "ventas@montecristo.com",
}

var statusLabels = map[domain.QuotationStatus]string{
	domain.QuotationStatusPending:  "Pendiente",
	domain.QuotationStatusAccepted: "Aceptada",
	domain.QuotationStatusRejected: "Rechazada",
	domain.QuotationStatusExpired:  "Vencida",
}

// Renderer draws quotations on A4 pages
type Renderer struct {
	company Company
}

func NewRenderer(company Company) *Renderer {
	if company.Name == "" {
		company = DefaultCompany
	}
	return &Renderer{company: company}
}

// Render writes the quotation as a PDF to w
func (r *Renderer) Render(q *domain.Quotation, w io.Writer) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetTitle("Cotización "+q.Number, true)
	pdf.SetAuthor(r.company.Name, true)
	pdf.AddPage()

	// core fonts are cp1252
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageW, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	contentW := pageW - left - right

	// Header
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(contentW/2, 8, tr(r.company.Name), "", 0, "L", false, 0, "")
	pdf.CellFormat(contentW/2, 8, tr("COTIZACIÓN"), "", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(contentW/2, 5, tr("RUT "+r.company.RUT), "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(contentW/2, 5, tr("N° "+q.Number), "", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(contentW/2, 5, tr(r.company.Address), "", 0, "L", false, 0, "")
	pdf.CellFormat(contentW/2, 5, tr("Fecha: "+q.CreatedAt.Format("02/01/2006")), "", 1, "R", false, 0, "")
	pdf.CellFormat(contentW/2, 5, tr(r.company.Phone+"  "+r.company.Email), "", 0, "L", false, 0, "")
	pdf.CellFormat(contentW/2, 5, tr("Válida hasta: "+q.ValidUntil.Format("02/01/2006")), "", 1, "R", false, 0, "")
	pdf.CellFormat(contentW, 5, tr("Estado: "+statusLabel(q.Status)), "", 1, "R", false, 0, "")
	pdf.Ln(3)

	pdf.Line(left, pdf.GetY(), pageW-right, pdf.GetY())
	pdf.Ln(3)

	// Client
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(contentW, 6, "Cliente", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(contentW, 5, tr(q.ClientName), "", 1, "L", false, 0, "")
	pdf.CellFormat(contentW, 5, tr("RUT "+q.ClientRUT), "", 1, "L", false, 0, "")
	pdf.MultiCell(contentW, 5, tr("Dirección de entrega: "+q.DeliveryAddress), "", "L", false)
	pdf.Ln(4)

	// Items
	cols := []struct {
		title string
		width float64
		align string
	}{
		{"Código", contentW * 0.13, "L"},
		{"Producto", contentW * 0.35, "L"},
		{"Cant.", contentW * 0.09, "R"},
		{"P. Unitario", contentW * 0.15, "R"},
		{"Desc.", contentW * 0.10, "R"},
		{"Subtotal", contentW * 0.18, "R"},
	}

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	for i, col := range cols {
		ln := 0
		if i == len(cols)-1 {
			ln = 1
		}
		pdf.CellFormat(col.width, 7, tr(col.title), "1", ln, col.align, true, 0, "")
	}

	pdf.SetFont("Helvetica", "", 9)
	for _, item := range q.Items {
		values := []string{
			item.ProductCode,
			truncate(item.ProductName, 40),
			fmt.Sprintf("%d", item.Quantity),
			FormatMoney(item.UnitPrice),
			item.Discount.StringFixed(0) + "%",
			FormatMoney(item.Subtotal),
		}
		for i, col := range cols {
			ln := 0
			if i == len(cols)-1 {
				ln = 1
			}
			pdf.CellFormat(col.width, 6, tr(values[i]), "1", ln, col.align, false, 0, "")
		}
	}
	pdf.Ln(3)

	// Totals
	labelW := contentW * 0.82
	valueW := contentW - labelW
	totalRow := func(label, value string, bold bool) {
		style := ""
		if bold {
			style = "B"
		}
		pdf.SetFont("Helvetica", style, 10)
		pdf.CellFormat(labelW, 6, tr(label), "", 0, "R", false, 0, "")
		pdf.CellFormat(valueW, 6, tr(value), "", 1, "R", false, 0, "")
	}
	totalRow("Subtotal", FormatMoney(q.Subtotal), false)
	totalRow(fmt.Sprintf("IVA (%s%%)", q.TaxRate.Mul(decimal.NewFromInt(100)).String()), FormatMoney(q.Tax), false)
	totalRow("Despacho", FormatMoney(q.DeliveryCost), false)
	totalRow("TOTAL", FormatMoney(q.Total), true)

	if strings.TrimSpace(q.Notes) != "" {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "B", 9)
		pdf.CellFormat(contentW, 5, "Observaciones", "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 9)
		pdf.MultiCell(contentW, 5, tr(q.Notes), "", "L", false)
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "I", 8)
	footer := "Cotización emitida por " + r.company.Name
	if q.CreatedByName != "" {
		footer += " - Vendedor: " + q.CreatedByName
	}
	pdf.CellFormat(contentW, 4, tr(footer), "", 1, "C", false, 0, "")

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("pdf: render quotation %s: %w", q.Number, err)
	}
	return nil
}

func statusLabel(status domain.QuotationStatus) string {
	if label, ok := statusLabels[status]; ok {
		return label
	}
	return string(status)
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}

// FormatMoney renders an amount in Chilean notation: $1.404,60
func FormatMoney(amount decimal.Decimal) string {
	fixed := amount.Abs().StringFixed(2)
	intPart, frac, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}

	sign := ""
	if amount.IsNegative() {
		sign = "-"
	}
	return sign + "$" + b.String() + "," + frac
}
