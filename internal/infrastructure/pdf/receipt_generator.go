// Package pdf genera el recibo de venta del POS con Maroto v2.
//
// Layout A4:
//
//	HEADER: RECIBO DE VENTA + N° | Fecha + Terminal
//	CLIENTE: nombre, teléfono, documento
//	TABLA: Cant | Producto | P.Unit | Desc. | Subtotal
//	TOTALES: Subtotal / Descuentos / Impuestos / TOTAL / Pagado / Saldo
//	PAGOS: método, pasarela, referencia, monto
//	FOOTER: QR con el número de factura + nota
package pdf

import (
	"context"
	"fmt"
	"strings"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/backoffice-api/internal/application/sales"
)

var _ sales.ReceiptGenerator = (*ReceiptGenerator)(nil)

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

// ReceiptGenerator implementa sales.ReceiptGenerator usando Maroto v2.
type ReceiptGenerator struct {
	storeName string
}

// NewReceiptGenerator construye el generador; storeName encabeza el recibo.
func NewReceiptGenerator(storeName string) *ReceiptGenerator {
	return &ReceiptGenerator{storeName: storeName}
}

// GenerateReceiptPDF genera el PDF y devuelve sus bytes.
func (g *ReceiptGenerator) GenerateReceiptPDF(_ context.Context, r *sales.Receipt) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Recibo "+r.InvoiceNumber, true).
		WithAuthor(g.storeName, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(g.headerRow(r))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(customerRow(r))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	m.AddRows(lineRows(r.Lines)...)
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(chargeRows("Impuestos aplicados", r.Taxes)...)
	m.AddRows(chargeRows("Descuentos aplicados", r.Discounts)...)
	m.AddRows(totalsRow(r))

	if len(r.Payments) > 0 {
		m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
		m.AddRows(paymentRows(r.Payments)...)
	}

	m.AddRows(line.NewRow(3))
	m.AddRows(footerRow(r))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar recibo: %w", err)
	}
	return doc.GetBytes(), nil
}

func (g *ReceiptGenerator) headerRow(r *sales.Receipt) core.Row {
	return row.New(18).Add(
		col.New(7).Add(
			text.New(nonEmpty(g.storeName, "Back-office POS"), props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("Terminal: "+nonEmpty(r.Terminal, "-"), props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New("RECIBO DE VENTA", props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right, Color: colorPrimary, Top: 1,
			}),
			text.New(r.InvoiceNumber, props.Text{
				Style: fontstyle.Bold, Size: 11, Align: align.Right, Top: 7,
			}),
			text.New("Fecha: "+r.Date.Format("02/01/2006")+"   Estado: "+r.Status, props.Text{
				Size: 8, Align: align.Right, Top: 14, Color: colorGray,
			}),
		),
	)
}

func customerRow(r *sales.Receipt) core.Row {
	return row.New(14).Add(
		col.New(12).Add(
			text.New("CLIENTE", props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1}),
			text.New(nonEmpty(r.CustomerName, "Consumidor final"), props.Text{Style: fontstyle.Bold, Size: 10, Top: 6}),
			text.New(fmt.Sprintf("Tel: %s   |   Doc: %s",
				nonEmpty(r.CustomerPhone, "-"),
				nonEmpty(r.CustomerTaxID, "-"),
			), props.Text{Size: 8, Top: 12, Color: colorGray}),
		),
	)
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a, Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Cant.", 1, align.Center),
		h("Producto", 5, align.Left),
		h("P. Unit.", 2, align.Right),
		h("Desc.", 1, align.Right),
		h("Subtotal", 3, align.Right),
	)
}

func lineRows(lines []sales.ReceiptLine) []core.Row {
	out := make([]core.Row, 0, len(lines))
	for _, l := range lines {
		out = append(out, row.New(7).Add(
			col.New(1).Add(text.New(fmt.Sprint(l.Quantity), props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(5).Add(text.New(l.ProductName, props.Text{Size: 8, Align: align.Left, Top: 1, Left: 1})),
			col.New(2).Add(text.New(money(l.UnitPrice), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
			col.New(1).Add(text.New(money(l.Discount), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
			col.New(3).Add(text.New(money(l.Subtotal), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
		))
	}
	return out
}

func chargeRows(title string, charges []sales.ReceiptCharge) []core.Row {
	if len(charges) == 0 {
		return nil
	}
	parts := make([]string, 0, len(charges))
	for _, c := range charges {
		parts = append(parts, c.Name+" ("+c.Amount+")")
	}
	return []core.Row{row.New(6).Add(col.New(12).Add(
		text.New(title+": "+strings.Join(parts, ", "), props.Text{Size: 8, Top: 1, Color: colorGray}),
	))}
}

func totalsRow(r *sales.Receipt) core.Row {
	label := func(s string) core.Component {
		return text.New(s, props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2})
	}
	value := func(s string) core.Component {
		return text.New(s, props.Text{Size: 9, Align: align.Right, Right: 1})
	}
	balanceLabel, balance := "Saldo pendiente:", r.Balance()
	if balance.IsNegative() {
		balanceLabel, balance = "Cambio:", balance.Neg()
	}
	return row.New(34).Add(
		col.New(6),
		col.New(3).Add(
			label("Subtotal:"),
			label("Descuentos:"),
			label("Impuestos:"),
			text.New("TOTAL:", props.Text{Style: fontstyle.Bold, Size: 10, Align: align.Right, Color: colorPrimary, Right: 2}),
			label("Pagado:"),
			label(balanceLabel),
		),
		col.New(3).Add(
			value(money(r.Subtotal)),
			value("-"+money(r.DiscountTotal)),
			value(money(r.TaxTotal)),
			text.New(money(r.Total), props.Text{Style: fontstyle.Bold, Size: 10, Align: align.Right, Color: colorPrimary, Right: 1}),
			value(money(r.Paid)),
			value(money(balance)),
		),
	)
}

func paymentRows(payments []sales.ReceiptPayment) []core.Row {
	out := []core.Row{row.New(6).Add(col.New(12).Add(
		text.New("PAGOS", props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1}),
	))}
	for _, p := range payments {
		out = append(out, row.New(5).Add(
			col.New(3).Add(text.New(p.Method, props.Text{Size: 8})),
			col.New(3).Add(text.New(nonEmpty(p.Gateway, "-"), props.Text{Size: 8, Color: colorGray})),
			col.New(3).Add(text.New(nonEmpty(p.Reference, "-"), props.Text{Size: 8, Color: colorGray})),
			col.New(3).Add(text.New(money(p.Amount), props.Text{Size: 8, Align: align.Right, Right: 1})),
		))
	}
	return out
}

func footerRow(r *sales.Receipt) core.Row {
	return row.New(40).Add(
		col.New(3).Add(code.NewQr(r.InvoiceNumber, props.Rect{Percent: 95, Center: true})),
		col.New(9).Add(
			text.New("Gracias por su compra.", props.Text{Style: fontstyle.Bold, Size: 10, Top: 4, Left: 3, Color: colorPrimary}),
			text.New(nonEmpty(r.Note, ""), props.Text{Size: 8, Top: 12, Left: 3, Color: colorGray}),
		),
	)
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// money formatea con separador de miles y dos decimales: 1234567.5 -> "$1.234.567,50".
func money(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}
	fixed := d.StringFixed(2)
	intPart, frac := fixed, "00"
	if i := strings.IndexByte(fixed, '.'); i >= 0 {
		intPart, frac = fixed[:i], fixed[i+1:]
	}
	n := len(intPart)
	buf := make([]byte, 0, n+n/3)
	for i, c := range []byte(intPart) {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, '.')
		}
		buf = append(buf, c)
	}
	return sign + "$" + string(buf) + "," + frac
}
