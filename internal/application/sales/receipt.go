// Package sales casos de uso de ventas que van más allá del CRUD genérico.
package sales

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/backoffice-api/internal/application/catalog"
	"github.com/jhoicas/backoffice-api/internal/domain"
)

// ReceiptLine línea del recibo con el nombre del producto resuelto.
type ReceiptLine struct {
	ProductName string
	Quantity    int
	UnitPrice   decimal.Decimal
	Discount    decimal.Decimal
	Subtotal    decimal.Decimal
}

// ReceiptPayment pago aplicado a la venta.
type ReceiptPayment struct {
	Method    string
	Gateway   string
	Reference string
	Amount    decimal.Decimal
}

// ReceiptCharge impuesto o descuento aplicado (nombre + tasa/valor ya formateados).
type ReceiptCharge struct {
	Name   string
	Amount string
}

// Receipt datos ya resueltos para imprimir un recibo.
type Receipt struct {
	InvoiceNumber string
	Status        string
	Date          time.Time
	Terminal      string
	CustomerName  string
	CustomerPhone string
	CustomerTaxID string
	Lines         []ReceiptLine
	Taxes         []ReceiptCharge
	Discounts     []ReceiptCharge
	Payments      []ReceiptPayment
	Subtotal      decimal.Decimal
	TaxTotal      decimal.Decimal
	DiscountTotal decimal.Decimal
	Total         decimal.Decimal
	Paid          decimal.Decimal
	Note          string
}

// Balance total menos lo pagado: positivo = saldo pendiente, negativo = cambio.
func (r *Receipt) Balance() decimal.Decimal { return r.Total.Sub(r.Paid) }

// ReceiptGenerator genera el PDF de un recibo (lo implementa infrastructure/pdf).
type ReceiptGenerator interface {
	GenerateReceiptPDF(ctx context.Context, r *Receipt) ([]byte, error)
}

// ReceiptUseCase arma el recibo de una venta desde sus registros relacionados.
type ReceiptUseCase struct {
	svc       *catalog.Services
	generator ReceiptGenerator
}

// NewReceiptUseCase construye el caso de uso.
func NewReceiptUseCase(svc *catalog.Services, generator ReceiptGenerator) *ReceiptUseCase {
	return &ReceiptUseCase{svc: svc, generator: generator}
}

// Build carga la venta y resuelve terminal, cliente, ítems, impuestos, descuentos y pagos.
// Referencias colgantes (registros borrados) se omiten en lugar de fallar.
func (uc *ReceiptUseCase) Build(ctx context.Context, saleID string) (*Receipt, error) {
	sale, err := uc.svc.Sales.Get(ctx, saleID)
	if err != nil {
		return nil, err
	}
	s := sale.Fields
	r := &Receipt{
		InvoiceNumber: s.InvoiceNumber,
		Status:        s.Status,
		Date:          sale.CreatedAt,
		TaxTotal:      s.TaxTotal,
		DiscountTotal: s.DiscountTotal,
		Paid:          decimal.Zero,
	}
	if s.SaleDate != nil {
		if d, err := time.Parse("2006-01-02", *s.SaleDate); err == nil {
			r.Date = d
		}
	}
	if s.Subtotal != nil {
		r.Subtotal = *s.Subtotal
	}
	if s.Total != nil {
		r.Total = *s.Total
	}
	if s.Note != nil {
		r.Note = *s.Note
	}

	if term, err := uc.svc.Terminals.Get(ctx, s.TerminalID); err == nil {
		r.Terminal = term.Fields.Name
	} else if !isNotFound(err) {
		return nil, err
	}
	if s.CustomerID != nil && *s.CustomerID != "" {
		cust, err := uc.svc.Customers.Get(ctx, *s.CustomerID)
		switch {
		case err == nil:
			r.CustomerName = cust.Fields.Name
			r.CustomerPhone = cust.Fields.Phone
			if cust.Fields.TaxNumber != nil {
				r.CustomerTaxID = *cust.Fields.TaxNumber
			}
		case !isNotFound(err):
			return nil, err
		}
	}

	items, err := uc.svc.SaleItems.Where(ctx, "sale_id", saleID)
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		line := ReceiptLine{
			ProductName: "Producto " + it.Fields.ProductID,
			Quantity:    it.Fields.Quantity,
			Discount:    it.Fields.Discount,
		}
		if p, err := uc.svc.Products.Get(ctx, it.Fields.ProductID); err == nil {
			line.ProductName = p.Fields.Name
		}
		if it.Fields.UnitPrice != nil {
			line.UnitPrice = *it.Fields.UnitPrice
		}
		if it.Fields.Subtotal != nil {
			line.Subtotal = *it.Fields.Subtotal
		}
		r.Lines = append(r.Lines, line)
	}

	for _, id := range s.TaxIDs {
		tax, err := uc.svc.TaxRates.Get(ctx, id)
		if err != nil {
			continue
		}
		rate := "0"
		if tax.Fields.Rate != nil {
			rate = tax.Fields.Rate.String()
		}
		r.Taxes = append(r.Taxes, ReceiptCharge{Name: tax.Fields.Name, Amount: rate + "%"})
	}
	for _, id := range s.DiscountIDs {
		d, err := uc.svc.Discounts.Get(ctx, id)
		if err != nil {
			continue
		}
		amount := "$" + d.Fields.Value.StringFixed(2)
		if d.Fields.Type == "percentage" {
			amount = d.Fields.Value.String() + "%"
		}
		r.Discounts = append(r.Discounts, ReceiptCharge{Name: d.Fields.Name, Amount: amount})
	}

	payments, err := uc.svc.SalePayments.Where(ctx, "sale_id", saleID)
	if err != nil {
		return nil, err
	}
	for _, p := range payments {
		rp := ReceiptPayment{Method: p.Fields.Method}
		if p.Fields.Amount != nil {
			rp.Amount = *p.Fields.Amount
		}
		if p.Fields.Reference != nil {
			rp.Reference = *p.Fields.Reference
		}
		if p.Fields.PaymentGatewayID != nil {
			if gw, err := uc.svc.PaymentGateways.Get(ctx, *p.Fields.PaymentGatewayID); err == nil {
				rp.Gateway = gw.Fields.Name
			}
		}
		r.Paid = r.Paid.Add(rp.Amount)
		r.Payments = append(r.Payments, rp)
	}
	return r, nil
}

// Download genera el PDF del recibo. domain.ErrNotFound si la venta no existe.
func (uc *ReceiptUseCase) Download(ctx context.Context, saleID string) (pdfBytes []byte, filename string, err error) {
	r, err := uc.Build(ctx, saleID)
	if err != nil {
		return nil, "", err
	}
	pdfBytes, err = uc.generator.GenerateReceiptPDF(ctx, r)
	if err != nil {
		return nil, "", fmt.Errorf("recibo: generación fallida: %w", err)
	}
	return pdfBytes, fmt.Sprintf("recibo_%s.pdf", r.InvoiceNumber), nil
}

func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}
