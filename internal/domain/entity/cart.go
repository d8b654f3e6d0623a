package entity

import "github.com/shopspring/decimal"

// CartLine producto agregado a un carrito en espera.
type CartLine struct {
	ProductID string          `json:"product_id" validate:"required,max=64"`
	Name      string          `json:"name" validate:"required,max=255"`
	Quantity  int             `json:"quantity" validate:"gt=0"`
	UnitPrice decimal.Decimal `json:"unit_price" validate:"gte=0"`
}

// CartContents contenido estructurado del carrito.
type CartContents struct {
	Items []CartLine `json:"items" validate:"dive"`
	Note  string     `json:"note" validate:"omitempty,max=500"`
}

// Total suma cantidad * precio de todas las líneas.
func (c CartContents) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.Items {
		total = total.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return total
}

// Cart venta en espera ("hold") de una terminal.
type Cart struct {
	Name       string       `json:"name" validate:"required,max=100"`
	TerminalID string       `json:"terminal_id" validate:"required,max=64"`
	CustomerID *string      `json:"customer_id" validate:"omitempty,max=64"`
	Status     string       `json:"status" validate:"omitempty,oneof=open held closed"`
	Contents   CartContents `json:"contents"`
}
