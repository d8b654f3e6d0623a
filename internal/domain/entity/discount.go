package entity

import "github.com/shopspring/decimal"

// Tipos de descuento.
const (
	DiscountPercentage = "percentage"
	DiscountFixed      = "fixed"
)

// Discount descuento aplicable a una venta.
type Discount struct {
	Name     string           `json:"name" validate:"required,max=100"`
	Type     string           `json:"type" validate:"required,oneof=percentage fixed"`
	Value    *decimal.Decimal `json:"value" validate:"required,gte=0"`
	StartsAt *string          `json:"starts_at" validate:"omitempty,datetime=2006-01-02"`
	EndsAt   *string          `json:"ends_at" validate:"omitempty,datetime=2006-01-02"`
	Active   bool             `json:"active"`
}
