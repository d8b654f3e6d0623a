package entity

import "github.com/shopspring/decimal"

// CustomerGroup agrupa clientes con un descuento común (mayoristas, VIP...).
type CustomerGroup struct {
	Name               string           `json:"name" validate:"required,max=100"`
	DiscountPercentage *decimal.Decimal `json:"discount_percentage" validate:"omitempty,gte=0,lte=100"`
	Description        *string          `json:"description" validate:"omitempty,max=500"`
}
