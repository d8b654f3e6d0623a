package entity

import "github.com/shopspring/decimal"

// Product representa un producto vendible en el POS. SKU único en la colección.
type Product struct {
	Name       string           `json:"name" validate:"required,max=255"`
	SKU        string           `json:"sku" validate:"required,max=64"`
	Barcode    *string          `json:"barcode" validate:"omitempty,max=64"`
	CategoryID *string          `json:"category_id" validate:"omitempty,max=64"`
	TaxRateID  *string          `json:"tax_rate_id" validate:"omitempty,max=64"`
	Price      *decimal.Decimal `json:"price" validate:"required,gte=0"`
	Cost       *decimal.Decimal `json:"cost" validate:"omitempty,gte=0"`
	Stock      int              `json:"stock" validate:"gte=0"`
	Unit       string           `json:"unit" validate:"omitempty,max=20"`
	Active     bool             `json:"active"`
}
