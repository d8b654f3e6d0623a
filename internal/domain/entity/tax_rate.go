package entity

import "github.com/shopspring/decimal"

// TaxRate impuesto aplicable a ventas y productos. Rate en porcentaje (15 = 15%).
type TaxRate struct {
	Name      string           `json:"name" validate:"required,max=100"`
	Rate      *decimal.Decimal `json:"rate" validate:"required,gte=0,lte=100"`
	Inclusive bool             `json:"inclusive"`
}
