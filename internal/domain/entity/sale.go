package entity

import "github.com/shopspring/decimal"

// Estados de una venta.
const (
	SaleStatusCompleted = "completed"
	SaleStatusPending   = "pending"
	SaleStatusRefunded  = "refunded"
	SaleStatusCancelled = "cancelled"
)

// Sale cabecera de una venta del POS. InvoiceNumber se genera si llega vacío.
// TaxIDs y DiscountIDs referencian tax-rates y discounts aplicados.
type Sale struct {
	InvoiceNumber string           `json:"invoice_number" validate:"omitempty,max=64"`
	CustomerID    *string          `json:"customer_id" validate:"omitempty,max=64"`
	TerminalID    string           `json:"terminal_id" validate:"required,max=64"`
	Status        string           `json:"status" validate:"omitempty,oneof=completed pending refunded cancelled"`
	SaleDate      *string          `json:"sale_date" validate:"omitempty,datetime=2006-01-02"`
	Subtotal      *decimal.Decimal `json:"subtotal" validate:"required,gte=0"`
	TaxTotal      decimal.Decimal  `json:"tax_total" validate:"gte=0"`
	DiscountTotal decimal.Decimal  `json:"discount_total" validate:"gte=0"`
	Total         *decimal.Decimal `json:"total" validate:"required,gte=0"`
	TaxIDs        []string         `json:"tax_ids" validate:"omitempty,dive,required,max=64"`
	DiscountIDs   []string         `json:"discount_ids" validate:"omitempty,dive,required,max=64"`
	Note          *string          `json:"note" validate:"omitempty,max=1000"`
}

// SaleItem línea de detalle de una venta.
type SaleItem struct {
	SaleID    string           `json:"sale_id" validate:"required,max=64"`
	ProductID string           `json:"product_id" validate:"required,max=64"`
	Quantity  int              `json:"quantity" validate:"required,gt=0"`
	UnitPrice *decimal.Decimal `json:"unit_price" validate:"required,gte=0"`
	Discount  decimal.Decimal  `json:"discount" validate:"gte=0"`
	Subtotal  *decimal.Decimal `json:"subtotal" validate:"required,gte=0"`
}

// SalePayment pago registrado contra una venta.
type SalePayment struct {
	SaleID           string           `json:"sale_id" validate:"required,max=64"`
	PaymentGatewayID *string          `json:"payment_gateway_id" validate:"omitempty,max=64"`
	Method           string           `json:"method" validate:"required,oneof=cash card transfer wallet other"`
	Amount           *decimal.Decimal `json:"amount" validate:"required,gt=0"`
	Reference        *string          `json:"reference" validate:"omitempty,max=100"`
	PaidAt           *string          `json:"paid_at" validate:"omitempty,datetime=2006-01-02"`
}
