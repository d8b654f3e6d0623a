package entity

// Customer representa un cliente del punto de venta.
// Phone es único en toda la colección.
type Customer struct {
	Name            string  `json:"name" validate:"required,max=255"`
	Email           *string `json:"email" validate:"omitempty,email,max=255"`
	Phone           string  `json:"phone" validate:"required,max=32"`
	Address         *string `json:"address" validate:"omitempty,max=500"`
	TaxNumber       *string `json:"tax_number" validate:"omitempty,max=64"`
	CustomerGroupID *string `json:"customer_group_id" validate:"omitempty,max=64"`
}
