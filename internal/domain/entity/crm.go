package entity

// Lead prospecto comercial (CRM). AssignedTo referencia a un empleado.
type Lead struct {
	Name       string  `json:"name" validate:"required,max=255"`
	Email      *string `json:"email" validate:"omitempty,email,max=255"`
	Phone      *string `json:"phone" validate:"omitempty,max=32"`
	Company    *string `json:"company" validate:"omitempty,max=255"`
	Source     string  `json:"source" validate:"omitempty,oneof=website referral social event other"`
	Status     string  `json:"status" validate:"omitempty,oneof=new contacted qualified won lost"`
	AssignedTo *string `json:"assigned_to" validate:"omitempty,max=64"`
	Notes      *string `json:"notes" validate:"omitempty,max=2000"`
}
