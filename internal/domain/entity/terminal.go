package entity

// Terminal caja registradora / punto de venta físico.
type Terminal struct {
	Name     string  `json:"name" validate:"required,max=100"`
	Location *string `json:"location" validate:"omitempty,max=255"`
	Status   string  `json:"status" validate:"omitempty,oneof=active inactive"`
}
