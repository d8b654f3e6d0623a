package entity

import "github.com/shopspring/decimal"

// Department área de la empresa (HRM).
type Department struct {
	Name        string  `json:"name" validate:"required,max=100"`
	Description *string `json:"description" validate:"omitempty,max=500"`
}

// Employee empleado (HRM). EmployeeCode y Email son únicos.
type Employee struct {
	Name         string           `json:"name" validate:"required,max=255"`
	Email        string           `json:"email" validate:"required,email,max=255"`
	Phone        *string          `json:"phone" validate:"omitempty,max=32"`
	EmployeeCode string           `json:"employee_code" validate:"required,max=32"`
	DepartmentID *string          `json:"department_id" validate:"omitempty,max=64"`
	Position     *string          `json:"position" validate:"omitempty,max=100"`
	Salary       *decimal.Decimal `json:"salary" validate:"omitempty,gte=0"`
	HiredAt      *string          `json:"hired_at" validate:"omitempty,datetime=2006-01-02"`
	Status       string           `json:"status" validate:"omitempty,oneof=active inactive terminated"`
}
