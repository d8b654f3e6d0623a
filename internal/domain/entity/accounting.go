package entity

import "github.com/shopspring/decimal"

// Account cuenta contable. Code único (plan de cuentas).
type Account struct {
	Name        string          `json:"name" validate:"required,max=255"`
	Code        string          `json:"code" validate:"required,max=20"`
	Type        string          `json:"type" validate:"required,oneof=asset liability equity income expense"`
	Balance     decimal.Decimal `json:"balance"`
	Description *string         `json:"description" validate:"omitempty,max=500"`
}

// Expense gasto imputado a una cuenta contable.
type Expense struct {
	Title       string           `json:"title" validate:"required,max=255"`
	AccountID   string           `json:"account_id" validate:"required,max=64"`
	Amount      *decimal.Decimal `json:"amount" validate:"required,gt=0"`
	ExpenseDate string           `json:"expense_date" validate:"required,datetime=2006-01-02"`
	Reference   *string          `json:"reference" validate:"omitempty,max=100"`
	Note        *string          `json:"note" validate:"omitempty,max=1000"`
}
