// Package catalog define los recursos del back-office (POS, HRM, CRM, contabilidad)
// como configuración del contrato CRUD genérico.
package catalog

import (
	"github.com/jhoicas/backoffice-api/internal/application/resource"
	"github.com/jhoicas/backoffice-api/internal/domain/entity"
)

// Services servicios tipados que otros casos de uso necesitan directamente (p. ej. el recibo de venta).
type Services struct {
	CustomerGroups  *resource.Service[entity.CustomerGroup]
	Customers       *resource.Service[entity.Customer]
	Categories      *resource.Service[entity.Category]
	TaxRates        *resource.Service[entity.TaxRate]
	Discounts       *resource.Service[entity.Discount]
	Products        *resource.Service[entity.Product]
	Terminals       *resource.Service[entity.Terminal]
	PaymentGateways *resource.Service[entity.PaymentGateway]
	Sales           *resource.Service[entity.Sale]
	SaleItems       *resource.Service[entity.SaleItem]
	SalePayments    *resource.Service[entity.SalePayment]
	Carts           *resource.Service[entity.Cart]
	Departments     *resource.Service[entity.Department]
	Employees       *resource.Service[entity.Employee]
	Leads           *resource.Service[entity.Lead]
	Accounts        *resource.Service[entity.Account]
	Expenses        *resource.Service[entity.Expense]
}

// Módulos de negocio; cada recurso pertenece a uno (APP_MODULES los activa).
const (
	ModulePOS        = "pos"
	ModuleHRM        = "hrm"
	ModuleCRM        = "crm"
	ModuleAccounting = "accounting"
)

var moduleOf = map[string]string{
	CustomerGroups: ModulePOS, Customers: ModulePOS, Categories: ModulePOS, TaxRates: ModulePOS,
	Discounts: ModulePOS, Products: ModulePOS, Terminals: ModulePOS, PaymentGateways: ModulePOS,
	Sales: ModulePOS, SaleItems: ModulePOS, SalePayments: ModulePOS, Carts: ModulePOS,
	Departments: ModuleHRM, Employees: ModuleHRM,
	Leads:    ModuleCRM,
	Accounts: ModuleAccounting, Expenses: ModuleAccounting,
}

// ModuleOf módulo al que pertenece el recurso; "" si no es del catálogo.
func ModuleOf(resource string) string { return moduleOf[resource] }

// Register registra todos los módulos en r. El orden define el orden de rutas y de la documentación.
func Register(r *resource.Registry) *Services {
	s := &Services{}
	registerPOS(r, s)
	registerHRM(r, s)
	registerCRM(r, s)
	registerAccounting(r, s)
	return s
}
