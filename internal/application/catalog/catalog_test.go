package catalog_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/backoffice-api/internal/application/catalog"
	"github.com/jhoicas/backoffice-api/internal/application/resource"
	"github.com/jhoicas/backoffice-api/internal/domain"
	"github.com/jhoicas/backoffice-api/internal/infrastructure/memory"
)

func setup(t *testing.T) (*resource.Registry, *catalog.Services) {
	t.Helper()
	reg := resource.NewRegistry(memory.NewStore())
	svc := catalog.Register(reg)
	require.NoError(t, reg.Migrate(context.Background()), "todas las configuraciones deben ser válidas")
	return reg, svc
}

func create(t *testing.T, ep resource.Endpoint, body string) map[string]any {
	t.Helper()
	item, err := ep.Create(context.Background(), []byte(body))
	require.NoError(t, err, body)
	return item
}

func fieldErrors(t *testing.T, err error) map[string][]string {
	t.Helper()
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr), "se esperaba ValidationError, llegó %v", err)
	return verr.Fields
}

func TestRegister_TodosLosModulos(t *testing.T) {
	reg, _ := setup(t)

	var names []string
	for _, ep := range reg.Endpoints() {
		names = append(names, ep.Name())
	}
	assert.Equal(t, []string{
		"customer-groups", "customers", "categories", "tax-rates", "discounts", "products",
		"terminals", "payment-gateways", "sales", "sale-items", "sale-payments", "carts",
		"departments", "employees", "leads", "accounts", "expenses",
	}, names)
}

func TestModuleOf_CadaRecursoTieneModulo(t *testing.T) {
	reg, _ := setup(t)
	for _, ep := range reg.Endpoints() {
		assert.NotEmpty(t, catalog.ModuleOf(ep.Name()), ep.Name())
	}
	assert.Equal(t, catalog.ModuleHRM, catalog.ModuleOf("employees"))
	assert.Equal(t, catalog.ModuleAccounting, catalog.ModuleOf("expenses"))
	assert.Empty(t, catalog.ModuleOf("unknown"))
}

func TestInvoiceNumber_Formato(t *testing.T) {
	n := catalog.InvoiceNumber(time.Date(2026, 3, 9, 15, 0, 0, 0, time.UTC))
	assert.Regexp(t, `^INV-20260309-[0-9A-F]{8}$`, n)
	assert.NotEqual(t, n, catalog.InvoiceNumber(time.Date(2026, 3, 9, 15, 0, 0, 0, time.UTC)))
}

func TestSales_CascadaYRestriccionDeTerminal(t *testing.T) {
	ctx := context.Background()
	_, svc := setup(t)

	terminal := create(t, svc.Terminals, `{"name":"Caja 1"}`)
	assert.Equal(t, "active", terminal["status"])
	product := create(t, svc.Products, `{"name":"Café","sku":"CAF","price":10}`)
	gateway := create(t, svc.PaymentGateways, `{"name":"Efectivo","driver":"cash","config":{"mode":"live","currency":"COP"}}`)
	sale := create(t, svc.Sales, `{"terminal_id":"`+terminal["id"].(string)+`","subtotal":20,"total":20}`)
	saleID := sale["id"].(string)
	create(t, svc.SaleItems, `{"sale_id":"`+saleID+`","product_id":"`+product["id"].(string)+`","quantity":2,"unit_price":10,"subtotal":20}`)
	create(t, svc.SalePayments, `{"sale_id":"`+saleID+`","payment_gateway_id":"`+gateway["id"].(string)+`","method":"cash","amount":20}`)

	shown, err := svc.Sales.Show(ctx, saleID)
	require.NoError(t, err)
	assert.Len(t, shown["items"], 1)
	assert.Len(t, shown["payments"], 1)

	err = svc.Terminals.Delete(ctx, terminal["id"].(string))
	var conflict *domain.ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, "sales", conflict.Dependent)

	require.NoError(t, svc.Sales.Delete(ctx, saleID))
	items, err := svc.SaleItems.Where(ctx, "sale_id", saleID)
	require.NoError(t, err)
	assert.Empty(t, items)
	payments, err := svc.SalePayments.Where(ctx, "sale_id", saleID)
	require.NoError(t, err)
	assert.Empty(t, payments)

	require.NoError(t, svc.Terminals.Delete(ctx, terminal["id"].(string)))
}

func TestPaymentGateway_ConfigEstructurada(t *testing.T) {
	_, svc := setup(t)

	_, err := svc.PaymentGateways.Create(context.Background(),
		[]byte(`{"name":"Stripe","driver":"stripe","config":{"mode":"test","webhook_url":"no-url"}}`))
	fields := fieldErrors(t, err)
	assert.Contains(t, fields, "config.mode")
	assert.Contains(t, fields, "config.webhook_url")

	gw := create(t, svc.PaymentGateways, `{"name":"Stripe","driver":"stripe","config":{"mode":"sandbox","currency":"USD"}}`)
	cfg := gw["config"].(map[string]any)
	assert.Equal(t, "sandbox", cfg["mode"])
}

func TestCarts_ContenidoEstructurado(t *testing.T) {
	_, svc := setup(t)
	terminal := create(t, svc.Terminals, `{"name":"Caja 2"}`)

	_, err := svc.Carts.Create(context.Background(), []byte(`{"name":"Mesa 4","terminal_id":"`+terminal["id"].(string)+`","contents":{"items":[{"product_id":"p1","name":"Pan","quantity":0,"unit_price":1}]}}`))
	assert.Contains(t, fieldErrors(t, err), "contents.items.0.quantity")

	cart := create(t, svc.Carts, `{"name":"Mesa 4","terminal_id":"`+terminal["id"].(string)+`","contents":{"items":[{"product_id":"p1","name":"Pan","quantity":3,"unit_price":1.5}]}}`)
	assert.Equal(t, "open", cart["status"])

	rec, err := svc.Carts.Get(context.Background(), cart["id"].(string))
	require.NoError(t, err)
	assert.Equal(t, "4.5", rec.Fields.Contents.Total().String())
}

func TestEmployees_UnicosYDepartamento(t *testing.T) {
	ctx := context.Background()
	_, svc := setup(t)

	dept := create(t, svc.Departments, `{"name":"Ventas"}`)
	deptID := dept["id"].(string)
	emp := create(t, svc.Employees, `{"name":"Luis","email":"luis@x.co","employee_code":"E1","department_id":"`+deptID+`"}`)
	assert.Equal(t, "active", emp["status"])
	assert.Equal(t, "Ventas", emp["department"].(map[string]any)["name"])

	_, err := svc.Employees.Create(ctx, []byte(`{"name":"Otro","email":"luis@x.co","employee_code":"E1"}`))
	fields := fieldErrors(t, err)
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "employee_code")

	page, err := svc.Employees.List(ctx, resource.ListParams{Keyword: "vent"})
	require.NoError(t, err)
	assert.Equal(t, 1, page.TotalItems, "búsqueda por nombre de departamento")

	shown, err := svc.Departments.Show(ctx, deptID)
	require.NoError(t, err)
	assert.Len(t, shown["employees"], 1)

	err = svc.Departments.Delete(ctx, deptID)
	var conflict *domain.ConflictError
	assert.True(t, errors.As(err, &conflict))
}

func TestLeads_AsignadoYEstadoPorDefecto(t *testing.T) {
	ctx := context.Background()
	_, svc := setup(t)

	emp := create(t, svc.Employees, `{"name":"Marta","email":"marta@x.co","employee_code":"E2"}`)
	lead := create(t, svc.Leads, `{"name":"ACME","assigned_to":"`+emp["id"].(string)+`"}`)
	assert.Equal(t, "new", lead["status"])
	assert.Equal(t, "Marta", lead["assignee"].(map[string]any)["name"])

	_, err := svc.Leads.Create(ctx, []byte(`{"name":"X","assigned_to":"fantasma"}`))
	assert.Contains(t, fieldErrors(t, err), "assigned_to")
}

func TestExpenses_BusquedaPorCuentaYRestriccion(t *testing.T) {
	ctx := context.Background()
	_, svc := setup(t)

	acc := create(t, svc.Accounts, `{"name":"Arriendo","code":"5120","type":"expense"}`)
	create(t, svc.Expenses, `{"title":"Local marzo","account_id":"`+acc["id"].(string)+`","amount":1500000,"expense_date":"2026-03-01"}`)

	_, err := svc.Expenses.Create(ctx, []byte(`{"title":"Mal","account_id":"`+acc["id"].(string)+`","amount":0,"expense_date":"01/03/2026"}`))
	fields := fieldErrors(t, err)
	assert.Contains(t, fields, "amount")
	assert.Contains(t, fields, "expense_date")

	page, err := svc.Expenses.List(ctx, resource.ListParams{Keyword: "arri"})
	require.NoError(t, err)
	assert.Equal(t, 1, page.TotalItems)

	err = svc.Accounts.Delete(ctx, acc["id"].(string))
	var conflict *domain.ConflictError
	assert.True(t, errors.As(err, &conflict))
}
