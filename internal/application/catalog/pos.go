package catalog

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/backoffice-api/internal/application/resource"
	"github.com/jhoicas/backoffice-api/internal/domain/entity"
	"github.com/jhoicas/backoffice-api/internal/domain/repository"
)

// Nombres de colección del módulo POS.
const (
	CustomerGroups  = "customer-groups"
	Customers       = "customers"
	Categories      = "categories"
	TaxRates        = "tax-rates"
	Discounts       = "discounts"
	Products        = "products"
	Terminals       = "terminals"
	PaymentGateways = "payment-gateways"
	Sales           = "sales"
	SaleItems       = "sale-items"
	SalePayments    = "sale-payments"
	Carts           = "carts"
)

// InvoiceNumber genera INV-YYYYMMDD-XXXXXXXX (fecha + 8 hex de un UUID).
func InvoiceNumber(t time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:8])
	return "INV-" + t.Format("20060102") + "-" + suffix
}

func registerPOS(r *resource.Registry, s *Services) {
	s.CustomerGroups = resource.Register(r, resource.Config[entity.CustomerGroup]{
		Name:   CustomerGroups,
		Label:  "grupos de clientes",
		Search: []string{"name"},
		Unique: []string{"name"},
	})

	s.Customers = resource.Register(r, resource.Config[entity.Customer]{
		Name:     Customers,
		Label:    "clientes",
		Search:   []string{"name", "email", "phone"},
		Filters:  []string{"customer_group_id"},
		Unique:   []string{"phone"},
		Refs:     []resource.Ref{{Field: "customer_group_id", Target: CustomerGroups}},
		ListWith: []string{"customergroup"},
		Relations: []resource.Relation{
			{Name: "customergroup", Kind: resource.BelongsTo, Field: "customer_group_id", Target: CustomerGroups},
		},
		Dependents: []resource.Dependent{
			{Target: Sales, Field: "customer_id", Policy: resource.Restrict},
		},
	})

	s.Categories = resource.Register(r, resource.Config[entity.Category]{
		Name:   Categories,
		Label:  "categorías",
		Search: []string{"name"},
		Unique: []string{"name"},
	})

	s.TaxRates = resource.Register(r, resource.Config[entity.TaxRate]{
		Name:   TaxRates,
		Label:  "impuestos",
		Search: []string{"name"},
		Unique: []string{"name"},
	})

	s.Discounts = resource.Register(r, resource.Config[entity.Discount]{
		Name:    Discounts,
		Label:   "descuentos",
		Search:  []string{"name"},
		Filters: []string{"type"},
		Unique:  []string{"name"},
	})

	s.Products = resource.Register(r, resource.Config[entity.Product]{
		Name:   Products,
		Label:  "productos",
		Search: []string{"name", "sku", "barcode"},
		SearchRelated: []repository.RelatedSearch{
			{Field: "category_id", Target: Categories, Fields: []string{"name"}},
		},
		Filters: []string{"category_id", "tax_rate_id"},
		Unique:  []string{"sku"},
		Refs: []resource.Ref{
			{Field: "category_id", Target: Categories},
			{Field: "tax_rate_id", Target: TaxRates},
		},
		Relations: []resource.Relation{
			{Name: "category", Kind: resource.BelongsTo, Field: "category_id", Target: Categories},
			{Name: "tax_rate", Kind: resource.BelongsTo, Field: "tax_rate_id", Target: TaxRates},
		},
		ListWith: []string{"category"},
	})

	s.Terminals = resource.Register(r, resource.Config[entity.Terminal]{
		Name:    Terminals,
		Label:   "terminales",
		Search:  []string{"name", "location"},
		Filters: []string{"status"},
		Unique:  []string{"name"},
		Dependents: []resource.Dependent{
			{Target: Sales, Field: "terminal_id", Policy: resource.Restrict},
		},
		Prepare: func(t *entity.Terminal, creating bool) {
			if t.Status == "" {
				t.Status = "active"
			}
		},
	})

	s.PaymentGateways = resource.Register(r, resource.Config[entity.PaymentGateway]{
		Name:    PaymentGateways,
		Label:   "pasarelas de pago",
		Search:  []string{"name", "driver"},
		Filters: []string{"driver"},
		Unique:  []string{"name"},
	})

	s.Sales = resource.Register(r, resource.Config[entity.Sale]{
		Name:   Sales,
		Label:  "ventas",
		Search: []string{"invoice_number"},
		SearchRelated: []repository.RelatedSearch{
			{Field: "customer_id", Target: Customers, Fields: []string{"name"}},
		},
		Filters: []string{"customer_id", "terminal_id", "status"},
		Unique:  []string{"invoice_number"},
		Refs: []resource.Ref{
			{Field: "customer_id", Target: Customers},
			{Field: "terminal_id", Target: Terminals},
			{Field: "tax_ids", Target: TaxRates},
			{Field: "discount_ids", Target: Discounts},
		},
		Relations: []resource.Relation{
			{Name: "customer", Kind: resource.BelongsTo, Field: "customer_id", Target: Customers},
			{Name: "terminal", Kind: resource.BelongsTo, Field: "terminal_id", Target: Terminals},
			{Name: "items", Kind: resource.HasMany, Field: "sale_id", Target: SaleItems},
			{Name: "payments", Kind: resource.HasMany, Field: "sale_id", Target: SalePayments},
			{Name: "taxes", Kind: resource.BelongsToMany, Field: "tax_ids", Target: TaxRates},
			{Name: "discounts", Kind: resource.BelongsToMany, Field: "discount_ids", Target: Discounts},
		},
		ListWith: []string{"customer", "terminal"},
		Dependents: []resource.Dependent{
			{Target: SaleItems, Field: "sale_id", Policy: resource.Cascade},
			{Target: SalePayments, Field: "sale_id", Policy: resource.Cascade},
		},
		Prepare: func(sale *entity.Sale, creating bool) {
			if creating && sale.InvoiceNumber == "" {
				sale.InvoiceNumber = InvoiceNumber(time.Now())
			}
			if sale.Status == "" {
				sale.Status = entity.SaleStatusCompleted
			}
		},
	})

	s.SaleItems = resource.Register(r, resource.Config[entity.SaleItem]{
		Name:    SaleItems,
		Label:   "ítems de venta",
		Filters: []string{"sale_id", "product_id"},
		Refs: []resource.Ref{
			{Field: "sale_id", Target: Sales},
			{Field: "product_id", Target: Products},
		},
		Relations: []resource.Relation{
			{Name: "product", Kind: resource.BelongsTo, Field: "product_id", Target: Products},
		},
		ListWith: []string{"product"},
	})

	s.SalePayments = resource.Register(r, resource.Config[entity.SalePayment]{
		Name:    SalePayments,
		Label:   "pagos de venta",
		Search:  []string{"reference"},
		Filters: []string{"sale_id", "method"},
		Refs: []resource.Ref{
			{Field: "sale_id", Target: Sales},
			{Field: "payment_gateway_id", Target: PaymentGateways},
		},
		Relations: []resource.Relation{
			{Name: "payment_gateway", Kind: resource.BelongsTo, Field: "payment_gateway_id", Target: PaymentGateways},
		},
	})

	s.Carts = resource.Register(r, resource.Config[entity.Cart]{
		Name:   Carts,
		Label:  "carritos",
		Search: []string{"name"},
		SearchRelated: []repository.RelatedSearch{
			{Field: "customer_id", Target: Customers, Fields: []string{"name"}},
		},
		Filters: []string{"terminal_id", "status"},
		Refs: []resource.Ref{
			{Field: "terminal_id", Target: Terminals},
			{Field: "customer_id", Target: Customers},
		},
		Relations: []resource.Relation{
			{Name: "customer", Kind: resource.BelongsTo, Field: "customer_id", Target: Customers},
			{Name: "terminal", Kind: resource.BelongsTo, Field: "terminal_id", Target: Terminals},
		},
		Prepare: func(c *entity.Cart, creating bool) {
			if c.Status == "" {
				c.Status = "open"
			}
		},
	})
}
