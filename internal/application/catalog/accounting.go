package catalog

import (
	"github.com/jhoicas/backoffice-api/internal/application/resource"
	"github.com/jhoicas/backoffice-api/internal/domain/entity"
	"github.com/jhoicas/backoffice-api/internal/domain/repository"
)

// Colecciones del módulo contable.
const (
	Accounts = "accounts"
	Expenses = "expenses"
)

func registerAccounting(r *resource.Registry, s *Services) {
	s.Accounts = resource.Register(r, resource.Config[entity.Account]{
		Name:    Accounts,
		Label:   "cuentas",
		Search:  []string{"name", "code"},
		Filters: []string{"type"},
		Unique:  []string{"code"},
		Dependents: []resource.Dependent{
			{Target: Expenses, Field: "account_id", Policy: resource.Restrict},
		},
	})

	s.Expenses = resource.Register(r, resource.Config[entity.Expense]{
		Name:   Expenses,
		Label:  "gastos",
		Search: []string{"title", "reference"},
		SearchRelated: []repository.RelatedSearch{
			{Field: "account_id", Target: Accounts, Fields: []string{"name"}},
		},
		Filters: []string{"account_id"},
		Refs:    []resource.Ref{{Field: "account_id", Target: Accounts}},
		Relations: []resource.Relation{
			{Name: "account", Kind: resource.BelongsTo, Field: "account_id", Target: Accounts},
		},
		ListWith: []string{"account"},
	})
}
