package catalog

import (
	"github.com/jhoicas/backoffice-api/internal/application/resource"
	"github.com/jhoicas/backoffice-api/internal/domain/entity"
)

// Leads colección del módulo CRM.
const Leads = "leads"

func registerCRM(r *resource.Registry, s *Services) {
	s.Leads = resource.Register(r, resource.Config[entity.Lead]{
		Name:    Leads,
		Label:   "prospectos",
		Search:  []string{"name", "email", "company"},
		Filters: []string{"status", "source", "assigned_to"},
		Refs:    []resource.Ref{{Field: "assigned_to", Target: Employees}},
		Relations: []resource.Relation{
			{Name: "assignee", Kind: resource.BelongsTo, Field: "assigned_to", Target: Employees},
		},
		ListWith: []string{"assignee"},
		Prepare: func(l *entity.Lead, creating bool) {
			if l.Status == "" {
				l.Status = "new"
			}
		},
	})
}
