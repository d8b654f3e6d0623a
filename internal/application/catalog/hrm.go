package catalog

import (
	"github.com/jhoicas/backoffice-api/internal/application/resource"
	"github.com/jhoicas/backoffice-api/internal/domain/entity"
	"github.com/jhoicas/backoffice-api/internal/domain/repository"
)

// Colecciones del módulo HRM.
const (
	Departments = "departments"
	Employees   = "employees"
)

func registerHRM(r *resource.Registry, s *Services) {
	s.Departments = resource.Register(r, resource.Config[entity.Department]{
		Name:   Departments,
		Label:  "departamentos",
		Search: []string{"name"},
		Unique: []string{"name"},
		Relations: []resource.Relation{
			{Name: "employees", Kind: resource.HasMany, Field: "department_id", Target: Employees},
		},
		Dependents: []resource.Dependent{
			{Target: Employees, Field: "department_id", Policy: resource.Restrict},
		},
	})

	s.Employees = resource.Register(r, resource.Config[entity.Employee]{
		Name:   Employees,
		Label:  "empleados",
		Search: []string{"name", "email", "phone", "employee_code"},
		SearchRelated: []repository.RelatedSearch{
			{Field: "department_id", Target: Departments, Fields: []string{"name"}},
		},
		Filters: []string{"department_id", "status"},
		Unique:  []string{"employee_code", "email"},
		Refs:    []resource.Ref{{Field: "department_id", Target: Departments}},
		Relations: []resource.Relation{
			{Name: "department", Kind: resource.BelongsTo, Field: "department_id", Target: Departments},
		},
		ListWith: []string{"department"},
		Prepare: func(e *entity.Employee, creating bool) {
			if e.Status == "" {
				e.Status = "active"
			}
		},
	})
}
