package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/backoffice-api/internal/application/dto"
)

// ModuleSet módulos activos del back-office (pos, hrm, crm, accounting).
type ModuleSet map[string]bool

// NewModuleSet construye el conjunto desde la lista de APP_MODULES.
func NewModuleSet(modules []string) ModuleSet {
	set := make(ModuleSet, len(modules))
	for _, m := range modules {
		set[m] = true
	}
	return set
}

// Enabled indica si el módulo está activo. Un recurso sin módulo ("") siempre lo está.
func (s ModuleSet) Enabled(module string) bool {
	return module == "" || s[module]
}

// RequireModule devuelve un middleware Fiber que corta las rutas de un módulo desactivado.
//
// Comportamiento:
//   - 403 Forbidden MODULE_DISABLED → el módulo no está en APP_MODULES.
func RequireModule(module string, modules ModuleSet) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !modules.Enabled(module) {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Code:    "MODULE_DISABLED",
				Message: "el módulo '" + module + "' no está activo",
			})
		}
		return c.Next()
	}
}
