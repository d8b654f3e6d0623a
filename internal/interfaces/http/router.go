package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/backoffice-api/internal/application/resource"
	"github.com/jhoicas/backoffice-api/internal/application/sales"
	"github.com/jhoicas/backoffice-api/internal/domain/entity"
	"github.com/jhoicas/backoffice-api/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Registry  *resource.Registry
	Receipts  *sales.ReceiptUseCase // opcional
	Metrics   *Metrics              // opcional
	Logger    *logger.Logger
	Service   string
	JWTSecret string // vacío = API abierta

	// Modules activos; nil = todos. ModuleOf asigna cada recurso a su módulo.
	Modules  ModuleSet
	ModuleOf func(resource string) string
}

// cashierWritable recursos que un cajero puede modificar (operación de caja).
var cashierWritable = map[string]bool{
	"sales": true, "sale-items": true, "sale-payments": true, "carts": true,
}

// Router registra las rutas de la API: /health, /metrics y /api/<recurso> por cada recurso del registro.
func Router(app *fiber.App, deps RouterDeps) {
	log := deps.Logger
	if log == nil {
		log = logger.Nop()
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": deps.Service})
	})
	if deps.Metrics != nil {
		app.Get("/metrics", deps.Metrics.Handler())
	}

	// Rutas protegidas (Bearer Token si JWT_SECRET está definido)
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))

	// guards middlewares de un recurso: módulo activo y, para escritura, rol.
	guards := func(name string, write bool) []fiber.Handler {
		var hs []fiber.Handler
		if deps.Modules != nil && deps.ModuleOf != nil {
			hs = append(hs, RequireModule(deps.ModuleOf(name), deps.Modules))
		}
		if write && deps.JWTSecret != "" {
			if cashierWritable[name] {
				hs = append(hs, RequireRole(entity.RoleAdmin, entity.RoleManager, entity.RoleCashier))
			} else {
				hs = append(hs, RequireRole(entity.RoleAdmin, entity.RoleManager))
			}
		}
		return hs
	}

	if deps.Receipts != nil {
		receiptHandler := NewReceiptHandler(deps.Receipts, log)
		api.Get("/sales/:id/receipt", with(guards("sales", false), receiptHandler.Download)...)
	}

	for _, ep := range deps.Registry.Endpoints() {
		h := NewResourceHandler(ep, log)
		group := api.Group("/" + ep.Name())
		read, write := guards(ep.Name(), false), guards(ep.Name(), true)

		group.Get("/", with(read, h.List)...)
		group.Get("/:id", with(read, h.Show)...)
		group.Post("/", with(write, h.Create)...)
		group.Put("/:id", with(write, h.Update)...)
		group.Patch("/:id", with(write, h.Update)...)
		group.Post("/:id", with(write, h.Update)...)
		group.Delete("/:id", with(write, h.Delete)...)
	}
}

func with(guards []fiber.Handler, h fiber.Handler) []fiber.Handler {
	out := make([]fiber.Handler, 0, len(guards)+1)
	out = append(out, guards...)
	return append(out, h)
}
