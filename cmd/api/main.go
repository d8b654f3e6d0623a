package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/jhoicas/backoffice-api/internal/application/catalog"
	"github.com/jhoicas/backoffice-api/internal/application/resource"
	"github.com/jhoicas/backoffice-api/internal/application/sales"
	"github.com/jhoicas/backoffice-api/internal/domain/repository"
	"github.com/jhoicas/backoffice-api/internal/infrastructure/memory"
	infrapdf "github.com/jhoicas/backoffice-api/internal/infrastructure/pdf"
	"github.com/jhoicas/backoffice-api/internal/infrastructure/postgres"
	"github.com/jhoicas/backoffice-api/internal/infrastructure/sqlite"
	httpRouter "github.com/jhoicas/backoffice-api/internal/interfaces/http"
	"github.com/jhoicas/backoffice-api/pkg/config"
	"github.com/jhoicas/backoffice-api/pkg/logger"
)

const apiVersion = "1.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("store", cfg.Store.Driver).
		Msg("iniciando aplicación")

	ctx := context.Background()
	store, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("store", cfg.Store.Driver).Msg("abrir store")
	}
	defer store.Close()

	reg := resource.NewRegistry(store)
	services := catalog.Register(reg)
	if err := reg.Migrate(ctx); err != nil {
		log.Fatal().Err(err).Msg("migrar colecciones")
	}

	// PDF: recibo de venta
	receiptUC := sales.NewReceiptUseCase(services, infrapdf.NewReceiptGenerator(cfg.App.Name))

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := httpRouter.NewMetrics(promReg)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
		ErrorHandler: httpRouter.ErrorHandler(log),
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(httpRouter.RequestLogger(log))
	app.Use(metrics.Middleware())

	// Swagger UI: http://localhost:<port>/docs (documento generado desde el registro)
	if err := httpRouter.WriteOpenAPI(cfg.Docs.Path, reg, cfg.App.Name, apiVersion); err != nil {
		log.Warn().Err(err).Msg("documentación OpenAPI no disponible")
	} else {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: cfg.Docs.Path,
			Path:     "docs",
			Title:    cfg.App.Name + " API",
		}))
	}

	httpRouter.Router(app, httpRouter.RouterDeps{
		Registry:  reg,
		Receipts:  receiptUC,
		Metrics:   metrics,
		Logger:    log,
		Service:   cfg.App.Name,
		JWTSecret: cfg.JWT.Secret,
		Modules:   httpRouter.NewModuleSet(cfg.App.Modules),
		ModuleOf:  catalog.ModuleOf,
	})
	log.Info().Strs("modules", cfg.App.Modules).Msg("módulos activos")
	if !cfg.JWT.Enabled() {
		log.Warn().Msg("JWT_SECRET vacío: la API queda abierta sin autenticación")
	}

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}

// openStore elige el backend según STORE_DRIVER.
func openStore(ctx context.Context, cfg *config.Config) (repository.Store, error) {
	switch cfg.Store.Driver {
	case config.StorePostgres:
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			return nil, err
		}
		return postgres.NewStore(pool), nil
	case config.StoreSQLite:
		st, err := sqlite.NewStore(cfg.Store.SQLitePath)
		if err != nil {
			return nil, err
		}
		return st, nil
	default:
		return memory.NewStore(), nil
	}
}
