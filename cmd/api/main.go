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
	"github.com/shopspring/decimal"

	"github.com/jhoicas/boutique-backoffice/internal/application"
	"github.com/jhoicas/boutique-backoffice/internal/application/alerts"
	"github.com/jhoicas/boutique-backoffice/internal/domain/alerting"
	"github.com/jhoicas/boutique-backoffice/internal/domain/repository"
	"github.com/jhoicas/boutique-backoffice/internal/infrastructure/postgres"
	infraredis "github.com/jhoicas/boutique-backoffice/internal/infrastructure/redis"
	httpRouter "github.com/jhoicas/boutique-backoffice/internal/interfaces/http"
	"github.com/jhoicas/boutique-backoffice/pkg/config"
	"github.com/jhoicas/boutique-backoffice/pkg/logger"
)

const swaggerFile = "./docs/swagger.json"

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
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB, cfg.App.Name)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()
	if err := postgres.Migrate(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("migración del esquema")
	}

	saleRepo := postgres.NewSaleRepository(pool)
	repos := application.Repositories{
		Products:       postgres.NewProductRepository(pool),
		Movements:      postgres.NewMovementRepository(pool),
		Sales:          saleRepo,
		Returns:        postgres.NewReturnRepository(pool),
		Alerts:         postgres.NewAlertRepository(pool),
		Replenishments: postgres.NewReplenishmentRepository(pool),
	}
	txRunner := postgres.NewTxRunner(pool, cfg.Ledger.LockTimeout)

	// Secuencia de códigos de venta y lock del barrido: Redis si está configurado,
	// si no, secuencia nativa de PostgreSQL y lock en proceso.
	var sequence repository.SequenceGenerator = postgres.NewSequence(pool)
	var sweepLock alerts.SweepLocker
	if cfg.Redis.Enabled() {
		client, err := infraredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Str("addr", cfg.Redis.Addr).Msg("conexión a Redis")
		}
		defer client.Close()

		sequence = infraredis.NewSequence(client)
		sweepLock = infraredis.NewSweepLock(client, cfg.Alerts.SweepLock)
		log.Info().Str("addr", cfg.Redis.Addr).Msg("Redis habilitado")
	}

	// config.validate ya verificó que la tasa es un decimal válido
	taxRate := decimal.RequireFromString(cfg.Sales.TaxRate)
	backoffice := application.NewBackoffice(txRunner, repos, sequence, sweepLock, application.Settings{
		TaxRate:      taxRate,
		AnnulWindow:  cfg.Sales.AnnulWindow,
		ReturnWindow: cfg.Sales.ReturnWindow,
		Bands:        alerting.Bands{HighRatio: cfg.Alerts.HighRatio, MediumRatio: cfg.Alerts.MediumRatio},
	}, log)

	// Redis y PostgreSQL no comparten contador: el generador activo arranca desde el último código emitido
	last, err := backoffice.RegisterSale.SyncCodeSequence(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("sincronizar secuencia de códigos de venta")
	}
	log.Info().Int64("last_sale_code", last).Msg("secuencia de códigos de venta sincronizada")

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Minute, // el barrido completo puede tardar
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI: http://localhost:<port>/docs
	if _, err := os.Stat(swaggerFile); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: swaggerFile,
			Path:     "docs",
			Title:    "Boutique Backoffice Ops API",
		}))
	}

	ops := httpRouter.NewOpsHandler(backoffice.Alerts, backoffice.Ledger, pool.Ping, cfg.App.Name, log)
	httpRouter.Router(app, httpRouter.RouterDeps{Ops: ops})

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
