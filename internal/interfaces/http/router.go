package http

import (
	"github.com/gofiber/fiber/v2"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Ops *OpsHandler
}

// Router registra las rutas de operaciones.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", deps.Ops.Health)

	ops := app.Group("/ops")
	ops.Post("/alerts/sweep", deps.Ops.SweepAlerts)
	ops.Get("/products/:id/reconcile", deps.Ops.Reconcile)
}
