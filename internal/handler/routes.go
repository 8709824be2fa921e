package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/icekubz/HFC-Dynamic-Protocol/internal/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Register mounts every route on app. Admin routes require the admin token.
func Register(app *fiber.App, h *Handler, admin *AdminHandler, adminToken string) {
	app.Get("/health", h.Health)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api")
	api.Post("/signup", h.Signup)
	api.Post("/activate-package", h.ActivatePackage)
	api.Get("/packages", h.GetPackages)
	api.Get("/user-data/:user_id", h.GetUserData)
	api.Post("/payouts/request", h.RequestPayout)

	a := app.Group("/api/admin", middleware.AdminAuth(adminToken))
	a.Post("/run-monthly", admin.RunMonthly)
	a.Get("/master-report", admin.MasterReport)
	a.Get("/stats", admin.GetStats)
	a.Post("/reset-system", admin.ResetSystem)
	a.Get("/reset-system/preview", admin.ResetPreview)

	a.Post("/packages", admin.CreatePackage)
	a.Put("/packages/:package_id", admin.UpdatePackage)

	a.Post("/payouts/:payout_id/paid", admin.MarkPayoutPaid)
	a.Post("/payouts/:payout_id/cancel", admin.CancelPayout)
}
