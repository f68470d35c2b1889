package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
)

func RegisterRoutes(app *fiber.App, handler *Handler) {
	registerPageRoutes(app, handler)
	registerAPIRoutes(app, handler)
}

func registerPageRoutes(app *fiber.App, handler *Handler) {
	app.Get("/healthz", handler.Health)
	if handler.metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(handler.metrics.Handler()))
	}
	app.Get("/favicon.ico", sendNoContent)
	app.Get("/lang/:lang", handler.SetLanguage)

	app.Get("/", handler.RedirectHome)
	app.Get("/cronograma", handler.ShowCronograma)
	app.Get("/cronograma/registro", handler.ShowRegister)
	app.Get("/registro", func(c *fiber.Ctx) error {
		return c.Redirect("/cronograma/registro", fiber.StatusMovedPermanently)
	})
	app.Get("/cronograma/dashboard", handler.AuthRequired, handler.ShowDashboard)
}

func registerAPIRoutes(app *fiber.App, handler *Handler) {
	api := app.Group("/api")

	cronograma := api.Group("/cronograma")
	cronograma.Post("", handler.RegistrationRateLimit, handler.Register)
	cronograma.Get("", handler.CheckExists)
	cronograma.Post("/auth", handler.VerifyCredentials)

	protected := cronograma.Group("/protected", handler.AuthRequired)
	protected.Get("/schedule", handler.Schedule)
	protected.Get("/countdown", handler.CountdownStream)

	// Older clients post registrations to /api/customers.
	customers := api.Group("/customers")
	customers.Post("", handler.RegistrationRateLimit, handler.Register)
	customers.Get("", handler.CheckExists)

	auth := api.Group("/auth")
	auth.Post("/login", handler.Login)
	auth.Post("/logout", handler.AuthRequired, handler.Logout)
}
