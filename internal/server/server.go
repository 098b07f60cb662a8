// Package server assembles the Fiber application from the services.
package server

import (
	"time"

	"foodhub/internal/handlers"
	"foodhub/internal/middleware"
	"foodhub/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// Services are the dependencies the HTTP layer is built on.
type Services struct {
	Auth          *services.AuthService
	Products      *services.ProductService
	Orders        *services.OrderService
	Payments      *services.PaymentService
	Notifications *services.NotificationService
	Delivery      *services.DeliveryService
}

// Options tune the app. The zero value is fine for tests.
type Options struct {
	// RequestLogging enables the per-request access log.
	RequestLogging bool
	// BrokerConnected is reported by /health.
	BrokerConnected bool
}

// New wires every handler under /api/v1. Auth routes and the payment webhook
// are public; everything else needs a bearer token.
func New(svc Services, opts Options) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: "foodhub",
	})

	app.Use(recover.New())
	if opts.RequestLogging {
		app.Use(logger.New())
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		broker := "disabled"
		if opts.BrokerConnected {
			broker = "connected"
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"rabbitmq": broker,
		})
	})

	apiV1 := app.Group("/api/v1")

	handlers.NewAuthHandler(svc.Auth).RegisterRoutes(apiV1)
	paymentHandler := handlers.NewPaymentHandler(svc.Payments)
	paymentHandler.RegisterWebhook(apiV1)

	protected := apiV1.Group("", middleware.AuthRequired(svc.Auth))
	handlers.NewProductHandler(svc.Products).RegisterRoutes(protected)
	handlers.NewOrderHandler(svc.Orders).RegisterRoutes(protected)
	paymentHandler.RegisterRoutes(protected)
	handlers.NewNotificationHandler(svc.Notifications).RegisterRoutes(protected)
	handlers.NewDeliveryHandler(svc.Delivery).RegisterRoutes(protected)

	return app
}
