package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/shopspring/decimal"
	"github.com/streadway/amqp"

	"foodhub/internal/config"
	"foodhub/internal/database"
	"foodhub/internal/models"
	"foodhub/internal/repositories"
	"foodhub/internal/server"
	"foodhub/internal/services"
	"foodhub/pkg/paystack"
	"foodhub/pkg/rabbitmq"
)

func main() {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// --- Database ---
	db, err := database.Open(cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// --- Event publishing (optional) ---
	var publisher services.EventPublisher
	var mqClient *rabbitmq.Client
	if cfg.RabbitMQURL != "" {
		mqClient, err = rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL})
		if err != nil {
			log.Fatalf("Failed to initialize RabbitMQ client: %v", err)
		}
		defer mqClient.Close()
		publisher = mqClient
		startEventConsumer(mqClient)
	} else {
		log.Println("RABBITMQ_URL is empty, order events will not be published")
	}

	// --- Repositories ---
	productRepo := repositories.NewGORMProductRepository(db)
	orderRepo := repositories.NewGORMOrderRepository(db)
	userRepo := repositories.NewGORMUserRepository(db)
	notificationRepo := repositories.NewGORMNotificationRepository(db)
	deliveryRepo := repositories.NewGORMDeliveryPersonRepository(db)

	// --- Services ---
	gateway := paystack.NewClient(paystack.Config{
		BaseURL:   cfg.PaystackBaseURL,
		SecretKey: cfg.PaystackSecretKey,
		Timeout:   cfg.PaystackTimeout,
	})
	svc := server.Services{
		Auth:     services.NewAuthService(userRepo, cfg.JWTSecret),
		Products: services.NewProductService(productRepo),
		Orders:   services.NewOrderService(orderRepo, userRepo, publisher),
		Payments: services.NewPaymentService(orderRepo, gateway, publisher, services.PaymentConfig{
			Currency:      cfg.PaymentCurrency,
			CallbackURL:   cfg.PaystackCallbackURL,
			WebhookSecret: cfg.PaystackSecretKey,
		}),
		Notifications: services.NewNotificationService(notificationRepo),
		Delivery:      services.NewDeliveryService(deliveryRepo),
	}

	if cfg.AdminUsername != "" && cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		if err := svc.Auth.EnsureStaffUser(cfg.AdminUsername, cfg.AdminEmail, cfg.AdminPassword, models.RoleAdmin); err != nil {
			log.Fatalf("Failed to bootstrap admin: %v", err)
		}
	}
	if cfg.SeedCatalog {
		seedProducts(svc.Products)
	}

	app := server.New(svc, server.Options{
		RequestLogging:  true,
		BrokerConnected: mqClient != nil,
	})

	// --- Start HTTP Server ---
	log.Printf("Starting server on port %s", cfg.AppPort)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(cfg.AppPort); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Printf("Error during Fiber shutdown: %v", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
	log.Println("Server gracefully stopped")
}

// startEventConsumer logs every order event that reaches the order_events queue.
func startEventConsumer(mqClient *rabbitmq.Client) {
	log.Println("Starting RabbitMQ consumer for order events...")
	err := mqClient.ConsumeOrderEvents(func(msg amqp.Delivery) error {
		event, err := services.DecodeOrderEvent(msg.Body)
		if err != nil {
			return err
		}
		log.Printf("Order event %s: order %s status=%q payment=%s delivery=%s",
			msg.RoutingKey, event.OrderNumber, event.Status, event.PaymentStatus, event.DeliveryStatus)
		return nil
	})
	if err != nil {
		log.Printf("Failed to start RabbitMQ consumer: %v", err)
	}
}

// seedProducts fills an empty catalog with a small demo menu.
func seedProducts(productService *services.ProductService) {
	existing, err := productService.GetAllProducts()
	if err != nil {
		log.Printf("Skipping catalog seed: %v", err)
		return
	}
	if len(existing) > 0 {
		return
	}

	products := []models.Product{
		{Name: "Jollof Rice", Description: "Smoky party jollof with fried plantain", Price: decimal.NewFromInt(2500), Quantity: decimal.NewFromInt(40), Category: "mains"},
		{Name: "Chicken Suya", Description: "Spiced grilled chicken skewers", Price: decimal.NewFromInt(1800), Quantity: decimal.NewFromInt(30), Category: "grill"},
		{Name: "Zobo", Description: "Chilled hibiscus drink", Price: decimal.NewFromInt(500), Quantity: decimal.NewFromInt(60), Category: "drinks"},
	}
	for i := range products {
		if err := productService.CreateProduct(&products[i]); err != nil {
			log.Printf("Error seeding product %s: %v", products[i].Name, err)
		} else {
			log.Printf("Seeded product: %s (ID: %s)", products[i].Name, products[i].ID)
		}
	}
}
