package main

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"nihaarpos/internal/caching"
	"nihaarpos/internal/handlers"
	"nihaarpos/internal/jobs/background"
	"nihaarpos/internal/repositories"
	"nihaarpos/internal/services"
	"nihaarpos/pkg/database"
)

func main() {
	// Database connection
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	pool, err := database.NewPool(databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	// Redis configuration
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	redisPassword := os.Getenv("REDIS_PASSWORD")
	redisDB := 0
	if raw := os.Getenv("REDIS_DB"); raw != "" {
		if db, err := strconv.Atoi(raw); err == nil {
			redisDB = db
		}
	}

	// MinIO configuration
	minioEndpoint := os.Getenv("MINIO_ENDPOINT")
	if minioEndpoint == "" {
		minioEndpoint = "localhost:9000"
	}
	minioAccessKey := os.Getenv("MINIO_ACCESS_KEY")
	if minioAccessKey == "" {
		minioAccessKey = "minioadmin"
	}
	minioSecretKey := os.Getenv("MINIO_SECRET_KEY")
	if minioSecretKey == "" {
		minioSecretKey = "minioadmin"
	}
	useSSL := os.Getenv("MINIO_USE_SSL") == "true"

	minioSvc, err := services.NewMinioService(minioEndpoint, minioAccessKey, minioSecretKey, useSSL)
	if err != nil {
		log.Fatalf("Failed to initialize MinIO service: %v", err)
	}

	// Repositories
	catalogRepo := repositories.NewCatalogRepo(pool)
	salesRepo := repositories.NewSalesRepo(pool)
	sequenceRepo := repositories.NewSequenceRepo(pool)

	// Cache service
	cacheSvc := caching.NewRedisCacheService(redisAddr, redisPassword, redisDB)

	// Services
	stockSvc := services.NewStockService(catalogRepo, cacheSvc)
	productSvc := services.NewProductService(catalogRepo, cacheSvc, minioSvc)
	invoiceSvc := services.NewInvoiceService(catalogRepo, salesRepo, sequenceRepo, stockSvc)
	reportSvc := services.NewReportService(catalogRepo, salesRepo)

	// Handlers
	healthHandlers := handlers.NewHealthHandlers(pool)
	productHandlers := handlers.NewProductHandlers(productSvc)
	invoiceHandlers := handlers.NewInvoiceHandlers(invoiceSvc, minioSvc)
	reportHandlers := handlers.NewReportHandlers(reportSvc)

	// Background jobs
	scheduler, err := background.NewJobScheduler(catalogRepo, cacheSvc)
	if err != nil {
		log.Fatalf("Failed to create job scheduler: %v", err)
	}
	scheduler.Start()
	defer func() {
		if err := scheduler.Stop(); err != nil {
			log.Printf("Failed to stop job scheduler: %v", err)
		}
	}()

	e := echo.New()

	// Global middleware
	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORS())
	e.Use(echoMiddleware.RemoveTrailingSlash())

	// Health endpoints
	e.GET("/health", healthHandlers.HealthCheck)
	e.GET("/health/ready", healthHandlers.ReadinessCheck)
	e.GET("/health/live", healthHandlers.LivenessCheck)

	v1 := e.Group("/v1")

	// Product routes
	v1.GET("/products", productHandlers.ListProducts)
	v1.POST("/products", productHandlers.CreateProduct)
	v1.GET("/products/:id", productHandlers.GetProduct)
	v1.PUT("/products/:id", productHandlers.UpdateProduct)
	v1.DELETE("/products/:id", productHandlers.DeleteProduct)
	v1.POST("/products/:id/image", productHandlers.UploadProductImage)

	// Invoice routes
	v1.POST("/invoices", invoiceHandlers.CreateInvoice)
	v1.GET("/invoices", invoiceHandlers.ListInvoices)
	v1.GET("/invoices/:invoiceNumber", invoiceHandlers.GetInvoice)
	v1.POST("/invoices/:invoiceNumber/pdf", invoiceHandlers.GenerateInvoicePDF)

	// Report routes
	v1.GET("/reports/sales", reportHandlers.GetSalesReport)
	v1.GET("/reports/sales/csv", reportHandlers.DownloadSalesReportCSV)

	port := 8080
	if raw := os.Getenv("PORT"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			port = parsed
		}
	}

	e.Logger.Fatal(e.Start(fmt.Sprintf(":%d", port)))
}
