package main

import (
	"log"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/maribel-ponce/comanda-api/config"
	"github.com/maribel-ponce/comanda-api/controllers"
	"github.com/maribel-ponce/comanda-api/hub"
	"github.com/maribel-ponce/comanda-api/lifecycle"
	"github.com/maribel-ponce/comanda-api/middleware"
	"github.com/maribel-ponce/comanda-api/models"
	"github.com/maribel-ponce/comanda-api/services"
)

func main() {
	// Basic logging
	log.Println("Starting Comanda API server...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Connect to database
	if err := config.ConnectDatabase(); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Auto-migrate database models
	db := config.GetDB()
	if err := db.AutoMigrate(
		&models.Order{},
		&models.OrderItem{},
		&models.OrderItemModifier{},
		&models.Payment{},
	); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	log.Println("Database migration completed successfully")

	// External collaborators
	catalog := services.InitCatalogService(cfg)
	if cfg.AWSS3Bucket != "" {
		if _, err := services.InitArchiveService(); err != nil {
			log.Fatalf("Failed to initialize archive service: %v", err)
		}
	} else {
		log.Println("AWS_S3_BUCKET not set, ticket archival disabled")
	}

	// Lifecycle engine and broadcast hub
	eventHub := hub.NewHub()
	engine := lifecycle.NewEngine(db, catalog, eventHub)
	controllers.Init(engine, eventHub)

	// Initialize Gin router
	router := setupRouter(cfg)

	// Start server
	port := ":" + cfg.Port
	log.Printf("Server is running on http://localhost%s", port)
	if err := router.Run(port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// setupRouter configures CORS, auth and all API routes
func setupRouter(cfg *config.Config) *gin.Engine {
	router := gin.Default()

	// CORS for the customer, waiter and kitchen frontends
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: false,
	}))

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Health check endpoint
		v1.GET("/health", healthCheck)

		// Database status endpoint
		v1.GET("/database/status", databaseStatus)

		authed := v1.Group("")
		authed.Use(middleware.EnsureValidToken(cfg))
		{
			authed.POST("/orders",
				middleware.RequireRole(middleware.RoleCustomer, middleware.RoleWaiter),
				controllers.CreateOrder)
			authed.GET("/orders", controllers.ListOrders)
			authed.GET("/orders/:id", controllers.GetOrder)

			authed.POST("/orders/:id/accept",
				middleware.RequireRole(middleware.RoleWaiter),
				controllers.AcceptOrder)
			authed.POST("/orders/:id/reject",
				middleware.RequireRole(middleware.RoleWaiter),
				controllers.RejectOrder)
			authed.POST("/orders/:id/complete",
				middleware.RequireRole(middleware.RoleWaiter),
				controllers.CompleteOrder)
			authed.POST("/orders/:id/bump",
				middleware.RequireRole(middleware.RoleKitchen),
				controllers.BumpOrder)
			authed.POST("/orders/:id/request-bill",
				middleware.RequireRole(middleware.RoleCustomer, middleware.RoleWaiter),
				controllers.RequestBill)

			authed.POST("/orders/:id/items/:itemId/start",
				middleware.RequireRole(middleware.RoleKitchen),
				controllers.StartItem)
			authed.POST("/orders/:id/items/:itemId/ready",
				middleware.RequireRole(middleware.RoleKitchen),
				controllers.ReadyItem)
			authed.POST("/orders/:id/items/:itemId/serve",
				middleware.RequireRole(middleware.RoleWaiter, middleware.RoleKitchen),
				controllers.ServeItem)
			authed.POST("/orders/:id/items/:itemId/cancel",
				middleware.RequireRole(middleware.RoleWaiter, middleware.RoleKitchen),
				controllers.CancelItem)

			authed.GET("/events/stream", controllers.StreamEvents)
		}
	}

	return router
}

// healthCheck handles the health check endpoint
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Comanda API is running",
	})
}

// databaseStatus checks database connectivity and returns table information
func databaseStatus(c *gin.Context) {
	db := config.GetDB()

	// Get the underlying SQL database to check connection
	sqlDB, err := db.DB()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to get database instance",
			},
		})
		return
	}

	// Ping the database to verify connection
	if err := sqlDB.Ping(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_CONNECTION_ERROR",
				"message": "Database connection failed",
			},
		})
		return
	}

	// Get list of tables
	var tables []string
	if err := db.Raw("SELECT tablename FROM pg_tables WHERE schemaname = 'public'").Scan(&tables).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_QUERY_ERROR",
				"message": "Failed to query tables",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Database connected",
		"tables":  tables,
	})
}
