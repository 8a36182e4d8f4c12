package main

import (
	"fmt"
	"net/http"
	"os"

	"vpe/internal/cache"
	"vpe/internal/config"
	"vpe/internal/database"
	"vpe/internal/handlers"
	"vpe/internal/logger"
	"vpe/internal/middleware"
	"vpe/internal/services"
	"vpe/internal/validator"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "vpe/internal/docs" // Import swagger docs
)

// @title           VPE API
// @version         1.0
// @description     VPE is an investment marketplace that connects investors to companies looking for funding.
// @termsOfService  http://swagger.io/terms/

// @host      localhost:3000
// @BasePath  /api

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Register custom validation rules on gin's binding validator
	validator.Register()

	// Initialize database configuration
	dbConfig, err := database.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}

	// Create database manager
	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}

	// Run migrations
	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	// Optional Redis cache for the status counters
	statusCache := cache.New(appConfig.RedisAddr, appConfig.RedisPassword)

	// Initialize services
	db := dbManager.DB()
	userService := services.NewUserService(db, statusCache)
	companyService := services.NewCompanyService(db, statusCache)
	favoriteService := services.NewFavoriteService(db, statusCache)
	statusService := services.NewStatusService(db, statusCache)
	emailService := services.NewEmailService(appConfig)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService, emailService)
	userHandler := handlers.NewUserHandler(userService)
	companyHandler := handlers.NewCompanyHandler(companyService, emailService)
	favoriteHandler := handlers.NewFavoriteHandler(favoriteService)
	statusHandler := handlers.NewStatusHandler(statusService)

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Uploaded company images
	router.Static(handlers.ImageRoutePrefix, appConfig.UploadDir)

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API group
	api := router.Group("/api")

	// Public routes
	api.POST("/usuarios", authHandler.Register)
	api.POST("/login", authHandler.Login)
	api.GET("/status", statusHandler.GetStatus)
	api.GET("/empresas", middleware.OptionalAuth(userService), companyHandler.ListCompanies)
	api.GET("/empresas/:id", middleware.OptionalAuth(userService), companyHandler.GetCompany)
	api.GET("/empresas/:id/dados-financeiros", companyHandler.GetFinancialRecords)

	// Protected routes
	protected := api.Group("/")
	protected.Use(middleware.RequireAuth(userService))

	// Session
	protected.GET("/verify-token", authHandler.VerifyToken)
	protected.POST("/refresh-token", authHandler.RefreshToken)
	protected.POST("/logout", authHandler.Logout)

	// Users
	protected.GET("/usuarios", middleware.RequireRole("admin"), userHandler.ListUsers)
	protected.GET("/usuarios/:id", userHandler.GetUser)
	protected.PUT("/usuarios/:id", userHandler.UpdateUser)
	protected.DELETE("/usuarios/:id", userHandler.DeleteUser)

	// Companies
	protected.POST("/empresas", companyHandler.CreateCompany)
	protected.PUT("/empresas/:id", companyHandler.UpdateCompany)
	protected.DELETE("/empresas/:id", companyHandler.DeleteCompany)
	protected.POST("/empresas/:id/dados-financeiros", companyHandler.AddFinancialRecords)
	protected.POST("/empresas/:id/upload", companyHandler.UploadImage)

	// Favorites
	protected.POST("/favoritos", favoriteHandler.AddFavorite)
	protected.GET("/favoritos", favoriteHandler.ListFavorites)
	protected.DELETE("/favoritos/:empresaId", favoriteHandler.RemoveFavorite)

	log.Infof("Starting VPE backend server on port %s", appConfig.Port)
	log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}
