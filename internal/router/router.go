// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/c13agent/aaas-backend/internal/blockchain"
	"github.com/c13agent/aaas-backend/internal/config"
	"github.com/c13agent/aaas-backend/internal/handlers"
	"github.com/c13agent/aaas-backend/internal/middleware"
	"github.com/c13agent/aaas-backend/internal/moltbook"
	"github.com/c13agent/aaas-backend/internal/services"
)

func Initialize(db *gorm.DB, cfg *config.Config) *gin.Engine {
	// Initialize infrastructure clients
	blockchainService, err := blockchain.NewService(cfg.Blockchain)
	if err != nil {
		logrus.WithError(err).Fatal("failed to initialize blockchain service")
	}
	storageService, err := services.NewStorageService(cfg.Storage)
	if err != nil {
		logrus.WithError(err).Fatal("failed to initialize storage service")
	}
	moltbookClient := moltbook.NewClient(cfg.Moltbook)

	// Initialize services
	productService := services.NewProductService(db, blockchainService)
	orderService := services.NewOrderService(services.NewGormOrderStore(db), blockchainService, storageService)
	syncService := services.NewSyncService(services.NewGormSyncStore(db), moltbookClient, cfg.Moltbook)
	userService := services.NewUserService(db)

	// Initialize handlers
	productHandler := handlers.NewProductHandler(productService)
	orderHandler := handlers.NewOrderHandler(orderService)
	skillHandler := handlers.NewSkillHandler(productService, cfg)
	syncHandler := handlers.NewSyncHandler(syncService)
	userHandler := handlers.NewUserHandler(userService)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Wallet-Address"},
		AllowCredentials: false,
	}))
	r.Use(middleware.GeneralRateLimit())

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	// API v1 routes
	v1 := r.Group("/v1")
	{
		products := v1.Group("/products")
		{
			products.GET("", productHandler.GetProducts)
			products.GET("/:id", productHandler.GetProduct)

			protected := products.Group("")
			protected.Use(middleware.RequireWallet())
			{
				protected.POST("", productHandler.CreateProduct)
				protected.PUT("/:id", productHandler.UpdateProduct)
				protected.PUT("/:id/status", productHandler.UpdateProductStatus)
				protected.POST("/:id/activate", productHandler.ActivateProduct)
				protected.DELETE("/:id", productHandler.DeleteProduct)
			}
		}

		orders := v1.Group("/orders")
		{
			orders.POST("/settle", middleware.SettlementRateLimit(), orderHandler.RecordSettlement)
			orders.GET("/:orderId/status", orderHandler.GetOrderStatus)
		}

		sellers := v1.Group("/sellers")
		{
			sellers.GET("/:wallet/products", productHandler.GetSellerProducts)
			sellers.GET("/:wallet/orders", orderHandler.GetSellerOrders)
		}

		buyers := v1.Group("/buyers")
		{
			buyers.GET("/:wallet/orders", orderHandler.GetBuyerOrders)
		}

		skills := v1.Group("/skills")
		skills.Use(middleware.SkillRateLimit())
		{
			skills.GET("/:productId", skillHandler.GetSkill)
		}

		users := v1.Group("/users")
		{
			users.POST("/claim", userHandler.ClaimDisplayName)
			users.GET("/:wallet", userHandler.GetUser)
		}

		sync := v1.Group("/sync")
		sync.Use(middleware.RequireCronSecret(cfg.Cron))
		{
			sync.POST("/moltbook", syncHandler.SyncMoltbook)
			sync.GET("/moltbook", syncHandler.SyncMoltbook)
		}
	}

	return r
}
