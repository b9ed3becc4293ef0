package router

import (
	"net/http"

	"wallet-backend/internal/app"
	"wallet-backend/internal/config"
	"wallet-backend/internal/handlers"
	"wallet-backend/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// SetupRouter registers every route on a new gin engine
func SetupRouter(cfg *config.Config, container *app.ServiceContainer, logger *logrus.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestMetrics())
	r.Use(middleware.CORS(cfg.CORS))

	if len(cfg.Admin.AllowedIPs) > 0 {
		logger.WithFields(logrus.Fields{
			"allowed_ips": cfg.Admin.AllowedIPs,
			"count":       len(cfg.Admin.AllowedIPs),
		}).Info("Admin API IP whitelist configured")
	} else {
		logger.Info("No admin.allowedIPs configured, using localhost-only mode")
	}
	localhostOnly := middleware.NewLocalhostOnly(logger, cfg.Admin.AllowedIPs)
	adminAuth := middleware.NewAdminAuthMiddleware(logger, cfg.Admin.JWTSecret)

	var chainPinger handlers.Pinger
	if p, ok := container.ChainClient.(handlers.Pinger); ok {
		chainPinger = p
	}
	healthHandler := handlers.NewHealthHandler(container.DB, chainPinger)
	authHandler := handlers.NewAdminAuthHandler(cfg.Admin)
	addressHandler := handlers.NewAddressHandler(container.AddressService)
	transactionHandler := handlers.NewTransactionHandler(container.TransactionService)
	transferHandler := handlers.NewTransferHandler(container.TransferService)
	wsHandler := handlers.NewWebSocketHandler(container.WebSocketPushService)

	// ============ Prometheus Metrics ============
	r.GET("/metrics", localhostOnly.Restrict(), gin.WrapH(promhttp.Handler()))

	// ============ WebSocket ============
	r.GET("/ws/transfers", wsHandler.HandleTransfers)

	api := r.Group("/api")
	{
		api.GET("/health", handlers.HealthCheckHandler)
		api.GET("/healthz", healthHandler.ReadinessHandler)

		api.POST("/auth/login", authHandler.AdminLoginHandler)

		address := api.Group("/address", localhostOnly.Restrict(), adminAuth.RequireAdminAuth())
		{
			address.POST("", addressHandler.GenerateAddressesHandler)
			address.GET("", addressHandler.ListAddressesHandler)
		}

		transaction := api.Group("/transaction")
		{
			transaction.POST("/validate", transactionHandler.ValidateTransactionHandler)
			transaction.GET("", transactionHandler.ListTransactionsHandler)
		}

		transfer := api.Group("/transfer", adminAuth.RequireAdminAuth())
		{
			transfer.POST("", transferHandler.ExecuteTransferHandler)
			transfer.GET("", transferHandler.ListTransfersHandler)
			transfer.GET("/:id", transferHandler.GetTransferHandler)
		}
	}

	// ============ NoRoute handler for 404 ============
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"message": "API endpoint not found",
			"path":    c.Request.URL.Path,
		})
	})

	return r
}
