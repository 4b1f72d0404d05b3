package http

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/walletgate/walletgate/adapters/registry"
	"github.com/walletgate/walletgate/service"
)

// SetupRouter sets up the Gin router.
func SetupRouter(
	auth *service.AuthService,
	registration *service.RegistrationService,
	reg *registry.MemoryRegistry,
	logger *slog.Logger,
) *gin.Engine {
	router := gin.Default()

	handlers := NewAuthHandlers(auth, registration)
	sessions := NewSessionHandler(reg, logger)

	// Real-time session transport
	router.GET("/ws", sessions.Connect)

	// Auth routes
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/wallet-login", handlers.WalletLogin)
		authGroup.POST("/logout", handlers.Logout)
	}

	// Registration routes
	identities := router.Group("/identities")
	{
		identities.POST("", handlers.Register)
		identities.POST("/check", handlers.CheckUnique)
	}

	// Protected API routes
	api := router.Group("/api")
	api.Use(AuthMiddleware(auth))
	{
		api.GET("/me", handlers.Me)
		api.PUT("/me/wallet", handlers.SetWallet)
	}

	return router
}
