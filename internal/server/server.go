// Package server wires the HTTP surface: handler construction, route
// registration and CORS. All domain dependencies are built in cmd/api and
// handed in, so tests can register the same routes over fakes.
package server

import (
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/lumenpay/wallet-api/internal/handlers"
)

// Handler Definitions
var (
	walletHandler   *handlers.WalletHandler
	transferHandler *handlers.TransferHandler
)

// InitializeHandlers builds the API handlers over the shared services.
func InitializeHandlers(common *handlers.CommonServices) {
	walletHandler = handlers.NewWalletHandler(common)
	transferHandler = handlers.NewTransferHandler(common)
}

// InitializeRoutes registers middleware and the API v1 routes on the router.
func InitializeRoutes(router *gin.Engine) {
	// Configure and apply CORS middleware
	router.Use(configureCORS())
	router.Use(handlers.RequestID())

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})

	// if we are not in production, log the request body
	if os.Getenv("GIN_MODE") != "release" {
		router.Use(handlers.LogRequest())
	}

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// All wallet routes act on the caller's own wallet
		protected := v1.Group("/")
		protected.Use(handlers.RequireUser())
		{
			wallets := protected.Group("/wallets")
			{
				wallets.POST("", walletHandler.CreateWallet)
				wallets.POST("/restore", walletHandler.RestoreWallet)
				wallets.DELETE("", walletHandler.ResetWallet)
				wallets.GET("/balances", walletHandler.GetBalances)
			}

			transfers := protected.Group("/transfers")
			{
				transfers.POST("", transferHandler.CreateTransfer)
			}
		}
	}
}

// configureCORS returns a configured CORS middleware
func configureCORS() gin.HandlerFunc {
	corsConfig := cors.DefaultConfig()

	// Get allowed origins from environment variable
	originsEnv := os.Getenv("CORS_ALLOWED_ORIGINS")
	if originsEnv == "" {
		// Default to localhost if not set
		corsConfig.AllowOrigins = []string{"http://localhost:3000"}
	} else {
		// Split and trim the origins
		origins := strings.Split(originsEnv, ",")
		for i, origin := range origins {
			origins[i] = strings.TrimSpace(origin)
		}
		corsConfig.AllowOrigins = origins
	}

	// Get allowed methods from environment variable
	methodsEnv := os.Getenv("CORS_ALLOWED_METHODS")
	if methodsEnv == "" {
		corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	} else {
		methods := strings.Split(methodsEnv, ",")
		for i, method := range methods {
			methods[i] = strings.TrimSpace(method)
		}
		corsConfig.AllowMethods = methods
	}

	// Get allowed headers from environment variable
	headersEnv := os.Getenv("CORS_ALLOWED_HEADERS")
	if headersEnv == "" {
		corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", "X-User-Id"}
	} else {
		headers := strings.Split(headersEnv, ",")
		for i, header := range headers {
			headers[i] = strings.TrimSpace(header)
		}
		corsConfig.AllowHeaders = headers
	}

	corsConfig.AllowCredentials = true
	corsConfig.MaxAge = 12 * time.Hour

	return cors.New(corsConfig)
}
