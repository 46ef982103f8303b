package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lumenpay/wallet-api/internal/balance"
	"github.com/lumenpay/wallet-api/internal/dispatch"
	"github.com/lumenpay/wallet-api/internal/logger"
	"github.com/lumenpay/wallet-api/internal/session"
)

// CommonServices holds common dependencies used across handlers
type CommonServices struct {
	sessions   *session.Manager
	dispatcher *dispatch.Dispatcher
	gate       *balance.Gate
	assets     *balance.Registry
}

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// SuccessResponse represents a standard success response
type SuccessResponse struct {
	Message string `json:"message"`
}

// NewCommonServices creates a new instance of CommonServices
func NewCommonServices(sessions *session.Manager, dispatcher *dispatch.Dispatcher, gate *balance.Gate, assets *balance.Registry) *CommonServices {
	return &CommonServices{
		sessions:   sessions,
		dispatcher: dispatcher,
		gate:       gate,
		assets:     assets,
	}
}

// sendError is a helper function that combines logging and error response
// It logs the error with the given message and sends a JSON error response
func sendError(c *gin.Context, statusCode int, message string, err error) {
	logger.Error(message,
		zap.Error(err),
		zap.String("path", c.Request.URL.Path),
		zap.String("method", c.Request.Method),
	)
	c.JSON(statusCode, ErrorResponse{Error: message})
}

// sendSuccess is a helper function that sends a success response
func sendSuccess(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, data)
}

// sendSuccessMessage is a helper function that sends a success message
func sendSuccessMessage(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, SuccessResponse{Message: message})
}

// requireUserID pulls the authenticated user id set by RequireUser. A missing
// id means the middleware was bypassed; treat it as unauthorized.
func requireUserID(c *gin.Context) (string, bool) {
	userID := c.GetString("userID")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Missing user identity"})
		return "", false
	}
	return userID, true
}
