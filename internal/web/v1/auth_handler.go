package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/duynhne/callerid-service/internal/core/domain"
	logicv1 "github.com/duynhne/callerid-service/internal/logic/v1"
	"github.com/duynhne/callerid-service/middleware"
)

// AuthHandler handles registration and token endpoints
type AuthHandler struct {
	service *logicv1.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(service *logicv1.AuthService) *AuthHandler {
	return &AuthHandler{service: service}
}

// Register handles POST /auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	span := startRequestSpan(c)
	defer span.End()
	logger := middleware.GetLoggerFromGinContext(c)

	var req domain.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.SetAttributes(attribute.Bool("request.valid", false))
		logger.Info("Invalid registration request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": sanitizeValidationError(err)})
		return
	}

	account, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, span, logger, "Failed to register account", err)
		return
	}

	logger.Info("Account registered", zap.Int64("account_id", account.ID))
	c.JSON(http.StatusCreated, gin.H{
		"message":  "User registered successfully",
		"username": account.Username,
	})
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	span := startRequestSpan(c)
	defer span.End()
	logger := middleware.GetLoggerFromGinContext(c)

	var req domain.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": sanitizeValidationError(err)})
		return
	}

	tokens, err := h.service.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondError(c, span, logger, "Login failed", err)
		return
	}
	c.JSON(http.StatusOK, tokens)
}

// Refresh handles POST /auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	span := startRequestSpan(c)
	defer span.End()
	logger := middleware.GetLoggerFromGinContext(c)

	var req domain.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": sanitizeValidationError(err)})
		return
	}

	tokens, err := h.service.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		respondError(c, span, logger, "Token refresh failed", err)
		return
	}
	c.JSON(http.StatusOK, tokens)
}
