package middleware

import (
	"net/http"
	"strings"

	"wallet-backend/internal/handlers"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// AdminAuthMiddleware 管理员认证中间件
type AdminAuthMiddleware struct {
	logger    *logrus.Logger
	jwtSecret []byte
}

// NewAdminAuthMiddleware 创建管理员认证中间件
func NewAdminAuthMiddleware(logger *logrus.Logger, jwtSecret string) *AdminAuthMiddleware {
	return &AdminAuthMiddleware{
		logger:    logger,
		jwtSecret: []byte(jwtSecret),
	}
}

// RequireAdminAuth 要求管理员认证
func (a *AdminAuthMiddleware) RequireAdminAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		fields := logrus.Fields{
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			a.logger.WithFields(fields).Warn("Admin auth failed - missing Authorization header")
			a.reject(c, http.StatusUnauthorized, "Authentication required", "MISSING_AUTH_HEADER")
			return
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			a.logger.WithFields(fields).Warn("Admin auth failed - invalid Authorization format")
			a.reject(c, http.StatusUnauthorized, "Invalid authorization format, need Bearer token", "INVALID_AUTH_FORMAT")
			return
		}

		tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if tokenString == "" {
			a.logger.WithFields(fields).Warn("Admin auth failed - empty token")
			a.reject(c, http.StatusUnauthorized, "Empty token", "EMPTY_TOKEN")
			return
		}

		claims, err := handlers.ValidateAdminJWTToken(a.jwtSecret, tokenString)
		if err != nil {
			a.logger.WithFields(fields).WithError(err).Warn("Admin auth failed - invalid token")
			a.reject(c, http.StatusUnauthorized, "Invalid or expired token", "INVALID_TOKEN")
			return
		}

		if !handlers.IsAdmin(claims) {
			a.logger.WithFields(fields).WithField("role", claims.Role).Warn("Admin auth failed - insufficient permissions")
			a.reject(c, http.StatusForbidden, "Insufficient permissions", "INSUFFICIENT_PERMISSIONS")
			return
		}

		c.Set("admin_username", claims.Username)
		c.Set("admin_role", claims.Role)

		c.Next()
	}
}

func (a *AdminAuthMiddleware) reject(c *gin.Context, status int, message, code string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"error":   message,
		"code":    code,
	})
}
