package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"wallet-backend/internal/config"
	"wallet-backend/internal/dto"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/pquerna/otp/totp"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

const (
	adminRole   = "admin"
	adminIssuer = "wallet-backend-admin"
)

// AdminAuthHandler 管理员认证处理器
type AdminAuthHandler struct {
	cfg       config.AdminConfig
	jwtSecret []byte
	logger    *logrus.Entry
}

// NewAdminAuthHandler 创建管理员认证处理器
func NewAdminAuthHandler(cfg config.AdminConfig) *AdminAuthHandler {
	logger := logrus.WithField("handler", "admin_auth")
	if cfg.PasswordHash == "" || cfg.TOTPSecret == "" {
		logger.Warn("⚠️ ADMIN_PASSWORD_HASH or ADMIN_TOTP_SECRET not set, admin login is disabled")
	}
	if cfg.JWTSecret == "" {
		logger.Warn("⚠️ ADMIN_JWT_SECRET not set, admin tokens cannot be issued or verified")
	}
	return &AdminAuthHandler{
		cfg:       cfg,
		jwtSecret: []byte(cfg.JWTSecret),
		logger:    logger,
	}
}

// AdminLoginHandler POST /api/auth/login
func (h *AdminAuthHandler) AdminLoginHandler(c *gin.Context) {
	if h.cfg.PasswordHash == "" || h.cfg.TOTPSecret == "" || len(h.jwtSecret) == 0 {
		c.JSON(http.StatusInternalServerError, dto.AdminLoginResponse{
			Success: false,
			Message: "Server misconfiguration: admin credentials not set",
		})
		return
	}

	var req dto.AdminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.AdminLoginResponse{
			Success: false,
			Message: fmt.Sprintf("Invalid request: %v", err),
		})
		return
	}

	// 故意使用通用的错误消息
	if req.Username != h.cfg.Username ||
		bcrypt.CompareHashAndPassword([]byte(h.cfg.PasswordHash), []byte(req.Password)) != nil {
		h.logger.WithFields(logrus.Fields{
			"username":  req.Username,
			"client_ip": c.ClientIP(),
		}).Warn("Admin login rejected")
		c.JSON(http.StatusUnauthorized, dto.AdminLoginResponse{
			Success: false,
			Message: "Invalid credentials",
		})
		return
	}

	if !totp.Validate(req.TOTPCode, h.cfg.TOTPSecret) {
		c.JSON(http.StatusUnauthorized, dto.AdminLoginResponse{
			Success: false,
			Message: "Invalid TOTP code",
		})
		return
	}

	ttl := time.Duration(h.cfg.TokenTTLMins) * time.Minute
	token, err := GenerateAdminJWTToken(h.jwtSecret, req.Username, ttl)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.AdminLoginResponse{
			Success: false,
			Message: "Failed to generate token",
		})
		return
	}

	h.logger.WithField("username", req.Username).Info("✅ Admin logged in")
	c.JSON(http.StatusOK, dto.AdminLoginResponse{
		Success: true,
		Token:   token,
		Message: "Login successful",
	})
}

// GenerateAdminJWTToken 生成管理员 JWT token
func GenerateAdminJWTToken(secret []byte, username string, ttl time.Duration) (string, error) {
	if len(secret) == 0 {
		return "", errors.New("jwt secret is empty")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	now := time.Now()
	claims := dto.AdminJWTClaims{
		Username: username,
		Role:     adminRole,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    adminIssuer,
			Subject:   username,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

// ValidateAdminJWTToken 验证管理员 JWT token
func ValidateAdminJWTToken(secret []byte, tokenString string) (*dto.AdminJWTClaims, error) {
	if len(secret) == 0 {
		return nil, errors.New("jwt secret is empty")
	}

	token, err := jwt.ParseWithClaims(tokenString, &dto.AdminJWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	}, jwt.WithIssuer(adminIssuer))
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if claims, ok := token.Claims.(*dto.AdminJWTClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}

// IsAdmin reports whether the claims carry the admin role
func IsAdmin(claims *dto.AdminJWTClaims) bool {
	return claims != nil && claims.Role == adminRole
}
