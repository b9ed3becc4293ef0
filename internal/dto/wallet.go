package dto

import (
	"encoding/json"

	"github.com/golang-jwt/jwt/v5"
)

// ==================== Address DTOs ====================

// GenerateAddressRequest address generation request
type GenerateAddressRequest struct {
	Quantity int `json:"quantity" binding:"required,min=1,max=100"`
}

// ==================== Transaction DTOs ====================

// ValidateTransactionRequest inbound transaction validation request
type ValidateTransactionRequest struct {
	TxHash string `json:"tx_hash" binding:"required"`
}

// ==================== Transfer DTOs ====================

// TransferRequest outbound transfer request. Amount accepts a JSON number or a numeric string.
type TransferRequest struct {
	FromAddress string      `json:"from_address" binding:"required"`
	PrivateKey  string      `json:"private_key" binding:"required"`
	ToAddress   string      `json:"to_address" binding:"required"`
	Asset       string      `json:"asset" binding:"required"`
	Amount      json.Number `json:"amount" binding:"required"`
}

// ==================== Admin auth DTOs ====================

// AdminLoginRequest admin login request
type AdminLoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	TOTPCode string `json:"totp_code" binding:"required"`
}

// AdminLoginResponse admin login response
type AdminLoginResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token,omitempty"`
	Message string `json:"message"`
}

// AdminJWTClaims admin JWT claims
type AdminJWTClaims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// ErrorResponse unified error body
type ErrorResponse struct {
	Error   string      `json:"error"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}
