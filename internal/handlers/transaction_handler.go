package handlers

import (
	"net/http"

	"wallet-backend/internal/dto"
	"wallet-backend/internal/services"

	"github.com/gin-gonic/gin"
)

// TransactionHandler inbound transaction endpoints
type TransactionHandler struct {
	service *services.TransactionService
}

func NewTransactionHandler(service *services.TransactionService) *TransactionHandler {
	return &TransactionHandler{service: service}
}

// ValidateTransactionHandler POST /api/transaction/validate
//
// A rejected transaction is a normal 200 response with valid=false.
func (h *TransactionHandler) ValidateTransactionHandler(c *gin.Context) {
	var req dto.ValidateTransactionRequest
	if !validateRequestBinding(c, &req, "ValidateTransaction") {
		return
	}

	result, err := h.service.Validate(c.Request.Context(), req.TxHash)
	if err != nil {
		respondWithServiceError(c, "ValidateTransaction", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ListTransactionsHandler GET /api/transaction
func (h *TransactionHandler) ListTransactionsHandler(c *gin.Context) {
	transactions, err := h.service.List(c.Request.Context())
	if err != nil {
		respondWithServiceError(c, "ListTransactions", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"transactions": transactions,
		"count":        len(transactions),
	})
}
