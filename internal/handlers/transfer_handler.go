package handlers

import (
	"net/http"

	"wallet-backend/internal/dto"
	"wallet-backend/internal/services"

	"github.com/gin-gonic/gin"
)

// TransferHandler outbound transfer endpoints
type TransferHandler struct {
	service *services.TransferService
}

func NewTransferHandler(service *services.TransferService) *TransferHandler {
	return &TransferHandler{service: service}
}

// ExecuteTransferHandler POST /api/transfer
// Blocks until the transaction is mined or the receipt wait times out.
func (h *TransferHandler) ExecuteTransferHandler(c *gin.Context) {
	var req dto.TransferRequest
	if !validateRequestBinding(c, &req, "ExecuteTransfer") {
		return
	}

	result, err := h.service.Execute(c.Request.Context(), services.TransferRequest{
		From:       req.FromAddress,
		PrivateKey: req.PrivateKey,
		To:         req.ToAddress,
		Asset:      req.Asset,
		Amount:     req.Amount.String(),
	})
	if err != nil {
		respondWithServiceError(c, "ExecuteTransfer", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ListTransfersHandler GET /api/transfer
func (h *TransferHandler) ListTransfersHandler(c *gin.Context) {
	transfers, err := h.service.List(c.Request.Context())
	if err != nil {
		respondWithServiceError(c, "ListTransfers", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"transfers": transfers,
		"count":     len(transfers),
	})
}

// GetTransferHandler GET /api/transfer/:id
func (h *TransferHandler) GetTransferHandler(c *gin.Context) {
	transfer, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondWithServiceError(c, "GetTransfer", err)
		return
	}
	c.JSON(http.StatusOK, transfer)
}
