package handlers

import (
	"net/http"

	"wallet-backend/internal/services"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
)

// WebSocketHandler streams transfer and validation events
type WebSocketHandler struct {
	pushService *services.WebSocketPushService
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(pushService *services.WebSocketPushService) *WebSocketHandler {
	return &WebSocketHandler{pushService: pushService}
}

// HandleTransfers GET /ws/transfers[?address=0x...]
// Without an address the client receives every event.
func (h *WebSocketHandler) HandleTransfers(c *gin.Context) {
	address := c.Query("address")
	if address != "" && !common.IsHexAddress(address) {
		respondWithError(c, http.StatusBadRequest, "Invalid request parameters", "address must be a hex address", nil)
		return
	}
	h.pushService.HandleWebSocket(c.Writer, c.Request, address)
}
