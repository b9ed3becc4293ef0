package handlers

import (
	"net/http"

	"wallet-backend/internal/dto"
	"wallet-backend/internal/services"

	"github.com/gin-gonic/gin"
)

// AddressHandler whitelist address endpoints
type AddressHandler struct {
	service *services.AddressService
}

func NewAddressHandler(service *services.AddressService) *AddressHandler {
	return &AddressHandler{service: service}
}

// GenerateAddressesHandler POST /api/address
func (h *AddressHandler) GenerateAddressesHandler(c *gin.Context) {
	var req dto.GenerateAddressRequest
	if !validateRequestBinding(c, &req, "GenerateAddresses") {
		return
	}

	generated, err := h.service.Generate(c.Request.Context(), req.Quantity)
	if err != nil {
		respondWithServiceError(c, "GenerateAddresses", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"addresses": generated,
		"count":     len(generated),
	})
}

// ListAddressesHandler GET /api/address
func (h *AddressHandler) ListAddressesHandler(c *gin.Context) {
	addresses, err := h.service.List(c.Request.Context())
	if err != nil {
		respondWithServiceError(c, "ListAddresses", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"addresses": addresses,
		"count":     len(addresses),
	})
}
