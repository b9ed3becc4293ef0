// Package handlers provides the HTTP handlers of the wallet API
package handlers

import (
	"errors"
	"net/http"

	"wallet-backend/internal/dto"
	"wallet-backend/internal/repository"
	"wallet-backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// respondWithError unified error response function
func respondWithError(c *gin.Context, statusCode int, errorType, message string, details interface{}) {
	c.JSON(statusCode, dto.ErrorResponse{
		Error:   errorType,
		Message: message,
		Details: details,
	})
}

// respondWithServiceError maps service errors to HTTP status codes
func respondWithServiceError(c *gin.Context, operation string, err error) {
	var validationErr *services.ValidationError
	var chainErr *services.ChainError

	switch {
	case errors.As(err, &validationErr):
		respondWithError(c, http.StatusBadRequest, "Invalid request", validationErr.Message, gin.H{"field": validationErr.Field})
	case errors.Is(err, repository.ErrTransferNotFound):
		respondWithError(c, http.StatusNotFound, "Not found", err.Error(), nil)
	case errors.As(err, &chainErr):
		logError(operation, "chain request failed", err)
		respondWithError(c, http.StatusBadGateway, "Chain error", chainErr.Error(), nil)
	default:
		logError(operation, "internal error", err)
		respondWithError(c, http.StatusInternalServerError, "Internal error", err.Error(), nil)
	}
}

// validateRequestBinding unified request binding validation function
func validateRequestBinding(c *gin.Context, req interface{}, operation string) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		logrus.WithField("operation", operation).WithError(err).Warn("Request parameter validation failed")
		respondWithError(c, http.StatusBadRequest, "Invalid request parameters", err.Error(), nil)
		return false
	}
	return true
}

func logError(operation, message string, err error) {
	logrus.WithFields(logrus.Fields{
		"operation": operation,
	}).WithError(err).Errorf("❌ %s", message)
}
