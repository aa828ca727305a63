package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"ludo-stakes-backend/internal/models"
)

// respondError maps the service sentinels onto HTTP statuses. Anything not
// recognized is a 500 with a generic message; the detail stays in the logs.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrInvalidAmount),
		errors.Is(err, models.ErrInvalidInput),
		errors.Is(err, models.ErrInvalidPiece):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrInsufficientFunds),
		errors.Is(err, models.ErrWalletLocked):
		c.JSON(http.StatusPaymentRequired, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrAlreadyQueued),
		errors.Is(err, models.ErrAlreadyStarted),
		errors.Is(err, models.ErrAlreadyCompleted),
		errors.Is(err, models.ErrAlreadyProcessed),
		errors.Is(err, models.ErrDeviceConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrNotQueued),
		errors.Is(err, models.ErrUnknownStake),
		errors.Is(err, models.ErrGameNotActive),
		errors.Is(err, models.ErrNotYourTurn),
		errors.Is(err, models.ErrRollRequired),
		errors.Is(err, models.ErrMoveRequired):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrNotParticipant),
		errors.Is(err, models.ErrAccountDeactivated):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrInvalidOTP):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
	}
}
