package api

import (
	"errors"
	"net/http"

	"github.com/Domenick1991/healthtrip/internal/domain"
	"github.com/Domenick1991/healthtrip/internal/logger"
	"github.com/gin-gonic/gin"
)

// statusFor maps domain errors to HTTP status codes. Unknown errors are 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrCapacityExhausted),
		errors.Is(err, domain.ErrConcurrencyConflict),
		errors.Is(err, domain.ErrReleaseExceedsCapacity),
		errors.Is(err, domain.ErrFlightDeparted),
		errors.Is(err, domain.ErrBookingNotPending),
		errors.Is(err, domain.ErrBookingStateChanged):
		return http.StatusConflict
	case errors.Is(err, domain.ErrFlightNotFound),
		errors.Is(err, domain.ErrBookingNotFound),
		errors.Is(err, domain.ErrReminderNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidSeatCount),
		errors.Is(err, domain.ErrInvalidFlight),
		errors.Is(err, domain.ErrInvalidBooking),
		errors.Is(err, domain.ErrInvalidReminder):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
