package api

import (
	"net/http"

	"github.com/Domenick1991/healthtrip/internal/logger"
	"github.com/gin-gonic/gin"
)

// NewRouter mounts every handler under /api/v1.
func NewRouter(flights *FlightHandler, bookings *BookingHandler, reminders *ReminderHandler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")
	flights.Register(v1.Group("/flights"))
	bookings.Register(v1.Group("/bookings"))
	reminders.Register(v1.Group("/reminders"))
	return router
}

func requestLogger() gin.HandlerFunc {
	log := logger.With("http")
	return func(c *gin.Context) {
		c.Next()
		log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Msg("request")
	}
}
