package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/Domenick1991/healthtrip/internal/domain"
	"github.com/Domenick1991/healthtrip/internal/service/flights"
	"github.com/gin-gonic/gin"
)

// CapacityChecker answers advisory seat questions without holding seats.
type CapacityChecker interface {
	HasCapacity(ctx context.Context, flightID int64, count int) (bool, error)
}

type FlightHandler struct {
	service  flights.FlightUseCase
	capacity CapacityChecker
}

func NewFlightHandler(service flights.FlightUseCase, capacity CapacityChecker) *FlightHandler {
	return &FlightHandler{service: service, capacity: capacity}
}

func (h *FlightHandler) Register(router *gin.RouterGroup) {
	router.GET("/", h.list)
	router.POST("/", h.create)
	router.GET("/:id", h.get)
	router.GET("/:id/availability", h.availability)
}

// list accepts optional from, to and min_seats filters. min_seats keeps only
// bookable pools with at least that many seats left at read time.
func (h *FlightHandler) list(c *gin.Context) {
	from := strings.ToUpper(strings.TrimSpace(c.Query("from")))
	to := strings.ToUpper(strings.TrimSpace(c.Query("to")))
	minSeats := 0
	if raw := c.Query("min_seats"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "min_seats must be a positive integer"})
			return
		}
		minSeats = n
	}

	list, err := h.service.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	resp := make([]flightResponse, 0, len(list))
	for i := range list {
		f := &list[i]
		if from != "" && f.FromAirport != from {
			continue
		}
		if to != "" && f.ToAirport != to {
			continue
		}
		if minSeats > 0 && !f.HasCapacity(minSeats) {
			continue
		}
		resp = append(resp, toFlightResponse(f))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *FlightHandler) get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	flight, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toFlightResponse(flight))
}

func (h *FlightHandler) create(c *gin.Context) {
	var req flights.CreateFlightInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	flight, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toFlightResponse(flight))
}

type availabilityResponse struct {
	FlightID  int64 `json:"flight_id"`
	Seats     int   `json:"seats"`
	Available bool  `json:"available"`
}

func (h *FlightHandler) availability(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	count := 1
	if raw := c.Query("seats"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(c, domain.ErrInvalidSeatCount)
			return
		}
		count = n
	}
	available, err := h.capacity.HasCapacity(c.Request.Context(), id, count)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, availabilityResponse{FlightID: id, Seats: count, Available: available})
}
