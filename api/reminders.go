package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/Domenick1991/healthtrip/internal/domain"
	"github.com/Domenick1991/healthtrip/internal/service/reminder"
	"github.com/gin-gonic/gin"
)

type ReminderHandler struct {
	service reminder.ReminderUseCase
}

type trackResponseRequest struct {
	Action string `json:"action" binding:"required"`
}

func NewReminderHandler(service reminder.ReminderUseCase) *ReminderHandler {
	return &ReminderHandler{service: service}
}

func (h *ReminderHandler) Register(router *gin.RouterGroup) {
	router.POST("/quote", h.createQuote)
	router.POST("/quote-expiring", h.createQuoteExpiring)
	router.POST("/lead", h.createLead)
	router.GET("/:id", h.get)
	router.DELETE("/:id", h.cancel)
	router.POST("/:id/response", h.trackResponse)
	router.GET("/user/:userID", h.listByUser)
	router.GET("/pending/:type", h.listPending)
	router.GET("/stats/:type", h.statistics)
}

func (h *ReminderHandler) createQuote(c *gin.Context) {
	var req reminder.QuoteReminderInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.created(c, func() (*domain.Reminder, error) { return h.service.CreateQuoteReminder(c.Request.Context(), req) })
}

func (h *ReminderHandler) createQuoteExpiring(c *gin.Context) {
	var req reminder.QuoteExpiringInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.created(c, func() (*domain.Reminder, error) { return h.service.CreateQuoteExpiringReminder(c.Request.Context(), req) })
}

func (h *ReminderHandler) createLead(c *gin.Context) {
	var req reminder.LeadFollowUpInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.created(c, func() (*domain.Reminder, error) { return h.service.CreateLeadFollowUp(c.Request.Context(), req) })
}

func (h *ReminderHandler) created(c *gin.Context, create func() (*domain.Reminder, error)) {
	r, err := create()
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toReminderResponse(r))
}

func (h *ReminderHandler) get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	r, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toReminderResponse(r))
}

func (h *ReminderHandler) cancel(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	r, err := h.service.Cancel(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toReminderResponse(r))
}

func (h *ReminderHandler) trackResponse(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req trackResponseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.service.TrackResponse(c.Request.Context(), id, req.Action); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ReminderHandler) listByUser(c *gin.Context) {
	userID, ok := pathID(c, "userID")
	if !ok {
		return
	}
	list, err := h.service.ListByUser(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toReminderResponses(list))
}

func (h *ReminderHandler) listPending(c *gin.Context) {
	reminderType, ok := pathType(c)
	if !ok {
		return
	}
	list, err := h.service.ListPendingByType(c.Request.Context(), reminderType)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toReminderResponses(list))
}

func (h *ReminderHandler) statistics(c *gin.Context) {
	reminderType, ok := pathType(c)
	if !ok {
		return
	}
	stats, err := h.service.Statistics(c.Request.Context(), reminderType)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}

func pathType(c *gin.Context) (domain.ReminderType, bool) {
	reminderType := domain.ReminderType(strings.ToUpper(c.Param("type")))
	if !reminderType.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown reminder type"})
		return "", false
	}
	return reminderType, true
}
