package routes

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"eventhub/models"
)

// GET /api/events
func (h *handlers) getEvents(c *gin.Context) {
	events, err := h.store.GetAllEvents(c.Request.Context())
	if err != nil {
		h.log.Error("Error fetching events", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch events"})
		return
	}
	c.JSON(http.StatusOK, events)
}

// GET /api/events/:id
func (h *handlers) getEvent(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid event id"})
		return
	}

	event, ok, err := h.store.GetEvent(c.Request.Context(), id)
	if err != nil {
		h.log.Error("Error fetching event", zap.Int64("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch event"})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "Event not found"})
		return
	}
	c.JSON(http.StatusOK, event)
}

// POST /api/events
func (h *handlers) createEvent(c *gin.Context) {
	var in models.InsertEvent
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"message": "Invalid event data",
			"errors":  []models.FieldError{{Field: "body", Message: "Request body must be a JSON event object"}},
		})
		return
	}

	if errs := models.ValidateInsertEvent(in); len(errs) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid event data", "errors": errs})
		return
	}

	// 業務規則：date+time 必須嚴格晚於現在
	startsAt, err := in.StartsAt(h.loc)
	if err != nil || !startsAt.After(h.now()) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Event date and time must be in the future"})
		return
	}

	ctx := c.Request.Context()
	event, err := h.store.CreateEvent(ctx, in)
	if err != nil {
		h.log.Error("Error creating event", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to create event"})
		return
	}

	// 建立後：清列表快取（含 .ics）與單筆快取
	if h.inv != nil {
		if err := h.inv.PurgeEventsList(ctx); err != nil {
			h.log.Warn("purge events list cache", zap.Error(err))
		}
		if err := h.inv.PurgeEventItem(ctx, strconv.FormatInt(event.ID, 10)); err != nil {
			h.log.Warn("purge event item cache", zap.Int64("id", event.ID), zap.Error(err))
		}
	}

	h.log.Info("event created", zap.Int64("id", event.ID), zap.String("date", event.Date), zap.String("time", event.Time))
	c.JSON(http.StatusCreated, event)
}
