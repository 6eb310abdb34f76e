package routes

import (
	"net/http"
	"strconv"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"eventhub/models"
)

// 同一個 event id 每次匯出都得到同一個 UID
var eventUIDSpace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://eventhub/events"))

// GET /api/events.ics
func (h *handlers) getCalendar(c *gin.Context) {
	events, err := h.store.GetAllEvents(c.Request.Context())
	if err != nil {
		h.log.Error("Error fetching events for calendar", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch events"})
		return
	}
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(BuildCalendar(events, h.loc)))
}

// BuildCalendar renders events as an iCalendar document in the given order.
// Events whose date or time cannot be parsed are left out.
func BuildCalendar(events []models.Event, loc *time.Location) string {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//eventhub//events//EN")

	for _, e := range events {
		startsAt, err := e.Insert().StartsAt(loc)
		if err != nil {
			continue
		}
		uid := uuid.NewSHA1(eventUIDSpace, []byte(strconv.FormatInt(e.ID, 10))).String()

		ve := cal.AddEvent(uid)
		ve.SetCreatedTime(e.CreatedAt)
		ve.SetDtStampTime(e.CreatedAt)
		ve.SetStartAt(startsAt)
		ve.SetSummary(e.Name)
		ve.SetLocation(e.Location)
		if e.Description != nil && *e.Description != "" {
			ve.SetDescription(*e.Description)
		}
	}
	return cal.Serialize()
}
