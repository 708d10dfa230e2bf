package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"clubhub/internal/lifecycle"
)

type createEventRequest struct {
	Title          string `json:"title" binding:"required"`
	Description    string `json:"description"`
	Date           string `json:"date"`
	VenueRequestID string `json:"venueRequestId" binding:"required"`
}

type venueRequestBody struct {
	Venue       string `json:"venue" binding:"required"`
	EventName   string `json:"eventName" binding:"required"`
	EventDate   string `json:"eventDate" binding:"required"`
	TimeFrom    string `json:"timeFrom"`
	TimeTo      string `json:"timeTo"`
	Description string `json:"description"`
}

var dateLayouts = []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02"}

// parseDate accepts full timestamps as well as the bare dates sent by
// HTML date inputs.
func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func invalidDate(c *gin.Context, field string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
		"message": "Validation failed",
		"errors":  map[string]string{field: "datetime"},
	})
}

func (h *Handler) notifications(c *gin.Context) {
	events, err := h.svc.Notifications(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, events)
}

func (h *Handler) recentEvents(c *gin.Context) {
	events, err := h.svc.RecentEvents(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, events)
}

func (h *Handler) clubEvents(c *gin.Context) {
	events, err := h.svc.EventsByClub(c.Request.Context(), c.Param("clubId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, events)
}

func (h *Handler) getEvent(c *gin.Context) {
	ev, err := h.svc.GetEvent(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, ev)
}

func (h *Handler) createEvent(c *gin.Context) {
	var req createEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	in := lifecycle.CreateEventInput{
		Title:          req.Title,
		Description:    req.Description,
		VenueRequestID: req.VenueRequestID,
	}
	if req.Date != "" {
		d, ok := parseDate(req.Date)
		if !ok {
			invalidDate(c, "date")
			return
		}
		in.Date = &d
	}
	ev, err := h.svc.CreateEvent(c.Request.Context(), actor(c), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, ev)
}

func (h *Handler) myEvents(c *gin.Context) {
	events, err := h.svc.MyEvents(c.Request.Context(), actor(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, events)
}

func (h *Handler) requestVenue(c *gin.Context) {
	var req venueRequestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	date, ok := parseDate(req.EventDate)
	if !ok {
		invalidDate(c, "eventDate")
		return
	}
	vr, err := h.svc.RequestVenue(c.Request.Context(), actor(c), lifecycle.VenueRequestInput{
		Venue:       req.Venue,
		EventName:   req.EventName,
		EventDate:   date,
		TimeFrom:    req.TimeFrom,
		TimeTo:      req.TimeTo,
		Description: req.Description,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, vr)
}

func (h *Handler) myVenueRequests(c *gin.Context) {
	list, err := h.svc.MyVenueRequests(c.Request.Context(), actor(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) registerForEvent(c *gin.Context) {
	if err := h.svc.Register(c.Request.Context(), actor(c), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, message("Successfully registered for event"))
}

func (h *Handler) registrationStatus(c *gin.Context) {
	status, err := h.svc.RegistrationStatus(c.Request.Context(), actor(c), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

func (h *Handler) registrations(c *gin.Context) {
	users, err := h.svc.Registrations(c.Request.Context(), actor(c), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}
