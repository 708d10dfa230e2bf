package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

func (h *Handler) adminVenueRequests(c *gin.Context) {
	pendingOnly, _ := strconv.ParseBool(c.Query("pending"))
	list, err := h.svc.ListVenueRequests(c.Request.Context(), actor(c), pendingOnly)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) approvedVenueCount(c *gin.Context) {
	n, err := h.svc.ApprovedVenueCount(c.Request.Context(), actor(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": n})
}

func (h *Handler) approveVenue(c *gin.Context) {
	vr, err := h.svc.ApproveVenueRequest(c.Request.Context(), actor(c), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Venue request approved", "venueRequest": vr})
}

func (h *Handler) rejectVenue(c *gin.Context) {
	if err := h.svc.RejectVenueRequest(c.Request.Context(), actor(c), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, message("Venue request rejected"))
}

func (h *Handler) cleanupVenues(c *gin.Context) {
	res, err := h.svc.CleanupVenueRequests(c.Request.Context(), actor(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":        "Venue requests cleaned up",
		"deletedCount":   res.Deleted,
		"remainingCount": res.Remaining,
	})
}
