package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"clubhub/internal/lifecycle"
)

// marksRequest carries the attendee list. Entries are checked as a batch by
// the service so one bad entry rejects the whole request.
type marksRequest struct {
	Attendees []lifecycle.Mark `json:"attendees" binding:"required"`
}

type markStudentRequest struct {
	Present *bool `json:"present" binding:"required"`
}

func (h *Handler) attendees(c *gin.Context) {
	list, err := h.svc.Attendees(c.Request.Context(), actor(c), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) saveProgress(c *gin.Context) {
	var req marksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.svc.SaveProgress(c.Request.Context(), actor(c), c.Param("id"), req.Attendees); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, message("Attendance progress saved"))
}

func (h *Handler) savedProgress(c *gin.Context) {
	marks, err := h.svc.SavedProgress(c.Request.Context(), actor(c), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"attendees": marks})
}

func (h *Handler) submitAttendance(c *gin.Context) {
	var req marksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	res, err := h.svc.Submit(c.Request.Context(), actor(c), c.Param("id"), req.Attendees)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":            "Attendance submitted and certificates generated",
		"event":              res.EventID,
		"recorded":           res.Recorded,
		"certificatesIssued": res.CertificatesIssued,
	})
}

func (h *Handler) markStudent(c *gin.Context) {
	var req markStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	rec, err := h.svc.MarkAttendance(c.Request.Context(), actor(c), c.Param("id"), c.Param("studentId"), *req.Present)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// markAttendanceBatch upserts marks without completing the event.
func (h *Handler) markAttendanceBatch(c *gin.Context) {
	var req marksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	recs, err := h.svc.MarkAttendanceBatch(c.Request.Context(), actor(c), c.Param("id"), req.Attendees)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Attendance marked", "records": recs})
}

func (h *Handler) closeRegistration(c *gin.Context) {
	ev, err := h.svc.CloseRegistration(c.Request.Context(), actor(c), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Registration closed", "event": ev})
}
