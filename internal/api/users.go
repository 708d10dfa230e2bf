package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type clubDescriptionRequest struct {
	Description string `json:"description" binding:"required"`
}

func (h *Handler) me(c *gin.Context) {
	u, err := h.svc.Me(c.Request.Context(), actor(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *Handler) myCertificates(c *gin.Context) {
	certs, err := h.svc.Certificates(c.Request.Context(), actor(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, certs)
}

func (h *Handler) myRegisteredEvents(c *gin.Context) {
	events, err := h.svc.StudentEvents(c.Request.Context(), actor(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, events)
}

func (h *Handler) updateMyClubDescription(c *gin.Context) {
	var req clubDescriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	club, err := h.svc.UpdateMyClubDescription(c.Request.Context(), actor(c), req.Description)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, club)
}

func (h *Handler) coordinatorRequests(c *gin.Context) {
	users, err := h.svc.PendingCoordinators(c.Request.Context(), actor(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *Handler) approveCoordinator(c *gin.Context) {
	u, err := h.svc.ApproveCoordinator(c.Request.Context(), actor(c), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Coordinator approved", "user": u})
}

func (h *Handler) rejectCoordinator(c *gin.Context) {
	if err := h.svc.RejectCoordinator(c.Request.Context(), actor(c), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, message("Coordinator request rejected"))
}

// uploadProfilePic takes a multipart "profilePic" file for the caller's account.
func (h *Handler) uploadProfilePic(c *gin.Context) {
	file, header, err := c.Request.FormFile("profilePic")
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, message("No file uploaded"))
		return
	}
	defer file.Close()

	u, err := h.svc.SetProfilePicture(c.Request.Context(), actor(c), file, header.Filename)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"profilePicUrl": u.ProfilePic, "user": u})
}
