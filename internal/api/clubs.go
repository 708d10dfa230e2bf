package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"clubhub/internal/lifecycle"
)

type clubRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Department  string `json:"department"`
}

func (r clubRequest) input() lifecycle.ClubInput {
	return lifecycle.ClubInput{Name: r.Name, Description: r.Description, Department: r.Department}
}

func (h *Handler) listClubs(c *gin.Context) {
	clubs, err := h.svc.ListClubs(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, clubs)
}

func (h *Handler) getClub(c *gin.Context) {
	club, err := h.svc.GetClub(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, club)
}

func (h *Handler) createClub(c *gin.Context) {
	var req clubRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	club, err := h.svc.CreateClub(c.Request.Context(), actor(c), req.input())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, club)
}

func (h *Handler) updateClub(c *gin.Context) {
	var req clubRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	club, err := h.svc.UpdateClub(c.Request.Context(), actor(c), c.Param("id"), req.input())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, club)
}

func (h *Handler) deleteClub(c *gin.Context) {
	if err := h.svc.DeleteClub(c.Request.Context(), actor(c), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, message("Club deleted"))
}

// uploadClubLogo takes a multipart "logo" file and stores it through the
// configured image host.
func (h *Handler) uploadClubLogo(c *gin.Context) {
	file, header, err := c.Request.FormFile("logo")
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, message("logo file field required"))
		return
	}
	defer file.Close()

	club, err := h.svc.SetClubLogo(c.Request.Context(), actor(c), c.Param("id"), file, header.Filename)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, club)
}
