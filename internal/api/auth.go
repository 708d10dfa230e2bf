package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"clubhub/internal/auth"
	"clubhub/internal/lifecycle"
)

type registerRequest struct {
	Name       string `json:"name" binding:"required"`
	Email      string `json:"email" binding:"required,email"`
	Password   string `json:"password" binding:"required,min=6"`
	Role       string `json:"role" binding:"omitempty,oneof=student coordinator"`
	Department string `json:"department"`
	StudentID  string `json:"studentId"`
	ClubName   string `json:"clubName"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

type authResponse struct {
	auth.TokenPair
	User lifecycle.User `json:"user"`
}

func (h *Handler) issue(c *gin.Context, status int, u lifecycle.User) {
	tokens, err := h.signer.Issue(u.ID, string(u.Role))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(status, authResponse{TokenPair: tokens, User: u})
}

func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	u, err := h.svc.Signup(c.Request.Context(), lifecycle.SignupInput{
		Name:       req.Name,
		Email:      req.Email,
		Password:   req.Password,
		Role:       lifecycle.Role(req.Role),
		Department: req.Department,
		StudentID:  req.StudentID,
		ClubName:   req.ClubName,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	if !u.Verified {
		c.JSON(http.StatusCreated, gin.H{
			"message": "Registration submitted. An administrator must approve your coordinator account before you can log in.",
			"user":    u,
		})
		return
	}
	h.issue(c, http.StatusCreated, u)
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	u, err := h.svc.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.issue(c, http.StatusOK, u)
}

func (h *Handler) refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	claims, err := h.signer.Parse(req.RefreshToken, auth.KindRefresh)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, message("Token is not valid"))
		return
	}
	// The account may have been removed since the token was issued.
	u, err := h.svc.Me(c.Request.Context(), lifecycle.Actor{ID: claims.Subject, Role: lifecycle.Role(claims.Role)})
	if errors.Is(err, lifecycle.ErrUserNotFound) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, message("Token is not valid"))
		return
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	h.issue(c, http.StatusOK, u)
}
