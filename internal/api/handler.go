// Package api exposes the club lifecycle over HTTP with gin.
package api

import (
	"github.com/gin-gonic/gin"

	"clubhub/internal/auth"
	"clubhub/internal/lifecycle"
)

// Handler holds the dependencies shared by every route.
type Handler struct {
	svc        *lifecycle.Service
	signer     auth.Signer
	publicURL  string
	production bool
}

// actor returns the authenticated caller set by auth.Bearer.
func actor(c *gin.Context) lifecycle.Actor {
	claims, _ := auth.ClaimsFrom(c)
	return lifecycle.Actor{ID: claims.Subject, Role: lifecycle.Role(claims.Role)}
}

func message(text string) gin.H { return gin.H{"message": text} }
