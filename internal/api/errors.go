package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"clubhub/internal/lifecycle"
	"clubhub/internal/logger"
)

func statusFor(kind lifecycle.Kind) int {
	switch kind {
	case lifecycle.KindInvalid, lifecycle.KindConflict:
		return http.StatusBadRequest
	case lifecycle.KindUnauthorized:
		return http.StatusUnauthorized
	case lifecycle.KindForbidden:
		return http.StatusForbidden
	case lifecycle.KindNotFound:
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// fail writes err as {"message": ...}. Unclassified errors are logged and
// their text is withheld in production.
func (h *Handler) fail(c *gin.Context, err error) {
	var le *lifecycle.Error
	if errors.As(err, &le) {
		c.AbortWithStatusJSON(statusFor(le.Kind), gin.H{"message": le.Msg})
		return
	}
	logger.Error.Printf("%s %s: %v", c.Request.Method, c.FullPath(), err)
	msg := "Server error"
	if !h.production {
		msg = err.Error()
	}
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": msg})
}

// badRequest reports a binding failure, listing the failed rule per field
// when the validator produced them.
func badRequest(c *gin.Context, err error) {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}
	fields := make(map[string]string, len(ve))
	for _, fe := range ve {
		fields[fe.Field()] = fe.Tag()
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Validation failed", "errors": fields})
}
