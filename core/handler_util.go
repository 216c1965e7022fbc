package core

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Authorization failures share one message so clients cannot tell which check failed.
const notAuthorizedMessage = "not authorized"

// respondError sends unified error payload {"error": {"code", "message"}}.
func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{"error": gin.H{"code": code, "message": message}})
}

// respondKind maps a core error to its HTTP status and payload. Storage failures are
// logged with their cause; the client only sees a generic message.
func respondKind(c *gin.Context, log *logrus.Logger, err error) {
	msg := ""
	var e *Error
	if errors.As(err, &e) {
		msg = e.Msg
	}
	switch KindOf(err) {
	case KindValidation:
		if msg == "" {
			msg = "invalid input"
		}
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", msg)
	case KindDuplicateEmail:
		respondError(c, http.StatusConflict, "DUPLICATE_EMAIL", "email already exists")
	case KindInvalidCredentials, KindUnauthenticated:
		respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", notAuthorizedMessage)
	case KindWrongRole, KindForbidden:
		respondError(c, http.StatusForbidden, "FORBIDDEN", notAuthorizedMessage)
	case KindNotFound:
		if msg == "" {
			msg = "not found"
		}
		respondError(c, http.StatusNotFound, "NOT_FOUND", msg)
	case KindInvalidTransition:
		if msg == "" {
			msg = "booking can no longer change"
		}
		respondError(c, http.StatusConflict, "INVALID_TRANSITION", msg)
	default:
		log.WithError(err).WithField("path", c.FullPath()).Error("storage unavailable")
		respondError(c, http.StatusServiceUnavailable, "STORAGE_UNAVAILABLE", "service temporarily unavailable")
	}
}
