package http

import (
	"errors"
	"net/http"

	"github.com/digital-factory/projectstatus-backend/internal/logging"
	"github.com/digital-factory/projectstatus-backend/internal/project_status/domain"
	"github.com/digital-factory/projectstatus-backend/internal/project_status/liststore"
	"github.com/gin-gonic/gin"
)

var errStatusMap = map[error]int{
	domain.ErrProjectRequired:   http.StatusBadRequest,
	domain.ErrInvalidHealth:     http.StatusBadRequest,
	domain.ErrInvalidPercent:    http.StatusBadRequest,
	domain.ErrNoProjectSelected: http.StatusConflict,
	domain.ErrNoPreviousEntry:   http.StatusConflict,
	domain.ErrUnknownProject:    http.StatusNotFound,
	domain.ErrProjectNotFound:   http.StatusNotFound,
	domain.ErrDraftNotFound:     http.StatusNotFound,
	domain.ErrUserUnknown:       http.StatusUnauthorized,
}

func statusFor(err error) int {
	var remote *liststore.RemoteError
	if errors.As(err, &remote) {
		return http.StatusBadGateway
	}
	for known, code := range errStatusMap {
		if errors.Is(err, known) {
			return code
		}
	}
	return http.StatusInternalServerError
}

// respondError writes the error banner text the client shows.
func respondError(c *gin.Context, err error) {
	code := statusFor(err)
	entry := logging.FromContext(c.Request.Context()).
		WithField("path", c.FullPath()).
		WithField("status", code).
		WithError(err)
	if code >= http.StatusInternalServerError {
		entry.Error("request failed")
	} else {
		entry.Info("request rejected")
	}
	c.JSON(code, gin.H{"ok": false, "error": err.Error()})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": msg})
}
