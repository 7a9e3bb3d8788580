package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arqmanager/portfolio-web/internal/backend"
	"github.com/arqmanager/portfolio-web/internal/logger"
	"github.com/arqmanager/portfolio-web/internal/projects/attachments"
	"github.com/arqmanager/portfolio-web/internal/projects/form"
	"github.com/arqmanager/portfolio-web/internal/projects/service"
)

// statusFor maps domain and backend errors to an HTTP status and a message
// safe to show to the user.
func statusFor(err error) (int, string) {
	var invalid *form.InvalidDraftError
	var rejected *backend.RemoteValidationError
	var malformed *backend.MalformedResponseError
	var network *backend.NetworkError

	switch {
	case errors.Is(err, service.ErrFormNotFound):
		return http.StatusNotFound, "form not found"
	case errors.Is(err, backend.ErrNotFound):
		return http.StatusNotFound, "project not found"
	case errors.Is(err, attachments.ErrIndexOutOfRange):
		return http.StatusNotFound, "attachment not found"
	case errors.As(err, &invalid):
		return http.StatusUnprocessableEntity, "check the required fields"
	case errors.Is(err, form.ErrSubmissionInFlight):
		return http.StatusConflict, "a submission is already in progress"
	case errors.Is(err, form.ErrNotEditable),
		errors.Is(err, form.ErrNothingToConfirm),
		errors.Is(err, form.ErrNotLoadable),
		errors.Is(err, form.ErrDiscarded):
		return http.StatusConflict, err.Error()
	case errors.Is(err, backend.ErrUnauthenticated):
		return http.StatusUnauthorized, "session expired"
	case errors.As(err, &rejected):
		return http.StatusUnprocessableEntity, "the server rejected the project"
	case errors.As(err, &malformed), errors.As(err, &network):
		return http.StatusBadGateway, "the project server is unavailable"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func respondError(c *gin.Context, op string, err error) {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.New(c.Request.Context()).LogError(op, err)
	}
	c.JSON(status, gin.H{"ok": false, "error": msg})
}
