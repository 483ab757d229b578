package httputil

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/doctor-directory-api/pkg/errors"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Errors  []string `json:"errors,omitempty"`
	Field   string   `json:"field,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// RespondWithSuccess sends a success response. Extra top-level fields
// (count, pagination, tempId, ...) are merged into the envelope.
func RespondWithSuccess(c *gin.Context, status int, fields gin.H) {
	body := gin.H{"success": true}
	for k, v := range fields {
		body[k] = v
	}
	c.JSON(status, body)
}

// RespondWithList sends {success, count, data} for a slice payload.
func RespondWithList[T any](c *gin.Context, items []T) {
	if items == nil {
		items = []T{}
	}
	RespondWithSuccess(c, http.StatusOK, gin.H{
		"count": len(items),
		"data":  items,
	})
}

// RespondWithError sends an error response. Errors that are not *errors.AppError
// become 500s; their detail is only exposed while gin runs in debug mode.
func RespondWithError(c *gin.Context, err error) {
	appErr, ok := errors.As(err)
	if !ok {
		appErr = errors.NewInternal(err)
	}

	status := appErr.StatusCode()
	body := ErrorResponse{
		Success: false,
		Message: appErr.Message,
		Errors:  appErr.Details,
		Field:   appErr.Field,
	}

	if status >= http.StatusInternalServerError {
		log.Error().
			Err(err).
			Str("path", c.Request.URL.Path).
			Str("request_id", c.GetString("request_id")).
			Msg("request failed")
		if gin.Mode() == gin.DebugMode && appErr.Err != nil {
			body.Error = appErr.Err.Error()
		}
	}

	c.AbortWithStatusJSON(status, body)
}
