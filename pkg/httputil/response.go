package httputil

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/booking-api/pkg/errors"
)

// LocalizerKey is the gin context key under which a Localizer is stored.
const LocalizerKey = "localizer"

// Localizer turns a message key into text for the current request.
type Localizer interface {
	Localize(key string, fallback string) string
}

// Response wraps all API responses
type Response struct {
	Status  string              `json:"status"`
	Message string              `json:"message,omitempty"`
	Code    string              `json:"code,omitempty"`
	Key     string              `json:"key,omitempty"`
	Fields  []errors.FieldError `json:"fields,omitempty"`
	Next    string              `json:"next,omitempty"`
	Data    interface{}         `json:"data,omitempty"`
}

// StatusCode maps an application error code to an HTTP status.
func StatusCode(code errors.ErrorCode) int {
	switch code {
	case errors.ErrNotFound:
		return http.StatusNotFound
	case errors.ErrBadRequest:
		return http.StatusBadRequest
	case errors.ErrUnauthorized:
		return http.StatusUnauthorized
	case errors.ErrForbidden:
		return http.StatusForbidden
	case errors.ErrValidation:
		return http.StatusUnprocessableEntity
	case errors.ErrConflict, errors.ErrBusy:
		return http.StatusConflict
	case errors.ErrTransient:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Localize translates key with the request's localizer when one is installed.
func Localize(c *gin.Context, key, fallback string) string {
	if key == "" {
		return fallback
	}
	if v, ok := c.Get(LocalizerKey); ok {
		if l, ok := v.(Localizer); ok {
			return l.Localize(key, fallback)
		}
	}
	return fallback
}

// RespondWithSuccess sends a success response
func RespondWithSuccess(c *gin.Context, data interface{}) {
	RespondWithStatus(c, http.StatusOK, data)
}

// RespondWithStatus sends a success response with an explicit status code
func RespondWithStatus(c *gin.Context, status int, data interface{}) {
	c.JSON(status, Response{
		Status: "success",
		Data:   data,
	})
}

// RespondWithError sends an error response
func RespondWithError(c *gin.Context, err error) {
	appErr, ok := errors.As(err)
	if !ok {
		appErr = errors.NewInternal(err)
	}
	if appErr.Code == errors.ErrInternal {
		_ = c.Error(err)
	}

	fields := make([]errors.FieldError, len(appErr.Fields))
	for i, f := range appErr.Fields {
		f.Message = Localize(c, f.Key, f.Message)
		fields[i] = f
	}

	c.JSON(StatusCode(appErr.Code), Response{
		Status:  "error",
		Message: Localize(c, appErr.Key, appErr.Message),
		Code:    appErr.Code.String(),
		Key:     appErr.Key,
		Fields:  fields,
		Next:    appErr.Next,
	})
}

// RespondWithBindError reports a malformed request body.
func RespondWithBindError(c *gin.Context, err error) {
	RespondWithError(c, errors.NewBadRequest("invalid request body", err))
}
