// Package handler holds helpers shared by the HTTP handlers in its
// subpackages.
package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/booking-api/internal/middleware"
	"github.com/jwalitptl/booking-api/internal/model"
	"github.com/jwalitptl/booking-api/pkg/httputil"
)

type formatter interface {
	Format(key string, params map[string]string) string
}

// Subject returns the verified contact set by the auth middleware, or ""
// for anonymous requests.
func Subject(c *gin.Context) string {
	return c.GetString(middleware.ContextSubject)
}

// BindJSON decodes the request body into req. On failure the error
// response is already written.
func BindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		httputil.RespondWithBindError(c, err)
		return false
	}
	return true
}

// LocalizeNotification returns a copy of n with Message rendered in the
// request's language.
func LocalizeNotification(c *gin.Context, n *model.Notification) *model.Notification {
	if n == nil {
		return nil
	}
	out := *n
	if v, ok := c.Get(httputil.LocalizerKey); ok {
		if f, ok := v.(formatter); ok {
			out.Message = f.Format(n.Key, n.Params)
			return &out
		}
	}
	out.Message = httputil.Localize(c, n.Key, n.Key)
	return &out
}

// Respond writes a success envelope carrying data and an optional
// navigation target.
func Respond(c *gin.Context, status int, next string, data interface{}) {
	c.JSON(status, httputil.Response{
		Status: "success",
		Next:   next,
		Data:   data,
	})
}
