package profile

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/booking-api/internal/handler"
	"github.com/jwalitptl/booking-api/internal/model"
	"github.com/jwalitptl/booking-api/internal/service/profile"
	"github.com/jwalitptl/booking-api/pkg/httputil"
)

type Handler struct {
	service *profile.Service
}

func NewHandler(service *profile.Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes expects r to be behind the auth middleware.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/profile", h.GetProfile)
	r.PUT("/profile", h.SaveProfile)
}

func (h *Handler) GetProfile(c *gin.Context) {
	p, err := h.service.Get(c.Request.Context(), handler.Subject(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, p)
}

func (h *Handler) SaveProfile(c *gin.Context) {
	var req model.PatientProfile
	if !handler.BindJSON(c, &req) {
		return
	}

	res, err := h.service.Save(c.Request.Context(), handler.Subject(c), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	res.Notification = handler.LocalizeNotification(c, res.Notification)
	handler.Respond(c, http.StatusOK, res.Next, res)
}
