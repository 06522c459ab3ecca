package doctor

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/booking-api/internal/model"
	"github.com/jwalitptl/booking-api/internal/service/directory"
	"github.com/jwalitptl/booking-api/pkg/httputil"
)

type Handler struct {
	service *directory.Service
}

func NewHandler(service *directory.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/specialties", h.ListSpecialties)

	doctors := r.Group("/doctors")
	{
		doctors.GET("", h.SearchDoctors)
		doctors.GET("/:id", h.GetDoctor)
	}
}

func (h *Handler) ListSpecialties(c *gin.Context) {
	httputil.RespondWithSuccess(c, h.service.Specialties())
}

func (h *Handler) SearchDoctors(c *gin.Context) {
	var filter model.DoctorFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	doctors, err := h.service.Search(c.Request.Context(), filter)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, httputil.Response{
		Status: "success",
		Data: gin.H{
			"doctors": doctors,
			"total":   len(doctors),
		},
	})
}

func (h *Handler) GetDoctor(c *gin.Context) {
	profile, err := h.service.Profile(c.Request.Context(), c.Param("id"), c.Query("day"))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, profile)
}
