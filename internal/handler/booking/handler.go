package booking

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/booking-api/internal/handler"
	"github.com/jwalitptl/booking-api/internal/model"
	"github.com/jwalitptl/booking-api/internal/service/booking"
	"github.com/jwalitptl/booking-api/pkg/httputil"
)

type StartRequest struct {
	DoctorID string `json:"doctor_id"`
}

type DayRequest struct {
	Day string `json:"day"`
}

type TimeRequest struct {
	Time string `json:"time"`
}

type TypeRequest struct {
	AppointmentType model.AppointmentType `json:"appointment_type"`
}

type Handler struct {
	service *booking.Service
}

func NewHandler(service *booking.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	bookings := r.Group("/bookings")
	{
		bookings.POST("", h.StartBooking)
		bookings.GET("/:session", h.GetBooking)
		bookings.PUT("/:session/day", h.SelectDay)
		bookings.PUT("/:session/time", h.SelectTime)
		bookings.PUT("/:session/type", h.SelectAppointmentType)
		bookings.PUT("/:session/patient", h.UpdatePatientInfo)
		bookings.POST("/:session/advance", h.Advance)
		bookings.POST("/:session/back", h.Back)
		bookings.POST("/:session/acknowledge", h.Acknowledge)
		bookings.DELETE("/:session", h.Leave)
	}
}

func (h *Handler) respond(c *gin.Context, status int, res *booking.Result, err error) {
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	res.Notification = handler.LocalizeNotification(c, res.Notification)
	handler.Respond(c, status, res.Next, res)
}

func (h *Handler) StartBooking(c *gin.Context) {
	var req StartRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	res, err := h.service.Start(c.Request.Context(), req.DoctorID, handler.Subject(c))
	h.respond(c, http.StatusCreated, res, err)
}

func (h *Handler) GetBooking(c *gin.Context) {
	res, err := h.service.Get(c.Request.Context(), c.Param("session"))
	h.respond(c, http.StatusOK, res, err)
}

func (h *Handler) SelectDay(c *gin.Context) {
	var req DayRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	res, err := h.service.SelectDay(c.Request.Context(), c.Param("session"), req.Day)
	h.respond(c, http.StatusOK, res, err)
}

func (h *Handler) SelectTime(c *gin.Context) {
	var req TimeRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	res, err := h.service.SelectTime(c.Request.Context(), c.Param("session"), req.Time)
	h.respond(c, http.StatusOK, res, err)
}

func (h *Handler) SelectAppointmentType(c *gin.Context) {
	var req TypeRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	res, err := h.service.SelectAppointmentType(c.Request.Context(), c.Param("session"), req.AppointmentType)
	h.respond(c, http.StatusOK, res, err)
}

func (h *Handler) UpdatePatientInfo(c *gin.Context) {
	var req model.PatientInfo
	if !handler.BindJSON(c, &req) {
		return
	}
	res, err := h.service.UpdatePatientInfo(c.Request.Context(), c.Param("session"), req)
	h.respond(c, http.StatusOK, res, err)
}

func (h *Handler) Advance(c *gin.Context) {
	res, err := h.service.Advance(c.Request.Context(), c.Param("session"))
	h.respond(c, http.StatusOK, res, err)
}

func (h *Handler) Back(c *gin.Context) {
	res, err := h.service.Back(c.Request.Context(), c.Param("session"))
	h.respond(c, http.StatusOK, res, err)
}

func (h *Handler) Acknowledge(c *gin.Context) {
	res, err := h.service.Acknowledge(c.Request.Context(), c.Param("session"))
	h.respond(c, http.StatusOK, res, err)
}

func (h *Handler) Leave(c *gin.Context) {
	res, err := h.service.Leave(c.Request.Context(), c.Param("session"))
	h.respond(c, http.StatusOK, res, err)
}
