package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/booking-api/internal/handler"
	"github.com/jwalitptl/booking-api/internal/model"
	"github.com/jwalitptl/booking-api/internal/service/verification"
	"github.com/jwalitptl/booking-api/pkg/httputil"
)

type ModeRequest struct {
	Mode model.ContactMode `json:"mode"`
}

type ContactRequest struct {
	Mode  model.ContactMode `json:"mode"`
	Value string            `json:"value"`
}

type CodeRequest struct {
	Code string `json:"code"`
}

type Handler struct {
	svc *verification.Service
}

func NewHandler(svc *verification.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	auth := r.Group("/auth")
	{
		auth.POST("/register", h.start(model.PurposeRegister))
		auth.POST("/login", h.start(model.PurposeLogin))
		auth.POST("/recovery", h.start(model.PurposeRecovery))
		auth.POST("/forgot-password", h.start(model.PurposeRecovery))

		flows := auth.Group("/flows/:flow")
		{
			flows.GET("", h.GetFlow)
			flows.PUT("/mode", h.SetMode)
			flows.PUT("/contact", h.SetContact)
			flows.PUT("/credentials", h.SetCredentials)
			flows.POST("/submit", h.Submit)
			flows.POST("/verify", h.Verify)
			flows.POST("/resend", h.Resend)
			flows.POST("/cancel", h.Cancel)
			flows.POST("/reset", h.ResetPassword)
		}
	}
}

func (h *Handler) respond(c *gin.Context, status int, res *verification.Result, err error) {
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	res.Notification = handler.LocalizeNotification(c, res.Notification)
	handler.Respond(c, status, res.Next, res)
}

func (h *Handler) start(purpose model.VerificationPurpose) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := h.svc.Start(c.Request.Context(), purpose)
		h.respond(c, http.StatusCreated, res, err)
	}
}

func (h *Handler) GetFlow(c *gin.Context) {
	res, err := h.svc.Get(c.Request.Context(), c.Param("flow"))
	h.respond(c, http.StatusOK, res, err)
}

func (h *Handler) SetMode(c *gin.Context) {
	var req ModeRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	res, err := h.svc.SetMode(c.Request.Context(), c.Param("flow"), req.Mode)
	h.respond(c, http.StatusOK, res, err)
}

func (h *Handler) SetContact(c *gin.Context) {
	var req ContactRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	res, err := h.svc.SetContact(c.Request.Context(), c.Param("flow"), req.Mode, req.Value)
	h.respond(c, http.StatusOK, res, err)
}

func (h *Handler) SetCredentials(c *gin.Context) {
	var req model.Credentials
	if !handler.BindJSON(c, &req) {
		return
	}
	res, err := h.svc.SetCredentials(c.Request.Context(), c.Param("flow"), req)
	h.respond(c, http.StatusOK, res, err)
}

func (h *Handler) Submit(c *gin.Context) {
	res, err := h.svc.Submit(c.Request.Context(), c.Param("flow"))
	h.respond(c, http.StatusOK, res, err)
}

func (h *Handler) Verify(c *gin.Context) {
	var req CodeRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	res, err := h.svc.Verify(c.Request.Context(), c.Param("flow"), req.Code)
	h.respond(c, http.StatusOK, res, err)
}

func (h *Handler) Resend(c *gin.Context) {
	res, err := h.svc.Resend(c.Request.Context(), c.Param("flow"))
	h.respond(c, http.StatusOK, res, err)
}

func (h *Handler) Cancel(c *gin.Context) {
	res, err := h.svc.Cancel(c.Request.Context(), c.Param("flow"))
	h.respond(c, http.StatusOK, res, err)
}

func (h *Handler) ResetPassword(c *gin.Context) {
	var req model.PasswordReset
	if !handler.BindJSON(c, &req) {
		return
	}
	res, err := h.svc.Reset(c.Request.Context(), c.Param("flow"), req)
	h.respond(c, http.StatusOK, res, err)
}
