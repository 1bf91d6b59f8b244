package qrcode

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ummahconnect/community-backend/internal/apperr"
	"github.com/ummahconnect/community-backend/internal/httpx"
	"github.com/ummahconnect/community-backend/middleware"
)

type Handler struct {
	Service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{Service: s}
}

// GenerateQR - POST /events/:id/generate-qr (staff)
func (h *Handler) GenerateQR(c *gin.Context) {
	ac, ok := middleware.MustAccessContext(c)
	if !ok {
		return
	}
	eventID, err := httpx.ParamUint(c, "id")
	if err != nil {
		httpx.Error(c, err)
		return
	}

	var req IssueRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.Error(c, apperr.WithMessage(apperr.ErrInvalidInput, "invalid input: "+err.Error()))
			return
		}
	}
	if req.TTLHours < 0 || req.TTLHours > 24*30 {
		httpx.Error(c, apperr.WithMessage(apperr.ErrInvalidInput, "ttl_hours must be between 1 and 720"))
		return
	}

	issued, err := h.Service.IssueToken(c.Request.Context(), ac.UserID, eventID, req.TTLHours, req.Type)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, http.StatusCreated, "check-in QR code generated", issued)
}

// ValidateToken - GET /events/:id/validate-checkin-token?token=
func (h *Handler) ValidateToken(c *gin.Context) {
	eventID, err := httpx.ParamUint(c, "id")
	if err != nil {
		httpx.Error(c, err)
		return
	}
	token := c.Query("token")
	if token == "" {
		httpx.Error(c, apperr.WithMessage(apperr.ErrInvalidInput, "token is required"))
		return
	}

	v, err := h.Service.ValidateToken(c.Request.Context(), eventID, token)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, "check-in token is valid", v)
}

// CheckInWithToken - POST /events/:id/checkin-with-token
func (h *Handler) CheckInWithToken(c *gin.Context) {
	ac, ok := middleware.MustAccessContext(c)
	if !ok {
		return
	}
	eventID, err := httpx.ParamUint(c, "id")
	if err != nil {
		httpx.Error(c, err)
		return
	}
	var req CheckInWithTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.Error(c, apperr.WithMessage(apperr.ErrInvalidInput, "invalid input: "+err.Error()))
		return
	}

	res, err := h.Service.CheckInWithToken(c.Request.Context(), eventID, req.Token, ac.UserID)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, "checked in successfully", res)
}

// RevokeQR - DELETE /events/:id/qr (staff)
func (h *Handler) RevokeQR(c *gin.Context) {
	ac, ok := middleware.MustAccessContext(c)
	if !ok {
		return
	}
	eventID, err := httpx.ParamUint(c, "id")
	if err != nil {
		httpx.Error(c, err)
		return
	}
	if err := h.Service.RevokeToken(c.Request.Context(), ac.UserID, eventID); err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.NoContent(c, "check-in QR code revoked")
}

// QRImage - GET /events/:id/qr.png?size= (staff)
func (h *Handler) QRImage(c *gin.Context) {
	eventID, err := httpx.ParamUint(c, "id")
	if err != nil {
		httpx.Error(c, err)
		return
	}
	png, err := h.Service.RenderPNG(c.Request.Context(), eventID, httpx.QueryInt(c, "size", 256))
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", png)
}
