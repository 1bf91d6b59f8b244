package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ummahconnect/community-backend/internal/apperr"
	"github.com/ummahconnect/community-backend/internal/httpx"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Login - POST /auth/login
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.Error(c, apperr.WithMessage(apperr.ErrInvalidInput, "invalid input: "+err.Error()))
		return
	}

	token, user, err := h.service.Login(c.Request.Context(), req.Identifier, req.Password)
	if err != nil {
		httpx.Error(c, err)
		return
	}

	httpx.OK(c, http.StatusOK, "login successful", LoginResponse{AccessToken: token, User: user})
}
