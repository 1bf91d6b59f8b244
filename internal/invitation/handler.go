package invitation

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ummahconnect/community-backend/internal/apperr"
	"github.com/ummahconnect/community-backend/internal/auth"
	"github.com/ummahconnect/community-backend/internal/httpx"
	"github.com/ummahconnect/community-backend/middleware"
)

type Handler struct {
	Service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{Service: s}
}

// Invite - POST /invitations (staff)
func (h *Handler) Invite(c *gin.Context) {
	ac, ok := middleware.MustAccessContext(c)
	if !ok {
		return
	}

	var req InviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.Error(c, apperr.WithMessage(apperr.ErrInvalidInput, "invalid input: "+err.Error()))
		return
	}
	contact, err := NewContact(req.Email, req.Phone)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	// only admins hand out elevated roles
	if req.Role != "" && req.Role != auth.RoleMember && ac.Role != auth.RoleAdmin {
		httpx.Error(c, apperr.WithMessage(apperr.ErrForbidden, "only admins can invite staff or admins"))
		return
	}

	inv, err := h.Service.Invite(c.Request.Context(), ac.UserID, contact, req.Role, req.Message)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, http.StatusCreated, "invitation sent", inv)
}

// Accept - POST /invitations/accept (public)
func (h *Handler) Accept(c *gin.Context) {
	var req AcceptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.Error(c, apperr.WithMessage(apperr.ErrInvalidInput, "invalid input: "+err.Error()))
		return
	}

	user, err := h.Service.Accept(c.Request.Context(), req.Token, req.OTP, req.FullName, req.Password)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, http.StatusCreated, "invitation accepted", user)
}

// Revoke - DELETE /invitations/:id (staff)
func (h *Handler) Revoke(c *gin.Context) {
	ac, ok := middleware.MustAccessContext(c)
	if !ok {
		return
	}
	id, err := httpx.ParamUint(c, "id")
	if err != nil {
		httpx.Error(c, err)
		return
	}
	if err := h.Service.Revoke(c.Request.Context(), ac.UserID, id); err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.NoContent(c, "invitation revoked")
}

// List - GET /invitations?status=pending&limit=20&offset=0 (staff)
func (h *Handler) List(c *gin.Context) {
	limit := httpx.QueryInt(c, "limit", 20)
	offset := httpx.QueryInt(c, "offset", 0)

	list, total, err := h.Service.List(c.Request.Context(), c.Query("status"), limit, offset)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, "invitations retrieved", gin.H{
		"invitations": list,
		"total":       total,
		"limit":       limit,
		"offset":      offset,
	})
}
