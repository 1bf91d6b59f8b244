package registration

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

// target resolves whose registration the request acts on. Staff may pass
// user_id; everyone else acts on themselves.
func target(c *gin.Context, ac middleware.AccessContext) (uint, bool) {
	var req RegistrationRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.Error(c, apperr.WithMessage(apperr.ErrInvalidInput, "invalid input: "+err.Error()))
			return 0, false
		}
	}
	if req.UserID == nil || *req.UserID == ac.UserID {
		return ac.UserID, true
	}
	if !ac.CanActFor(*req.UserID) {
		httpx.Error(c, apperr.WithMessage(apperr.ErrForbidden, "only staff can register other users"))
		return 0, false
	}
	return *req.UserID, true
}

// Register - POST /events/:id/register
func (h *Handler) Register(c *gin.Context) {
	ac, ok := middleware.MustAccessContext(c)
	if !ok {
		return
	}
	eventID, err := httpx.ParamUint(c, "id")
	if err != nil {
		httpx.Error(c, err)
		return
	}
	userID, ok := target(c, ac)
	if !ok {
		return
	}

	reg, err := h.Service.Register(c.Request.Context(), ac.UserID, eventID, userID)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, http.StatusCreated, "successfully registered for event", reg)
}

// Cancel - DELETE /events/:id/register
func (h *Handler) Cancel(c *gin.Context) {
	ac, ok := middleware.MustAccessContext(c)
	if !ok {
		return
	}
	eventID, err := httpx.ParamUint(c, "id")
	if err != nil {
		httpx.Error(c, err)
		return
	}
	userID, ok := target(c, ac)
	if !ok {
		return
	}

	if err := h.Service.Cancel(c.Request.Context(), ac.UserID, eventID, userID); err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.NoContent(c, "registration cancelled")
}

// ListForEvent - GET /events/:id/registrations (staff)
func (h *Handler) ListForEvent(c *gin.Context) {
	eventID, err := httpx.ParamUint(c, "id")
	if err != nil {
		httpx.Error(c, err)
		return
	}
	regs, err := h.Service.ListForEvent(c.Request.Context(), eventID)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, "registrations retrieved", regs)
}

// ListMine - GET /me/registrations
func (h *Handler) ListMine(c *gin.Context) {
	ac, ok := middleware.MustAccessContext(c)
	if !ok {
		return
	}
	regs, err := h.Service.ListForUser(c.Request.Context(), ac.UserID)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, "registrations retrieved", regs)
}
