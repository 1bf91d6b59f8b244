package attendance

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

// subject returns the user the request acts on. Only staff may name another user.
func subject(c *gin.Context, ac middleware.AccessContext, userID *uint) (uint, bool) {
	if userID == nil {
		return ac.UserID, true
	}
	if !ac.CanActFor(*userID) {
		httpx.Error(c, apperr.WithMessage(apperr.ErrForbidden, "only staff can check in other users"))
		return 0, false
	}
	return *userID, true
}

// CheckIn - POST /attendance/check-in
func (h *Handler) CheckIn(c *gin.Context) {
	ac, ok := middleware.MustAccessContext(c)
	if !ok {
		return
	}
	var req CheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.Error(c, apperr.WithMessage(apperr.ErrInvalidInput, "invalid input: "+err.Error()))
		return
	}
	userID, ok := subject(c, ac, req.UserID)
	if !ok {
		return
	}

	a, err := h.Service.CheckIn(c.Request.Context(), ac.UserID, req.EventID, userID, req.Notes)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, "checked in successfully", a)
}

// CheckOut - POST /attendance/check-out
func (h *Handler) CheckOut(c *gin.Context) {
	ac, ok := middleware.MustAccessContext(c)
	if !ok {
		return
	}
	var req CheckOutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.Error(c, apperr.WithMessage(apperr.ErrInvalidInput, "invalid input: "+err.Error()))
		return
	}
	userID, ok := subject(c, ac, req.UserID)
	if !ok {
		return
	}

	a, err := h.Service.CheckOut(c.Request.Context(), ac.UserID, req.EventID, userID, req.Notes)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, "checked out successfully", a)
}

// Attend - POST /events/:id/attend
func (h *Handler) Attend(c *gin.Context) {
	ac, ok := middleware.MustAccessContext(c)
	if !ok {
		return
	}
	eventID, err := httpx.ParamUint(c, "id")
	if err != nil {
		httpx.Error(c, err)
		return
	}

	a, err := h.Service.MarkAttendance(c.Request.Context(), eventID, ac.UserID)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, "attendance marked", a)
}

// ListForEvent - GET /events/:id/attendance (staff)
func (h *Handler) ListForEvent(c *gin.Context) {
	eventID, err := httpx.ParamUint(c, "id")
	if err != nil {
		httpx.Error(c, err)
		return
	}
	rows, err := h.Service.ListForEvent(c.Request.Context(), eventID)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, "attendance retrieved", rows)
}

// Summary - GET /events/:id/attendance/summary (staff)
func (h *Handler) Summary(c *gin.Context) {
	eventID, err := httpx.ParamUint(c, "id")
	if err != nil {
		httpx.Error(c, err)
		return
	}
	sum, err := h.Service.Summary(c.Request.Context(), eventID)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, "attendance summary retrieved", sum)
}
