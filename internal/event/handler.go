package event

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

// ===========================
// 🎯 Create Event - POST /events
func (h *Handler) CreateEvent(c *gin.Context) {
	ac, ok := middleware.MustAccessContext(c)
	if !ok {
		return
	}

	var req CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.Error(c, apperr.WithMessage(apperr.ErrInvalidInput, "invalid input: "+err.Error()))
		return
	}

	e, err := h.Service.Create(c.Request.Context(), ac.UserID, &req)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, http.StatusCreated, "event created successfully", e)
}

// ===========================
// 🔍 Get Event - GET /events/:id
func (h *Handler) GetEventByID(c *gin.Context) {
	id, err := httpx.ParamUint(c, "id")
	if err != nil {
		httpx.Error(c, err)
		return
	}

	e, err := h.Service.Get(c.Request.Context(), id)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, "event retrieved", e)
}

// ===========================
// 📄 List Events - GET /events?category=&active=&upcoming=&search=&limit=&offset=
func (h *Handler) ListEvents(c *gin.Context) {
	f := ListFilter{
		Category:     Category(c.Query("category")),
		ActiveOnly:   c.DefaultQuery("active", "true") == "true",
		UpcomingOnly: c.Query("upcoming") == "true",
		Search:       c.Query("search"),
		Limit:        httpx.QueryInt(c, "limit", 20),
		Offset:       httpx.QueryInt(c, "offset", 0),
	}

	events, total, err := h.Service.List(c.Request.Context(), f)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, "events retrieved", gin.H{
		"events": events,
		"total":  total,
	})
}

// ===========================
// 🛠 Update Event - PATCH /events/:id
func (h *Handler) UpdateEvent(c *gin.Context) {
	ac, ok := middleware.MustAccessContext(c)
	if !ok {
		return
	}
	id, err := httpx.ParamUint(c, "id")
	if err != nil {
		httpx.Error(c, err)
		return
	}

	var req UpdateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.Error(c, apperr.WithMessage(apperr.ErrInvalidInput, "invalid input: "+err.Error()))
		return
	}

	e, err := h.Service.Update(c.Request.Context(), ac.UserID, id, &req)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, "event updated successfully", e)
}

// ===========================
// ❌ Delete Event - DELETE /events/:id
func (h *Handler) DeleteEvent(c *gin.Context) {
	ac, ok := middleware.MustAccessContext(c)
	if !ok {
		return
	}
	id, err := httpx.ParamUint(c, "id")
	if err != nil {
		httpx.Error(c, err)
		return
	}

	if err := h.Service.Delete(c.Request.Context(), ac.UserID, id); err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.NoContent(c, "event deleted successfully")
}

// ===========================
// 📊 Stats - GET /events/stats
func (h *Handler) GetEventStats(c *gin.Context) {
	stats, err := h.Service.Stats(c.Request.Context())
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, "event stats retrieved", stats)
}
