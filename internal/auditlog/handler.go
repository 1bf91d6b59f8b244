package auditlog

import (
	"net/http"
	"strconv"
	"time"

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

// GetAuditLogs handles GET /audit-logs (admin only).
// Query: user_id, event_id, action (partial match), status, from_date, to_date (YYYY-MM-DD), page, limit.
func (h *Handler) GetAuditLogs(c *gin.Context) {
	filter := AuditLogFilter{
		Action: c.Query("action"),
		Status: c.Query("status"),
		Page:   httpx.QueryInt(c, "page", 1),
		Limit:  httpx.QueryInt(c, "limit", 20),
	}

	if userIDStr := c.Query("user_id"); userIDStr != "" {
		if userID, err := strconv.ParseUint(userIDStr, 10, 32); err == nil {
			uid := uint(userID)
			filter.UserID = &uid
		}
	}
	if eventIDStr := c.Query("event_id"); eventIDStr != "" {
		if eventID, err := strconv.ParseUint(eventIDStr, 10, 32); err == nil {
			eid := uint(eventID)
			filter.EventID = &eid
		}
	}

	if fromDateStr := c.Query("from_date"); fromDateStr != "" {
		fromDate, err := time.Parse("2006-01-02", fromDateStr)
		if err != nil {
			httpx.Error(c, apperr.WithMessage(apperr.ErrInvalidInput, "invalid from_date format, use YYYY-MM-DD"))
			return
		}
		filter.FromDate = &fromDate
	}
	if toDateStr := c.Query("to_date"); toDateStr != "" {
		toDate, err := time.Parse("2006-01-02", toDateStr)
		if err != nil {
			httpx.Error(c, apperr.WithMessage(apperr.ErrInvalidInput, "invalid to_date format, use YYYY-MM-DD"))
			return
		}
		endOfDay := toDate.Add(24*time.Hour - time.Second)
		filter.ToDate = &endOfDay
	}

	result, err := h.service.GetAuditLogs(c.Request.Context(), filter)
	if err != nil {
		httpx.Error(c, apperr.Internal("failed to retrieve audit logs", err))
		return
	}

	httpx.OK(c, http.StatusOK, "audit logs retrieved", result)
}
