package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ummahconnect/community-backend/internal/apperr"
	"github.com/ummahconnect/community-backend/internal/auth"
	"github.com/ummahconnect/community-backend/internal/httpx"
)

const accessContextKey = "access_context"

// AccessContext is the authenticated caller as seen by handlers.
type AccessContext struct {
	UserID uint
	Role   string
}

// IsStaff reports whether the caller manages events on behalf of others.
func (a AccessContext) IsStaff() bool {
	return auth.IsStaffRole(a.Role)
}

// CanActFor reports whether the caller may change records owned by userID.
func (a AccessContext) CanActFor(userID uint) bool {
	return a.UserID == userID || a.IsStaff()
}

// AuthMiddleware validates the Bearer access token and loads the caller.
func AuthMiddleware(authSvc auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			httpx.Error(c, apperr.WithMessage(apperr.ErrUnauthorized, "missing Authorization header"))
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			httpx.Error(c, apperr.WithMessage(apperr.ErrUnauthorized, "invalid Authorization header"))
			return
		}

		claims, err := authSvc.ParseAccessToken(parts[1])
		if err != nil {
			httpx.Error(c, err)
			return
		}

		user, err := authSvc.GetUserByID(c.Request.Context(), claims.UserID)
		if err != nil {
			httpx.Error(c, apperr.WithMessage(apperr.ErrUnauthorized, "user not found"))
			return
		}
		if user.Status != auth.StatusActive {
			httpx.Error(c, apperr.WithMessage(apperr.ErrForbidden, "your account is inactive"))
			return
		}

		// The stored role wins over the token claim so demotions apply immediately.
		c.Set("user", *user)
		c.Set("user_id", user.ID)
		c.Set(accessContextKey, AccessContext{UserID: user.ID, Role: user.Role})

		c.Next()
	}
}

// GetAccessContext returns the caller set by AuthMiddleware.
func GetAccessContext(c *gin.Context) (AccessContext, bool) {
	raw, exists := c.Get(accessContextKey)
	if !exists {
		return AccessContext{}, false
	}
	ac, ok := raw.(AccessContext)
	return ac, ok
}

// MustAccessContext is GetAccessContext for handlers mounted behind
// AuthMiddleware. It writes the 401 itself and reports false when missing.
func MustAccessContext(c *gin.Context) (AccessContext, bool) {
	ac, ok := GetAccessContext(c)
	if !ok {
		httpx.Error(c, apperr.WithMessage(apperr.ErrUnauthorized, "access context missing"))
	}
	return ac, ok
}
