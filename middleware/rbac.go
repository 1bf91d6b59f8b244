package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/ummahconnect/community-backend/internal/apperr"
	"github.com/ummahconnect/community-backend/internal/httpx"
)

// RequireRoles lets the request through only when the caller has one of roles.
func RequireRoles(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(c *gin.Context) {
		ac, ok := GetAccessContext(c)
		if !ok {
			httpx.Error(c, apperr.WithMessage(apperr.ErrUnauthorized, "unauthenticated"))
			return
		}
		if _, ok := allowed[ac.Role]; !ok {
			httpx.Error(c, apperr.ErrForbidden)
			return
		}
		c.Next()
	}
}
