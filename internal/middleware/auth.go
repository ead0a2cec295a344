package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"

	"github.com/bloodlink/delivery-api/internal/handler"
	"github.com/bloodlink/delivery-api/internal/model"
	"github.com/bloodlink/delivery-api/internal/service/auth"
)

type AuthMiddleware struct {
	authService *auth.Service
	tokenCache  *cache.Cache
}

func NewAuthMiddleware(authService *auth.Service, cacheTTL time.Duration) *AuthMiddleware {
	return &AuthMiddleware{
		authService: authService,
		tokenCache:  cache.New(cacheTTL, 2*cacheTTL),
	}
}

// Authenticate resolves the bearer token to a staff member and sets it
// in the request context. Recently seen tokens are served from cache.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("missing authorization header"))
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid authorization format"))
			c.Abort()
			return
		}
		token := parts[1]

		var staff *model.StaffMember
		if cached, found := m.tokenCache.Get(token); found {
			staff = cached.(*model.StaffMember)
		} else {
			resolved, err := m.authService.Authenticate(c.Request.Context(), token)
			if err != nil {
				c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid token"))
				c.Abort()
				return
			}
			m.tokenCache.Set(token, resolved, cache.DefaultExpiration)
			staff = resolved
		}

		c.Set(handler.ContextStaff, staff)
		c.Set(handler.ContextStaffID, staff.ID)
		c.Next()
	}
}

// InvalidateToken drops a cached token, used on logout so the
// revocation takes effect immediately.
func (m *AuthMiddleware) InvalidateToken(token string) {
	m.tokenCache.Delete(token)
}
