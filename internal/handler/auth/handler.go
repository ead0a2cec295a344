package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/bloodlink/delivery-api/internal/handler"
	"github.com/bloodlink/delivery-api/internal/model"
	"github.com/bloodlink/delivery-api/internal/service/auth"
	apperrors "github.com/bloodlink/delivery-api/pkg/errors"
)

type Handler struct {
	svc *auth.Service
	// invalidate drops a token from the middleware cache so a logout
	// takes effect before the cache entry expires.
	invalidate func(token string)
}

func NewHandler(svc *auth.Service, invalidate func(token string)) *Handler {
	return &Handler{svc: svc, invalidate: invalidate}
}

// RegisterPublicRoutes mounts login
func (h *Handler) RegisterPublicRoutes(r *gin.RouterGroup) {
	r.POST("/auth/login", h.Login)
}

// RegisterRoutes mounts the authenticated endpoints
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/auth/logout", h.Logout)
}

func (h *Handler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	tokens, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(tokens))
}

func (h *Handler) Logout(c *gin.Context) {
	staffID, ok := handler.StaffIDFromContext(c)
	if !ok {
		handler.RespondError(c, apperrors.Unauthenticated("missing identity"))
		return
	}

	if err := h.svc.Logout(c.Request.Context(), staffID); err != nil {
		handler.RespondError(c, err)
		return
	}

	if h.invalidate != nil {
		parts := strings.Split(c.GetHeader("Authorization"), " ")
		if len(parts) == 2 {
			h.invalidate(parts[1])
		}
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse("logged out successfully"))
}
