package staff

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bloodlink/delivery-api/internal/handler"
	"github.com/bloodlink/delivery-api/internal/model"
	"github.com/bloodlink/delivery-api/internal/service/staff"
	apperrors "github.com/bloodlink/delivery-api/pkg/errors"
)

type Handler struct {
	svc *staff.Service
}

func NewHandler(svc *staff.Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterPublicRoutes mounts the unauthenticated endpoints
func (h *Handler) RegisterPublicRoutes(r *gin.RouterGroup) {
	r.POST("/register", h.Register)
	r.GET("/confirm-email/:token", h.ConfirmEmail)

	auth := r.Group("/auth")
	{
		auth.POST("/forgot-password", h.ForgotPassword)
		auth.POST("/reset-password", h.ResetPassword)
	}
}

// RegisterRoutes mounts the authenticated self-profile endpoints
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	me := r.Group("/delivery-staff")
	{
		me.GET("/me", h.Me)
		me.PUT("/me", h.UpdateMe)
	}
}

func (h *Handler) Register(c *gin.Context) {
	var req model.RegisterStaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	created, err := h.svc.Register(c.Request.Context(), &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(created))
}

func (h *Handler) ConfirmEmail(c *gin.Context) {
	if err := h.svc.ConfirmEmail(c.Request.Context(), c.Param("token")); err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse("email confirmed, you can now log in"))
}

func (h *Handler) Me(c *gin.Context) {
	staffID, ok := handler.StaffIDFromContext(c)
	if !ok {
		handler.RespondError(c, apperrors.Unauthenticated("missing identity"))
		return
	}

	member, err := h.svc.Get(c.Request.Context(), staffID)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(member))
}

func (h *Handler) UpdateMe(c *gin.Context) {
	staffID, ok := handler.StaffIDFromContext(c)
	if !ok {
		handler.RespondError(c, apperrors.Unauthenticated("missing identity"))
		return
	}

	var req model.UpdateStaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	member, err := h.svc.UpdateSelf(c.Request.Context(), staffID, &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(member))
}

func (h *Handler) ForgotPassword(c *gin.Context) {
	var req model.ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	// Unknown emails and send failures get the same success answer as
	// a delivered reset link, so the endpoint is not an account oracle.
	if err := h.svc.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse("if the email exists, a reset link will be sent"))
}

func (h *Handler) ResetPassword(c *gin.Context) {
	var req model.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	if err := h.svc.ConfirmPasswordReset(c.Request.Context(), req.Token, req.NewPassword); err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse("password reset successfully"))
}
