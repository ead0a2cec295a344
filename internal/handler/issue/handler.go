package issue

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/bloodlink/delivery-api/internal/handler"
	"github.com/bloodlink/delivery-api/internal/model"
	"github.com/bloodlink/delivery-api/internal/service/issue"
	apperrors "github.com/bloodlink/delivery-api/pkg/errors"
)

type Handler struct {
	svc *issue.Service
}

func NewHandler(svc *issue.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	issues := r.Group("/delivery-issues")
	{
		issues.POST("", h.Report)
		issues.GET("", h.List)
		issues.GET("/:id", h.Get)
	}
}

func (h *Handler) Report(c *gin.Context) {
	staffID, ok := handler.StaffIDFromContext(c)
	if !ok {
		handler.RespondError(c, apperrors.Unauthenticated("missing identity"))
		return
	}

	var req model.ReportIssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	created, err := h.svc.Report(c.Request.Context(), staffID, &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(created))
}

func (h *Handler) List(c *gin.Context) {
	staffID, ok := handler.StaffIDFromContext(c)
	if !ok {
		handler.RespondError(c, apperrors.Unauthenticated("missing identity"))
		return
	}

	issues, err := h.svc.ListForCaller(c.Request.Context(), staffID)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(issues))
}

func (h *Handler) Get(c *gin.Context) {
	staffID, ok := handler.StaffIDFromContext(c)
	if !ok {
		handler.RespondError(c, apperrors.Unauthenticated("missing identity"))
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		handler.RespondError(c, apperrors.Validation("invalid issue id", err))
		return
	}

	found, err := h.svc.Get(c.Request.Context(), id, staffID)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(found))
}
