package delivery

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/bloodlink/delivery-api/internal/handler"
	"github.com/bloodlink/delivery-api/internal/model"
	"github.com/bloodlink/delivery-api/internal/service/delivery"
	apperrors "github.com/bloodlink/delivery-api/pkg/errors"
)

type Handler struct {
	svc *delivery.Service
}

func NewHandler(svc *delivery.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	deliveries := r.Group("/deliveries")
	{
		deliveries.POST("", h.Create)
		deliveries.GET("", h.List)
		deliveries.GET("/:id", h.Get)
		deliveries.PUT("/:id", h.Update)
		deliveries.PATCH("/:id", h.Update)
		deliveries.DELETE("/:id", h.Delete)
		deliveries.POST("/:id/accept_job", h.AcceptJob)
		deliveries.POST("/:id/scan_qr", h.ScanQR)
		deliveries.POST("/:id/confirm_delivery", h.ConfirmDelivery)
	}
	r.GET("/accepted_deliveries", h.ListAccepted)
}

func (h *Handler) Create(c *gin.Context) {
	if _, ok := handler.StaffIDFromContext(c); !ok {
		handler.RespondError(c, apperrors.Unauthenticated("missing identity"))
		return
	}

	var req model.CreateDeliveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	created, err := h.svc.Create(c.Request.Context(), &req)
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

	deliveries, err := h.svc.List(c.Request.Context(), staffID)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(deliveries))
}

func (h *Handler) ListAccepted(c *gin.Context) {
	staffID, ok := handler.StaffIDFromContext(c)
	if !ok {
		handler.RespondError(c, apperrors.Unauthenticated("missing identity"))
		return
	}

	deliveries, err := h.svc.ListAccepted(c.Request.Context(), staffID)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(deliveries))
}

func (h *Handler) Get(c *gin.Context) {
	staffID, id, ok := h.identityAndID(c)
	if !ok {
		return
	}

	d, err := h.svc.Get(c.Request.Context(), id, staffID)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(d))
}

func (h *Handler) Update(c *gin.Context) {
	staffID, id, ok := h.identityAndID(c)
	if !ok {
		return
	}

	var req model.UpdateDeliveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	updated, err := h.svc.Update(c.Request.Context(), id, staffID, &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(updated))
}

func (h *Handler) Delete(c *gin.Context) {
	staffID, id, ok := h.identityAndID(c)
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), id, staffID); err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse("delivery deleted"))
}

func (h *Handler) AcceptJob(c *gin.Context) {
	staffID, id, ok := h.identityAndID(c)
	if !ok {
		return
	}

	d, err := h.svc.AcceptJob(c.Request.Context(), id, staffID)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{
		"status":   "delivery job accepted",
		"delivery": d,
	}))
}

func (h *Handler) ScanQR(c *gin.Context) {
	staffID, id, ok := h.identityAndID(c)
	if !ok {
		return
	}

	var req model.ScanQRRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	d, err := h.svc.ScanQR(c.Request.Context(), id, staffID, req.QRData)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{
		"status":   "delivery picked up",
		"delivery": d,
	}))
}

func (h *Handler) ConfirmDelivery(c *gin.Context) {
	staffID, id, ok := h.identityAndID(c)
	if !ok {
		return
	}

	d, err := h.svc.ConfirmDelivery(c.Request.Context(), id, staffID)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{
		"status":   "delivery confirmed",
		"delivery": d,
	}))
}

// identityAndID resolves the caller and the :id path parameter,
// answering the request itself when either is missing.
func (h *Handler) identityAndID(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	staffID, ok := handler.StaffIDFromContext(c)
	if !ok {
		handler.RespondError(c, apperrors.Unauthenticated("missing identity"))
		return uuid.Nil, uuid.Nil, false
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		handler.RespondError(c, apperrors.Validation("invalid delivery id", err))
		return uuid.Nil, uuid.Nil, false
	}
	return staffID, id, true
}
