package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bloodlink/delivery-api/internal/model"
)

// Context keys set by the auth middleware
const (
	ContextStaff   = "staff"
	ContextStaffID = "staffID"
)

// Handler contains dependencies for the shared endpoints
type Handler struct{}

// NewHandler creates a new handler instance
func NewHandler() *Handler {
	return &Handler{}
}

func (h *Handler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
		"time":   time.Now(),
	})
}

func (h *Handler) ReadinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now(),
	})
}

func (h *Handler) MetricsHandler(c *gin.Context) {
	promhttp.Handler().ServeHTTP(c.Writer, c.Request)
}

// StaffFromContext returns the authenticated staff member placed in
// the context by the auth middleware.
func StaffFromContext(c *gin.Context) (*model.StaffMember, bool) {
	v, ok := c.Get(ContextStaff)
	if !ok {
		return nil, false
	}
	staff, ok := v.(*model.StaffMember)
	return staff, ok
}

// StaffIDFromContext returns the authenticated staff member's id
func StaffIDFromContext(c *gin.Context) (uuid.UUID, bool) {
	staff, ok := StaffFromContext(c)
	if !ok {
		return uuid.Nil, false
	}
	return staff.ID, true
}
