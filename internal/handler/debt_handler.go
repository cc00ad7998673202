// internal/handler/debt_handler.go
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lilyxseo/HematWoi-sub009/internal/middleware"
	"github.com/lilyxseo/HematWoi-sub009/internal/models"
	"github.com/lilyxseo/HematWoi-sub009/internal/service"
)

type DebtHandler struct {
	service *service.DebtService
	logger  *zap.Logger
}

func NewDebtHandler(service *service.DebtService, logger *zap.Logger) *DebtHandler {
	return &DebtHandler{
		service: service,
		logger:  logger,
	}
}

// ListDebts handles GET /api/v1/debts
func (h *DebtHandler) ListDebts(c *gin.Context) {
	userID := c.GetString(middleware.ContextUserID)

	filter := &models.DebtFilter{
		Type:   models.DebtType(c.Query("type")),
		Status: models.DebtStatus(c.Query("status")),
		Query:  c.Query("q"),
		Sort:   c.Query("sort"),
	}

	resp, err := h.service.ListDebts(c.Request.Context(), userID, filter)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetDebt handles GET /api/v1/debts/:id
func (h *DebtHandler) GetDebt(c *gin.Context) {
	userID := c.GetString(middleware.ContextUserID)

	resp, err := h.service.GetDebt(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// CreateDebt handles POST /api/v1/debts
func (h *DebtHandler) CreateDebt(c *gin.Context) {
	userID := c.GetString(middleware.ContextUserID)

	var req models.CreateDebtRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	debt, err := h.service.CreateDebt(c.Request.Context(), userID, &req)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"debt": debt})
}

// UpdateDebt handles PUT /api/v1/debts/:id
func (h *DebtHandler) UpdateDebt(c *gin.Context) {
	userID := c.GetString(middleware.ContextUserID)

	var req models.UpdateDebtRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	debt, err := h.service.UpdateDebt(c.Request.Context(), userID, c.Param("id"), &req)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"debt": debt})
}

// DeleteDebt handles DELETE /api/v1/debts/:id
func (h *DebtHandler) DeleteDebt(c *gin.Context) {
	userID := c.GetString(middleware.ContextUserID)

	if err := h.service.DeleteDebt(c.Request.Context(), userID, c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Hutang berhasil dihapus"})
}

// CreateDebtPayment handles POST /api/v1/debts/:id/payments
func (h *DebtHandler) CreateDebtPayment(c *gin.Context) {
	userID := c.GetString(middleware.ContextUserID)

	var req models.CreateDebtPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.service.CreateDebtPayment(c.Request.Context(), userID, c.Param("id"), &req)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

// UpdateDebtPayment handles PUT /api/v1/debt-payments/:id
func (h *DebtHandler) UpdateDebtPayment(c *gin.Context) {
	userID := c.GetString(middleware.ContextUserID)

	var req models.UpdateDebtPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.service.UpdateDebtPayment(c.Request.Context(), userID, c.Param("id"), &req)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// DeleteDebtPayment handles DELETE /api/v1/debt-payments/:id
func (h *DebtHandler) DeleteDebtPayment(c *gin.Context) {
	userID := c.GetString(middleware.ContextUserID)

	// rollback of the linked transaction defaults to on
	withRollback := c.DefaultQuery("rollback", "true") != "false"

	debt, err := h.service.DeleteDebtPayment(c.Request.Context(), userID, c.Param("id"), withRollback)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"debt": debt})
}

// fail maps domain errors to stable statuses. Store faults surface as
// a generic message; the details are already logged by the service.
func (h *DebtHandler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrInvalidAmount),
		errors.Is(err, models.ErrInvalidTenor),
		errors.Is(err, models.ErrMissingAccount):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrOverpayRejected):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Terjadi kesalahan. Silakan coba lagi."})
	}
}
