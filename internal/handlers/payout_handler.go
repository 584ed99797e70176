package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/akylbek/payment-system/payout-service/internal/apperrors"
	"github.com/akylbek/payment-system/payout-service/internal/models"
	"github.com/akylbek/payment-system/payout-service/internal/service"
	"github.com/akylbek/payment-system/payout-service/internal/telemetry"
)

type PayoutHandler struct {
	service *service.PayoutService
}

func NewPayoutHandler(s *service.PayoutService) *PayoutHandler {
	return &PayoutHandler{service: s}
}

func (h *PayoutHandler) CreatePayout(c *gin.Context) {
	var in models.CreatePayoutInput
	if err := c.ShouldBindJSON(&in); err != nil {
		telemetry.Logger.Error("Error decoding payout request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	p, err := h.service.Create(c.Request.Context(), &in)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, p)
}

func (h *PayoutHandler) ListPayouts(c *gin.Context) {
	filter := models.PayoutFilter{
		Status:   models.Status(c.Query("status")),
		Currency: c.Query("currency"),
	}
	if filter.Status != "" && !filter.Status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"errors": gin.H{"status": "unknown status " + string(filter.Status)}})
		return
	}

	payouts, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}
	if payouts == nil {
		payouts = []*models.PayoutRequest{}
	}
	c.JSON(http.StatusOK, payouts)
}

func (h *PayoutHandler) GetPayout(c *gin.Context) {
	p, err := h.service.Get(c.Request.Context(), c.Param("external_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *PayoutHandler) UpdatePayout(c *gin.Context) {
	var in models.UpdatePayoutInput
	if err := c.ShouldBindJSON(&in); err != nil {
		telemetry.Logger.Error("Error decoding payout update", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	p, err := h.service.Update(c.Request.Context(), c.Param("external_id"), &in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *PayoutHandler) DeletePayout(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("external_id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// writeError maps the error taxonomy onto HTTP responses: ValidationError →
// 400 with field messages, NotFoundError → 404, ConflictError → 409,
// anything else → 500.
func writeError(c *gin.Context, err error) {
	var (
		validation *apperrors.ValidationError
		notFound   *apperrors.NotFoundError
		conflict   *apperrors.ConflictError
	)
	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"errors": validation.Fields})
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"error": notFound.Error()})
	case errors.As(err, &conflict):
		c.JSON(http.StatusConflict, gin.H{"detail": conflict.Reason})
	default:
		telemetry.Logger.Error("Unhandled error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
