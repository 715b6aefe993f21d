package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Dhoini/Stars-subscription-service/internal/metrics"
	"github.com/Dhoini/Stars-subscription-service/internal/models"
	"github.com/Dhoini/Stars-subscription-service/internal/services"
	"github.com/Dhoini/Stars-subscription-service/pkg/logger"
	"github.com/Dhoini/Stars-subscription-service/pkg/req"
	"github.com/Dhoini/Stars-subscription-service/pkg/res"
)

// PaymentHandler обрабатывает HTTP запросы платежного цикла:
// выставление инвойса, pre-checkout и подтверждение оплаты.
type PaymentHandler struct {
	validator   *services.ValidatorService
	entitlement *services.EntitlementService
	metrics     metrics.PaymentMetrics
	log         *logger.Logger
}

// NewPaymentHandler создает новый экземпляр PaymentHandler.
func NewPaymentHandler(
	validator *services.ValidatorService,
	entitlement *services.EntitlementService,
	m metrics.PaymentMetrics,
	log *logger.Logger,
) *PaymentHandler {
	return &PaymentHandler{
		validator:   validator,
		entitlement: entitlement,
		metrics:     m,
		log:         log,
	}
}

// --- DTO ---

type CreateInvoiceRequest struct {
	UserID int64 `json:"user_id" validate:"required,gt=0"`
}

// PreCheckoutDTO намеренно без binding-тегов: пустая валюта или нулевая
// сумма - это отказ с причиной из валидатора, а не невалидный запрос.
type PreCheckoutDTO struct {
	Currency    string `json:"currency"`
	TotalAmount int64  `json:"total_amount"`
	Payload     string `json:"invoice_payload"`
}

// PreCheckoutAnswer повторяет семантику ответа провайдеру: ok либо причина.
type PreCheckoutAnswer struct {
	OK           bool   `json:"ok"`
	ErrorMessage string `json:"error_message,omitempty"`
}

type ConfirmPaymentRequest struct {
	UserID      int64  `json:"user_id" validate:"required,gt=0"`
	Currency    string `json:"currency" validate:"required"`
	TotalAmount int64  `json:"total_amount" validate:"required"`
	Payload     string `json:"invoice_payload" validate:"required"`
}

type ConfirmPaymentResponse struct {
	UserID    int64  `json:"user_id"`
	ExpiresAt string `json:"expires_at"`
}

// --- Обработчики ---

// CreateInvoice обрабатывает POST /invoices
func (h *PaymentHandler) CreateInvoice(c *gin.Context) {
	request, err := req.Decode[CreateInvoiceRequest](c.Request.Body)
	if err != nil {
		h.log.Errorw("Failed to decode invoice request body", "error", err)
		res.JsonResponse(c.Writer, res.ErrorResponse{Error: "Invalid request format"}, http.StatusUnprocessableEntity)
		c.Abort()
		return
	}

	if err := req.IsValid(request); err != nil {
		h.log.Errorw("Invoice request validation failed", "error", err)
		res.JsonResponse(c.Writer, res.ErrorResponse{Error: "Invalid request data", Details: err.Error()}, http.StatusUnprocessableEntity)
		c.Abort()
		return
	}

	intent, err := h.validator.BuildIntent(request.UserID)
	if err != nil {
		h.log.Errorw("Failed to build payment intent", "error", err, "userID", request.UserID)
		res.JsonResponse(c.Writer, res.ErrorResponse{Error: "Failed to build invoice"}, http.StatusInternalServerError)
		c.Abort()
		return
	}

	h.log.Infow("Invoice issued", "userID", intent.UserID, "amount", intent.Amount, "days", intent.DurationDays)
	res.JsonResponse(c.Writer, intent, http.StatusCreated)
}

// PreCheckout обрабатывает POST /payments/pre-checkout.
// Ответ обязателен в любом случае: неотвеченный pre-checkout истекает
// на стороне провайдера. Отказ всегда содержит причину.
func (h *PaymentHandler) PreCheckout(c *gin.Context) {
	request, err := req.Decode[PreCheckoutDTO](c.Request.Body)
	if err != nil {
		h.log.Errorw("Failed to decode pre-checkout body", "error", err)
		res.JsonResponse(c.Writer, res.ErrorResponse{Error: "Invalid request format"}, http.StatusUnprocessableEntity)
		c.Abort()
		return
	}

	err = h.validator.ValidatePreCheckout(models.PreCheckoutRequest{
		Currency:    request.Currency,
		TotalAmount: request.TotalAmount,
		Payload:     request.Payload,
	})
	if err != nil {
		reason := services.RejectReason(err)
		h.metrics.IncPreCheckoutRejected(reason)
		h.log.Warnw("Pre-checkout rejected", "reason", reason, "currency", request.Currency, "amount", request.TotalAmount)
		res.JsonResponse(c.Writer, PreCheckoutAnswer{OK: false, ErrorMessage: reason}, http.StatusOK)
		return
	}

	h.metrics.IncPreCheckoutAccepted()
	h.log.Infow("Pre-checkout approved", "currency", request.Currency, "amount", request.TotalAmount)
	res.JsonResponse(c.Writer, PreCheckoutAnswer{OK: true}, http.StatusOK)
}

// ConfirmPayment обрабатывает POST /payments/confirm
func (h *PaymentHandler) ConfirmPayment(c *gin.Context) {
	ctx := c.Request.Context()

	request, err := req.Decode[ConfirmPaymentRequest](c.Request.Body)
	if err != nil {
		h.log.Errorw("Failed to decode payment confirmation body", "error", err)
		res.JsonResponse(c.Writer, res.ErrorResponse{Error: "Invalid request format"}, http.StatusUnprocessableEntity)
		c.Abort()
		return
	}

	if err := req.IsValid(request); err != nil {
		h.log.Errorw("Payment confirmation validation failed", "error", err)
		res.JsonResponse(c.Writer, res.ErrorResponse{Error: "Invalid request data", Details: err.Error()}, http.StatusUnprocessableEntity)
		c.Abort()
		return
	}

	expiresAt, err := h.entitlement.ConfirmPayment(ctx, models.PaymentConfirmation{
		UserID:      request.UserID,
		Currency:    request.Currency,
		TotalAmount: request.TotalAmount,
		Payload:     request.Payload,
	})
	if err != nil {
		// Провалившаяся после оплаты выдача - серьезный инцидент, не глотаем
		h.log.Errorw("Failed to confirm payment", "error", err, "userID", request.UserID)
		if errors.Is(err, services.ErrInvalidDuration) {
			res.JsonResponse(c.Writer, res.ErrorResponse{Error: "Internal server error"}, http.StatusInternalServerError)
		} else if reason := services.RejectReason(err); reason != "validation_failed" {
			res.JsonResponse(c.Writer, res.ErrorResponse{Error: reason}, http.StatusUnprocessableEntity)
		} else {
			res.JsonResponse(c.Writer, res.ErrorResponse{Error: "Failed to process payment"}, http.StatusInternalServerError)
		}
		c.Abort()
		return
	}

	res.JsonResponse(c.Writer, ConfirmPaymentResponse{
		UserID:    request.UserID,
		ExpiresAt: expiresAt.Format(time.RFC3339),
	}, http.StatusOK)
}
