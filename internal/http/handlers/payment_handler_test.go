package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dhoini/Stars-subscription-service/internal/config"
	"github.com/Dhoini/Stars-subscription-service/internal/models"
	"github.com/Dhoini/Stars-subscription-service/internal/repository"
	"github.com/Dhoini/Stars-subscription-service/internal/services"
	"github.com/Dhoini/Stars-subscription-service/pkg/logger"
)

type noopMetrics struct{}

func (noopMetrics) IncPreCheckoutAccepted()              {}
func (noopMetrics) IncPreCheckoutRejected(string)        {}
func (noopMetrics) IncGrant(string)                      {}
func (noopMetrics) ObservePaymentAmount(float64, string) {}

func testRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{}
	cfg.Payments.Currency = "XTR"
	cfg.Payments.MinAmount = 1
	cfg.Payments.MaxAmount = 2500
	cfg.Payments.DefaultAmount = 10
	cfg.Payments.DefaultDurationDays = 1

	log := logger.NewNop()
	validator := services.NewValidatorService(cfg)
	entitlement := services.NewEntitlementService(
		repository.NewMemorySubscriberStore(), validator, nil, noopMetrics{}, log)

	paymentHandler := NewPaymentHandler(validator, entitlement, noopMetrics{}, log)
	subscriberHandler := NewSubscriberHandler(entitlement, log)

	router := gin.New()
	router.POST("/invoices", paymentHandler.CreateInvoice)
	router.POST("/payments/pre-checkout", paymentHandler.PreCheckout)
	router.POST("/payments/confirm", paymentHandler.ConfirmPayment)
	router.GET("/subscribers/:user_id/status", subscriberHandler.Status)
	return router
}

func doRequest(t *testing.T, router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCreateInvoice(t *testing.T) {
	router := testRouter(t)

	w := doRequest(t, router, http.MethodPost, "/invoices", `{"user_id": 42}`)
	require.Equal(t, http.StatusCreated, w.Code)

	var intent models.PaymentIntent
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &intent))
	assert.Equal(t, int64(42), intent.UserID)
	assert.Equal(t, int64(10), intent.Amount)
	assert.Equal(t, "XTR", intent.Currency)
	assert.Equal(t, "premium_42_1", intent.Payload)
}

func TestCreateInvoiceRejectsBadRequest(t *testing.T) {
	router := testRouter(t)

	cases := []struct {
		name string
		body string
	}{
		{"invalid json", `{user_id}`},
		{"missing user id", `{}`},
		{"negative user id", `{"user_id": -1}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doRequest(t, router, http.MethodPost, "/invoices", tc.body)
			assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		})
	}
}

func TestPreCheckoutApproves(t *testing.T) {
	router := testRouter(t)

	w := doRequest(t, router, http.MethodPost, "/payments/pre-checkout",
		`{"currency": "XTR", "total_amount": 10, "invoice_payload": "premium_42_1"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var answer PreCheckoutAnswer
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &answer))
	assert.True(t, answer.OK)
	assert.Empty(t, answer.ErrorMessage)
}

func TestPreCheckoutRejectsWithReason(t *testing.T) {
	router := testRouter(t)

	cases := []struct {
		name       string
		body       string
		wantReason string
	}{
		{
			name:       "wrong currency",
			body:       `{"currency": "USD", "total_amount": 10, "invoice_payload": "premium_42_1"}`,
			wantReason: "bad_currency",
		},
		{
			name:       "amount above limit",
			body:       `{"currency": "XTR", "total_amount": 2501, "invoice_payload": "premium_42_1"}`,
			wantReason: "amount_out_of_range",
		},
		{
			name:       "malformed payload",
			body:       `{"currency": "XTR", "total_amount": 10, "invoice_payload": "garbage"}`,
			wantReason: "malformed_payload",
		},
		{
			// Нулевая сумма - это сумма вне границ, а не невалидный запрос
			name:       "zero amount",
			body:       `{"currency": "XTR", "total_amount": 0, "invoice_payload": "premium_42_1"}`,
			wantReason: "amount_out_of_range",
		},
		{
			name:       "empty currency",
			body:       `{"total_amount": 10, "invoice_payload": "premium_42_1"}`,
			wantReason: "bad_currency",
		},
		{
			name:       "empty payload",
			body:       `{"currency": "XTR", "total_amount": 10}`,
			wantReason: "malformed_payload",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doRequest(t, router, http.MethodPost, "/payments/pre-checkout", tc.body)

			// Отказ - тоже ответ провайдеру, статус всегда 200
			require.Equal(t, http.StatusOK, w.Code)

			var answer PreCheckoutAnswer
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &answer))
			assert.False(t, answer.OK)
			assert.Equal(t, tc.wantReason, answer.ErrorMessage)
		})
	}
}

func TestConfirmPaymentAndStatus(t *testing.T) {
	router := testRouter(t)

	w := doRequest(t, router, http.MethodPost, "/payments/confirm",
		`{"user_id": 42, "currency": "XTR", "total_amount": 10, "invoice_payload": "premium_42_1"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var confirm ConfirmPaymentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &confirm))
	assert.Equal(t, int64(42), confirm.UserID)

	expiresAt, err := time.Parse(time.RFC3339, confirm.ExpiresAt)
	require.NoError(t, err)
	assert.True(t, expiresAt.After(time.Now()))

	w = doRequest(t, router, http.MethodGet, "/subscribers/42/status", "")
	require.Equal(t, http.StatusOK, w.Code)

	var status SubscriberStatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, int64(42), status.UserID)
	assert.True(t, status.Active)
	assert.Equal(t, confirm.ExpiresAt, status.ExpiresAt)
}

func TestConfirmPaymentRejectsInvalidPayment(t *testing.T) {
	router := testRouter(t)

	cases := []struct {
		name     string
		body     string
		wantCode int
	}{
		{
			name:     "wrong currency",
			body:     `{"user_id": 42, "currency": "USD", "total_amount": 10, "invoice_payload": "premium_42_1"}`,
			wantCode: http.StatusUnprocessableEntity,
		},
		{
			name:     "payload for another user",
			body:     `{"user_id": 7, "currency": "XTR", "total_amount": 10, "invoice_payload": "premium_42_1"}`,
			wantCode: http.StatusUnprocessableEntity,
		},
		{
			name:     "invalid json",
			body:     `{`,
			wantCode: http.StatusUnprocessableEntity,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doRequest(t, router, http.MethodPost, "/payments/confirm", tc.body)
			assert.Equal(t, tc.wantCode, w.Code)
		})
	}

	// Невалидные подтверждения не выдают подписку
	w := doRequest(t, router, http.MethodGet, "/subscribers/42/status", "")
	require.Equal(t, http.StatusOK, w.Code)

	var status SubscriberStatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.False(t, status.Active)
}

func TestSubscriberStatusBadUserID(t *testing.T) {
	router := testRouter(t)

	for _, path := range []string{"/subscribers/abc/status", "/subscribers/-1/status", "/subscribers/0/status"} {
		w := doRequest(t, router, http.MethodGet, path, "")
		assert.Equal(t, http.StatusBadRequest, w.Code, path)
	}
}

func TestSubscriberStatusUnknownUser(t *testing.T) {
	router := testRouter(t)

	w := doRequest(t, router, http.MethodGet, "/subscribers/999/status", "")
	require.Equal(t, http.StatusOK, w.Code)

	var status SubscriberStatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.False(t, status.Active)
	assert.Empty(t, status.ExpiresAt)
}
