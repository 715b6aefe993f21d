package services

import (
	"errors"
	"fmt"

	"github.com/Dhoini/Stars-subscription-service/internal/config"
	"github.com/Dhoini/Stars-subscription-service/internal/models"
	"github.com/Dhoini/Stars-subscription-service/internal/payload"
)

// --- Ошибки валидации платежей ---
var (
	// ErrBadCurrency валюта платежа не совпадает с валютой платформы
	ErrBadCurrency = errors.New("bad payment currency")

	// ErrAmountOutOfRange сумма платежа вне допустимых границ
	ErrAmountOutOfRange = errors.New("payment amount out of range")

	// ErrPayloadUserMismatch payload выписан на другого пользователя
	ErrPayloadUserMismatch = errors.New("payload user mismatch")
)

// ValidatorService проверяет входящие платежи до обращения к хранилищу.
// Не имеет состояния и побочных эффектов: pre-checkout должен отвечаться
// мгновенно и не может считать платеж уже проведенным.
type ValidatorService struct {
	cfg *config.Config
}

// NewValidatorService создает новый валидатор платежей.
func NewValidatorService(cfg *config.Config) *ValidatorService {
	return &ValidatorService{cfg: cfg}
}

// BuildIntent формирует инвойс для пользователя по предложению из конфигурации.
// Длительность подписки кодируется в payload и при подтверждении читается
// оттуда же: изменение тарифной таблицы не переоценивает выставленный инвойс.
func (s *ValidatorService) BuildIntent(userID int64) (models.PaymentIntent, error) {
	amount := s.cfg.Payments.DefaultAmount
	days := s.cfg.DurationDaysForAmount(amount)

	pl, err := payload.Build(userID, days)
	if err != nil {
		return models.PaymentIntent{}, err
	}

	return models.PaymentIntent{
		UserID:       userID,
		Amount:       amount,
		Currency:     s.cfg.Payments.Currency,
		DurationDays: days,
		Payload:      pl,
	}, nil
}

// ValidatePreCheckout решает, принимать ли платеж до его проведения провайдером.
// Принятие требует точного совпадения валюты, суммы в границах
// [minAmount, maxAmount] включительно и разбираемого payload.
func (s *ValidatorService) ValidatePreCheckout(req models.PreCheckoutRequest) error {
	p := s.cfg.Payments

	if req.Currency != p.Currency {
		return fmt.Errorf("%w: got %q, want %q", ErrBadCurrency, req.Currency, p.Currency)
	}
	if req.TotalAmount < p.MinAmount || req.TotalAmount > p.MaxAmount {
		return fmt.Errorf("%w: %d not in [%d, %d]", ErrAmountOutOfRange, req.TotalAmount, p.MinAmount, p.MaxAmount)
	}
	if _, _, err := payload.Parse(req.Payload); err != nil {
		return err
	}

	return nil
}

// RejectReason переводит ошибку валидации в стабильный код причины отказа
// для ответа провайдеру и меток метрик.
func RejectReason(err error) string {
	switch {
	case errors.Is(err, ErrBadCurrency):
		return "bad_currency"
	case errors.Is(err, ErrAmountOutOfRange):
		return "amount_out_of_range"
	case errors.Is(err, payload.ErrMalformedPayload):
		return "malformed_payload"
	case errors.Is(err, ErrPayloadUserMismatch):
		return "payload_user_mismatch"
	default:
		return "validation_failed"
	}
}
