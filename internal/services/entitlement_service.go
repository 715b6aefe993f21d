package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Dhoini/Stars-subscription-service/internal/kafka"
	"github.com/Dhoini/Stars-subscription-service/internal/metrics"
	"github.com/Dhoini/Stars-subscription-service/internal/models"
	"github.com/Dhoini/Stars-subscription-service/internal/payload"
	"github.com/Dhoini/Stars-subscription-service/internal/repository"
	"github.com/Dhoini/Stars-subscription-service/pkg/logger"

	"github.com/google/uuid"
)

// ErrInvalidDuration нарушение контракта вызывающим: Grant с неположительной
// длительностью. До этой проверки доходить не должно - валидатор отсекает
// такие payload раньше.
var ErrInvalidDuration = errors.New("non-positive grant duration")

// EntitlementService ведет реестр подписок: выдача и продление, проверка
// активности, чтение срока действия. Мутации атомарны по ключу пользователя
// через CAS-цикл над хранилищем.
type EntitlementService struct {
	store     repository.SubscriberStore
	validator *ValidatorService
	producer  kafka.Producer // Может быть nil, если Kafka недоступен
	metrics   metrics.PaymentMetrics
	log       *logger.Logger

	// Источник времени, подменяется в тестах
	now func() time.Time
}

// NewEntitlementService создает новый сервис реестра подписок.
func NewEntitlementService(
	store repository.SubscriberStore,
	validator *ValidatorService,
	producer kafka.Producer, // Принимаем интерфейс, может быть nil
	m metrics.PaymentMetrics,
	log *logger.Logger,
) *EntitlementService {
	if producer == nil {
		log.Warnw("Kafka producer is nil, grant event publishing will be skipped")
	}
	return &EntitlementService{
		store:     store,
		validator: validator,
		producer:  producer,
		metrics:   m,
		log:       log,
		now:       time.Now,
	}
}

// Grant продлевает подписку пользователя на durationDays дней.
// Продление считается от max(now, текущий expires_at): повторная покупка
// при активной подписке не теряет оплаченное время. Возвращает новый срок
// действия. Конкурентные Grant для одного пользователя эквивалентны
// последовательному применению в некотором порядке.
func (s *EntitlementService) Grant(ctx context.Context, userID int64, durationDays int) (time.Time, error) {
	if durationDays <= 0 {
		return time.Time{}, fmt.Errorf("%w: %d days for user %d", ErrInvalidDuration, durationDays, userID)
	}
	extension := time.Duration(durationDays) * 24 * time.Hour

	for {
		prev, found, err := s.store.Get(ctx, userID)
		if err != nil {
			return time.Time{}, fmt.Errorf("entitlement: failed to read subscriber: %w", err)
		}

		now := s.now().UTC()
		base := now
		if found && prev.ExpiresAt.After(now) {
			base = prev.ExpiresAt
		}

		next := models.Subscriber{
			UserID:    userID,
			ExpiresAt: base.Add(extension),
			CreatedAt: now,
			UpdatedAt: now,
		}
		if found {
			next.CreatedAt = prev.CreatedAt
		}

		ok, err := s.store.CompareAndSet(ctx, prev, found, next)
		if err != nil {
			return time.Time{}, fmt.Errorf("entitlement: failed to write subscriber: %w", err)
		}
		if ok {
			s.log.Infow("Premium subscription granted", "userID", userID, "days", durationDays, "expiresAt", next.ExpiresAt)
			return next.ExpiresAt, nil
		}

		// Проигрыш гонки за ключ: перечитываем состояние и повторяем
		s.log.Debugw("Grant lost CAS race, retrying", "userID", userID)
	}
}

// ConfirmPayment обрабатывает подтверждение успешного платежа от провайдера:
// повторно прогоняет проверки pre-checkout, восстанавливает получателя и
// длительность из payload и выдает продление. Ошибка после оплаты означает,
// что пользователь заплатил и ничего не получил - она всегда поднимается
// наверх, а не глотается.
func (s *EntitlementService) ConfirmPayment(ctx context.Context, conf models.PaymentConfirmation) (time.Time, error) {
	err := s.validator.ValidatePreCheckout(models.PreCheckoutRequest{
		Currency:    conf.Currency,
		TotalAmount: conf.TotalAmount,
		Payload:     conf.Payload,
	})
	if err != nil {
		s.log.Warnw("Payment confirmation failed validation", "error", err, "userID", conf.UserID)
		return time.Time{}, err
	}

	payloadUserID, durationDays, err := payload.Parse(conf.Payload)
	if err != nil {
		// Недостижимо после успешной валидации, но payload - единственная
		// связка инвойса с подтверждением, поэтому проверяем и здесь
		return time.Time{}, err
	}

	if conf.UserID != 0 && conf.UserID != payloadUserID {
		s.log.Warnw("Payment payload issued for another user",
			"confirmationUserID", conf.UserID, "payloadUserID", payloadUserID)
		return time.Time{}, fmt.Errorf("%w: confirmation for %d, payload for %d",
			ErrPayloadUserMismatch, conf.UserID, payloadUserID)
	}

	expiresAt, err := s.Grant(ctx, payloadUserID, durationDays)
	if err != nil {
		return time.Time{}, err
	}

	s.metrics.IncGrant(conf.Currency)
	s.metrics.ObservePaymentAmount(float64(conf.TotalAmount), conf.Currency)

	if s.producer != nil {
		event := models.GrantEvent{
			EventID:      uuid.NewString(),
			UserID:       payloadUserID,
			DurationDays: durationDays,
			Amount:       conf.TotalAmount,
			Currency:     conf.Currency,
			ExpiresAt:    expiresAt,
			GrantedAt:    s.now().UTC(),
		}
		// Публикуем асинхронно, чтобы не блокировать ответ провайдеру
		go s.publishGrantEvent(context.WithoutCancel(ctx), event)
	}

	return expiresAt, nil
}

// IsActive сообщает, действует ли подписка пользователя прямо сейчас.
func (s *EntitlementService) IsActive(ctx context.Context, userID int64) (bool, error) {
	sub, found, err := s.store.Get(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("entitlement: failed to read subscriber: %w", err)
	}
	return found && sub.ActiveAt(s.now().UTC()), nil
}

// Status возвращает срок действия и активность подписки из одного чтения
// хранилища: конкурентное продление не может рассинхронизировать пару
// active/expiresAt в ответе.
func (s *EntitlementService) Status(ctx context.Context, userID int64) (expiresAt time.Time, active bool, found bool, err error) {
	sub, found, err := s.store.Get(ctx, userID)
	if err != nil {
		return time.Time{}, false, false, fmt.Errorf("entitlement: failed to read subscriber: %w", err)
	}
	if !found {
		return time.Time{}, false, false, nil
	}
	return sub.ExpiresAt, sub.ActiveAt(s.now().UTC()), true, nil
}

// GetExpiry возвращает сохраненный срок действия подписки, в том числе
// истекший. found == false, если пользователь никогда не подписывался.
func (s *EntitlementService) GetExpiry(ctx context.Context, userID int64) (time.Time, bool, error) {
	sub, found, err := s.store.Get(ctx, userID)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("entitlement: failed to read subscriber: %w", err)
	}
	if !found {
		return time.Time{}, false, nil
	}
	return sub.ExpiresAt, true, nil
}

// publishGrantEvent отправляет событие о выдаче подписки в Kafka.
func (s *EntitlementService) publishGrantEvent(ctx context.Context, event models.GrantEvent) {
	kafkaCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := s.producer.PublishGrantEvent(kafkaCtx, event); err != nil {
		// Логируем ошибку, но не прерываем основной поток
		s.log.Errorw("Failed to publish grant event", "error", err, "eventID", event.EventID, "userID", event.UserID)
	}
}
