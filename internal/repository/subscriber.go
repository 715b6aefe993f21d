package repository

import (
	"context"

	"github.com/Dhoini/Stars-subscription-service/internal/models"
)

// SubscriberStore определяет контракт хранилища подписчиков.
// Семантика per-key CAS позволяет запускать одну и ту же логику продления
// поверх in-memory таблицы или долговременного хранилища с оптимистичной
// конкурентностью, не меняя сервисный слой.
type SubscriberStore interface {
	// Get возвращает запись подписчика. found == false, если пользователь
	// никогда не оформлял подписку.
	Get(ctx context.Context, userID int64) (sub models.Subscriber, found bool, err error)

	// CompareAndSet атомарно записывает next, если текущее состояние ключа
	// совпадает с prev (prevExists == false означает отсутствие записи).
	// Возвращает false без ошибки при проигрыше гонки за ключ - вызывающий
	// перечитывает состояние и повторяет попытку.
	CompareAndSet(ctx context.Context, prev models.Subscriber, prevExists bool, next models.Subscriber) (bool, error)
}
