package repository

import (
	"context"

	"github.com/Dhoini/Stars-subscription-service/internal/models"
	"github.com/Dhoini/Stars-subscription-service/pkg/logger"
)

// CachedSubscriberStore оборачивает базовое хранилище read-through кешем.
// Запись всегда идет в базовое хранилище; кеш инвалидируется перед каждой
// попыткой CAS, чтобы проигравший гонку вызывающий перечитал свежее состояние,
// а не закешированное.
type CachedSubscriberStore struct {
	base  SubscriberStore
	cache *RedisCache
	log   *logger.Logger
}

// NewCachedSubscriberStore создает хранилище с кешированием поверх base.
func NewCachedSubscriberStore(base SubscriberStore, cache *RedisCache, log *logger.Logger) *CachedSubscriberStore {
	return &CachedSubscriberStore{
		base:  base,
		cache: cache,
		log:   log,
	}
}

// Get возвращает запись из кеша, при промахе - из базового хранилища.
func (s *CachedSubscriberStore) Get(ctx context.Context, userID int64) (models.Subscriber, bool, error) {
	if sub, found, err := s.cache.GetCachedSubscriber(ctx, userID); err == nil && found {
		return sub, true, nil
	} else if err != nil {
		// Ошибка кеша не фатальна, идем в базовое хранилище
		s.log.Warnw("Cache lookup failed, falling back to base store", "error", err, "userID", userID)
	}

	sub, found, err := s.base.Get(ctx, userID)
	if err != nil {
		return models.Subscriber{}, false, err
	}

	if found {
		if err := s.cache.CacheSubscriber(ctx, sub); err != nil {
			s.log.Warnw("Failed to populate subscriber cache", "error", err, "userID", userID)
		}
	}

	return sub, found, nil
}

// CompareAndSet делегирует запись базовому хранилищу, поддерживая кеш
// согласованным: инвалидация до записи, повторное кеширование после успеха.
func (s *CachedSubscriberStore) CompareAndSet(ctx context.Context, prev models.Subscriber, prevExists bool, next models.Subscriber) (bool, error) {
	if err := s.cache.InvalidateSubscriber(ctx, next.UserID); err != nil {
		s.log.Warnw("Failed to invalidate cache before write", "error", err, "userID", next.UserID)
	}

	ok, err := s.base.CompareAndSet(ctx, prev, prevExists, next)
	if err != nil || !ok {
		return ok, err
	}

	if err := s.cache.CacheSubscriber(ctx, next); err != nil {
		s.log.Warnw("Failed to refresh subscriber cache after write", "error", err, "userID", next.UserID)
	}

	return true, nil
}
