package repository

import (
	"context"
	"sync"

	"github.com/Dhoini/Stars-subscription-service/internal/models"
)

// Количество шардов. Блокировка берется на шард, а не на всю таблицу:
// продления разных пользователей не конкурируют между собой.
const shardCount = 32

type memoryShard struct {
	mu    sync.RWMutex
	items map[int64]models.Subscriber
}

// MemorySubscriberStore реализует SubscriberStore поверх шардированной map.
// Используется по умолчанию, когда DSN базы данных не задан.
type MemorySubscriberStore struct {
	shards [shardCount]*memoryShard
}

// NewMemorySubscriberStore создает новое in-memory хранилище подписчиков.
func NewMemorySubscriberStore() *MemorySubscriberStore {
	s := &MemorySubscriberStore{}
	for i := range s.shards {
		s.shards[i] = &memoryShard{items: make(map[int64]models.Subscriber)}
	}
	return s
}

func (s *MemorySubscriberStore) shard(userID int64) *memoryShard {
	return s.shards[uint64(userID)%shardCount]
}

// Get возвращает запись подписчика из памяти.
func (s *MemorySubscriberStore) Get(_ context.Context, userID int64) (models.Subscriber, bool, error) {
	sh := s.shard(userID)
	sh.mu.RLock()
	defer sh.mu.RUnlock()

	sub, ok := sh.items[userID]
	return sub, ok, nil
}

// CompareAndSet записывает next под блокировкой шарда, если состояние ключа
// не изменилось с момента чтения prev. Состоянием считается expires_at.
func (s *MemorySubscriberStore) CompareAndSet(_ context.Context, prev models.Subscriber, prevExists bool, next models.Subscriber) (bool, error) {
	sh := s.shard(next.UserID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	cur, ok := sh.items[next.UserID]
	if ok != prevExists {
		return false, nil
	}
	if ok && !cur.ExpiresAt.Equal(prev.ExpiresAt) {
		return false, nil
	}

	sh.items[next.UserID] = next
	return true, nil
}
