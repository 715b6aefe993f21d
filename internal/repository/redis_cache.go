package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/Dhoini/Stars-subscription-service/internal/models"
	"github.com/Dhoini/Stars-subscription-service/pkg/logger"
	"github.com/redis/go-redis/v9"
)

const (
	// Префикс ключей подписчиков в Redis
	subscriberKeyPrefix = "subscriber:"

	// TTL для кэша
	defaultCacheTTL = 5 * time.Minute
)

// RedisCache реализует кеширование записей подписчиков в Redis.
type RedisCache struct {
	client *redis.Client
	log    *logger.Logger
}

// NewRedisCache создает новый Redis-кеш и проверяет соединение.
func NewRedisCache(addr, password string, db int, log *logger.Logger) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Errorw("Failed to connect to Redis", "error", err, "addr", addr)
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Infow("Connected to Redis successfully", "addr", addr)
	return &RedisCache{
		client: client,
		log:    log,
	}, nil
}

// Close закрывает соединение с Redis.
func (r *RedisCache) Close() error {
	return r.client.Close()
}

func subscriberKey(userID int64) string {
	return subscriberKeyPrefix + strconv.FormatInt(userID, 10)
}

// CacheSubscriber кеширует запись подписчика.
func (r *RedisCache) CacheSubscriber(ctx context.Context, sub models.Subscriber) error {
	data, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("failed to marshal subscriber: %w", err)
	}

	if err := r.client.Set(ctx, subscriberKey(sub.UserID), data, defaultCacheTTL).Err(); err != nil {
		r.log.Errorw("Failed to cache subscriber in Redis", "error", err, "userID", sub.UserID)
		return fmt.Errorf("failed to cache subscriber: %w", err)
	}

	r.log.Debugw("Subscriber cached successfully", "userID", sub.UserID)
	return nil
}

// GetCachedSubscriber возвращает запись подписчика из кеша.
// Отсутствие ключа не считается ошибкой: возвращается found == false.
func (r *RedisCache) GetCachedSubscriber(ctx context.Context, userID int64) (models.Subscriber, bool, error) {
	data, err := r.client.Get(ctx, subscriberKey(userID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return models.Subscriber{}, false, nil
		}
		r.log.Errorw("Error getting subscriber from Redis", "error", err, "userID", userID)
		return models.Subscriber{}, false, fmt.Errorf("failed to get subscriber from cache: %w", err)
	}

	var sub models.Subscriber
	if err := json.Unmarshal(data, &sub); err != nil {
		r.log.Errorw("Failed to unmarshal cached subscriber", "error", err, "userID", userID)
		return models.Subscriber{}, false, fmt.Errorf("failed to unmarshal cached subscriber: %w", err)
	}

	return sub, true, nil
}

// InvalidateSubscriber удаляет запись подписчика из кеша.
func (r *RedisCache) InvalidateSubscriber(ctx context.Context, userID int64) error {
	if err := r.client.Del(ctx, subscriberKey(userID)).Err(); err != nil {
		r.log.Errorw("Failed to invalidate subscriber cache", "error", err, "userID", userID)
		return fmt.Errorf("failed to invalidate subscriber cache: %w", err)
	}

	r.log.Debugw("Subscriber cache invalidated", "userID", userID)
	return nil
}
