package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dhoini/Stars-subscription-service/internal/models"
	"github.com/Dhoini/Stars-subscription-service/pkg/logger"
	"github.com/jmoiron/sqlx"
)

// postgresSubscriberStore реализует SubscriberStore для PostgreSQL.
// CAS-семантика обеспечивается условным UPDATE по текущему expires_at.
type postgresSubscriberStore struct {
	db  *sqlx.DB
	log *logger.Logger
}

// NewPostgresSubscriberStore создает новый экземпляр хранилища для PostgreSQL.
func NewPostgresSubscriberStore(db *sqlx.DB, log *logger.Logger) SubscriberStore {
	return &postgresSubscriberStore{
		db:  db,
		log: log,
	}
}

// Get возвращает запись подписчика из базы данных.
func (r *postgresSubscriberStore) Get(ctx context.Context, userID int64) (models.Subscriber, bool, error) {
	var sub models.Subscriber
	query := `
        SELECT user_id, expires_at, created_at, updated_at
        FROM subscribers
        WHERE user_id = $1`

	err := r.db.GetContext(ctx, &sub, query, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Subscriber{}, false, nil
		}
		r.log.Errorw("Failed to get subscriber from DB", "error", err, "userID", userID)
		return models.Subscriber{}, false, fmt.Errorf("repository: failed to get subscriber: %w", err)
	}

	return sub, true, nil
}

// CompareAndSet записывает next, если состояние ключа не изменилось.
// Вставка новой записи защищена ON CONFLICT DO NOTHING, обновление -
// условием по прежнему expires_at; обе ветки возвращают false при гонке.
func (r *postgresSubscriberStore) CompareAndSet(ctx context.Context, prev models.Subscriber, prevExists bool, next models.Subscriber) (bool, error) {
	var (
		result sql.Result
		err    error
	)

	if !prevExists {
		query := `
            INSERT INTO subscribers (user_id, expires_at, created_at, updated_at)
            VALUES ($1, $2, $3, $4)
            ON CONFLICT (user_id) DO NOTHING`
		result, err = r.db.ExecContext(ctx, query, next.UserID, next.ExpiresAt, next.CreatedAt, next.UpdatedAt)
	} else {
		query := `
            UPDATE subscribers SET
                expires_at = $1,
                updated_at = $2
            WHERE user_id = $3 AND expires_at = $4`
		result, err = r.db.ExecContext(ctx, query, next.ExpiresAt, next.UpdatedAt, next.UserID, prev.ExpiresAt)
	}
	if err != nil {
		r.log.Errorw("Failed to write subscriber to DB", "error", err, "userID", next.UserID)
		return false, fmt.Errorf("repository: failed to write subscriber: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		r.log.Errorw("Failed to get rows affected after write", "error", err, "userID", next.UserID)
		return false, fmt.Errorf("repository: failed to check write result: %w", err)
	}

	if rowsAffected == 0 {
		// Проигрыш гонки за ключ, вызывающий перечитает состояние
		r.log.Debugw("Subscriber CAS lost the race", "userID", next.UserID)
		return false, nil
	}

	r.log.Debugw("Successfully wrote subscriber to DB", "userID", next.UserID, "expiresAt", next.ExpiresAt)
	return true, nil
}
