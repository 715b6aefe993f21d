package models

import "time"

// Subscriber представляет запись о премиум-подписке пользователя.
// Запись создается при первом успешном платеже и далее только обновляется.
type Subscriber struct {
	UserID    int64     `db:"user_id" json:"user_id"`       // ID пользователя на платформе
	ExpiresAt time.Time `db:"expires_at" json:"expires_at"` // Время окончания подписки (UTC)
	CreatedAt time.Time `db:"created_at" json:"created_at"` // Время создания записи
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"` // Время последнего продления
}

// ActiveAt сообщает, действует ли подписка в указанный момент времени.
// Статус "истекла" нигде не хранится и всегда вычисляется при чтении.
func (s Subscriber) ActiveAt(now time.Time) bool {
	return s.ExpiresAt.After(now)
}
