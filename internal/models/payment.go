package models

import "time"

// PaymentIntent представляет выставленный инвойс. Существует только между
// выставлением инвойса и подтверждением оплаты, нигде не сохраняется:
// вся связка инвойс-подтверждение идет через round-trip поля Payload.
type PaymentIntent struct {
	UserID       int64  `json:"user_id"`
	Amount       int64  `json:"amount"`   // В минимальных единицах валюты платформы
	Currency     string `json:"currency"` // Код внутренней валюты, например "XTR"
	DurationDays int    `json:"duration_days"`
	Payload      string `json:"payload"` // Непрозрачная строка, возвращается провайдером как есть
}

// PreCheckoutRequest представляет запрос провайдера перед списанием средств.
// Единая типизированная структура вместо объектов конкретного транспорта.
type PreCheckoutRequest struct {
	Currency    string `json:"currency"`
	TotalAmount int64  `json:"total_amount"`
	Payload     string `json:"invoice_payload"`
}

// PaymentConfirmation представляет подтверждение успешного платежа от провайдера.
type PaymentConfirmation struct {
	UserID      int64  `json:"user_id"`
	Currency    string `json:"currency"`
	TotalAmount int64  `json:"total_amount"`
	Payload     string `json:"invoice_payload"`
}

// GrantEvent представляет событие о выданной подписке для публикации в Kafka.
type GrantEvent struct {
	EventID      string    `json:"event_id"`
	UserID       int64     `json:"user_id"`
	DurationDays int       `json:"duration_days"`
	Amount       int64     `json:"amount"`
	Currency     string    `json:"currency"`
	ExpiresAt    time.Time `json:"expires_at"`
	GrantedAt    time.Time `json:"granted_at"`
}
