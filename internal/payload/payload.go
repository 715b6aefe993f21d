package payload

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Формат payload: "premium_<user_id>_<days>". Первый токен одновременно
// служит меткой версии формата: при смене кодирования длительности метка
// меняется, а старый разбор остается валидным для уже выставленных инвойсов.
const (
	formatTag = "premium"
	separator = "_"
)

// ErrMalformedPayload payload не соответствует ожидаемой структуре.
// Означает либо подделку подтверждения, либо ошибку при построении инвойса.
var ErrMalformedPayload = errors.New("malformed payment payload")

// Build кодирует идентификатор пользователя и длительность подписки
// в непрозрачную для провайдера строку payload.
func Build(userID int64, durationDays int) (string, error) {
	if userID <= 0 {
		return "", fmt.Errorf("%w: non-positive user id %d", ErrMalformedPayload, userID)
	}
	if durationDays <= 0 {
		return "", fmt.Errorf("%w: non-positive duration %d", ErrMalformedPayload, durationDays)
	}
	return formatTag + separator + strconv.FormatInt(userID, 10) + separator + strconv.Itoa(durationDays), nil
}

// Parse восстанавливает идентификатор пользователя и длительность из payload.
// Любое отклонение от ожидаемой структуры возвращает ErrMalformedPayload.
func Parse(p string) (userID int64, durationDays int, err error) {
	parts := strings.Split(p, separator)
	if len(parts) != 3 {
		return 0, 0, fmt.Errorf("%w: expected 3 fields, got %d", ErrMalformedPayload, len(parts))
	}
	if parts[0] != formatTag {
		return 0, 0, fmt.Errorf("%w: unknown format tag %q", ErrMalformedPayload, parts[0])
	}

	userID, err = strconv.ParseInt(parts[1], 10, 64)
	if err != nil || userID <= 0 {
		return 0, 0, fmt.Errorf("%w: invalid user id %q", ErrMalformedPayload, parts[1])
	}

	durationDays, err = strconv.Atoi(parts[2])
	if err != nil || durationDays <= 0 {
		return 0, 0, fmt.Errorf("%w: invalid duration %q", ErrMalformedPayload, parts[2])
	}

	return userID, durationDays, nil
}
