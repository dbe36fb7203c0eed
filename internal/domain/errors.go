package domain

import "errors"

var (
	// Ошибка отсутствующего идентификатора пользователя.
	ErrUserIDRequired = errors.New("user_id is required")
	// Ошибка отсутствия хотя бы одной позиции в заявке.
	ErrItemsRequired = errors.New("booking must contain at least one item")
	// Ошибка отрицательной суммы заявки.
	ErrAmountNegative = errors.New("amount_minor must be non-negative")
	// Ошибка при некорректном количестве товара (<= 0).
	ErrItemQtyInvalid = errors.New("item quantity must be greater than zero")
	// Ошибка несоответствия суммы заявки и сумм позиций.
	ErrAmountMismatch = errors.New("booking amount does not match items sum")
	// ErrBookingNotFound возвращается, если заявка не найдена в репозитории.
	ErrBookingNotFound = errors.New("booking not found")
	// ErrBookingVersionConflict сигнализирует о конфликте версий при сохранении.
	ErrBookingVersionConflict = errors.New("booking version conflict")
	// ErrBookingInvalidTransition — недопустимый переход статуса заявки.
	ErrBookingInvalidTransition = errors.New("booking status transition is not allowed")

	// ErrProductNotFound — товар отсутствует в каталоге.
	ErrProductNotFound = errors.New("product not found")
	// ErrProductOutOfStock — товар есть в каталоге, но недоступен для заказа.
	ErrProductOutOfStock = errors.New("product is out of stock")
	// ErrPriceUnparsable — display-строку цены невозможно привести к числу.
	// Ошибка данных каталога: молча считать такую цену нулём нельзя.
	ErrPriceUnparsable = errors.New("price string is not parsable")

	// ErrUserExists — пользователь с таким email уже зарегистрирован.
	ErrUserExists = errors.New("user with this email already exists")
	// ErrUserNotFound — пользователь не найден.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidCredentials — неверная пара email/пароль.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrTokenInvalid — токен не найден или просрочен.
	ErrTokenInvalid = errors.New("invalid or expired token")

	// Ошибки контактной формы.
	ErrContactNameInvalid    = errors.New("name must be between 2 and 100 characters")
	ErrContactMessageInvalid = errors.New("message must be between 10 and 1000 characters")

	// Ошибки idempotency-слоя.
	ErrIdempotencyKeyRequired         = errors.New("idempotency key is required")
	ErrIdempotencyRequestHashRequired = errors.New("idempotency request hash is required")
	ErrIdempotencyKeyAlreadyExists    = errors.New("idempotency key already exists")
	ErrIdempotencyHashMismatch        = errors.New("idempotency key is used with different request payload")
	ErrIdempotencyKeyNotFound         = errors.New("idempotency key not found")

	// ErrOutboxPublish — ошибка при публикации сообщения из outbox.
	ErrOutboxPublish = errors.New("outbox publish failed")
)

// IsVersionConflict проверяет, является ли ошибка конфликтом версий.
func IsVersionConflict(err error) bool {
	return errors.Is(err, ErrBookingVersionConflict)
}
