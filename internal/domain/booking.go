package domain

import "time"

// BookingStatus описывает жизненный цикл заявки на доставку.
type BookingStatus string

const (
	// BookingStatusPending — заявка создана, но ещё не подтверждена оператором.
	BookingStatusPending BookingStatus = "pending"
	// BookingStatusConfirmed — заявка подтверждена и готовится к отправке.
	BookingStatusConfirmed BookingStatus = "confirmed"
	// BookingStatusInTransit — заказ передан в доставку.
	BookingStatusInTransit BookingStatus = "in_transit"
	// BookingStatusDelivered — заказ доставлен покупателю.
	BookingStatusDelivered BookingStatus = "delivered"
	// BookingStatusCancelled — заявка отменена до доставки.
	BookingStatusCancelled BookingStatus = "cancelled"
)

// BookingItem представляет одну позицию заявки.
type BookingItem struct {
	// ProductID — идентификатор товара из каталога.
	ProductID string
	// Quantity — количество единиц товара.
	Quantity int32
}

// Booking агрегирует состояние заявки и её позиции.
type Booking struct {
	ID     string
	UserID string
	Status BookingStatus
	Items  []BookingItem
	// AmountMinor — итоговая сумма в пайсах.
	AmountMinor int64
	// TotalAmount — та же сумма в display-формате ("₹125.00").
	TotalAmount string
	Version     int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// BookingRequest — boundary-объект, который чекаут передаёт сервису заявок.
// Снимок корзины на момент оформления: последующие мутации корзины на него
// не влияют.
type BookingRequest struct {
	Items       []BookingItem
	TotalAmount string
	AmountMinor int64
}

// ValidateInvariants проверяет базовые инварианты заявки и возвращает список замечаний.
func (b *Booking) ValidateInvariants() []error {
	var errs []error

	if b.UserID == "" {
		errs = append(errs, ErrUserIDRequired)
	}
	if len(b.Items) == 0 {
		errs = append(errs, ErrItemsRequired)
	}
	if b.AmountMinor < 0 {
		errs = append(errs, ErrAmountNegative)
	}
	for _, item := range b.Items {
		if item.Quantity <= 0 {
			errs = append(errs, ErrItemQtyInvalid)
		}
	}
	if b.TotalAmount != "" {
		parsed, err := ParsePriceMinor(b.TotalAmount)
		if err != nil {
			errs = append(errs, err)
		} else if parsed != b.AmountMinor {
			errs = append(errs, ErrAmountMismatch)
		}
	}

	return errs
}

// CanTransition отвечает, допустим ли переход статуса заявки.
// Отмена возможна из любого состояния до доставки.
func CanTransition(from, to BookingStatus) bool {
	if to == BookingStatusCancelled {
		return from == BookingStatusPending || from == BookingStatusConfirmed || from == BookingStatusInTransit
	}

	switch from {
	case BookingStatusPending:
		return to == BookingStatusConfirmed
	case BookingStatusConfirmed:
		return to == BookingStatusInTransit
	case BookingStatusInTransit:
		return to == BookingStatusDelivered
	default:
		return false
	}
}

// Valid проверяет, что статус относится к поддерживаемым значениям.
func (s BookingStatus) Valid() bool {
	switch s {
	case BookingStatusPending, BookingStatusConfirmed, BookingStatusInTransit,
		BookingStatusDelivered, BookingStatusCancelled:
		return true
	default:
		return false
	}
}
