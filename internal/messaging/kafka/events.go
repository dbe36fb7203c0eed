package kafka

import "time"

// EventType определяет тип события
type EventType string

const (
	// Booking события
	EventTypeBookingCreated       EventType = "booking.created"
	EventTypeBookingStatusChanged EventType = "booking.status_changed"
	EventTypeBookingCancelled     EventType = "booking.cancelled"
	EventTypeBookingDelivered     EventType = "booking.delivered"
)

// Topics для Kafka
const (
	TopicBookingEvents   = "gramseva.booking.events"
	TopicDeadLetterQueue = "gramseva.dlq" // Dead Letter Queue для failed messages
)

// Kafka headers для retry логики
const (
	HeaderRetryCount    = "x-retry-count"
	HeaderOriginalTopic = "x-original-topic"
	HeaderErrorMessage  = "x-error-message"
	HeaderFailedAt      = "x-failed-at"
)

// BookingEvent представляет событие заявки на доставку
type BookingEvent struct {
	EventType EventType              `json:"event_type"`
	BookingID string                 `json:"booking_id"`
	UserID    string                 `json:"user_id"`
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// NewBookingEvent создает новое событие заявки
func NewBookingEvent(eventType EventType, bookingID, userID, status string, metadata map[string]interface{}) *BookingEvent {
	return &BookingEvent{
		EventType: eventType,
		BookingID: bookingID,
		UserID:    userID,
		Status:    status,
		Timestamp: time.Now(),
		Metadata:  metadata,
	}
}
