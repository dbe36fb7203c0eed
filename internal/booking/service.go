package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/gramseva/internal/catalog"
	"github.com/vladislavdragonenkov/gramseva/internal/domain"
	"github.com/vladislavdragonenkov/gramseva/internal/messaging/kafka"
)

const (
	defaultListLimit = 100

	timelineEventStatusChanged    = "BookingStatusChanged"
	timelineEventBookingCancelled = "BookingCancelled"
)

// Service реализует бизнес-логику заявок на доставку поверх каталога и репозиториев.
type Service struct {
	repo     domain.BookingRepository
	catalog  *catalog.Catalog
	timeline domain.TimelineRepository
	outbox   domain.OutboxRepository
	logger   *log.Entry
}

// NewService конструирует сервис с зависимостями. timeline и outbox опциональны.
func NewService(
	repo domain.BookingRepository,
	cat *catalog.Catalog,
	timeline domain.TimelineRepository,
	outbox domain.OutboxRepository,
	logger *log.Entry,
) *Service {
	if logger == nil {
		logger = log.New().WithField("component", "booking-service")
	}
	return &Service{
		repo:     repo,
		catalog:  cat,
		timeline: timeline,
		outbox:   outbox,
		logger:   logger,
	}
}

// Create валидирует снимок корзины по каталогу и сохраняет заявку.
// Сумма пересчитывается по каталожным ценам и обязана совпасть с суммой
// из запроса: расхождение — признак устаревшего снимка.
func (s *Service) Create(_ context.Context, userID string, req domain.BookingRequest) (domain.Booking, error) {
	if userID == "" {
		return domain.Booking{}, domain.ErrUserIDRequired
	}
	if len(req.Items) == 0 {
		return domain.Booking{}, domain.ErrItemsRequired
	}

	var amountSum int64
	items := make([]domain.BookingItem, 0, len(req.Items))
	for idx, item := range req.Items {
		if item.Quantity <= 0 {
			return domain.Booking{}, fmt.Errorf("item[%d]: %w", idx, domain.ErrItemQtyInvalid)
		}
		product, err := s.catalog.Product(item.ProductID)
		if err != nil {
			return domain.Booking{}, fmt.Errorf("item[%d] %q: %w", idx, item.ProductID, err)
		}
		if !product.InStock {
			return domain.Booking{}, fmt.Errorf("item[%d] %q: %w", idx, item.ProductID, domain.ErrProductOutOfStock)
		}

		items = append(items, domain.BookingItem{ProductID: product.ID, Quantity: item.Quantity})
		amountSum += int64(item.Quantity) * product.PriceMinor
	}

	if req.AmountMinor != 0 && req.AmountMinor != amountSum {
		return domain.Booking{}, domain.ErrAmountMismatch
	}
	if req.TotalAmount != "" {
		parsed, err := domain.ParsePriceMinor(req.TotalAmount)
		if err != nil {
			return domain.Booking{}, err
		}
		if parsed != amountSum {
			return domain.Booking{}, domain.ErrAmountMismatch
		}
	}

	now := time.Now().UTC()
	booking := domain.Booking{
		ID:          uuid.NewString(),
		UserID:      userID,
		Status:      domain.BookingStatusPending,
		Items:       items,
		AmountMinor: amountSum,
		TotalAmount: domain.FormatAmountMinor(amountSum),
		Version:     0,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if errs := booking.ValidateInvariants(); len(errs) > 0 {
		return domain.Booking{}, errors.Join(errs...)
	}

	if err := s.repo.Create(booking); err != nil {
		s.logger.WithError(err).Error("failed to create booking")
		return domain.Booking{}, fmt.Errorf("persist booking: %w", err)
	}

	s.appendStatusTimeline(booking.ID, booking.Status, booking.UpdatedAt)
	s.enqueueEvent(kafka.EventTypeBookingCreated, booking)

	s.logger.WithFields(log.Fields{
		"booking_id":   booking.ID,
		"user_id":      booking.UserID,
		"amount_minor": booking.AmountMinor,
	}).Info("booking created")

	return booking, nil
}

// UpdateStatus переводит заявку в новый статус с optimistic locking.
func (s *Service) UpdateStatus(_ context.Context, bookingID string, to domain.BookingStatus, reason string) (domain.Booking, error) {
	if !to.Valid() {
		return domain.Booking{}, domain.ErrBookingInvalidTransition
	}

	booking, err := s.repo.Get(bookingID)
	if err != nil {
		return domain.Booking{}, err
	}

	if booking.Status == to {
		return booking, nil
	}
	if !domain.CanTransition(booking.Status, to) {
		return domain.Booking{}, fmt.Errorf("%w: %s -> %s", domain.ErrBookingInvalidTransition, booking.Status, to)
	}

	booking.Status = to
	booking.UpdatedAt = time.Now().UTC()
	if err := s.repo.Save(booking); err != nil {
		s.logger.WithError(err).WithField("booking_id", bookingID).Error("failed to save booking")
		return domain.Booking{}, err
	}
	// Save инкрементирует версию в хранилище.
	booking.Version++

	s.appendStatusTimeline(booking.ID, booking.Status, booking.UpdatedAt)
	switch to {
	case domain.BookingStatusCancelled:
		s.appendTimelineEvent(booking.ID, timelineEventBookingCancelled, reason)
		s.enqueueEvent(kafka.EventTypeBookingCancelled, booking)
	case domain.BookingStatusDelivered:
		s.enqueueEvent(kafka.EventTypeBookingDelivered, booking)
	default:
		s.enqueueEvent(kafka.EventTypeBookingStatusChanged, booking)
	}

	return booking, nil
}

// Cancel отменяет заявку; допускается владельцем и только до доставки.
func (s *Service) Cancel(ctx context.Context, bookingID, userID, reason string) (domain.Booking, error) {
	booking, err := s.repo.Get(bookingID)
	if err != nil {
		return domain.Booking{}, err
	}
	if booking.UserID != userID {
		return domain.Booking{}, domain.ErrBookingNotFound
	}

	return s.UpdateStatus(ctx, bookingID, domain.BookingStatusCancelled, reason)
}

// Get возвращает заявку и её таймлайн.
func (s *Service) Get(_ context.Context, bookingID string) (domain.Booking, []domain.TimelineEvent, error) {
	booking, err := s.repo.Get(bookingID)
	if err != nil {
		return domain.Booking{}, nil, err
	}

	var events []domain.TimelineEvent
	if s.timeline != nil {
		events, err = s.timeline.List(bookingID)
		if err != nil {
			s.logger.WithError(err).WithField("booking_id", bookingID).Warn("failed to list timeline events")
			events = nil
		}
	}
	return booking, events, nil
}

// ListByUser возвращает заявки пользователя, свежие первыми.
func (s *Service) ListByUser(_ context.Context, userID string, limit int) ([]domain.Booking, error) {
	if userID == "" {
		return nil, domain.ErrUserIDRequired
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	return s.repo.ListByUser(userID, limit)
}

func (s *Service) enqueueEvent(eventType kafka.EventType, booking domain.Booking) {
	if s.outbox == nil {
		return
	}

	event := kafka.NewBookingEvent(eventType, booking.ID, booking.UserID, string(booking.Status), map[string]interface{}{
		"amount_minor": booking.AmountMinor,
	})
	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.WithError(err).WithField("booking_id", booking.ID).Warn("failed to encode booking event")
		return
	}

	if _, err := s.outbox.Enqueue(domain.OutboxMessage{
		AggregateType: "booking",
		AggregateID:   booking.ID,
		EventType:     string(eventType),
		Payload:       payload,
	}); err != nil {
		s.logger.WithError(err).WithField("booking_id", booking.ID).Warn("failed to enqueue booking event")
	}
}

func (s *Service) appendTimelineEvent(bookingID, eventType, reason string) {
	if s.timeline == nil {
		return
	}
	event := domain.TimelineEvent{
		BookingID: bookingID,
		Type:      eventType,
		Reason:    reason,
		Occurred:  time.Now().UTC(),
	}
	if err := s.timeline.Append(event); err != nil {
		s.logger.WithError(err).WithFields(log.Fields{
			"booking_id": bookingID,
			"event":      eventType,
		}).Warn("failed to append timeline event")
	}
}

func (s *Service) appendStatusTimeline(bookingID string, status domain.BookingStatus, occurred time.Time) {
	if s.timeline == nil {
		return
	}
	if occurred.IsZero() {
		occurred = time.Now().UTC()
	}
	event := domain.TimelineEvent{
		BookingID: bookingID,
		Type:      timelineEventStatusChanged,
		Reason:    string(status),
		Occurred:  occurred,
	}
	if err := s.timeline.Append(event); err != nil {
		s.logger.WithError(err).WithField("booking_id", bookingID).Warn("failed to append status timeline")
	}
}
