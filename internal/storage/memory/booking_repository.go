package memory

import (
	"sort"
	"sync"

	"github.com/vladislavdragonenkov/gramseva/internal/domain"
)

// bookingRepositoryInMemory — простая in-memory реализация BookingRepository.
type bookingRepositoryInMemory struct {
	mu    sync.RWMutex
	items map[string]domain.Booking
}

// NewBookingRepository возвращает in-memory репозиторий для локальной разработки и тестов.
func NewBookingRepository() domain.BookingRepository {
	return &bookingRepositoryInMemory{
		items: make(map[string]domain.Booking),
	}
}

// Create сохраняет новую заявку, если ID ещё не занят.
func (r *bookingRepositoryInMemory) Create(booking domain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[booking.ID]; exists {
		return domain.ErrBookingVersionConflict
	}
	// Сохраняем копию, чтобы избежать непредсказуемых мутаций извне.
	r.items[booking.ID] = cloneBooking(booking)
	return nil
}

// Get возвращает заявку или ErrBookingNotFound, если её нет.
func (r *bookingRepositoryInMemory) Get(id string) (domain.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	booking, ok := r.items[id]
	if !ok {
		return domain.Booking{}, domain.ErrBookingNotFound
	}
	return cloneBooking(booking), nil
}

// ListByUser возвращает заявки пользователя, ограничивая выборку limit (если >0).
func (r *bookingRepositoryInMemory) ListByUser(userID string, limit int) ([]domain.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.Booking, 0, len(r.items))
	for _, booking := range r.items {
		if booking.UserID != userID {
			continue
		}
		result = append(result, cloneBooking(booking))
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}

	return result, nil
}

// Save перезаписывает заявку, проверяя версию (optimistic locking).
func (r *bookingRepositoryInMemory) Save(booking domain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.items[booking.ID]
	if !ok {
		return domain.ErrBookingNotFound
	}
	if current.Version != booking.Version {
		return domain.ErrBookingVersionConflict
	}
	// Инкрементируем версию перед сохранением.
	booking.Version++
	r.items[booking.ID] = cloneBooking(booking)
	return nil
}

func cloneBooking(src domain.Booking) domain.Booking {
	dst := src
	dst.Items = append([]domain.BookingItem(nil), src.Items...)
	return dst
}

var _ domain.BookingRepository = (*bookingRepositoryInMemory)(nil)
