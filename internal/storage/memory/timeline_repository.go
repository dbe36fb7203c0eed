package memory

import (
	"sort"
	"sync"

	"github.com/vladislavdragonenkov/gramseva/internal/domain"
)

// timelineRepositoryInMemory держит историю заявок в памяти. Используется в
// dev-режиме и тестах вместо PostgreSQL.
type timelineRepositoryInMemory struct {
	mu     sync.RWMutex
	events map[string][]domain.TimelineEvent
}

// NewTimelineRepository создаёт in-memory реализацию TimelineRepository.
func NewTimelineRepository() domain.TimelineRepository {
	return &timelineRepositoryInMemory{events: make(map[string][]domain.TimelineEvent)}
}

// Append дописывает событие; хронология восстанавливается сортировкой, так
// как события могут приходить с прошедшими временными метками.
func (r *timelineRepositoryInMemory) Append(event domain.TimelineEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	history := append(r.events[event.BookingID], event)
	sort.SliceStable(history, func(i, j int) bool {
		return history[i].Occurred.Before(history[j].Occurred)
	})
	r.events[event.BookingID] = history

	return nil
}

// List возвращает копию истории заявки в хронологическом порядке.
func (r *timelineRepositoryInMemory) List(bookingID string) ([]domain.TimelineEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	events := r.events[bookingID]
	result := make([]domain.TimelineEvent, len(events))
	copy(result, events)
	return result, nil
}

var _ domain.TimelineRepository = (*timelineRepositoryInMemory)(nil)
