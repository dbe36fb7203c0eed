package cart

import (
	"sync"

	"github.com/vladislavdragonenkov/gramseva/internal/domain"
)

// Item — одна позиция корзины. Количество всегда >= 1: позиция с
// неположительным количеством из корзины удаляется, а не хранится.
type Item struct {
	ID           string
	Name         string
	Category     string
	PriceDisplay string
	// UnitPriceMinor — цена за единицу в пайсах, вычисленная один раз
	// при добавлении товара. Повторного парсинга display-строки при
	// подсчёте итогов не происходит.
	UnitPriceMinor int64
	Quantity       int
}

// Snapshot — неизменяемая копия состояния корзины на момент снятия.
// Последующие мутации корзины на снимок не влияют.
type Snapshot struct {
	Items           []Item
	IsOpen          bool
	TotalItems      int
	TotalPriceMinor int64
}

// Subscriber получает консистентный снимок после каждой мутации.
type Subscriber func(Snapshot)

// Store хранит состояние корзины одной сессии. Все операции синхронные;
// подписчики никогда не видят частично применённую мутацию.
type Store struct {
	mu        sync.RWMutex
	items     []Item
	open      bool
	subs      map[int]Subscriber
	nextSubID int
}

// NewStore создаёт пустую корзину.
func NewStore() *Store {
	return &Store{subs: make(map[int]Subscriber)}
}

// AddItem добавляет товар каталога в корзину. Если позиция с тем же ID уже
// есть, её количество увеличивается на единицу; порядок вставки сохраняется.
// Товары не в наличии и товары с некорректной ценой не добавляются.
func (s *Store) AddItem(product domain.Product) error {
	if !product.InStock {
		return domain.ErrProductOutOfStock
	}

	unitMinor := product.PriceMinor
	if unitMinor <= 0 {
		parsed, err := domain.ParsePriceMinor(product.Price)
		if err != nil {
			return err
		}
		unitMinor = parsed
	}

	s.mu.Lock()
	found := false
	for i := range s.items {
		if s.items[i].ID == product.ID {
			s.items[i].Quantity++
			found = true
			break
		}
	}
	if !found {
		s.items = append(s.items, Item{
			ID:             product.ID,
			Name:           product.Name,
			Category:       product.Category,
			PriceDisplay:   product.Price,
			UnitPriceMinor: unitMinor,
			Quantity:       1,
		})
	}
	snap, subs := s.snapshotLocked()
	s.mu.Unlock()

	notify(subs, snap)
	return nil
}

// RemoveItem удаляет позицию по ID. Отсутствующий ID — no-op: двойной клик
// по кнопке удаления не должен быть ошибкой.
func (s *Store) RemoveItem(id string) {
	s.mu.Lock()
	removed := false
	for i := range s.items {
		if s.items[i].ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			removed = true
			break
		}
	}
	if !removed {
		s.mu.Unlock()
		return
	}
	snap, subs := s.snapshotLocked()
	s.mu.Unlock()

	notify(subs, snap)
}

// UpdateQuantity выставляет количество позиции. Значение <= 0 удаляет
// позицию целиком. Отсутствующий ID — no-op.
func (s *Store) UpdateQuantity(id string, quantity int) {
	if quantity <= 0 {
		s.RemoveItem(id)
		return
	}

	s.mu.Lock()
	updated := false
	for i := range s.items {
		if s.items[i].ID == id {
			s.items[i].Quantity = quantity
			updated = true
			break
		}
	}
	if !updated {
		s.mu.Unlock()
		return
	}
	snap, subs := s.snapshotLocked()
	s.mu.Unlock()

	notify(subs, snap)
}

// Clear опустошает корзину, не трогая видимость панели.
func (s *Store) Clear() {
	s.mu.Lock()
	s.items = nil
	snap, subs := s.snapshotLocked()
	s.mu.Unlock()

	notify(subs, snap)
}

// Open показывает панель корзины. На содержимое не влияет.
func (s *Store) Open() {
	s.setOpen(true)
}

// Close скрывает панель корзины. На содержимое не влияет.
func (s *Store) Close() {
	s.setOpen(false)
}

func (s *Store) setOpen(open bool) {
	s.mu.Lock()
	if s.open == open {
		s.mu.Unlock()
		return
	}
	s.open = open
	snap, subs := s.snapshotLocked()
	s.mu.Unlock()

	notify(subs, snap)
}

// TotalItems возвращает суммарное количество единиц товара (не число
// различных позиций).
func (s *Store) TotalItems() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return totalItems(s.items)
}

// TotalPriceMinor возвращает сумму quantity*unitPrice по всем позициям,
// в пайсах.
func (s *Store) TotalPriceMinor() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return totalPriceMinor(s.items)
}

// Snapshot возвращает копию текущего состояния с посчитанными итогами.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, _ := s.snapshotLocked()
	return snap
}

// Subscribe регистрирует подписчика и возвращает функцию отписки.
// Подписчик вызывается после каждой мутации со снимком нового состояния.
func (s *Store) Subscribe(fn Subscriber) func() {
	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *Store) snapshotLocked() (Snapshot, []Subscriber) {
	items := make([]Item, len(s.items))
	copy(items, s.items)

	snap := Snapshot{
		Items:           items,
		IsOpen:          s.open,
		TotalItems:      totalItems(s.items),
		TotalPriceMinor: totalPriceMinor(s.items),
	}

	subs := make([]Subscriber, 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	return snap, subs
}

func notify(subs []Subscriber, snap Snapshot) {
	for _, fn := range subs {
		fn(snap)
	}
}

func totalItems(items []Item) int {
	total := 0
	for _, item := range items {
		total += item.Quantity
	}
	return total
}

func totalPriceMinor(items []Item) int64 {
	var total int64
	for _, item := range items {
		total += item.UnitPriceMinor * int64(item.Quantity)
	}
	return total
}
