package cart

import "sync"

// Manager выдаёт корзину по идентификатору сессии, создавая её лениво.
// Корзины живут в памяти процесса и умирают вместе с сессией.
type Manager struct {
	mu     sync.Mutex
	stores map[string]*Store
}

// NewManager создаёт пустой менеджер сессионных корзин.
func NewManager() *Manager {
	return &Manager{stores: make(map[string]*Store)}
}

// Get возвращает корзину сессии, создавая новую при первом обращении.
func (m *Manager) Get(sessionID string) *Store {
	m.mu.Lock()
	defer m.mu.Unlock()

	store, ok := m.stores[sessionID]
	if !ok {
		store = NewStore()
		m.stores[sessionID] = store
	}
	return store
}

// Drop удаляет корзину сессии (завершение сессии).
func (m *Manager) Drop(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.stores, sessionID)
}

// Len возвращает число активных корзин.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.stores)
}
