package cache

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

type memoryEntry[V any] struct {
	key       string
	value     V
	expiresAt time.Time
}

// Memory is an in-process Store bounded by capacity and TTL. When full, the
// least recently used entry is evicted; expired entries are dropped on access.
type Memory[V any] struct {
	capacity int
	clock    clockwork.Clock
	items    map[string]*list.Element
	order    *list.List
	mu       sync.Mutex
}

// NewMemory creates an in-memory store. It panics if capacity is not positive.
func NewMemory[V any](capacity int, clock clockwork.Clock) *Memory[V] {
	if capacity <= 0 {
		panic("cache: memory capacity must be positive")
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Memory[V]{
		capacity: capacity,
		clock:    clock,
		items:    make(map[string]*list.Element),
		order:    list.New(),
	}
}

func (m *Memory[V]) Get(_ context.Context, key string) (V, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var zero V
	elem, ok := m.items[key]
	if !ok {
		return zero, false, nil
	}
	entry := elem.Value.(*memoryEntry[V])
	if m.expired(entry) {
		m.remove(elem)
		return zero, false, nil
	}
	m.order.MoveToFront(elem)
	return entry.value, true, nil
}

// Set stores v for ttl. A non-positive ttl keeps the entry until it is evicted.
func (m *Memory[V]) Set(_ context.Context, key string, v V, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = m.clock.Now().Add(ttl)
	}

	if elem, ok := m.items[key]; ok {
		entry := elem.Value.(*memoryEntry[V])
		entry.value = v
		entry.expiresAt = expiresAt
		m.order.MoveToFront(elem)
		return nil
	}

	m.items[key] = m.order.PushFront(&memoryEntry[V]{key: key, value: v, expiresAt: expiresAt})
	if m.order.Len() > m.capacity {
		m.evict()
	}
	return nil
}

func (m *Memory[V]) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if elem, ok := m.items[key]; ok {
		m.remove(elem)
	}
	return nil
}

// Len returns the number of entries, expired ones included until they are touched.
func (m *Memory[V]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.order.Len()
}

// Clear drops every entry.
func (m *Memory[V]) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	clear(m.items)
	m.order.Init()
}

func (m *Memory[V]) Close() error {
	m.Clear()
	return nil
}

// Must be called with lock held. Expired entries go first, then the least recently used.
func (m *Memory[V]) evict() {
	for elem := m.order.Back(); elem != nil; elem = elem.Prev() {
		if m.expired(elem.Value.(*memoryEntry[V])) {
			m.remove(elem)
			return
		}
	}
	if elem := m.order.Back(); elem != nil {
		m.remove(elem)
	}
}

// Must be called with lock held.
func (m *Memory[V]) remove(elem *list.Element) {
	m.order.Remove(elem)
	delete(m.items, elem.Value.(*memoryEntry[V]).key)
}

func (m *Memory[V]) expired(e *memoryEntry[V]) bool {
	return !e.expiresAt.IsZero() && !m.clock.Now().Before(e.expiresAt)
}
