package cache

import (
	"encoding/json"
	"strings"
	"sync"
	"time"
)

type memoryItem struct {
	data      []byte
	expiresAt time.Time
}

// Memory is a process-local Cache used in tests and as a fallback when
// no Redis is configured.
type Memory struct {
	mu    sync.RWMutex
	items map[string]memoryItem
}

func NewMemory() *Memory {
	return &Memory{items: make(map[string]memoryItem)}
}

func (m *Memory) Get(key string, dest interface{}) bool {
	m.mu.RLock()
	item, ok := m.items[key]
	m.mu.RUnlock()
	if !ok || time.Now().After(item.expiresAt) {
		return false
	}
	return json.Unmarshal(item.data, dest) == nil
}

func (m *Memory) Set(key string, value interface{}, ttl time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	m.mu.Lock()
	m.items[key] = memoryItem{data: data, expiresAt: time.Now().Add(ttl)}
	m.mu.Unlock()
}

func (m *Memory) Del(keys ...string) {
	m.mu.Lock()
	for _, k := range keys {
		delete(m.items, k)
	}
	m.mu.Unlock()
}

// DelPattern deletes keys matching a glob with a single '*' wildcard,
// mirroring the Redis implementation.
func (m *Memory) DelPattern(pattern string) {
	prefix, suffix, ok := strings.Cut(pattern, "*")
	if !ok {
		m.Del(pattern)
		return
	}
	m.mu.Lock()
	for k := range m.items {
		if strings.HasPrefix(k, prefix) && strings.HasSuffix(k, suffix) {
			delete(m.items, k)
		}
	}
	m.mu.Unlock()
}

func (m *Memory) Close() {}
