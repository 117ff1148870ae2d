package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMemorySetGet(t *testing.T) {
	m := NewMemory()

	m.Set("k", []string{"a", "b"}, time.Minute)

	var got []string
	assert.True(t, m.Get("k", &got))
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestMemoryMiss(t *testing.T) {
	m := NewMemory()
	var got string
	assert.False(t, m.Get("absent", &got))
}

func TestMemoryExpiry(t *testing.T) {
	m := NewMemory()
	m.Set("k", "v", 10*time.Millisecond)
	time.Sleep(25 * time.Millisecond)

	var got string
	assert.False(t, m.Get("k", &got))
}

func TestMemoryDelPattern(t *testing.T) {
	m := NewMemory()
	m.Set("profile:u1", "a", time.Minute)
	m.Set("emergencies:u1", "b", time.Minute)
	m.Set("profile:u2", "c", time.Minute)

	m.DelPattern("*:u1")

	var got string
	assert.False(t, m.Get("profile:u1", &got))
	assert.False(t, m.Get("emergencies:u1", &got))
	assert.True(t, m.Get("profile:u2", &got))
}

func TestMemoryDelPatternExactKey(t *testing.T) {
	m := NewMemory()
	m.Set("profile:u1", "a", time.Minute)
	m.Set("profile:u10", "b", time.Minute)

	m.DelPattern("profile:u1")

	var got string
	assert.False(t, m.Get("profile:u1", &got))
	assert.True(t, m.Get("profile:u10", &got), "a pattern without a wildcard deletes only the exact key")
}

func TestMemoryDel(t *testing.T) {
	m := NewMemory()
	m.Set("a", 1, time.Minute)
	m.Set("b", 2, time.Minute)
	m.Del("a", "b")

	var got int
	assert.False(t, m.Get("a", &got))
	assert.False(t, m.Get("b", &got))
}
