package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestThemeDefaultsToLight(t *testing.T) {
	tm := NewThemeManager(NewMemStore())
	tm.Load()
	assert.False(t, tm.IsDark())
	assert.Equal(t, ThemeLight, tm.Theme())
}

func TestThemeTogglePersists(t *testing.T) {
	store := NewMemStore()

	tm := NewThemeManager(store)
	tm.Load()
	tm.Toggle()
	assert.Equal(t, ThemeDark, tm.Theme())

	// A fresh manager over the same store sees the preference.
	tm2 := NewThemeManager(store)
	tm2.Load()
	assert.True(t, tm2.IsDark())

	tm2.Toggle()
	assert.Equal(t, ThemeLight, tm2.Theme())
}

func TestThemeIgnoresGarbageValue(t *testing.T) {
	store := NewMemStore()
	store.Set(keyAppTheme, "sepia")

	tm := NewThemeManager(store)
	tm.Load()
	assert.Equal(t, ThemeLight, tm.Theme())
}
