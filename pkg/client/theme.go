package client

import "sync"

const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// ThemeManager persists the light/dark preference. Default is light;
// an unreadable store also falls back to light.
type ThemeManager struct {
	store Store

	mu     sync.RWMutex
	isDark bool
}

func NewThemeManager(store Store) *ThemeManager {
	return &ThemeManager{store: store}
}

func (t *ThemeManager) Load() {
	stored, ok := t.store.Get(keyAppTheme)
	t.mu.Lock()
	t.isDark = ok && stored == ThemeDark
	t.mu.Unlock()
}

func (t *ThemeManager) Toggle() {
	t.mu.Lock()
	t.isDark = !t.isDark
	value := ThemeLight
	if t.isDark {
		value = ThemeDark
	}
	t.mu.Unlock()

	t.store.Set(keyAppTheme, value)
}

func (t *ThemeManager) IsDark() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.isDark
}

func (t *ThemeManager) Theme() string {
	if t.IsDark() {
		return ThemeDark
	}
	return ThemeLight
}
