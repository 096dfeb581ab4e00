package prefs

import (
	"context"
	"fmt"
	"sync"

	"github.com/1F47E/go-photobooth/internal/logger"
)

const (
	ThemeKey     = "theme"
	DefaultTheme = "cupcake"
)

var Themes = []string{"light", "dark", "cupcake", "synthwave", "retro", "cyberpunk", "coffee"}

func IsTheme(name string) bool {
	for _, t := range Themes {
		if t == name {
			return true
		}
	}
	return false
}

// ThemeManager reads the theme once at Load and writes every change through
// to the store.
type ThemeManager struct {
	mu    sync.Mutex
	store Store
	theme string
}

func NewThemeManager(store Store) *ThemeManager {
	return &ThemeManager{store: store, theme: DefaultTheme}
}

// Load reads the stored theme. Unknown stored values are ignored and the
// default stays in effect.
func (m *ThemeManager) Load(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok, err := m.store.Get(ctx, ThemeKey)
	if err != nil {
		return m.theme, err
	}
	if ok {
		if IsTheme(v) {
			m.theme = v
		} else {
			logger.Log.WithField("scope", "prefs").Warnf("ignoring unknown stored theme %q", v)
		}
	}
	return m.theme, nil
}

func (m *ThemeManager) Theme() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.theme
}

func (m *ThemeManager) Set(ctx context.Context, name string) error {
	if !IsTheme(name) {
		return fmt.Errorf("unknown theme %q (have %v)", name, Themes)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.store.Set(ctx, ThemeKey, name); err != nil {
		return err
	}
	m.theme = name
	return nil
}

// Cycle switches to the next theme in Themes and returns it.
func (m *ThemeManager) Cycle(ctx context.Context) (string, error) {
	cur := m.Theme()
	next := Themes[0]
	for i, t := range Themes {
		if t == cur {
			next = Themes[(i+1)%len(Themes)]
			break
		}
	}
	if err := m.Set(ctx, next); err != nil {
		return cur, err
	}
	return next, nil
}
