package state

import (
	"net/url"
	"sync"
)

// Theme is the host theme. Values other than light and dark are kept as-is.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// ThemeFromURL reads the theme query parameter the host appends to the panel
// URL. A missing parameter or an unparsable URL yields the empty theme.
func ThemeFromURL(raw string) Theme {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return Theme(u.Query().Get("theme"))
}

type ThemeStore interface {
	Get() Theme
	Set(Theme)
	Subscribe(func(Theme)) func()
	// Update runs the apply hooks and then stores the theme.
	Update(Theme)
	// OnApply registers a hook run by Update before subscribers see the value.
	OnApply(func(Theme))
}

type themeStore struct {
	*Cell[Theme]

	mu    sync.Mutex
	hooks []func(Theme)
}

func NewThemeStore(initial Theme) ThemeStore {
	return &themeStore{Cell: NewCell(initial)}
}

func (t *themeStore) OnApply(fn func(Theme)) {
	if fn == nil {
		return
	}
	t.mu.Lock()
	t.hooks = append(t.hooks, fn)
	t.mu.Unlock()
	fn(t.Get())
}

func (t *themeStore) Update(theme Theme) {
	t.mu.Lock()
	hooks := append([]func(Theme){}, t.hooks...)
	t.mu.Unlock()
	for _, h := range hooks {
		h(theme)
	}
	t.Set(theme)
}
