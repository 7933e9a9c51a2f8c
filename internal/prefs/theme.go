// Package prefs persists UI preferences in the kv store.
package prefs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"ai-thumbnail-pro/internal/kv"
)

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"

	DefaultTheme = ThemeDark
	themeKey     = "theme"
)

var ErrInvalidTheme = errors.New("theme must be light or dark")

func (t Theme) Valid() bool {
	return t == ThemeLight || t == ThemeDark
}

type Themes struct {
	store kv.Store
}

func NewThemes(store kv.Store) *Themes {
	return &Themes{store: store}
}

// Get returns the saved theme. Missing or unreadable values fall back to the
// default.
func (t *Themes) Get(ctx context.Context) (Theme, error) {
	raw, ok, err := t.store.Get(ctx, themeKey)
	if err != nil {
		return DefaultTheme, fmt.Errorf("load theme: %w", err)
	}
	if !ok {
		return DefaultTheme, nil
	}

	var theme Theme
	if err := json.Unmarshal([]byte(raw), &theme); err != nil || !theme.Valid() {
		return DefaultTheme, nil
	}
	return theme, nil
}

func (t *Themes) Set(ctx context.Context, theme Theme) error {
	if !theme.Valid() {
		return ErrInvalidTheme
	}
	raw, err := json.Marshal(theme)
	if err != nil {
		return err
	}
	if err := t.store.Set(ctx, themeKey, string(raw)); err != nil {
		return fmt.Errorf("save theme: %w", err)
	}
	return nil
}
