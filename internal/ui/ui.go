// Package ui is a headless widget registry. Widgets are addressed by handle
// and carry only the state the game drives: visibility, text and progress.
// A renderer, if any, reads it; the simulation never depends on one.
package ui

import (
	"fmt"

	"github.com/arenashooter/core/internal/core/pool"
)

type WidgetID = pool.Handle

type Widget struct {
	Name     string
	Visible  bool
	Text     string
	Progress float32 // 0..1
}

// UI owns all widgets. Single goroutine only (game loop).
type UI struct {
	widgets *pool.Pool[Widget]
}

func New() *UI {
	return &UI{widgets: pool.New[Widget]()}
}

func (u *UI) Add(name string, visible bool) WidgetID {
	return u.widgets.Spawn(Widget{Name: name, Visible: visible})
}

// Get returns a copy of the widget state.
func (u *UI) Get(id WidgetID) (Widget, error) {
	w, err := u.widgets.Get(id)
	if err != nil {
		return Widget{}, fmt.Errorf("widget %s: %w", id, err)
	}
	return *w, nil
}

// Messages to a removed widget are ignored, as they would be by a
// retained-mode UI.
func (u *UI) SetVisible(id WidgetID, visible bool) {
	if w, err := u.widgets.Get(id); err == nil {
		w.Visible = visible
	}
}

func (u *UI) IsVisible(id WidgetID) bool {
	w, err := u.widgets.Get(id)
	return err == nil && w.Visible
}

func (u *UI) SetText(id WidgetID, text string) {
	if w, err := u.widgets.Get(id); err == nil {
		w.Text = text
	}
}

func (u *UI) Text(id WidgetID) string {
	if w, err := u.widgets.Get(id); err == nil {
		return w.Text
	}
	return ""
}

// SetProgress clamps p to [0, 1].
func (u *UI) SetProgress(id WidgetID, p float32) {
	if w, err := u.widgets.Get(id); err == nil {
		w.Progress = min(max(p, 0), 1)
	}
}

func (u *UI) Progress(id WidgetID) float32 {
	if w, err := u.widgets.Get(id); err == nil {
		return w.Progress
	}
	return 0
}

func (u *UI) Count() uint32 { return u.widgets.Count() }
