// Package inject delivers transcribed text to the focused application
// via robotgo, by simulated typing or clipboard paste.
package inject

import (
	"fmt"
	"strings"

	"github.com/go-vgo/robotgo"
)

// terminalClasses are window titles/classes that expect ctrl+shift+v
// for paste instead of ctrl+v.
var terminalClasses = map[string]bool{
	"gnome-terminal": true, "gnome-terminal-server": true,
	"konsole": true, "xterm": true, "kitty": true, "alacritty": true,
	"terminator": true, "xfce4-terminal": true, "tilix": true,
	"st": true, "st-256color": true, "urxvt": true,
	"wezterm-gui": true, "foot": true, "tabby": true, "hyper": true,
}

// Injector pastes or types text into the active window.
type Injector struct {
	method   string // "type" or "paste"
	shortcut string // "auto", "ctrl+v" or "ctrl+shift+v"

	// activeWindow is overridable for tests.
	activeWindow func() string
}

// NewInjector creates an Injector. method must be "type" or "paste";
// shortcut selects the paste chord ("auto" detects terminals).
func NewInjector(method, shortcut string) *Injector {
	return &Injector{
		method:       method,
		shortcut:     shortcut,
		activeWindow: robotgo.GetTitle,
	}
}

// Inject sends text to the active application. Empty text is a no-op.
func (inj *Injector) Inject(text string) error {
	if text == "" {
		return nil
	}

	switch inj.method {
	case "paste":
		return inj.paste(text)
	default: // "type"
		robotgo.TypeStr(text)
		return nil
	}
}

// paste writes text to the clipboard, taps the paste chord and
// restores the previous clipboard contents (best effort).
func (inj *Injector) paste(text string) error {
	prev, _ := robotgo.ReadAll()

	if err := robotgo.WriteAll(text); err != nil {
		return fmt.Errorf("inject: write to clipboard: %w", err)
	}

	key, mods := inj.pasteChord()
	if err := robotgo.KeyTap(key, mods...); err != nil {
		return fmt.Errorf("inject: key tap: %w", err)
	}

	_ = robotgo.WriteAll(prev)
	return nil
}

// pasteChord resolves the configured shortcut preference to a robotgo
// key tap. "auto" picks ctrl+shift+v when the focused window looks
// like a terminal.
func (inj *Injector) pasteChord() (string, []interface{}) {
	shortcut := inj.shortcut
	if shortcut == "auto" {
		shortcut = "ctrl+v"
		if focusedWindowIsTerminal(inj.activeWindow()) {
			shortcut = "ctrl+shift+v"
		}
	}

	parts := strings.Split(shortcut, "+")
	key := parts[len(parts)-1]
	mods := make([]interface{}, 0, len(parts)-1)
	for _, m := range parts[:len(parts)-1] {
		mods = append(mods, m)
	}
	return key, mods
}

func focusedWindowIsTerminal(title string) bool {
	return terminalClasses[strings.ToLower(strings.TrimSpace(title))]
}
