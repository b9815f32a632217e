// Package tray provides the state sinks that surface the application
// state to the user: a system tray icon for graphical sessions and a
// log-only sink for headless ones. The sink is picked once at startup;
// nothing else in the application branches on platform.
package tray

import (
	"os"
	"sync"

	"github.com/getlantern/systray"

	"github.com/mvaldes-dev/transcriptor/internal/app"
)

var stateLabels = map[app.State]string{
	app.StateLoading:    "Loading model...",
	app.StateIdle:       "Ready",
	app.StateRecording:  "Recording...",
	app.StateProcessing: "Processing...",
}

func label(s app.State) string {
	if l, ok := stateLabels[s]; ok {
		return l
	}
	return s.String()
}

// GraphicalSession reports whether a display server is reachable.
func GraphicalSession() bool {
	return os.Getenv("DISPLAY") != "" || os.Getenv("WAYLAND_DISPLAY") != ""
}

// ForPlatform returns the systray sink under a graphical session and
// the console sink otherwise. onQuit runs when the user picks Quit
// from the tray menu.
func ForPlatform(onQuit func()) app.StateSink {
	if GraphicalSession() {
		return NewSystray(onQuit)
	}
	return NewConsole()
}

// Systray shows the application state in the system tray.
type Systray struct {
	onQuit func()

	mu     sync.Mutex
	state  app.State
	status *systray.MenuItem
	ready  bool
}

// NewSystray creates the tray sink. Run must be called on the main
// goroutine on platforms that require it.
func NewSystray(onQuit func()) *Systray {
	return &Systray{onQuit: onQuit, state: app.StateLoading}
}

// SetState updates the tray label and tooltip. Safe from any
// goroutine; calls before the tray is ready are coalesced into the
// initial menu.
func (t *Systray) SetState(s app.State) {
	t.mu.Lock()
	t.state = s
	ready := t.ready
	status := t.status
	t.mu.Unlock()

	if !ready {
		return
	}
	status.SetTitle(label(s))
	systray.SetTooltip("Transcriptor: " + label(s))
}

// Run starts the tray loop and blocks until Stop or Quit.
func (t *Systray) Run() {
	systray.Run(t.onReady, func() {})
}

func (t *Systray) onReady() {
	systray.SetTitle("Transcriptor")

	t.mu.Lock()
	t.status = systray.AddMenuItem(label(t.state), "")
	t.status.Disable()
	t.ready = true
	current := t.state
	t.mu.Unlock()

	systray.SetTooltip("Transcriptor: " + label(current))
	systray.AddSeparator()
	quit := systray.AddMenuItem("Quit", "Quit Transcriptor")

	go func() {
		<-quit.ClickedCh
		if t.onQuit != nil {
			t.onQuit()
		}
		systray.Quit()
	}()
}

// Stop tears the tray icon down.
func (t *Systray) Stop() {
	systray.Quit()
}
