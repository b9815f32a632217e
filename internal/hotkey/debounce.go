// Package hotkey turns raw OS key events into logical activate and
// deactivate events. Raw events are noisy: X11 auto-repeat delivers
// synthetic press/release pairs while a key is held, so push-to-talk
// releases are debounced and toggle presses are filtered through a
// logical pressed flag.
package hotkey

import (
	"fmt"
	"sync"
	"time"
)

// Mode selects how physical key events map to logical events.
type Mode string

const (
	// ModeToggle emits one activate per physical press; releases are
	// swallowed. The consumer decides whether a press means start or
	// stop, so this component never emits deactivate in toggle mode.
	ModeToggle Mode = "toggle"
	// ModePushToTalk emits activate on press and deactivate once the
	// key has been released for longer than the debounce window.
	ModePushToTalk Mode = "push_to_talk"
)

// ParseMode validates a mode string from config.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeToggle, ModePushToTalk:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("hotkey: unknown mode %q", s)
	}
}

// EventType indicates which logical event occurred.
type EventType int

const (
	// EventActivate signals the hotkey gesture began.
	EventActivate EventType = iota
	// EventDeactivate signals the hotkey gesture ended.
	EventDeactivate
)

// Event is emitted on the channel returned by Events.
type Event struct {
	Type EventType
}

// DefaultDebounceWindow is used when no window is configured. X11
// auto-repeat timing varies per setup, so this is a tunable, not a law.
const DefaultDebounceWindow = 75 * time.Millisecond

// Debouncer is the per-key state machine. Press and Release may be
// called from any thread; emitted events are delivered on whatever
// goroutine triggered them (or the timer goroutine for debounced
// deactivates), so consumers must not assume a thread.
type Debouncer struct {
	mu      sync.Mutex
	mode    Mode
	window  time.Duration
	pressed bool
	pending *time.Timer
	ch      chan Event
}

// NewDebouncer creates a Debouncer. A zero window selects
// DefaultDebounceWindow.
func NewDebouncer(mode Mode, window time.Duration) *Debouncer {
	if window <= 0 {
		window = DefaultDebounceWindow
	}
	return &Debouncer{
		mode:   mode,
		window: window,
		ch:     make(chan Event, 16),
	}
}

// Events returns the channel logical events are emitted on.
func (d *Debouncer) Events() <-chan Event {
	return d.ch
}

// Press handles a physical key-down event.
func (d *Debouncer) Press() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.pending != nil {
		// The preceding release was auto-repeat noise: cancel the
		// pending deactivate and stay logically pressed.
		d.pending.Stop()
		d.pending = nil
		return
	}

	if d.pressed {
		// Auto-repeat press while held.
		return
	}

	d.pressed = true
	d.emit(EventActivate)
}

// Release handles a physical key-up event.
func (d *Debouncer) Release() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.pressed {
		return
	}

	if d.mode == ModeToggle {
		// Toggle pairs asymmetrically: the press already carried the
		// logical event, the release only rearms the flag.
		d.pressed = false
		return
	}

	if d.pending != nil {
		return
	}

	var t *time.Timer
	t = time.AfterFunc(d.window, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		if d.pending != t {
			return // canceled by a press in the meantime
		}
		d.pending = nil
		d.pressed = false
		d.emit(EventDeactivate)
	})
	d.pending = t
}

// SetMode switches operating mode, clearing the pressed flag and any
// pending deactivate.
func (d *Debouncer) SetMode(mode Mode) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.mode = mode
	d.reset()
}

// SetWindow changes the debounce window for future releases.
func (d *Debouncer) SetWindow(window time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if window > 0 {
		d.window = window
	}
}

// Reset clears the pressed flag and cancels any pending deactivate.
func (d *Debouncer) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.reset()
}

func (d *Debouncer) reset() {
	if d.pending != nil {
		d.pending.Stop()
		d.pending = nil
	}
	d.pressed = false
}

// close cancels pending work and closes the event channel. Called by
// the listener once the hook loop exits for good.
func (d *Debouncer) close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pending != nil {
		d.pending.Stop()
		d.pending = nil
	}
	d.pressed = false
	close(d.ch)
}

// emit never blocks; a full channel drops the event. Callers hold d.mu.
func (d *Debouncer) emit(t EventType) {
	select {
	case d.ch <- Event{Type: t}:
	default:
	}
}
