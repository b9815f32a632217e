package hotkey

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	hook "github.com/robotn/gohook"
)

// ErrBadKey means a key descriptor does not name a known key.
var ErrBadKey = errors.New("hotkey: unknown key")

// ParseKey validates a key descriptor against the hook keycode table
// and returns the canonical lowercase name.
func ParseKey(key string) (string, error) {
	k := strings.ToLower(strings.TrimSpace(key))
	if _, ok := hook.Keycode[k]; !ok {
		return "", fmt.Errorf("%w: %q", ErrBadKey, key)
	}
	return k, nil
}

// Listener runs the global keyboard hook and feeds raw press/release
// events into a Debouncer. Events surface on the hook's own thread.
type Listener struct {
	deb *Debouncer

	mu   sync.Mutex
	key  string
	done chan struct{}
	once sync.Once
}

// NewListener creates a Listener for the given key descriptor. The
// debounce window and mode come from the Debouncer.
func NewListener(key string, deb *Debouncer) (*Listener, error) {
	k, err := ParseKey(key)
	if err != nil {
		return nil, err
	}
	return &Listener{
		deb:  deb,
		key:  k,
		done: make(chan struct{}),
	}, nil
}

// Events returns the logical event channel. It is closed when the
// listener stops for good.
func (l *Listener) Events() <-chan Event {
	return l.deb.Events()
}

// Run registers the hook and blocks until Stop is called. Rebinds and
// mode changes restart the hook loop; run it in a goroutine.
func (l *Listener) Run() {
	for {
		l.mu.Lock()
		key := l.key
		l.mu.Unlock()

		hook.Register(hook.KeyDown, []string{key}, func(hook.Event) {
			l.deb.Press()
		})
		hook.Register(hook.KeyUp, []string{key}, func(hook.Event) {
			l.deb.Release()
		})

		evChan := hook.Start()
		<-hook.Process(evChan)

		select {
		case <-l.done:
			l.deb.close()
			return
		default:
			// Restart requested: loop re-registers with current settings.
			slog.Debug("hotkey: restarting listener", "key", key)
		}
	}
}

// Rebind changes the hotkey. The debouncer state is reset and the hook
// restarted so the old key stops firing immediately.
func (l *Listener) Rebind(key string) error {
	k, err := ParseKey(key)
	if err != nil {
		return err
	}
	l.mu.Lock()
	l.key = k
	l.mu.Unlock()

	l.deb.Reset()
	l.restart()
	slog.Info("hotkey: rebound", "key", k)
	return nil
}

// SetMode switches between toggle and push-to-talk, resetting the
// debouncer and restarting the hook.
func (l *Listener) SetMode(mode Mode) {
	l.deb.SetMode(mode)
	l.restart()
}

// SetWindow adjusts the debounce window without a restart.
func (l *Listener) SetWindow(window time.Duration) {
	l.deb.SetWindow(window)
}

// restart ends the current hook run; Run's loop re-registers.
func (l *Listener) restart() {
	hook.End()
}

// Stop terminates the listener for good. Safe to call multiple times.
func (l *Listener) Stop() {
	l.once.Do(func() {
		close(l.done)
		hook.End()
	})
}
