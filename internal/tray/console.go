package tray

import (
	"log/slog"
	"sync"

	"github.com/mvaldes-dev/transcriptor/internal/app"
)

// Console is the headless state sink: state changes go to the log.
type Console struct {
	done chan struct{}
	once sync.Once
}

// NewConsole creates the log-only sink.
func NewConsole() *Console {
	return &Console{done: make(chan struct{})}
}

// SetState logs the state change.
func (c *Console) SetState(s app.State) {
	slog.Info("state", "state", s.String())
}

// Run blocks until Stop.
func (c *Console) Run() {
	<-c.done
}

// Stop releases Run. Safe to call multiple times.
func (c *Console) Stop() {
	c.once.Do(func() {
		close(c.done)
	})
}
