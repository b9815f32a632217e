// Package app coordinates capture, hotkey and transcription through a
// single state machine: Loading -> Idle -> Recording -> Processing.
// Hotkey events, driver callbacks and worker completions arrive on
// independent threads; every transition is a read-decide-act sequence
// under one lock, and slow work always goes through a single-worker
// queue so at most one transcription or model load runs at a time.
package app

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mvaldes-dev/transcriptor/internal/audio"
	"github.com/mvaldes-dev/transcriptor/internal/config"
	"github.com/mvaldes-dev/transcriptor/internal/hotkey"
	"github.com/mvaldes-dev/transcriptor/internal/transcribe"
)

// minSamples is the shortest usable capture: 0.5s at the target rate.
// Anything shorter is discarded before it reaches the transcriber.
const minSamples = int(audio.TargetRate) / 2

// CaptureEngine is the slice of the audio engine the coordinator uses.
type CaptureEngine interface {
	Start() error
	Stop() []float32
	IsRecording() bool
	FallbackUsed() bool
	SetDevice(selector string)
}

// Injector sends transcribed text to the focused application.
type Injector interface {
	Inject(text string) error
}

// Notifier surfaces user-facing messages. Calls never block and never
// return errors to the coordinator.
type Notifier interface {
	Info(summary, body string)
	Error(summary, body string)
}

// HotkeyControl is the slice of the hotkey listener the coordinator
// uses for rebinds and mode changes.
type HotkeyControl interface {
	Rebind(key string) error
	SetMode(mode hotkey.Mode)
	SetWindow(window time.Duration)
	Stop()
}

// Deps are the collaborators the App coordinates. Hotkey and SaveConfig
// may be nil (tests, headless runs).
type Deps struct {
	Engine      CaptureEngine
	Transcriber transcribe.Transcriber
	Injector    Injector
	Notifier    Notifier
	Sink        StateSink
	Hotkey      HotkeyControl
	SaveConfig  func(*config.Config) error
}

// App is the top-level coordinator.
type App struct {
	deps Deps

	mu    sync.Mutex
	cfg   *config.Config
	state State

	queue  *workQueue
	states chan State
	done   chan struct{}
	once   sync.Once
}

// New creates the coordinator in StateLoading. Call Run to start.
func New(cfg *config.Config, deps Deps) *App {
	a := &App{
		deps:   deps,
		cfg:    cfg,
		state:  StateLoading,
		queue:  newWorkQueue(8),
		states: make(chan State, 32),
		done:   make(chan struct{}),
	}
	go a.pushStates()
	return a
}

// State returns the current application state.
func (a *App) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Run submits the initial model load, consumes hotkey events in the
// background and blocks on the state sink's loop.
func (a *App) Run(events <-chan hotkey.Event) {
	a.queue.Submit(a.loadModel)

	go func() {
		for ev := range events {
			switch ev.Type {
			case hotkey.EventActivate:
				a.Activate()
			case hotkey.EventDeactivate:
				a.Deactivate()
			}
		}
	}()

	a.deps.Sink.Run()
}

// Activate handles a logical hotkey activation. In toggle mode the
// debouncer only ever emits activations, so an activation while
// recording means stop.
func (a *App) Activate() {
	a.mu.Lock()
	switch a.state {
	case StateIdle:
		if err := a.deps.Engine.Start(); err != nil {
			a.mu.Unlock()
			slog.Error("app: recording start failed", "error", err)
			a.deps.Notifier.Error("Transcriptor", "Could not start recording: "+err.Error())
			return
		}
		fallback := a.deps.Engine.FallbackUsed()
		a.setState(StateRecording)
		a.mu.Unlock()
		if fallback {
			a.deps.Notifier.Info("Transcriptor", "Configured device unavailable, recording from fallback input.")
		}

	case StateRecording:
		a.finishRecording()

	case StateProcessing:
		a.mu.Unlock()
		a.deps.Notifier.Info("Transcriptor", "Still processing, please wait.")

	case StateLoading:
		a.mu.Unlock()
		a.deps.Notifier.Info("Transcriptor", "Loading model, please wait.")
	}
}

// Deactivate handles a logical hotkey deactivation (push-to-talk
// release). Outside of Recording it is a no-op.
func (a *App) Deactivate() {
	a.mu.Lock()
	if a.state != StateRecording {
		a.mu.Unlock()
		return
	}
	a.finishRecording()
}

// finishRecording stops the capture and either enqueues transcription
// or returns to idle. Called with a.mu held; releases it.
func (a *App) finishRecording() {
	samples := a.deps.Engine.Stop()

	if len(samples) == 0 {
		a.setState(StateIdle)
		a.mu.Unlock()
		a.deps.Notifier.Info("Transcriptor", "No audio captured.")
		return
	}
	if len(samples) < minSamples {
		a.setState(StateIdle)
		a.mu.Unlock()
		slog.Info("app: capture too short", "samples", len(samples), "min", minSamples)
		a.deps.Notifier.Info("Transcriptor", "Recording too short.")
		return
	}

	a.setState(StateProcessing)
	a.mu.Unlock()
	a.queue.Submit(func() { a.transcribeJob(samples) })
}

// transcribeJob runs on the worker. Ownership of samples moved here
// with the submission; nothing else touches them.
func (a *App) transcribeJob(samples []float32) {
	a.mu.Lock()
	language := a.cfg.Language
	autoPaste := a.cfg.AutoPaste
	a.mu.Unlock()

	start := time.Now()
	text, err := a.deps.Transcriber.Transcribe(samples, language)

	a.mu.Lock()
	a.setState(StateIdle)
	a.mu.Unlock()

	if err != nil {
		slog.Error("app: transcription failed", "error", err)
		a.deps.Notifier.Error("Transcription error", err.Error())
		return
	}

	elapsed := time.Since(start).Round(time.Millisecond)
	if text == "" {
		slog.Info("app: no speech detected", "elapsed", elapsed)
		a.deps.Notifier.Info("Transcriptor", "No speech detected.")
		return
	}

	slog.Info("app: transcribed", "elapsed", elapsed, "chars", len(text))

	if autoPaste {
		if err := a.deps.Injector.Inject(text); err != nil {
			slog.Error("app: text injection failed", "error", err)
			a.deps.Notifier.Error("Transcriptor", "Could not inject text: "+err.Error())
		}
	}
	a.deps.Notifier.Info("Transcription", truncate(text, 200))
}

// loadModel is the startup job: Loading -> Idle, or stays Loading on
// failure so the user can retry by changing settings.
func (a *App) loadModel() {
	err := a.deps.Transcriber.Load()

	a.mu.Lock()
	key := a.cfg.Hotkey.Key
	if err != nil {
		a.mu.Unlock()
		slog.Error("app: model load failed", "error", err)
		a.deps.Notifier.Error("Transcriptor", "Could not load model: "+err.Error())
		return
	}
	a.setState(StateIdle)
	a.mu.Unlock()
	a.deps.Notifier.Info("Transcriptor", fmt.Sprintf("Model loaded. Press %s to record.", key))
}

// SetModelSize switches the transcription model. The app goes back to
// Loading and the reload queues behind any in-flight transcription.
func (a *App) SetModelSize(size string) {
	a.mu.Lock()
	if a.cfg.ModelSize == size {
		a.mu.Unlock()
		return
	}
	a.cfg.ModelSize = size
	a.setState(StateLoading)
	a.mu.Unlock()

	a.saveConfig()
	a.queue.Submit(func() { a.reloadModel(size) })
}

func (a *App) reloadModel(size string) {
	a.deps.Notifier.Info("Transcriptor", fmt.Sprintf("Switching to model %q...", size))
	err := a.deps.Transcriber.Reload(size)

	a.mu.Lock()
	if err != nil {
		a.mu.Unlock()
		slog.Error("app: model reload failed", "size", size, "error", err)
		a.deps.Notifier.Error("Transcriptor", "Could not switch model: "+err.Error())
		return
	}
	a.setState(StateIdle)
	a.mu.Unlock()
	a.deps.Notifier.Info("Transcriptor", fmt.Sprintf("Model %q loaded.", size))
}

// SetHotkey rebinds the hotkey. No state transition.
func (a *App) SetHotkey(key string) error {
	if a.deps.Hotkey != nil {
		if err := a.deps.Hotkey.Rebind(key); err != nil {
			return err
		}
	}
	a.mu.Lock()
	a.cfg.Hotkey.Key = key
	a.mu.Unlock()
	a.saveConfig()
	return nil
}

// SetHotkeyMode switches between toggle and push-to-talk.
func (a *App) SetHotkeyMode(mode string) error {
	m, err := hotkey.ParseMode(mode)
	if err != nil {
		return err
	}
	if a.deps.Hotkey != nil {
		a.deps.Hotkey.SetMode(m)
	}
	a.mu.Lock()
	a.cfg.Hotkey.Mode = mode
	a.mu.Unlock()
	a.saveConfig()
	return nil
}

// SetDebounceWindow changes the push-to-talk release debounce window.
// Takes effect immediately, without restarting the hook.
func (a *App) SetDebounceWindow(ms int) {
	if a.deps.Hotkey != nil {
		a.deps.Hotkey.SetWindow(time.Duration(ms) * time.Millisecond)
	}
	a.mu.Lock()
	a.cfg.Hotkey.DebounceMS = ms
	a.mu.Unlock()
	a.saveConfig()
}

// SetDevice changes the capture device. Applies on the next recording.
func (a *App) SetDevice(selector string) {
	a.deps.Engine.SetDevice(selector)
	a.mu.Lock()
	a.cfg.Audio.Device = selector
	a.mu.Unlock()
	a.saveConfig()
}

func (a *App) saveConfig() {
	if a.deps.SaveConfig == nil {
		return
	}
	a.mu.Lock()
	cfg := *a.cfg
	a.mu.Unlock()
	if err := a.deps.SaveConfig(&cfg); err != nil {
		slog.Error("app: saving config failed", "error", err)
	}
}

// Shutdown stops the listener, discards any active capture, stops the
// worker without waiting and halts the sink.
func (a *App) Shutdown() {
	if a.deps.Hotkey != nil {
		a.deps.Hotkey.Stop()
	}
	if a.deps.Engine.IsRecording() {
		a.deps.Engine.Stop()
	}
	a.queue.Shutdown()
	a.once.Do(func() { close(a.done) })
	a.deps.Sink.Stop()
}

// setState records the new state and hands it to the sink goroutine.
// Must be called with a.mu held; never blocks. On a full buffer the
// oldest entry is evicted so the sink always ends on the newest state.
func (a *App) setState(s State) {
	a.state = s
	for {
		select {
		case a.states <- s:
			return
		default:
		}
		select {
		case <-a.states:
		default:
		}
	}
}

// pushStates forwards state changes to the sink outside the lock, in
// the order they happened.
func (a *App) pushStates() {
	for {
		select {
		case <-a.done:
			return
		case s := <-a.states:
			a.deps.Sink.SetState(s)
		}
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
