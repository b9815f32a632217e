// Package transcribe provides the speech-to-text backend. The rest of
// the application only sees the Transcriber interface; the concrete
// implementation wraps the whisper.cpp Go bindings.
package transcribe

import "errors"

// ErrModelNotLoaded means Transcribe was called before a successful Load.
var ErrModelNotLoaded = errors.New("transcribe: model not loaded")

// Transcriber converts audio to text. Load and Reload are slow
// (seconds) and must run on a worker, never on an event thread.
type Transcriber interface {
	// Load loads the configured model into memory.
	Load() error
	// Transcribe converts mono 16kHz float32 samples to text. An empty
	// language means auto-detect.
	Transcribe(samples []float32, language string) (string, error)
	// Reload swaps to a different model size, unloading the current one.
	Reload(modelSize string) error
	// Close releases backend resources.
	Close() error
}
