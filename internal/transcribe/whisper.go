package transcribe

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	whisper "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
)

// Whisper implements Transcriber on top of whisper.cpp. Model files are
// resolved from size names ("small" -> ggml-small.bin) under modelsDir.
type Whisper struct {
	mu        sync.Mutex
	modelsDir string
	size      string
	model     whisper.Model
}

// NewWhisper creates an unloaded Whisper backend. Call Load before
// Transcribe; the caller must Close when done.
func NewWhisper(modelsDir, size string) *Whisper {
	return &Whisper{modelsDir: modelsDir, size: size}
}

// ModelPath returns the model file that Load will open.
func (w *Whisper) ModelPath() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return filepath.Join(w.modelsDir, "ggml-"+w.size+".bin")
}

// Load loads the model file into memory. Slow (several seconds for the
// larger sizes).
func (w *Whisper) Load() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	path := filepath.Join(w.modelsDir, "ggml-"+w.size+".bin")
	start := time.Now()
	model, err := whisper.New(path)
	if err != nil {
		return fmt.Errorf("transcribe: load model %q: %w", path, err)
	}

	if w.model != nil {
		w.model.Close()
	}
	w.model = model
	slog.Info("transcribe: model loaded", "size", w.size, "elapsed", time.Since(start).Round(time.Millisecond))
	return nil
}

// Reload unloads the current model and loads the given size.
func (w *Whisper) Reload(size string) error {
	w.mu.Lock()
	if w.model != nil {
		w.model.Close()
		w.model = nil
	}
	w.size = size
	w.mu.Unlock()

	return w.Load()
}

// Transcribe converts mono 16kHz float32 samples to text.
func (w *Whisper) Transcribe(samples []float32, language string) (string, error) {
	w.mu.Lock()
	model := w.model
	w.mu.Unlock()

	if model == nil {
		return "", ErrModelNotLoaded
	}

	ctx, err := model.NewContext()
	if err != nil {
		return "", fmt.Errorf("transcribe: create context: %w", err)
	}

	if language != "" {
		if err := ctx.SetLanguage(language); err != nil {
			return "", fmt.Errorf("transcribe: set language %q: %w", language, err)
		}
	}

	if err := ctx.Process(samples, nil, nil, nil); err != nil {
		return "", fmt.Errorf("transcribe: process: %w", err)
	}

	var segments []string
	for {
		seg, err := ctx.NextSegment()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("transcribe: next segment: %w", err)
		}
		segments = append(segments, strings.TrimSpace(seg.Text))
	}

	return strings.TrimSpace(strings.Join(segments, " ")), nil
}

// Close releases the loaded model, if any.
func (w *Whisper) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.model != nil {
		err := w.model.Close()
		w.model = nil
		return err
	}
	return nil
}
