// Package audio captures microphone input via miniaudio (malgo) and
// produces mono float32 buffers at a fixed 16 kHz rate, negotiating a
// working capture rate per device and falling back to the system mixer
// when a configured device is unusable.
package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/gen2brain/malgo"
)

// TargetRate is the sample rate of every buffer returned by Stop.
const TargetRate uint32 = 16000

const (
	trimDuration   = 100 * time.Millisecond
	openRetryDelay = 200 * time.Millisecond
)

// candidateRates are probed in order when a device's native rate is
// unknown or unusable.
var candidateRates = []uint32{16000, 48000, 44100, 32000, 22050, 8000, 96000}

// fallbackSelectors are tried in order when an explicitly configured
// device fails completely. "pulse" matches the pulse/pipewire mixer by
// name where the backend exposes it; "" is the backend default route.
var fallbackSelectors = []string{"pulse", ""}

var (
	// ErrNoSupportedRate means every candidate rate failed for a device.
	ErrNoSupportedRate = errors.New("audio: no supported sample rate")
	// ErrNoWorkingDevice means the configured device and all fallbacks failed.
	ErrNoWorkingDevice = errors.New("audio: no working input device")
)

// captureStream is an open, running capture stream.
type captureStream interface {
	stop()
}

// session is the state of one in-progress recording. Chunks are
// appended from the driver callback under their own lock so stopping
// the stream never contends with the data path.
type session struct {
	selector string
	rate     uint32
	stream   captureStream

	mu     sync.Mutex
	chunks [][]float32
}

func (s *session) append(block []float32) {
	s.mu.Lock()
	s.chunks = append(s.chunks, block)
	s.mu.Unlock()
}

func (s *session) concat() []float32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.chunks) == 0 {
		return nil
	}
	total := 0
	for _, c := range s.chunks {
		total += len(c)
	}
	out := make([]float32, 0, total)
	for _, c := range s.chunks {
		out = append(out, c...)
	}
	return out
}

// Engine owns the audio context and at most one capture session.
type Engine struct {
	ctx *malgo.AllocatedContext

	mu           sync.Mutex
	selector     string
	recording    bool
	session      *session
	fallbackUsed bool

	// Negotiated-rate cache for the configured selector.
	cachedRate     uint32
	cachedSelector string
	cacheValid     bool

	// Overridable for tests.
	probe func(selector string, rate uint32) error
	open  func(selector string, rate uint32, onBlock func([]float32)) (captureStream, error)
	list  func() ([]Device, error)
	sleep func(time.Duration)
}

// NewEngine initializes the audio context. The host's own log output is
// discarded so failed rate probes do not spam the process diagnostics;
// the engine logs probes itself. Call Close when done.
func NewEngine() (*Engine, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(string) {})
	if err != nil {
		return nil, fmt.Errorf("audio: initializing context: %w", err)
	}
	e := &Engine{ctx: ctx, sleep: time.Sleep}
	e.probe = e.probeMalgo
	e.open = e.openMalgo
	e.list = e.devicesMalgo
	return e, nil
}

// SetDevice changes the input device selector. An empty selector means
// the system default route. The change takes effect on the next Start;
// changing it mid-recording never touches the open session.
func (e *Engine) SetDevice(selector string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.recording {
		slog.Warn("audio: device changed while recording, applies on next start",
			"device", selector)
	}
	e.selector = selector
	e.cacheValid = false
}

// IsRecording reports whether a capture session is open.
func (e *Engine) IsRecording() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.recording
}

// FallbackUsed reports whether the last Start resorted to a fallback
// device instead of the configured one.
func (e *Engine) FallbackUsed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.fallbackUsed
}

// Start opens a capture stream on the configured device, negotiating a
// sample rate as needed. Starting while recording is a no-op. When the
// configured device fails at every rate, the system mixer and then the
// default route are tried before giving up with ErrNoWorkingDevice.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.recording {
		return nil
	}
	e.fallbackUsed = false

	selectors := []string{e.selector}
	if e.selector != "" {
		for _, fb := range fallbackSelectors {
			if fb != e.selector {
				selectors = append(selectors, fb)
			}
		}
	}

	var lastErr error
	for i, sel := range selectors {
		rate, err := e.rateFor(sel, i == 0)
		if err != nil {
			lastErr = err
			slog.Warn("audio: device unusable", "device", sel, "error", err)
			continue
		}

		stream, s, err := e.openSession(sel, rate)
		if err != nil {
			lastErr = err
			slog.Warn("audio: stream open failed", "device", sel, "error", err)
			continue
		}

		s.stream = stream
		e.session = s
		e.recording = true
		e.fallbackUsed = i > 0
		slog.Info("audio: recording started", "device", sel, "rate", rate, "fallback", e.fallbackUsed)
		return nil
	}

	if lastErr != nil {
		return fmt.Errorf("%w: %v", ErrNoWorkingDevice, lastErr)
	}
	return ErrNoWorkingDevice
}

// rateFor resolves the capture rate for a selector, consulting the
// cache only for the configured (non-fallback) device.
func (e *Engine) rateFor(selector string, useCache bool) (uint32, error) {
	if useCache && e.cacheValid && e.cachedSelector == selector {
		return e.cachedRate, nil
	}
	rate, err := e.negotiateRate(selector)
	if err != nil {
		return 0, err
	}
	if useCache {
		e.cachedRate = rate
		e.cachedSelector = selector
		e.cacheValid = true
	}
	return rate, nil
}

// negotiateRate probes candidate rates and returns the first that the
// device accepts. The device's reported default rate, when known, is
// always tried first.
func (e *Engine) negotiateRate(selector string) (uint32, error) {
	rates := make([]uint32, 0, len(candidateRates)+1)
	if native := e.nativeRate(selector); native != 0 {
		rates = append(rates, native)
	}
	for _, r := range candidateRates {
		if len(rates) > 0 && r == rates[0] {
			continue
		}
		rates = append(rates, r)
	}

	for _, rate := range rates {
		if err := e.probe(selector, rate); err != nil {
			slog.Debug("audio: rate not supported", "device", selector, "rate", rate, "error", err)
			continue
		}
		slog.Info("audio: using capture rate", "device", selector, "rate", rate)
		return rate, nil
	}

	return 0, fmt.Errorf("%w: device %q, tried %v", ErrNoSupportedRate, selector, rates)
}

// nativeRate returns the device's reported default sample rate, or 0
// when the device cannot be found or reports none.
func (e *Engine) nativeRate(selector string) uint32 {
	devices, err := e.list()
	if err != nil {
		return 0
	}
	for _, d := range devices {
		if d.matches(selector) {
			return d.DefaultSampleRate
		}
	}
	return 0
}

// openSession opens and starts the stream, retrying once after a short
// delay on a transient driver error.
func (e *Engine) openSession(selector string, rate uint32) (captureStream, *session, error) {
	s := &session{selector: selector, rate: rate}

	stream, err := e.open(selector, rate, s.append)
	if err != nil {
		slog.Warn("audio: stream open failed, retrying", "delay", openRetryDelay, "error", err)
		e.sleep(openRetryDelay)
		stream, err = e.open(selector, rate, s.append)
		if err != nil {
			return nil, nil, err
		}
	}
	return stream, s, nil
}

// Stop closes the capture stream and returns the finished buffer: all
// chunks concatenated, the leading ~100 ms trimmed, resampled to
// TargetRate and peak-normalized. Returns nil when no session was open
// or nothing was captured.
func (e *Engine) Stop() []float32 {
	e.mu.Lock()
	if !e.recording || e.session == nil {
		e.mu.Unlock()
		return nil
	}
	s := e.session
	e.session = nil
	e.recording = false
	e.mu.Unlock()

	s.stream.stop()

	raw := s.concat()
	if raw == nil {
		return nil
	}

	out := trimLeading(raw, s.rate, trimDuration)
	if s.rate != TargetRate {
		slog.Info("audio: resampling", "from", s.rate, "to", TargetRate)
		out = resamplePoly(out, s.rate, TargetRate)
	}
	return normalize(out)
}

// Close releases the capture stream (if open) and the audio context.
func (e *Engine) Close() error {
	e.mu.Lock()
	s := e.session
	e.session = nil
	e.recording = false
	e.mu.Unlock()

	if s != nil {
		s.stream.stop()
	}

	if e.ctx != nil {
		if err := e.ctx.Uninit(); err != nil {
			return fmt.Errorf("audio: uninitializing context: %w", err)
		}
		e.ctx.Free()
		e.ctx = nil
	}
	return nil
}

// malgoStream adapts a malgo device to captureStream.
type malgoStream struct {
	dev *malgo.Device
}

func (m *malgoStream) stop() {
	m.dev.Uninit()
}

func (e *Engine) deviceConfig(selector string, rate uint32) (malgo.DeviceConfig, error) {
	cfg := malgo.DefaultDeviceConfig(malgo.Capture)
	cfg.Capture.Format = malgo.FormatF32
	cfg.Capture.Channels = 1
	cfg.SampleRate = rate

	if selector != "" {
		dev, err := e.findDevice(selector)
		if err != nil {
			return cfg, err
		}
		cfg.Capture.DeviceID = dev.id.Pointer()
	}
	return cfg, nil
}

// probeMalgo checks a (device, rate) pair by opening and immediately
// closing a capture device, without starting it.
func (e *Engine) probeMalgo(selector string, rate uint32) error {
	cfg, err := e.deviceConfig(selector, rate)
	if err != nil {
		return err
	}
	dev, err := malgo.InitDevice(e.ctx.Context, cfg, malgo.DeviceCallbacks{
		Data: func(_, _ []byte, _ uint32) {},
	})
	if err != nil {
		return err
	}
	dev.Uninit()
	return nil
}

func (e *Engine) openMalgo(selector string, rate uint32, onBlock func([]float32)) (captureStream, error) {
	cfg, err := e.deviceConfig(selector, rate)
	if err != nil {
		return nil, err
	}

	callbacks := malgo.DeviceCallbacks{
		Data: func(_, input []byte, frameCount uint32) {
			// Driver thread: copy out and hand off, nothing else.
			onBlock(bytesToFloat32(input, frameCount))
		},
	}

	dev, err := malgo.InitDevice(e.ctx.Context, cfg, callbacks)
	if err != nil {
		return nil, fmt.Errorf("initializing capture device: %w", err)
	}
	if err := dev.Start(); err != nil {
		dev.Uninit()
		return nil, fmt.Errorf("starting capture device: %w", err)
	}
	return &malgoStream{dev: dev}, nil
}

// bytesToFloat32 converts raw little-endian float32 bytes to samples.
func bytesToFloat32(data []byte, sampleCount uint32) []float32 {
	samples := make([]float32, 0, sampleCount)
	for i := uint32(0); i < sampleCount; i++ {
		offset := i * 4
		if offset+4 > uint32(len(data)) {
			break
		}
		bits := binary.LittleEndian.Uint32(data[offset : offset+4])
		samples = append(samples, math.Float32frombits(bits))
	}
	return samples
}
