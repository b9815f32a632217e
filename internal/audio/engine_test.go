package audio

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

type fakeStream struct {
	stopped bool
}

func (f *fakeStream) stop() { f.stopped = true }

// newTestEngine builds an Engine with no real audio context. Probing
// succeeds for (device, rate) pairs present in supported; opening
// always succeeds unless openErrs is nonzero.
func newTestEngine(devices []Device, supported map[string][]uint32) *Engine {
	e := &Engine{sleep: func(time.Duration) {}}
	e.list = func() ([]Device, error) { return devices, nil }
	e.probe = func(selector string, rate uint32) error {
		for _, r := range supported[selector] {
			if r == rate {
				return nil
			}
		}
		return fmt.Errorf("format not supported")
	}
	e.open = func(selector string, rate uint32, onBlock func([]float32)) (captureStream, error) {
		return &fakeStream{}, nil
	}
	return e
}

func TestNegotiateTriesNativeRateFirst(t *testing.T) {
	devices := []Device{{Name: "USB Mic", DefaultSampleRate: 44100}}
	e := newTestEngine(devices, map[string][]uint32{"USB Mic": {44100, 48000}})

	var tried []uint32
	inner := e.probe
	e.probe = func(sel string, rate uint32) error {
		tried = append(tried, rate)
		return inner(sel, rate)
	}

	rate, err := e.negotiateRate("USB Mic")
	if err != nil {
		t.Fatalf("negotiateRate() error = %v", err)
	}
	if rate != 44100 {
		t.Errorf("rate = %d, want 44100 (native)", rate)
	}
	if len(tried) != 1 || tried[0] != 44100 {
		t.Errorf("tried = %v, want native rate first and only", tried)
	}
}

func TestNegotiateReturnsFirstSupported(t *testing.T) {
	devices := []Device{{Name: "USB Mic", DefaultSampleRate: 44100}}
	e := newTestEngine(devices, map[string][]uint32{"USB Mic": {48000, 96000}})

	var tried []uint32
	inner := e.probe
	e.probe = func(sel string, rate uint32) error {
		tried = append(tried, rate)
		return inner(sel, rate)
	}

	rate, err := e.negotiateRate("USB Mic")
	if err != nil {
		t.Fatalf("negotiateRate() error = %v", err)
	}
	if rate != 48000 {
		t.Errorf("rate = %d, want 48000", rate)
	}
	// Native first, then the candidate list up to the first success.
	want := []uint32{44100, 16000, 48000}
	if len(tried) != len(want) {
		t.Fatalf("tried = %v, want %v", tried, want)
	}
	for i := range want {
		if tried[i] != want[i] {
			t.Fatalf("tried = %v, want %v", tried, want)
		}
	}
}

func TestNegotiateExhausted(t *testing.T) {
	e := newTestEngine(nil, nil)

	_, err := e.negotiateRate("Broken Mic")
	if !errors.Is(err, ErrNoSupportedRate) {
		t.Errorf("error = %v, want ErrNoSupportedRate", err)
	}
}

func TestStartFallsBackToMixer(t *testing.T) {
	// Device "X" supports nothing; the pulse mixer works at 48000.
	e := newTestEngine(nil, map[string][]uint32{"pulse": {48000}})
	e.SetDevice("X")

	var opened []string
	e.open = func(sel string, rate uint32, onBlock func([]float32)) (captureStream, error) {
		opened = append(opened, fmt.Sprintf("%s@%d", sel, rate))
		return &fakeStream{}, nil
	}

	if err := e.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if !e.FallbackUsed() {
		t.Error("FallbackUsed() = false, want true after falling back")
	}
	if len(opened) != 1 || opened[0] != "pulse@48000" {
		t.Errorf("opened = %v, want [pulse@48000]", opened)
	}
}

func TestStartAllDevicesFail(t *testing.T) {
	e := newTestEngine(nil, nil)
	e.SetDevice("X")

	err := e.Start()
	if !errors.Is(err, ErrNoWorkingDevice) {
		t.Errorf("Start() error = %v, want ErrNoWorkingDevice", err)
	}
	if e.IsRecording() {
		t.Error("engine should not be recording after failed start")
	}
}

func TestStartWhileRecordingIsNoOp(t *testing.T) {
	e := newTestEngine(nil, map[string][]uint32{"": {16000}})

	opens := 0
	e.open = func(sel string, rate uint32, onBlock func([]float32)) (captureStream, error) {
		opens++
		return &fakeStream{}, nil
	}

	if err := e.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := e.Start(); err != nil {
		t.Fatalf("second Start() error = %v", err)
	}
	if opens != 1 {
		t.Errorf("open called %d times, want 1", opens)
	}
}

func TestStartRetriesStreamOpenOnce(t *testing.T) {
	e := newTestEngine(nil, map[string][]uint32{"": {16000}})

	var slept []time.Duration
	e.sleep = func(d time.Duration) { slept = append(slept, d) }

	opens := 0
	e.open = func(sel string, rate uint32, onBlock func([]float32)) (captureStream, error) {
		opens++
		if opens == 1 {
			return nil, fmt.Errorf("transient driver error")
		}
		return &fakeStream{}, nil
	}

	if err := e.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if opens != 2 {
		t.Errorf("open called %d times, want 2", opens)
	}
	if len(slept) != 1 || slept[0] != openRetryDelay {
		t.Errorf("slept = %v, want [%v]", slept, openRetryDelay)
	}
}

func TestStopWithoutStart(t *testing.T) {
	e := newTestEngine(nil, nil)
	if got := e.Stop(); got != nil {
		t.Errorf("Stop() without Start() = %d samples, want nil", len(got))
	}
}

func TestStopWithNoChunks(t *testing.T) {
	e := newTestEngine(nil, map[string][]uint32{"": {16000}})
	if err := e.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if got := e.Stop(); got != nil {
		t.Errorf("Stop() with zero chunks = %d samples, want nil", len(got))
	}
	if e.IsRecording() {
		t.Error("engine should not be recording after Stop")
	}
}

func TestStopProducesTrimmedNormalizedBuffer(t *testing.T) {
	e := newTestEngine(nil, map[string][]uint32{"": {16000}})

	var deliver func([]float32)
	stream := &fakeStream{}
	e.open = func(sel string, rate uint32, onBlock func([]float32)) (captureStream, error) {
		deliver = onBlock
		return stream, nil
	}

	if err := e.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	// 1s of constant 0.5 at the (already target) capture rate.
	block := make([]float32, 1600)
	for i := range block {
		block[i] = 0.5
	}
	for i := 0; i < 10; i++ {
		deliver(block)
	}

	out := e.Stop()
	if !stream.stopped {
		t.Error("Stop() should close the stream")
	}
	// 100ms trimmed from 1s leaves 900ms.
	if len(out) != 14400 {
		t.Errorf("len(out) = %d, want 14400", len(out))
	}
	for i, v := range out {
		if v != 1.0 {
			t.Fatalf("out[%d] = %v, want 1.0 after normalization", i, v)
		}
	}
}

func TestRateCacheSkipsRenegotiation(t *testing.T) {
	devices := []Device{{Name: "USB Mic", DefaultSampleRate: 48000}}
	e := newTestEngine(devices, map[string][]uint32{"USB Mic": {48000}})
	e.SetDevice("USB Mic")

	probes := 0
	inner := e.probe
	e.probe = func(sel string, rate uint32) error {
		probes++
		return inner(sel, rate)
	}

	if err := e.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	e.Stop()
	if err := e.Start(); err != nil {
		t.Fatalf("second Start() error = %v", err)
	}
	e.Stop()

	if probes != 1 {
		t.Errorf("probe called %d times across two starts, want 1 (cached)", probes)
	}

	// Changing the device invalidates the cache.
	e.SetDevice("USB Mic")
	if err := e.Start(); err != nil {
		t.Fatalf("third Start() error = %v", err)
	}
	if probes != 2 {
		t.Errorf("probe called %d times after device change, want 2", probes)
	}
}

func TestDeviceMatches(t *testing.T) {
	tests := []struct {
		name     string
		dev      Device
		selector string
		want     bool
	}{
		{"exact", Device{Name: "USB Mic"}, "USB Mic", true},
		{"substring", Device{Name: "PulseAudio Sound Server"}, "pulse", true},
		{"case insensitive", Device{Name: "USB Mic"}, "usb", true},
		{"no match", Device{Name: "USB Mic"}, "webcam", false},
		{"empty selects default", Device{Name: "Built-in", IsDefault: true}, "", true},
		{"empty skips non-default", Device{Name: "Built-in"}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.dev.matches(tt.selector); got != tt.want {
				t.Errorf("matches(%q) = %v, want %v", tt.selector, got, tt.want)
			}
		})
	}
}
