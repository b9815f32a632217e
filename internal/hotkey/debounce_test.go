package hotkey

import (
	"testing"
	"time"
)

// drain collects events arriving within the wait period.
func drain(d *Debouncer, wait time.Duration) []Event {
	var events []Event
	deadline := time.After(wait)
	for {
		select {
		case ev := <-d.Events():
			events = append(events, ev)
		case <-deadline:
			return events
		}
	}
}

func count(events []Event) (activates, deactivates int) {
	for _, ev := range events {
		switch ev.Type {
		case EventActivate:
			activates++
		case EventDeactivate:
			deactivates++
		}
	}
	return
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		input   string
		want    Mode
		wantErr bool
	}{
		{"toggle", ModeToggle, false},
		{"push_to_talk", ModePushToTalk, false},
		{"hold", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseMode(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseMode(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseMode(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestToggleIgnoresAutoRepeat(t *testing.T) {
	d := NewDebouncer(ModeToggle, 50*time.Millisecond)

	// Physical press, two auto-repeat presses, physical release.
	d.Press()
	d.Press()
	d.Press()
	d.Release()

	a, de := count(drain(d, 20*time.Millisecond))
	if a != 1 {
		t.Errorf("activates = %d, want 1", a)
	}
	if de != 0 {
		t.Errorf("deactivates = %d, want 0 (toggle releases are silent)", de)
	}
}

func TestToggleSecondGestureActivatesAgain(t *testing.T) {
	d := NewDebouncer(ModeToggle, 50*time.Millisecond)

	d.Press()
	d.Release()
	d.Press()
	d.Release()

	a, de := count(drain(d, 20*time.Millisecond))
	if a != 2 {
		t.Errorf("activates = %d, want 2 (one per gesture)", a)
	}
	if de != 0 {
		t.Errorf("deactivates = %d, want 0", de)
	}
}

func TestPushToTalkAbsorbsAutoRepeatRelease(t *testing.T) {
	d := NewDebouncer(ModePushToTalk, 50*time.Millisecond)

	d.Press()
	d.Release() // synthetic: auto-repeat pair
	time.Sleep(5 * time.Millisecond)
	d.Press() // cancels the pending deactivate
	time.Sleep(5 * time.Millisecond)
	d.Release() // real release

	a, de := count(drain(d, 200*time.Millisecond))
	if a != 1 {
		t.Errorf("activates = %d, want 1", a)
	}
	if de != 1 {
		t.Errorf("deactivates = %d, want 1 (intermediate release absorbed)", de)
	}
}

func TestPushToTalkDeactivatesAfterWindow(t *testing.T) {
	d := NewDebouncer(ModePushToTalk, 30*time.Millisecond)

	d.Press()
	d.Release()

	events := drain(d, 150*time.Millisecond)
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].Type != EventActivate || events[1].Type != EventDeactivate {
		t.Errorf("events = %v, want [activate deactivate]", events)
	}
}

func TestPushToTalkRepeatPressWhileHeld(t *testing.T) {
	d := NewDebouncer(ModePushToTalk, 50*time.Millisecond)

	d.Press()
	d.Press()
	d.Press()

	a, de := count(drain(d, 20*time.Millisecond))
	if a != 1 {
		t.Errorf("activates = %d, want 1", a)
	}
	if de != 0 {
		t.Errorf("deactivates = %d, want 0 (still held)", de)
	}
}

func TestResetCancelsPendingDeactivate(t *testing.T) {
	d := NewDebouncer(ModePushToTalk, 50*time.Millisecond)

	d.Press()
	d.Release()
	d.Reset()

	a, de := count(drain(d, 150*time.Millisecond))
	if a != 1 {
		t.Errorf("activates = %d, want 1", a)
	}
	if de != 0 {
		t.Errorf("deactivates = %d, want 0 after Reset", de)
	}

	// The flag is cleared, so the next press is a fresh gesture.
	d.Press()
	a, _ = count(drain(d, 20*time.Millisecond))
	if a != 1 {
		t.Errorf("activates after reset = %d, want 1", a)
	}
}

func TestSetModeResetsState(t *testing.T) {
	d := NewDebouncer(ModePushToTalk, 50*time.Millisecond)

	d.Press()
	d.SetMode(ModeToggle)
	d.Press()

	a, _ := count(drain(d, 20*time.Millisecond))
	if a != 2 {
		t.Errorf("activates = %d, want 2 (mode change clears pressed)", a)
	}
}

func TestZeroWindowFallsBackToDefault(t *testing.T) {
	d := NewDebouncer(ModePushToTalk, 0)
	if d.window != DefaultDebounceWindow {
		t.Errorf("window = %v, want %v", d.window, DefaultDebounceWindow)
	}
}
