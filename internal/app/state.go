package app

// State is the externally visible application state. Exactly one value
// holds at any instant; transitions happen only under the App lock.
type State int

const (
	// StateLoading means the model is loading (startup or reload).
	StateLoading State = iota
	// StateIdle means ready to record.
	StateIdle
	// StateRecording means a capture session is open.
	StateRecording
	// StateProcessing means a transcription job is in flight.
	StateProcessing
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateIdle:
		return "idle"
	case StateRecording:
		return "recording"
	case StateProcessing:
		return "processing"
	default:
		return "unknown"
	}
}

// StateSink receives application state changes, typically to drive a
// tray icon. SetState must not block; Run blocks until Stop.
type StateSink interface {
	SetState(State)
	Run()
	Stop()
}
