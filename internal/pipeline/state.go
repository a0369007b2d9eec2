package pipeline

// State of an analysis pipeline
type State int

const (
	StateEmpty State = iota
	StateReady
	StateSubmitting
	StateSucceeded
	StateFailed
)

var stateNames = map[State]string{
	StateEmpty:      "empty",
	StateReady:      "ready",
	StateSubmitting: "submitting",
	StateSucceeded:  "succeeded",
	StateFailed:     "failed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// MarshalText implements encoding.TextMarshaler
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
