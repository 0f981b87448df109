package assembly

import "fmt"

// State is the session-wide interaction state.
type State uint8

const (
	Idle State = iota
	Selected
	Carrying
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Selected:
		return "selected"
	case Carrying:
		return "carrying"
	default:
		return "unknown"
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(text []byte) error {
	switch string(text) {
	case "idle":
		*s = Idle
	case "selected":
		*s = Selected
	case "carrying":
		*s = Carrying
	default:
		return fmt.Errorf("unknown state %q", text)
	}
	return nil
}
