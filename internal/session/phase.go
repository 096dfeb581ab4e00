package session

import (
	"github.com/1F47E/go-photobooth/internal/camera"
)

// Phase is the single state a session is in.
type Phase int

const (
	Idle Phase = iota
	Acquiring
	Live
	CountingDown
	CapturingFrame
	Composing
	Reviewing
)

var phaseNames = [...]string{"idle", "acquiring", "live", "counting-down", "capturing", "composing", "reviewing"}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return "unknown"
	}
	return phaseNames[p]
}

// Snapshot is a copy of the session state at one point in time.
type Snapshot struct {
	ID     string
	Phase  Phase
	Label  string
	Count  int
	Max    int
	Filter string
	Facing camera.Facing
	// Failed lists strip cells left blank, set once reviewing.
	Failed []int
}

// Status is the short line shown under the preview.
func (s Snapshot) Status() string {
	switch {
	case s.Phase == Idle:
		return camera.PromptMessage
	case s.Count == 0:
		return "Ready to click your first snap!"
	case s.Count == 1:
		return "2 more to go!"
	case s.Count == 2:
		return "One last snap!"
	default:
		return "All done! Generating collage..."
	}
}

type EventType int

const (
	EventPhase EventType = iota
	EventCountdown
	EventCaptured
	EventStrip
	EventPrompt
	EventError
)

type Event struct {
	Type     EventType
	Snapshot Snapshot
	Text     string
	Err      error
}
