package countdown

import (
	"context"
	"time"

	"github.com/1F47E/go-photobooth/internal/config"
)

// Sequencer shows a fixed list of labels, one per Step, before the shutter fires.
type Sequencer struct {
	Steps []string
	Step  time.Duration
	// After is time.After unless a test swaps in its own clock.
	After func(time.Duration) <-chan time.Time
}

func New(steps []string, step time.Duration) *Sequencer {
	if len(steps) == 0 {
		steps = config.CountdownSteps
	}
	return &Sequencer{Steps: steps, Step: step, After: time.After}
}

// Run emits every label in order, holding each for Step, then emits "" to
// clear the display. A cancelled ctx stops the sequence; no label is emitted
// after that.
func (s *Sequencer) Run(ctx context.Context, onStep func(label string)) error {
	after := s.After
	if after == nil {
		after = time.After
	}
	for _, label := range s.Steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		onStep(label)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-after(s.Step):
		}
	}
	onStep("")
	return nil
}

// Duration is how long Run blocks when not cancelled.
func (s *Sequencer) Duration() time.Duration {
	return time.Duration(len(s.Steps)) * s.Step
}
