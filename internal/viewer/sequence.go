package viewer

import (
	"errors"
	"fmt"

	"github.com/Faultbox/archview/internal/config"
)

// Step pairs the assets shown at one time step.
type Step struct {
	Mandibular string
	Maxillary  string
}

// Path returns the asset for slot.
func (s Step) Path(slot Slot) string {
	if slot == Maxillary {
		return s.Maxillary
	}
	return s.Mandibular
}

// Sequence is an immutable, index-aligned list of steps.
type Sequence struct {
	steps []Step
}

// NewSequence validates and copies steps.
func NewSequence(steps []Step) (*Sequence, error) {
	if len(steps) == 0 {
		return nil, errors.New("sequence needs at least one step")
	}
	for i, s := range steps {
		if s.Mandibular == "" || s.Maxillary == "" {
			return nil, fmt.Errorf("step %d: both assets are required", i)
		}
	}
	return &Sequence{steps: append([]Step(nil), steps...)}, nil
}

// SequenceFromConfig builds a sequence from the models.steps section.
func SequenceFromConfig(steps []config.StepConfig) (*Sequence, error) {
	out := make([]Step, len(steps))
	for i, s := range steps {
		out[i] = Step{Mandibular: s.Mandibular, Maxillary: s.Maxillary}
	}
	seq, err := NewSequence(out)
	if err != nil {
		return nil, fmt.Errorf("models steps: %w", err)
	}
	return seq, nil
}

// DefaultSequence returns the five weekly steps under Models/.
func DefaultSequence() *Sequence {
	steps := make([]Step, 5)
	for i := range steps {
		suffix := ""
		if i > 0 {
			suffix = fmt.Sprint(i + 1)
		}
		steps[i] = Step{
			Mandibular: "Models/Mandibular" + suffix + ".ply",
			Maxillary:  "Models/Maxillary" + suffix + ".ply",
		}
	}
	return &Sequence{steps: steps}
}

// Len returns the number of steps.
func (s *Sequence) Len() int {
	return len(s.steps)
}

// Step returns step i.
func (s *Sequence) Step(i int) (Step, error) {
	if i < 0 || i >= len(s.steps) {
		return Step{}, &StepError{Index: i, Len: len(s.steps)}
	}
	return s.steps[i], nil
}

// Steps returns a copy of all steps.
func (s *Sequence) Steps() []Step {
	return append([]Step(nil), s.steps...)
}
