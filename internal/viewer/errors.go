package viewer

import (
	"errors"
	"fmt"
)

// Viewer errors.
var (
	ErrLoadFailed     = errors.New("asset load failed")
	ErrInvalidStep    = errors.New("invalid step index")
	ErrClosed         = errors.New("viewer closed")
	ErrInvalidSlot    = errors.New("invalid slot")
	ErrUnknownPreset  = errors.New("unknown camera preset")
	ErrUnknownCommand = errors.New("unknown command")
)

// LoadError reports a failed asset load for one slot.
// It matches ErrLoadFailed with errors.Is and unwraps to the loader's error.
type LoadError struct {
	Slot       Slot
	Path       string
	Generation uint64
	Err        error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("loading %s into %s slot: %v", e.Path, e.Slot, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Is reports whether target is ErrLoadFailed.
func (e *LoadError) Is(target error) bool { return target == ErrLoadFailed }

// StepError reports an out-of-range step index.
type StepError struct {
	Index int
	Len   int
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d out of range [0, %d)", e.Index, e.Len)
}

// Is reports whether target is ErrInvalidStep.
func (e *StepError) Is(target error) bool { return target == ErrInvalidStep }
