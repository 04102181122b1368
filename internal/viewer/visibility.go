package viewer

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/archview/internal/engine/scene"
)

// VisibilityPolicy decides how toggling one arch affects the other.
type VisibilityPolicy int

const (
	// PolicyKeepOneVisible flips the toggled arch. Hiding it while the other is
	// hidden shows the other instead, and showing it again re-hides an arch that
	// was only shown for that reason. At least one arch stays visible and two
	// toggles of the same arch restore the previous state.
	PolicyKeepOneVisible VisibilityPolicy = iota

	// PolicyExclusive flips the toggled arch and always hides the other.
	PolicyExclusive
)

// ParseVisibilityPolicy parses "keep-one" or "exclusive".
func ParseVisibilityPolicy(s string) (VisibilityPolicy, error) {
	switch s {
	case "", "keep-one":
		return PolicyKeepOneVisible, nil
	case "exclusive":
		return PolicyExclusive, nil
	default:
		return 0, fmt.Errorf("unknown visibility policy %q", s)
	}
}

func (p VisibilityPolicy) String() string {
	switch p {
	case PolicyKeepOneVisible:
		return "keep-one"
	case PolicyExclusive:
		return "exclusive"
	default:
		return fmt.Sprintf("VisibilityPolicy(%d)", int(p))
	}
}

// Visibility toggles slot visibility under a policy.
type Visibility struct {
	slots  *SlotManager
	policy VisibilityPolicy
	log    *zap.Logger

	// forced marks an arch shown only to keep one visible
	forced [scene.SlotCount]bool
}

// NewVisibility creates a visibility controller over slots.
func NewVisibility(slots *SlotManager, policy VisibilityPolicy, log *zap.Logger) *Visibility {
	return &Visibility{slots: slots, policy: policy, log: log}
}

// Policy returns the active policy.
func (v *Visibility) Policy() VisibilityPolicy {
	return v.policy
}

// Toggle flips slot's visibility and adjusts the other slot per the policy.
// The change is applied to the scene graph before Toggle returns.
//
// Under the default PolicyKeepOneVisible the other arch is not hidden on every
// toggle: it is only shown or re-hidden to keep one arch on screen. The
// "toggling one arch always hides the other" behavior is PolicyExclusive
// (visibility.policy: exclusive), which does not restore the previous state
// after two toggles of the same arch.
func (v *Visibility) Toggle(slot Slot) error {
	if !slot.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidSlot, int(slot))
	}
	other := slot.Other()
	show := !v.slots.Visible(slot)
	v.slots.SetVisible(slot, show)

	switch v.policy {
	case PolicyExclusive:
		v.slots.SetVisible(other, false)
	default:
		v.forced[slot] = false
		switch {
		case !show && !v.slots.Visible(other):
			v.slots.SetVisible(other, true)
			v.forced[other] = true
		case show && v.forced[other]:
			v.slots.SetVisible(other, false)
			v.forced[other] = false
		}
	}

	v.log.Debug("visibility toggled",
		zap.Stringer("slot", slot),
		zap.Bool("mandibular", v.slots.Visible(Mandibular)),
		zap.Bool("maxillary", v.slots.Visible(Maxillary)))
	return nil
}

// ShowAll makes both slots visible and forgets manual hide state.
func (v *Visibility) ShowAll() {
	for _, s := range scene.Slots {
		v.slots.SetVisible(s, true)
		v.forced[s] = false
	}
}
