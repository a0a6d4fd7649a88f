package trigger

import (
	"math"

	"github.com/Alia5/padbridge/input"
)

// Evaluator evaluates rules against live state. It holds no state of its own
// and is safe for concurrent use as long as its collaborators are.
type Evaluator struct {
	Modifiers input.Modifiers
	// Sticks provides the paired axis sample for deadzone shaping. A nil
	// cache reads every sibling as centered.
	Sticks *input.StickCache
}

// CheckModifiers reports whether the held modifiers satisfy the rule.
// Modifiers the rule does not require are ignored.
func (e Evaluator) CheckModifiers(r *Rule) bool {
	m := input.Snapshot(e.Modifiers)
	if r.NoModifiers {
		return !m.Ctrl && !m.Alt && !m.Shift
	}
	if r.Ctrl && !m.Ctrl {
		return false
	}
	if r.Alt && !m.Alt {
		return false
	}
	if r.Shift && !m.Shift {
		return false
	}
	return true
}

// IsActive reports whether the rule's input is off its rest position and the
// modifiers match.
func (e Evaluator) IsActive(r *Rule) bool {
	if r.Source == nil {
		return false
	}
	if r.Source.Value() == 0 {
		return false
	}
	return e.CheckModifiers(r)
}

// Payload returns the value the rule drives its target with. ok is false when
// the rule has no input. Analog payloads are inverted and shaped as
// configured; the result is always within [-1, 1].
func (e Evaluator) Payload(r *Rule) (v float64, ok bool) {
	if r.Source == nil {
		return 0, false
	}
	ch := r.Source.Channel()
	v = r.Source.Value()
	if !ch.Kind.IsAxis() {
		if v != 0 {
			return 1, true
		}
		return 0, true
	}
	if r.Invert {
		v = -v
	}
	if r.Deadzone != nil {
		v = r.Deadzone.Component(v, e.Sticks.Paired(ch), ch.Kind == input.KindAxisX)
	}
	return clamp(v), true
}

func clamp(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(-1, math.Min(1, v))
}
