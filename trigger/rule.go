// Package trigger evaluates mapping rules: whether a rule is active for the
// current input and modifier state, and what value it drives its target with.
package trigger

import (
	"strings"

	"github.com/Alia5/padbridge/deadzone"
	"github.com/Alia5/padbridge/device"
	"github.com/Alia5/padbridge/input"
)

// Rule binds one input channel to one controller target.
//
// NoModifiers wins over Shift, Ctrl and Alt: when it is set the rule is only
// active with no modifier held, whatever the other flags say.
type Rule struct {
	// Source may be nil, in which case the rule is never active.
	Source input.Source

	Shift, Ctrl, Alt bool
	NoModifiers      bool

	// Invert negates analog payloads.
	Invert bool
	// Deadzone, when set, shapes analog payloads using the paired axis.
	Deadzone *deadzone.Deadzone

	Target device.Target
}

// Bound reports whether the rule has an input.
func (r *Rule) Bound() bool { return r.Source != nil }

func (r *Rule) String() string {
	var b strings.Builder
	if r.NoModifiers {
		b.WriteString("nomod+")
	} else {
		if r.Ctrl {
			b.WriteString("ctrl+")
		}
		if r.Alt {
			b.WriteString("alt+")
		}
		if r.Shift {
			b.WriteString("shift+")
		}
	}
	if r.Source == nil {
		b.WriteString("<none>")
	} else {
		b.WriteString(r.Source.Channel().Ref())
	}
	b.WriteString(" -> ")
	b.WriteString(r.Target.String())
	return b.String()
}
