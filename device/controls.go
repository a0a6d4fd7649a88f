// Package device provides the controller vocabulary shared by every emulated
// output device: the buttons and axes a rule can drive.
package device

import (
	"fmt"

	"github.com/iancoleman/strcase"
)

// Button identifies a digital control of the virtual controller.
type Button uint8

const (
	ButtonA Button = iota
	ButtonB
	ButtonX
	ButtonY
	ButtonUp
	ButtonDown
	ButtonLeft
	ButtonRight
	ButtonLeftShoulder
	ButtonLeftStick // Left stick click
	ButtonRightShoulder
	ButtonRightStick // Right stick click
	ButtonStart
	ButtonBack
	ButtonGuide
)

// NumButtons is the number of digital controls.
const NumButtons = 15

// Axis identifies an analog control of the virtual controller.
type Axis uint8

const (
	AxisLeftStickX Axis = iota
	AxisLeftStickY
	AxisRightStickX
	AxisRightStickY
	AxisLeftTrigger
	AxisRightTrigger
)

// NumAxes is the number of analog controls.
const NumAxes = 6

var buttonNames = [NumButtons]string{
	"a", "b", "x", "y",
	"up", "down", "left", "right",
	"leftShoulder", "leftStick", "rightShoulder", "rightStick",
	"start", "back", "guide",
}

var axisNames = [NumAxes]string{
	"leftStickX", "leftStickY", "rightStickX", "rightStickY",
	"leftTrigger", "rightTrigger",
}

func (b Button) String() string {
	if int(b) < NumButtons {
		return buttonNames[b]
	}
	return fmt.Sprintf("button(%d)", uint8(b))
}

// Valid reports whether b names a known button.
func (b Button) Valid() bool { return int(b) < NumButtons }

func (a Axis) String() string {
	if int(a) < NumAxes {
		return axisNames[a]
	}
	return fmt.Sprintf("axis(%d)", uint8(a))
}

// Valid reports whether a names a known axis.
func (a Axis) Valid() bool { return int(a) < NumAxes }

// TargetKind tells which control family a Target drives.
type TargetKind uint8

const (
	TargetNone TargetKind = iota
	TargetButton
	TargetAxis
)

// Target is the output side of a mapping rule: exactly one button or one axis.
type Target struct {
	Kind   TargetKind
	Button Button
	Axis   Axis
}

// ButtonTarget returns a Target driving b.
func ButtonTarget(b Button) Target { return Target{Kind: TargetButton, Button: b} }

// AxisTarget returns a Target driving a.
func AxisTarget(a Axis) Target { return Target{Kind: TargetAxis, Axis: a} }

func (t Target) String() string {
	switch t.Kind {
	case TargetButton:
		return t.Button.String()
	case TargetAxis:
		return t.Axis.String()
	default:
		return "<none>"
	}
}

// Aliases accepted in addition to the canonical names.
var targetAliases = map[string]string{
	"dpadUp":    "up",
	"dpadDown":  "down",
	"dpadLeft":  "left",
	"dpadRight": "right",
	"lb":        "leftShoulder",
	"rb":        "rightShoulder",
	"l3":        "leftStick",
	"r3":        "rightStick",
	"lt":        "leftTrigger",
	"rt":        "rightTrigger",
	"select":    "back",
	"home":      "guide",
}

var targetsByName = func() map[string]Target {
	m := make(map[string]Target, NumButtons+NumAxes+len(targetAliases))
	for i, n := range buttonNames {
		m[strcase.ToSnake(n)] = ButtonTarget(Button(i))
	}
	for i, n := range axisNames {
		m[strcase.ToSnake(n)] = AxisTarget(Axis(i))
	}
	for alias, n := range targetAliases {
		m[strcase.ToSnake(alias)] = m[strcase.ToSnake(n)]
	}
	return m
}()

// ParseTarget resolves a target name. Matching is done on the snake case
// form, so "leftStickX", "LeftStickX" and "left_stick_x" are equivalent.
func ParseTarget(name string) (Target, error) {
	t, ok := targetsByName[strcase.ToSnake(name)]
	if !ok {
		return Target{}, fmt.Errorf("unknown target %q", name)
	}
	return t, nil
}
