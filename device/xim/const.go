package xim

import (
	"time"

	"github.com/Alia5/padbridge/device"
)

const (
	// StateSize is the size of the packed state buffer.
	StateSize = 28
	// ButtonWords is the number of 16-bit words holding two buttons each.
	ButtonWords = 8
	// AxisOffset is the byte offset of the first axis value.
	AxisOffset = ButtonWords * 2
	// AxisCount is the number of axis slots.
	AxisCount = 6
	// ButtonCount is the number of used button slots; slot 15 is reserved.
	ButtonCount = 15
)

// AxisScale converts a unit axis value into its wire value. -1.0 maps to
// -32767, never to -32768.
const AxisScale = 32767

// DefaultTimeout bounds every state transfer.
const DefaultTimeout = 200 * time.Millisecond

// Modes accepted by the transport's SetMode.
const (
	ModeThumbsticksDisabled = 0
	ModeThumbsticksEnabled  = 1
)

// Wire slot of every button, in the device's canonical order.
var buttonSlots = [device.NumButtons]int{
	device.ButtonRightShoulder: 0,
	device.ButtonRightStick:    1,
	device.ButtonLeftShoulder:  2,
	device.ButtonLeftStick:     3,
	device.ButtonA:             4,
	device.ButtonB:             5,
	device.ButtonX:             6,
	device.ButtonY:             7,
	device.ButtonUp:            8,
	device.ButtonDown:          9,
	device.ButtonLeft:          10,
	device.ButtonRight:         11,
	device.ButtonStart:         12,
	device.ButtonBack:          13,
	device.ButtonGuide:         14,
}

// Wire slot of every axis.
var axisSlots = [device.NumAxes]int{
	device.AxisRightStickX:  0,
	device.AxisRightStickY:  1,
	device.AxisLeftStickX:   2,
	device.AxisLeftStickY:   3,
	device.AxisRightTrigger: 4,
	device.AxisLeftTrigger:  5,
}

// ButtonSlot returns the wire slot of b.
func ButtonSlot(b device.Button) (int, bool) {
	if !b.Valid() {
		return 0, false
	}
	return buttonSlots[b], true
}

// AxisSlot returns the wire slot of a.
func AxisSlot(a device.Axis) (int, bool) {
	if !a.Valid() {
		return 0, false
	}
	return axisSlots[a], true
}
